package stdlib

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

var rangeModule = map[string]eval.Func{
	"range":    rangeRange,
	"contains": rangeContains,
}

// rangeRange builds [start, end) as an array, mirroring how the §4.A path
// range step works (inclusive start, exclusive end).
func rangeRange(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 2 {
		return types.Null, arityError("range::range", "2", len(args))
	}
	start, ok1 := args[0].AsInt()
	end, ok2 := args[1].AsInt()
	if !ok1 || !ok2 {
		return types.Null, typeErrorf("range::range: both bounds must be integers")
	}
	if end < start {
		return types.Null, typeErrorf("range::range: end must be >= start")
	}
	out := make([]types.Value, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, types.Int(i))
	}
	return types.Array(out), nil
}

func rangeContains(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 3 {
		return types.Null, arityError("range::contains", "3", len(args))
	}
	start, ok1 := args[0].AsInt()
	end, ok2 := args[1].AsInt()
	n, ok3 := args[2].AsInt()
	if !ok1 || !ok2 || !ok3 {
		return types.Null, typeErrorf("range::contains: all arguments must be integers")
	}
	return types.Bool(n >= start && n < end), nil
}
