package stdlib

import (
	"context"
	"math"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

var mathModule = map[string]eval.Func{
	"floor": mathFloor,
	"ceil":  mathCeil,
	"round": mathRound,
	"trunc": mathTrunc,
	"min":   mathMin,
	"max":   mathMax,
}

func asNumberArg(fn string, args []types.Value, i int) (float64, error) {
	if i >= len(args) {
		return 0, typeErrorf("%s: missing argument %d", fn, i+1)
	}
	n, ok := args[i].Number()
	if !ok {
		return 0, typeErrorf("%s: argument %d must be a number", fn, i+1)
	}
	return n, nil
}

func mathFloor(ctx context.Context, args []types.Value) (types.Value, error) {
	n, err := asNumberArg("math::floor", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Float(math.Floor(n)), nil
}

func mathCeil(ctx context.Context, args []types.Value) (types.Value, error) {
	n, err := asNumberArg("math::ceil", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Float(math.Ceil(n)), nil
}

func mathRound(ctx context.Context, args []types.Value) (types.Value, error) {
	n, err := asNumberArg("math::round", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Float(math.Round(n)), nil
}

func mathTrunc(ctx context.Context, args []types.Value) (types.Value, error) {
	n, err := asNumberArg("math::trunc", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.Float(math.Trunc(n)), nil
}

func mathMin(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) < 1 {
		return types.Null, arityError("math::min", "at least 1", len(args))
	}
	return mathExtreme(args, func(a, b float64) bool { return a < b })
}

func mathMax(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) < 1 {
		return types.Null, arityError("math::max", "at least 1", len(args))
	}
	return mathExtreme(args, func(a, b float64) bool { return a > b })
}

func mathExtreme(args []types.Value, better func(a, b float64) bool) (types.Value, error) {
	best := args[0]
	bestN, ok := best.Number()
	if !ok {
		return types.Null, typeErrorf("math::min/max: argument 1 must be a number")
	}
	for _, v := range args[1:] {
		n, ok := v.Number()
		if !ok {
			return types.Null, typeErrorf("math::min/max: all arguments must be numbers")
		}
		if better(n, bestN) {
			best, bestN = v, n
		}
	}
	return best, nil
}
