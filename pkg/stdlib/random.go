package stdlib

import (
	"context"
	"math/rand"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// randomModule implements spec §4.D's random:: module with math/rand,
// matching the teacher's fn_numeric.go/fn_array.go use of the same package
// for its own "random"/"shuffle" builtins.
var randomModule = map[string]eval.Func{
	"bool":    randomBool,
	"string":  randomString,
	"integer": randomInteger,
	"float":   randomFloat,
}

const randomStringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomBool(ctx context.Context, args []types.Value) (types.Value, error) {
	return types.Bool(rand.Intn(2) == 1), nil
}

func randomString(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 || !args[0].IsInt() {
		return types.Null, typeErrorf("random::string: argument 1 must be an integer length")
	}
	n, _ := args[0].AsInt()
	if n < 0 {
		return types.Null, typeErrorf("random::string: length must be non-negative")
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = randomStringAlphabet[rand.Intn(len(randomStringAlphabet))]
	}
	return types.String(string(out)), nil
}

// randomInteger returns a value in [low, high), two-argument form
// (random::integer(low, high)); with no arguments it returns a full-range
// int64, matching math::min/max's "varargs optional bound" style.
func randomInteger(ctx context.Context, args []types.Value) (types.Value, error) {
	switch len(args) {
	case 0:
		return types.Int(rand.Int63()), nil
	case 2:
		low, ok1 := args[0].AsInt()
		high, ok2 := args[1].AsInt()
		if !ok1 || !ok2 || high <= low {
			return types.Null, typeErrorf("random::integer: expects low < high integers")
		}
		return types.Int(low + rand.Int63n(high-low)), nil
	default:
		return types.Null, arityError("random::integer", "0 or 2", len(args))
	}
}

func randomFloat(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 0 {
		return types.Null, arityError("random::float", "0", len(args))
	}
	return types.Float(rand.Float64()), nil
}
