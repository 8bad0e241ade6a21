package stdlib

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// sizeModule implements spec §4.D's size:: unit-conversion helpers: each
// multiplies its argument by the named binary-prefix magnitude
// (size::kiB(2) == 2048).
var sizeModule = map[string]eval.Func{
	"kiB": sizeUnit(1 << 10),
	"MiB": sizeUnit(1 << 20),
	"GiB": sizeUnit(1 << 30),
	"TiB": sizeUnit(1 << 40),
	"PiB": sizeUnit(1 << 50),
	"EiB": sizeUnit(1 << 60),
}

func sizeUnit(factor int64) eval.Func {
	return func(ctx context.Context, args []types.Value) (types.Value, error) {
		if len(args) != 1 || !args[0].IsInt() {
			return types.Null, typeErrorf("size::*: argument 1 must be an integer")
		}
		n, _ := args[0].AsInt()
		return types.Int(n * factor), nil
	}
}
