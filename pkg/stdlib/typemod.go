package stdlib

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

var typeModule = map[string]eval.Func{
	"is_null":    typeIsKind(types.KindNull),
	"is_bool":    typeIsKind(types.KindBool),
	"is_integer": typeIsKind(types.KindInt),
	"is_float":   typeIsKind(types.KindFloat),
	"is_number":  typeIsNumber,
	"is_string":  typeIsKind(types.KindString),
	"is_array":   typeIsKind(types.KindArray),
	"is_record":  typeIsKind(types.KindRecord),
	"is_binary":  typeIsKind(types.KindBinary),
	"as_string":  typeAsString,
}

func typeIsKind(k types.Kind) eval.Func {
	return func(ctx context.Context, args []types.Value) (types.Value, error) {
		if len(args) != 1 {
			return types.Null, arityError("type::is_*", "1", len(args))
		}
		return types.Bool(args[0].Kind() == k), nil
	}
}

func typeIsNumber(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("type::is_number", "1", len(args))
	}
	return types.Bool(args[0].IsNumber()), nil
}

// typeAsString renders any value the way string concatenation and
// string::format do (type::as_string(5) == "5", not a BadAccess or Type
// error for non-strings).
func typeAsString(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("type::as_string", "1", len(args))
	}
	return types.String(args[0].String()), nil
}
