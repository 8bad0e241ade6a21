package stdlib

import (
	"context"
	"encoding/base64"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

var base64Module = map[string]eval.Func{
	"encode": base64Encode,
	"decode": base64Decode,
}

func base64Encode(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("base64::encode", "1", len(args))
	}
	var raw []byte
	switch {
	case args[0].IsBinary():
		raw, _ = args[0].AsBinary()
	case args[0].IsString():
		s, _ := args[0].AsString()
		raw = []byte(s)
	default:
		return types.Null, typeErrorf("base64::encode: argument 1 must be a string or binary")
	}
	return types.String(base64.StdEncoding.EncodeToString(raw)), nil
}

func base64Decode(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("base64::decode", "1", len(args))
	}
	s, err := asStringArg("base64::decode", args, 0)
	if err != nil {
		return types.Null, err
	}
	b, derr := base64.StdEncoding.DecodeString(s)
	if derr != nil {
		return types.Null, typeErrorf("base64::decode: %v", derr)
	}
	return types.Binary(b), nil
}
