package stdlib

import (
	"context"
	"net/url"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

var urlModule = map[string]eval.Func{
	"encode": urlEncode,
	"decode": urlDecode,
}

func urlEncode(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("url::encode", "1", len(args))
	}
	s, err := asStringArg("url::encode", args, 0)
	if err != nil {
		return types.Null, err
	}
	return types.String(url.QueryEscape(s)), nil
}

func urlDecode(ctx context.Context, args []types.Value) (types.Value, error) {
	if len(args) != 1 {
		return types.Null, arityError("url::decode", "1", len(args))
	}
	s, err := asStringArg("url::decode", args, 0)
	if err != nil {
		return types.Null, err
	}
	decoded, derr := url.QueryUnescape(s)
	if derr != nil {
		return types.Null, typeErrorf("url::decode: %v", derr)
	}
	return types.String(decoded), nil
}
