package stdlib

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// originModule implements spec §4.D's origin:: accessors over a connector's
// origin URI (conventionally the string a connector writes into
// $meta.origin_uri — see spec §6's event envelope contract). Each accessor
// takes that URI string and projects out one component, using net/url the
// way string::format-adjacent parsing elsewhere in this package does.
var originModule = map[string]eval.Func{
	"scheme":       originScheme,
	"host":         originHost,
	"port":         originPort,
	"path":         originPath,
	"as_uri_string": originAsURIString,
	"as_uri_record": originAsURIRecord,
}

func parseOriginURI(fn string, args []types.Value) (*url.URL, error) {
	s, err := asStringArg(fn, args, 0)
	if err != nil {
		return nil, err
	}
	u, perr := url.Parse(s)
	if perr != nil {
		return nil, typeErrorf("%s: invalid origin URI: %v", fn, perr)
	}
	return u, nil
}

func originScheme(ctx context.Context, args []types.Value) (types.Value, error) {
	u, err := parseOriginURI("origin::scheme", args)
	if err != nil {
		return types.Null, err
	}
	return types.String(u.Scheme), nil
}

func originHost(ctx context.Context, args []types.Value) (types.Value, error) {
	u, err := parseOriginURI("origin::host", args)
	if err != nil {
		return types.Null, err
	}
	return types.String(u.Hostname()), nil
}

func originPort(ctx context.Context, args []types.Value) (types.Value, error) {
	u, err := parseOriginURI("origin::port", args)
	if err != nil {
		return types.Null, err
	}
	p := u.Port()
	if p == "" {
		return types.Null, nil
	}
	n, perr := strconv.Atoi(p)
	if perr != nil {
		return types.Null, typeErrorf("origin::port: %v", perr)
	}
	return types.Int(int64(n)), nil
}

func originPath(ctx context.Context, args []types.Value) (types.Value, error) {
	u, err := parseOriginURI("origin::path", args)
	if err != nil {
		return types.Null, err
	}
	return types.String(u.Path), nil
}

func originAsURIString(ctx context.Context, args []types.Value) (types.Value, error) {
	u, err := parseOriginURI("origin::as_uri_string", args)
	if err != nil {
		return types.Null, err
	}
	return types.String(u.String()), nil
}

func originAsURIRecord(ctx context.Context, args []types.Value) (types.Value, error) {
	u, err := parseOriginURI("origin::as_uri_record", args)
	if err != nil {
		return types.Null, err
	}
	rec := types.NewRecord()
	rec.Set("scheme", types.String(u.Scheme))
	rec.Set("host", types.String(u.Hostname()))
	if p := u.Port(); p != "" {
		if n, perr := strconv.Atoi(p); perr == nil {
			rec.Set("port", types.Int(int64(n)))
		}
	}
	rec.Set("path", types.String(u.Path))
	return types.RecordValue(rec), nil
}
