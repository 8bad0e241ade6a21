package stdlib

import (
	"context"
	"os"
	"time"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// ingestNSKey/instanceKey let the connector/pipeline layer inject the
// per-event ingest timestamp and the running instance's identity into the
// evaluation context (spec §6: "Timestamps are supplied by the connector
// and exposed via system::ingest_ns()"). Falling back to wall-clock time
// and a static name keeps system:: usable from a bare script run too
// (cmd/tremor's `run` subcommand, or these tests).
type ingestNSKey struct{}
type instanceKey struct{}

// WithIngestNS attaches the connector-supplied ingest timestamp (nanoseconds
// since the UNIX epoch) that system::ingest_ns() returns for the duration
// of ctx.
func WithIngestNS(ctx context.Context, ns int64) context.Context {
	return context.WithValue(ctx, ingestNSKey{}, ns)
}

// WithInstance attaches the running instance's identity that
// system::instance() returns for the duration of ctx.
func WithInstance(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, instanceKey{}, name)
}

var systemModule = map[string]eval.Func{
	"hostname":  systemHostname,
	"ingest_ns": systemIngestNS,
	"instance":  systemInstance,
}

func systemHostname(ctx context.Context, args []types.Value) (types.Value, error) {
	h, err := os.Hostname()
	if err != nil {
		return types.Null, typeErrorf("system::hostname: %v", err)
	}
	return types.String(h), nil
}

func systemIngestNS(ctx context.Context, args []types.Value) (types.Value, error) {
	if ns, ok := ctx.Value(ingestNSKey{}).(int64); ok {
		return types.Int(ns), nil
	}
	return types.Int(time.Now().UnixNano()), nil
}

func systemInstance(ctx context.Context, args []types.Value) (types.Value, error) {
	if name, ok := ctx.Value(instanceKey{}).(string); ok {
		return types.String(name), nil
	}
	return types.String("tremor"), nil
}
