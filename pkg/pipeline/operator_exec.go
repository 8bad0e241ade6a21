package pipeline

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/query"
	"github.com/tremor-rs/tremor/pkg/stdlib"
	"github.com/tremor-rs/tremor/pkg/types"
)

// portValue is one value produced on one named output port of a node,
// queued against that node's outgoing edges for the next dispatch step.
type portValue struct {
	port string
	val  types.Value
	meta types.Value
}

// runNode executes one DAG node against one incoming (value, meta) pair,
// returning every (port, value) it produces. A Stream node is a bare
// pass-through (it exists only to be an edge endpoint — the builtin
// in/out/err streams and any `create stream` instance). Script and Select
// nodes run their wrapped operator; a runtime error becomes a single
// "err"-port output carrying the §4.G error payload rather than
// propagating as a Go error — the pipeline loop itself never stops on an
// operator failure (spec §4.G: "never panic the host").
func runNode(ctx context.Context, node *query.Node, val, meta types.Value, nowNS int64) []portValue {
	switch node.Kind {
	case query.KindStream:
		return []portValue{{port: "out", val: val, meta: meta}}

	case query.KindScript:
		env := ingestEnvelope(val, meta, node.Script.Args, nowNS)
		res, err := node.Script.Evaluator.Run(ctx, node.Script.Script, env)
		if err != nil {
			return []portValue{{port: "err", val: errorRecord(err), meta: meta}}
		}
		out := make([]portValue, 0, len(res.Emissions))
		for _, em := range res.Emissions {
			out = append(out, portValue{port: em.Port, val: em.Value, meta: res.Envelope.Meta})
		}
		return out

	case query.KindSelect:
		env := ingestEnvelope(val, meta, types.Null, nowNS)
		ems, err := node.Select.Run(ctx, env, nowNS)
		if err != nil {
			return []portValue{{port: "err", val: errorRecord(err), meta: meta}}
		}
		out := make([]portValue, 0, len(ems))
		for _, em := range ems {
			out = append(out, portValue{port: "out", val: em.Value, meta: em.Meta})
		}
		return out // nil/empty when filtered by where/having, or accumulated without emitting yet

	case query.KindOperator:
		// Generic built-in operators (batch, generic::backpressure, ...)
		// beyond select/script/window are a named catalogue spec §4.F
		// alludes to via `define operator ... from KIND` without
		// specifying each one's behavior; absent that detail, a generic
		// operator instance passes its event through unchanged (see
		// DESIGN.md) rather than guessing at semantics spec.md never
		// states.
		return []portValue{{port: "out", val: val, meta: meta}}

	default:
		return nil
	}
}

// tickNode drives one Select node's emit_empty interval window off the
// runtime clock, for nodes runNode never otherwise visits between events.
// Every other Kind is a no-op: emit_empty only exists on windowed selects.
func tickNode(ctx context.Context, node *query.Node, nowNS int64) []portValue {
	if node.Kind != query.KindSelect {
		return nil
	}
	em, err := node.Select.Tick(ctx, nowNS)
	if err != nil {
		return []portValue{{port: "err", val: errorRecord(err), meta: types.Null}}
	}
	if em == nil {
		return nil
	}
	return []portValue{{port: "out", val: em.Value, meta: em.Meta}}
}

func ingestEnvelope(val, meta, args types.Value, nowNS int64) *eval.Envelope {
	_ = nowNS
	return eval.NewEnvelope(val, meta, args)
}

// withIngestContext attaches the connector-supplied ingest timestamp to
// ctx so system::ingest_ns() (pkg/stdlib) resolves it for every intrinsic
// call this event's evaluation makes (spec §6).
func withIngestContext(ctx context.Context, nowNS int64, instance string) context.Context {
	ctx = stdlib.WithIngestNS(ctx, nowNS)
	return stdlib.WithInstance(ctx, instance)
}
