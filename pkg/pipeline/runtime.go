// Package pipeline executes a compiled [query.DAG] against a stream of
// ingress events (spec §4.G): single-threaded cooperative dispatch per
// pipeline, topological-order traversal per event, bounded-channel
// back-pressure at ingress, and error-port conversion for any operator
// failure.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tremor-rs/tremor/pkg/query"
	"github.com/tremor-rs/tremor/pkg/types"
)

// Event is one ingress item arriving on a named input port (spec §6's
// event envelope contract: payload, metadata, ingest timestamp).
type Event struct {
	Node     string // destination node (the builtin "in" stream unless routed elsewhere)
	Port     string
	Value    types.Value
	Meta     types.Value
	IngestNS int64
}

// Emission is one event this pipeline produced on a terminal stream (the
// builtin "out"/"err" streams, or any other stream with no further
// outgoing edge — spec §4.G: "If no edge consumes err, the error is
// logged and dropped" covers err specifically; any other dead-end stream
// is still surfaced here for the embedding connector to read).
type Emission struct {
	Stream string
	Value  types.Value
	Meta   types.Value
}

// Option configures a Pipeline at construction.
type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option { return func(p *Pipeline) { p.logger = l } }

// WithIngressCapacity sets the bounded ingress channel's capacity, the
// mechanism spec §4.G's back-pressure paragraph names ("the runtime
// enforces ingress pacing by bounded channels between the connector layer
// and the pipeline"). Defaults to 64.
func WithIngressCapacity(n int) Option { return func(p *Pipeline) { p.ingressCap = n } }

// WithTickInterval sets how often Run polls every Select node's
// emit_empty interval window for a clock-driven tick (see tick). Defaults
// to 100ms; a tumbling window's own `interval` is independent of this —
// this only bounds how promptly a tick is noticed, not how long one
// actually waits between emissions.
func WithTickInterval(d time.Duration) Option { return func(p *Pipeline) { p.tickInterval = d } }

// Pipeline owns one compiled DAG's runtime state: its per-operator window/
// group state (held inside each query.Node's Select/Script operator,
// mutated only from this pipeline's own goroutine) and its ingress/egress
// channels.
type Pipeline struct {
	ID     uuid.UUID
	dag    *query.DAG
	order  []string
	logger *slog.Logger

	ingressCap   int
	ingress      chan Event
	emissions    chan Emission
	tickInterval time.Duration

	instanceName string
}

// New builds a Pipeline from a compiled DAG. The pipeline is not yet
// running; call Run in its own goroutine (or let the caller's worker pool
// do so — spec §5: "Multiple pipelines run independently on a thread
// pool").
func New(dag *query.DAG, instanceName string, opts ...Option) *Pipeline {
	p := &Pipeline{
		ID:           uuid.Must(uuid.NewV7()),
		dag:          dag,
		order:        dag.TopoOrder(),
		ingressCap:   64,
		tickInterval: 100 * time.Millisecond,
		instanceName: instanceName,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.ingress = make(chan Event, p.ingressCap)
	p.emissions = make(chan Emission, p.ingressCap)
	return p
}

// Emissions returns the channel of terminal events this pipeline
// produces. The caller (a connector, or a test) must drain it or Run's
// sends will block once the channel fills, back-pressuring the whole
// pipeline in turn.
func (p *Pipeline) Emissions() <-chan Emission { return p.emissions }

// Submit enqueues one ingress event, blocking if the bounded ingress
// channel is full (the back-pressure mechanism itself) until either the
// event is accepted or ctx is cancelled.
func (p *Pipeline) Submit(ctx context.Context, ev Event) error {
	if ev.Node == "" {
		ev.Node = "in"
	}
	select {
	case p.ingress <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the ingress channel until ctx is cancelled, dispatching each
// event through the DAG single-threadedly — spec §5: "the scripting
// evaluator itself is synchronous; it cannot suspend" and "[pipeline]
// suspension points [are] only at pipeline boundaries (between an ingress
// event and the next)". Cancellation is polled between events, never
// mid-event, matching §5's cancellation paragraph exactly. Run closes the
// emissions channel when it returns.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.emissions)
	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.tick(ctx, now.UnixNano(), func(em Emission) { p.emissions <- em })
		case ev, ok := <-p.ingress:
			if !ok {
				return
			}
			p.dispatch(ctx, ev, func(em Emission) { p.emissions <- em })
		}
	}
}

// ProcessSync dispatches one event through the DAG and returns every
// terminal emission it produced, without going through the ingress or
// emissions channels or driving the clock-based tick Run polls on — a
// finite batch replay has no wall clock of its own, so an emit_empty
// window only fires here on an event, never on elapsed real time.
// cmd/tremor's `run` subcommand replays a finite input file and wants
// each event's output back in lock-step, so it uses this instead of
// Submit+Emissions. Do not mix ProcessSync and Submit/Run on the same
// Pipeline: both drive the same DAG window/group state and would
// interleave events non-deterministically.
func (p *Pipeline) ProcessSync(ctx context.Context, ev Event) []Emission {
	if ev.Node == "" {
		ev.Node = "in"
	}
	var out []Emission
	p.dispatch(ctx, ev, func(em Emission) { out = append(out, em) })
	return out
}

// dispatch performs one event's full topological pass: a single scan
// through the DAG's precomputed topological order, accumulating each
// node's produced outputs into its downstream nodes' pending queues
// before that downstream node is itself visited — this is what makes one
// linear pass sufficient instead of a recursive depth-first walk per
// spec §4.G's "depth-first traversal in topological order" (the two
// describe the same visitation order for an acyclic graph; Kahn's
// algorithm already computed it once at compile time in
// query.DAG.TopoOrder).
func (p *Pipeline) dispatch(ctx context.Context, ev Event, emit func(Emission)) {
	ictx := withIngestContext(ctx, ev.IngestNS, p.instanceName)
	pending := map[string][]portValue{ev.Node: {{port: ev.Port, val: ev.Value, meta: ev.Meta}}}

	for _, name := range p.order {
		items := pending[name]
		if len(items) == 0 {
			continue
		}
		delete(pending, name)
		node := p.dag.Nodes[name]

		for _, item := range items {
			if node.Kind == query.KindStream && (name == "out" || name == "err") {
				emit(Emission{Stream: name, Value: item.val, Meta: item.meta})
				continue
			}
			p.route(name, runNode(ictx, node, item.val, item.meta, ev.IngestNS), pending, emit)
		}
	}
}

// tick drives every emit_empty-capable Select node's interval window off
// the runtime clock instead of an incoming event (spec §4.E), then
// propagates whatever it emits through the rest of the DAG exactly like
// dispatch does for an event-sourced emission. Run calls this on its own
// poll cadence; it is a no-op pass for a DAG with no ticking window.
func (p *Pipeline) tick(ctx context.Context, nowNS int64, emit func(Emission)) {
	ictx := withIngestContext(ctx, nowNS, p.instanceName)
	pending := map[string][]portValue{}

	for _, name := range p.order {
		node := p.dag.Nodes[name]
		if node.Kind == query.KindSelect {
			p.route(name, tickNode(ictx, node, nowNS), pending, emit)
			continue
		}
		items := pending[name]
		if len(items) == 0 {
			continue
		}
		delete(pending, name)
		for _, item := range items {
			if node.Kind == query.KindStream && (name == "out" || name == "err") {
				emit(Emission{Stream: name, Value: item.val, Meta: item.meta})
				continue
			}
			p.route(name, runNode(ictx, node, item.val, item.meta, nowNS), pending, emit)
		}
	}
}

// route sends outs, the values name just produced, to every downstream
// edge leaving name (queuing them in pending for that edge's destination
// node's turn later in topological order) or, for a dead-end port, to
// emit directly — shared by dispatch's event-driven pass and tick's
// clock-driven one.
func (p *Pipeline) route(name string, outs []portValue, pending map[string][]portValue, emit func(Emission)) {
	for _, out := range outs {
		edges := p.dag.OutEdges(name, out.port)
		if len(edges) == 0 {
			if out.port == "err" {
				p.logger.Warn("dropped error event: no edge consumes err port", "node", name)
			} else {
				emit(Emission{Stream: name + "/" + out.port, Value: out.val, Meta: out.meta})
			}
			continue
		}
		for _, e := range edges {
			pending[e.To.Node] = append(pending[e.To.Node], portValue{port: e.To.Port, val: out.val, meta: out.meta})
		}
	}
}
