package eval

import (
	"context"
	"log/slog"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/types"
)

// Func is the signature every stdlib intrinsic and custom host function
// implements, mirroring the teacher's FunctionDef.Impl shape
// (pkg/evaluator/functions.go) narrowed to tremor's tagged [types.Value]
// instead of bare interface{}.
type Func func(ctx context.Context, args []types.Value) (types.Value, error)

// Registry resolves module::name intrinsic lookups against the standard
// library (pkg/stdlib implements this without pkg/eval importing it back,
// breaking the cycle the teacher avoids by keeping pkg/functions import-
// free of pkg/evaluator).
type Registry interface {
	Lookup(module, name string) (Func, bool)
}

// Backend executes an intrinsic function declared with a non-native
// backend (spec SUPPLEMENTED FEATURES: wasm::/js:: intrinsic targets).
// pkg/wasmfn and pkg/jsfn each implement this without pkg/eval depending
// on either.
type Backend interface {
	Call(ctx context.Context, target string, args []types.Value) (types.Value, error)
}

// EvalOptions configures an Evaluator, mirroring the teacher's EvalOptions
// (pkg/evaluator/evaluator.go) narrowed to what tremor-script actually
// needs: no caching/concurrency knobs here (those live at the pkg/cache and
// pkg/pipeline layers respectively), but the same functional-options shape.
type EvalOptions struct {
	Registry         Registry
	Backends         map[ast.Backend]Backend
	MaxRecursionDepth int
	Logger           *slog.Logger
}

type EvalOption func(*EvalOptions)

func WithRegistry(r Registry) EvalOption {
	return func(o *EvalOptions) { o.Registry = r }
}

func WithBackend(b ast.Backend, impl Backend) EvalOption {
	return func(o *EvalOptions) {
		if o.Backends == nil {
			o.Backends = map[ast.Backend]Backend{}
		}
		o.Backends[b] = impl
	}
}

func WithMaxRecursionDepth(n int) EvalOption {
	return func(o *EvalOptions) { o.MaxRecursionDepth = n }
}

func WithLogger(l *slog.Logger) EvalOption {
	return func(o *EvalOptions) { o.Logger = l }
}

// Evaluator evaluates compiled tremor-script ASTs against event envelopes.
// One Evaluator is shared across many [Script] runs; it holds no per-run
// mutable state itself (spec §5: the evaluator is synchronous and
// run-to-completion per event, never shared mutable state across events).
type Evaluator struct {
	opts EvalOptions
}

// New creates an Evaluator. Default recursion depth (1024) matches spec
// §4.C's "configurable depth (default 1024, operator-supplied)".
func New(opts ...EvalOption) *Evaluator {
	o := EvalOptions{MaxRecursionDepth: 1024}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Evaluator{opts: o}
}

// Script is a compiled tremor-script program: its top-level user functions
// and intrinsic declarations hoisted into lookup tables, and the remaining
// sequence of top-level statements to run per event.
type Script struct {
	fns        map[string]*ast.Node // name -> FnDef
	intrinsics map[string]*ast.Node // local name -> IntrinsicDecl
	stmts      []*ast.Node
}

// Compile hoists a parsed Program's fn/intrinsic declarations and returns
// the remaining statement sequence to run per event, the way the teacher's
// parser separates declarations from the evaluated expression body.
func Compile(program *ast.Node) *Script {
	s := &Script{fns: map[string]*ast.Node{}, intrinsics: map[string]*ast.Node{}}
	for _, n := range program.Children {
		switch n.Type {
		case ast.FnDef:
			s.fns[n.StrVal] = n
		case ast.IntrinsicDecl:
			s.intrinsics[n.StrVal] = n
		default:
			s.stmts = append(s.stmts, n)
		}
	}
	return s
}

type recurseDepthKey struct{}

func withRecurseDepth(ctx context.Context) context.Context {
	d := 0
	return context.WithValue(ctx, recurseDepthKey{}, &d)
}

func recurseDepthPtr(ctx context.Context) *int {
	if p, ok := ctx.Value(recurseDepthKey{}).(*int); ok {
		return p
	}
	return nil
}

// Run evaluates script against env, returning the final envelope and every
// emission produced (spec §4.C operation: apply a script to an event
// envelope and return an updated envelope with zero or more emissions).
func (e *Evaluator) Run(ctx context.Context, script *Script, env *Envelope) (*Result, error) {
	ctx = withRecurseDepth(ctx)
	ec := evalContext{env: env, scope: newRootScope(nil, nil)}

	rt := &runtime{eval: e, script: script}
	val, err := rt.evalBlockStmts(ctx, ec, script.stmts)
	if h, ok := asHalt(err); ok {
		if h.dropped {
			return &Result{Envelope: env}, nil
		}
		return &Result{Envelope: env, Emissions: []Emission{{Value: h.value, Port: h.port}}}, nil
	}
	if err != nil {
		return nil, err
	}
	// spec §4.C Termination: no explicit emit/drop emits the final value on "out".
	return &Result{Envelope: env, Emissions: []Emission{{Value: val, Port: "out"}}}, nil
}

// EvalExpr evaluates a single expression (used by the query layer to run a
// select target / where / having / group-by expression against a bound
// envelope, group key and window name — spec §4.E result bindings).
func (e *Evaluator) EvalExpr(ctx context.Context, script *Script, env *Envelope, group *types.Value, window string, expr *ast.Node) (types.Value, error) {
	return e.EvalAggregateExpr(ctx, script, env, group, window, nil, expr)
}

// EvalAggregateExpr is EvalExpr plus a precomputed-aggregate binding: every
// `aggr::*` call node present as a key in aggrResults returns its bound
// value directly instead of being dispatched through the stdlib registry
// (spec §4.E: "any aggr::* call yields the aggregated value at emission
// time" — the aggregate's running state lives in pkg/window, computed
// incrementally over the group's events, not re-derived from the single
// event this call sees).
func (e *Evaluator) EvalAggregateExpr(ctx context.Context, script *Script, env *Envelope, group *types.Value, window string, aggrResults map[*ast.Node]types.Value, expr *ast.Node) (types.Value, error) {
	ctx = withRecurseDepth(ctx)
	rootScope := newRootScope(group, &window)
	ec := evalContext{env: env, scope: rootScope}
	rt := &runtime{eval: e, script: script, aggrResults: aggrResults}
	return rt.evalExpr(ctx, ec, expr)
}

// runtime is the per-Run worker: it holds the (Evaluator, Script) pair
// every eval* method needs, avoiding having to thread both through every
// call the way the teacher threads (*Evaluator, *EvalContext) pairs through
// evalNode.
type runtime struct {
	eval        *Evaluator
	script      *Script
	aggrResults map[*ast.Node]types.Value
}
