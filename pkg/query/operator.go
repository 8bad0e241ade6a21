package query

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
	"github.com/tremor-rs/tremor/pkg/window"
)

// ScriptOperator wraps a `create script` instance: a compiled tremor-script
// program bound to the `with` arguments the create statement supplied.
type ScriptOperator struct {
	Evaluator *eval.Evaluator
	Script    *eval.Script
	Args      types.Value
}

// Run applies the wrapped script to one event (spec §4.C via §4.F's
// `create script` wiring): the script's own emit/drop/implicit-out
// termination becomes this operator's single emission.
func (o *ScriptOperator) Run(ctx context.Context, event, meta types.Value) (*eval.Result, error) {
	env := eval.NewEnvelope(event, meta, o.Args)
	return o.Evaluator.Run(ctx, o.Script, env)
}

// SelectOperator wraps one `select ... from ... into ...` statement: the
// target/where/having expressions, the (possibly cascaded) window spec,
// and the window engine state this particular operator instance owns.
type SelectOperator struct {
	Target  *ast.Node
	Where   *ast.Node // nil => no filter
	Having  *ast.Node // nil => no post-aggregation filter
	GroupBy *ast.Node // nil => one implicit ungrouped key

	windowSpecs []window.Spec
	windowNames []string        // cascade stage names, outermost last
	cascade     *window.Cascade // nil when windowSpecs is empty: no windowing, emit per event

	aggrCalls  []*ast.Node // every aggr::* call found in Target/Having
	registry   *window.Registry
	evaluator  *eval.Evaluator
	emptyScript *eval.Script
}

// NewSelectOperator builds the operator from a parsed SelectStmt node plus
// the resolved window specs for its `[w1, w2, ...]` cascade (empty when
// the select carries no window reference).
func NewSelectOperator(n *ast.Node, windowSpecs []window.Spec, windowNames []string, ev *eval.Evaluator, reg *window.Registry) *SelectOperator {
	o := &SelectOperator{
		Target:      n.RHS,
		GroupBy:     n.GroupBy,
		windowSpecs: windowSpecs,
		windowNames: windowNames,
		registry:    reg,
		evaluator:   ev,
		emptyScript: eval.Compile(&ast.Node{Type: ast.Program}),
	}
	o.Where = n.Guard
	for _, c := range n.Children {
		// the having-clause wrapper parseSelect appends to Children is the
		// only GroupExpr node that ends up there — window refs are
		// StreamRef nodes (see pkg/parser/query.go's parseSelect).
		if c.Type == ast.GroupExpr {
			o.Having = c.RHS
		}
	}
	if len(windowSpecs) > 0 {
		o.cascade = window.NewCascade(windowSpecs)
	}
	o.aggrCalls = append(collectAggrCalls(o.Target), collectAggrCalls(o.Having)...)
	return o
}

// aggregatorFor resolves an aggr::* call node to its window.Aggregator,
// the AggregatorLookup window.Cascade needs to merge stage state.
func (o *SelectOperator) aggregatorFor(n *ast.Node) (window.Aggregator, bool) {
	mod, fn, ok := splitAggrTarget(n)
	if !ok {
		return nil, false
	}
	return o.registry.Lookup(mod, fn)
}

// splitAggrTarget strips the leading "aggr" segment off an aggr::module::fn
// call node's ModuleName/StrVal, returning the bare module/fn the
// window.Registry keys on.
func splitAggrTarget(n *ast.Node) (mod, fn string, ok bool) {
	const prefix = "aggr::"
	if n.ModuleName == "aggr" {
		return "", "", false // aggr::fn with no module — not a recognised stats/win target
	}
	if len(n.ModuleName) > len(prefix) && n.ModuleName[:len(prefix)] == prefix {
		return n.ModuleName[len(prefix):], n.StrVal, true
	}
	return "", "", false
}

func collectAggrCalls(n *ast.Node) []*ast.Node {
	if n == nil {
		return nil
	}
	var out []*ast.Node
	if n.Type == ast.FnCall {
		if _, _, ok := splitAggrTarget(n); ok {
			out = append(out, n)
		}
	}
	out = append(out, collectAggrCalls(n.LHS)...)
	out = append(out, collectAggrCalls(n.RHS)...)
	out = append(out, collectAggrCalls(n.Guard)...)
	out = append(out, collectAggrCalls(n.Into)...)
	out = append(out, collectAggrCalls(n.GroupBy)...)
	for _, c := range n.Children {
		out = append(out, collectAggrCalls(c)...)
	}
	for _, s := range n.Steps {
		out = append(out, collectAggrCalls(s)...)
	}
	return out
}

// Emission is one event a SelectOperator produces for downstream edges.
type Emission struct {
	Value types.Value
	Meta  types.Value
}

// Run evaluates one event against the select. A non-windowed select emits
// immediately (subject to where/having); a windowed select accumulates
// into its group and only emits when the (possibly cascaded) window
// fires — spec §4.E "downstream consumers... see one event per emission
// at the outermost window that fires". A `group by set(…, each(…))`
// composite key fans one event out across several groups (spec §4.E),
// each tracked independently by the cascade, so this can return more than
// one Emission for a single incoming event.
func (o *SelectOperator) Run(ctx context.Context, env *eval.Envelope, nowNS int64) ([]*Emission, error) {
	if o.Where != nil {
		keep, err := o.evaluator.EvalExpr(ctx, o.emptyScript, env, nil, "", o.Where)
		if err != nil {
			return nil, err
		}
		if !keep.Truthy() {
			return nil, nil
		}
	}

	if o.cascade == nil {
		em, err := o.runUnwindowed(ctx, env)
		if err != nil || em == nil {
			return nil, err
		}
		return []*Emission{em}, nil
	}
	return o.runWindowed(ctx, env, nowNS)
}

func (o *SelectOperator) runUnwindowed(ctx context.Context, env *eval.Envelope) (*Emission, error) {
	target, err := o.evaluator.EvalExpr(ctx, o.emptyScript, env, nil, "", o.Target)
	if err != nil {
		return nil, err
	}
	if o.Having != nil {
		keep, err := o.evaluator.EvalExpr(ctx, o.emptyScript, env, nil, "", o.Having)
		if err != nil {
			return nil, err
		}
		if !keep.Truthy() {
			return nil, nil
		}
	}
	return &Emission{Value: target, Meta: env.Meta}, nil
}

func (o *SelectOperator) runWindowed(ctx context.Context, env *eval.Envelope, nowNS int64) ([]*Emission, error) {
	keys := [][]types.Value{nil}
	var keyNode *ast.Node
	if o.GroupBy != nil {
		groups, err := window.GenerateGroups(ctx, o.evaluator, o.emptyScript, env, o.GroupBy)
		if err != nil {
			return nil, err
		}
		keys = groups
		keyNode = o.GroupBy
	}

	var out []*Emission
	for _, key := range keys {
		em, err := o.observeGroup(ctx, env, nowNS, key, keyNode)
		if err != nil {
			return nil, err
		}
		if em != nil {
			out = append(out, em)
		}
	}
	return out, nil
}

// observeGroup feeds one event into one generated group's cascade state
// and returns its Emission, or nil if that group's window hasn't fired.
func (o *SelectOperator) observeGroup(ctx context.Context, env *eval.Envelope, nowNS int64, key []types.Value, keyNode *ast.Node) (*Emission, error) {
	keyStr := window.GroupKeyString(key)

	var evalErr error
	snapshot, err := o.cascade.Observe(keyStr, key, keyNode, nowNS, func(g *window.Group) error {
		for _, call := range o.aggrCalls {
			agg, ok := o.aggregatorFor(call)
			if !ok {
				continue
			}
			var argVal types.Value
			if len(call.Children) > 0 {
				argVal, evalErr = o.evaluator.EvalExpr(ctx, o.emptyScript, env, nil, "", call.Children[0])
				if evalErr != nil {
					return evalErr
				}
			}
			state, ok := g.AggrStates[call]
			if !ok {
				state = agg.Init()
			}
			state, evalErr = agg.Accumulate(state, argVal)
			if evalErr != nil {
				return evalErr
			}
			g.AggrStates[call] = state
		}
		return nil
	}, o.aggregatorFor)
	if err != nil || snapshot == nil {
		return nil, err
	}

	aggrResults := o.emitAggrResults(snapshot)
	groupVal := types.Null
	if keyNode != nil {
		groupVal = window.GroupKeyValue(keyNode, snapshot.Key)
	}
	return o.evalTarget(ctx, env, &groupVal, aggrResults)
}

// emitAggrResults runs every aggr::* call's Emit against snapshot, falling
// back to that aggregator's zero state (Init()) for a call that never
// accumulated anything — the case Tick's zero-event snapshot always hits,
// since its group's AggrStates map starts out empty.
func (o *SelectOperator) emitAggrResults(snapshot *window.Group) map[*ast.Node]types.Value {
	aggrResults := map[*ast.Node]types.Value{}
	for _, call := range o.aggrCalls {
		agg, ok := o.aggregatorFor(call)
		if !ok {
			continue
		}
		state, has := snapshot.AggrStates[call]
		if !has {
			state = agg.Init()
		}
		aggrResults[call] = agg.Emit(state)
	}
	return aggrResults
}

// evalTarget runs the select's target/having expressions against one
// emitted (possibly empty) aggregation snapshot, shared by observeGroup
// and Tick.
func (o *SelectOperator) evalTarget(ctx context.Context, env *eval.Envelope, groupVal *types.Value, aggrResults map[*ast.Node]types.Value) (*Emission, error) {
	windowName := ""
	if len(o.windowNames) > 0 {
		windowName = o.windowNames[len(o.windowNames)-1]
	}
	target, err := o.evaluator.EvalAggregateExpr(ctx, o.emptyScript, env, groupVal, windowName, aggrResults, o.Target)
	if err != nil {
		return nil, err
	}
	if o.Having != nil {
		keep, err := o.evaluator.EvalAggregateExpr(ctx, o.emptyScript, env, groupVal, windowName, aggrResults, o.Having)
		if err != nil {
			return nil, err
		}
		if !keep.Truthy() {
			return nil, nil
		}
	}
	return &Emission{Value: target, Meta: env.Meta}, nil
}

// Tick drives this operator's cascade on the runtime's own clock rather
// than an incoming event, the mechanism an interval window's
// `emit_empty = true` needs (spec §4.E): with no events at all, the
// window still emits once its interval elapses, carrying each aggr::*
// call's zero state. Only applies to an ungrouped select — emit_empty
// has no group to create before the first event arrives under a `group
// by` clause, so a grouped select never ticks.
func (o *SelectOperator) Tick(ctx context.Context, nowNS int64) (*Emission, error) {
	if o.cascade == nil || o.GroupBy != nil {
		return nil, nil
	}
	snapshot, err := o.cascade.Tick(nowNS, o.aggregatorFor)
	if err != nil || snapshot == nil {
		return nil, err
	}
	aggrResults := o.emitAggrResults(snapshot)
	groupVal := types.Null
	env := eval.NewEnvelope(types.Null, types.Null, types.Null)
	return o.evalTarget(ctx, env, &groupVal, aggrResults)
}
