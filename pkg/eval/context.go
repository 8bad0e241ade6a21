// Package eval implements the tremor-script tree-walking evaluator: it
// turns a parsed [ast.Node] plus an event [Envelope] into either an updated
// envelope with zero or more emissions, or a diagnostic (spec §4.C),
// following the teacher's evaluator/EvalContext split (pkg/evaluator/
// evaluator.go, context.go) generalized from JSONata's single `$`-context
// data value to tremor's four-slot envelope plus named local bindings.
package eval

import "github.com/tremor-rs/tremor/pkg/types"

// Envelope holds the four value slots every script evaluation step reads
// and writes (spec §3 Event envelope). It is shared by reference across an
// entire evaluation tree: path assignment mutates the relevant field
// in place, exactly the way the teacher's EvalContext threads a single
// mutable binding table through a context chain.
type Envelope struct {
	Event types.Value
	State types.Value
	Meta  types.Value
	Args  types.Value
}

// NewEnvelope builds an envelope with the given event/meta/args and a null
// initial state (spec §3: state starts null).
func NewEnvelope(event, meta, args types.Value) *Envelope {
	return &Envelope{Event: event, State: types.Null, Meta: meta, Args: args}
}

// scope is one level of local-variable binding, chained to its parent the
// way the teacher's EvalContext chains to its parent for `$$`/closure
// lookups. Function calls, for-comprehension bodies and match-case bodies
// each push a fresh scope.
type scope struct {
	parent *scope
	vars   map[string]types.Value
	// group/window are bound only inside a grouped select's target
	// expression (spec §4.E result bindings); nil outside that context.
	group  *types.Value
	window *string
}

func newRootScope(group *types.Value, window *string) *scope {
	return &scope{vars: make(map[string]types.Value), group: group, window: window}
}

func (s *scope) child() *scope {
	return &scope{parent: s, vars: make(map[string]types.Value)}
}

func (s *scope) lookup(name string) (types.Value, bool) {
	for c := s; c != nil; c = c.parent {
		if v, ok := c.vars[name]; ok {
			return v, true
		}
	}
	return types.Null, false
}

// set binds name in the innermost scope, matching tremor-script `let`
// semantics: a `let` always introduces (or overwrites) a binding in the
// current block's scope rather than mutating an outer one.
func (s *scope) set(name string, v types.Value) {
	s.vars[name] = v
}

func (s *scope) groupValue() (types.Value, bool) {
	for c := s; c != nil; c = c.parent {
		if c.group != nil {
			return *c.group, true
		}
	}
	return types.Null, false
}

func (s *scope) windowName() (string, bool) {
	for c := s; c != nil; c = c.parent {
		if c.window != nil {
			return *c.window, true
		}
	}
	return "", false
}

// evalContext bundles the mutable envelope with the current lexical scope.
// It is passed by value down the call tree (the *Envelope and *scope it
// points at are shared; re-scoping — e.g. entering a fn body — replaces
// only the scope pointer, matching EvalContext.NewChildContext).
type evalContext struct {
	env   *Envelope
	scope *scope
}

func newEvalContext(env *Envelope) evalContext {
	return evalContext{env: env, scope: newRootScope(nil, nil)}
}

func (c evalContext) withScope(s *scope) evalContext {
	return evalContext{env: c.env, scope: s}
}

func (c evalContext) child() evalContext {
	return c.withScope(c.scope.child())
}

func (c evalContext) withGroup(g types.Value, window string) evalContext {
	s := &scope{parent: c.scope, vars: make(map[string]types.Value), group: &g, window: &window}
	return c.withScope(s)
}
