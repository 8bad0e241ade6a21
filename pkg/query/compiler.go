package query

import (
	"context"
	"fmt"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
	"github.com/tremor-rs/tremor/pkg/window"
)

// Compiler turns a parsed trickle Program into a validated [DAG] (spec
// §4.F). One Compiler is single-use: create a fresh one per program.
type Compiler struct {
	evaluator  *eval.Evaluator
	registry   *window.Registry
	scriptDefs map[string]*ast.Node
	windowDefs map[string]*ast.Node
	queryDefs  map[string]*ast.Node
	selectSeq  int
}

func NewCompiler(ev *eval.Evaluator, reg *window.Registry) *Compiler {
	return &Compiler{
		evaluator:  ev,
		registry:   reg,
		scriptDefs: map[string]*ast.Node{},
		windowDefs: map[string]*ast.Node{},
		queryDefs:  map[string]*ast.Node{},
	}
}

// Compile builds the DAG for a whole trickle program (spec §4.F):
// resolving `create` instances, wiring `select` edges, inlining nested
// `define query` bodies, and validating the result is acyclic with every
// referenced operator/port defined.
func (c *Compiler) Compile(program *ast.Node) (*DAG, error) {
	dag := newDAG()
	dag.addBuiltinStream("in")
	dag.addBuiltinStream("out")
	dag.addBuiltinStream("err")
	if err := c.compileInto(dag, "", program.Children); err != nil {
		return nil, err
	}
	if err := validate(dag, program.Span); err != nil {
		return nil, err
	}
	return dag, nil
}

// compileInto compiles one statement sequence into dag, prefixing every
// node name it introduces with scope (non-empty only while inlining a
// nested `define query` body — spec §4.F: "rewriting their in/out to the
// enclosing scope").
func (c *Compiler) compileInto(dag *DAG, scope string, stmts []*ast.Node) error {
	for _, stmt := range stmts {
		switch stmt.Type {
		case ast.UseModule:
			// Module aliasing for cross-file references; this package
			// resolves everything from the single parsed program it is
			// given, so `use` only needs to be accepted, not acted on.
		case ast.DefineScript:
			c.scriptDefs[stmt.StrVal] = stmt
		case ast.DefineWindow:
			c.windowDefs[stmt.StrVal] = stmt
		case ast.DefineQuery:
			c.queryDefs[stmt.StrVal] = stmt
		case ast.CreateNode:
			if err := c.compileCreate(dag, scope, stmt); err != nil {
				return err
			}
		case ast.SelectStmt:
			c.selectSeq++
			if err := c.compileSelect(dag, scope, stmt); err != nil {
				return err
			}
		default:
			return diag.Newf(diag.Compile, stmt.Span, "unexpected top-level statement %s", stmt.Type)
		}
	}
	return nil
}

func scoped(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "::" + name
}

func (c *Compiler) compileCreate(dag *DAG, scope string, n *ast.Node) error {
	name := scoped(scope, n.StrVal)
	switch n.WindowKind {
	case "stream":
		return dag.addNode(&Node{Name: name, Kind: KindStream, Span: n.Span})

	case "script":
		def, ok := c.scriptDefs[n.ModuleName]
		if !ok {
			return diag.Newf(diag.Compile, n.Span, "create script %q: no such `define script %s`", n.StrVal, n.ModuleName)
		}
		script := eval.Compile(def.RHS)
		argVals := c.bindWithArgs(def.Children) // define script's own `with name = default`
		for k, v := range c.bindWithArgs(n.Children) {
			argVals[k] = v // create-time `with` overrides the definition's defaults
		}
		return dag.addNode(&Node{
			Name: name, Kind: KindScript, Span: n.Span,
			Script: &ScriptOperator{Evaluator: c.evaluator, Script: script, Args: c.argsRecord(argVals)},
		})

	case "window":
		// `create window` names an already-`define`d window for direct
		// reference by a select's `[name]` — no node/edges of its own.
		if _, ok := c.windowDefs[n.ModuleName]; !ok {
			return diag.Newf(diag.Compile, n.Span, "create window %q: no such `define window %s`", n.StrVal, n.ModuleName)
		}
		c.windowDefs[name] = c.windowDefs[n.ModuleName]
		return nil

	case "query":
		def, ok := c.queryDefs[n.ModuleName]
		if !ok {
			return diag.Newf(diag.Compile, n.Span, "create query %q: no such `define query %s`", n.StrVal, n.ModuleName)
		}
		nested := scoped(scope, n.StrVal)
		dag.addBuiltinStream(nested + "::in")
		dag.addBuiltinStream(nested + "::out")
		return c.compileInto(dag, nested, def.Children)

	default: // generic `create operator` instance (define operator ... from KIND ...)
		kind := n.ModuleName
		args := map[string]types.Value{}
		if def, ok := c.windowDefs[n.ModuleName]; ok { // parseDefineOperator reuses DefineWindow's shape
			kind = def.WindowKind
			for k, v := range c.bindWithArgs(def.Children) {
				args[k] = v
			}
		}
		for k, v := range c.bindWithArgs(n.Children) {
			args[k] = v // create-time `with` overrides the definition's defaults
		}
		return dag.addNode(&Node{
			Name: name, Kind: KindOperator, Span: n.Span,
			OperatorKind: kind, OperatorArgs: args,
		})
	}
}

// bindWithArgs evaluates a `with name = expr, ...` list (ArgDef/WithArg
// nodes both carry StrVal/RHS) against an empty envelope — with-clauses
// in tremor are constant expressions evaluated once at creation time, not
// per event.
func (c *Compiler) bindWithArgs(args []*ast.Node) map[string]types.Value {
	out := map[string]types.Value{}
	empty := eval.Compile(&ast.Node{Type: ast.Program})
	env := eval.NewEnvelope(types.Null, types.RecordValue(types.NewRecord()), types.Null)
	for _, a := range args {
		v, err := c.evaluator.EvalExpr(context.Background(), empty, env, nil, "", a.RHS)
		if err != nil {
			continue // creation-time constant-folding failure: leave unset
		}
		out[a.StrVal] = v
	}
	return out
}

// argsRecord renders a create statement's bound `with` arguments as the
// record value `create script`'s operator exposes on its args slot.
func (c *Compiler) argsRecord(m map[string]types.Value) types.Value {
	rec := types.NewRecord()
	for k, v := range m {
		rec.Set(k, v)
	}
	return types.RecordValue(rec)
}

func (c *Compiler) compileSelect(dag *DAG, scope string, n *ast.Node) error {
	name := fmt.Sprintf("%sselect$%d", scopePrefix(scope), c.selectSeq)

	var specs []window.Spec
	var names []string
	for _, wref := range n.Children {
		if wref.Type != ast.StreamRef {
			continue // the having-clause GroupExpr wrapper, skipped here
		}
		def, ok := c.windowDefs[wref.StrVal]
		if !ok {
			return diag.Newf(diag.Compile, wref.Span, "select references unknown window %q", wref.StrVal)
		}
		specs = append(specs, window.FromDefineWindow(def))
		names = append(names, wref.StrVal)
	}

	sel := NewSelectOperator(n, specs, names, c.evaluator, c.registry)
	if err := dag.addNode(&Node{Name: name, Kind: KindSelect, Span: n.Span, Select: sel}); err != nil {
		return err
	}

	from := n.LHS
	fromPort := from.PortName
	if fromPort == "" {
		fromPort = "out"
	}
	dag.connect(Port{Node: scoped(scope, from.StrVal), Port: fromPort}, Port{Node: name, Port: "in"})

	into := n.Into
	intoPort := into.PortName
	if intoPort == "" {
		intoPort = "in"
	}
	dag.connect(Port{Node: name, Port: "out"}, Port{Node: scoped(scope, into.StrVal), Port: intoPort})
	return nil
}

func scopePrefix(scope string) string {
	if scope == "" {
		return ""
	}
	return scope + "::"
}
