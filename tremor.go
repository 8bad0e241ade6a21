// Package tremor is the module's root convenience API, grounded on the
// teacher's own root-level gosonata.go: a thin Compile/Eval surface over
// the parser and evaluator packages so a caller who just wants "run this
// script against this event" never has to assemble an Evaluator,
// Registry and Envelope by hand.
package tremor

import (
	"context"
	"fmt"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/parser"
	"github.com/tremor-rs/tremor/pkg/pipeline"
	"github.com/tremor-rs/tremor/pkg/query"
	"github.com/tremor-rs/tremor/pkg/stdlib"
	"github.com/tremor-rs/tremor/pkg/types"
	"github.com/tremor-rs/tremor/pkg/window"
)

// Version returns the current version of this module.
func Version() string { return "0.1.0-dev" }

// ParseScript parses tremor-script source (conventionally a `.tremor`
// file) into its AST, without compiling or running it.
func ParseScript(file, src string) (*ast.Node, error) {
	return parser.New(file, src).ParseScript()
}

// ParseQuery parses trickle source (conventionally a `.trickle` file)
// into its AST.
func ParseQuery(file, src string) (*ast.Node, error) {
	return parser.New(file, src).ParseQuery()
}

// CompileScript parses and compiles tremor-script source for repeated
// evaluation against many event envelopes.
//
// Example:
//
//	script, err := tremor.CompileScript("filter.tremor", src)
//	ev := tremor.NewEvaluator()
//	res, err := ev.Run(ctx, script, eval.NewEnvelope(event, meta, types.Null))
func CompileScript(file, src string) (*eval.Script, error) {
	prog, err := ParseScript(file, src)
	if err != nil {
		return nil, err
	}
	return eval.Compile(prog), nil
}

// NewEvaluator builds an Evaluator wired to the standard library registry
// (pkg/stdlib) by default; pass eval.WithBackend to add wasm:: / js::
// intrinsic backends (pkg/wasmfn, pkg/jsfn), or eval.WithRegistry to
// replace the stdlib registry entirely (tests commonly do this to stub
// system:: or origin::).
func NewEvaluator(opts ...eval.EvalOption) *eval.Evaluator {
	all := make([]eval.EvalOption, 0, len(opts)+1)
	all = append(all, eval.WithRegistry(stdlib.Default()))
	all = append(all, opts...)
	return eval.New(all...)
}

// CompileQuery parses and compiles trickle source into a validated DAG.
func CompileQuery(file, src string, ev *eval.Evaluator) (*query.DAG, error) {
	prog, err := ParseQuery(file, src)
	if err != nil {
		return nil, err
	}
	c := query.NewCompiler(ev, window.NewRegistry())
	return c.Compile(prog)
}

// Eval is a convenience function that compiles a tremor-script source and
// evaluates it once against a single event envelope.
//
// For repeated evaluations of the same script, use CompileScript and
// NewEvaluator instead and keep both around.
func Eval(ctx context.Context, src string, event, meta types.Value) (*eval.Result, error) {
	script, err := CompileScript("<eval>", src)
	if err != nil {
		return nil, err
	}
	ev := NewEvaluator()
	env := eval.NewEnvelope(event, meta, types.Null)
	return ev.Run(ctx, script, env)
}

// NewPipeline compiles trickle source into a running Pipeline instance —
// the entry point cmd/tremor's `run` and `server` subcommands build on.
// ev is the Evaluator every Script/Aggregate operator in the DAG shares;
// pass nil to get NewEvaluator()'s defaults (a caller that only needs to
// override e.g. the recursion limit builds its own with NewEvaluator and
// passes it here, as CompileQuery's callers already do).
func NewPipeline(file, src, instanceName string, ev *eval.Evaluator, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if ev == nil {
		ev = NewEvaluator()
	}
	dag, err := CompileQuery(file, src, ev)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", file, err)
	}
	return pipeline.New(dag, instanceName, opts...), nil
}
