package main

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/jsfn"
	"github.com/tremor-rs/tremor/pkg/wasmfn"
)

// backendOptions builds the eval.WithBackend options for whichever of
// --wasm-dir/--js-dir this invocation set, wiring `intrinsic ... as
// wasm::"name"`/`js::"name"` declarations to pkg/wasmfn/pkg/jsfn the way
// NewEvaluator's doc comment promises. The returned closer releases the
// wasmfn Backend's wazero runtime; call it once the command is done with
// every Evaluator built from these options.
func backendOptions(ctx context.Context) ([]eval.EvalOption, func()) {
	var opts []eval.EvalOption
	closer := func() {}
	if wasmDir != "" {
		b := wasmfn.New(ctx, wasmDir)
		opts = append(opts, eval.WithBackend(ast.BackendWasm, b))
		closer = func() { _ = b.Close(ctx) }
	}
	if jsDir != "" {
		opts = append(opts, eval.WithBackend(ast.BackendJS, jsfn.New(jsDir)))
	}
	return opts, closer
}
