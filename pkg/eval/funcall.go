package eval

import (
	"context"
	"strings"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// evalCall dispatches a FnCall node to a stdlib intrinsic (module-qualified
// name), a locally declared intrinsic (wasm/js/native-by-alias), or a
// user-defined fn — spec §4.C Functions / §4.D Standard library.
func (rt *runtime) evalCall(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	if n.ModuleName == "aggr" || strings.HasPrefix(n.ModuleName, "aggr::") {
		if v, ok := rt.aggrResults[n]; ok {
			return v, nil
		}
		return types.Null, diag.Newf(diag.Type, n.Span, "`%s::%s` has no aggregated value bound for this evaluation", n.ModuleName, n.StrVal)
	}

	args := make([]types.Value, len(n.Children))
	for i, a := range n.Children {
		v, err := rt.evalExpr(ctx, ec, a)
		if err != nil {
			return types.Null, err
		}
		args[i] = v
	}

	if n.ModuleName != "" {
		return rt.callRegistry(n.Span, ctx, n.ModuleName, n.StrVal, args)
	}

	if fnDef, ok := rt.script.fns[n.StrVal]; ok {
		return rt.callUserFnGuarded(ctx, ec, fnDef, args)
	}
	if decl, ok := rt.script.intrinsics[n.StrVal]; ok {
		return rt.callIntrinsic(ctx, decl, args)
	}
	return types.Null, diag.Newf(diag.Type, n.Span, "call to undefined function `%s`", n.StrVal)
}

func (rt *runtime) callRegistry(span types.Span, ctx context.Context, module, name string, args []types.Value) (types.Value, error) {
	if rt.eval.opts.Registry == nil {
		return types.Null, diag.Newf(diag.Type, span, "no standard library registry configured")
	}
	fn, ok := rt.eval.opts.Registry.Lookup(module, name)
	if !ok {
		return types.Null, diag.Newf(diag.Type, span, "call to undefined function `%s::%s`", module, name)
	}
	v, err := fn(ctx, args)
	if err != nil {
		if de, isDiag := err.(*diag.Error); isDiag {
			if de.Span.Line == 0 && de.Span.File == "" {
				de.Span = span
			}
			return types.Null, de
		}
		return types.Null, diag.Newf(diag.Internal, span, "%s::%s: %v", module, name, err)
	}
	return v, nil
}

func (rt *runtime) callIntrinsic(ctx context.Context, decl *ast.Node, args []types.Value) (types.Value, error) {
	switch decl.Backend {
	case ast.BackendWasm, ast.BackendJS:
		backend, ok := rt.eval.opts.Backends[decl.Backend]
		if !ok || backend == nil {
			return types.Null, diag.Newf(diag.Internal, decl.Span, "no %s backend configured for intrinsic `%s`", decl.Backend, decl.StrVal)
		}
		return backend.Call(ctx, decl.ModuleName, args)
	default: // BackendNative: ModuleName is a "module::fn" stdlib target
		mod, fn, ok := splitLast(decl.ModuleName, "::")
		if !ok {
			return types.Null, diag.Newf(diag.Internal, decl.Span, "intrinsic `%s` target %q is not module-qualified", decl.StrVal, decl.ModuleName)
		}
		return rt.callRegistry(decl.Span, ctx, mod, fn, args)
	}
}

func splitLast(s, sep string) (head, tail string, ok bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+len(sep):], true
}

// callUserFnGuarded enforces the recursion-depth limit (spec §4.C Functions,
// §7 Recursion error kind) around one logical call; the tail-recursion
// trampoline inside callUserFn does not re-enter this guard, so a tail-
// recursive chain runs in constant stack/depth (spec: "converts to
// iteration").
func (rt *runtime) callUserFnGuarded(ctx context.Context, ec evalContext, fnDef *ast.Node, args []types.Value) (types.Value, error) {
	depthPtr := recurseDepthPtr(ctx)
	if depthPtr != nil {
		*depthPtr++
		if *depthPtr > rt.eval.opts.MaxRecursionDepth {
			*depthPtr--
			return types.Null, diag.Newf(diag.Recursion, fnDef.Span, "recursion depth exceeded %d calling `%s`", rt.eval.opts.MaxRecursionDepth, fnDef.StrVal)
		}
		defer func() { *depthPtr-- }()
	}
	return rt.callUserFn(ctx, ec, fnDef, args)
}

func (rt *runtime) callUserFn(ctx context.Context, ec evalContext, fnDef *ast.Node, args []types.Value) (types.Value, error) {
	for {
		if len(args) != len(fnDef.Params) {
			return types.Null, diag.Newf(diag.Type, fnDef.Span, "`%s` expects %d argument(s), got %d", fnDef.StrVal, len(fnDef.Params), len(args))
		}
		fnScope := newRootScope(nil, nil)
		for i, p := range fnDef.Params {
			fnScope.set(p, args[i])
		}
		callEc := evalContext{env: ec.env, scope: fnScope}

		body := fnDef.RHS.Children
		if len(body) == 0 {
			return types.Null, nil
		}
		for _, stmt := range body[:len(body)-1] {
			if _, err := rt.evalExpr(ctx, callEc, stmt); err != nil {
				return types.Null, err
			}
		}

		last := body[len(body)-1]
		if last.Type == ast.FnCall && last.ModuleName == "" && last.StrVal == fnDef.StrVal {
			newArgs := make([]types.Value, len(last.Children))
			for i, a := range last.Children {
				v, err := rt.evalExpr(ctx, callEc, a)
				if err != nil {
					return types.Null, err
				}
				newArgs[i] = v
			}
			args = newArgs
			continue // tail call: loop instead of recursing
		}
		return rt.evalExpr(ctx, callEc, last)
	}
}
