package eval

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// evalFor evaluates `for SOURCE of case (key, val) => body end`, lazily
// mapping over an array (key = index, as an int Value) or a record (key =
// field name, as a string Value), yielding an array (spec §4.C For
// comprehensions). Reduced to the single unconditional clause — see
// DESIGN.md.
func (rt *runtime) evalFor(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	src, err := rt.evalExpr(ctx, ec, n.LHS)
	if err != nil {
		return types.Null, err
	}
	keyName, valName := n.Params[0], n.Params[1]

	switch {
	case src.IsArray():
		arr, _ := src.AsArray()
		out := make([]types.Value, len(arr))
		for i, item := range arr {
			iterEc := ec.child()
			iterEc.scope.set(keyName, types.Int(int64(i)))
			iterEc.scope.set(valName, item)
			v, err := rt.evalBlockStmts(ctx, iterEc, n.RHS.Children)
			if err != nil {
				return types.Null, err
			}
			out[i] = v
		}
		return types.Array(out), nil

	case src.IsRecord():
		rec, _ := src.AsRecord()
		keys := rec.Keys()
		out := make([]types.Value, len(keys))
		for i, k := range keys {
			val, _ := rec.Get(k)
			iterEc := ec.child()
			iterEc.scope.set(keyName, types.String(k))
			iterEc.scope.set(valName, val)
			v, err := rt.evalBlockStmts(ctx, iterEc, n.RHS.Children)
			if err != nil {
				return types.Null, err
			}
			out[i] = v
		}
		return types.Array(out), nil

	default:
		return types.Null, diag.Newf(diag.Type, n.Span, "for-comprehension source must be an array or record, got %s", src.Kind())
	}
}
