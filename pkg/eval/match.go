package eval

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// evalMatch evaluates `match target of case P [when G] => body ... end`,
// first-match-wins, top-to-bottom (spec §4.C Pattern match), grounded on
// original_source/tremor-script/src/interpreter.rs's match_expr loop.
func (rt *runtime) evalMatch(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	target, err := rt.evalExpr(ctx, ec, n.LHS)
	if err != nil {
		return types.Null, err
	}
	for _, c := range n.Children {
		caseEc := ec.child()
		ok, err := rt.matchPattern(ctx, caseEc, c.LHS, target)
		if err != nil {
			return types.Null, err
		}
		if !ok {
			continue
		}
		if c.Guard != nil {
			g, err := rt.evalExpr(ctx, caseEc, c.Guard)
			if err != nil {
				return types.Null, err
			}
			if !g.Truthy() {
				continue
			}
		}
		return rt.evalBlockStmts(ctx, caseEc, c.RHS.Children)
	}
	return types.Null, diag.Newf(diag.Type, n.Span, "no match case (and no default) matched the target value")
}

// matchPattern tests pat against v, binding any pat-bind names into ec's
// scope as a side effect of a successful match.
func (rt *runtime) matchPattern(ctx context.Context, ec evalContext, pat *ast.Node, v types.Value) (bool, error) {
	switch pat.Type {
	case ast.PatDefault:
		return true, nil

	case ast.PatBind:
		ok, err := rt.matchPattern(ctx, ec, pat.LHS, v)
		if err != nil || !ok {
			return false, err
		}
		ec.scope.set(pat.StrVal, v)
		return true, nil

	case ast.PatLiteral:
		expect, err := rt.evalExpr(ctx, ec, pat.RHS)
		if err != nil {
			return false, err
		}
		return expect.Equal(v), nil

	case ast.PatRecord:
		return rt.matchRecordPattern(ctx, ec, pat, v)

	case ast.PatArray:
		return rt.matchArrayPattern(ctx, ec, pat, v)

	default:
		return false, diag.Newf(diag.Internal, pat.Span, "unknown pattern node %s", pat.Type)
	}
}

func (rt *runtime) matchRecordPattern(ctx context.Context, ec evalContext, pat *ast.Node, v types.Value) (bool, error) {
	rec, ok := v.AsRecord()
	if !ok {
		return false, nil
	}
	for _, pred := range pat.Children {
		fieldVal, exists := rec.Get(pred.StrVal)

		switch {
		case pred.LHS != nil: // nested pattern (`field = %{...}` / `field = pat`)
			if !exists {
				return false, nil
			}
			ok, err := rt.matchPattern(ctx, ec, pred.LHS, fieldVal)
			if err != nil || !ok {
				return false, err
			}

		case pred.IsTilde: // comparison test
			if !exists {
				return false, nil
			}
			rhs, err := rt.evalExpr(ctx, ec, pred.RHS)
			if err != nil {
				return false, err
			}
			res, err := applyBinOp(pred.Span, pred.StrVal2, fieldVal, rhs)
			if err != nil {
				return false, err
			}
			if !res.Truthy() {
				return false, nil
			}

		case pred.BoolVal: // absence test
			if exists {
				return false, nil
			}

		default: // presence test
			if !exists {
				return false, nil
			}
		}
	}
	return true, nil
}

func (rt *runtime) matchArrayPattern(ctx context.Context, ec evalContext, pat *ast.Node, v types.Value) (bool, error) {
	arr, ok := v.AsArray()
	if !ok {
		return false, nil
	}
	if !pat.IsTilde && len(arr) != len(pat.Children) {
		return false, nil
	}
	if pat.IsTilde && len(arr) < len(pat.Children) {
		return false, nil
	}
	for i, elem := range pat.Children {
		switch {
		case elem.LHS != nil:
			ok, err := rt.matchPattern(ctx, ec, elem.LHS, arr[i])
			if err != nil || !ok {
				return false, err
			}
		case elem.RHS != nil:
			expect, err := rt.evalExpr(ctx, ec, elem.RHS)
			if err != nil {
				return false, err
			}
			if !expect.Equal(arr[i]) {
				return false, nil
			}
		default:
			// wildcard "_": matches anything
		}
	}
	return true, nil
}
