package eval

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// evalPatch evaluates `patch target of op, op, ... end`, grounded on
// original_source/tremor-script/src/interpreter.rs's PreEvaluatedPatch
// Operation / patch_value / apply_default. Operates on a private cloned
// working copy of target's record and returns the result as a new Value —
// patch never mutates the value the caller passed in (spec §9
// copy-on-write).
func (rt *runtime) evalPatch(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	targetV, err := rt.evalExpr(ctx, ec, n.LHS)
	if err != nil {
		return types.Null, err
	}
	rec, ok := targetV.AsRecord()
	if !ok {
		return types.Null, diag.Newf(diag.Type, n.Span, "patch target must be a record, got %s", targetV.Kind())
	}
	working := rec.Clone()

	for _, op := range n.Children {
		switch op.ModuleName {
		case "insert":
			if working.Contains(op.StrVal) {
				return types.Null, diag.Newf(diag.Type, op.Span, "patch insert: key `%s` already exists", op.StrVal)
			}
			val, err := rt.evalExpr(ctx, ec, op.RHS)
			if err != nil {
				return types.Null, err
			}
			working.Set(op.StrVal, val)

		case "update":
			if !working.Contains(op.StrVal) {
				return types.Null, diag.Newf(diag.Type, op.Span, "patch update: key `%s` does not exist", op.StrVal)
			}
			val, err := rt.evalExpr(ctx, ec, op.RHS)
			if err != nil {
				return types.Null, err
			}
			working.Set(op.StrVal, val)

		case "upsert":
			val, err := rt.evalExpr(ctx, ec, op.RHS)
			if err != nil {
				return types.Null, err
			}
			working.Set(op.StrVal, val)

		case "default":
			if !working.Contains(op.StrVal) {
				val, err := rt.evalExpr(ctx, ec, op.RHS)
				if err != nil {
					return types.Null, err
				}
				working.Set(op.StrVal, val)
			}

		case "merge":
			val, err := rt.evalExpr(ctx, ec, op.RHS)
			if err != nil {
				return types.Null, err
			}
			patchRec, ok := val.AsRecord()
			if !ok {
				return types.Null, diag.Newf(diag.Type, op.Span, "patch merge: value must be a record, got %s", val.Kind())
			}
			var base *types.Record
			if existing, exists := working.Get(op.StrVal); exists {
				baseRec, ok := existing.AsRecord()
				if !ok {
					return types.Null, diag.Newf(diag.Type, op.Span, "patch merge: existing key `%s` is not a record", op.StrVal)
				}
				base = baseRec.Clone()
			} else {
				base = types.NewRecord()
			}
			working.Set(op.StrVal, types.RecordValue(mergeRecords(base, patchRec)))

		case "erase":
			working.Remove(op.StrVal)

		case "copy":
			v, exists := working.Get(op.StrVal)
			if !exists {
				return types.Null, diag.BadAccessKey(op.Span, "patch target", op.StrVal)
			}
			working.Set(op.StrVal2, v)

		case "move":
			v, exists := working.Get(op.StrVal)
			if !exists {
				return types.Null, diag.BadAccessKey(op.Span, "patch target", op.StrVal)
			}
			working.Set(op.StrVal2, v)
			working.Remove(op.StrVal)

		default:
			return types.Null, diag.Newf(diag.Internal, op.Span, "unknown patch operation %q", op.ModuleName)
		}
	}
	return types.RecordValue(working), nil
}

// mergeRecords recursively merges patch into base (mutated in place and
// returned): a null value erases the key, a record value merges
// recursively if base also has a record there, anything else overwrites.
func mergeRecords(base, patch *types.Record) *types.Record {
	for _, k := range patch.Keys() {
		pv, _ := patch.Get(k)
		if pv.IsNull() {
			base.Remove(k)
			continue
		}
		if pv.IsRecord() {
			if bv, exists := base.Get(k); exists {
				if bRec, ok := bv.AsRecord(); ok {
					pRec, _ := pv.AsRecord()
					base.Set(k, types.RecordValue(mergeRecords(bRec.Clone(), pRec)))
					continue
				}
			}
		}
		base.Set(k, pv)
	}
	return base
}
