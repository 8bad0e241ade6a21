package eval

import (
	"context"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// rootKind names the path root for diagnostics, matching the exact word
// spec §8 scenario 4 requires ("event key `foo`").
func rootKind(t ast.NodeType) string {
	switch t {
	case ast.EventPath:
		return "event"
	case ast.StatePath:
		return "state"
	case ast.MetaPath:
		return "meta"
	case ast.ArgsPath:
		return "args"
	case ast.GroupPath:
		return "group"
	case ast.WinPath:
		return "window"
	case ast.LocalPath, ast.ConstPath:
		return "local"
	default:
		return "value"
	}
}

// evalPath resolves a path node (root keyword or local identifier, plus
// trailing Steps) to its current value, grounded on original_source/
// tremor-script/src/interpreter.rs's resolve/resolve_value.
func (rt *runtime) evalPath(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	root, err := rt.resolveRoot(ctx, ec, n)
	if err != nil {
		return types.Null, err
	}
	return rt.getSteps(ctx, ec, rootKind(n.Type), root, n.Steps)
}

func (rt *runtime) resolveRoot(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	switch n.Type {
	case ast.EventPath:
		return ec.env.Event, nil
	case ast.StatePath:
		return ec.env.State, nil
	case ast.MetaPath:
		return ec.env.Meta, nil
	case ast.ArgsPath:
		return ec.env.Args, nil
	case ast.GroupPath:
		v, ok := ec.scope.groupValue()
		if !ok {
			return types.Null, diag.Newf(diag.BadAccess, n.Span, "`group` is not bound outside a grouped select")
		}
		return v, nil
	case ast.WinPath:
		w, ok := ec.scope.windowName()
		if !ok {
			return types.Null, diag.Newf(diag.BadAccess, n.Span, "`window` is not bound outside a windowed select")
		}
		return types.String(w), nil
	case ast.LocalPath, ast.ConstPath:
		v, ok := ec.scope.lookup(n.StrVal)
		if !ok {
			return types.Null, diag.Newf(diag.BadAccess, n.Span, "Trying to access a non existing local variable `%s`", n.StrVal)
		}
		return v, nil
	default:
		return types.Null, diag.Newf(diag.Internal, n.Span, "not a path node: %s", n.Type)
	}
}

// getSteps descends base through steps, matching spec §3 invariant (ii):
// a missing field/index is a BadAccess error.
func (rt *runtime) getSteps(ctx context.Context, ec evalContext, root string, base types.Value, steps []*ast.Node) (types.Value, error) {
	cur := base
	for _, step := range steps {
		switch step.Type {
		case ast.SegField:
			rec, ok := cur.AsRecord()
			if !ok {
				return types.Null, diag.BadAccessKey(step.Span, root, step.StrVal)
			}
			v, exists := rec.Get(step.StrVal)
			if !exists {
				return types.Null, diag.BadAccessKey(step.Span, root, step.StrVal)
			}
			cur = v

		case ast.SegIndex:
			arr, ok := cur.AsArray()
			if !ok || step.IntVal < 0 || int(step.IntVal) >= len(arr) {
				return types.Null, diag.Newf(diag.BadAccess, step.Span, "Trying to access a non existing %s index %d", root, step.IntVal)
			}
			cur = arr[step.IntVal]

		case ast.SegRange:
			arr, ok := cur.AsArray()
			if !ok {
				return types.Null, diag.Newf(diag.BadAccess, step.Span, "range access on a non-array %s value", root)
			}
			startV, err := rt.evalExpr(ctx, ec, step.LHS)
			if err != nil {
				return types.Null, err
			}
			endV, err := rt.evalExpr(ctx, ec, step.RHS)
			if err != nil {
				return types.Null, err
			}
			start, _ := startV.AsInt()
			end, _ := endV.AsInt()
			if start < 0 || end > int64(len(arr)) || start > end {
				return types.Null, diag.Newf(diag.BadAccess, step.Span, "range [%d:%d] out of bounds for %s array of length %d", start, end, root, len(arr))
			}
			cur = types.Array(append([]types.Value{}, arr[start:end]...))

		case ast.SegComputed:
			keyV, err := rt.evalExpr(ctx, ec, step.LHS)
			if err != nil {
				return types.Null, err
			}
			switch {
			case keyV.IsString():
				key, _ := keyV.AsString()
				rec, ok := cur.AsRecord()
				if !ok {
					return types.Null, diag.BadAccessKey(step.Span, root, key)
				}
				v, exists := rec.Get(key)
				if !exists {
					return types.Null, diag.BadAccessKey(step.Span, root, key)
				}
				cur = v
			case keyV.IsNumber():
				idx, _ := keyV.Number()
				arr, ok := cur.AsArray()
				if !ok || idx < 0 || int(idx) >= len(arr) {
					return types.Null, diag.Newf(diag.BadAccess, step.Span, "Trying to access a non existing %s index %v", root, idx)
				}
				cur = arr[int(idx)]
			default:
				return types.Null, diag.Newf(diag.Type, step.Span, "computed path segment must be a string or number")
			}

		default:
			return types.Null, diag.Newf(diag.Internal, step.Span, "unknown path segment %s", step.Type)
		}
	}
	return cur, nil
}

// assignPath implements `let p = e`'s write side: copy-on-write descent
// down to the target, then the new top-level slot/local value is stored
// back (spec §4.A path set, §9 "copy-on-write at each descent level").
func (rt *runtime) assignPath(ctx context.Context, ec evalContext, target *ast.Node, value types.Value) error {
	switch target.Type {
	case ast.LocalPath:
		if len(target.Steps) == 0 {
			ec.scope.set(target.StrVal, value)
			return nil
		}
		base, ok := ec.scope.lookup(target.StrVal)
		if !ok {
			return diag.Newf(diag.BadAccess, target.Span, "Trying to access a non existing local variable `%s`", target.StrVal)
		}
		newVal, err := rt.setSteps(ctx, ec, "local", base, target.Steps, value)
		if err != nil {
			return err
		}
		ec.scope.set(target.StrVal, newVal)
		return nil

	case ast.EventPath:
		newVal, err := rt.setSteps(ctx, ec, "event", ec.env.Event, target.Steps, value)
		if err != nil {
			return err
		}
		ec.env.Event = newVal
		return nil

	case ast.StatePath:
		newVal, err := rt.setSteps(ctx, ec, "state", ec.env.State, target.Steps, value)
		if err != nil {
			return err
		}
		ec.env.State = newVal
		return nil

	case ast.MetaPath:
		newVal, err := rt.setSteps(ctx, ec, "meta", ec.env.Meta, target.Steps, value)
		if err != nil {
			return err
		}
		ec.env.Meta = newVal
		return nil

	case ast.ArgsPath:
		newVal, err := rt.setSteps(ctx, ec, "args", ec.env.Args, target.Steps, value)
		if err != nil {
			return err
		}
		ec.env.Args = newVal
		return nil

	case ast.GroupPath, ast.WinPath:
		return diag.Newf(diag.BadAccess, target.Span, "`%s` is read-only", rootKind(target.Type))

	default:
		return diag.Newf(diag.Internal, target.Span, "invalid assignment target %s", target.Type)
	}
}

// setSteps recurses through steps, requiring every intermediate segment to
// already exist and be of the right kind (spec §3 invariant ii); only the
// final segment may introduce a brand new field.
func (rt *runtime) setSteps(ctx context.Context, ec evalContext, root string, base types.Value, steps []*ast.Node, value types.Value) (types.Value, error) {
	if len(steps) == 0 {
		return value, nil
	}
	step := steps[0]
	last := len(steps) == 1

	switch step.Type {
	case ast.SegField:
		rec, ok := base.AsRecord()
		if !ok {
			return types.Null, diag.Newf(diag.BadAccess, step.Span, "Trying to access a non existing %s key `%s`", root, step.StrVal)
		}
		if last {
			return types.RecordValue(rec.WithSet(step.StrVal, value)), nil
		}
		child, exists := rec.Get(step.StrVal)
		if !exists {
			return types.Null, diag.BadAccessKey(step.Span, root, step.StrVal)
		}
		newChild, err := rt.setSteps(ctx, ec, root, child, steps[1:], value)
		if err != nil {
			return types.Null, err
		}
		return types.RecordValue(rec.WithSet(step.StrVal, newChild)), nil

	case ast.SegIndex:
		arr, ok := base.AsArray()
		if !ok {
			return types.Null, diag.Newf(diag.BadAccess, step.Span, "Trying to access a non existing %s index %d", root, step.IntVal)
		}
		idx := int(step.IntVal)
		if last {
			out := append([]types.Value{}, arr...)
			switch {
			case idx >= 0 && idx < len(out):
				out[idx] = value
			case idx == len(out):
				out = append(out, value)
			default:
				return types.Null, diag.Newf(diag.BadAccess, step.Span, "Trying to access a non existing %s index %d", root, idx)
			}
			return types.Array(out), nil
		}
		if idx < 0 || idx >= len(arr) {
			return types.Null, diag.Newf(diag.BadAccess, step.Span, "Trying to access a non existing %s index %d", root, idx)
		}
		newChild, err := rt.setSteps(ctx, ec, root, arr[idx], steps[1:], value)
		if err != nil {
			return types.Null, err
		}
		out := append([]types.Value{}, arr...)
		out[idx] = newChild
		return types.Array(out), nil

	case ast.SegComputed:
		keyV, err := rt.evalExpr(ctx, ec, step.LHS)
		if err != nil {
			return types.Null, err
		}
		if keyV.IsString() {
			key, _ := keyV.AsString()
			fieldStep := &ast.Node{Type: ast.SegField, Span: step.Span, StrVal: key}
			return rt.setSteps(ctx, ec, root, base, append([]*ast.Node{fieldStep}, steps[1:]...), value)
		}
		if keyV.IsNumber() {
			n, _ := keyV.Number()
			idxStep := &ast.Node{Type: ast.SegIndex, Span: step.Span, IntVal: int64(n)}
			return rt.setSteps(ctx, ec, root, base, append([]*ast.Node{idxStep}, steps[1:]...), value)
		}
		return types.Null, diag.Newf(diag.Type, step.Span, "computed path segment must be a string or number")

	default:
		return types.Null, diag.Newf(diag.Internal, step.Span, "assignment through %s is not supported", step.Type)
	}
}
