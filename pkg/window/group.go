// Package window implements spec §4.E: the aggregator quadruple
// (init, accumulate, merge, emit), tumbling windows, tilt-frame cascades,
// and the group-by key generation windowed selects run against.
//
// This package knows nothing about the query DAG (pkg/query owns wiring
// window instances to select statements); it is the self-contained
// aggregation engine pkg/query drives per emission.
package window

import (
	"context"
	"fmt"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/eval"
	"github.com/tremor-rs/tremor/pkg/types"
)

// GenerateGroups evaluates a `group by` AST node against one event's
// envelope and returns every composite key it produces, each as a slice of
// scalar Values in source order. This is
// original_source/tremor-script/src/interpreter.rs's
// GroupByInt::generate_groups carried over verbatim in semantics:
//
//   - Expr appends one scalar to every key generated so far.
//   - Set sequentially folds its items into the same accumulator, so
//     `set(a, b)` produces a single two-element key `[a, b]`.
//   - Each fans one key out into len(inner array) keys, one per element,
//     the cross-product against whatever keys already exist: `set(a,
//     each(b))` where `b` evaluates to `["x","y"]` produces `[a,"x"]` and
//     `[a,"y"]`.
//
// A bare `group by expr` (no set/each) yields exactly one key of length 1;
// callers bind that as the scalar `group` value rather than a one-element
// array (spec §4.E: "group (the key, an array for composite keys)").
func GenerateGroups(ctx context.Context, ev *eval.Evaluator, script *eval.Script, env *eval.Envelope, node *ast.Node) ([][]types.Value, error) {
	return generateGroupsInto(ctx, ev, script, env, node, [][]types.Value{{}})
}

func generateGroupsInto(ctx context.Context, ev *eval.Evaluator, script *eval.Script, env *eval.Envelope, node *ast.Node, groups [][]types.Value) ([][]types.Value, error) {
	switch node.Type {
	case ast.GroupExpr:
		v, err := ev.EvalExpr(ctx, script, env, nil, "", node.RHS)
		if err != nil {
			return nil, err
		}
		out := make([][]types.Value, len(groups))
		for i, g := range groups {
			out[i] = append(append([]types.Value{}, g...), v)
		}
		return out, nil

	case ast.GroupSet:
		var err error
		for _, item := range node.Children {
			groups, err = generateGroupsInto(ctx, ev, script, env, item, groups)
			if err != nil {
				return nil, err
			}
		}
		return groups, nil

	case ast.GroupEach:
		inner := node.LHS
		if inner == nil || inner.Type != ast.GroupExpr {
			return nil, fmt.Errorf("each() argument must be a plain expression, not a nested set()/each()")
		}
		arrVal, err := ev.EvalExpr(ctx, script, env, nil, "", inner.RHS)
		if err != nil {
			return nil, err
		}
		arr, ok := arrVal.AsArray()
		if !ok {
			return nil, fmt.Errorf("each() expression must evaluate to an array, got %s", arrVal.Kind())
		}
		out := make([][]types.Value, 0, len(groups)*len(arr))
		for _, g := range groups {
			for _, elem := range arr {
				out = append(out, append(append([]types.Value{}, g...), elem))
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("not a group-by node: %s", node.Type)
	}
}

// GroupKeyValue renders a generated composite key as the Value the
// `group` reserved name binds to: a bare expression's singleton key binds
// as its one scalar, every other shape (set/each) binds as an array.
func GroupKeyValue(node *ast.Node, key []types.Value) types.Value {
	if node.Type == ast.GroupExpr && len(key) == 1 {
		return key[0]
	}
	return types.Array(append([]types.Value{}, key...))
}

// GroupKeyString renders a composite key as a stable map key for the
// group table, since types.Value is not itself comparable (it embeds a
// slice/map-backed Record for KindRecord and KindArray).
func GroupKeyString(key []types.Value) string {
	s := ""
	for i, v := range key {
		if i > 0 {
			s += "\x1f"
		}
		s += v.Kind().String() + ":" + v.String()
	}
	return s
}
