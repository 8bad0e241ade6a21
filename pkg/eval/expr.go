package eval

import (
	"context"
	"math"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/types"
)

// evalExpr is the single entry point every other eval* method recurses
// through, mirroring the teacher's evalNode dispatch (pkg/evaluator/
// eval_impl.go) narrowed to tremor's node set.
func (rt *runtime) evalExpr(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	if n == nil {
		return types.Null, nil
	}
	switch n.Type {
	case ast.NullLit:
		return types.Null, nil
	case ast.BoolLit:
		return types.Bool(n.BoolVal), nil
	case ast.IntLit:
		return types.Int(n.IntVal), nil
	case ast.FloatLit:
		return types.Float(n.FloatVal), nil
	case ast.StringLit:
		return types.String(n.StrVal), nil
	case ast.BinaryLit:
		return types.Binary([]byte(n.StrVal)), nil
	case ast.StringTmpl:
		return rt.evalStringTmpl(ctx, ec, n)
	case ast.ArrayLit:
		return rt.evalArrayLit(ctx, ec, n)
	case ast.RecordLit:
		return rt.evalRecordLit(ctx, ec, n)

	case ast.EventPath, ast.StatePath, ast.MetaPath, ast.ArgsPath,
		ast.GroupPath, ast.WinPath, ast.LocalPath, ast.ConstPath:
		return rt.evalPath(ctx, ec, n)

	case ast.UnaryOp:
		return rt.evalUnary(ctx, ec, n)
	case ast.BinOp:
		return rt.evalBinary(ctx, ec, n)

	case ast.LetStmt:
		val, err := rt.evalExpr(ctx, ec, n.RHS)
		if err != nil {
			return types.Null, err
		}
		if err := rt.assignPath(ctx, ec, n.LHS, val); err != nil {
			return types.Null, err
		}
		return val, nil

	case ast.Block:
		return rt.evalBlock(ctx, ec, n)

	case ast.MatchExpr:
		return rt.evalMatch(ctx, ec, n)

	case ast.ForExpr:
		return rt.evalFor(ctx, ec, n)

	case ast.EmitStmt:
		val := ec.env.Event
		if n.RHS != nil {
			v, err := rt.evalExpr(ctx, ec, n.RHS)
			if err != nil {
				return types.Null, err
			}
			val = v
		}
		port := n.StrVal
		if port == "" {
			port = "out"
		}
		return types.Null, &halt{value: val, port: port}

	case ast.DropStmt:
		return types.Null, &halt{dropped: true}

	case ast.PatchExpr:
		return rt.evalPatch(ctx, ec, n)

	case ast.FnDef, ast.IntrinsicDecl:
		// declarations hoisted by Compile; evaluating one in statement
		// position (a re-declaration mid-script) is a no-op value.
		return types.Null, nil

	case ast.FnCall:
		return rt.evalCall(ctx, ec, n)

	default:
		return types.Null, diag.Newf(diag.Internal, n.Span, "cannot evaluate node of type %s", n.Type)
	}
}

// evalBlockStmts evaluates a statement sequence, returning the last
// statement's value (spec §4.C: a script/block's value is the last
// non-emit/drop expression). halt errors (emit/drop) propagate unchanged.
func (rt *runtime) evalBlockStmts(ctx context.Context, ec evalContext, stmts []*ast.Node) (types.Value, error) {
	var last types.Value
	for _, stmt := range stmts {
		v, err := rt.evalExpr(ctx, ec, stmt)
		if err != nil {
			return types.Null, err
		}
		last = v
	}
	return last, nil
}

func (rt *runtime) evalBlock(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	return rt.evalBlockStmts(ctx, ec.child(), n.Children)
}

func (rt *runtime) evalStringTmpl(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	var b []byte
	for _, part := range n.Children {
		if part.Type == ast.StringLit {
			b = append(b, part.StrVal...)
			continue
		}
		v, err := rt.evalExpr(ctx, ec, part)
		if err != nil {
			return types.Null, err
		}
		b = append(b, v.String()...)
	}
	return types.String(string(b)), nil
}

func (rt *runtime) evalArrayLit(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	items := make([]types.Value, len(n.Children))
	for i, el := range n.Children {
		v, err := rt.evalExpr(ctx, ec, el)
		if err != nil {
			return types.Null, err
		}
		items[i] = v
	}
	return types.Array(items), nil
}

func (rt *runtime) evalRecordLit(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	rec := types.NewRecord()
	for i := 0; i+1 < len(n.Children); i += 2 {
		keyV, err := rt.evalExpr(ctx, ec, n.Children[i])
		if err != nil {
			return types.Null, err
		}
		key, ok := keyV.AsString()
		if !ok {
			return types.Null, diag.Newf(diag.Type, n.Children[i].Span, "record key must be a string, got %s", keyV.Kind())
		}
		val, err := rt.evalExpr(ctx, ec, n.Children[i+1])
		if err != nil {
			return types.Null, err
		}
		rec.Set(key, val)
	}
	return types.RecordValue(rec), nil
}

func (rt *runtime) evalUnary(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	v, err := rt.evalExpr(ctx, ec, n.LHS)
	if err != nil {
		return types.Null, err
	}
	switch n.StrVal {
	case "-":
		switch {
		case v.IsInt():
			i, _ := v.AsInt()
			return types.Int(-i), nil
		case v.IsFloat():
			f, _ := v.AsFloat()
			return types.Float(-f), nil
		default:
			return types.Null, diag.Newf(diag.Type, n.Span, "unary '-' requires a number, got %s", v.Kind())
		}
	case "not":
		return types.Bool(!v.Truthy()), nil
	default:
		return types.Null, diag.Newf(diag.Internal, n.Span, "unknown unary operator %q", n.StrVal)
	}
}

func (rt *runtime) evalBinary(ctx context.Context, ec evalContext, n *ast.Node) (types.Value, error) {
	switch n.StrVal {
	case "and":
		l, err := rt.evalExpr(ctx, ec, n.LHS)
		if err != nil {
			return types.Null, err
		}
		if !l.Truthy() {
			return types.Bool(false), nil
		}
		r, err := rt.evalExpr(ctx, ec, n.RHS)
		if err != nil {
			return types.Null, err
		}
		return types.Bool(r.Truthy()), nil
	case "or":
		l, err := rt.evalExpr(ctx, ec, n.LHS)
		if err != nil {
			return types.Null, err
		}
		if l.Truthy() {
			return types.Bool(true), nil
		}
		r, err := rt.evalExpr(ctx, ec, n.RHS)
		if err != nil {
			return types.Null, err
		}
		return types.Bool(r.Truthy()), nil
	case "xor":
		l, err := rt.evalExpr(ctx, ec, n.LHS)
		if err != nil {
			return types.Null, err
		}
		r, err := rt.evalExpr(ctx, ec, n.RHS)
		if err != nil {
			return types.Null, err
		}
		return types.Bool(l.Truthy() != r.Truthy()), nil
	}

	l, err := rt.evalExpr(ctx, ec, n.LHS)
	if err != nil {
		return types.Null, err
	}
	r, err := rt.evalExpr(ctx, ec, n.RHS)
	if err != nil {
		return types.Null, err
	}
	return applyBinOp(n.Span, n.StrVal, l, r)
}

// applyBinOp implements spec §4.C arithmetic (int/float never silently
// coerce — invariant iv) and §3 structural equality/ordering.
func applyBinOp(span types.Span, op string, l, r types.Value) (types.Value, error) {
	switch op {
	case "==":
		return types.Bool(l.Equal(r)), nil
	case "!=":
		return types.Bool(!l.Equal(r)), nil
	case "<", "<=", ">", ">=":
		less, ok := types.Less(l, r)
		if !ok {
			return types.Null, diag.Newf(diag.Type, span, "cannot compare %s and %s", l.Kind(), r.Kind())
		}
		eq := l.Equal(r)
		switch op {
		case "<":
			return types.Bool(less), nil
		case "<=":
			return types.Bool(less || eq), nil
		case ">":
			return types.Bool(!less && !eq), nil
		default: // >=
			return types.Bool(!less || eq), nil
		}
	}

	if op == "+" && l.IsString() && r.IsString() {
		ls, _ := l.AsString()
		rs, _ := r.AsString()
		return types.String(ls + rs), nil
	}

	if l.IsInt() && r.IsInt() {
		li, _ := l.AsInt()
		ri, _ := r.AsInt()
		return applyIntOp(span, op, li, ri)
	}
	if l.IsFloat() && r.IsFloat() {
		lf, _ := l.AsFloat()
		rf, _ := r.AsFloat()
		return applyFloatOp(span, op, lf, rf)
	}
	return types.Null, diag.Newf(diag.Type, span, "mixed or unsupported operand types for %q: %s, %s", op, l.Kind(), r.Kind())
}

func applyIntOp(span types.Span, op string, l, r int64) (types.Value, error) {
	switch op {
	case "+":
		if addOverflows(l, r) {
			return types.Null, diag.Newf(diag.Arith, span, "integer overflow: %d + %d", l, r)
		}
		return types.Int(l + r), nil
	case "-":
		if subOverflows(l, r) {
			return types.Null, diag.Newf(diag.Arith, span, "integer overflow: %d - %d", l, r)
		}
		return types.Int(l - r), nil
	case "*":
		if mulOverflows(l, r) {
			return types.Null, diag.Newf(diag.Arith, span, "integer overflow: %d * %d", l, r)
		}
		return types.Int(l * r), nil
	case "/":
		if r == 0 {
			return types.Null, diag.Newf(diag.Arith, span, "division by zero")
		}
		return types.Int(l / r), nil
	case "%":
		if r == 0 {
			return types.Null, diag.Newf(diag.Arith, span, "division by zero")
		}
		return types.Int(l % r), nil
	default:
		return types.Null, diag.Newf(diag.Internal, span, "unknown binary operator %q", op)
	}
}

// addOverflows, subOverflows and mulOverflows detect wraparound of a
// two's-complement int64 before it happens, per spec §4.C: tremor-script
// arithmetic raises an Arith error on overflow instead of wrapping silently.
func addOverflows(l, r int64) bool {
	sum := l + r
	return (r > 0 && sum < l) || (r < 0 && sum > l)
}

func subOverflows(l, r int64) bool {
	diff := l - r
	return (r < 0 && diff < l) || (r > 0 && diff > l)
}

func mulOverflows(l, r int64) bool {
	if l == 0 || r == 0 {
		return false
	}
	if (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
		return true
	}
	return l*r/r != l
}

func applyFloatOp(span types.Span, op string, l, r float64) (types.Value, error) {
	var res float64
	switch op {
	case "+":
		res = l + r
	case "-":
		res = l - r
	case "*":
		res = l * r
	case "/":
		if r == 0 {
			return types.Null, diag.Newf(diag.Arith, span, "division by zero")
		}
		res = l / r
	case "%":
		if r == 0 {
			return types.Null, diag.Newf(diag.Arith, span, "division by zero")
		}
		res = math.Mod(l, r)
	default:
		return types.Null, diag.Newf(diag.Internal, span, "unknown binary operator %q", op)
	}
	if math.IsNaN(res) || math.IsInf(res, 0) {
		return types.Null, diag.Newf(diag.Arith, span, "arithmetic result out of range")
	}
	return types.Float(res), nil
}
