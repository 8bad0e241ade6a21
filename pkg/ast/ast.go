// Package ast defines the abstract syntax tree shared by both tremor
// grammars — tremor-script (expressions) and trickle (queries) — following
// the teacher's single-tagged-node-with-generic-slots shape
// (pkg/types/ast.go in the teacher) generalized from JSONata's node set to
// tremor's. Every node carries a source [types.Span] for hygienic
// diagnostics (spec §4.B).
package ast

import "github.com/tremor-rs/tremor/pkg/types"

// NodeType tags which alternative of Node is populated.
type NodeType string

const (
	// Literals
	NullLit    NodeType = "null"
	BoolLit    NodeType = "bool"
	IntLit     NodeType = "int"
	FloatLit   NodeType = "float"
	StringLit  NodeType = "string"  // StrVal holds literal text when Children is empty
	StringTmpl NodeType = "strtmpl" // interpolated string; Children alternates literal/expr parts
	BinaryLit  NodeType = "binary"  // StrVal holds raw bytes as a Go string
	ArrayLit   NodeType = "array"   // Children = elements
	RecordLit  NodeType = "record"  // Children = [key0, val0, key1, val1, ...]

	// Identifiers & paths. Every *Path node carries Steps (possibly empty)
	// applied to the named root.
	EventPath NodeType = "event_path"
	StatePath NodeType = "state_path"
	MetaPath  NodeType = "meta_path"
	ArgsPath  NodeType = "args_path"
	GroupPath NodeType = "group_path"
	WinPath   NodeType = "window_path"
	LocalPath NodeType = "local_path" // StrVal = variable name
	ConstPath NodeType = "const_path" // StrVal = constant name

	// Path segments (appear only inside Steps)
	SegField    NodeType = "seg_field"    // StrVal = field name
	SegIndex    NodeType = "seg_index"    // IntVal = index
	SegRange    NodeType = "seg_range"    // LHS = start expr, RHS = end expr
	SegComputed NodeType = "seg_computed" // LHS = key/index expr

	// Operators
	UnaryOp NodeType = "unary"  // StrVal = op, LHS = operand
	BinOp   NodeType = "binop"  // StrVal = op, LHS, RHS

	// Statements / control flow
	LetStmt   NodeType = "let"    // LHS = target path, RHS = value expr
	Block     NodeType = "block"  // Children = statements; value is the last non-emit/drop expr
	MatchExpr NodeType = "match"  // LHS = target, Children = []*MatchCase
	MatchCase NodeType = "case"   // LHS = pattern, Guard = optional guard, RHS = body
	ForExpr   NodeType = "for"    // LHS = source, Params = [keyVar, valVar], RHS = body
	EmitStmt  NodeType = "emit"   // RHS = value (nil => current event), StrVal = port ("" => "out")
	DropStmt  NodeType = "drop"
	PatchExpr NodeType = "patch"    // LHS = target, Children = []*PatchOp
	PatchOp   NodeType = "patch_op" // ModuleName = op kind (insert|update|upsert|erase|copy|move|merge|default), StrVal = key, StrVal2 = target key (copy/move only), RHS = value expr

	// Patterns (inside MatchCase.LHS)
	PatLiteral NodeType = "pat_literal" // RHS = literal/expr to compare with ==
	PatBind    NodeType = "pat_bind"    // StrVal = bind name, LHS = optional inner pattern
	PatDefault NodeType = "pat_default"
	PatRecord  NodeType = "pat_record" // Children = []*PredField
	PatArray   NodeType = "pat_array"  // Children = []*PredElem, IsTilde = prefix-match mode
	PredField  NodeType = "pred_field" // StrVal = field name; bare field = presence test;
	// BoolVal = true => absence test; IsTilde = true => comparison test
	// (StrVal2 = operator, RHS = expr); LHS set => nested record pattern
	PredElem   NodeType = "pred_elem"  // Ignore ("_") / Expr (RHS) / Record (LHS)

	// Functions
	FnDef          NodeType = "fndef"      // StrVal = name, Params = arg names, RHS = body
	IntrinsicDecl  NodeType = "intrinsic"  // StrVal = local name, ModuleName/FnName = target, Backend = wasm|js|native
	FnCall         NodeType = "call"       // StrVal = name, ModuleName = module (""=local/script fn), Children = args

	// trickle / query nodes
	UseModule    NodeType = "use"
	DefineScript NodeType = "define_script" // StrVal = name, Children = []*ArgDef, RHS = body block
	DefineWindow NodeType = "define_window" // StrVal = name, WindowKind, Size, Interval, MaxGroups, EmitEmpty
	DefineQuery  NodeType = "define_query"  // StrVal = name, Children = stmts, Params = with-arg names
	ArgDef       NodeType = "arg_def"       // StrVal = name, RHS = default expr
	CreateNode   NodeType = "create"        // StrVal = instance name, ModuleName = definition name, Children = []*WithArg
	WithArg      NodeType = "with_arg"      // StrVal = name, RHS = expr
	StreamRef    NodeType = "stream_ref"    // StrVal = stream/operator name, PortName = optional port
	SelectStmt   NodeType = "select"        // RHS = target expr, LHS = from ref, Into, Guard (where), GroupBy, Children = window refs then, if present, a GroupExpr whose RHS is the having expr
	GroupExpr    NodeType = "group_expr"    // RHS = key expr
	GroupSet     NodeType = "group_set"     // Children = nested group-by items
	GroupEach    NodeType = "group_each"    // LHS = inner group-by item
	Program      NodeType = "program"       // Children = top-level statements
)

// Backend identifies how an intrinsic function is executed.
type Backend string

const (
	BackendNative Backend = "native"
	BackendWasm   Backend = "wasm"
	BackendJS     Backend = "js"
)

// Node is the single AST node type used for both tremor-script and trickle.
// Unused fields for a given Type are left at their zero value; see the
// NodeType doc comments above for which fields a given kind populates.
type Node struct {
	Type NodeType
	Span types.Span

	// Literal payloads
	BoolVal  bool
	IntVal   int64
	FloatVal float64
	StrVal   string
	StrVal2  string // secondary string payload: comparison operator (PredField), copy/move target key (PatchOp)

	// Structural relations
	LHS      *Node
	RHS      *Node
	Guard    *Node // match-case guard / select where clause
	Into     *Node // select: target stream ref
	GroupBy  *Node // select: group-by expression
	Children []*Node
	Steps    []*Node
	Params   []string

	// Query / function qualifiers
	ModuleName string
	PortName   string
	Backend    Backend

	// Window definition settings (DefineWindow)
	WindowKind string // "tumbling"
	Size       int64
	Interval   int64 // nanoseconds
	MaxGroups  int64
	EmitEmpty  bool

	// Pattern flags
	IsTilde bool // array pattern '~' prefix-match / tuple pattern open trailing

	// LetStmt flag
	IsConst bool
}

// NewNode allocates a plain heap node. Parsers that care about allocation
// pressure should prefer [Arena.Alloc].
func NewNode(t NodeType, span types.Span) *Node {
	return &Node{Type: t, Span: span}
}

// arenaChunkSize mirrors the teacher's NodeArena sizing (pkg/types/ast.go):
// most script/query bodies fit comfortably in one chunk.
const arenaChunkSize = 64

// Arena is a bump-pointer allocator for Node values, adapted from the
// teacher's NodeArena. Each [parser.Parser] owns one; it must stay alive as
// long as any Node it returned is reachable (the compiled script/query
// keeps a reference to its Arena for exactly this reason).
type Arena struct {
	chunks [][]Node
	pos    int
}

func NewArena() *Arena {
	return &Arena{chunks: [][]Node{make([]Node, arenaChunkSize)}}
}

// Alloc returns a zero-valued Node with Type and Span set, backed by arena
// storage. All other fields must be filled in by the caller.
func (a *Arena) Alloc(t NodeType, span types.Span) *Node {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]Node, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Type = t
	n.Span = span
	return n
}
