package lexer

// TokenType identifies a lexical token class, shared by both the
// tremor-script and trickle grammars (the trickle parser simply never
// produces some of the script-only token types and vice versa).
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenString      // a final string segment: one with no interpolation, or the
	                 // last segment before the closing quote
	TokenStringHead  // a string segment immediately followed by '#{' — more
	                 // segments/expressions follow before the literal ends
	TokenInterpClose // the '}' that ends a #{ ... } interpolated expression
	TokenNumber    // 123, 3.14, 1e-10
	TokenBoolean   // true, false
	TokenNull      // null
	TokenIdent     // fieldName, local identifier
	TokenIdentEsc  // `field name with spaces`
	TokenBytesLit  // <<...>> binary literal (raw hex/string payload as text)

	// Grouping
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace

	// Punctuation
	TokenDot
	TokenComma
	TokenColon
	TokenColonColon // :: module path separator
	TokenSemicolon
	TokenQuestion
	TokenTilde // ~ array/tuple pattern prefix marker

	// Arithmetic
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent

	// Comparison
	TokenEq
	TokenNotEq
	TokenLt
	TokenLtEq
	TokenGt
	TokenGtEq

	// Assignment
	TokenAssign // =

	// Keyword operators
	TokenAnd
	TokenOr
	TokenXor
	TokenNot
	TokenPresent
	TokenAbsent

	// Script keywords
	TokenLet
	TokenConst
	TokenMatch
	TokenCase
	TokenOf
	TokenWhen
	TokenDefault
	TokenEnd
	TokenFor
	TokenFn
	TokenIntrinsic
	TokenAs
	TokenUse
	TokenPatch
	TokenInsert
	TokenUpdate
	TokenUpsert
	TokenErase
	TokenCopy
	TokenMove
	TokenMerge
	TokenEmit
	TokenDrop

	// Path roots
	TokenEvent
	TokenState
	TokenMeta
	TokenArgs
	TokenGroup
	TokenWindow

	// trickle keywords
	TokenDefine
	TokenScript
	TokenOperator
	TokenTumbling
	TokenQuery
	TokenCreate
	TokenSelect
	TokenFrom
	TokenInto
	TokenWhere
	TokenHaving
	TokenBy
	TokenSet
	TokenEach
	TokenWith
	TokenStream
)

var tokenNames = map[TokenType]string{
	TokenEOF: "(eof)", TokenError: "(error)",
	TokenString: "(string)", TokenStringHead: "(string)", TokenInterpClose: "}",
	TokenNumber: "(number)", TokenBoolean: "(boolean)", TokenNull: "null",
	TokenIdent: "(ident)", TokenIdentEsc: "(ident)", TokenBytesLit: "(bytes)",
	TokenLParen: "(", TokenRParen: ")", TokenLBracket: "[", TokenRBracket: "]",
	TokenLBrace: "{", TokenRBrace: "}",
	TokenDot: ".", TokenComma: ",", TokenColon: ":", TokenColonColon: "::",
	TokenSemicolon: ";", TokenQuestion: "?", TokenTilde: "~",
	TokenPlus: "+", TokenMinus: "-", TokenStar: "*", TokenSlash: "/", TokenPercent: "%",
	TokenEq: "==", TokenNotEq: "!=", TokenLt: "<", TokenLtEq: "<=", TokenGt: ">", TokenGtEq: ">=",
	TokenAssign: "=",
	TokenAnd: "and", TokenOr: "or", TokenXor: "xor", TokenNot: "not",
	TokenPresent: "present", TokenAbsent: "absent",
	TokenLet: "let", TokenConst: "const", TokenMatch: "match", TokenCase: "case",
	TokenOf: "of", TokenWhen: "when", TokenDefault: "default", TokenEnd: "end",
	TokenFor: "for", TokenFn: "fn", TokenIntrinsic: "intrinsic", TokenAs: "as", TokenUse: "use",
	TokenPatch: "patch", TokenInsert: "insert", TokenUpdate: "update", TokenUpsert: "upsert",
	TokenErase: "erase", TokenCopy: "copy", TokenMove: "move", TokenMerge: "merge",
	TokenEmit: "emit", TokenDrop: "drop",
	TokenEvent: "event", TokenState: "state", TokenMeta: "meta", TokenArgs: "args",
	TokenGroup: "group", TokenWindow: "window",
	TokenDefine: "define", TokenScript: "script", TokenOperator: "operator",
	TokenTumbling: "tumbling", TokenQuery: "query", TokenCreate: "create",
	TokenSelect: "select", TokenFrom: "from", TokenInto: "into", TokenWhere: "where",
	TokenHaving: "having", TokenBy: "by", TokenSet: "set", TokenEach: "each",
	TokenWith: "with", TokenStream: "stream",
}

func (t TokenType) String() string {
	if n, ok := tokenNames[t]; ok {
		return n
	}
	return "(unknown)"
}

// keywords maps reserved words to their token type. Shared by both grammars;
// the parser decides which keywords are legal in which position.
var keywords = map[string]TokenType{
	"true": TokenBoolean, "false": TokenBoolean, "null": TokenNull,
	"and": TokenAnd, "or": TokenOr, "xor": TokenXor, "not": TokenNot,
	"present": TokenPresent, "absent": TokenAbsent,
	"let": TokenLet, "const": TokenConst, "match": TokenMatch, "case": TokenCase,
	"of": TokenOf, "when": TokenWhen, "default": TokenDefault, "end": TokenEnd,
	"for": TokenFor, "fn": TokenFn, "intrinsic": TokenIntrinsic, "as": TokenAs, "use": TokenUse,
	"patch": TokenPatch, "insert": TokenInsert, "update": TokenUpdate, "upsert": TokenUpsert,
	"erase": TokenErase, "copy": TokenCopy, "move": TokenMove, "merge": TokenMerge,
	"emit": TokenEmit, "drop": TokenDrop,
	"event": TokenEvent, "state": TokenState, "meta": TokenMeta, "args": TokenArgs,
	"group": TokenGroup, "window": TokenWindow,
	"define": TokenDefine, "script": TokenScript, "operator": TokenOperator,
	"tumbling": TokenTumbling, "query": TokenQuery, "create": TokenCreate,
	"select": TokenSelect, "from": TokenFrom, "into": TokenInto, "where": TokenWhere,
	"having": TokenHaving, "by": TokenBy, "set": TokenSet, "each": TokenEach,
	"with": TokenWith, "stream": TokenStream,
}

func lookupKeyword(s string) (TokenType, bool) {
	tt, ok := keywords[s]
	return tt, ok
}

// Token is one lexical token: its class, its literal text, and its starting
// byte offset, line and column within the source, all filled in by the
// lexer when the token is emitted.
type Token struct {
	Type     TokenType
	Value    string
	Offset   int
	Line     int
	Column   int
}
