// Package parser builds an [ast.Node] tree from tremor-script and trickle
// source, using a hand-written recursive-descent / Pratt ("Top Down
// Operator Precedence") parser the same way the teacher's pkg/parser does
// for JSONata — generalized from JSONata's expression grammar to
// tremor-script's statement-and-expression grammar and to trickle's query
// grammar.
package parser

import (
	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/diag"
	"github.com/tremor-rs/tremor/pkg/lexer"
	"github.com/tremor-rs/tremor/pkg/types"
)

// Parser holds the token buffer and arena for one compilation unit. A
// Parser is single-use: construct one per source file via [New].
type Parser struct {
	file string
	lex  *lexer.Lexer
	tok  lexer.Token // current token, already advanced past
	peeked *lexer.Token

	arena *ast.Arena
	err   *diag.Error
}

// New creates a parser over src. file is recorded on every [types.Span] the
// parser produces, and is the key the caller should later register with
// [diag.Reporter.AddSource] for quoting source excerpts.
func New(file, src string) *Parser {
	p := &Parser{file: file, lex: lexer.New(src), arena: ast.NewArena()}
	p.advance()
	return p
}

// Arena returns the node arena backing every Node this parser allocated.
// Callers that keep a compiled script/query around must keep the Arena
// alive too.
func (p *Parser) Arena() *ast.Arena { return p.arena }

func (p *Parser) advance() {
	if p.peeked != nil {
		p.tok = *p.peeked
		p.peeked = nil
		return
	}
	p.tok = p.lex.Next()
}

func (p *Parser) peek() lexer.Token {
	if p.peeked == nil {
		t := p.lex.Next()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *Parser) span() types.Span {
	return types.Span{
		File:   p.file,
		Offset: p.tok.Offset,
		Line:   p.tok.Line,
		Column: p.tok.Column,
		Length: len(p.tok.Value),
	}
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.tok.Type == tt }

func (p *Parser) accept(tt lexer.TokenType) bool {
	if p.tok.Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.tok.Type != tt {
		return lexer.Token{}, p.errorf("expected %s, found %q", tt, p.tok.Value)
	}
	t := p.tok
	p.advance()
	return t, nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	e := diag.Newf(diag.Parse, p.span(), format, args...)
	if p.err == nil {
		p.err = e
	}
	return e
}

func (p *Parser) alloc(t ast.NodeType, span types.Span) *ast.Node {
	return p.arena.Alloc(t, span)
}
