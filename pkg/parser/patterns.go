package parser

import (
	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/lexer"
	"github.com/tremor-rs/tremor/pkg/types"
)

// parsePercentPattern parses a record pattern `%{ ... }` or an array
// pattern `%[ ... ]`. The leading '%' has not yet been consumed.
func (p *Parser) parsePercentPattern(span types.Span) (*ast.Node, error) {
	p.advance() // %
	switch p.tok.Type {
	case lexer.TokenLBrace:
		return p.parseRecordPattern(span)
	case lexer.TokenLBracket:
		return p.parseArrayPattern(span)
	default:
		return nil, p.errorf("expected '{' or '[' after '%%' in pattern, found %q", p.tok.Value)
	}
}

// parseRecordPattern parses `{ field present, field2 == expr, field3 = %{...}, field4 }`.
// A bare field name is shorthand for a presence test.
func (p *Parser) parseRecordPattern(span types.Span) (*ast.Node, error) {
	p.advance() // {
	n := p.alloc(ast.PatRecord, span)
	for !p.at(lexer.TokenRBrace) {
		fieldSpan := p.span()
		fieldTok, err := p.expectFieldName()
		if err != nil {
			return nil, err
		}
		pred := p.alloc(ast.PredField, fieldSpan)
		pred.StrVal = fieldTok.name

		switch {
		case p.accept(lexer.TokenPresent):
			// pred carries no RHS/LHS: bare presence test
		case p.accept(lexer.TokenAbsent):
			pred.BoolVal = true // BoolVal true marks an absence test
		case p.tok.Type == lexer.TokenEq, p.tok.Type == lexer.TokenNotEq,
			p.tok.Type == lexer.TokenLt, p.tok.Type == lexer.TokenLtEq,
			p.tok.Type == lexer.TokenGt, p.tok.Type == lexer.TokenGtEq:
			pred.IsTilde = true // IsTilde marks a comparison test on this field
			pred.StrVal2 = p.tok.Value
			p.advance()
			rhs, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			pred.RHS = rhs
		case p.accept(lexer.TokenAssign):
			sub, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			pred.LHS = sub
		default:
			// bare field name: presence test
		}

		n.Children = append(n.Children, pred)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	return n, nil
}

// parseArrayPattern parses `[~ elem, elem, ...]`, where a leading '~'
// marks a prefix-match (remaining elements after the listed ones are
// unconstrained rather than required to be absent).
func (p *Parser) parseArrayPattern(span types.Span) (*ast.Node, error) {
	p.advance() // [
	n := p.alloc(ast.PatArray, span)
	if p.accept(lexer.TokenTilde) {
		n.IsTilde = true
	}
	for !p.at(lexer.TokenRBracket) {
		elemSpan := p.span()
		elem := p.alloc(ast.PredElem, elemSpan)
		switch {
		case p.tok.Type == lexer.TokenIdent && p.tok.Value == "_":
			p.advance()
		case p.tok.Type == lexer.TokenPercent && p.peek().Type == lexer.TokenLBrace:
			p.advance()
			sub, err := p.parseRecordPattern(elemSpan)
			if err != nil {
				return nil, err
			}
			elem.LHS = sub
		default:
			expr, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			elem.RHS = expr
		}
		n.Children = append(n.Children, elem)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	return n, nil
}
