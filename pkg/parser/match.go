package parser

import (
	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/lexer"
)

// parseMatch parses:
//
//	match TARGET of
//	  case PATTERN [when GUARD] => BODY
//	  ...
//	  case _ => BODY
//	end
//
// Pattern matching is grounded on original_source/tremor-script/src/
// interpreter.rs's test_predicate_expr / match_rp_expr / match_ap_expr,
// reduced to the common predicate shapes: literal equality, record field
// predicates (present/absent/comparison/nested), array element predicates
// (wildcard/expr/nested record, with an optional '~' prefix-match marker),
// and name-binding via `name = pattern`.
func (p *Parser) parseMatch() (*ast.Node, error) {
	span := p.span()
	p.advance() // match
	target, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenOf); err != nil {
		return nil, err
	}

	n := p.alloc(ast.MatchExpr, span)
	n.LHS = target

	for p.accept(lexer.TokenCase) {
		caseSpan := p.span()
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		c := p.alloc(ast.MatchCase, caseSpan)
		c.LHS = pat
		if p.accept(lexer.TokenWhen) {
			guard, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			c.Guard = guard
		}
		// tremor-script spells the case arrow as `=>`; the lexer has no
		// dedicated token for it, so it scans as '=' followed by '>'.
		if _, err := p.expect(lexer.TokenAssign); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenGt); err != nil {
			return nil, err
		}
		body, err := p.parseBlockUntil(lexer.TokenCase, lexer.TokenEnd)
		if err != nil {
			return nil, err
		}
		c.RHS = body
		n.Children = append(n.Children, c)
	}

	if _, err := p.expect(lexer.TokenEnd); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parsePattern() (*ast.Node, error) {
	span := p.span()

	if p.tok.Type == lexer.TokenIdent && p.tok.Value == "_" {
		p.advance()
		return p.alloc(ast.PatDefault, span), nil
	}

	if p.tok.Type == lexer.TokenIdent && p.peek().Type == lexer.TokenAssign {
		name := p.tok.Value
		p.advance() // name
		p.advance() // =
		inner, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.PatBind, span)
		n.StrVal = name
		n.LHS = inner
		return n, nil
	}

	if p.tok.Type == lexer.TokenPercent {
		return p.parsePercentPattern(span)
	}

	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	n := p.alloc(ast.PatLiteral, span)
	n.RHS = expr
	return n, nil
}
