package parser

import (
	"strconv"
	"strings"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/lexer"
)

// precedence is the Pratt binding-power table for tremor-script's binary
// operators, grounded on the teacher's parser_impl.go precedence map and
// reordered for tremor's (smaller) operator set: tremor-script has no
// generic infix path-dot — paths are parsed as a single primary production
// in parsePath, not built up through the precedence climber.
var precedence = map[lexer.TokenType]int{
	lexer.TokenOr:  1,
	lexer.TokenXor: 1,
	lexer.TokenAnd: 2,

	lexer.TokenEq:    3,
	lexer.TokenNotEq: 3,
	lexer.TokenLt:    4,
	lexer.TokenLtEq:  4,
	lexer.TokenGt:    4,
	lexer.TokenGtEq:  4,

	lexer.TokenPlus:  5,
	lexer.TokenMinus: 5,

	lexer.TokenStar:    6,
	lexer.TokenSlash:   6,
	lexer.TokenPercent: 6,
}

func (p *Parser) prec(tt lexer.TokenType) int {
	if pr, ok := precedence[tt]; ok {
		return pr
	}
	return 0
}

// ParseExpr parses a single tremor-script expression, the entry point used
// both for top-level script statements and for sub-expressions inside
// patch/select/having/where clauses.
func (p *Parser) ParseExpr() (*ast.Node, error) {
	return p.parseExpr(0)
}

func (p *Parser) parseExpr(rbp int) (*ast.Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for p.prec(p.tok.Type) > rbp {
		op := p.tok
		span := p.span()
		p.advance()
		right, err := p.parseExpr(p.prec(op.Type))
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.BinOp, span)
		n.StrVal = op.Value
		n.LHS = left
		n.RHS = right
		left = n
	}
	return left, nil
}

func (p *Parser) parsePrefix() (*ast.Node, error) {
	switch p.tok.Type {
	case lexer.TokenMinus, lexer.TokenNot:
		op := p.tok
		span := p.span()
		p.advance()
		operand, err := p.parseExpr(7)
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.UnaryOp, span)
		n.StrVal = op.Value
		n.LHS = operand
		return n, nil

	case lexer.TokenNumber:
		return p.parseNumber()
	case lexer.TokenBoolean:
		n := p.alloc(ast.BoolLit, p.span())
		n.BoolVal = p.tok.Value == "true"
		p.advance()
		return n, nil
	case lexer.TokenNull:
		n := p.alloc(ast.NullLit, p.span())
		p.advance()
		return n, nil
	case lexer.TokenString, lexer.TokenStringHead:
		return p.parseStringLit()
	case lexer.TokenBytesLit:
		n := p.alloc(ast.BinaryLit, p.span())
		n.StrVal = p.tok.Value
		p.advance()
		return n, nil

	case lexer.TokenLBracket:
		return p.parseArrayLit()
	case lexer.TokenLBrace:
		return p.parseRecordLit()
	case lexer.TokenLParen:
		p.advance()
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.TokenEvent, lexer.TokenState, lexer.TokenMeta, lexer.TokenArgs,
		lexer.TokenGroup, lexer.TokenWindow, lexer.TokenIdent, lexer.TokenIdentEsc:
		return p.parsePathOrCall()

	case lexer.TokenLet, lexer.TokenConst:
		return p.parseLet()
	case lexer.TokenMatch:
		return p.parseMatch()
	case lexer.TokenPatch:
		return p.parsePatch()
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenFn:
		return p.parseFnDef()
	case lexer.TokenIntrinsic:
		return p.parseIntrinsicDecl()
	case lexer.TokenEmit:
		return p.parseEmit()
	case lexer.TokenDrop:
		n := p.alloc(ast.DropStmt, p.span())
		p.advance()
		return n, nil

	default:
		return nil, p.errorf("unexpected token %q", p.tok.Value)
	}
}

func (p *Parser) parseNumber() (*ast.Node, error) {
	span := p.span()
	text := p.tok.Value
	p.advance()
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", text)
		}
		n := p.alloc(ast.FloatLit, span)
		n.FloatVal = f
		return n, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("invalid integer literal %q", text)
	}
	n := p.alloc(ast.IntLit, span)
	n.IntVal = i
	return n, nil
}

// parseStringLit parses a (possibly interpolated) string literal. A plain
// literal becomes a StringLit node; one containing #{ ... } segments
// becomes a StringTmpl node whose Children alternate StringLit / expr,
// always ending on a StringLit (the tail segment before the closing quote,
// possibly empty).
func (p *Parser) parseStringLit() (*ast.Node, error) {
	span := p.span()
	if p.tok.Type == lexer.TokenString {
		// no interpolation at all
		n := p.alloc(ast.StringLit, span)
		n.StrVal = unescape(p.tok.Value)
		p.advance()
		return n, nil
	}

	tmpl := p.alloc(ast.StringTmpl, span)
	for p.tok.Type == lexer.TokenStringHead {
		seg := p.alloc(ast.StringLit, p.span())
		seg.StrVal = unescape(p.tok.Value)
		tmpl.Children = append(tmpl.Children, seg)
		p.advance()

		expr, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		tmpl.Children = append(tmpl.Children, expr)

		if _, err := p.expect(lexer.TokenInterpClose); err != nil {
			return nil, err
		}
		// the lexer resumes string-body scanning here, producing either
		// another TokenStringHead (back-to-back interpolations) or the
		// final TokenString up to the closing quote.
	}
	tail, err := p.expect(lexer.TokenString)
	if err != nil {
		return nil, err
	}
	tailSeg := p.alloc(ast.StringLit, p.span())
	tailSeg.StrVal = unescape(tail.Value)
	tmpl.Children = append(tmpl.Children, tailSeg)
	return tmpl, nil
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\\':
				b.WriteByte(s[i])
			case '{':
				b.WriteByte('{') // \{ escapes a literal '{' so it is not mistaken for '#{'
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (p *Parser) parseArrayLit() (*ast.Node, error) {
	span := p.span()
	p.advance() // [
	n := p.alloc(ast.ArrayLit, span)
	for !p.at(lexer.TokenRBracket) {
		el, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, el)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRBracket); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseRecordLit() (*ast.Node, error) {
	span := p.span()
	p.advance() // {
	n := p.alloc(ast.RecordLit, span)
	for !p.at(lexer.TokenRBrace) {
		key, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenColon); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, key, val)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRBrace); err != nil {
		return nil, err
	}
	return n, nil
}

// parseEmit parses `emit`, `emit <expr>`, or either form followed by
// `=> "port"`. With no expression the current event value is emitted;
// with no `=> "port"` suffix the event goes to the default "out" port.
// The arrow is spelled `=>`, same as a match case's; the lexer has no
// dedicated token for it, so it scans as '=' followed by '>' here too.
func (p *Parser) parseEmit() (*ast.Node, error) {
	span := p.span()
	p.advance() // emit
	n := p.alloc(ast.EmitStmt, span)
	if !p.at(lexer.TokenSemicolon) && !p.at(lexer.TokenEOF) && !p.at(lexer.TokenEnd) && !p.at(lexer.TokenAssign) {
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.RHS = val
	}
	if p.at(lexer.TokenAssign) && p.peek().Type == lexer.TokenGt {
		p.advance() // =
		p.advance() // >
		port, err := p.expect(lexer.TokenString)
		if err != nil {
			return nil, err
		}
		n.StrVal = port.Value
	}
	return n, nil
}
