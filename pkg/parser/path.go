package parser

import (
	"strings"

	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/lexer"
	"github.com/tremor-rs/tremor/pkg/types"
)

// rootNodeType maps a path-root keyword token to its ast.NodeType.
var rootNodeType = map[lexer.TokenType]ast.NodeType{
	lexer.TokenEvent:  ast.EventPath,
	lexer.TokenState:  ast.StatePath,
	lexer.TokenMeta:   ast.MetaPath,
	lexer.TokenArgs:   ast.ArgsPath,
	lexer.TokenGroup:  ast.GroupPath,
	lexer.TokenWindow: ast.WinPath,
}

// parsePathOrCall parses a path expression rooted at event/state/meta/args/
// group/window/a local identifier, or a function call (module-qualified or
// local). Grounded on original_source/tremor-script/src/interpreter.rs's
// resolve/resolve_value, which walks a named root then a left-to-right
// segment list.
func (p *Parser) parsePathOrCall() (*ast.Node, error) {
	span := p.span()

	if nt, ok := rootNodeType[p.tok.Type]; ok {
		p.advance()
		n := p.alloc(nt, span)
		steps, err := p.parsePathSteps()
		if err != nil {
			return nil, err
		}
		n.Steps = steps
		return n, nil
	}

	name := p.tok.Value
	p.advance()

	if p.at(lexer.TokenLParen) {
		return p.parseCallArgs(name, span)
	}

	n := p.alloc(ast.LocalPath, span)
	n.StrVal = name
	steps, err := p.parsePathSteps()
	if err != nil {
		return nil, err
	}
	n.Steps = steps
	return n, nil
}

// parsePathSteps parses zero or more trailing `.field`, `[index]`,
// `[start:end]` or `[expr]` segments.
func (p *Parser) parsePathSteps() ([]*ast.Node, error) {
	var steps []*ast.Node
	for {
		switch p.tok.Type {
		case lexer.TokenDot:
			p.advance()
			fieldTok, err := p.expectFieldName()
			if err != nil {
				return nil, err
			}
			seg := p.alloc(ast.SegField, fieldTok.span)
			seg.StrVal = fieldTok.name
			steps = append(steps, seg)

		case lexer.TokenLBracket:
			span := p.span()
			p.advance()
			first, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if p.accept(lexer.TokenColon) {
				end, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				if _, err := p.expect(lexer.TokenRBracket); err != nil {
					return nil, err
				}
				seg := p.alloc(ast.SegRange, span)
				seg.LHS, seg.RHS = first, end
				steps = append(steps, seg)
				continue
			}
			if _, err := p.expect(lexer.TokenRBracket); err != nil {
				return nil, err
			}
			if first.Type == ast.IntLit {
				seg := p.alloc(ast.SegIndex, span)
				seg.IntVal = first.IntVal
				steps = append(steps, seg)
			} else {
				seg := p.alloc(ast.SegComputed, span)
				seg.LHS = first
				steps = append(steps, seg)
			}

		default:
			return steps, nil
		}
	}
}

type fieldTok struct {
	name string
	span types.Span
}

func (p *Parser) expectFieldName() (fieldTok, error) {
	switch p.tok.Type {
	case lexer.TokenIdent, lexer.TokenIdentEsc:
		ft := fieldTok{name: p.tok.Value, span: p.span()}
		p.advance()
		return ft, nil
	default:
		return fieldTok{}, p.errorf("expected field name, found %q", p.tok.Value)
	}
}

// parseCallArgs parses the `(arg, arg, ...)` suffix of a function call.
// name may be module-qualified ("module::fn"); it is split here.
func (p *Parser) parseCallArgs(name string, span types.Span) (*ast.Node, error) {
	p.advance() // (
	n := p.alloc(ast.FnCall, span)
	if mod, fn, ok := splitModulePath(name); ok {
		n.ModuleName = mod
		n.StrVal = fn
	} else {
		n.StrVal = name
	}
	for !p.at(lexer.TokenRParen) {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, arg)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	return n, nil
}

func splitModulePath(s string) (mod, fn string, ok bool) {
	i := strings.LastIndex(s, "::")
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+2:], true
}
