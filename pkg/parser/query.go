package parser

import (
	"github.com/tremor-rs/tremor/pkg/ast"
	"github.com/tremor-rs/tremor/pkg/lexer"
)

// ParseQuery parses a whole trickle source file: a sequence of
// semicolon-terminated `use`, `define script/window/query` and
// `create`/`select` statements (spec §4.F).
func (p *Parser) ParseQuery() (*ast.Node, error) {
	span := p.span()
	prog := p.alloc(ast.Program, span)
	for !p.at(lexer.TokenEOF) {
		stmt, err := p.parseQueryStmt()
		if err != nil {
			return nil, err
		}
		prog.Children = append(prog.Children, stmt)
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
	}
	return prog, nil
}

func (p *Parser) parseQueryStmt() (*ast.Node, error) {
	switch p.tok.Type {
	case lexer.TokenUse:
		return p.parseUse()
	case lexer.TokenDefine:
		return p.parseDefine()
	case lexer.TokenCreate:
		return p.parseCreate()
	case lexer.TokenSelect:
		return p.parseSelect()
	default:
		return nil, p.errorf("unexpected token %q", p.tok.Value)
	}
}

func (p *Parser) parseUse() (*ast.Node, error) {
	span := p.span()
	p.advance() // use
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	n := p.alloc(ast.UseModule, span)
	n.ModuleName = nameTok.Value
	if p.accept(lexer.TokenAs) {
		aliasTok, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		n.StrVal = aliasTok.Value
	}
	return n, nil
}

func (p *Parser) parseDefine() (*ast.Node, error) {
	p.advance() // define
	switch p.tok.Type {
	case lexer.TokenScript:
		return p.parseDefineScript()
	case lexer.TokenTumbling, lexer.TokenWindow:
		return p.parseDefineWindow()
	case lexer.TokenQuery:
		return p.parseDefineQuery()
	case lexer.TokenOperator:
		return p.parseDefineOperator()
	default:
		return nil, p.errorf("expected script, window, query or operator after 'define', found %q", p.tok.Value)
	}
}

// parseWithArgs parses an optional `with name = default, name2 = default2`
// clause used by every `define` form. The list ends at the first argument
// not followed by a comma; bodyKeyword is accepted but not consulted.
func (p *Parser) parseWithArgs(bodyKeyword lexer.TokenType) ([]*ast.Node, error) {
	var args []*ast.Node
	if !p.accept(lexer.TokenWith) {
		return nil, nil
	}
	for {
		argSpan := p.span()
		nameTok, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenAssign); err != nil {
			return nil, err
		}
		def, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		a := p.alloc(ast.ArgDef, argSpan)
		a.StrVal = nameTok.Value
		a.RHS = def
		args = append(args, a)
		if !p.accept(lexer.TokenComma) {
			break
		}
	}
	_ = bodyKeyword
	return args, nil
}

func (p *Parser) parseDefineScript() (*ast.Node, error) {
	span := p.span()
	p.advance() // script
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	args, err := p.parseWithArgs(lexer.TokenScript)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenScript); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil(lexer.TokenEnd)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEnd); err != nil {
		return nil, err
	}

	n := p.alloc(ast.DefineScript, span)
	n.StrVal = nameTok.Value
	n.Children = args
	n.RHS = body
	return n, nil
}

// parseDefineWindow parses:
//
//	define tumbling window NAME with size = N [, interval = D]
//	  [, max_groups = M] [, emit_empty = true] end
func (p *Parser) parseDefineWindow() (*ast.Node, error) {
	span := p.span()
	kind := "tumbling"
	if p.tok.Type == lexer.TokenTumbling {
		p.advance()
	}
	if _, err := p.expect(lexer.TokenWindow); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	n := p.alloc(ast.DefineWindow, span)
	n.StrVal = nameTok.Value
	n.WindowKind = kind
	n.MaxGroups = 1000 // spec §4.E default

	if p.accept(lexer.TokenWith) {
		for {
			keyTok, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenAssign); err != nil {
				return nil, err
			}
			val, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			switch keyTok.Value {
			case "size":
				n.Size = val.IntVal
			case "interval":
				n.Interval = val.IntVal
			case "max_groups":
				n.MaxGroups = val.IntVal
			case "emit_empty":
				n.EmitEmpty = val.BoolVal
			default:
				return nil, p.errorf("unknown window setting %q", keyTok.Value)
			}
			if !p.accept(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.TokenEnd); err != nil {
		return nil, err
	}
	return n, nil
}

// parseDefineOperator parses `define operator NAME from KIND [with ...] end`,
// a thin named-configuration wrapper around a built-in pipeline operator
// (spec §4.F operator catalogue) other than select/window.
func (p *Parser) parseDefineOperator() (*ast.Node, error) {
	span := p.span()
	p.advance() // operator
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenFrom); err != nil {
		return nil, err
	}
	kindTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	args, err := p.parseWithArgs(lexer.TokenEnd)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEnd); err != nil {
		return nil, err
	}
	n := p.alloc(ast.DefineWindow, span) // reuses the define-with-settings shape
	n.StrVal = nameTok.Value
	n.WindowKind = kindTok.Value
	n.Children = args
	return n, nil
}

func (p *Parser) parseDefineQuery() (*ast.Node, error) {
	span := p.span()
	p.advance() // query
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	args, err := p.parseWithArgs(lexer.TokenQuery)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenQuery); err != nil {
		return nil, err
	}
	n := p.alloc(ast.DefineQuery, span)
	n.StrVal = nameTok.Value
	for _, a := range args {
		n.Params = append(n.Params, a.StrVal)
	}
	for !p.at(lexer.TokenEnd) {
		stmt, err := p.parseQueryStmt()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, stmt)
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenEnd); err != nil {
		return nil, err
	}
	return n, nil
}

// parseCreate parses `create stream NAME;` or
// `create script|window|operator|query INST from DEF [with arg=expr,...];`.
func (p *Parser) parseCreate() (*ast.Node, error) {
	span := p.span()
	p.advance() // create

	if p.accept(lexer.TokenStream) {
		nameTok, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		n := p.alloc(ast.CreateNode, span)
		n.StrVal = nameTok.Value
		n.WindowKind = "stream"
		return n, nil
	}

	kindTok := p.tok // script|window|operator|query, all lexed as TokenIdent unless a reserved word
	p.advance()
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	n := p.alloc(ast.CreateNode, span)
	n.StrVal = nameTok.Value
	n.WindowKind = kindTok.Value

	if p.accept(lexer.TokenFrom) {
		defTok, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		n.ModuleName = defTok.Value
	}
	if p.accept(lexer.TokenWith) {
		for {
			argSpan := p.span()
			keyTok, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenAssign); err != nil {
				return nil, err
			}
			val, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			a := p.alloc(ast.WithArg, argSpan)
			a.StrVal = keyTok.Value
			a.RHS = val
			n.Children = append(n.Children, a)
			if !p.accept(lexer.TokenComma) {
				break
			}
		}
	}
	return n, nil
}

// parseStreamRef parses `name` or `name/port`.
func (p *Parser) parseStreamRef() (*ast.Node, error) {
	span := p.span()
	nameTok, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	n := p.alloc(ast.StreamRef, span)
	n.StrVal = nameTok.Value
	if p.accept(lexer.TokenSlash) {
		portTok, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		n.PortName = portTok.Value
	}
	return n, nil
}

// parseSelect parses:
//
//	select EXPR from STREAM_REF [[WINDOW_REF, ...]...]
//	  [where GUARD] [group by GROUP] [having GUARD]
//	  into STREAM_REF
func (p *Parser) parseSelect() (*ast.Node, error) {
	span := p.span()
	p.advance() // select
	target, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenFrom); err != nil {
		return nil, err
	}
	from, err := p.parseStreamRef()
	if err != nil {
		return nil, err
	}

	n := p.alloc(ast.SelectStmt, span)
	n.RHS = target
	n.LHS = from

	for p.accept(lexer.TokenLBracket) {
		for {
			winTok, err := p.expect(lexer.TokenIdent)
			if err != nil {
				return nil, err
			}
			wref := p.alloc(ast.StreamRef, p.span())
			wref.StrVal = winTok.Value
			n.Children = append(n.Children, wref)
			if !p.accept(lexer.TokenComma) {
				break
			}
		}
		if _, err := p.expect(lexer.TokenRBracket); err != nil {
			return nil, err
		}
	}

	if p.accept(lexer.TokenWhere) {
		guard, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		n.Guard = guard
	}
	if p.accept(lexer.TokenGroup) {
		if _, err := p.expect(lexer.TokenBy); err != nil {
			return nil, err
		}
		gb, err := p.parseGroupBy()
		if err != nil {
			return nil, err
		}
		n.GroupBy = gb
	}
	if p.accept(lexer.TokenHaving) {
		having, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		// The having expression is kept as the RHS of a GroupExpr wrapper
		// appended to Children, after the window refs.
		havingWrap := p.alloc(ast.GroupExpr, p.span())
		havingWrap.RHS = having
		n.Children = append(n.Children, havingWrap)
	}
	if _, err := p.expect(lexer.TokenInto); err != nil {
		return nil, err
	}
	into, err := p.parseStreamRef()
	if err != nil {
		return nil, err
	}
	n.Into = into
	return n, nil
}

// parseGroupBy parses `set(item, item, ...)`, `each(inner)`, or a bare
// expression, grounded on original_source/tremor-script/src/interpreter.rs
// GroupBy::{Expr,Set,Each}.
func (p *Parser) parseGroupBy() (*ast.Node, error) {
	span := p.span()
	if p.tok.Type == lexer.TokenSet {
		p.advance() // set
		if _, err := p.expect(lexer.TokenLParen); err != nil {
			return nil, err
		}
		n := p.alloc(ast.GroupSet, span)
		for !p.at(lexer.TokenRParen) {
			item, err := p.parseGroupBy()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, item)
			if !p.accept(lexer.TokenComma) {
				break
			}
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return n, nil
	}
	if p.tok.Type == lexer.TokenEach {
		p.advance() // each
		if _, err := p.expect(lexer.TokenLParen); err != nil {
			return nil, err
		}
		inner, err := p.parseGroupBy()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		n := p.alloc(ast.GroupEach, span)
		n.LHS = inner
		return n, nil
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	n := p.alloc(ast.GroupExpr, span)
	n.RHS = expr
	return n, nil
}
