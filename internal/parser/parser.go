// Package parser builds the untyped syntax tree from tokens. It is a
// recursive-descent parser with one token of lookahead; diagnostics go to
// the shared reporter and the parser resynchronizes at statement boundaries
// so several syntax errors can be reported in one pass.
package parser

import (
	"fmt"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/lexer"
	"raven/internal/source"
	"raven/internal/token"
)

type Parser struct {
	lx       *lexer.Lexer
	reporter diag.Reporter
	cur      token.Token
	errs     int

	// noStruct suppresses struct-literal parsing while a control-flow
	// header is being parsed, so `if x {` reads the brace as a block.
	noStruct bool
}

// Parse parses one file. The returned program may be partial when syntax
// errors were reported.
func Parse(file *source.File, r diag.Reporter) (*ast.Program, bool) {
	p := &Parser{lx: lexer.New(file, r), reporter: r}
	p.advance()

	prog := &ast.Program{}
	for p.cur.Kind != token.EOF {
		before := p.cur
		st := p.parseTopLevel()
		if st != nil {
			prog.Stmts = append(prog.Stmts, st)
		}
		if p.cur == before {
			// no progress; skip the offending token
			p.advance()
		}
	}
	return prog, p.errs == 0
}

func (p *Parser) advance() { p.cur = p.lx.Next() }

func (p *Parser) at(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.at(k) {
		t := p.cur
		p.advance()
		return t
	}
	p.errorf(diag.ParseExpectedToken, p.cur.Span, "expected %s, found %s", k, p.cur.Kind)
	return token.Token{Kind: token.Invalid, Span: p.cur.Span}
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	p.errs++
	diag.ReportError(p.reporter, code, sp, fmt.Sprintf(format, args...))
}

func (p *Parser) parseTopLevel() ast.Stmt {
	switch p.cur.Kind {
	case token.KwStruct:
		return p.parseStructDef()
	case token.KwFn:
		return p.parseFnDef()
	case token.KwComponent:
		return p.parseComponentDef()
	case token.KwExtern:
		return p.parseExternBlock()
	default:
		return p.parseStmt()
	}
}

func (p *Parser) parseStructDef() ast.Stmt {
	start := p.cur.Span
	p.advance()
	name := p.expect(token.Ident)
	p.expect(token.LBrace)

	var fields []ast.Field
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fname := p.expect(token.Ident)
		p.expect(token.Colon)
		ftype := p.parseType()
		fields = append(fields, ast.Field{Name: fname.Text, Type: ftype, Sp: fname.Span})
		if !p.accept(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBrace)
	return &ast.StructDef{Name: name.Text, Fields: fields, Sp: start.Cover(end.Span)}
}

func (p *Parser) parseFnDef() ast.Stmt {
	start := p.cur.Span
	p.advance()
	name := p.expect(token.Ident)
	params := p.parseParams()
	var ret ast.TypeExpr
	if p.accept(token.Arrow) {
		ret = p.parseType()
	}
	body := p.parseBlock()
	return &ast.FnDef{
		Name: name.Text, Params: params, Ret: ret, Body: body,
		Sp: start.Cover(body.Sp),
	}
}

func (p *Parser) parseComponentDef() ast.Stmt {
	start := p.cur.Span
	p.advance()
	name := p.expect(token.Ident)
	params := p.parseParams()
	p.expect(token.LBrace)
	body := p.parseExpr()
	end := p.expect(token.RBrace)
	return &ast.ComponentDef{
		Name: name.Text, Params: params, Body: body,
		Sp: start.Cover(end.Span),
	}
}

func (p *Parser) parseExternBlock() ast.Stmt {
	start := p.cur.Span
	p.advance()
	abi := p.expect(token.String)
	p.expect(token.LBrace)

	var decls []ast.FnDecl
	for p.at(token.KwFn) {
		fstart := p.cur.Span
		p.advance()
		name := p.expect(token.Ident)
		params := p.parseParams()
		var ret ast.TypeExpr
		if p.accept(token.Arrow) {
			ret = p.parseType()
		}
		p.accept(token.Semi)
		decls = append(decls, ast.FnDecl{
			Name: name.Text, Params: params, Ret: ret,
			Sp: fstart.Cover(name.Span),
		})
	}
	end := p.expect(token.RBrace)
	return &ast.ExternBlock{ABI: abi.Text, Decls: decls, Sp: start.Cover(end.Span)}
}

// parseParams parses a parenthesized, comma-separated parameter list with
// optional type annotations.
func (p *Parser) parseParams() []ast.Field {
	p.expect(token.LParen)
	var params []ast.Field
	for !p.at(token.RParen) && !p.at(token.EOF) {
		name := p.expect(token.Ident)
		var typ ast.TypeExpr
		if p.accept(token.Colon) {
			typ = p.parseType()
		}
		params = append(params, ast.Field{Name: name.Text, Type: typ, Sp: name.Span})
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseBlock() *ast.Block {
	start := p.expect(token.LBrace)
	b := &ast.Block{Sp: start.Span}
	saved := p.noStruct
	p.noStruct = false
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.cur
		st := p.parseStmt()
		if st != nil {
			b.Stmts = append(b.Stmts, st)
		}
		if p.cur == before {
			p.advance()
		}
	}
	end := p.expect(token.RBrace)
	p.noStruct = saved
	b.Sp = start.Span.Cover(end.Span)
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur.Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseFor()
	case token.LBrace:
		return p.parseBlock()
	}

	// assignment or expression statement
	if p.at(token.Ident) {
		name := p.cur
		// lookahead through the buffered token
		if p.lx.Peek().Kind == token.Assign {
			p.advance()
			p.advance()
			value := p.parseExpr()
			p.accept(token.Semi)
			return &ast.AssignStmt{Target: name.Text, Value: value, Sp: name.Span.Cover(value.Span())}
		}
	}
	x := p.parseExpr()
	p.accept(token.Semi)
	if x == nil {
		return nil
	}
	return &ast.ExprStmt{X: x}
}

func (p *Parser) parseLet() ast.Stmt {
	start := p.cur.Span
	p.advance()
	name := p.expect(token.Ident)
	p.expect(token.Assign)
	value := p.parseExpr()
	p.accept(token.Semi)
	return &ast.LetStmt{Name: name.Text, Value: value, Sp: start.Cover(value.Span())}
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.cur.Span
	p.advance()
	if p.accept(token.Semi) || p.at(token.RBrace) {
		return &ast.ReturnStmt{Sp: start}
	}
	value := p.parseExpr()
	p.accept(token.Semi)
	return &ast.ReturnStmt{Value: value, Sp: start.Cover(value.Span())}
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.cur.Span
	p.advance()
	cond := p.parseHeaderExpr()
	then := p.parseBlock()
	st := &ast.IfStmt{Cond: cond, Then: then, Sp: start.Cover(then.Sp)}
	if p.accept(token.KwElse) {
		if p.at(token.KwIf) {
			st.Else = p.parseIf()
		} else {
			st.Else = p.parseBlock()
		}
	}
	return st
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.cur.Span
	p.advance()
	cond := p.parseHeaderExpr()
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Sp: start.Cover(body.Sp)}
}

// parseFor handles both `for x in xs { }` and the parenthesized three-clause
// form.
func (p *Parser) parseFor() ast.Stmt {
	start := p.cur.Span
	p.advance()

	if p.at(token.Ident) && p.lx.Peek().Kind == token.KwIn {
		name := p.cur
		p.advance()
		p.advance()
		iter := p.parseHeaderExpr()
		body := p.parseBlock()
		return &ast.ForInStmt{Var: name.Text, Iter: iter, Body: body, Sp: start.Cover(body.Sp)}
	}

	p.expect(token.LParen)
	var init, update ast.Stmt
	var cond ast.Expr
	if !p.accept(token.Semi) {
		init = p.parseStmt()
	}
	if !p.at(token.Semi) && !p.at(token.RParen) {
		cond = p.parseExpr()
	}
	p.accept(token.Semi)
	if !p.at(token.RParen) {
		update = p.parseSimpleStmt()
	}
	p.expect(token.RParen)
	body := p.parseBlock()
	return &ast.ForStmt{Init: init, Cond: cond, Update: update, Body: body, Sp: start.Cover(body.Sp)}
}

// parseSimpleStmt parses an assignment or expression without a trailing
// semicolon, for loop update clauses.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	if p.at(token.Ident) && p.lx.Peek().Kind == token.Assign {
		name := p.cur
		p.advance()
		p.advance()
		value := p.parseExpr()
		return &ast.AssignStmt{Target: name.Text, Value: value, Sp: name.Span.Cover(value.Span())}
	}
	x := p.parseExpr()
	if x == nil {
		return nil
	}
	return &ast.ExprStmt{X: x}
}

// parseHeaderExpr parses a control-flow header expression with struct
// literals suppressed.
func (p *Parser) parseHeaderExpr() ast.Expr {
	saved := p.noStruct
	p.noStruct = true
	x := p.parseExpr()
	p.noStruct = saved
	return x
}

func (p *Parser) parseType() ast.TypeExpr {
	switch p.cur.Kind {
	case token.Ident:
		name := p.cur
		p.advance()
		if name.Text == "Option" && p.accept(token.Lt) {
			elem := p.parseType()
			p.expect(token.Gt)
			return &ast.OptionType{Elem: elem, Sp: name.Span}
		}
		return &ast.NamedType{Name: name.Text, Sp: name.Span}
	case token.LBracket:
		start := p.cur.Span
		p.advance()
		elem := p.parseType()
		end := p.expect(token.RBracket)
		return &ast.ArrayType{Elem: elem, Sp: start.Cover(end.Span)}
	case token.LParen:
		start := p.cur.Span
		p.advance()
		var elems []ast.TypeExpr
		for !p.at(token.RParen) && !p.at(token.EOF) {
			elems = append(elems, p.parseType())
			if !p.accept(token.Comma) {
				break
			}
		}
		end := p.expect(token.RParen)
		return &ast.TupleType{Elems: elems, Sp: start.Cover(end.Span)}
	case token.KwFn:
		start := p.cur.Span
		p.advance()
		p.expect(token.LParen)
		var params []ast.TypeExpr
		for !p.at(token.RParen) && !p.at(token.EOF) {
			params = append(params, p.parseType())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RParen)
		var ret ast.TypeExpr
		if p.accept(token.Arrow) {
			ret = p.parseType()
		}
		return &ast.FuncType{Params: params, Ret: ret, Sp: start}
	}
	p.errorf(diag.ParseExpectedType, p.cur.Span, "expected a type, found %s", p.cur.Kind)
	p.advance()
	return &ast.NamedType{Name: "Unit", Sp: p.cur.Span}
}
