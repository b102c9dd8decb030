package parser

import (
	"strconv"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/token"
)

// binding powers, loosest first
func precedence(k token.Kind) int {
	switch k {
	case token.OrOr:
		return 1
	case token.AndAnd:
		return 2
	case token.EqEq, token.NotEq:
		return 3
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		return 4
	case token.Plus, token.Minus:
		return 5
	case token.Star, token.Slash, token.Percent:
		return 6
	}
	return 0
}

func infixOp(k token.Kind) ast.Op {
	switch k {
	case token.Plus:
		return ast.OpAdd
	case token.Minus:
		return ast.OpSub
	case token.Star:
		return ast.OpMul
	case token.Slash:
		return ast.OpDiv
	case token.Percent:
		return ast.OpMod
	case token.EqEq:
		return ast.OpEq
	case token.NotEq:
		return ast.OpNe
	case token.Lt:
		return ast.OpLt
	case token.LtEq:
		return ast.OpLe
	case token.Gt:
		return ast.OpGt
	case token.GtEq:
		return ast.OpGe
	case token.AndAnd:
		return ast.OpAnd
	case token.OrOr:
		return ast.OpOr
	}
	return ast.OpInvalid
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec := precedence(p.cur.Kind)
		if prec == 0 || prec <= minPrec {
			return left
		}
		op := infixOp(p.cur.Kind)
		p.advance()
		right := p.parseBinary(prec)
		left = &ast.InfixExpr{
			Op: op, Left: left, Right: right,
			Sp: left.Span().Cover(right.Span()),
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Kind {
	case token.Minus:
		start := p.cur.Span
		p.advance()
		x := p.parseUnary()
		return &ast.PrefixExpr{Op: ast.OpNeg, X: x, Sp: start.Cover(x.Span())}
	case token.Bang:
		start := p.cur.Span
		p.advance()
		x := p.parseUnary()
		return &ast.PrefixExpr{Op: ast.OpNot, X: x, Sp: start.Cover(x.Span())}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case token.LParen:
			p.advance()
			var args []ast.Expr
			for !p.at(token.RParen) && !p.at(token.EOF) {
				args = append(args, p.parseExpr())
				if !p.accept(token.Comma) {
					break
				}
			}
			end := p.expect(token.RParen)
			x = &ast.CallExpr{Callee: x, Args: args, Sp: x.Span().Cover(end.Span)}
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBracket)
			x = &ast.IndexExpr{X: x, Index: idx, Sp: x.Span().Cover(end.Span)}
		case token.Dot:
			p.advance()
			field := p.expect(token.Ident)
			x = &ast.FieldAccess{X: x, Field: field.Text, Sp: x.Span().Cover(field.Span)}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.cur
	switch t.Kind {
	case token.Int:
		p.advance()
		v, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			p.errorf(diag.LexInvalidNumber, t.Span, "integer literal %q out of range", t.Text)
		}
		return &ast.IntLit{Value: v, Sp: t.Span}

	case token.Float:
		p.advance()
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			p.errorf(diag.LexInvalidNumber, t.Span, "float literal %q out of range", t.Text)
		}
		return &ast.FloatLit{Value: v, Sp: t.Span}

	case token.String:
		p.advance()
		return &ast.StringLit{Value: t.Text, Sp: t.Span}

	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.BoolLit{Value: t.Kind == token.KwTrue, Sp: t.Span}

	case token.Ident:
		p.advance()
		if p.at(token.LBrace) && !p.noStruct {
			return p.parseStructLit(t)
		}
		return &ast.Ident{Name: t.Text, Sp: t.Span}

	case token.LParen:
		return p.parseParenOrLambda()

	case token.Pipe:
		return p.parsePipeLambda()

	case token.LBracket:
		p.advance()
		var elems []ast.Expr
		for !p.at(token.RBracket) && !p.at(token.EOF) {
			elems = append(elems, p.parseExpr())
			if !p.accept(token.Comma) {
				break
			}
		}
		end := p.expect(token.RBracket)
		return &ast.ArrayLit{Elems: elems, Sp: t.Span.Cover(end.Span)}

	case token.KwMatch:
		return p.parseMatch()
	}

	p.errorf(diag.ParseExpectedExpr, t.Span, "expected an expression, found %s", t.Kind)
	p.advance()
	return &ast.Ident{Name: "_error_", Sp: t.Span}
}

func (p *Parser) parseStructLit(name token.Token) ast.Expr {
	p.expect(token.LBrace)
	var fields []ast.FieldInit
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fname := p.expect(token.Ident)
		p.expect(token.Colon)
		value := p.parseExpr()
		fields = append(fields, ast.FieldInit{Name: fname.Text, Value: value, Sp: fname.Span})
		if !p.accept(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBrace)
	return &ast.StructLit{Name: name.Text, Fields: fields, Sp: name.Span.Cover(end.Span)}
}

// parseParenOrLambda disambiguates `(a, b) => body` from grouped and tuple
// expressions after the fact: if a fat arrow follows the closing parenthesis
// the elements must all be identifiers and become parameters.
func (p *Parser) parseParenOrLambda() ast.Expr {
	start := p.expect(token.LParen)

	var elems []ast.Expr
	for !p.at(token.RParen) && !p.at(token.EOF) {
		elems = append(elems, p.parseExpr())
		if !p.accept(token.Comma) {
			break
		}
	}
	end := p.expect(token.RParen)

	if p.accept(token.FatArrow) {
		params := make([]ast.Field, 0, len(elems))
		for _, e := range elems {
			id, ok := e.(*ast.Ident)
			if !ok {
				p.errorf(diag.ParseUnexpectedToken, e.Span(), "lambda parameters must be identifiers")
				continue
			}
			params = append(params, ast.Field{Name: id.Name, Sp: id.Sp})
		}
		body := p.parseExpr()
		return &ast.LambdaExpr{Params: params, Body: body, Sp: start.Span.Cover(body.Span())}
	}

	switch len(elems) {
	case 0:
		p.errorf(diag.ParseExpectedExpr, start.Span, "empty parentheses are not an expression")
		return &ast.Ident{Name: "_error_", Sp: start.Span}
	case 1:
		return elems[0]
	default:
		return &ast.TupleLit{Elems: elems, Sp: start.Span.Cover(end.Span)}
	}
}

func (p *Parser) parsePipeLambda() ast.Expr {
	start := p.expect(token.Pipe)
	var params []ast.Field
	for !p.at(token.Pipe) && !p.at(token.EOF) {
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
	p.expect(token.Pipe)
	p.accept(token.FatArrow)
	body := p.parseExpr()
	return &ast.LambdaExpr{Params: params, Body: body, Sp: start.Span.Cover(body.Span())}
}

func (p *Parser) parseMatch() ast.Expr {
	start := p.cur.Span
	p.advance()
	scrutinee := p.parseHeaderExpr()
	p.expect(token.LBrace)

	var arms []ast.MatchArm
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		pat := p.parsePattern()
		p.expect(token.FatArrow)
		body := p.parseExpr()
		arms = append(arms, ast.MatchArm{Pat: pat, Body: body, Sp: pat.Span().Cover(body.Span())})
		if !p.accept(token.Comma) {
			break
		}
	}
	end := p.expect(token.RBrace)
	return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms, Sp: start.Cover(end.Span)}
}

func (p *Parser) parsePattern() ast.Pattern {
	t := p.cur
	switch t.Kind {
	case token.Underscore:
		p.advance()
		return &ast.WildcardPattern{Sp: t.Span}
	case token.Int:
		p.advance()
		v, _ := strconv.ParseInt(t.Text, 10, 64)
		return &ast.LitPattern{Lit: &ast.IntLit{Value: v, Sp: t.Span}, Sp: t.Span}
	case token.String:
		p.advance()
		return &ast.LitPattern{Lit: &ast.StringLit{Value: t.Text, Sp: t.Span}, Sp: t.Span}
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.LitPattern{Lit: &ast.BoolLit{Value: t.Kind == token.KwTrue, Sp: t.Span}, Sp: t.Span}
	case token.Ident:
		p.advance()
		return &ast.IdentPattern{Name: t.Text, Sp: t.Span}
	}
	p.errorf(diag.ParseUnexpectedToken, t.Span, "expected a pattern, found %s", t.Kind)
	p.advance()
	return &ast.WildcardPattern{Sp: t.Span}
}
