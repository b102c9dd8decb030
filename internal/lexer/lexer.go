// Package lexer turns source text into tokens. Comments and whitespace are
// skipped; diagnostics go through the shared reporter.
package lexer

import (
	"fmt"
	"strings"

	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/token"
)

type Lexer struct {
	file     *source.File
	reporter diag.Reporter
	pos      uint32
	look     *token.Token
}

func New(file *source.File, r diag.Reporter) *Lexer {
	return &Lexer{file: file, reporter: r}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look == nil {
		t := lx.scan()
		lx.look = &t
	}
	return *lx.look
}

// Next consumes and returns the next token.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		t := *lx.look
		lx.look = nil
		return t
	}
	return lx.scan()
}

func (lx *Lexer) src() []byte { return lx.file.Content }

func (lx *Lexer) eof() bool { return int(lx.pos) >= len(lx.src()) }

func (lx *Lexer) peekByte() byte {
	if lx.eof() {
		return 0
	}
	return lx.src()[lx.pos]
}

func (lx *Lexer) peekAt(off uint32) byte {
	if int(lx.pos+off) >= len(lx.src()) {
		return 0
	}
	return lx.src()[lx.pos+off]
}

func (lx *Lexer) span(start uint32) source.Span {
	return source.Span{File: lx.file.ID, Start: start, End: lx.pos}
}

func (lx *Lexer) skipTrivia() {
	for !lx.eof() {
		c := lx.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			lx.pos++
		case c == '/' && lx.peekAt(1) == '/':
			for !lx.eof() && lx.peekByte() != '\n' {
				lx.pos++
			}
		case c == '/' && lx.peekAt(1) == '*':
			lx.pos += 2
			for !lx.eof() {
				if lx.peekByte() == '*' && lx.peekAt(1) == '/' {
					lx.pos += 2
					break
				}
				lx.pos++
			}
		default:
			return
		}
	}
}

func (lx *Lexer) scan() token.Token {
	lx.skipTrivia()
	start := lx.pos
	if lx.eof() {
		return token.Token{Kind: token.EOF, Span: lx.span(start)}
	}

	c := lx.peekByte()
	switch {
	case isIdentStart(c):
		return lx.scanIdent(start)
	case c >= '0' && c <= '9':
		return lx.scanNumber(start)
	case c == '"':
		return lx.scanString(start)
	}

	lx.pos++
	two := func(next byte, k token.Kind, single token.Kind) token.Token {
		if lx.peekByte() == next {
			lx.pos++
			return token.Token{Kind: k, Span: lx.span(start), Text: string(lx.src()[start:lx.pos])}
		}
		return token.Token{Kind: single, Span: lx.span(start), Text: string(lx.src()[start:lx.pos])}
	}

	switch c {
	case '(':
		return lx.tok(token.LParen, start)
	case ')':
		return lx.tok(token.RParen, start)
	case '{':
		return lx.tok(token.LBrace, start)
	case '}':
		return lx.tok(token.RBrace, start)
	case '[':
		return lx.tok(token.LBracket, start)
	case ']':
		return lx.tok(token.RBracket, start)
	case ',':
		return lx.tok(token.Comma, start)
	case ';':
		return lx.tok(token.Semi, start)
	case ':':
		return lx.tok(token.Colon, start)
	case '.':
		return lx.tok(token.Dot, start)
	case '+':
		return lx.tok(token.Plus, start)
	case '*':
		return lx.tok(token.Star, start)
	case '/':
		return lx.tok(token.Slash, start)
	case '%':
		return lx.tok(token.Percent, start)
	case '-':
		return two('>', token.Arrow, token.Minus)
	case '=':
		if lx.peekByte() == '>' {
			lx.pos++
			return token.Token{Kind: token.FatArrow, Span: lx.span(start), Text: "=>"}
		}
		return two('=', token.EqEq, token.Assign)
	case '!':
		return two('=', token.NotEq, token.Bang)
	case '<':
		return two('=', token.LtEq, token.Lt)
	case '>':
		return two('=', token.GtEq, token.Gt)
	case '&':
		if lx.peekByte() == '&' {
			lx.pos++
			return token.Token{Kind: token.AndAnd, Span: lx.span(start), Text: "&&"}
		}
	case '|':
		return two('|', token.OrOr, token.Pipe)
	}

	diag.ReportError(lx.reporter, diag.LexInvalidChar, lx.span(start),
		fmt.Sprintf("invalid character %q", c))
	return token.Token{Kind: token.Invalid, Span: lx.span(start), Text: string(lx.src()[start:lx.pos])}
}

func (lx *Lexer) tok(k token.Kind, start uint32) token.Token {
	return token.Token{Kind: k, Span: lx.span(start), Text: string(lx.src()[start:lx.pos])}
}

func (lx *Lexer) scanIdent(start uint32) token.Token {
	for !lx.eof() && isIdentContinue(lx.peekByte()) {
		lx.pos++
	}
	text := string(lx.src()[start:lx.pos])
	return token.Token{Kind: token.LookupIdent(text), Span: lx.span(start), Text: text}
}

func (lx *Lexer) scanNumber(start uint32) token.Token {
	for !lx.eof() && isDigit(lx.peekByte()) {
		lx.pos++
	}
	kind := token.Int
	if lx.peekByte() == '.' && isDigit(lx.peekAt(1)) {
		kind = token.Float
		lx.pos++
		for !lx.eof() && isDigit(lx.peekByte()) {
			lx.pos++
		}
	}
	text := string(lx.src()[start:lx.pos])
	if strings.Count(text, ".") > 1 {
		diag.ReportError(lx.reporter, diag.LexInvalidNumber, lx.span(start),
			fmt.Sprintf("invalid numeric literal %q", text))
		return token.Token{Kind: token.Invalid, Span: lx.span(start), Text: text}
	}
	return token.Token{Kind: kind, Span: lx.span(start), Text: text}
}

func (lx *Lexer) scanString(start uint32) token.Token {
	lx.pos++ // opening quote
	var sb strings.Builder
	for {
		if lx.eof() || lx.peekByte() == '\n' {
			diag.ReportError(lx.reporter, diag.LexUnterminatedString, lx.span(start),
				"unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: lx.span(start), Text: sb.String()}
		}
		c := lx.peekByte()
		lx.pos++
		if c == '"' {
			break
		}
		if c == '\\' && !lx.eof() {
			e := lx.peekByte()
			lx.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(e)
			}
			continue
		}
		sb.WriteByte(c)
	}
	return token.Token{Kind: token.String, Span: lx.span(start), Text: sb.String()}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentContinue(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
