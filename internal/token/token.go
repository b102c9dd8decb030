// Package token defines the lexical vocabulary of the language.
package token

import (
	"raven/internal/source"
)

// Kind enumerates token kinds.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	Int
	Float
	String

	// keywords
	KwLet
	KwFn
	KwReturn
	KwIf
	KwElse
	KwWhile
	KwFor
	KwIn
	KwStruct
	KwComponent
	KwExtern
	KwMatch
	KwTrue
	KwFalse

	// punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Semi
	Colon
	Dot
	Arrow    // ->
	FatArrow // =>
	Pipe     // |
	Underscore
	Lt // < also doubles as generic open
	Gt

	// operators
	Assign // =
	Plus
	Minus
	Star
	Slash
	Percent
	EqEq
	NotEq
	LtEq
	GtEq
	AndAnd
	OrOr
	Bang
)

var kindNames = map[Kind]string{
	Invalid: "invalid", EOF: "end of file",
	Ident: "identifier", Int: "integer", Float: "float", String: "string",
	KwLet: "let", KwFn: "fn", KwReturn: "return", KwIf: "if", KwElse: "else",
	KwWhile: "while", KwFor: "for", KwIn: "in", KwStruct: "struct",
	KwComponent: "component", KwExtern: "extern", KwMatch: "match",
	KwTrue: "true", KwFalse: "false",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	LBracket: "[", RBracket: "]", Comma: ",", Semi: ";", Colon: ":",
	Dot: ".", Arrow: "->", FatArrow: "=>", Pipe: "|", Underscore: "_",
	Lt: "<", Gt: ">",
	Assign: "=", Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	EqEq: "==", NotEq: "!=", LtEq: "<=", GtEq: ">=",
	AndAnd: "&&", OrOr: "||", Bang: "!",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

var keywords = map[string]Kind{
	"let": KwLet, "fn": KwFn, "return": KwReturn, "if": KwIf, "else": KwElse,
	"while": KwWhile, "for": KwFor, "in": KwIn, "struct": KwStruct,
	"component": KwComponent, "extern": KwExtern, "match": KwMatch,
	"true": KwTrue, "false": KwFalse,
}

// LookupIdent resolves an identifier text to a keyword kind when it is one.
func LookupIdent(text string) Kind {
	if k, ok := keywords[text]; ok {
		return k
	}
	if text == "_" {
		return Underscore
	}
	return Ident
}

// Token is one lexeme with its source span.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}
