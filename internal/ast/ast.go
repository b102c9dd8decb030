// Package ast defines the untyped syntax tree handed to the middle end by
// the parser. Every node carries the source span of the tokens it was built
// from; the inference engine keys its annotations off node identity.
package ast

import (
	"raven/internal/source"
)

// Program is one compilation unit: the ordered top-level statements of a
// single source file.
type Program struct {
	Stmts []Stmt
}

// Node is implemented by every syntax tree node.
type Node interface {
	Span() source.Span
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Block is a braced statement list.
type Block struct {
	Stmts []Stmt
	Sp    source.Span
}

func (b *Block) Span() source.Span { return b.Sp }
