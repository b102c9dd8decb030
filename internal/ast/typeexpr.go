package ast

import (
	"raven/internal/source"
)

// TypeExpr is a syntactic type annotation.
type TypeExpr interface {
	Node
	typeExprNode()
}

// NamedType references a type by name: a primitive or a declared struct.
type NamedType struct {
	Name string
	Sp   source.Span
}

// ArrayType is the element-typed array annotation.
type ArrayType struct {
	Elem TypeExpr
	Sp   source.Span
}

// TupleType is a fixed-arity product annotation.
type TupleType struct {
	Elems []TypeExpr
	Sp    source.Span
}

// FuncType is a function signature annotation.
type FuncType struct {
	Params []TypeExpr
	Ret    TypeExpr // nil means unit
	Sp     source.Span
}

// OptionType wraps an element type in the optional constructor.
type OptionType struct {
	Elem TypeExpr
	Sp   source.Span
}

func (t *NamedType) Span() source.Span  { return t.Sp }
func (t *ArrayType) Span() source.Span  { return t.Sp }
func (t *TupleType) Span() source.Span  { return t.Sp }
func (t *FuncType) Span() source.Span   { return t.Sp }
func (t *OptionType) Span() source.Span { return t.Sp }

func (*NamedType) typeExprNode()  {}
func (*ArrayType) typeExprNode()  {}
func (*TupleType) typeExprNode()  {}
func (*FuncType) typeExprNode()   {}
func (*OptionType) typeExprNode() {}
