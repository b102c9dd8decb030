package ast

import (
	"raven/internal/source"
)

// Op enumerates prefix and infix operators.
type Op uint8

const (
	OpInvalid Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpNeg
)

var opNames = [...]string{
	OpInvalid: "?",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpMod:     "%",
	OpEq:      "==",
	OpNe:      "!=",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpAnd:     "&&",
	OpOr:      "||",
	OpNot:     "!",
	OpNeg:     "-",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// IsComparison reports whether the operator yields Bool from two operands of
// one shared type.
func (op Op) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// IsArithmetic reports whether the operator is numeric.
func (op Op) IsArithmetic() bool {
	return op >= OpAdd && op <= OpMod
}

// IsLogical reports whether the operator works on Bool operands.
func (op Op) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

type IntLit struct {
	Value int64
	Sp    source.Span
}

type FloatLit struct {
	Value float64
	Sp    source.Span
}

type StringLit struct {
	Value string
	Sp    source.Span
}

type BoolLit struct {
	Value bool
	Sp    source.Span
}

// Ident is a reference to a binding.
type Ident struct {
	Name string
	Sp   source.Span
}

// PrefixExpr is a unary operator application.
type PrefixExpr struct {
	Op Op
	X  Expr
	Sp source.Span
}

// InfixExpr is a binary operator application.
type InfixExpr struct {
	Op    Op
	Left  Expr
	Right Expr
	Sp    source.Span
}

// CallExpr applies a callee to arguments.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Sp     source.Span
}

// ArrayLit is a homogeneous array literal.
type ArrayLit struct {
	Elems []Expr
	Sp    source.Span
}

// TupleLit is a fixed-arity heterogeneous literal.
type TupleLit struct {
	Elems []Expr
	Sp    source.Span
}

// FieldInit is one field initializer in a struct literal.
type FieldInit struct {
	Name  string
	Value Expr
	Sp    source.Span
}

// StructLit instantiates a named struct. Fields may appear in any order but
// must cover the declaration exactly.
type StructLit struct {
	Name   string
	Fields []FieldInit
	Sp     source.Span
}

// FieldAccess reads a struct field.
type FieldAccess struct {
	X     Expr
	Field string
	Sp    source.Span
}

// IndexExpr reads an array element.
type IndexExpr struct {
	X     Expr
	Index Expr
	Sp    source.Span
}

// MatchArm is one pattern with its result expression.
type MatchArm struct {
	Pat  Pattern
	Body Expr
	Sp   source.Span
}

// MatchExpr evaluates the scrutinee once and selects the first arm whose
// pattern matches.
type MatchExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
	Sp        source.Span
}

// LambdaExpr is an anonymous function value.
type LambdaExpr struct {
	Params []Field
	Body   Expr
	Sp     source.Span
}

func (e *IntLit) Span() source.Span      { return e.Sp }
func (e *FloatLit) Span() source.Span    { return e.Sp }
func (e *StringLit) Span() source.Span   { return e.Sp }
func (e *BoolLit) Span() source.Span     { return e.Sp }
func (e *Ident) Span() source.Span       { return e.Sp }
func (e *PrefixExpr) Span() source.Span  { return e.Sp }
func (e *InfixExpr) Span() source.Span   { return e.Sp }
func (e *CallExpr) Span() source.Span    { return e.Sp }
func (e *ArrayLit) Span() source.Span    { return e.Sp }
func (e *TupleLit) Span() source.Span    { return e.Sp }
func (e *StructLit) Span() source.Span   { return e.Sp }
func (e *FieldAccess) Span() source.Span { return e.Sp }
func (e *IndexExpr) Span() source.Span   { return e.Sp }
func (e *MatchExpr) Span() source.Span   { return e.Sp }
func (e *LambdaExpr) Span() source.Span  { return e.Sp }

func (*IntLit) exprNode()      {}
func (*FloatLit) exprNode()    {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*Ident) exprNode()       {}
func (*PrefixExpr) exprNode()  {}
func (*InfixExpr) exprNode()   {}
func (*CallExpr) exprNode()    {}
func (*ArrayLit) exprNode()    {}
func (*TupleLit) exprNode()    {}
func (*StructLit) exprNode()   {}
func (*FieldAccess) exprNode() {}
func (*IndexExpr) exprNode()   {}
func (*MatchExpr) exprNode()   {}
func (*LambdaExpr) exprNode()  {}

// Pattern is implemented by match patterns.
type Pattern interface {
	Node
	patNode()
}

// LitPattern matches when the scrutinee equals the literal.
type LitPattern struct {
	Lit Expr // *IntLit, *BoolLit, or *StringLit
	Sp  source.Span
}

// IdentPattern binds the scrutinee to a name; always matches.
type IdentPattern struct {
	Name string
	Sp   source.Span
}

// WildcardPattern always matches without binding.
type WildcardPattern struct {
	Sp source.Span
}

func (p *LitPattern) Span() source.Span      { return p.Sp }
func (p *IdentPattern) Span() source.Span    { return p.Sp }
func (p *WildcardPattern) Span() source.Span { return p.Sp }

func (*LitPattern) patNode()      {}
func (*IdentPattern) patNode()    {}
func (*WildcardPattern) patNode() {}
