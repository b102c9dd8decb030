package ast

import (
	"raven/internal/source"
)

// LetStmt binds the value of an initializer expression to a name.
type LetStmt struct {
	Name  string
	Value Expr
	Sp    source.Span
}

// AssignStmt overwrites an existing binding.
type AssignStmt struct {
	Target string
	Value  Expr
	Sp     source.Span
}

// ReturnStmt returns a value from the enclosing function.
type ReturnStmt struct {
	Value Expr // nil for bare return
	Sp    source.Span
}

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	X Expr
}

// IfStmt is a conditional with an optional else branch. Else is either a
// *Block or another *IfStmt (else-if chain).
type IfStmt struct {
	Cond Expr
	Then *Block
	Else Stmt // nil, *Block, or *IfStmt
	Sp   source.Span
}

// WhileStmt loops while the condition holds.
type WhileStmt struct {
	Cond Expr
	Body *Block
	Sp   source.Span
}

// ForStmt is the C-style three-clause loop.
type ForStmt struct {
	Init   Stmt // optional
	Cond   Expr
	Update Stmt // optional
	Body   *Block
	Sp     source.Span
}

// ForInStmt iterates a collection through the iterator protocol.
type ForInStmt struct {
	Var  string
	Iter Expr
	Body *Block
	Sp   source.Span
}

// Field is one named, typed struct field or function parameter.
type Field struct {
	Name string
	Type TypeExpr
	Sp   source.Span
}

// StructDef declares a named record type with ordered fields.
type StructDef struct {
	Name   string
	Fields []Field
	Sp     source.Span
}

// FnDef declares a named function.
type FnDef struct {
	Name   string
	Params []Field
	Ret    TypeExpr // nil means unit
	Body   *Block
	Sp     source.Span
}

// ComponentDef declares a UI component: a function from props to a view
// expression, exported for the host to instantiate.
type ComponentDef struct {
	Name   string
	Params []Field
	Body   Expr
	Sp     source.Span
}

// FnDecl is a bodyless signature inside an extern block.
type FnDecl struct {
	Name   string
	Params []Field
	Ret    TypeExpr // nil means unit
	Sp     source.Span
}

// ExternBlock declares host-provided functions under an ABI namespace.
type ExternBlock struct {
	ABI   string
	Decls []FnDecl
	Sp    source.Span
}

func (s *LetStmt) Span() source.Span      { return s.Sp }
func (s *AssignStmt) Span() source.Span   { return s.Sp }
func (s *ReturnStmt) Span() source.Span   { return s.Sp }
func (s *ExprStmt) Span() source.Span     { return s.X.Span() }
func (s *IfStmt) Span() source.Span       { return s.Sp }
func (s *WhileStmt) Span() source.Span    { return s.Sp }
func (s *ForStmt) Span() source.Span      { return s.Sp }
func (s *ForInStmt) Span() source.Span    { return s.Sp }
func (s *StructDef) Span() source.Span    { return s.Sp }
func (s *FnDef) Span() source.Span        { return s.Sp }
func (s *ComponentDef) Span() source.Span { return s.Sp }
func (s *ExternBlock) Span() source.Span  { return s.Sp }

func (*LetStmt) stmtNode()      {}
func (*AssignStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*ForInStmt) stmtNode()    {}
func (*StructDef) stmtNode()    {}
func (*FnDef) stmtNode()        {}
func (*ComponentDef) stmtNode() {}
func (*ExternBlock) stmtNode()  {}
func (*Block) stmtNode()        {}
