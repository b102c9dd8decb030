// Package types defines the semantic type model shared by the inference
// engine and the code generator: primitive types, type variables, function
// and aggregate types, polymorphic schemes, and substitutions.
package types

import (
	"fmt"
	"strings"
)

// VarID uniquely identifies a type variable inside one inference run.
type VarID uint32

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindUnit
	KindVar
	KindFunc
	KindArray
	KindTuple
	KindStruct
	KindOption
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindUnit:
		return "Unit"
	case KindVar:
		return "var"
	case KindFunc:
		return "fn"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindStruct:
		return "struct"
	case KindOption:
		return "Option"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// StructField is one named field of a struct type, in declaration order.
type StructField struct {
	Name string
	Type *Type
}

// Type is a node in the semantic type tree. Primitive types are shared
// singletons; composite types own their children. Types are immutable after
// construction: substitution builds new nodes instead of mutating.
type Type struct {
	Kind   Kind
	Var    VarID         // KindVar
	Elem   *Type         // KindArray, KindOption
	Params []*Type       // KindFunc
	Ret    *Type         // KindFunc
	Elems  []*Type       // KindTuple
	Name   string        // KindStruct
	Fields []StructField // KindStruct
}

// Shared primitive singletons.
var (
	Int    = &Type{Kind: KindInt}
	Float  = &Type{Kind: KindFloat}
	Bool   = &Type{Kind: KindBool}
	String = &Type{Kind: KindString}
	Unit   = &Type{Kind: KindUnit}
)

// MakeVar describes the type variable with the given id.
func MakeVar(id VarID) *Type {
	return &Type{Kind: KindVar, Var: id}
}

// MakeFunc describes a function type. A nil ret means Unit.
func MakeFunc(params []*Type, ret *Type) *Type {
	if ret == nil {
		ret = Unit
	}
	return &Type{Kind: KindFunc, Params: params, Ret: ret}
}

// MakeArray describes a homogeneous array of elem.
func MakeArray(elem *Type) *Type {
	return &Type{Kind: KindArray, Elem: elem}
}

// MakeTuple describes a fixed-arity product.
func MakeTuple(elems []*Type) *Type {
	return &Type{Kind: KindTuple, Elems: elems}
}

// MakeStruct describes a named record with ordered fields.
func MakeStruct(name string, fields []StructField) *Type {
	return &Type{Kind: KindStruct, Name: name, Fields: fields}
}

// MakeOption wraps elem in the optional constructor.
func MakeOption(elem *Type) *Type {
	return &Type{Kind: KindOption, Elem: elem}
}

// IsPrimitive reports whether t is one of the five primitive types.
func (t *Type) IsPrimitive() bool {
	switch t.Kind {
	case KindInt, KindFloat, KindBool, KindString, KindUnit:
		return true
	}
	return false
}

// FieldIndex returns the declaration index of the named field, or -1.
func (t *Type) FieldIndex(name string) int {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

// Equal reports structural equality. Struct types compare by name and field
// list; type variables compare by id.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt, KindFloat, KindBool, KindString, KindUnit:
		return true
	case KindVar:
		return a.Var == b.Var
	case KindArray, KindOption:
		return Equal(a.Elem, b.Elem)
	case KindFunc:
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(a.Ret, b.Ret)
	case KindTuple:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}

// FreeVars appends the ids of all type variables occurring in t to acc.
func (t *Type) FreeVars(acc map[VarID]bool) {
	if t == nil {
		return
	}
	switch t.Kind {
	case KindVar:
		acc[t.Var] = true
	case KindArray, KindOption:
		t.Elem.FreeVars(acc)
	case KindFunc:
		for _, p := range t.Params {
			p.FreeVars(acc)
		}
		t.Ret.FreeVars(acc)
	case KindTuple:
		for _, e := range t.Elems {
			e.FreeVars(acc)
		}
	case KindStruct:
		for i := range t.Fields {
			t.Fields[i].Type.FreeVars(acc)
		}
	}
}

// Contains reports whether the type variable id occurs anywhere in t. This
// is the occurs check used by unification.
func (t *Type) Contains(id VarID) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindVar:
		return t.Var == id
	case KindArray, KindOption:
		return t.Elem.Contains(id)
	case KindFunc:
		for _, p := range t.Params {
			if p.Contains(id) {
				return true
			}
		}
		return t.Ret.Contains(id)
	case KindTuple:
		for _, e := range t.Elems {
			if e.Contains(id) {
				return true
			}
		}
	case KindStruct:
		for i := range t.Fields {
			if t.Fields[i].Type.Contains(id) {
				return true
			}
		}
	}
	return false
}

// String renders the type for diagnostics: Int, [Int], (Int, Bool),
// fn(Int) -> Bool, Option<String>, struct names, t0 for variables.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindInt, KindFloat, KindBool, KindString, KindUnit:
		return t.Kind.String()
	case KindVar:
		return fmt.Sprintf("t%d", t.Var)
	case KindArray:
		return "[" + t.Elem.String() + "]"
	case KindOption:
		return "Option<" + t.Elem.String() + ">"
	case KindFunc:
		var sb strings.Builder
		sb.WriteString("fn(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteString(") -> ")
		sb.WriteString(t.Ret.String())
		return sb.String()
	case KindTuple:
		var sb strings.Builder
		sb.WriteByte('(')
		for i, e := range t.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(')')
		return sb.String()
	case KindStruct:
		return t.Name
	}
	return "invalid"
}
