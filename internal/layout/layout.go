// Package layout computes memory layouts for heap values in linear memory.
// A layout is a pure function of the type shape: structurally identical
// types always produce identical offsets, no matter when or where they are
// computed.
package layout

import (
	"raven/internal/types"
)

// WordSize is the width of pointers and scalar slots in linear memory.
const WordSize = 4

// ArrayHeaderSize is the length prefix stored before array elements.
const ArrayHeaderSize = 4

// StringHeaderSize is the length prefix stored before string bytes.
const StringHeaderSize = 4

// SizeOf returns the byte width of one value of type t as stored in linear
// memory. Floats are 8-byte doubles; everything else, pointers included, is
// one word.
func SizeOf(t *types.Type) uint32 {
	if t != nil && t.Kind == types.KindFloat {
		return 8
	}
	return WordSize
}

// Field is one struct field with its resolved byte offset.
type Field struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Struct is the cached layout of one struct type: fields in declaration
// order, each at the sum of the sizes of the fields before it.
type Struct struct {
	Name   string
	Fields []Field
	Size   uint32
}

// FieldOffset returns the byte offset of the named field.
func (s *Struct) FieldOffset(name string) (uint32, bool) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return s.Fields[i].Offset, true
		}
	}
	return 0, false
}

// Table caches struct layouts by name for one module.
type Table struct {
	structs map[string]*Struct
}

func NewTable() *Table {
	return &Table{structs: make(map[string]*Struct)}
}

// Of returns the layout for a struct type, computing and caching it on first
// use.
func (t *Table) Of(st *types.Type) *Struct {
	if l, ok := t.structs[st.Name]; ok {
		return l
	}
	l := compute(st)
	t.structs[st.Name] = l
	return l
}

// FieldOffset resolves a field offset through the cache.
func (t *Table) FieldOffset(st *types.Type, field string) (uint32, bool) {
	return t.Of(st).FieldOffset(field)
}

func compute(st *types.Type) *Struct {
	l := &Struct{Name: st.Name, Fields: make([]Field, 0, len(st.Fields))}
	for _, f := range st.Fields {
		size := SizeOf(f.Type)
		l.Fields = append(l.Fields, Field{Name: f.Name, Offset: l.Size, Size: size})
		l.Size += size
	}
	return l
}

// ElemStride is the distance between consecutive elements of an array of
// elem.
func ElemStride(elem *types.Type) uint32 {
	return SizeOf(elem)
}

// ArraySize is the total allocation for an array of n elements of elem,
// length prefix included.
func ArraySize(elem *types.Type, n uint32) uint32 {
	return ArrayHeaderSize + n*ElemStride(elem)
}
