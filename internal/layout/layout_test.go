package layout

import (
	"testing"

	"raven/internal/types"
)

func point() *types.Type {
	return types.MakeStruct("Point", []types.StructField{
		{Name: "x", Type: types.Int},
		{Name: "y", Type: types.Int},
	})
}

func TestStructOffsetsFollowDeclarationOrder(t *testing.T) {
	tbl := NewTable()
	l := tbl.Of(point())

	if off, ok := l.FieldOffset("x"); !ok || off != 0 {
		t.Errorf("x at offset %d, want 0", off)
	}
	if off, ok := l.FieldOffset("y"); !ok || off != 4 {
		t.Errorf("y at offset %d, want 4", off)
	}
	if l.Size != 8 {
		t.Errorf("total size %d, want 8", l.Size)
	}
}

func TestFloatFieldsAreDoubles(t *testing.T) {
	st := types.MakeStruct("Sample", []types.StructField{
		{Name: "a", Type: types.Int},
		{Name: "b", Type: types.Float},
		{Name: "c", Type: types.Int},
	})
	l := NewTable().Of(st)

	wantOffsets := map[string]uint32{"a": 0, "b": 4, "c": 12}
	for name, want := range wantOffsets {
		if off, ok := l.FieldOffset(name); !ok || off != want {
			t.Errorf("%s at offset %d, want %d", name, off, want)
		}
	}
	if l.Size != 16 {
		t.Errorf("total size %d, want 16", l.Size)
	}
}

func TestLayoutIsDeterministic(t *testing.T) {
	a := NewTable().Of(point())
	b := NewTable().Of(point())

	if a.Size != b.Size || len(a.Fields) != len(b.Fields) {
		t.Fatal("structurally identical types must lay out identically")
	}
	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			t.Fatalf("field %d differs: %+v vs %+v", i, a.Fields[i], b.Fields[i])
		}
	}
}

func TestTableCachesByName(t *testing.T) {
	tbl := NewTable()
	first := tbl.Of(point())
	second := tbl.Of(point())
	if first != second {
		t.Fatal("expected the cached layout on second lookup")
	}
}

func TestArraySizing(t *testing.T) {
	if got := ArraySize(types.Int, 3); got != 16 {
		t.Errorf("ArraySize([Int], 3) = %d, want 16", got)
	}
	if got := ElemStride(types.Float); got != 8 {
		t.Errorf("ElemStride(Float) = %d, want 8", got)
	}
	if got := ArraySize(types.Int, 0); got != 4 {
		t.Errorf("empty array should still carry its header, got %d", got)
	}
}
