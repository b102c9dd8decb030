package codegen

import (
	"raven/internal/wasm"
)

// The iterator protocol is implemented by two module-internal functions
// emitted once per module.
//
// iter_make(arr, stride) -> iter allocates the cursor record
// [arr:4][index:4][stride:4] and returns its address.
//
// iter_next(iter) -> probe allocates a probe record [tag:4][payload:8];
// tag 0 means the iterator is exhausted, tag 1 means the payload holds the
// next element (one word, or two for doubles). The cursor index is bumped in
// place.

const (
	iterRecordSize  = 12
	probeRecordSize = 12
)

func (g *generator) emitIterMake() {
	// params: 0 = arr, 1 = stride; locals: 2 = base
	var a wasm.Asm
	hp := g.heapGlob

	a.GlobalGet(hp).LocalSet(2)
	a.GlobalGet(hp).I32Const(iterRecordSize).Op(wasm.OpI32Add).GlobalSet(hp)

	a.LocalGet(2).LocalGet(0).I32Store(0)
	a.LocalGet(2).I32Const(0).I32Store(4)
	a.LocalGet(2).LocalGet(1).I32Store(8)
	a.LocalGet(2)

	g.mod.SetBody(g.iterMake, []wasm.Local{{Count: 1, Type: wasm.I32}}, a.Bytes())
}

func (g *generator) emitIterNext() {
	// params: 0 = iter; locals: 1 = probe, 2 = arr, 3 = idx, 4 = addr
	var a wasm.Asm
	hp := g.heapGlob

	a.LocalGet(0).I32Load(0).LocalSet(2)
	a.LocalGet(0).I32Load(4).LocalSet(3)

	a.GlobalGet(hp).LocalSet(1)
	a.GlobalGet(hp).I32Const(probeRecordSize).Op(wasm.OpI32Add).GlobalSet(hp)

	a.LocalGet(3).LocalGet(2).I32Load(0).Op(wasm.OpI32LtS)
	a.If()
	{
		a.LocalGet(1).I32Const(1).I32Store(0)

		// addr = arr + 4 + idx * stride
		a.LocalGet(2).
			LocalGet(3).LocalGet(0).I32Load(8).Op(wasm.OpI32Mul).
			Op(wasm.OpI32Add)
		a.I32Const(4).Op(wasm.OpI32Add).LocalSet(4)

		// copy the element bytes word by word; doubles take two words
		a.LocalGet(1).LocalGet(4).I32Load(0).I32Store(4)
		a.LocalGet(0).I32Load(8).I32Const(8).Op(wasm.OpI32Eq)
		a.If()
		a.LocalGet(1).LocalGet(4).I32Load(4).I32Store(8)
		a.End()

		a.LocalGet(0).LocalGet(3).I32Const(1).Op(wasm.OpI32Add).I32Store(4)
	}
	a.Else()
	a.LocalGet(1).I32Const(0).I32Store(0)
	a.End()

	a.LocalGet(1)

	g.mod.SetBody(g.iterNext, []wasm.Local{{Count: 4, Type: wasm.I32}}, a.Bytes())
}
