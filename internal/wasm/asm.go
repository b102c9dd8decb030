package wasm

// Asm accumulates one function body's instruction stream.
type Asm struct {
	buf []byte
}

// Bytes returns the encoded stream.
func (a *Asm) Bytes() []byte { return a.buf }

// Op appends a bare opcode.
func (a *Asm) Op(op byte) *Asm {
	a.buf = append(a.buf, op)
	return a
}

// I32Const pushes a 32-bit integer constant.
func (a *Asm) I32Const(v int32) *Asm {
	a.buf = append(a.buf, OpI32Const)
	a.buf = AppendSLEB128(a.buf, int64(v))
	return a
}

// F64Const pushes a double constant.
func (a *Asm) F64Const(v float64) *Asm {
	a.buf = append(a.buf, OpF64Const)
	a.buf = AppendF64(a.buf, v)
	return a
}

func (a *Asm) LocalGet(idx uint32) *Asm {
	a.buf = append(a.buf, OpLocalGet)
	a.buf = AppendULEB128(a.buf, uint64(idx))
	return a
}

func (a *Asm) LocalSet(idx uint32) *Asm {
	a.buf = append(a.buf, OpLocalSet)
	a.buf = AppendULEB128(a.buf, uint64(idx))
	return a
}

func (a *Asm) LocalTee(idx uint32) *Asm {
	a.buf = append(a.buf, OpLocalTee)
	a.buf = AppendULEB128(a.buf, uint64(idx))
	return a
}

func (a *Asm) GlobalGet(idx uint32) *Asm {
	a.buf = append(a.buf, OpGlobalGet)
	a.buf = AppendULEB128(a.buf, uint64(idx))
	return a
}

func (a *Asm) GlobalSet(idx uint32) *Asm {
	a.buf = append(a.buf, OpGlobalSet)
	a.buf = AppendULEB128(a.buf, uint64(idx))
	return a
}

// I32Load reads a word at [addr + offset]; addr comes from the stack.
func (a *Asm) I32Load(offset uint32) *Asm {
	a.buf = append(a.buf, OpI32Load)
	a.buf = AppendULEB128(a.buf, 2) // alignment
	a.buf = AppendULEB128(a.buf, uint64(offset))
	return a
}

func (a *Asm) I32Store(offset uint32) *Asm {
	a.buf = append(a.buf, OpI32Store)
	a.buf = AppendULEB128(a.buf, 2)
	a.buf = AppendULEB128(a.buf, uint64(offset))
	return a
}

func (a *Asm) F64Load(offset uint32) *Asm {
	a.buf = append(a.buf, OpF64Load)
	a.buf = AppendULEB128(a.buf, 3)
	a.buf = AppendULEB128(a.buf, uint64(offset))
	return a
}

func (a *Asm) F64Store(offset uint32) *Asm {
	a.buf = append(a.buf, OpF64Store)
	a.buf = AppendULEB128(a.buf, 3)
	a.buf = AppendULEB128(a.buf, uint64(offset))
	return a
}

// Block opens a void block.
func (a *Asm) Block() *Asm {
	a.buf = append(a.buf, OpBlock, BlockVoid)
	return a
}

// BlockTyped opens a block yielding one value.
func (a *Asm) BlockTyped(vt ValType) *Asm {
	a.buf = append(a.buf, OpBlock, byte(vt))
	return a
}

// Loop opens a void loop.
func (a *Asm) Loop() *Asm {
	a.buf = append(a.buf, OpLoop, BlockVoid)
	return a
}

// If opens a void conditional.
func (a *Asm) If() *Asm {
	a.buf = append(a.buf, OpIf, BlockVoid)
	return a
}

// IfTyped opens a conditional yielding one value.
func (a *Asm) IfTyped(vt ValType) *Asm {
	a.buf = append(a.buf, OpIf, byte(vt))
	return a
}

func (a *Asm) Else() *Asm { return a.Op(OpElse) }
func (a *Asm) End() *Asm  { return a.Op(OpEnd) }

// Br branches out of the label depth levels up.
func (a *Asm) Br(depth uint32) *Asm {
	a.buf = append(a.buf, OpBr)
	a.buf = AppendULEB128(a.buf, uint64(depth))
	return a
}

func (a *Asm) BrIf(depth uint32) *Asm {
	a.buf = append(a.buf, OpBrIf)
	a.buf = AppendULEB128(a.buf, uint64(depth))
	return a
}

func (a *Asm) Call(funcIdx uint32) *Asm {
	a.buf = append(a.buf, OpCall)
	a.buf = AppendULEB128(a.buf, uint64(funcIdx))
	return a
}

// CallIndirect calls through table 0 with the given type.
func (a *Asm) CallIndirect(typeIdx uint32) *Asm {
	a.buf = append(a.buf, OpCallIndirect)
	a.buf = AppendULEB128(a.buf, uint64(typeIdx))
	a.buf = append(a.buf, 0x00) // table index
	return a
}

// Raw appends pre-encoded instruction bytes.
func (a *Asm) Raw(b []byte) *Asm {
	a.buf = append(a.buf, b...)
	return a
}
