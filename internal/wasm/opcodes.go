package wasm

// ValType is a value type byte.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

// BlockVoid is the empty block type.
const BlockVoid byte = 0x40

// Control opcodes.
const (
	OpUnreachable  byte = 0x00
	OpNop          byte = 0x01
	OpBlock        byte = 0x02
	OpLoop         byte = 0x03
	OpIf           byte = 0x04
	OpElse         byte = 0x05
	OpEnd          byte = 0x0b
	OpBr           byte = 0x0c
	OpBrIf         byte = 0x0d
	OpReturn       byte = 0x0f
	OpCall         byte = 0x10
	OpCallIndirect byte = 0x11
	OpDrop         byte = 0x1a
)

// Variable opcodes.
const (
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
)

// Memory opcodes.
const (
	OpI32Load  byte = 0x28
	OpF64Load  byte = 0x2b
	OpI32Store byte = 0x36
	OpF64Store byte = 0x39
)

// Constant opcodes.
const (
	OpI32Const byte = 0x41
	OpF64Const byte = 0x44
)

// i32 comparison and arithmetic.
const (
	OpI32Eqz  byte = 0x45
	OpI32Eq   byte = 0x46
	OpI32Ne   byte = 0x47
	OpI32LtS  byte = 0x48
	OpI32GtS  byte = 0x4a
	OpI32LeS  byte = 0x4c
	OpI32GeS  byte = 0x4e
	OpI32Add  byte = 0x6a
	OpI32Sub  byte = 0x6b
	OpI32Mul  byte = 0x6c
	OpI32DivS byte = 0x6d
	OpI32RemS byte = 0x6f
	OpI32And  byte = 0x71
	OpI32Or   byte = 0x72
)

// f64 comparison and arithmetic.
const (
	OpF64Eq  byte = 0x61
	OpF64Ne  byte = 0x62
	OpF64Lt  byte = 0x63
	OpF64Gt  byte = 0x64
	OpF64Le  byte = 0x65
	OpF64Ge  byte = 0x66
	OpF64Neg byte = 0x9a
	OpF64Add byte = 0xa0
	OpF64Sub byte = 0xa1
	OpF64Mul byte = 0xa2
	OpF64Div byte = 0xa3
)

// Conversions.
const (
	OpI32TruncF64S   byte = 0xaa
	OpF64ConvertI32S byte = 0xb7
)
