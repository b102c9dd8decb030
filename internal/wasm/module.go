package wasm

import (
	"strings"
)

// Section ids in emission order.
const (
	secType    byte = 1
	secImport  byte = 2
	secFunc    byte = 3
	secTable   byte = 4
	secMemory  byte = 5
	secGlobal  byte = 6
	secExport  byte = 7
	secElement byte = 9
	secCode    byte = 10
	secData    byte = 11
)

// Export kinds.
const (
	ExportFunc   byte = 0x00
	ExportTable  byte = 0x01
	ExportMemory byte = 0x02
	ExportGlobal byte = 0x03
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (ft FuncType) key() string {
	var sb strings.Builder
	for _, p := range ft.Params {
		sb.WriteByte(byte(p))
	}
	sb.WriteByte(0)
	for _, r := range ft.Results {
		sb.WriteByte(byte(r))
	}
	return sb.String()
}

// Local is one run of identically typed local slots.
type Local struct {
	Count uint32
	Type  ValType
}

// CompactLocals groups a flat slot list into runs of equal value types.
func CompactLocals(slots []ValType) []Local {
	var out []Local
	for _, vt := range slots {
		if n := len(out); n > 0 && out[n-1].Type == vt {
			out[n-1].Count++
			continue
		}
		out = append(out, Local{Count: 1, Type: vt})
	}
	return out
}

type importedFunc struct {
	module  string
	name    string
	typeIdx uint32
}

type globalDef struct {
	typ     ValType
	mutable bool
	init    []byte
}

type exportDef struct {
	name string
	kind byte
	idx  uint32
}

type dataSegment struct {
	offset uint32
	bytes  []byte
}

type funcBody struct {
	locals []Local
	code   []byte
}

// Module accumulates the parts of one binary module and serializes them in
// the mandated section order. Imported functions occupy the low function
// indices; defined functions follow.
type Module struct {
	types     []FuncType
	typeCache map[string]uint32

	imports []importedFunc
	sealed  bool // set once the first function is declared

	funcTypes []uint32
	bodies    []funcBody

	tableElems []uint32
	memPages   uint32
	hasMemory  bool
	globals    []globalDef
	exports    []exportDef
	data       []dataSegment
}

func NewModule() *Module {
	return &Module{typeCache: make(map[string]uint32)}
}

// AddType interns a function signature and returns its type index.
func (m *Module) AddType(ft FuncType) uint32 {
	k := ft.key()
	if idx, ok := m.typeCache[k]; ok {
		return idx
	}
	idx := uint32(len(m.types))
	m.types = append(m.types, ft)
	m.typeCache[k] = idx
	return idx
}

// ImportFunc registers a host function and returns its function index. All
// imports must be registered before the first DeclareFunc.
func (m *Module) ImportFunc(module, name string, ft FuncType) uint32 {
	if m.sealed {
		panic("wasm: import registered after function declarations")
	}
	idx := uint32(len(m.imports))
	m.imports = append(m.imports, importedFunc{module: module, name: name, typeIdx: m.AddType(ft)})
	return idx
}

// NumImports returns how many function indices are taken by imports.
func (m *Module) NumImports() uint32 {
	return uint32(len(m.imports))
}

// DeclareFunc reserves a function index for a signature. The body is
// attached later with SetBody, which lets callers hand out stable indices
// before emission starts.
func (m *Module) DeclareFunc(ft FuncType) uint32 {
	m.sealed = true
	idx := uint32(len(m.imports) + len(m.funcTypes))
	m.funcTypes = append(m.funcTypes, m.AddType(ft))
	m.bodies = append(m.bodies, funcBody{})
	return idx
}

// SetBody attaches locals and code to a previously declared function. The
// trailing end opcode is appended here.
func (m *Module) SetBody(funcIdx uint32, locals []Local, code []byte) {
	i := int(funcIdx) - len(m.imports)
	m.bodies[i] = funcBody{locals: locals, code: code}
}

// SetTable declares the indirect-call table with the given function indices
// as its initial elements.
func (m *Module) SetTable(elems []uint32) {
	m.tableElems = elems
}

// SetMemory declares a linear memory with the given initial page count.
func (m *Module) SetMemory(pages uint32) {
	m.memPages = pages
	m.hasMemory = true
}

// AddGlobalI32 declares an i32 global and returns its index.
func (m *Module) AddGlobalI32(mutable bool, init int32) uint32 {
	var buf []byte
	buf = append(buf, OpI32Const)
	buf = AppendSLEB128(buf, int64(init))
	buf = append(buf, OpEnd)
	idx := uint32(len(m.globals))
	m.globals = append(m.globals, globalDef{typ: I32, mutable: mutable, init: buf})
	return idx
}

// Export names a function, memory, table, or global for the host.
func (m *Module) Export(name string, kind byte, idx uint32) {
	m.exports = append(m.exports, exportDef{name: name, kind: kind, idx: idx})
}

// AddData places constant bytes at a fixed memory offset.
func (m *Module) AddData(offset uint32, b []byte) {
	m.data = append(m.data, dataSegment{offset: offset, bytes: b})
}

// Emit serializes the module.
func (m *Module) Emit() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	if len(m.types) > 0 {
		var p []byte
		p = AppendULEB128(p, uint64(len(m.types)))
		for _, ft := range m.types {
			p = append(p, 0x60)
			p = AppendULEB128(p, uint64(len(ft.Params)))
			for _, v := range ft.Params {
				p = append(p, byte(v))
			}
			p = AppendULEB128(p, uint64(len(ft.Results)))
			for _, v := range ft.Results {
				p = append(p, byte(v))
			}
		}
		out = appendSection(out, secType, p)
	}

	if len(m.imports) > 0 {
		var p []byte
		p = AppendULEB128(p, uint64(len(m.imports)))
		for _, imp := range m.imports {
			p = AppendName(p, imp.module)
			p = AppendName(p, imp.name)
			p = append(p, 0x00) // func import
			p = AppendULEB128(p, uint64(imp.typeIdx))
		}
		out = appendSection(out, secImport, p)
	}

	if len(m.funcTypes) > 0 {
		var p []byte
		p = AppendULEB128(p, uint64(len(m.funcTypes)))
		for _, ti := range m.funcTypes {
			p = AppendULEB128(p, uint64(ti))
		}
		out = appendSection(out, secFunc, p)
	}

	if len(m.tableElems) > 0 {
		var p []byte
		p = AppendULEB128(p, 1)
		p = append(p, 0x70, 0x00) // funcref, min only
		p = AppendULEB128(p, uint64(len(m.tableElems)))
		out = appendSection(out, secTable, p)
	}

	if m.hasMemory {
		var p []byte
		p = AppendULEB128(p, 1)
		p = append(p, 0x00) // min only
		p = AppendULEB128(p, uint64(m.memPages))
		out = appendSection(out, secMemory, p)
	}

	if len(m.globals) > 0 {
		var p []byte
		p = AppendULEB128(p, uint64(len(m.globals)))
		for _, g := range m.globals {
			p = append(p, byte(g.typ))
			if g.mutable {
				p = append(p, 0x01)
			} else {
				p = append(p, 0x00)
			}
			p = append(p, g.init...)
		}
		out = appendSection(out, secGlobal, p)
	}

	if len(m.exports) > 0 {
		var p []byte
		p = AppendULEB128(p, uint64(len(m.exports)))
		for _, e := range m.exports {
			p = AppendName(p, e.name)
			p = append(p, e.kind)
			p = AppendULEB128(p, uint64(e.idx))
		}
		out = appendSection(out, secExport, p)
	}

	if len(m.tableElems) > 0 {
		var p []byte
		p = AppendULEB128(p, 1) // one active segment
		p = AppendULEB128(p, 0) // table 0
		p = append(p, OpI32Const)
		p = AppendSLEB128(p, 0)
		p = append(p, OpEnd)
		p = AppendULEB128(p, uint64(len(m.tableElems)))
		for _, fi := range m.tableElems {
			p = AppendULEB128(p, uint64(fi))
		}
		out = appendSection(out, secElement, p)
	}

	if len(m.bodies) > 0 {
		var p []byte
		p = AppendULEB128(p, uint64(len(m.bodies)))
		for _, b := range m.bodies {
			var body []byte
			body = AppendULEB128(body, uint64(len(b.locals)))
			for _, l := range b.locals {
				body = AppendULEB128(body, uint64(l.Count))
				body = append(body, byte(l.Type))
			}
			body = append(body, b.code...)
			body = append(body, OpEnd)
			p = AppendULEB128(p, uint64(len(body)))
			p = append(p, body...)
		}
		out = appendSection(out, secCode, p)
	}

	if len(m.data) > 0 {
		var p []byte
		p = AppendULEB128(p, uint64(len(m.data)))
		for _, seg := range m.data {
			p = AppendULEB128(p, 0) // memory 0
			p = append(p, OpI32Const)
			p = AppendSLEB128(p, int64(seg.offset))
			p = append(p, OpEnd)
			p = AppendULEB128(p, uint64(len(seg.bytes)))
			p = append(p, seg.bytes...)
		}
		out = appendSection(out, secData, p)
	}

	return out
}

func appendSection(out []byte, id byte, payload []byte) []byte {
	out = append(out, id)
	out = AppendULEB128(out, uint64(len(payload)))
	return append(out, payload...)
}
