// Package codegen lowers a typed program to a WebAssembly binary module.
// Heap values live in linear memory behind a bump allocator; functions that
// are used as values go through the module function table; host operations
// come in over a fixed import set.
//
// Inference must have succeeded before Generate runs. Any inconsistency
// found here is an internal compiler error, not a user diagnostic.
package codegen

import (
	"fmt"

	"raven/internal/ast"
	"raven/internal/infer"
	"raven/internal/layout"
	"raven/internal/types"
	"raven/internal/wasm"
)

// ICE is a fatal invariant violation inside the code generator.
type ICE struct {
	Reason string
}

func (e *ICE) Error() string {
	return "internal compiler error: " + e.Reason
}

func icef(format string, args ...any) *ICE {
	return &ICE{Reason: fmt.Sprintf(format, args...)}
}

// dataBase is where constant data segments start; the region below it is
// reserved for the host.
const dataBase uint32 = 1024

// memPages is the initial linear memory size in 64 KiB pages.
const memPages uint32 = 2

// hostImport is one entry of the fixed host ABI. Every module declares the
// full set so a host missing any of them fails at instantiation, not at some
// later call.
type hostImport struct {
	name string
	sig  wasm.FuncType
}

var hostABI = []hostImport{
	{"log", wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}}},
	{"dom_create_element", wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}}},
	{"dom_set_text", wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32, wasm.I32}}},
	{"dom_append_child", wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}}},
	{"signal_new", wasm.FuncType{Params: []wasm.ValType{wasm.I32}, Results: []wasm.ValType{wasm.I32}}},
	{"signal_get", wasm.FuncType{Params: []wasm.ValType{wasm.I32}, Results: []wasm.ValType{wasm.I32}}},
	{"signal_set", wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}}},
	{"signal_subscribe", wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}}},
	{"net_fetch", wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}}},
}

type generator struct {
	res     *infer.Result
	layouts *layout.Table
	mod     *wasm.Module

	importIdx map[string]uint32
	funcIdx   map[string]uint32
	lambdaIdx map[*ast.LambdaExpr]uint32

	strings map[string]uint32
	dataEnd uint32

	iterMake uint32
	iterNext uint32
	heapGlob uint32
}

// Generate lowers the program to a binary module.
func Generate(prog *ast.Program, res *infer.Result) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ice, ok := r.(*ICE); ok {
				out, err = nil, ice
				return
			}
			panic(r)
		}
	}()

	g := &generator{
		res:       res,
		layouts:   layout.NewTable(),
		mod:       wasm.NewModule(),
		importIdx: make(map[string]uint32),
		funcIdx:   make(map[string]uint32),
		lambdaIdx: make(map[*ast.LambdaExpr]uint32),
		strings:   make(map[string]uint32),
		dataEnd:   dataBase,
	}

	g.declareImports()
	g.placeStrings(prog)
	g.heapGlob = g.mod.AddGlobalI32(true, g.heapStart())

	fns, comps, script := splitTopLevel(prog)

	// Function indices are assigned up front so bodies can reference any
	// function, lambda, or the runtime helpers before those are compiled.
	for _, fn := range fns {
		g.funcIdx[fn.Name] = g.mod.DeclareFunc(g.sigOf(res.Funcs[fn.Name]))
	}
	for _, c := range comps {
		g.funcIdx[c.Name] = g.mod.DeclareFunc(g.sigOf(res.Funcs[c.Name]))
	}
	lambdas := collectLambdas(prog)
	for _, l := range lambdas {
		g.lambdaIdx[l] = g.mod.DeclareFunc(g.sigOf(res.ExprTypes[l]))
	}
	g.iterMake = g.mod.DeclareFunc(wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}})
	g.iterNext = g.mod.DeclareFunc(wasm.FuncType{Params: []wasm.ValType{wasm.I32}, Results: []wasm.ValType{wasm.I32}})

	var mainIdx uint32
	synthMain := len(script) > 0 && !hasFn(fns, "main")
	if synthMain {
		mainIdx = g.mod.DeclareFunc(wasm.FuncType{})
		g.funcIdx["main"] = mainIdx
	}

	for _, fn := range fns {
		g.compileFn(fn.Name, fn.Params, fn.Body, nil)
	}
	for _, c := range comps {
		g.compileFn(c.Name, c.Params, nil, c.Body)
	}
	for _, l := range lambdas {
		g.compileLambda(l)
	}
	g.emitIterMake()
	g.emitIterNext()
	if synthMain {
		g.compileScriptMain(mainIdx, script)
	}

	g.assemble(comps)
	return g.mod.Emit(), nil
}

func (g *generator) declareImports() {
	for _, h := range hostABI {
		g.importIdx[h.name] = g.mod.ImportFunc("env", h.name, h.sig)
	}
}

// placeStrings assigns every distinct string literal a fixed data offset in
// first-appearance order. Strings are stored length-prefixed.
func (g *generator) placeStrings(prog *ast.Program) {
	walkExprs(prog, func(e ast.Expr) {
		s, ok := e.(*ast.StringLit)
		if !ok {
			return
		}
		if _, seen := g.strings[s.Value]; seen {
			return
		}
		off := g.dataEnd
		g.strings[s.Value] = off

		var seg []byte
		seg = append(seg,
			byte(len(s.Value)), byte(len(s.Value)>>8), byte(len(s.Value)>>16), byte(len(s.Value)>>24))
		seg = append(seg, s.Value...)
		g.mod.AddData(off, seg)

		g.dataEnd += layout.StringHeaderSize + uint32(len(s.Value))
		g.dataEnd = (g.dataEnd + 3) &^ 3
	})
}

// heapStart is the first free byte after the data segments, where the bump
// allocator begins.
func (g *generator) heapStart() int32 {
	return int32((g.dataEnd + 15) &^ 15)
}

func (g *generator) assemble(comps []*ast.ComponentDef) {
	g.mod.SetMemory(memPages)

	// Table slot i holds defined function i, so a function value is just its
	// defined-function ordinal.
	n := g.mod.NumImports()
	elems := make([]uint32, g.definedCount())
	for i := range elems {
		elems[i] = n + uint32(i)
	}
	g.mod.SetTable(elems)

	if idx, ok := g.funcIdx["main"]; ok {
		g.mod.Export("main", wasm.ExportFunc, idx)
	}
	for _, c := range comps {
		g.mod.Export(c.Name, wasm.ExportFunc, g.funcIdx[c.Name])
	}
	g.mod.Export("memory", wasm.ExportMemory, 0)
}

func (g *generator) definedCount() int {
	count := len(g.funcIdx) + len(g.lambdaIdx) + 2 // + iter_make, iter_next
	return count
}

// tableSlot maps a function index to its table slot.
func (g *generator) tableSlot(funcIdx uint32) int32 {
	return int32(funcIdx - g.mod.NumImports())
}

func (g *generator) sigOf(t *types.Type) wasm.FuncType {
	if t == nil || t.Kind != types.KindFunc {
		panic(icef("expected a function type, got %s", t))
	}
	ft := wasm.FuncType{}
	for _, p := range t.Params {
		ft.Params = append(ft.Params, valType(p))
	}
	if t.Ret.Kind != types.KindUnit {
		ft.Results = []wasm.ValType{valType(t.Ret)}
	}
	return ft
}

// valType maps a semantic type to its stack representation: doubles for
// Float, i32 for everything else (ints, bools, pointers, table slots).
func valType(t *types.Type) wasm.ValType {
	if t != nil && t.Kind == types.KindFloat {
		return wasm.F64
	}
	return wasm.I32
}

func splitTopLevel(prog *ast.Program) (fns []*ast.FnDef, comps []*ast.ComponentDef, script []ast.Stmt) {
	for _, st := range prog.Stmts {
		switch d := st.(type) {
		case *ast.FnDef:
			fns = append(fns, d)
		case *ast.ComponentDef:
			comps = append(comps, d)
		case *ast.StructDef, *ast.ExternBlock:
		default:
			script = append(script, st)
		}
	}
	return fns, comps, script
}

func hasFn(fns []*ast.FnDef, name string) bool {
	for _, f := range fns {
		if f.Name == name {
			return true
		}
	}
	return false
}
