package codegen

import (
	"raven/internal/ast"
	"raven/internal/layout"
	"raven/internal/types"
	"raven/internal/wasm"
)

// funcCompiler lowers one function body. Locals are laid out as parameters
// followed by the pre-allocated scratch slots; name resolution walks a scope
// stack that mirrors the block structure.
type funcCompiler struct {
	g      *generator
	asm    wasm.Asm
	slots  *slotTable
	scopes []map[string]uint32
	ret    *types.Type
}

func (g *generator) newFuncCompiler(slots *slotTable, ret *types.Type) *funcCompiler {
	return &funcCompiler{
		g:      g,
		slots:  slots,
		scopes: []map[string]uint32{make(map[string]uint32)},
		ret:    ret,
	}
}

func (g *generator) compileFn(name string, params []ast.Field, body *ast.Block, bodyExpr ast.Expr) {
	sig := g.res.Funcs[name]
	slots := g.buildSlots(uint32(len(params)), body, bodyExpr)
	fc := g.newFuncCompiler(slots, sig.Ret)
	for i, p := range params {
		fc.bind(p.Name, uint32(i))
	}

	if body != nil {
		fc.emitBlock(body)
		if sig.Ret.Kind != types.KindUnit {
			// every live path returned already
			fc.asm.Op(wasm.OpUnreachable)
		}
	} else {
		fc.emitExpr(bodyExpr)
		if sig.Ret.Kind == types.KindUnit && g.typeOf(bodyExpr).Kind != types.KindUnit {
			fc.asm.Op(wasm.OpDrop)
		}
	}

	g.mod.SetBody(g.funcIdx[name], wasm.CompactLocals(slots.valTypes()), fc.asm.Bytes())
}

func (g *generator) compileLambda(l *ast.LambdaExpr) {
	sig := g.typeOf(l)
	slots := g.buildSlots(uint32(len(l.Params)), nil, l.Body)
	fc := g.newFuncCompiler(slots, sig.Ret)
	for i, p := range l.Params {
		fc.bind(p.Name, uint32(i))
	}
	fc.emitExpr(l.Body)
	if sig.Ret.Kind == types.KindUnit && g.typeOf(l.Body).Kind != types.KindUnit {
		fc.asm.Op(wasm.OpDrop)
	}
	g.mod.SetBody(g.lambdaIdx[l], wasm.CompactLocals(slots.valTypes()), fc.asm.Bytes())
}

func (g *generator) compileScriptMain(idx uint32, script []ast.Stmt) {
	body := &ast.Block{Stmts: script}
	slots := g.buildSlots(0, body, nil)
	fc := g.newFuncCompiler(slots, types.Unit)
	for _, st := range script {
		fc.emitStmt(st)
	}
	g.mod.SetBody(idx, wasm.CompactLocals(slots.valTypes()), fc.asm.Bytes())
}

// scope handling

func (fc *funcCompiler) push() { fc.scopes = append(fc.scopes, make(map[string]uint32)) }
func (fc *funcCompiler) pop()  { fc.scopes = fc.scopes[:len(fc.scopes)-1] }

func (fc *funcCompiler) bind(name string, local uint32) {
	fc.scopes[len(fc.scopes)-1][name] = local
}

func (fc *funcCompiler) lookup(name string) (uint32, bool) {
	for i := len(fc.scopes) - 1; i >= 0; i-- {
		if idx, ok := fc.scopes[i][name]; ok {
			return idx, true
		}
	}
	return 0, false
}

// statements

func (fc *funcCompiler) emitBlock(b *ast.Block) {
	fc.push()
	for _, st := range b.Stmts {
		fc.emitStmt(st)
	}
	fc.pop()
}

func (fc *funcCompiler) emitStmt(st ast.Stmt) {
	g := fc.g
	switch s := st.(type) {
	case *ast.LetStmt:
		slot := fc.slots.of(s)
		if g.typeOf(s.Value).Kind == types.KindUnit {
			fc.emitExpr(s.Value)
			fc.asm.I32Const(0)
		} else {
			fc.emitExpr(s.Value)
		}
		fc.asm.LocalSet(slot)
		fc.bind(s.Name, slot)

	case *ast.AssignStmt:
		slot, ok := fc.lookup(s.Target)
		if !ok {
			panic(icef("assignment to unresolved name %q", s.Target))
		}
		fc.emitExpr(s.Value)
		fc.asm.LocalSet(slot)

	case *ast.ReturnStmt:
		if s.Value != nil {
			fc.emitExpr(s.Value)
		}
		fc.asm.Op(wasm.OpReturn)

	case *ast.ExprStmt:
		fc.emitExpr(s.X)
		if g.typeOf(s.X).Kind != types.KindUnit {
			fc.asm.Op(wasm.OpDrop)
		}

	case *ast.IfStmt:
		fc.emitExpr(s.Cond)
		fc.asm.If()
		fc.emitBlock(s.Then)
		if s.Else != nil {
			fc.asm.Else()
			fc.emitStmt(s.Else)
		}
		fc.asm.End()

	case *ast.WhileStmt:
		fc.asm.Block().Loop()
		fc.emitExpr(s.Cond)
		fc.asm.Op(wasm.OpI32Eqz).BrIf(1)
		fc.emitBlock(s.Body)
		fc.asm.Br(0).End().End()

	case *ast.ForStmt:
		fc.push()
		if s.Init != nil {
			fc.emitStmt(s.Init)
		}
		fc.asm.Block().Loop()
		if s.Cond != nil {
			fc.emitExpr(s.Cond)
			fc.asm.Op(wasm.OpI32Eqz).BrIf(1)
		}
		fc.emitBlock(s.Body)
		if s.Update != nil {
			fc.emitStmt(s.Update)
		}
		fc.asm.Br(0).End().End()
		fc.pop()

	case *ast.ForInStmt:
		fc.emitForIn(s)

	case *ast.Block:
		fc.emitBlock(s)

	default:
		panic(icef("unexpected statement %T inside a function body", st))
	}
}

// emitForIn lowers iteration through the iterator protocol: the collection
// becomes an iterator handle, and each round trips through a probe record
// whose tag signals exhaustion and whose payload is the next element.
func (fc *funcCompiler) emitForIn(s *ast.ForInStmt) {
	g := fc.g
	base := fc.slots.of(s)
	handle, probe, loopVar := base, base+1, base+2

	iterType := g.typeOf(s.Iter)
	if iterType.Kind != types.KindArray {
		panic(icef("for-in over non-array type %s", iterType))
	}
	elemIsFloat := iterType.Elem.Kind == types.KindFloat

	fc.emitExpr(s.Iter)
	fc.asm.I32Const(int32(layout.ElemStride(iterType.Elem)))
	fc.asm.Call(g.iterMake).LocalSet(handle)

	fc.asm.Block().Loop()
	fc.asm.LocalGet(handle).Call(g.iterNext).LocalSet(probe)
	fc.asm.LocalGet(probe).I32Load(0).Op(wasm.OpI32Eqz).BrIf(1)
	fc.asm.LocalGet(probe)
	if elemIsFloat {
		fc.asm.F64Load(layout.WordSize)
	} else {
		fc.asm.I32Load(layout.WordSize)
	}
	fc.asm.LocalSet(loopVar)

	fc.push()
	fc.bind(s.Var, loopVar)
	for _, st := range s.Body.Stmts {
		fc.emitStmt(st)
	}
	fc.pop()

	fc.asm.Br(0).End().End()
}

// emitAlloc bumps the heap pointer by size bytes and leaves the old value in
// the base slot.
func (fc *funcCompiler) emitAlloc(size uint32, baseSlot uint32) {
	hp := fc.g.heapGlob
	fc.asm.GlobalGet(hp).LocalSet(baseSlot)
	fc.asm.GlobalGet(hp).I32Const(int32(size)).Op(wasm.OpI32Add).GlobalSet(hp)
}
