package codegen

import (
	"raven/internal/ast"
	"raven/internal/types"
	"raven/internal/wasm"
)

type slotPurpose uint8

const (
	slotLet slotPurpose = iota
	slotIterHandle
	slotIterProbe
	slotLoopVar
	slotScrutinee
	slotHeapBase
)

type slotInfo struct {
	Purpose slotPurpose
	Type    wasm.ValType
}

// slotTable is the result of the local-slot pre-pass: every statement or
// expression that needs scratch locals is assigned its slots before any
// instruction is emitted, because the locals header precedes the body in the
// binary format. Slot indices are absolute local indices (parameters first).
type slotTable struct {
	params uint32
	byNode map[ast.Node]uint32
	slots  []slotInfo
}

func (t *slotTable) add(n ast.Node, p slotPurpose, vt wasm.ValType) uint32 {
	idx := t.params + uint32(len(t.slots))
	if _, dup := t.byNode[n]; !dup {
		t.byNode[n] = idx
	}
	t.slots = append(t.slots, slotInfo{Purpose: p, Type: vt})
	return idx
}

// of returns the first slot assigned to the node.
func (t *slotTable) of(n ast.Node) uint32 {
	idx, ok := t.byNode[n]
	if !ok {
		panic(icef("no slot was pre-allocated for %T", n))
	}
	return idx
}

func (t *slotTable) valTypes() []wasm.ValType {
	out := make([]wasm.ValType, len(t.slots))
	for i, s := range t.slots {
		out[i] = s.Type
	}
	return out
}

// buildSlots walks one function body and allocates its scratch locals:
// one per let binding, three per for-in loop (iterator handle, probe
// pointer, loop variable), one per match scrutinee, and one base pointer
// per heap literal. Lambda bodies are separate functions and are skipped.
func (g *generator) buildSlots(params uint32, body *ast.Block, expr ast.Expr) *slotTable {
	t := &slotTable{params: params, byNode: make(map[ast.Node]uint32)}
	if body != nil {
		g.slotBlock(t, body)
	}
	if expr != nil {
		g.slotExpr(t, expr)
	}
	return t
}

func (g *generator) slotBlock(t *slotTable, b *ast.Block) {
	for _, st := range b.Stmts {
		g.slotStmt(t, st)
	}
}

func (g *generator) slotStmt(t *slotTable, st ast.Stmt) {
	switch s := st.(type) {
	case *ast.LetStmt:
		g.slotExpr(t, s.Value)
		t.add(s, slotLet, valType(g.typeOf(s.Value)))
	case *ast.AssignStmt:
		g.slotExpr(t, s.Value)
	case *ast.ReturnStmt:
		if s.Value != nil {
			g.slotExpr(t, s.Value)
		}
	case *ast.ExprStmt:
		g.slotExpr(t, s.X)
	case *ast.IfStmt:
		g.slotExpr(t, s.Cond)
		g.slotBlock(t, s.Then)
		if s.Else != nil {
			g.slotStmt(t, s.Else)
		}
	case *ast.WhileStmt:
		g.slotExpr(t, s.Cond)
		g.slotBlock(t, s.Body)
	case *ast.ForStmt:
		if s.Init != nil {
			g.slotStmt(t, s.Init)
		}
		if s.Cond != nil {
			g.slotExpr(t, s.Cond)
		}
		if s.Update != nil {
			g.slotStmt(t, s.Update)
		}
		g.slotBlock(t, s.Body)
	case *ast.ForInStmt:
		g.slotExpr(t, s.Iter)
		elem := g.typeOf(s.Iter)
		var loopVar wasm.ValType = wasm.I32
		if elem.Kind == types.KindArray {
			loopVar = valType(elem.Elem)
		}
		t.add(s, slotIterHandle, wasm.I32)
		t.add(s, slotIterProbe, wasm.I32)
		t.add(s, slotLoopVar, loopVar)
		g.slotBlock(t, s.Body)
	case *ast.Block:
		g.slotBlock(t, s)
	}
}

func (g *generator) slotExpr(t *slotTable, e ast.Expr) {
	switch x := e.(type) {
	case *ast.PrefixExpr:
		g.slotExpr(t, x.X)
	case *ast.InfixExpr:
		g.slotExpr(t, x.Left)
		g.slotExpr(t, x.Right)
	case *ast.CallExpr:
		g.slotExpr(t, x.Callee)
		for _, a := range x.Args {
			g.slotExpr(t, a)
		}
	case *ast.ArrayLit:
		t.add(x, slotHeapBase, wasm.I32)
		for _, el := range x.Elems {
			g.slotExpr(t, el)
		}
	case *ast.TupleLit:
		t.add(x, slotHeapBase, wasm.I32)
		for _, el := range x.Elems {
			g.slotExpr(t, el)
		}
	case *ast.StructLit:
		t.add(x, slotHeapBase, wasm.I32)
		for _, fi := range x.Fields {
			g.slotExpr(t, fi.Value)
		}
	case *ast.FieldAccess:
		g.slotExpr(t, x.X)
	case *ast.IndexExpr:
		g.slotExpr(t, x.X)
		g.slotExpr(t, x.Index)
	case *ast.MatchExpr:
		g.slotExpr(t, x.Scrutinee)
		t.add(x, slotScrutinee, valType(g.typeOf(x.Scrutinee)))
		for _, arm := range x.Arms {
			g.slotExpr(t, arm.Body)
		}
	case *ast.LambdaExpr:
		// compiled as its own function
	}
}

// typeOf returns the resolved type of an expression, which inference must
// have recorded.
func (g *generator) typeOf(e ast.Expr) *types.Type {
	t, ok := g.res.ExprTypes[e]
	if !ok {
		panic(icef("expression %T carries no type annotation", e))
	}
	return t
}
