package codegen

import (
	"raven/internal/ast"
	"raven/internal/layout"
	"raven/internal/types"
	"raven/internal/wasm"
)

// emitExpr leaves the expression's value on the stack; Unit-typed
// expressions leave nothing.
func (fc *funcCompiler) emitExpr(e ast.Expr) {
	g := fc.g
	switch x := e.(type) {
	case *ast.IntLit:
		fc.asm.I32Const(int32(x.Value))

	case *ast.FloatLit:
		fc.asm.F64Const(x.Value)

	case *ast.BoolLit:
		if x.Value {
			fc.asm.I32Const(1)
		} else {
			fc.asm.I32Const(0)
		}

	case *ast.StringLit:
		off, ok := g.strings[x.Value]
		if !ok {
			panic(icef("string literal %q was not placed in a data segment", x.Value))
		}
		fc.asm.I32Const(int32(off))

	case *ast.Ident:
		if slot, ok := fc.lookup(x.Name); ok {
			fc.asm.LocalGet(slot)
			return
		}
		if idx, ok := g.funcIdx[x.Name]; ok {
			// a named function used as a value is its table slot
			fc.asm.I32Const(g.tableSlot(idx))
			return
		}
		if _, ok := g.importIdx[x.Name]; ok {
			panic(icef("host import %q cannot be used as a value", x.Name))
		}
		panic(icef("unresolved identifier %q survived inference", x.Name))

	case *ast.PrefixExpr:
		fc.emitPrefix(x)

	case *ast.InfixExpr:
		fc.emitInfix(x)

	case *ast.CallExpr:
		fc.emitCall(x)

	case *ast.ArrayLit:
		fc.emitArrayLit(x)

	case *ast.TupleLit:
		fc.emitTupleLit(x)

	case *ast.StructLit:
		fc.emitStructLit(x)

	case *ast.FieldAccess:
		st := g.typeOf(x.X)
		if st.Kind != types.KindStruct {
			panic(icef("field access on non-struct type %s", st))
		}
		off, ok := g.layouts.FieldOffset(st, x.Field)
		if !ok {
			panic(icef("struct %s has no field %q at lowering time", st.Name, x.Field))
		}
		fc.emitExpr(x.X)
		if g.typeOf(e).Kind == types.KindFloat {
			fc.asm.F64Load(off)
		} else {
			fc.asm.I32Load(off)
		}

	case *ast.IndexExpr:
		stride := layout.ElemStride(g.typeOf(e))
		fc.emitExpr(x.X)
		fc.emitExpr(x.Index)
		fc.asm.I32Const(int32(stride)).Op(wasm.OpI32Mul).Op(wasm.OpI32Add)
		if g.typeOf(e).Kind == types.KindFloat {
			fc.asm.F64Load(layout.ArrayHeaderSize)
		} else {
			fc.asm.I32Load(layout.ArrayHeaderSize)
		}

	case *ast.MatchExpr:
		fc.emitMatch(x)

	case *ast.LambdaExpr:
		idx, ok := g.lambdaIdx[x]
		if !ok {
			panic(icef("lambda was not lifted to a module function"))
		}
		fc.asm.I32Const(g.tableSlot(idx))

	default:
		panic(icef("unhandled expression form %T", e))
	}
}

func (fc *funcCompiler) emitPrefix(x *ast.PrefixExpr) {
	switch x.Op {
	case ast.OpNot:
		fc.emitExpr(x.X)
		fc.asm.Op(wasm.OpI32Eqz)
	case ast.OpNeg:
		if fc.g.typeOf(x.X).Kind == types.KindFloat {
			fc.emitExpr(x.X)
			fc.asm.Op(wasm.OpF64Neg)
		} else {
			fc.asm.I32Const(0)
			fc.emitExpr(x.X)
			fc.asm.Op(wasm.OpI32Sub)
		}
	default:
		panic(icef("unhandled prefix operator %s", x.Op))
	}
}

func (fc *funcCompiler) emitInfix(x *ast.InfixExpr) {
	g := fc.g
	switch {
	case x.Op.IsArithmetic():
		if g.typeOf(x).Kind == types.KindFloat {
			fc.emitAsF64(x.Left)
			fc.emitAsF64(x.Right)
			switch x.Op {
			case ast.OpAdd:
				fc.asm.Op(wasm.OpF64Add)
			case ast.OpSub:
				fc.asm.Op(wasm.OpF64Sub)
			case ast.OpMul:
				fc.asm.Op(wasm.OpF64Mul)
			case ast.OpDiv:
				fc.asm.Op(wasm.OpF64Div)
			default:
				panic(icef("operator %s is not defined on Float", x.Op))
			}
			return
		}
		fc.emitExpr(x.Left)
		fc.emitExpr(x.Right)
		switch x.Op {
		case ast.OpAdd:
			fc.asm.Op(wasm.OpI32Add)
		case ast.OpSub:
			fc.asm.Op(wasm.OpI32Sub)
		case ast.OpMul:
			fc.asm.Op(wasm.OpI32Mul)
		case ast.OpDiv:
			fc.asm.Op(wasm.OpI32DivS)
		case ast.OpMod:
			fc.asm.Op(wasm.OpI32RemS)
		}

	case x.Op.IsComparison():
		operand := g.typeOf(x.Left)
		if operand.Kind == types.KindFloat {
			fc.emitExpr(x.Left)
			fc.emitExpr(x.Right)
			ops := map[ast.Op]byte{
				ast.OpEq: wasm.OpF64Eq, ast.OpNe: wasm.OpF64Ne,
				ast.OpLt: wasm.OpF64Lt, ast.OpLe: wasm.OpF64Le,
				ast.OpGt: wasm.OpF64Gt, ast.OpGe: wasm.OpF64Ge,
			}
			fc.asm.Op(ops[x.Op])
			return
		}
		fc.emitExpr(x.Left)
		fc.emitExpr(x.Right)
		ops := map[ast.Op]byte{
			ast.OpEq: wasm.OpI32Eq, ast.OpNe: wasm.OpI32Ne,
			ast.OpLt: wasm.OpI32LtS, ast.OpLe: wasm.OpI32LeS,
			ast.OpGt: wasm.OpI32GtS, ast.OpGe: wasm.OpI32GeS,
		}
		fc.asm.Op(ops[x.Op])

	case x.Op.IsLogical():
		fc.emitExpr(x.Left)
		fc.emitExpr(x.Right)
		if x.Op == ast.OpAnd {
			fc.asm.Op(wasm.OpI32And)
		} else {
			fc.asm.Op(wasm.OpI32Or)
		}

	default:
		panic(icef("unhandled infix operator %s", x.Op))
	}
}

// emitAsF64 emits the operand and widens it to a double when it is an Int.
func (fc *funcCompiler) emitAsF64(e ast.Expr) {
	fc.emitExpr(e)
	if fc.g.typeOf(e).Kind == types.KindInt {
		fc.asm.Op(wasm.OpF64ConvertI32S)
	}
}

func (fc *funcCompiler) emitCall(x *ast.CallExpr) {
	g := fc.g

	if id, ok := x.Callee.(*ast.Ident); ok {
		if _, isLocal := fc.lookup(id.Name); !isLocal {
			if imp, ok := g.importIdx[id.Name]; ok {
				for _, a := range x.Args {
					fc.emitExpr(a)
				}
				fc.asm.Call(imp)
				return
			}
			if idx, ok := g.funcIdx[id.Name]; ok {
				for _, a := range x.Args {
					fc.emitExpr(a)
				}
				fc.asm.Call(idx)
				return
			}
		}
	}

	// function-typed value: args, then the table slot, then an indirect call
	for _, a := range x.Args {
		fc.emitExpr(a)
	}
	fc.emitExpr(x.Callee)
	fc.asm.CallIndirect(g.mod.AddType(g.sigOf(g.typeOf(x.Callee))))
}

func (fc *funcCompiler) emitArrayLit(x *ast.ArrayLit) {
	g := fc.g
	base := fc.slots.of(x)
	elemT := g.typeOf(x).Elem
	stride := layout.ElemStride(elemT)

	fc.emitAlloc(layout.ArraySize(elemT, uint32(len(x.Elems))), base)

	fc.asm.LocalGet(base).I32Const(int32(len(x.Elems))).I32Store(0)
	for i, el := range x.Elems {
		off := layout.ArrayHeaderSize + uint32(i)*stride
		fc.asm.LocalGet(base)
		fc.emitExpr(el)
		if elemT.Kind == types.KindFloat {
			fc.asm.F64Store(off)
		} else {
			fc.asm.I32Store(off)
		}
	}
	fc.asm.LocalGet(base)
}

func (fc *funcCompiler) emitTupleLit(x *ast.TupleLit) {
	g := fc.g
	base := fc.slots.of(x)
	tt := g.typeOf(x)

	var size uint32
	offsets := make([]uint32, len(tt.Elems))
	for i, et := range tt.Elems {
		offsets[i] = size
		size += layout.SizeOf(et)
	}

	fc.emitAlloc(size, base)
	for i, el := range x.Elems {
		fc.asm.LocalGet(base)
		fc.emitExpr(el)
		if tt.Elems[i].Kind == types.KindFloat {
			fc.asm.F64Store(offsets[i])
		} else {
			fc.asm.I32Store(offsets[i])
		}
	}
	fc.asm.LocalGet(base)
}

func (fc *funcCompiler) emitStructLit(x *ast.StructLit) {
	g := fc.g
	base := fc.slots.of(x)
	st := g.typeOf(x)
	l := g.layouts.Of(st)

	fc.emitAlloc(l.Size, base)
	for _, fi := range x.Fields {
		off, ok := l.FieldOffset(fi.Name)
		if !ok {
			panic(icef("struct %s has no field %q at lowering time", st.Name, fi.Name))
		}
		fc.asm.LocalGet(base)
		fc.emitExpr(fi.Value)
		if g.typeOf(fi.Value).Kind == types.KindFloat {
			fc.asm.F64Store(off)
		} else {
			fc.asm.I32Store(off)
		}
	}
	fc.asm.LocalGet(base)
}

// emitMatch caches the scrutinee in its pre-assigned slot, then lowers the
// arms to a cascade of equality tests. An identifier or wildcard pattern
// always matches and ends the cascade.
func (fc *funcCompiler) emitMatch(x *ast.MatchExpr) {
	g := fc.g
	slot := fc.slots.of(x)
	fc.emitExpr(x.Scrutinee)
	fc.asm.LocalSet(slot)

	resultT := g.typeOf(x)
	scrutFloat := g.typeOf(x.Scrutinee).Kind == types.KindFloat
	fc.emitArms(x.Arms, slot, resultT, scrutFloat)
}

func (fc *funcCompiler) emitArms(arms []ast.MatchArm, slot uint32, resultT *types.Type, scrutFloat bool) {
	if len(arms) == 0 {
		// no arm matched; the cascade dead-ends
		fc.asm.Op(wasm.OpUnreachable)
		return
	}
	arm := arms[0]

	switch p := arm.Pat.(type) {
	case *ast.WildcardPattern:
		fc.emitExpr(arm.Body)
		return
	case *ast.IdentPattern:
		fc.push()
		fc.bind(p.Name, slot)
		fc.emitExpr(arm.Body)
		fc.pop()
		return
	case *ast.LitPattern:
		fc.asm.LocalGet(slot)
		fc.emitExpr(p.Lit)
		if scrutFloat {
			fc.asm.Op(wasm.OpF64Eq)
		} else {
			fc.asm.Op(wasm.OpI32Eq)
		}
		if resultT.Kind == types.KindUnit {
			fc.asm.If()
			fc.emitExpr(arm.Body)
			fc.asm.Else()
			fc.emitArms(arms[1:], slot, resultT, scrutFloat)
			fc.asm.End()
		} else {
			fc.asm.IfTyped(valType(resultT))
			fc.emitExpr(arm.Body)
			fc.asm.Else()
			fc.emitArms(arms[1:], slot, resultT, scrutFloat)
			fc.asm.End()
		}
		return
	}
	panic(icef("unhandled pattern form %T", arm.Pat))
}
