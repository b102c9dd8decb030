package codegen

import (
	"bytes"
	"testing"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/infer"
	"raven/internal/source"
	"raven/internal/wasm"
)

var spanCounter uint32

func sp() source.Span {
	spanCounter += 10
	return source.Span{File: 1, Start: spanCounter, End: spanCounter + 5}
}

func intLit(v int64) *ast.IntLit     { return &ast.IntLit{Value: v, Sp: sp()} }
func strLit(v string) *ast.StringLit { return &ast.StringLit{Value: v, Sp: sp()} }
func ident(name string) *ast.Ident   { return &ast.Ident{Name: name, Sp: sp()} }
func block(stmts ...ast.Stmt) *ast.Block {
	return &ast.Block{Stmts: stmts, Sp: sp()}
}

func generate(t *testing.T, prog *ast.Program) []byte {
	t.Helper()
	bag := diag.NewBag(64)
	res, ok := infer.CheckProgram(prog, diag.BagReporter{Bag: bag})
	if !ok {
		t.Fatalf("inference failed: %v", bag.Items())
	}
	bin, err := Generate(prog, res)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return bin
}

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestAdditionLowersToI32Add(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{
			Name:  "x",
			Value: &ast.InfixExpr{Op: ast.OpAdd, Left: intLit(1), Right: intLit(2), Sp: sp()},
			Sp:    sp(),
		},
	}}
	bin := generate(t, prog)

	if !bytes.HasPrefix(bin, wasmHeader) {
		t.Fatal("missing module header")
	}
	want := []byte{wasm.OpI32Const, 0x01, wasm.OpI32Const, 0x02, wasm.OpI32Add}
	if !bytes.Contains(bin, want) {
		t.Fatalf("const/const/add sequence not found in %x", bin)
	}
}

func TestFullHostImportSetIsAlwaysDeclared(t *testing.T) {
	bin := generate(t, &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "x", Value: intLit(1), Sp: sp()},
	}})

	names := []string{
		"env", "log",
		"dom_create_element", "dom_set_text", "dom_append_child",
		"signal_new", "signal_get", "signal_set", "signal_subscribe",
		"net_fetch",
	}
	for _, n := range names {
		if !bytes.Contains(bin, []byte(n)) {
			t.Errorf("import %q missing from module", n)
		}
	}
}

func TestFieldAccessLowersToOffsetLoad(t *testing.T) {
	// struct Point { x: Int, y: Int }; accessing .y must load at offset 4
	pointDef := &ast.StructDef{
		Name: "Point",
		Fields: []ast.Field{
			{Name: "x", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()},
			{Name: "y", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()},
		},
		Sp: sp(),
	}
	lit := &ast.StructLit{Name: "Point", Fields: []ast.FieldInit{
		{Name: "x", Value: intLit(10), Sp: sp()},
		{Name: "y", Value: intLit(20), Sp: sp()},
	}, Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		pointDef,
		&ast.LetStmt{Name: "p", Value: lit, Sp: sp()},
		&ast.LetStmt{Name: "v", Value: &ast.FieldAccess{X: ident("p"), Field: "y", Sp: sp()}, Sp: sp()},
	}}
	bin := generate(t, prog)

	// i32.load with alignment 2, offset 4
	want := []byte{wasm.OpI32Load, 0x02, 0x04}
	if !bytes.Contains(bin, want) {
		t.Fatalf("load at offset 4 not found in %x", bin)
	}
}

func TestForInSumLowering(t *testing.T) {
	// let sum = 0; for x in [1,2,3] { sum = sum + x }
	arr := &ast.ArrayLit{Elems: []ast.Expr{intLit(1), intLit(2), intLit(3)}, Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "sum", Value: intLit(0), Sp: sp()},
		&ast.ForInStmt{
			Var:  "x",
			Iter: arr,
			Body: block(&ast.AssignStmt{
				Target: "sum",
				Value:  &ast.InfixExpr{Op: ast.OpAdd, Left: ident("sum"), Right: ident("x"), Sp: sp()},
				Sp:     sp(),
			}),
			Sp: sp(),
		},
	}}
	bin := generate(t, prog)

	// the loop skeleton: block, loop, ..., br_if 1, ..., br 0
	if !bytes.Contains(bin, []byte{wasm.OpBlock, wasm.BlockVoid, wasm.OpLoop, wasm.BlockVoid}) {
		t.Fatal("block/loop pair not found")
	}
	if !bytes.Contains(bin, []byte{wasm.OpBrIf, 0x01}) {
		t.Fatal("exhaustion exit branch not found")
	}
	if !bytes.Contains(bin, []byte{wasm.OpBr, 0x00}) {
		t.Fatal("back edge not found")
	}
	// the probe tag test: i32.load offset 0 then eqz
	if !bytes.Contains(bin, []byte{wasm.OpI32Load, 0x02, 0x00, wasm.OpI32Eqz}) {
		t.Fatal("probe tag check not found")
	}
}

func TestStringLiteralsLandInDataSegments(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "s", Value: strLit("hello"), Sp: sp()},
	}}
	bin := generate(t, prog)

	// length-prefixed payload
	want := append([]byte{5, 0, 0, 0}, []byte("hello")...)
	if !bytes.Contains(bin, want) {
		t.Fatal("length-prefixed string payload not found")
	}
}

func TestLambdaGoesThroughTheTable(t *testing.T) {
	// let f = fn(x) { x + 1 }; let y = f(41)
	lambda := &ast.LambdaExpr{
		Params: []ast.Field{{Name: "x", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()}},
		Body:   &ast.InfixExpr{Op: ast.OpAdd, Left: ident("x"), Right: intLit(1), Sp: sp()},
		Sp:     sp(),
	}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "f", Value: lambda, Sp: sp()},
		&ast.LetStmt{Name: "y", Value: &ast.CallExpr{Callee: ident("f"), Args: []ast.Expr{intLit(41)}, Sp: sp()}, Sp: sp()},
	}}
	bin := generate(t, prog)

	if !bytes.Contains(bin, []byte{wasm.OpCallIndirect}) {
		t.Fatal("call through a function value must be indirect")
	}
}

func TestExternCallIsDirectImportCall(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.ExternBlock{ABI: "env", Decls: []ast.FnDecl{{
			Name: "signal_new",
			Params: []ast.Field{
				{Name: "init", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()},
			},
			Ret: &ast.NamedType{Name: "Int", Sp: sp()},
			Sp:  sp(),
		}}, Sp: sp()},
		&ast.LetStmt{Name: "s", Value: &ast.CallExpr{
			Callee: ident("signal_new"), Args: []ast.Expr{intLit(0)}, Sp: sp(),
		}, Sp: sp()},
	}}
	bin := generate(t, prog)

	// signal_new is import index 4 in the fixed ABI order
	if !bytes.Contains(bin, []byte{wasm.OpI32Const, 0x00, wasm.OpCall, 0x04}) {
		t.Fatalf("direct call to import 4 not found in %x", bin)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	build := func() []byte {
		arr := &ast.ArrayLit{Elems: []ast.Expr{intLit(1), intLit(2)}, Sp: sp()}
		prog := &ast.Program{Stmts: []ast.Stmt{
			&ast.LetStmt{Name: "xs", Value: arr, Sp: sp()},
			&ast.LetStmt{Name: "greeting", Value: strLit("hi"), Sp: sp()},
		}}
		return generate(t, prog)
	}
	a := build()
	b := build()
	if !bytes.Equal(a, b) {
		t.Fatal("identical programs must produce identical binaries")
	}
}

func TestExportsIncludeMainAndMemory(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "x", Value: intLit(1), Sp: sp()},
	}}
	bin := generate(t, prog)

	if !bytes.Contains(bin, []byte("main")) {
		t.Fatal("script programs must export a synthesized main")
	}
	if !bytes.Contains(bin, []byte("memory")) {
		t.Fatal("memory must be exported")
	}
}

func TestComponentIsExported(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.ComponentDef{
			Name: "App",
			Body: intLit(0),
			Sp:   sp(),
		},
	}}
	bin := generate(t, prog)
	if !bytes.Contains(bin, []byte("App")) {
		t.Fatal("components must be exported by name")
	}
}

func TestMatchLowersToCascade(t *testing.T) {
	m := &ast.MatchExpr{
		Scrutinee: intLit(2),
		Arms: []ast.MatchArm{
			{Pat: &ast.LitPattern{Lit: intLit(1), Sp: sp()}, Body: intLit(10), Sp: sp()},
			{Pat: &ast.LitPattern{Lit: intLit(2), Sp: sp()}, Body: intLit(20), Sp: sp()},
			{Pat: &ast.WildcardPattern{Sp: sp()}, Body: intLit(0), Sp: sp()},
		},
		Sp: sp(),
	}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "r", Value: m, Sp: sp()},
	}}
	bin := generate(t, prog)

	// equality test feeding a typed if
	if !bytes.Contains(bin, []byte{wasm.OpI32Eq, wasm.OpIf, byte(wasm.I32)}) {
		t.Fatalf("eq/if cascade not found in %x", bin)
	}
}

func TestGenerateRejectsUntypedTree(t *testing.T) {
	// hand the generator a result with no annotations
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "x", Value: intLit(1), Sp: sp()},
	}}
	if _, err := Generate(prog, &infer.Result{}); err == nil {
		t.Fatal("expected an internal compiler error for a missing annotation")
	}
}
