package infer

import (
	"testing"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/types"
)

var spanCounter uint32

func sp() source.Span {
	spanCounter += 10
	return source.Span{File: 1, Start: spanCounter, End: spanCounter + 5}
}

func intLit(v int64) *ast.IntLit       { return &ast.IntLit{Value: v, Sp: sp()} }
func strLit(v string) *ast.StringLit   { return &ast.StringLit{Value: v, Sp: sp()} }
func boolLit(v bool) *ast.BoolLit      { return &ast.BoolLit{Value: v, Sp: sp()} }
func ident(name string) *ast.Ident     { return &ast.Ident{Name: name, Sp: sp()} }
func block(stmts ...ast.Stmt) *ast.Block {
	return &ast.Block{Stmts: stmts, Sp: sp()}
}

func check(t *testing.T, prog *ast.Program) (*Result, *diag.Bag, bool) {
	t.Helper()
	bag := diag.NewBag(64)
	res, ok := CheckProgram(prog, diag.BagReporter{Bag: bag})
	return res, bag, ok
}

func codesOf(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestLetWithArithmeticInfersInt(t *testing.T) {
	add := &ast.InfixExpr{Op: ast.OpAdd, Left: intLit(1), Right: intLit(2), Sp: sp()}
	use := ident("x")
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "x", Value: add, Sp: sp()},
		&ast.ExprStmt{X: use},
	}}

	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if got := res.ExprTypes[add]; !types.Equal(got, types.Int) {
		t.Errorf("1 + 2 typed as %s, want Int", got)
	}
	if got := res.ExprTypes[use]; !types.Equal(got, types.Int) {
		t.Errorf("x typed as %s, want Int", got)
	}
}

func TestGenericIdentityAtTwoCallSites(t *testing.T) {
	// let id = fn(x) { x }; let a = id(1); let b = id("s")
	lambda := &ast.LambdaExpr{
		Params: []ast.Field{{Name: "x", Sp: sp()}},
		Body:   ident("x"),
		Sp:     sp(),
	}
	callInt := &ast.CallExpr{Callee: ident("id"), Args: []ast.Expr{intLit(1)}, Sp: sp()}
	callStr := &ast.CallExpr{Callee: ident("id"), Args: []ast.Expr{strLit("s")}, Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "id", Value: lambda, Sp: sp()},
		&ast.LetStmt{Name: "a", Value: callInt, Sp: sp()},
		&ast.LetStmt{Name: "b", Value: callStr, Sp: sp()},
	}}

	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if got := res.ExprTypes[callInt]; !types.Equal(got, types.Int) {
		t.Errorf("id(1) typed as %s, want Int", got)
	}
	if got := res.ExprTypes[callStr]; !types.Equal(got, types.String) {
		t.Errorf("id(\"s\") typed as %s, want String", got)
	}
}

func TestPolymorphicLetWithoutCallsIsNotAmbiguous(t *testing.T) {
	// let id = fn(x) { x } -- never called; the quantified variable must not
	// be reported as an ambiguous type
	lambda := &ast.LambdaExpr{
		Params: []ast.Field{{Name: "x", Sp: sp()}},
		Body:   ident("x"),
		Sp:     sp(),
	}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "id", Value: lambda, Sp: sp()},
	}}

	_, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
}

func TestNamedFnGeneralizedAcrossCallSites(t *testing.T) {
	// fn id(x) { return x }; let a = id(1); let b = id("s")
	callInt := &ast.CallExpr{Callee: ident("id"), Args: []ast.Expr{intLit(1)}, Sp: sp()}
	callStr := &ast.CallExpr{Callee: ident("id"), Args: []ast.Expr{strLit("s")}, Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.FnDef{
			Name:   "id",
			Params: []ast.Field{{Name: "x", Sp: sp()}},
			Body:   block(&ast.ReturnStmt{Value: ident("x"), Sp: sp()}),
			Sp:     sp(),
		},
		&ast.LetStmt{Name: "a", Value: callInt, Sp: sp()},
		&ast.LetStmt{Name: "b", Value: callStr, Sp: sp()},
	}}

	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if got := res.ExprTypes[callInt]; !types.Equal(got, types.Int) {
		t.Errorf("id(1) typed as %s, want Int", got)
	}
	if got := res.ExprTypes[callStr]; !types.Equal(got, types.String) {
		t.Errorf("id(\"s\") typed as %s, want String", got)
	}
}

func TestGenericNumericFnDefaultsAndInstantiates(t *testing.T) {
	// fn double(x) { return x + x }; let a = double(2.5); let b = double(2)
	double := &ast.FnDef{
		Name:   "double",
		Params: []ast.Field{{Name: "x", Sp: sp()}},
		Body: block(&ast.ReturnStmt{
			Value: &ast.InfixExpr{Op: ast.OpAdd, Left: ident("x"), Right: ident("x"), Sp: sp()},
			Sp:    sp(),
		}),
		Sp: sp(),
	}
	callFloat := &ast.CallExpr{
		Callee: ident("double"),
		Args:   []ast.Expr{&ast.FloatLit{Value: 2.5, Sp: sp()}},
		Sp:     sp(),
	}
	callInt := &ast.CallExpr{Callee: ident("double"), Args: []ast.Expr{intLit(2)}, Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		double,
		&ast.LetStmt{Name: "a", Value: callFloat, Sp: sp()},
		&ast.LetStmt{Name: "b", Value: callInt, Sp: sp()},
	}}

	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if got := res.ExprTypes[callFloat]; !types.Equal(got, types.Float) {
		t.Errorf("double(2.5) typed as %s, want Float", got)
	}
	if got := res.ExprTypes[callInt]; !types.Equal(got, types.Int) {
		t.Errorf("double(2) typed as %s, want Int", got)
	}
	want := types.MakeFunc([]*types.Type{types.Int}, types.Int)
	if got := res.Funcs["double"]; !types.Equal(got, want) {
		t.Errorf("uninstantiated signature is %s, want %s", got, want)
	}
}

func TestCapturedParamIsNotGeneralized(t *testing.T) {
	// fn outer(a) {
	//     a(1);
	//     let g = fn(z: Int) { a };
	//     let x = (g(0))(1);
	//     x && true;
	//     let y = a(1);
	//     y + 1;
	// }
	// Returning a from g must keep a's type tied to the parameter, so the
	// two results of a(1) are the same type and x && true pins it to Bool,
	// making y + 1 an error.
	g := &ast.LambdaExpr{
		Params: []ast.Field{{Name: "z", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()}},
		Body:   ident("a"),
		Sp:     sp(),
	}
	inner := &ast.CallExpr{Callee: ident("g"), Args: []ast.Expr{intLit(0)}, Sp: sp()}
	outer := &ast.CallExpr{Callee: inner, Args: []ast.Expr{intLit(1)}, Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.FnDef{
			Name:   "outer",
			Params: []ast.Field{{Name: "a", Sp: sp()}},
			Body: block(
				&ast.ExprStmt{X: &ast.CallExpr{Callee: ident("a"), Args: []ast.Expr{intLit(1)}, Sp: sp()}},
				&ast.LetStmt{Name: "g", Value: g, Sp: sp()},
				&ast.LetStmt{Name: "x", Value: outer, Sp: sp()},
				&ast.ExprStmt{X: &ast.InfixExpr{Op: ast.OpAnd, Left: ident("x"), Right: boolLit(true), Sp: sp()}},
				&ast.LetStmt{Name: "y", Value: &ast.CallExpr{Callee: ident("a"), Args: []ast.Expr{intLit(1)}, Sp: sp()}, Sp: sp()},
				&ast.ExprStmt{X: &ast.InfixExpr{Op: ast.OpAdd, Left: ident("y"), Right: intLit(1), Sp: sp()}},
			),
			Sp: sp(),
		},
	}}

	_, bag, ok := check(t, prog)
	if ok {
		t.Fatal("a Bool result must not feed arithmetic")
	}
	if !hasCode(bag, diag.InferInvalidOperand) {
		t.Fatalf("want InvalidOperand, got %v", codesOf(bag))
	}
}

func TestBranchMismatchReportsBothTypes(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.IfStmt{
			Cond: boolLit(true),
			Then: block(&ast.ExprStmt{X: intLit(1)}),
			Else: block(&ast.ExprStmt{X: strLit("x")}),
			Sp:   sp(),
		},
	}}

	_, bag, ok := check(t, prog)
	if ok {
		t.Fatal("expected a branch type mismatch")
	}
	if !hasCode(bag, diag.InferTypeMismatch) {
		t.Fatalf("want TypeMismatch, got %v", codesOf(bag))
	}
	msg := bag.Items()[0].Message
	if msg == "" {
		t.Fatal("diagnostic message must name both types")
	}
}

func TestOccursCheckTerminates(t *testing.T) {
	// let f = fn(x) { x(x) }
	selfApply := &ast.CallExpr{Callee: ident("x"), Args: []ast.Expr{ident("x")}, Sp: sp()}
	lambda := &ast.LambdaExpr{
		Params: []ast.Field{{Name: "x", Sp: sp()}},
		Body:   selfApply,
		Sp:     sp(),
	}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "f", Value: lambda, Sp: sp()},
	}}

	_, bag, ok := check(t, prog)
	if ok {
		t.Fatal("self-application must fail the occurs check")
	}
	if !hasCode(bag, diag.InferInfiniteType) {
		t.Fatalf("want InfiniteType, got %v", codesOf(bag))
	}
}

func TestEmptyArrayWithoutUsageIsAmbiguous(t *testing.T) {
	empty := &ast.ArrayLit{Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "xs", Value: empty, Sp: sp()},
		&ast.ExprStmt{X: ident("xs")},
	}}

	_, bag, ok := check(t, prog)
	if ok {
		t.Fatal("unconstrained empty array must be ambiguous")
	}
	if !hasCode(bag, diag.InferAmbiguousType) {
		t.Fatalf("want AmbiguousType, got %v", codesOf(bag))
	}
}

func TestEmptyArrayResolvedByLaterUsage(t *testing.T) {
	// fn take(xs: [Int]) {}; let e = []; take(e)
	empty := &ast.ArrayLit{Sp: sp()}
	call := &ast.CallExpr{Callee: ident("take"), Args: []ast.Expr{ident("e")}, Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.FnDef{
			Name: "take",
			Params: []ast.Field{{
				Name: "xs",
				Type: &ast.ArrayType{Elem: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()},
				Sp:   sp(),
			}},
			Body: block(),
			Sp:   sp(),
		},
		&ast.LetStmt{Name: "e", Value: empty, Sp: sp()},
		&ast.ExprStmt{X: call},
	}}

	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if got := res.ExprTypes[empty]; !types.Equal(got, types.MakeArray(types.Int)) {
		t.Errorf("empty array typed as %s, want [Int]", got)
	}
}

func TestUnknownIdentifier(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: ident("nope")},
	}}
	_, bag, ok := check(t, prog)
	if ok || !hasCode(bag, diag.InferUnknownIdentifier) {
		t.Fatalf("want UnknownIdentifier, got %v", codesOf(bag))
	}
}

func TestCallArityMismatch(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.FnDef{
			Name:   "f",
			Params: []ast.Field{{Name: "a", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()}},
			Body:   block(),
			Sp:     sp(),
		},
		&ast.ExprStmt{X: &ast.CallExpr{
			Callee: ident("f"),
			Args:   []ast.Expr{intLit(1), intLit(2)},
			Sp:     sp(),
		}},
	}}
	_, bag, ok := check(t, prog)
	if ok || !hasCode(bag, diag.InferArityMismatch) {
		t.Fatalf("want ArityMismatch, got %v", codesOf(bag))
	}
}

func TestStructLiteralFieldSet(t *testing.T) {
	pointDef := &ast.StructDef{
		Name: "Point",
		Fields: []ast.Field{
			{Name: "x", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()},
			{Name: "y", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()},
		},
		Sp: sp(),
	}

	t.Run("exact set is accepted", func(t *testing.T) {
		lit := &ast.StructLit{Name: "Point", Fields: []ast.FieldInit{
			{Name: "x", Value: intLit(1), Sp: sp()},
			{Name: "y", Value: intLit(2), Sp: sp()},
		}, Sp: sp()}
		prog := &ast.Program{Stmts: []ast.Stmt{
			pointDef,
			&ast.LetStmt{Name: "p", Value: lit, Sp: sp()},
		}}
		res, bag, ok := check(t, prog)
		if !ok {
			t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
		}
		if got := res.ExprTypes[lit]; got.Kind != types.KindStruct || got.Name != "Point" {
			t.Errorf("literal typed as %s, want Point", got)
		}
	})

	t.Run("missing field is an arity error", func(t *testing.T) {
		lit := &ast.StructLit{Name: "Point", Fields: []ast.FieldInit{
			{Name: "x", Value: intLit(1), Sp: sp()},
		}, Sp: sp()}
		prog := &ast.Program{Stmts: []ast.Stmt{
			pointDef,
			&ast.LetStmt{Name: "p", Value: lit, Sp: sp()},
		}}
		_, bag, ok := check(t, prog)
		if ok || !hasCode(bag, diag.InferArityMismatch) {
			t.Fatalf("want ArityMismatch, got %v", codesOf(bag))
		}
	})

	t.Run("field value type must match", func(t *testing.T) {
		lit := &ast.StructLit{Name: "Point", Fields: []ast.FieldInit{
			{Name: "x", Value: strLit("no"), Sp: sp()},
			{Name: "y", Value: intLit(2), Sp: sp()},
		}, Sp: sp()}
		prog := &ast.Program{Stmts: []ast.Stmt{
			pointDef,
			&ast.LetStmt{Name: "p", Value: lit, Sp: sp()},
		}}
		_, bag, ok := check(t, prog)
		if ok || !hasCode(bag, diag.InferTypeMismatch) {
			t.Fatalf("want TypeMismatch, got %v", codesOf(bag))
		}
	})
}

func TestForInRequiresArray(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.ForInStmt{
			Var:  "x",
			Iter: intLit(5),
			Body: block(),
			Sp:   sp(),
		},
	}}
	_, bag, ok := check(t, prog)
	if ok || !hasCode(bag, diag.InferNotIterable) {
		t.Fatalf("want NotIterable, got %v", codesOf(bag))
	}
}

func TestForInBindsElementType(t *testing.T) {
	use := ident("x")
	arr := &ast.ArrayLit{Elems: []ast.Expr{intLit(1), intLit(2), intLit(3)}, Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.ForInStmt{
			Var:  "x",
			Iter: arr,
			Body: block(&ast.ExprStmt{X: use}),
			Sp:   sp(),
		},
	}}
	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if got := res.ExprTypes[use]; !types.Equal(got, types.Int) {
		t.Errorf("loop variable typed as %s, want Int", got)
	}
}

func TestBatchingReportsIndependentDeclarations(t *testing.T) {
	// two broken functions must both be diagnosed
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.FnDef{
			Name: "a", Body: block(&ast.ExprStmt{X: ident("missing1")}), Sp: sp(),
		},
		&ast.FnDef{
			Name: "b", Body: block(&ast.ExprStmt{X: ident("missing2")}), Sp: sp(),
		},
	}}
	_, bag, ok := check(t, prog)
	if ok {
		t.Fatal("expected diagnostics")
	}
	count := 0
	for _, d := range bag.Items() {
		if d.Code == diag.InferUnknownIdentifier {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("want 2 UnknownIdentifier diagnostics, got %d (%v)", count, codesOf(bag))
	}
}

func TestExternSignatureIsCallable(t *testing.T) {
	call := &ast.CallExpr{
		Callee: ident("signal_new"),
		Args:   []ast.Expr{intLit(0)},
		Sp:     sp(),
	}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.ExternBlock{ABI: "env", Decls: []ast.FnDecl{{
			Name:   "signal_new",
			Params: []ast.Field{{Name: "init", Type: &ast.NamedType{Name: "Int", Sp: sp()}, Sp: sp()}},
			Ret:    &ast.NamedType{Name: "Int", Sp: sp()},
			Sp:     sp(),
		}}, Sp: sp()},
		&ast.LetStmt{Name: "s", Value: call, Sp: sp()},
	}}
	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if res.Externs["signal_new"] != "env" {
		t.Fatal("extern must be recorded with its ABI namespace")
	}
	if got := res.ExprTypes[call]; !types.Equal(got, types.Int) {
		t.Errorf("signal_new(0) typed as %s, want Int", got)
	}
}

func TestMatchArmsUnify(t *testing.T) {
	m := &ast.MatchExpr{
		Scrutinee: intLit(2),
		Arms: []ast.MatchArm{
			{Pat: &ast.LitPattern{Lit: intLit(1), Sp: sp()}, Body: strLit("one"), Sp: sp()},
			{Pat: &ast.WildcardPattern{Sp: sp()}, Body: strLit("many"), Sp: sp()},
		},
		Sp: sp(),
	}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "w", Value: m, Sp: sp()},
	}}
	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if got := res.ExprTypes[m]; !types.Equal(got, types.String) {
		t.Errorf("match typed as %s, want String", got)
	}
}

func TestMatchArmMismatch(t *testing.T) {
	m := &ast.MatchExpr{
		Scrutinee: intLit(2),
		Arms: []ast.MatchArm{
			{Pat: &ast.LitPattern{Lit: intLit(1), Sp: sp()}, Body: strLit("one"), Sp: sp()},
			{Pat: &ast.WildcardPattern{Sp: sp()}, Body: intLit(0), Sp: sp()},
		},
		Sp: sp(),
	}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "w", Value: m, Sp: sp()},
	}}
	_, bag, ok := check(t, prog)
	if ok || !hasCode(bag, diag.InferTypeMismatch) {
		t.Fatalf("want TypeMismatch, got %v", codesOf(bag))
	}
}

func TestMixedArithmeticWidensToFloat(t *testing.T) {
	mixed := &ast.InfixExpr{
		Op:    ast.OpAdd,
		Left:  intLit(1),
		Right: &ast.FloatLit{Value: 2.5, Sp: sp()},
		Sp:    sp(),
	}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "x", Value: mixed, Sp: sp()},
	}}
	res, bag, ok := check(t, prog)
	if !ok {
		t.Fatalf("unexpected diagnostics: %v", codesOf(bag))
	}
	if got := res.ExprTypes[mixed]; !types.Equal(got, types.Float) {
		t.Errorf("1 + 2.5 typed as %s, want Float", got)
	}
}

func TestArithmeticRejectsStrings(t *testing.T) {
	bad := &ast.InfixExpr{Op: ast.OpMul, Left: strLit("a"), Right: intLit(2), Sp: sp()}
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.ExprStmt{X: bad},
	}}
	_, bag, ok := check(t, prog)
	if ok || !hasCode(bag, diag.InferInvalidOperand) {
		t.Fatalf("want InvalidOperand, got %v", codesOf(bag))
	}
}

func TestAnnotatedReturnChecked(t *testing.T) {
	prog := &ast.Program{Stmts: []ast.Stmt{
		&ast.FnDef{
			Name: "f",
			Ret:  &ast.NamedType{Name: "Int", Sp: sp()},
			Body: block(&ast.ReturnStmt{Value: strLit("no"), Sp: sp()}),
			Sp:   sp(),
		},
	}}
	_, bag, ok := check(t, prog)
	if ok || !hasCode(bag, diag.InferTypeMismatch) {
		t.Fatalf("want TypeMismatch, got %v", codesOf(bag))
	}
}
