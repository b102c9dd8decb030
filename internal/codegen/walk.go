package codegen

import (
	"raven/internal/ast"
)

// walkExprs visits every expression in the program depth-first, lambda
// bodies included, in a deterministic source order.
func walkExprs(prog *ast.Program, f func(ast.Expr)) {
	for _, st := range prog.Stmts {
		walkStmtExprs(st, f)
	}
}

func walkStmtExprs(st ast.Stmt, f func(ast.Expr)) {
	switch s := st.(type) {
	case *ast.LetStmt:
		walkExpr(s.Value, f)
	case *ast.AssignStmt:
		walkExpr(s.Value, f)
	case *ast.ReturnStmt:
		if s.Value != nil {
			walkExpr(s.Value, f)
		}
	case *ast.ExprStmt:
		walkExpr(s.X, f)
	case *ast.IfStmt:
		walkExpr(s.Cond, f)
		walkBlockExprs(s.Then, f)
		if s.Else != nil {
			walkStmtExprs(s.Else, f)
		}
	case *ast.WhileStmt:
		walkExpr(s.Cond, f)
		walkBlockExprs(s.Body, f)
	case *ast.ForStmt:
		if s.Init != nil {
			walkStmtExprs(s.Init, f)
		}
		if s.Cond != nil {
			walkExpr(s.Cond, f)
		}
		if s.Update != nil {
			walkStmtExprs(s.Update, f)
		}
		walkBlockExprs(s.Body, f)
	case *ast.ForInStmt:
		walkExpr(s.Iter, f)
		walkBlockExprs(s.Body, f)
	case *ast.FnDef:
		walkBlockExprs(s.Body, f)
	case *ast.ComponentDef:
		walkExpr(s.Body, f)
	case *ast.Block:
		walkBlockExprs(s, f)
	}
}

func walkBlockExprs(b *ast.Block, f func(ast.Expr)) {
	if b == nil {
		return
	}
	for _, st := range b.Stmts {
		walkStmtExprs(st, f)
	}
}

func walkExpr(e ast.Expr, f func(ast.Expr)) {
	if e == nil {
		return
	}
	f(e)
	switch x := e.(type) {
	case *ast.PrefixExpr:
		walkExpr(x.X, f)
	case *ast.InfixExpr:
		walkExpr(x.Left, f)
		walkExpr(x.Right, f)
	case *ast.CallExpr:
		walkExpr(x.Callee, f)
		for _, a := range x.Args {
			walkExpr(a, f)
		}
	case *ast.ArrayLit:
		for _, el := range x.Elems {
			walkExpr(el, f)
		}
	case *ast.TupleLit:
		for _, el := range x.Elems {
			walkExpr(el, f)
		}
	case *ast.StructLit:
		for _, fi := range x.Fields {
			walkExpr(fi.Value, f)
		}
	case *ast.FieldAccess:
		walkExpr(x.X, f)
	case *ast.IndexExpr:
		walkExpr(x.X, f)
		walkExpr(x.Index, f)
	case *ast.MatchExpr:
		walkExpr(x.Scrutinee, f)
		for _, arm := range x.Arms {
			if lp, ok := arm.Pat.(*ast.LitPattern); ok {
				walkExpr(lp.Lit, f)
			}
			walkExpr(arm.Body, f)
		}
	case *ast.LambdaExpr:
		walkExpr(x.Body, f)
	}
}

// collectLambdas returns every lambda in the program in traversal order, so
// their function and table indices only depend on the source.
func collectLambdas(prog *ast.Program) []*ast.LambdaExpr {
	var out []*ast.LambdaExpr
	walkExprs(prog, func(e ast.Expr) {
		if l, ok := e.(*ast.LambdaExpr); ok {
			out = append(out, l)
		}
	})
	return out
}
