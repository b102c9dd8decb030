package infer

import (
	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/types"
)

// checkBlock checks the statements of a block in a fresh child scope and
// returns the block's value type: the type of a trailing expression
// statement, Unit otherwise.
func (in *inferencer) checkBlock(b *ast.Block, env *types.Env) *types.Type {
	scope := env.Child()
	result := types.Unit
	for i, st := range b.Stmts {
		in.checkStmt(st, scope)
		if i == len(b.Stmts)-1 {
			if es, ok := st.(*ast.ExprStmt); ok {
				result = in.exprs[es.X]
			}
		}
	}
	return result
}

func (in *inferencer) checkStmt(st ast.Stmt, env *types.Env) {
	switch s := st.(type) {
	case *ast.LetStmt:
		t := in.inferExpr(s.Value, env)
		// Value restriction: only function values are generalized. Anything
		// else stays monomorphic so later usage can still pin down free
		// variables (an empty array literal, say).
		if _, isFn := s.Value.(*ast.LambdaExpr); isFn {
			sch := types.Generalize(env, in.subst, t)
			in.markQuantified(sch)
			env.Bind(s.Name, sch)
		} else {
			env.Bind(s.Name, types.MonoScheme(t))
		}

	case *ast.AssignStmt:
		sch, ok := env.Lookup(s.Target)
		if !ok {
			in.errorf(diag.InferUnknownIdentifier, s.Sp, "unknown identifier %s", s.Target)
			in.inferExpr(s.Value, env)
			return
		}
		vt := in.inferExpr(s.Value, env)
		in.unify(in.instantiate(sch), vt, s.Value.Span())

	case *ast.ReturnStmt:
		if in.retType == nil {
			in.errorf(diag.InferTypeMismatch, s.Sp, "return outside of a function")
			if s.Value != nil {
				in.inferExpr(s.Value, env)
			}
			return
		}
		if s.Value == nil {
			in.unify(in.retType, types.Unit, s.Sp)
			return
		}
		vt := in.inferExpr(s.Value, env)
		in.unify(in.retType, vt, s.Value.Span())

	case *ast.ExprStmt:
		in.inferExpr(s.X, env)

	case *ast.IfStmt:
		ct := in.inferExpr(s.Cond, env)
		in.unify(types.Bool, ct, s.Cond.Span())
		thenT := in.checkBlock(s.Then, env)
		switch el := s.Else.(type) {
		case nil:
		case *ast.Block:
			elseT := in.checkBlock(el, env)
			in.unify(thenT, elseT, el.Sp)
		case *ast.IfStmt:
			in.checkStmt(el, env)
		}

	case *ast.WhileStmt:
		ct := in.inferExpr(s.Cond, env)
		in.unify(types.Bool, ct, s.Cond.Span())
		in.checkBlock(s.Body, env)

	case *ast.ForStmt:
		scope := env.Child()
		if s.Init != nil {
			in.checkStmt(s.Init, scope)
		}
		if s.Cond != nil {
			ct := in.inferExpr(s.Cond, scope)
			in.unify(types.Bool, ct, s.Cond.Span())
		}
		if s.Update != nil {
			in.checkStmt(s.Update, scope)
		}
		in.checkBlock(s.Body, scope)

	case *ast.ForInStmt:
		it := in.inferExpr(s.Iter, env)
		elem := in.fresh()
		resolved := in.subst.Apply(it)
		if resolved.Kind != types.KindVar && resolved.Kind != types.KindArray {
			in.errorf(diag.InferNotIterable, s.Iter.Span(), "%s is not iterable", resolved)
		} else {
			in.unify(types.MakeArray(elem), it, s.Iter.Span())
		}
		scope := env.Child()
		scope.Bind(s.Var, types.MonoScheme(elem))
		in.checkBlock(s.Body, scope)

	case *ast.Block:
		in.checkBlock(s, env)

	case *ast.StructDef, *ast.FnDef, *ast.ComponentDef, *ast.ExternBlock:
		// the parser only produces these at the top level
	}
}
