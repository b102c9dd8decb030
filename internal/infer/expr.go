package infer

import (
	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/types"
)

func (in *inferencer) inferExpr(e ast.Expr, env *types.Env) *types.Type {
	switch x := e.(type) {
	case *ast.IntLit:
		return in.record(e, types.Int)
	case *ast.FloatLit:
		return in.record(e, types.Float)
	case *ast.StringLit:
		return in.record(e, types.String)
	case *ast.BoolLit:
		return in.record(e, types.Bool)

	case *ast.Ident:
		sch, ok := env.Lookup(x.Name)
		if !ok {
			in.errorf(diag.InferUnknownIdentifier, x.Sp, "unknown identifier %s", x.Name)
			return in.record(e, in.fresh())
		}
		return in.record(e, in.instantiate(sch))

	case *ast.PrefixExpr:
		return in.record(e, in.inferPrefix(x, env))

	case *ast.InfixExpr:
		return in.record(e, in.inferInfix(x, env))

	case *ast.CallExpr:
		return in.record(e, in.inferCall(x, env))

	case *ast.ArrayLit:
		elem := in.fresh()
		for _, el := range x.Elems {
			et := in.inferExpr(el, env)
			in.unify(elem, et, el.Span())
		}
		return in.record(e, types.MakeArray(elem))

	case *ast.TupleLit:
		elems := make([]*types.Type, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = in.inferExpr(el, env)
		}
		return in.record(e, types.MakeTuple(elems))

	case *ast.StructLit:
		return in.record(e, in.inferStructLit(x, env))

	case *ast.FieldAccess:
		xt := in.subst.Apply(in.inferExpr(x.X, env))
		if xt.Kind != types.KindStruct {
			in.errorf(diag.InferUnknownField, x.Sp, "cannot access field %s on %s", x.Field, xt)
			return in.record(e, in.fresh())
		}
		i := xt.FieldIndex(x.Field)
		if i < 0 {
			in.errorf(diag.InferUnknownField, x.Sp, "struct %s has no field %s", xt.Name, x.Field)
			return in.record(e, in.fresh())
		}
		return in.record(e, xt.Fields[i].Type)

	case *ast.IndexExpr:
		xt := in.inferExpr(x.X, env)
		it := in.inferExpr(x.Index, env)
		in.unify(types.Int, it, x.Index.Span())
		elem := in.fresh()
		resolved := in.subst.Apply(xt)
		if resolved.Kind != types.KindVar && resolved.Kind != types.KindArray {
			in.errorf(diag.InferNotIndexable, x.Sp, "%s cannot be indexed", resolved)
			return in.record(e, elem)
		}
		in.unify(types.MakeArray(elem), xt, x.X.Span())
		return in.record(e, elem)

	case *ast.MatchExpr:
		return in.record(e, in.inferMatch(x, env))

	case *ast.LambdaExpr:
		params := make([]*types.Type, len(x.Params))
		scope := env.Child()
		for i, p := range x.Params {
			if p.Type != nil {
				params[i] = in.typeFromExpr(p.Type, env)
			} else {
				params[i] = in.fresh()
			}
			scope.Bind(p.Name, types.MonoScheme(params[i]))
		}
		bt := in.inferExpr(x.Body, scope)
		return in.record(e, types.MakeFunc(params, bt))
	}

	in.errorf(diag.InternalError, e.Span(), "unhandled expression form %T", e)
	return in.record(e, in.fresh())
}

func (in *inferencer) inferPrefix(x *ast.PrefixExpr, env *types.Env) *types.Type {
	ot := in.inferExpr(x.X, env)
	switch x.Op {
	case ast.OpNot:
		in.unify(types.Bool, ot, x.X.Span())
		return types.Bool
	case ast.OpNeg:
		resolved := in.subst.Apply(ot)
		switch resolved.Kind {
		case types.KindInt, types.KindFloat:
			return resolved
		case types.KindVar:
			in.numeric[resolved.Var] = true
			return resolved
		default:
			in.errorf(diag.InferInvalidOperand, x.Sp,
				"operator - expects a numeric operand, found %s", resolved)
			return in.fresh()
		}
	}
	in.errorf(diag.InternalError, x.Sp, "unhandled prefix operator %s", x.Op)
	return in.fresh()
}

// inferInfix types a binary operator application. Arithmetic needs numeric
// operands and yields Float when either side is Float. Comparisons unify
// their operands and yield Bool. Logical operators work on Bool.
func (in *inferencer) inferInfix(x *ast.InfixExpr, env *types.Env) *types.Type {
	lt := in.inferExpr(x.Left, env)
	rt := in.inferExpr(x.Right, env)

	switch {
	case x.Op.IsArithmetic():
		la := in.subst.Apply(lt)
		ra := in.subst.Apply(rt)
		if !in.checkNumericOperand(x, la, x.Left) || !in.checkNumericOperand(x, ra, x.Right) {
			return in.fresh()
		}
		switch {
		case la.Kind == types.KindFloat || ra.Kind == types.KindFloat:
			if la.Kind == types.KindVar {
				in.unify(types.Float, la, x.Left.Span())
			}
			if ra.Kind == types.KindVar {
				in.unify(types.Float, ra, x.Right.Span())
			}
			return types.Float
		case la.Kind == types.KindInt || ra.Kind == types.KindInt:
			in.unify(la, ra, x.Sp)
			return types.Int
		default:
			// both are variables
			in.unify(la, ra, x.Sp)
			return la
		}

	case x.Op.IsComparison():
		in.unify(lt, rt, x.Sp)
		return types.Bool

	case x.Op.IsLogical():
		in.unify(types.Bool, lt, x.Left.Span())
		in.unify(types.Bool, rt, x.Right.Span())
		return types.Bool
	}

	in.errorf(diag.InternalError, x.Sp, "unhandled infix operator %s", x.Op)
	return in.fresh()
}

func (in *inferencer) checkNumericOperand(x *ast.InfixExpr, t *types.Type, operand ast.Expr) bool {
	switch t.Kind {
	case types.KindInt, types.KindFloat:
		return true
	case types.KindVar:
		in.numeric[t.Var] = true
		return true
	}
	in.errorf(diag.InferInvalidOperand, operand.Span(),
		"operator %s expects numeric operands, found %s", x.Op, t)
	return false
}

func (in *inferencer) inferCall(x *ast.CallExpr, env *types.Env) *types.Type {
	ct := in.inferExpr(x.Callee, env)
	args := make([]*types.Type, len(x.Args))
	for i, a := range x.Args {
		args[i] = in.inferExpr(a, env)
	}

	resolved := in.subst.Apply(ct)
	switch resolved.Kind {
	case types.KindFunc:
		if len(args) != len(resolved.Params) {
			in.errorf(diag.InferArityMismatch, x.Sp,
				"function takes %d argument(s), but %d were supplied", len(resolved.Params), len(args))
			return in.fresh()
		}
		for i := range args {
			in.unify(resolved.Params[i], args[i], x.Args[i].Span())
		}
		return in.subst.Apply(resolved.Ret)
	case types.KindVar:
		ret := in.fresh()
		in.unify(resolved, types.MakeFunc(args, ret), x.Sp)
		return ret
	}
	in.errorf(diag.InferNotCallable, x.Callee.Span(), "%s is not callable", resolved)
	return in.fresh()
}

func (in *inferencer) inferStructLit(x *ast.StructLit, env *types.Env) *types.Type {
	st, ok := env.LookupStruct(x.Name)
	if !ok {
		in.errorf(diag.InferUnknownStruct, x.Sp, "unknown struct %s", x.Name)
		return in.fresh()
	}

	seen := make(map[string]bool, len(x.Fields))
	for _, f := range x.Fields {
		if seen[f.Name] {
			in.errorf(diag.InferDuplicateField, f.Sp, "field %s is initialized twice", f.Name)
			continue
		}
		seen[f.Name] = true
		i := st.FieldIndex(f.Name)
		if i < 0 {
			in.errorf(diag.InferUnknownField, f.Sp, "struct %s has no field %s", x.Name, f.Name)
			continue
		}
		vt := in.inferExpr(f.Value, env)
		in.unify(st.Fields[i].Type, vt, f.Value.Span())
	}
	missing := 0
	for i := range st.Fields {
		if !seen[st.Fields[i].Name] {
			missing++
		}
	}
	if missing > 0 {
		in.errorf(diag.InferArityMismatch, x.Sp,
			"struct %s expects %d field(s), literal supplies %d", x.Name, len(st.Fields), len(st.Fields)-missing)
	}
	return st
}

func (in *inferencer) inferMatch(x *ast.MatchExpr, env *types.Env) *types.Type {
	st := in.inferExpr(x.Scrutinee, env)
	result := in.fresh()

	for _, arm := range x.Arms {
		scope := env.Child()
		switch p := arm.Pat.(type) {
		case *ast.LitPattern:
			pt := in.inferExpr(p.Lit, scope)
			in.unify(st, pt, p.Sp)
		case *ast.IdentPattern:
			scope.Bind(p.Name, types.MonoScheme(in.subst.Apply(st)))
		case *ast.WildcardPattern:
		}
		bt := in.inferExpr(arm.Body, scope)
		in.unify(result, bt, arm.Body.Span())
	}
	return in.subst.Apply(result)
}
