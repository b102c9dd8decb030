package infer

import (
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/types"
)

// unify makes a and b equal under the substitution, reporting a diagnostic
// at sp on failure. Returns false when the constraint could not be solved;
// there is no backtracking.
func (in *inferencer) unify(a, b *types.Type, sp source.Span) bool {
	a = in.subst.Apply(a)
	b = in.subst.Apply(b)

	if a.Kind == types.KindVar {
		return in.bindVar(a.Var, b, sp)
	}
	if b.Kind == types.KindVar {
		return in.bindVar(b.Var, a, sp)
	}
	if a.Kind != b.Kind {
		return in.mismatch(a, b, sp)
	}

	switch a.Kind {
	case types.KindInt, types.KindFloat, types.KindBool, types.KindString, types.KindUnit:
		return true
	case types.KindArray, types.KindOption:
		return in.unify(a.Elem, b.Elem, sp)
	case types.KindFunc:
		if len(a.Params) != len(b.Params) {
			in.errorf(diag.InferArityMismatch, sp,
				"function takes %d argument(s), but %d were supplied", len(a.Params), len(b.Params))
			return false
		}
		ok := true
		for i := range a.Params {
			if !in.unify(a.Params[i], b.Params[i], sp) {
				ok = false
			}
		}
		return in.unify(a.Ret, b.Ret, sp) && ok
	case types.KindTuple:
		if len(a.Elems) != len(b.Elems) {
			return in.mismatch(a, b, sp)
		}
		ok := true
		for i := range a.Elems {
			if !in.unify(a.Elems[i], b.Elems[i], sp) {
				ok = false
			}
		}
		return ok
	case types.KindStruct:
		if a.Name != b.Name {
			return in.mismatch(a, b, sp)
		}
		return true
	}
	return in.mismatch(a, b, sp)
}

// bindVar records id -> t after the occurs check. Numeric variables only
// accept Int, Float, or another variable, which inherits the numeric
// constraint.
func (in *inferencer) bindVar(id types.VarID, t *types.Type, sp source.Span) bool {
	if t.Kind == types.KindVar && t.Var == id {
		return true
	}
	if t.Contains(id) {
		in.errorf(diag.InferInfiniteType, sp,
			"infinite type: t%d occurs inside %s", id, t)
		return false
	}
	if in.numeric[id] {
		switch t.Kind {
		case types.KindInt, types.KindFloat:
		case types.KindVar:
			in.numeric[t.Var] = true
		default:
			in.errorf(diag.InferTypeMismatch, sp,
				"type mismatch: expected Int or Float, found %s", t)
			return false
		}
	}
	in.subst.Bind(id, t)
	return true
}

func (in *inferencer) mismatch(expected, found *types.Type, sp source.Span) bool {
	in.errorf(diag.InferTypeMismatch, sp,
		"type mismatch: expected %s, found %s", expected, found)
	return false
}
