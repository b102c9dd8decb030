package types

// Subst maps type variables to types. Bindings may point at other variables;
// Apply chases chains until a non-variable or unbound variable is reached, so
// applying a substitution twice yields the same result as applying it once.
type Subst map[VarID]*Type

// NewSubst returns an empty substitution.
func NewSubst() Subst {
	return make(Subst)
}

// Bind records var id -> t. The caller is responsible for the occurs check.
func (s Subst) Bind(id VarID, t *Type) {
	s[id] = t
}

// Lookup resolves a single variable through binding chains. Returns the
// variable itself when unbound.
func (s Subst) Lookup(id VarID) *Type {
	t, ok := s[id]
	if !ok {
		return MakeVar(id)
	}
	for t.Kind == KindVar {
		next, ok := s[t.Var]
		if !ok {
			return t
		}
		t = next
	}
	return t
}

// Apply rewrites every bound variable in t to its resolved binding. Unbound
// variables survive unchanged. The input is never mutated.
func (s Subst) Apply(t *Type) *Type {
	if t == nil || len(s) == 0 {
		return t
	}
	switch t.Kind {
	case KindInt, KindFloat, KindBool, KindString, KindUnit:
		return t
	case KindVar:
		r := s.Lookup(t.Var)
		if r.Kind == KindVar {
			return r
		}
		return s.Apply(r)
	case KindArray:
		elem := s.Apply(t.Elem)
		if elem == t.Elem {
			return t
		}
		return MakeArray(elem)
	case KindOption:
		elem := s.Apply(t.Elem)
		if elem == t.Elem {
			return t
		}
		return MakeOption(elem)
	case KindFunc:
		params, pchanged := s.applyAll(t.Params)
		ret := s.Apply(t.Ret)
		if !pchanged && ret == t.Ret {
			return t
		}
		return MakeFunc(params, ret)
	case KindTuple:
		elems, changed := s.applyAll(t.Elems)
		if !changed {
			return t
		}
		return MakeTuple(elems)
	case KindStruct:
		changed := false
		fields := make([]StructField, len(t.Fields))
		for i, f := range t.Fields {
			ft := s.Apply(f.Type)
			if ft != f.Type {
				changed = true
			}
			fields[i] = StructField{Name: f.Name, Type: ft}
		}
		if !changed {
			return t
		}
		return MakeStruct(t.Name, fields)
	}
	return t
}

func (s Subst) applyAll(ts []*Type) ([]*Type, bool) {
	changed := false
	out := make([]*Type, len(ts))
	for i, t := range ts {
		out[i] = s.Apply(t)
		if out[i] != t {
			changed = true
		}
	}
	return out, changed
}
