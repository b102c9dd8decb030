package types

import (
	"sort"
	"strings"
)

// Scheme is a possibly-polymorphic type: a body quantified over the listed
// variables. A monomorphic binding has no quantified variables.
type Scheme struct {
	Vars []VarID
	Body *Type
}

// MonoScheme wraps a type with no quantification.
func MonoScheme(t *Type) Scheme {
	return Scheme{Body: t}
}

// Generalize quantifies every variable free in t but not free in env. Both
// t and the env bindings are resolved through sub first, so a variable that
// the substitution ties to a monomorphic binding stays unquantified.
func Generalize(env *Env, sub Subst, t *Type) Scheme {
	t = sub.Apply(t)
	free := make(map[VarID]bool)
	t.FreeVars(free)
	envFree := env.FreeVars(sub)
	var vars []VarID
	for id := range free {
		if !envFree[id] {
			vars = append(vars, id)
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	return Scheme{Vars: vars, Body: t}
}

func (s Scheme) String() string {
	if len(s.Vars) == 0 {
		return s.Body.String()
	}
	var sb strings.Builder
	sb.WriteString("forall")
	for _, v := range s.Vars {
		sb.WriteByte(' ')
		sb.WriteString(MakeVar(v).String())
	}
	sb.WriteString(". ")
	sb.WriteString(s.Body.String())
	return sb.String()
}

// Env is a lexically scoped symbol table mapping names to schemes and struct
// names to their declared types. A child env reads through to its parent.
type Env struct {
	parent  *Env
	vars    map[string]Scheme
	structs map[string]*Type
}

// NewEnv returns a fresh top-level environment.
func NewEnv() *Env {
	return &Env{
		vars:    make(map[string]Scheme),
		structs: make(map[string]*Type),
	}
}

// Child opens a nested scope.
func (e *Env) Child() *Env {
	return &Env{
		parent:  e,
		vars:    make(map[string]Scheme),
		structs: make(map[string]*Type),
	}
}

// Bind records a name in the current scope, shadowing outer bindings.
func (e *Env) Bind(name string, s Scheme) {
	e.vars[name] = s
}

// Unbind removes a name from the current scope only; bindings in outer
// scopes are untouched and become visible again.
func (e *Env) Unbind(name string) {
	delete(e.vars, name)
}

// Lookup resolves a name through the scope chain.
func (e *Env) Lookup(name string) (Scheme, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if s, ok := cur.vars[name]; ok {
			return s, true
		}
	}
	return Scheme{}, false
}

// BindStruct records a struct declaration. Returns false when the name is
// already taken in the current scope.
func (e *Env) BindStruct(name string, t *Type) bool {
	if _, ok := e.structs[name]; ok {
		return false
	}
	e.structs[name] = t
	return true
}

// LookupStruct resolves a struct name through the scope chain.
func (e *Env) LookupStruct(name string) (*Type, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if t, ok := cur.structs[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// FreeVars collects the type variables free in any binding reachable from
// this scope. Bodies are resolved through sub before their variables are
// collected, so variables reachable only through the substitution count as
// free in the env.
func (e *Env) FreeVars(sub Subst) map[VarID]bool {
	acc := make(map[VarID]bool)
	for cur := e; cur != nil; cur = cur.parent {
		for _, s := range cur.vars {
			bound := make(map[VarID]bool, len(s.Vars))
			for _, v := range s.Vars {
				bound[v] = true
			}
			free := make(map[VarID]bool)
			sub.Apply(s.Body).FreeVars(free)
			for id := range free {
				if !bound[id] {
					acc[id] = true
				}
			}
		}
	}
	return acc
}
