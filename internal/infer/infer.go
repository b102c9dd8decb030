// Package infer implements type inference over the untyped syntax tree:
// unification with occurs check, let-polymorphism through schemes, and a
// final resolution pass that leaves every expression with a concrete type.
//
// Top-level declarations are checked independently so one broken function
// does not hide diagnostics in its siblings. The substitution, the fresh
// variable counter, and all annotations are local to a single CheckProgram
// call.
package infer

import (
	"fmt"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/types"
)

// Result carries the typed view of a program into the code generator.
type Result struct {
	// ExprTypes annotates every expression node with its fully resolved type.
	ExprTypes map[ast.Expr]*types.Type
	// Structs maps struct names to their declared types.
	Structs map[string]*types.Type
	// Funcs maps top-level function, component, and extern names to their
	// resolved signatures.
	Funcs map[string]*types.Type
	// Externs lists the names declared in extern blocks, keyed to their ABI
	// namespace.
	Externs map[string]string
	// Components lists component names in declaration order.
	Components []string
}

// CheckProgram infers types for the whole program. It reports diagnostics
// through r and returns ok=false when any error was found; the result is
// only meaningful when ok is true.
func CheckProgram(prog *ast.Program, r diag.Reporter) (*Result, bool) {
	in := &inferencer{
		reporter:   r,
		subst:      types.NewSubst(),
		numeric:    make(map[types.VarID]bool),
		quantified: make(map[types.VarID]bool),
		exprs:      make(map[ast.Expr]*types.Type),
		res: &Result{
			ExprTypes: make(map[ast.Expr]*types.Type),
			Structs:   make(map[string]*types.Type),
			Funcs:     make(map[string]*types.Type),
			Externs:   make(map[string]string),
		},
	}
	env := types.NewEnv()

	in.declareTopLevel(prog, env)
	for _, st := range prog.Stmts {
		in.checkTopLevel(st, env)
	}
	in.finalize(env)

	return in.res, in.errs == 0
}

type inferencer struct {
	reporter diag.Reporter
	subst    types.Subst
	next     types.VarID
	numeric  map[types.VarID]bool
	// quantified marks variables a scheme generalized over. They stay
	// deliberately unbound in the substitution, so the ambiguity check in
	// finalize must not report them.
	quantified map[types.VarID]bool
	exprs      map[ast.Expr]*types.Type
	res        *Result
	errs       int

	// current function return type; nil at top level
	retType *types.Type
}

func (in *inferencer) fresh() *types.Type {
	v := types.MakeVar(in.next)
	in.next++
	return v
}

func (in *inferencer) freshNumeric() *types.Type {
	v := in.fresh()
	in.numeric[v.Var] = true
	return v
}

func (in *inferencer) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	in.errs++
	diag.ReportError(in.reporter, code, sp, fmt.Sprintf(format, args...))
}

// record annotates an expression node and returns the type for chaining.
func (in *inferencer) record(e ast.Expr, t *types.Type) *types.Type {
	in.exprs[e] = t
	return t
}

// declareTopLevel binds struct types, function signatures, extern imports,
// and component signatures before any body is checked, so declarations can
// reference each other in any order.
func (in *inferencer) declareTopLevel(prog *ast.Program, env *types.Env) {
	for _, st := range prog.Stmts {
		sd, ok := st.(*ast.StructDef)
		if !ok {
			continue
		}
		fields := make([]types.StructField, 0, len(sd.Fields))
		for _, f := range sd.Fields {
			fields = append(fields, types.StructField{
				Name: f.Name,
				Type: in.typeFromExpr(f.Type, env),
			})
		}
		t := types.MakeStruct(sd.Name, fields)
		if !env.BindStruct(sd.Name, t) {
			in.errorf(diag.InferUnknownStruct, sd.Sp, "struct %s is already declared", sd.Name)
			continue
		}
		in.res.Structs[sd.Name] = t
	}

	for _, st := range prog.Stmts {
		switch d := st.(type) {
		case *ast.FnDef:
			sig := in.signature(d.Params, d.Ret, env)
			env.Bind(d.Name, types.MonoScheme(sig))
			in.res.Funcs[d.Name] = sig
		case *ast.ComponentDef:
			sig := in.signature(d.Params, nil, env)
			env.Bind(d.Name, types.MonoScheme(sig))
			in.res.Funcs[d.Name] = sig
			in.res.Components = append(in.res.Components, d.Name)
		case *ast.ExternBlock:
			for _, decl := range d.Decls {
				sig := in.signature(decl.Params, decl.Ret, env)
				env.Bind(decl.Name, types.MonoScheme(sig))
				in.res.Funcs[decl.Name] = sig
				in.res.Externs[decl.Name] = d.ABI
			}
		}
	}
}

// signature builds a Func type from parameter annotations. Unannotated
// parameters and a missing return annotation get fresh variables so the body
// can pin them down.
func (in *inferencer) signature(params []ast.Field, ret ast.TypeExpr, env *types.Env) *types.Type {
	pts := make([]*types.Type, len(params))
	for i, p := range params {
		if p.Type != nil {
			pts[i] = in.typeFromExpr(p.Type, env)
		} else {
			pts[i] = in.fresh()
		}
	}
	var rt *types.Type
	if ret != nil {
		rt = in.typeFromExpr(ret, env)
	} else {
		rt = in.fresh()
	}
	return types.MakeFunc(pts, rt)
}

func (in *inferencer) checkTopLevel(st ast.Stmt, env *types.Env) {
	switch d := st.(type) {
	case *ast.StructDef, *ast.ExternBlock:
		// handled in declareTopLevel
	case *ast.FnDef:
		in.checkFnBody(d.Name, d.Params, d.Body, env)
	case *ast.ComponentDef:
		sig := in.res.Funcs[d.Name]
		scope := env.Child()
		for i, p := range d.Params {
			scope.Bind(p.Name, types.MonoScheme(sig.Params[i]))
		}
		bt := in.inferExpr(d.Body, scope)
		in.unify(sig.Ret, bt, d.Body.Span())
	default:
		// script-level statement
		in.checkStmt(st, env)
	}
}

func (in *inferencer) checkFnBody(name string, params []ast.Field, body *ast.Block, env *types.Env) {
	sig := in.res.Funcs[name]
	scope := env.Child()
	for i, p := range params {
		scope.Bind(p.Name, types.MonoScheme(sig.Params[i]))
	}

	savedRet := in.retType
	in.retType = sig.Ret
	in.checkBlock(body, scope)
	in.retType = savedRet

	if !hasReturn(body) {
		in.unify(sig.Ret, types.Unit, body.Sp)
	}

	// Re-bind with quantified free variables so each call site gets its own
	// instantiation. The function's own monomorphic binding is removed first
	// or its signature variables would count as free in the env.
	env.Unbind(name)
	sch := types.Generalize(env, in.subst, sig)
	in.markQuantified(sch)
	env.Bind(name, sch)
}

func hasReturn(b *ast.Block) bool {
	for _, st := range b.Stmts {
		if stmtHasReturn(st) {
			return true
		}
	}
	return false
}

func stmtHasReturn(st ast.Stmt) bool {
	switch s := st.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.Block:
		return hasReturn(s)
	case *ast.IfStmt:
		if hasReturn(s.Then) {
			return true
		}
		return s.Else != nil && stmtHasReturn(s.Else)
	case *ast.WhileStmt:
		return hasReturn(s.Body)
	case *ast.ForStmt:
		return hasReturn(s.Body)
	case *ast.ForInStmt:
		return hasReturn(s.Body)
	}
	return false
}

// markQuantified records a scheme's quantified variables so finalize knows
// they are polymorphic, not ambiguous.
func (in *inferencer) markQuantified(s types.Scheme) {
	for _, v := range s.Vars {
		in.quantified[v] = true
	}
}

// instantiate replaces every quantified variable of a scheme with a fresh
// one, keeping unrelated call sites independent. A numeric quantified
// variable produces a numeric copy so the Int default survives
// instantiation.
func (in *inferencer) instantiate(s types.Scheme) *types.Type {
	if len(s.Vars) == 0 {
		return s.Body
	}
	sub := types.NewSubst()
	for _, v := range s.Vars {
		f := in.fresh()
		if in.numeric[v] {
			in.numeric[f.Var] = true
		}
		sub.Bind(v, f)
	}
	return sub.Apply(s.Body)
}

// typeFromExpr converts a syntactic annotation to a semantic type.
func (in *inferencer) typeFromExpr(te ast.TypeExpr, env *types.Env) *types.Type {
	switch t := te.(type) {
	case *ast.NamedType:
		switch t.Name {
		case "Int":
			return types.Int
		case "Float":
			return types.Float
		case "Bool":
			return types.Bool
		case "String":
			return types.String
		case "Unit":
			return types.Unit
		default:
			if st, ok := env.LookupStruct(t.Name); ok {
				return st
			}
			in.errorf(diag.InferUnknownStruct, t.Sp, "unknown type %s", t.Name)
			return in.fresh()
		}
	case *ast.ArrayType:
		return types.MakeArray(in.typeFromExpr(t.Elem, env))
	case *ast.TupleType:
		elems := make([]*types.Type, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = in.typeFromExpr(e, env)
		}
		return types.MakeTuple(elems)
	case *ast.FuncType:
		params := make([]*types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = in.typeFromExpr(p, env)
		}
		var ret *types.Type
		if t.Ret != nil {
			ret = in.typeFromExpr(t.Ret, env)
		}
		return types.MakeFunc(params, ret)
	case *ast.OptionType:
		return types.MakeOption(in.typeFromExpr(t.Elem, env))
	}
	return in.fresh()
}

// finalize resolves every recorded expression type through the substitution.
// Numeric variables nothing constrained default to Int; any other leftover
// variable is an ambiguity error.
func (in *inferencer) finalize(env *types.Env) {
	reported := make(map[types.VarID]bool)
	for e, t := range in.exprs {
		rt := in.subst.Apply(t)
		rt = in.defaultNumeric(rt)
		free := make(map[types.VarID]bool)
		rt.FreeVars(free)
		for id := range free {
			if reported[id] || in.quantified[id] {
				continue
			}
			reported[id] = true
			in.errorf(diag.InferAmbiguousType, e.Span(),
				"cannot determine the type of this expression; add an annotation")
		}
		in.res.ExprTypes[e] = rt
	}
	for name, sig := range in.res.Funcs {
		in.res.Funcs[name] = in.defaultNumeric(in.subst.Apply(sig))
	}
}

// defaultNumeric binds every unresolved numeric variable in t to Int and
// returns the re-applied type.
func (in *inferencer) defaultNumeric(t *types.Type) *types.Type {
	free := make(map[types.VarID]bool)
	t.FreeVars(free)
	changed := false
	for id := range free {
		if in.numeric[id] {
			in.subst.Bind(id, types.Int)
			changed = true
		}
	}
	if changed {
		return in.subst.Apply(t)
	}
	return t
}
