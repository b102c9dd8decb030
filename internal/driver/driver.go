// Package driver runs the compilation pipeline: parse, infer, generate.
// Diagnostics are batched per unit; code generation only runs on clean
// units.
package driver

import (
	"raven/internal/codegen"
	"raven/internal/diag"
	"raven/internal/infer"
	"raven/internal/parser"
	"raven/internal/source"
)

// Result is the outcome of compiling one source file. Wasm is nil when the
// unit had diagnostics.
type Result struct {
	Path   string
	FileID source.FileID
	Bag    *diag.Bag
	Wasm   []byte
}

// Ok reports whether the unit compiled without errors.
func (r *Result) Ok() bool {
	return r != nil && !r.Bag.HasErrors() && r.Wasm != nil
}

// Compile runs the full pipeline over one file already loaded into the set.
// Pipeline errors land in the result bag; the returned error is reserved
// for internal failures.
func Compile(fileSet *source.FileSet, id source.FileID, maxDiagnostics int) (*Result, error) {
	file := fileSet.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}

	out := &Result{Path: file.Path, FileID: id, Bag: bag}

	prog, ok := parser.Parse(file, reporter)
	if !ok || bag.HasErrors() {
		return out, nil
	}

	res, ok := infer.CheckProgram(prog, reporter)
	if !ok || bag.HasErrors() {
		return out, nil
	}

	wasm, err := codegen.Generate(prog, res)
	if err != nil {
		return out, err
	}
	out.Wasm = wasm
	return out, nil
}

// Check runs parse and infer only, leaving Wasm nil. Useful for fast
// validation without code generation.
func Check(fileSet *source.FileSet, id source.FileID, maxDiagnostics int) *Result {
	file := fileSet.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}

	out := &Result{Path: file.Path, FileID: id, Bag: bag}

	prog, ok := parser.Parse(file, reporter)
	if !ok || bag.HasErrors() {
		return out
	}
	infer.CheckProgram(prog, reporter)
	return out
}

// CompileFile loads a single file from disk and compiles it.
func CompileFile(path string, maxDiagnostics int) (*source.FileSet, *Result, error) {
	fileSet := source.NewFileSet()
	id, err := fileSet.Load(path)
	if err != nil {
		return fileSet, nil, err
	}
	res, err := Compile(fileSet, id, maxDiagnostics)
	return fileSet, res, err
}
