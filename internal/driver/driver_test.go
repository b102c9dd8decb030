package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"raven/internal/project"
	"raven/internal/source"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

func compileSrc(t *testing.T, src string) *Result {
	t.Helper()
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual("test.rv", []byte(src))
	res, err := Compile(fileSet, id, 64)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

func TestCompileProducesModule(t *testing.T) {
	res := compileSrc(t, `
fn main() {
    let x = 1 + 2;
    let y = x * x;
}
`)
	if !res.Ok() {
		t.Fatalf("diagnostics: %+v", res.Bag.Items())
	}
	if !bytes.HasPrefix(res.Wasm, wasmMagic) {
		t.Fatalf("output does not start with the wasm magic: % x", res.Wasm[:8])
	}
}

func TestCompileReportsTypeErrors(t *testing.T) {
	res := compileSrc(t, `let x = 1 + true;`)
	if res.Ok() {
		t.Fatal("expected a type error")
	}
	if res.Wasm != nil {
		t.Fatal("codegen must not run on a broken unit")
	}
	if !res.Bag.HasErrors() {
		t.Fatal("bag is empty")
	}
}

func TestCompileStopsAfterSyntaxErrors(t *testing.T) {
	res := compileSrc(t, `let = ;`)
	if res.Ok() || !res.Bag.HasErrors() {
		t.Fatal("expected syntax errors")
	}
	if res.Wasm != nil {
		t.Fatal("codegen must not run on a broken unit")
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildDirDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.rv", `fn main() { let x = 2; }`)
	writeFile(t, dir, "a.rv", `fn main() { let x = 1; }`)

	_, results, err := BuildDir(context.Background(), dir, BuildOptions{MaxDiagnostics: 64})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if filepath.Base(results[0].Path) != "a.rv" || filepath.Base(results[1].Path) != "b.rv" {
		t.Fatalf("results out of order: %s, %s", results[0].Path, results[1].Path)
	}
	for _, r := range results {
		if !r.Ok() {
			t.Fatalf("%s: %+v", r.Path, r.Bag.Items())
		}
	}
}

func TestBuildDirMixesCleanAndBroken(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.rv", `fn main() { let x = 1; }`)
	writeFile(t, dir, "bad.rv", `let x = missing;`)

	_, results, err := BuildDir(context.Background(), dir, BuildOptions{MaxDiagnostics: 64})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Ok() {
		t.Fatal("bad.rv must fail")
	}
	if !results[1].Ok() {
		t.Fatalf("good.rv must compile: %+v", results[1].Bag.Items())
	}
}

func TestBuildDirUsesCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenDiskCache("raven-test")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	writeFile(t, dir, "main.rv", `fn main() { let x = 40 + 2; }`)

	_, first, err := BuildDir(context.Background(), dir, BuildOptions{MaxDiagnostics: 64, Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if !first[0].Ok() {
		t.Fatalf("first build failed: %+v", first[0].Bag.Items())
	}

	_, second, err := BuildDir(context.Background(), dir, BuildOptions{MaxDiagnostics: 64, Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if !second[0].Ok() {
		t.Fatal("cached build failed")
	}
	if !bytes.Equal(first[0].Wasm, second[0].Wasm) {
		t.Fatal("cached module differs from the compiled one")
	}
}

func TestDiskCacheRoundtrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenDiskCache("raven-test")
	if err != nil {
		t.Fatal(err)
	}

	var key project.Digest
	key[0] = 0xab
	in := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Path:        "main.rv",
		ContentHash: key,
		Wasm:        []byte{0x00, 0x61, 0x73, 0x6d},
	}
	if err := cache.Put(key, in); err != nil {
		t.Fatal(err)
	}

	var out DiskPayload
	ok, err := cache.Get(key, &out)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if out.Path != in.Path || !bytes.Equal(out.Wasm, in.Wasm) {
		t.Fatalf("payload mismatch: %+v", out)
	}

	var miss project.Digest
	miss[0] = 0xcd
	ok, err = cache.Get(miss, &out)
	if err != nil || ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
}

func TestDiskCacheRejectsOldSchema(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := OpenDiskCache("raven-test")
	if err != nil {
		t.Fatal(err)
	}

	var key project.Digest
	key[0] = 1
	if err := cache.Put(key, &DiskPayload{Schema: diskCacheSchemaVersion + 1}); err != nil {
		t.Fatal(err)
	}
	var out DiskPayload
	ok, err := cache.Get(key, &out)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("stale schema must read as a miss")
	}
}
