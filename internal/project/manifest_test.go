package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "raven.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[package]
name = "demo"

[build]
entry = "src/main.rv"
`)
	m, ok, err := LoadManifest(dir)
	if err != nil || !ok {
		t.Fatalf("LoadManifest: ok=%v err=%v", ok, err)
	}
	if m.Config.Package.Name != "demo" {
		t.Fatalf("name = %q", m.Config.Package.Name)
	}
	if m.Config.Build.Out != "demo.wasm" {
		t.Fatalf("default out = %q", m.Config.Build.Out)
	}
	want := filepath.Join(dir, "src", "main.rv")
	if m.EntryPath() != want {
		t.Fatalf("entry = %q, want %q", m.EntryPath(), want)
	}
}

func TestLoadManifestWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[package]
name = "up"

[build]
entry = "main.rv"
out = "dist/up.wasm"
`)
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := LoadManifest(nested)
	if err != nil || !ok {
		t.Fatalf("LoadManifest: ok=%v err=%v", ok, err)
	}
	if m.Root != dir {
		t.Fatalf("root = %q, want %q", m.Root, dir)
	}
	if m.Config.Build.Out != "dist/up.wasm" {
		t.Fatalf("out = %q", m.Config.Build.Out)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	_, ok, err := LoadManifest(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("found a manifest where none exists")
	}
}

func TestLoadManifestValidation(t *testing.T) {
	cases := []struct{ name, body string }{
		{"no package", "[build]\nentry = \"main.rv\"\n"},
		{"no name", "[package]\n[build]\nentry = \"main.rv\"\n"},
		{"no entry", "[package]\nname = \"x\"\n"},
		{"bad toml", "[package\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.body)
			if _, _, err := LoadManifest(dir); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestCombineIsOrderSensitive(t *testing.T) {
	var a, b Digest
	a[0] = 1
	b[0] = 2
	if Combine(a, b) == Combine(b, a) {
		t.Fatal("digest must depend on argument order")
	}
	if Combine(a) == Combine(a, b) {
		t.Fatal("digest must depend on dependency list")
	}
}
