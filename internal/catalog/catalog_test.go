package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"whisper-web/internal/catalog"
)

func TestLookup(t *testing.T) {
	cat := catalog.New()

	v, ok := cat.Lookup("base")
	if !ok {
		t.Fatal("base not found in catalog")
	}
	if v.File != "ggml-base.bin" {
		t.Errorf("base file: got %q, want %q", v.File, "ggml-base.bin")
	}

	if _, ok := cat.Lookup("gigantic"); ok {
		t.Error("unknown variant should not be found")
	}
}

func TestAll_StableOrder(t *testing.T) {
	cat := catalog.New()

	all := cat.All()
	if len(all) == 0 {
		t.Fatal("catalog is empty")
	}
	if all[0].ID != "tiny" {
		t.Errorf("first variant: got %q, want %q", all[0].ID, "tiny")
	}

	// The returned slice is a copy; mutating it must not affect the catalog.
	all[0].ID = "mutated"
	if again := cat.All(); again[0].ID != "tiny" {
		t.Error("All returned a shared slice")
	}
}

func TestScan_EmptyAndMissingDir(t *testing.T) {
	cat := catalog.New()

	if got := cat.Scan(t.TempDir()); len(got) != 0 {
		t.Errorf("empty dir: got %v, want no variants", got)
	}
	if got := cat.Scan(filepath.Join(t.TempDir(), "does-not-exist")); len(got) != 0 {
		t.Errorf("missing dir: got %v, want no variants", got)
	}
}

func TestScan_ReflectsDiskChanges(t *testing.T) {
	cat := catalog.New()
	dir := t.TempDir()

	writeModelFile(t, dir, "ggml-tiny.bin")
	got := cat.Scan(dir)
	if len(got) != 1 || got[0] != "tiny" {
		t.Fatalf("after adding tiny: got %v, want [tiny]", got)
	}

	writeModelFile(t, dir, "ggml-base.bin")
	got = cat.Scan(dir)
	if len(got) != 2 || got[0] != "tiny" || got[1] != "base" {
		t.Fatalf("after adding base: got %v, want [tiny base] in catalog order", got)
	}

	if err := os.Remove(filepath.Join(dir, "ggml-tiny.bin")); err != nil {
		t.Fatal(err)
	}
	got = cat.Scan(dir)
	if len(got) != 1 || got[0] != "base" {
		t.Fatalf("after removing tiny: got %v, want [base]", got)
	}
}

func TestScan_IgnoresDirectories(t *testing.T) {
	cat := catalog.New()
	dir := t.TempDir()

	if err := os.Mkdir(filepath.Join(dir, "ggml-tiny.bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := cat.Scan(dir); len(got) != 0 {
		t.Errorf("directory named like a weight file counted as available: %v", got)
	}
}

func TestAvailable(t *testing.T) {
	cat := catalog.New()
	dir := t.TempDir()
	writeModelFile(t, dir, "ggml-small.bin")

	if !cat.Available(dir, "small") {
		t.Error("small should be available")
	}
	if cat.Available(dir, "medium") {
		t.Error("medium should not be available")
	}
	if cat.Available(dir, "not-a-variant") {
		t.Error("unknown variant should not be available")
	}
}

func writeModelFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}
}
