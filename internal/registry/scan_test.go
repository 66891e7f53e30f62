package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, p string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
}

func TestFindWeightFilePrefersModelSubdir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "root-model.gguf"))
	touch(t, filepath.Join(dir, "coder", "b.GGUF"))
	touch(t, filepath.Join(dir, "coder", "a.gguf"))
	touch(t, filepath.Join(dir, "coder", "notes.txt"))

	p, err := FindWeightFile(dir, "coder", "*.gguf")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if p != filepath.Join(dir, "coder", "a.gguf") {
		t.Fatalf("unexpected path %q", p)
	}
}

func TestFindWeightFileFallsBackToRootAndSkipsTemp(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "other", "x.gguf.tmp"))
	touch(t, filepath.Join(dir, "x.gguf"))
	p, err := FindWeightFile(dir, "other", "x*.gguf*")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if p != filepath.Join(dir, "x.gguf") {
		t.Fatalf("unexpected path %q", p)
	}
}

func TestFindWeightFileBadPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "m", "a.gguf"))
	if _, err := FindWeightFile(dir, "m", "[bad"); err == nil {
		t.Fatalf("expected pattern error")
	}
}

func TestFindWeightFileNoMatch(t *testing.T) {
	p, err := FindWeightFile(filepath.Join(t.TempDir(), "absent"), "m", "*.gguf")
	if err != nil || p != "" {
		t.Fatalf("expected no match, got %q err=%v", p, err)
	}
	if p, err := FindWeightFile(t.TempDir(), "m", ""); err != nil || p != "" {
		t.Fatalf("empty pattern should not match, got %q err=%v", p, err)
	}
}
