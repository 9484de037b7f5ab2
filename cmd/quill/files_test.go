package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCollectFilesWalksDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.md"), "b")
	writeFile(t, filepath.Join(root, "a.markdown"), "a")
	writeFile(t, filepath.Join(root, "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, "guide", "intro.MD"), "intro")
	writeFile(t, filepath.Join(root, ".git", "x.md"), "hidden")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "README.md"), "vendored")

	got, err := collectFiles([]string{root, filepath.Join(root, "b.md")})
	if err != nil {
		t.Fatalf("collectFiles: %v", err)
	}
	want := []string{
		filepath.Join(root, "a.markdown"),
		filepath.Join(root, "b.md"),
		filepath.Join(root, "guide", "intro.MD"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("collectFiles = %v, want %v", got, want)
	}
}

func TestCollectFilesKeepsExplicitFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	writeFile(t, path, "text")
	got, err := collectFiles([]string{path})
	if err != nil {
		t.Fatalf("collectFiles: %v", err)
	}
	if len(got) != 1 || got[0] != path {
		t.Fatalf("collectFiles = %v, want [%s]", got, path)
	}
}

func TestCollectFilesErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := collectFiles([]string{root}); err == nil {
		t.Fatalf("expected error for directory without Markdown files")
	}
	if _, err := collectFiles([]string{filepath.Join(root, "missing.md")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestStartDirFor(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.md")
	writeFile(t, path, "a")
	if got := startDirFor(root); got != root {
		t.Fatalf("startDirFor(dir) = %q, want %q", got, root)
	}
	if got := startDirFor(path); got != root {
		t.Fatalf("startDirFor(file) = %q, want %q", got, root)
	}
}
