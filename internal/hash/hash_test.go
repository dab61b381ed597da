package hash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSHA256Hasher_HashFile(t *testing.T) {
	hasher := NewSHA256Hasher()
	dir := t.TempDir()

	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := hasher.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}

	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("HashFile() = %q, want %q", got, want)
	}
}

func TestSHA256Hasher_HashFile_Deterministic(t *testing.T) {
	hasher := NewSHA256Hasher()
	dir := t.TempDir()

	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("same content"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	first, err := hasher.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	second, err := hasher.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if first != second {
		t.Errorf("hashes differ across runs: %q vs %q", first, second)
	}
}

func TestSHA256Hasher_HashFile_Missing(t *testing.T) {
	hasher := NewSHA256Hasher()
	if _, err := hasher.HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("HashFile() expected error for missing file, got nil")
	}
}

func TestFakeHasher(t *testing.T) {
	hasher := NewFakeHasher()
	hasher.SetHash("/some/path", "abc123")

	got, err := hasher.HashFile("/some/path")
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if got != "abc123" {
		t.Errorf("HashFile() = %q, want %q", got, "abc123")
	}

	got, err = hasher.HashFile("/other/path")
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if got != "fakehash" {
		t.Errorf("HashFile() = %q, want default %q", got, "fakehash")
	}
}
