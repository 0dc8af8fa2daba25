package utils

import (
	"os"
	"path/filepath"
	"testing"
)

// CreateTestFile writes contents to a temporary file and returns it opened for
// reading. The file is closed when the test ends.
func CreateTestFile(t testing.TB, contents string) *os.File {
	t.Helper()

	fpath := WriteTestFile(t, t.TempDir(), "test.txt", contents)
	f, err := os.Open(fpath)
	if err != nil {
		t.Fatalf("Failed to open temp file: %v", err)
	}
	t.Cleanup(func() {
		f.Close()
	})

	return f
}

// WriteTestFile writes contents to dir/name and returns the full path.
func WriteTestFile(t testing.TB, dir, name, contents string) string {
	t.Helper()

	fpath := filepath.Join(dir, name)
	if err := os.WriteFile(fpath, []byte(contents), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return fpath
}

// ReadTestFile returns the contents of path, failing the test if it can't be
// read.
func ReadTestFile(t testing.TB, path string) string {
	t.Helper()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(b)
}
