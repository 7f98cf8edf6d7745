package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAddUniquePrefixToFileName(t *testing.T) {
	filename := "testfile.txt"
	result := AddUniquePrefixToFileName(filename)

	if !strings.HasSuffix(result, "_testfile.txt") {
		t.Errorf("Expected filename to have unique prefix, got %s", result)
	}

	prefix := strings.Split(result, "_")[0]
	if len(prefix) == 0 {
		t.Errorf("Expected a non-empty unique prefix, got %s", prefix)
	}
}

func TestHashFileSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := HashFileSHA256(path)
	if err != nil {
		t.Fatalf("HashFileSHA256() error = %v", err)
	}

	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("HashFileSHA256() = %s, want %s", got, want)
	}

	gotStream, err := HashReaderSHA256(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("HashReaderSHA256() error = %v", err)
	}
	if gotStream != want {
		t.Errorf("HashReaderSHA256() = %s, want %s", gotStream, want)
	}
}
