package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// Example output for "ex.txt": "21313123123_ex.txt"
func AddUniquePrefixToFileName(fileName string) string {
	uniquePrefix := fmt.Sprintf("%d", time.Now().UnixNano())
	return fmt.Sprintf("%s_%s", uniquePrefix, fileName)
}

func GetTempDir() string {
	return fmt.Sprintf("%s/emisor", os.TempDir())
}

func CreateTemp(pattern string) (*os.File, error) {
	tempDir := GetTempDir()
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return os.CreateTemp(tempDir, pattern)
}

// HashFileSHA256 returns the hex SHA-256 of a file. Archived documents store
// this hash so integrity can be verified at read time.
func HashFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashReaderSHA256 hashes a stream, used when verifying an archived object
// fetched from storage without writing it to disk.
func HashReaderSHA256(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
