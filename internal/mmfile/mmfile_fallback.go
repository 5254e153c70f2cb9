//go:build !unix

// Package mmfile provides platform-specific helpers for memory-mapping archive files.
package mmfile

import "os"

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return data, func() error { return nil }, nil
}

// ReadAll reads the whole file.
func ReadAll(path string) ([]byte, error) {
	return os.ReadFile(path)
}
