// Package writer holds the destinations a serialized archive is written to.
package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileWriter replaces the file at Path in one step: readers see either the
// old archive or the new one, never a partial write.
type FileWriter struct {
	Path string
	// Perm is applied to the new file; 0644 when zero.
	Perm fs.FileMode
	// Backup keeps the previous file as Path + ".bak".
	Backup bool
}

// WriteArchive stages buf next to Path, flushes it and renames it into place.
func (w *FileWriter) WriteArchive(buf []byte) error {
	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	staged, err := stage(dir, buf, w.perm())
	if err != nil {
		return err
	}
	if w.Backup {
		if err := backup(w.Path); err != nil {
			_ = os.Remove(staged)
			return err
		}
	}
	if err := os.Rename(staged, w.Path); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("replace %s: %w", w.Path, err)
	}
	return nil
}

func (w *FileWriter) perm() fs.FileMode {
	if w.Perm == 0 {
		return 0o644
	}
	return w.Perm
}

// stage writes buf to a synced temporary file in dir and returns its path.
func stage(dir string, buf []byte, perm fs.FileMode) (path string, err error) {
	f, err := os.CreateTemp(dir, ".binkit-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path = f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	if _, err = f.Write(buf); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

// backup hard-links (or, failing that, copies) path to path.bak.
func backup(path string) error {
	bak := path + ".bak"
	_ = os.Remove(bak)
	err := os.Link(path, bak)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return fmt.Errorf("backup %s: %w", path, rerr)
	}
	if werr := os.WriteFile(bak, data, 0o644); werr != nil {
		return fmt.Errorf("backup %s: %w", path, werr)
	}
	return nil
}
