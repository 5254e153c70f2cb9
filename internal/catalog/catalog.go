// Package catalog serves project stores from a directory tree.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/joshuapare/binkit/internal/mmfile"
	"github.com/joshuapare/binkit/internal/writer"
)

// ErrOutsideRoot indicates a store path that escapes the catalog root.
var ErrOutsideRoot = errors.New("catalog: path escapes root")

func resolve(root, path string) (string, error) {
	p := filepath.FromSlash(path)
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("%q: %w", path, ErrOutsideRoot)
	}
	return filepath.Join(root, p), nil
}

// Source reads store files below Root.
type Source struct {
	Root string
}

func NewSource(root string) *Source { return &Source{Root: root} }

// Fetch maps the file and returns an owned copy of its bytes.
func (s *Source) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := resolve(s.Root, path)
	if err != nil {
		return nil, err
	}
	return mmfile.ReadAll(full)
}

// Sink writes store files below Root, atomically per file.
type Sink struct {
	Root string
	// Backup keeps each replaced file as <name>.bak.
	Backup bool
}

func NewSink(root string) *Sink { return &Sink{Root: root} }

func (s *Sink) Store(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := resolve(s.Root, path)
	if err != nil {
		return err
	}
	w := &writer.FileWriter{Path: full, Backup: s.Backup}
	return w.WriteArchive(data)
}

// Memory is an in-process Source and Sink keyed by path.
type Memory struct {
	Files map[string][]byte
}

func NewMemory() *Memory { return &Memory{Files: make(map[string][]byte)} }

func (m *Memory) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := m.Files[path]
	if !ok {
		return nil, fmt.Errorf("catalog: %s: file does not exist", path)
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Store(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w := &writer.MemWriter{}
	if err := w.WriteArchive(data); err != nil {
		return err
	}
	m.Files[path] = w.Buf
	return nil
}
