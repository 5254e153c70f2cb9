package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/binkit/engine"
	"github.com/joshuapare/binkit/internal/logger"
)

// Schema is the decoded content of one or more schema files.
type Schema struct {
	Defs   []*engine.TypeDefinition
	Stores []Store
}

// Parse decodes every document of r. name labels errors.
func Parse(r io.Reader, name string) (*Schema, error) {
	s := &Schema{}
	if err := s.parse(r, name); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) parse(r io.Reader, name string) error {
	dec := yaml.NewDecoder(r)
	for n := 0; ; n++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: document %d: %w", name, n, err)
		}
		if node.Kind == 0 {
			continue
		}
		if err := s.add(&node); err != nil {
			return fmt.Errorf("%s: document %d (line %d): %w", name, n, node.Line, err)
		}
	}
}

func (s *Schema) add(node *yaml.Node) error {
	var h header
	if err := node.Decode(&h); err != nil {
		return err
	}
	switch h.Kind {
	case "type":
		var d typeDoc
		if err := node.Decode(&d); err != nil {
			return err
		}
		def, err := buildType(&d)
		if err != nil {
			return err
		}
		s.Defs = append(s.Defs, def)
	case "store":
		var st Store
		if err := node.Decode(&st); err != nil {
			return err
		}
		if st.Name == "" || st.Path == "" || st.Root == "" {
			return fmt.Errorf("store needs name, path and root: %w", ErrInvalid)
		}
		if _, err := s.Store(st.Name); err == nil {
			return fmt.Errorf("%q: %w", st.Name, ErrDuplicateStore)
		}
		s.Stores = append(s.Stores, st)
	default:
		return fmt.Errorf("document kind %q: %w", h.Kind, ErrUnknownKind)
	}
	return nil
}

// LoadDir parses every .yaml and .yml file of dir in name order.
func LoadDir(dir string) (*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	s := &Schema{}
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		err = s.parse(f, name)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("schema loaded", "dir", dir, "files", len(names), "types", len(s.Defs), "stores", len(s.Stores))
	return s, nil
}

// Store returns the binding named name.
func (s *Schema) Store(name string) (Store, error) {
	for _, st := range s.Stores {
		if st.Name == name {
			return st, nil
		}
	}
	return Store{}, fmt.Errorf("%q: %w", name, ErrNoStore)
}

// Types builds a validated registry from the definitions.
func (s *Schema) Types() (*engine.Types, error) {
	ts, err := engine.NewTypes(s.Defs...)
	if err != nil {
		return nil, err
	}
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	for _, st := range s.Stores {
		if _, err := ts.Definition(st.Root); err != nil {
			return nil, fmt.Errorf("store %s root: %w", st.Name, err)
		}
	}
	return ts, nil
}
