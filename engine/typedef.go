package engine

import (
	"fmt"
	"slices"

	"github.com/joshuapare/binkit/pkg/types"
)

// NodeInfo is tree-view metadata for editors browsing a record graph.
type NodeInfo struct {
	// Label is a display template; "{field}" placeholders name field ids.
	Label string
	// Children lists the field ids expanded as child nodes.
	Children []string
}

// TypeOptions carries the optional parts of a TypeDefinition.
type TypeOptions struct {
	// Size is the fixed size in bytes. Zero derives it from the fields.
	Size         int
	KeyField     string
	DisplayField string
	IconField    string
	// IndexField names an Int field renumbered with the record's list
	// position after every list edit.
	IndexField   string
	CopyExcluded []string
	Node         *NodeInfo
}

// TypeDefinition is the immutable schema of one record type.
type TypeDefinition struct {
	name         string
	size         int
	fields       []Field
	byID         map[string]int
	key          string
	display      string
	icon         string
	index        string
	copyExcluded map[string]struct{}
	node         *NodeInfo
}

// NewTypeDefinition validates and builds a type. The field templates are
// owned by the definition afterwards.
func NewTypeDefinition(name string, fields []Field, opts TypeOptions) (*TypeDefinition, error) {
	if name == "" {
		return nil, fmt.Errorf("type name is empty: %w", types.ErrUndefinedType)
	}
	if opts.Size < 0 {
		return nil, fmt.Errorf("type %s: negative size %d: %w", name, opts.Size, types.ErrUndefinedType)
	}
	def := &TypeDefinition{
		name:         name,
		size:         opts.Size,
		fields:       fields,
		byID:         make(map[string]int, len(fields)),
		key:          opts.KeyField,
		display:      opts.DisplayField,
		icon:         opts.IconField,
		index:        opts.IndexField,
		copyExcluded: make(map[string]struct{}, len(opts.CopyExcluded)),
		node:         opts.Node,
	}
	for i, f := range fields {
		if f == nil || f.ID() == "" {
			return nil, fmt.Errorf("type %s: field %d has no id: %w", name, i, types.ErrUndefinedField)
		}
		if _, dup := def.byID[f.ID()]; dup {
			return nil, fmt.Errorf("type %s: duplicate field %q: %w", name, f.ID(), types.ErrUndefinedField)
		}
		def.byID[f.ID()] = i
	}
	for _, id := range []string{opts.KeyField, opts.DisplayField, opts.IconField} {
		if id == "" {
			continue
		}
		f, ok := def.Field(id)
		if !ok {
			return nil, fmt.Errorf("type %s: metadata field %q: %w", name, id, types.ErrUndefinedField)
		}
		switch f.Kind() {
		case KindString, KindLabel, KindMessage, KindInt:
		default:
			return nil, fmt.Errorf("type %s: metadata field %q is %s: %w", name, id, f.Kind(), types.ErrFieldKind)
		}
	}
	if opts.IndexField != "" {
		f, ok := def.Field(opts.IndexField)
		if !ok {
			return nil, fmt.Errorf("type %s: index field %q: %w", name, opts.IndexField, types.ErrUndefinedField)
		}
		if f.Kind() != KindInt {
			return nil, fmt.Errorf("type %s: index field %q is %s: %w", name, opts.IndexField, f.Kind(), types.ErrFieldKind)
		}
	}
	for _, id := range opts.CopyExcluded {
		if _, ok := def.byID[id]; !ok {
			return nil, fmt.Errorf("type %s: copy-excluded field %q: %w", name, id, types.ErrUndefinedField)
		}
		def.copyExcluded[id] = struct{}{}
	}
	if opts.Node != nil {
		for _, id := range opts.Node.Children {
			if _, ok := def.byID[id]; !ok {
				return nil, fmt.Errorf("type %s: node child %q: %w", name, id, types.ErrUndefinedField)
			}
		}
	}
	return def, nil
}

// MustTypeDefinition is NewTypeDefinition panicking on error.
func MustTypeDefinition(name string, fields []Field, opts TypeOptions) *TypeDefinition {
	def, err := NewTypeDefinition(name, fields, opts)
	if err != nil {
		panic(err)
	}
	return def
}

func (d *TypeDefinition) Name() string { return d.name }

// DeclaredSize is the size given at construction, zero when derived.
func (d *TypeDefinition) DeclaredSize() int { return d.size }

func (d *TypeDefinition) KeyField() string     { return d.key }
func (d *TypeDefinition) DisplayField() string { return d.display }
func (d *TypeDefinition) IconField() string    { return d.icon }
func (d *TypeDefinition) IndexField() string   { return d.index }
func (d *TypeDefinition) Node() *NodeInfo      { return d.node }

// FieldIDs returns the field ids in layout order.
func (d *TypeDefinition) FieldIDs() []string {
	ids := make([]string, len(d.fields))
	for i, f := range d.fields {
		ids[i] = f.ID()
	}
	return ids
}

// Field returns the template of the field with the given id.
func (d *TypeDefinition) Field(id string) (Field, bool) {
	i, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return d.fields[i], true
}

// CopyExcluded reports whether Copy skips the field.
func (d *TypeDefinition) CopyExcluded(id string) bool {
	_, ok := d.copyExcluded[id]
	return ok
}

func (d *TypeDefinition) instantiate() *Record {
	r := &Record{def: d, fields: make([]Field, len(d.fields))}
	for i, f := range d.fields {
		r.fields[i] = f.clone()
	}
	return r
}

// Record is one live instance of a TypeDefinition.
type Record struct {
	def    *TypeDefinition
	fields []Field
}

func (r *Record) Typename() string { return r.def.name }

func (r *Record) Definition() *TypeDefinition { return r.def }

// Fields returns the record's fields in layout order. Values are read-only
// from outside the package; mutate through Types.
func (r *Record) Fields() []Field { return slices.Clone(r.fields) }

// Field returns the field with the given id.
func (r *Record) Field(id string) (Field, bool) {
	i, ok := r.def.byID[id]
	if !ok {
		return nil, false
	}
	return r.fields[i], true
}
