package schema

import (
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/binkit/engine"
)

func buildType(d *typeDoc) (*engine.TypeDefinition, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("type without name: %w", ErrInvalid)
	}
	fields := make([]engine.Field, 0, len(d.Fields))
	for i := range d.Fields {
		f, err := buildField(&d.Fields[i], false)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", d.Name, err)
		}
		fields = append(fields, f)
	}
	opts := engine.TypeOptions{
		Size:         d.Size,
		KeyField:     d.Key,
		DisplayField: d.Display,
		IconField:    d.Icon,
		IndexField:   d.Index,
		CopyExcluded: d.CopyExcluded,
	}
	if d.Node != nil {
		opts.Node = &engine.NodeInfo{Label: d.Node.Label, Children: d.Node.Children}
	}
	return engine.NewTypeDefinition(d.Name, fields, opts)
}

func buildField(d *fieldDoc, inUnion bool) (engine.Field, error) {
	meta := engine.Meta{ID: d.ID, Name: d.Name}
	wrap := func(err error) error {
		return fmt.Errorf("field %q (line %d): %w", d.ID, d.line, err)
	}
	switch d.Kind {
	case "bool":
		desc := engine.BoolDesc{Meta: meta, Condition: d.Condition}
		if err := parseFormat(d.Format, &desc.Format); err != nil {
			return nil, wrap(err)
		}
		if err := decodeDefault(&d.Default, &desc.Default); err != nil {
			return nil, wrap(err)
		}
		return engine.NewBool(desc), nil

	case "int":
		desc := engine.IntDesc{Meta: meta, SkipWrite: d.SkipWrite}
		if err := parseFormat(d.Format, &desc.Format); err != nil {
			return nil, wrap(err)
		}
		if err := decodeDefault(&d.Default, &desc.Default); err != nil {
			return nil, wrap(err)
		}
		return engine.NewInt(desc), nil

	case "float":
		desc := engine.FloatDesc{Meta: meta}
		if err := decodeDefault(&d.Default, &desc.Default); err != nil {
			return nil, wrap(err)
		}
		return engine.NewFloat(desc), nil

	case "string":
		desc := engine.StringDesc{Meta: meta, InlineSize: d.Size}
		if err := decodeDefault(&d.Default, &desc.Default); err != nil {
			return nil, wrap(err)
		}
		return engine.NewString(desc), nil

	case "label":
		return engine.NewLabel(engine.LabelDesc{Meta: meta, Index: d.Index}), nil

	case "message":
		return engine.NewMessage(engine.MessageDesc{Meta: meta, Path: d.Path, Localized: d.Localized}), nil

	case "bytes":
		if d.Size <= 0 {
			return nil, wrap(fmt.Errorf("bytes need a positive size: %w", ErrInvalid))
		}
		desc := engine.BytesDesc{Meta: meta, Size: d.Size}
		if d.Transform != nil {
			t, err := buildTransform(d.Transform)
			if err != nil {
				return nil, wrap(err)
			}
			desc.Transform = t
		}
		return engine.NewBytes(desc), nil

	case "record":
		p, err := buildPlacement(d.Placement)
		if err != nil {
			return nil, wrap(err)
		}
		return engine.NewRecord(engine.RecordDesc{Meta: meta, Typename: d.Type, Placement: p}), nil

	case "list":
		c, err := buildCount(d.Count)
		if err != nil {
			return nil, wrap(err)
		}
		return engine.NewList(engine.ListDesc{Meta: meta, Typename: d.Type, Count: c, Table: d.Table}), nil

	case "reference":
		r, err := buildRef(d.Ref)
		if err != nil {
			return nil, wrap(err)
		}
		return engine.NewReference(engine.ReferenceDesc{Meta: meta, Table: d.Table, Format: r}), nil

	case "union":
		if inUnion {
			return nil, wrap(engine.ErrUnionNesting)
		}
		variants := make([]engine.Field, 0, len(d.Variants))
		for i := range d.Variants {
			v, err := buildField(&d.Variants[i], true)
			if err != nil {
				return nil, wrap(err)
			}
			variants = append(variants, v)
		}
		u, err := engine.NewUnion(engine.UnionDesc{Meta: meta, Variants: variants})
		if err != nil {
			return nil, wrap(err)
		}
		return u, nil
	}
	return nil, wrap(fmt.Errorf("%q: %w", d.Kind, ErrUnknownKind))
}

func parseFormat(s string, dst *engine.IntFormat) error {
	if s == "" {
		return nil
	}
	f, err := engine.ParseIntFormat(s)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

// decodeDefault leaves dst untouched when no default was given.
func decodeDefault[T any](n *yaml.Node, dst *T) error {
	if n.Kind == 0 {
		return nil
	}
	if err := n.Decode(dst); err != nil {
		return fmt.Errorf("default: %w", err)
	}
	return nil
}

func buildTransform(d *transformDoc) (engine.ByteTransform, error) {
	switch d.Type {
	case "xor":
		if len(d.Key) == 0 {
			return nil, fmt.Errorf("xor without key: %w", ErrInvalid)
		}
		return engine.XorTransform{Key: d.Key}, nil
	case "substitution":
		tables := make([][256]byte, len(d.Tables))
		for i, s := range d.Tables {
			raw, err := hex.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("substitution table %d: %w", i, err)
			}
			if len(raw) != 256 {
				return nil, fmt.Errorf("substitution table %d has %d bytes: %w", i, len(raw), ErrInvalid)
			}
			copy(tables[i][:], raw)
		}
		return engine.NewSubstitution(tables)
	}
	return nil, fmt.Errorf("transform %q: %w", d.Type, ErrUnknownOption)
}
