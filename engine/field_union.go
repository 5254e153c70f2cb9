package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/pkg/types"
)

// UnionDesc describes a tagged union decoded by trial.
type UnionDesc struct {
	Meta
	// Variants are candidate templates, tried in order.
	Variants []Field
}

// UnionField holds one candidate per variant and the index of the one in
// use. The union occupies the width of its widest candidate.
type UnionField struct {
	desc     *UnionDesc
	variants []Field
	active   int
}

// NewUnion returns a union field template.
func NewUnion(d UnionDesc) (*UnionField, error) {
	if len(d.Variants) == 0 {
		return nil, fmt.Errorf("union %s has no variants: %w", d.ID, types.ErrUndefinedType)
	}
	for i, v := range d.Variants {
		if v == nil {
			return nil, fmt.Errorf("union %s variant %d is nil: %w", d.ID, i, types.ErrUndefinedType)
		}
		if v.Kind() == KindUnion {
			return nil, fmt.Errorf("union %s variant %d: %w", d.ID, i, ErrUnionNesting)
		}
	}
	f := &UnionField{desc: &d, active: -1}
	f.variants = cloneFields(d.Variants)
	return f, nil
}

// MustUnion is NewUnion panicking on error.
func MustUnion(d UnionDesc) *UnionField {
	f, err := NewUnion(d)
	if err != nil {
		panic(err)
	}
	return f
}

func cloneFields(fs []Field) []Field {
	out := make([]Field, len(fs))
	for i, f := range fs {
		out[i] = f.clone()
	}
	return out
}

func (f *UnionField) ID() string       { return f.desc.ID }
func (f *UnionField) Name() string     { return displayName(&f.desc.Meta) }
func (f *UnionField) Kind() Kind       { return KindUnion }
func (f *UnionField) Desc() UnionDesc  { return *f.desc }
func (f *UnionField) ActiveIndex() int { return f.active }

// Active returns the candidate in use, nil before a successful read or
// SetUnionVariant.
func (f *UnionField) Active() Field {
	if f.active < 0 || f.active >= len(f.variants) {
		return nil
	}
	return f.variants[f.active]
}

// Variants returns the live candidates.
func (f *UnionField) Variants() []Field {
	out := make([]Field, len(f.variants))
	copy(out, f.variants)
	return out
}

func (f *UnionField) setActive(i int) error {
	if i < 0 || i >= len(f.variants) {
		return errIndex("union "+f.desc.ID+" variant", i, len(f.variants))
	}
	f.active = i
	return nil
}

func (f *UnionField) clone() Field {
	return &UnionField{desc: f.desc, variants: cloneFields(f.variants), active: f.active}
}

func (f *UnionField) decoded() bool {
	a := f.Active()
	return a != nil && a.decoded()
}

func (f *UnionField) owned() []types.RecordID {
	if a := f.Active(); a != nil {
		return a.owned()
	}
	return nil
}

func (f *UnionField) replaceOwned(old, repl types.RecordID) {
	if a := f.Active(); a != nil {
		a.replaceOwned(old, repl)
	}
}

func (f *UnionField) width(t *Types) (int, error) {
	w := 0
	for _, v := range f.variants {
		vw, err := v.width(t)
		if err != nil {
			return 0, err
		}
		w = max(w, vw)
	}
	return w, nil
}

func (f *UnionField) read(st *ReadState) error {
	w, err := f.width(st.types)
	if err != nil {
		return err
	}
	start := st.cursor
	mark := st.mark()
	st.trial++
	defer func() { st.trial-- }()
	for i, v := range f.variants {
		st.cursor = start
		err := v.read(st)
		if err == nil && v.decoded() {
			f.active = i
			st.cursor = max(st.cursor, start+w)
			return nil
		}
		st.rollback(mark)
		logger.Debug("union candidate rejected", "union", f.desc.ID, "variant", i, "kind", v.Kind().String(), "error", err)
	}
	st.cursor = start
	f.active = -1
	return fmt.Errorf("%s at 0x%x: %w", f.desc.ID, start, ErrUnionExhausted)
}

func (f *UnionField) write(st *WriteState) error {
	a := f.Active()
	if a == nil {
		return fmt.Errorf("union %s has no active variant: %w", f.desc.ID, ErrValueRequired)
	}
	w, err := f.width(st.types)
	if err != nil {
		return err
	}
	start := st.cursor
	if err := a.write(st); err != nil {
		return err
	}
	st.cursor = max(st.cursor, start+w)
	return nil
}

func (f *UnionField) copyFrom(t *Types, src Field, store types.StoreNumber) error {
	s, err := sameKind[*UnionField](f, src)
	if err != nil {
		return err
	}
	if len(s.variants) != len(f.variants) {
		return fmt.Errorf("union %s: %d variants, source has %d: %w", f.desc.ID, len(f.variants), len(s.variants), types.ErrFieldKind)
	}
	f.active = s.active
	if a := f.Active(); a != nil {
		return a.copyFrom(t, s.variants[s.active], store)
	}
	return nil
}
