package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

// leaf is embedded by variants that own no records.
type leaf struct{}

func (leaf) owned() []types.RecordID          { return nil }
func (leaf) replaceOwned(_, _ types.RecordID) {}

func sameKind[T Field](dst, src Field) (T, error) {
	v, ok := src.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("copy %s into %s %s: %w", src.Kind(), dst.Kind(), dst.ID(), types.ErrFieldKind)
	}
	return v, nil
}

// BoolDesc describes a boolean stored as an integer.
type BoolDesc struct {
	Meta
	// Format is the storage width, U8 when zero.
	Format IntFormat
	// Condition, when set, publishes the value to ConditionalInline
	// placements in this record and its descendants.
	Condition string
	Default   bool
}

// BoolField is a boolean value.
type BoolField struct {
	leaf
	desc  *BoolDesc
	value bool
}

// NewBool returns a bool field template.
func NewBool(d BoolDesc) *BoolField {
	if d.Format == 0 {
		d.Format = U8
	}
	return &BoolField{desc: &d, value: d.Default}
}

func (f *BoolField) ID() string     { return f.desc.ID }
func (f *BoolField) Name() string   { return displayName(&f.desc.Meta) }
func (f *BoolField) Kind() Kind     { return KindBool }
func (f *BoolField) Desc() BoolDesc { return *f.desc }
func (f *BoolField) Value() bool    { return f.value }
func (f *BoolField) decoded() bool  { return true }
func (f *BoolField) clone() Field   { c := *f; return &c }

func (f *BoolField) width(*Types) (int, error) { return f.desc.Format.Size(), nil }

func (f *BoolField) read(st *ReadState) error {
	v, err := st.readInt(f.desc.Format)
	if err != nil {
		return err
	}
	f.value = v != 0
	if f.desc.Condition != "" {
		st.setCondition(f.desc.Condition, f.value)
	}
	return nil
}

func (f *BoolField) write(st *WriteState) error {
	var v int64
	if f.value {
		v = 1
	}
	if f.desc.Condition != "" {
		st.setCondition(f.desc.Condition, f.value)
	}
	return st.writeInt(f.desc.Format, v)
}

func (f *BoolField) copyFrom(_ *Types, src Field, _ types.StoreNumber) error {
	s, err := sameKind[*BoolField](f, src)
	if err != nil {
		return err
	}
	f.value = s.value
	return nil
}

// IntDesc describes an integer.
type IntDesc struct {
	Meta
	Format IntFormat
	// SkipWrite advances over the value on write without emitting it.
	SkipWrite bool
	Default   int64
}

// IntField is an integer value.
type IntField struct {
	leaf
	desc  *IntDesc
	value int64
}

// NewInt returns an int field template.
func NewInt(d IntDesc) *IntField {
	if d.Format == 0 {
		d.Format = I32
	}
	return &IntField{desc: &d, value: d.Default}
}

func (f *IntField) ID() string    { return f.desc.ID }
func (f *IntField) Name() string  { return displayName(&f.desc.Meta) }
func (f *IntField) Kind() Kind    { return KindInt }
func (f *IntField) Desc() IntDesc { return *f.desc }
func (f *IntField) Value() int64  { return f.value }
func (f *IntField) decoded() bool { return true }
func (f *IntField) clone() Field  { c := *f; return &c }

// Range returns the values the storage format can represent.
func (f *IntField) Range() (lo, hi int64) { return f.desc.Format.Range() }

func (f *IntField) set(v int64) error {
	if err := f.desc.Format.check(v); err != nil {
		return fmt.Errorf("%s: %w", f.desc.ID, err)
	}
	f.value = v
	return nil
}

func (f *IntField) width(*Types) (int, error) { return f.desc.Format.Size(), nil }

func (f *IntField) read(st *ReadState) error {
	v, err := st.readInt(f.desc.Format)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

func (f *IntField) write(st *WriteState) error {
	if f.desc.SkipWrite {
		st.cursor += f.desc.Format.Size()
		return nil
	}
	return st.writeInt(f.desc.Format, f.value)
}

func (f *IntField) copyFrom(_ *Types, src Field, _ types.StoreNumber) error {
	s, err := sameKind[*IntField](f, src)
	if err != nil {
		return err
	}
	return f.set(s.value)
}

// FloatDesc describes a 32-bit float.
type FloatDesc struct {
	Meta
	Default float32
}

// FloatField is a 32-bit IEEE-754 value.
type FloatField struct {
	leaf
	desc  *FloatDesc
	value float32
}

// NewFloat returns a float field template.
func NewFloat(d FloatDesc) *FloatField {
	return &FloatField{desc: &d, value: d.Default}
}

func (f *FloatField) ID() string      { return f.desc.ID }
func (f *FloatField) Name() string    { return displayName(&f.desc.Meta) }
func (f *FloatField) Kind() Kind      { return KindFloat }
func (f *FloatField) Desc() FloatDesc { return *f.desc }
func (f *FloatField) Value() float32  { return f.value }
func (f *FloatField) decoded() bool   { return true }
func (f *FloatField) clone() Field    { c := *f; return &c }

func (f *FloatField) width(*Types) (int, error) { return 4, nil }

func (f *FloatField) read(st *ReadState) error {
	if err := st.checkPlain(4); err != nil {
		return err
	}
	v, err := st.arc.ReadF32(st.cursor)
	if err != nil {
		return err
	}
	st.cursor += 4
	f.value = v
	return nil
}

func (f *FloatField) write(st *WriteState) error {
	if err := st.arc.PutF32(st.cursor, f.value); err != nil {
		return err
	}
	st.cursor += 4
	return nil
}

func (f *FloatField) copyFrom(_ *Types, src Field, _ types.StoreNumber) error {
	s, err := sameKind[*FloatField](f, src)
	if err != nil {
		return err
	}
	f.value = s.value
	return nil
}
