package engine

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/joshuapare/binkit/pkg/types"
)

// ByteTransform is a reversible byte-wise transform applied to Bytes
// fields. index is the position of the enclosing record in its list.
type ByteTransform interface {
	Decode(b []byte, index int) []byte
	Encode(b []byte, index int) []byte
}

// XorTransform xors byte i of item n with Key[(n+i) % len(Key)].
type XorTransform struct {
	Key []byte
}

func (x XorTransform) apply(b []byte, index int) []byte {
	out := slices.Clone(b)
	if len(x.Key) == 0 {
		return out
	}
	for i := range out {
		out[i] ^= x.Key[(index+i)%len(x.Key)]
	}
	return out
}

func (x XorTransform) Decode(b []byte, index int) []byte { return x.apply(b, index) }
func (x XorTransform) Encode(b []byte, index int) []byte { return x.apply(b, index) }

// SubstitutionTransform maps every byte of item n through table
// n % len(tables). Each table must be a permutation.
type SubstitutionTransform struct {
	tables  [][256]byte
	inverse [][256]byte
}

// NewSubstitution validates tables and precomputes their inverses.
func NewSubstitution(tables [][256]byte) (*SubstitutionTransform, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("substitution: no tables: %w", types.ErrUndefinedType)
	}
	s := &SubstitutionTransform{tables: tables, inverse: make([][256]byte, len(tables))}
	for n, table := range tables {
		var seen [256]bool
		for i, v := range table {
			if seen[v] {
				return nil, fmt.Errorf("substitution table %d maps 0x%02x twice: %w", n, v, types.ErrUndefinedType)
			}
			seen[v] = true
			s.inverse[n][v] = byte(i)
		}
	}
	return s, nil
}

func substitute(b []byte, table *[256]byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = table[v]
	}
	return out
}

func (s *SubstitutionTransform) Decode(b []byte, index int) []byte {
	return substitute(b, &s.tables[index%len(s.tables)])
}

func (s *SubstitutionTransform) Encode(b []byte, index int) []byte {
	return substitute(b, &s.inverse[index%len(s.inverse)])
}

// BytesDesc describes a fixed-length byte run.
type BytesDesc struct {
	Meta
	Size      int
	Transform ByteTransform
}

// BytesField is a fixed-length byte run.
type BytesField struct {
	leaf
	desc  *BytesDesc
	value []byte
}

// NewBytes returns a bytes field template.
func NewBytes(d BytesDesc) *BytesField {
	return &BytesField{desc: &d, value: make([]byte, d.Size)}
}

func (f *BytesField) ID() string      { return f.desc.ID }
func (f *BytesField) Name() string    { return displayName(&f.desc.Meta) }
func (f *BytesField) Kind() Kind      { return KindBytes }
func (f *BytesField) Desc() BytesDesc { return *f.desc }
func (f *BytesField) Value() []byte   { return slices.Clone(f.value) }
func (f *BytesField) decoded() bool   { return true }

func (f *BytesField) clone() Field {
	return &BytesField{desc: f.desc, value: slices.Clone(f.value)}
}

func (f *BytesField) set(b []byte) error {
	if len(b) != f.desc.Size {
		return fmt.Errorf("%s: %d bytes, want %d: %w", f.desc.ID, len(b), f.desc.Size, types.ErrOutOfBounds)
	}
	f.value = slices.Clone(b)
	return nil
}

func (f *BytesField) byteAt(i int) (byte, error) {
	if i < 0 || i >= len(f.value) {
		return 0, errIndex(f.desc.ID, i, len(f.value))
	}
	return f.value[i], nil
}

func (f *BytesField) setByte(i int, v byte) error {
	if i < 0 || i >= len(f.value) {
		return errIndex(f.desc.ID, i, len(f.value))
	}
	f.value[i] = v
	return nil
}

func (f *BytesField) width(*Types) (int, error) { return f.desc.Size, nil }

func (f *BytesField) read(st *ReadState) error {
	b, err := st.readBytes(f.desc.Size)
	if err != nil {
		return err
	}
	if f.desc.Transform != nil {
		b = f.desc.Transform.Decode(b, st.currentIndex())
	}
	f.value = bytes.Clone(b)
	return nil
}

func (f *BytesField) write(st *WriteState) error {
	b := f.value
	if f.desc.Transform != nil {
		b = f.desc.Transform.Encode(b, st.currentIndex())
	}
	return st.writeBytes(b)
}

func (f *BytesField) copyFrom(_ *Types, src Field, _ types.StoreNumber) error {
	s, err := sameKind[*BytesField](f, src)
	if err != nil {
		return err
	}
	return f.set(s.value)
}
