package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

// StringDesc describes a string. With InlineSize zero the string lives in
// the archive text region behind a 4-byte text pointer; otherwise it is a
// NUL-padded run of InlineSize bytes inside the record.
type StringDesc struct {
	Meta
	InlineSize int
	Default    string
}

// StringField is a text value.
type StringField struct {
	leaf
	desc  *StringDesc
	value string
}

// NewString returns a string field template.
func NewString(d StringDesc) *StringField {
	return &StringField{desc: &d, value: d.Default}
}

func (f *StringField) ID() string       { return f.desc.ID }
func (f *StringField) Name() string     { return displayName(&f.desc.Meta) }
func (f *StringField) Kind() Kind       { return KindString }
func (f *StringField) Desc() StringDesc { return *f.desc }
func (f *StringField) Value() string    { return f.value }
func (f *StringField) decoded() bool    { return f.value != "" }
func (f *StringField) clone() Field     { c := *f; return &c }

func (f *StringField) width(*Types) (int, error) {
	if f.desc.InlineSize > 0 {
		return f.desc.InlineSize, nil
	}
	return 4, nil
}

func (f *StringField) read(st *ReadState) error {
	if f.desc.InlineSize == 0 {
		s, err := st.readText()
		if err != nil {
			return err
		}
		f.value = s
		return nil
	}
	b, err := st.readBytes(f.desc.InlineSize)
	if err != nil {
		return err
	}
	s, err := st.arc.Codec().DecodeZ(b)
	if err != nil {
		return err
	}
	f.value = s
	return nil
}

func (f *StringField) write(st *WriteState) error {
	if f.desc.InlineSize == 0 {
		return st.writeText(f.value)
	}
	enc, err := st.arc.Codec().Encode(f.value)
	if err != nil {
		return err
	}
	if len(enc) > f.desc.InlineSize {
		return fmt.Errorf("%q needs %d bytes, field holds %d: %w", f.value, len(enc), f.desc.InlineSize, types.ErrOutOfBounds)
	}
	b := make([]byte, f.desc.InlineSize)
	copy(b, enc)
	return st.writeBytes(b)
}

func (f *StringField) copyFrom(_ *Types, src Field, _ types.StoreNumber) error {
	s, err := sameKind[*StringField](f, src)
	if err != nil {
		return err
	}
	f.value = s.value
	return nil
}

// LabelDesc describes a zero-width field naming the archive label bound
// to the record's current position.
type LabelDesc struct {
	Meta
	// Index selects among several aliases at the same address.
	Index int
}

// LabelField is a symbolic name for an address.
type LabelField struct {
	leaf
	desc  *LabelDesc
	value string
}

// NewLabel returns a label field template.
func NewLabel(d LabelDesc) *LabelField {
	return &LabelField{desc: &d}
}

func (f *LabelField) ID() string      { return f.desc.ID }
func (f *LabelField) Name() string    { return displayName(&f.desc.Meta) }
func (f *LabelField) Kind() Kind      { return KindLabel }
func (f *LabelField) Desc() LabelDesc { return *f.desc }
func (f *LabelField) Value() string   { return f.value }
func (f *LabelField) decoded() bool   { return f.value != "" }
func (f *LabelField) clone() Field    { c := *f; return &c }

func (f *LabelField) width(*Types) (int, error) { return 0, nil }

func (f *LabelField) read(st *ReadState) error {
	f.value = ""
	if names := st.arc.Labels(st.cursor); f.desc.Index < len(names) {
		f.value = names[f.desc.Index]
	}
	return nil
}

func (f *LabelField) write(st *WriteState) error {
	if f.value != "" {
		if _, err := st.arc.Codec().EncodeZ(f.value); err != nil {
			return err
		}
		st.addLabel(st.cursor, f.value)
	}
	return nil
}

func (f *LabelField) copyFrom(_ *Types, src Field, _ types.StoreNumber) error {
	s, err := sameKind[*LabelField](f, src)
	if err != nil {
		return err
	}
	f.value = s.value
	return nil
}

// MessageDesc describes a key into an external text table.
type MessageDesc struct {
	Meta
	// Path names the text table file.
	Path      string
	Localized bool
}

// MessageField holds the key of a localized message. The text itself is
// resolved through the TextTable attached to Types.
type MessageField struct {
	leaf
	desc  *MessageDesc
	value string
}

// NewMessage returns a message field template.
func NewMessage(d MessageDesc) *MessageField {
	return &MessageField{desc: &d}
}

func (f *MessageField) ID() string        { return f.desc.ID }
func (f *MessageField) Name() string      { return displayName(&f.desc.Meta) }
func (f *MessageField) Kind() Kind        { return KindMessage }
func (f *MessageField) Desc() MessageDesc { return *f.desc }
func (f *MessageField) Value() string     { return f.value }
func (f *MessageField) decoded() bool     { return f.value != "" }
func (f *MessageField) clone() Field      { c := *f; return &c }

func (f *MessageField) width(*Types) (int, error) { return 4, nil }

func (f *MessageField) read(st *ReadState) error {
	s, err := st.readText()
	if err != nil {
		return err
	}
	f.value = s
	return nil
}

func (f *MessageField) write(st *WriteState) error { return st.writeText(f.value) }

func (f *MessageField) copyFrom(_ *Types, src Field, _ types.StoreNumber) error {
	s, err := sameKind[*MessageField](f, src)
	if err != nil {
		return err
	}
	f.value = s.value
	return nil
}
