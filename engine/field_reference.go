package engine

import (
	"slices"
	"strings"

	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/pkg/types"
)

// RefFormat is the on-disk encoding of a non-owning reference.
type RefFormat interface {
	width() int
	readRef(st *ReadState, f *ReferenceField) error
	writeRef(st *WriteState, f *ReferenceField) error
}

// ByPointer stores the target's address as an internal pointer.
type ByPointer struct{}

// ByIndex stores the target's position in the table.
type ByIndex struct {
	Format IntFormat
	// Null is the raw value of an empty reference.
	Null int64
}

// ByKey stores the target's key as a text pointer, with Prefix removed.
type ByKey struct {
	Prefix string
}

// ByField stores the value of the target's Int field Field.
type ByField struct {
	Field  string
	Format IntFormat
	Null   int64
}

// ReferenceDesc describes a non-owning link into a table.
type ReferenceDesc struct {
	Meta
	Table  string
	Format RefFormat
}

// ReferenceField is a non-owning link to another record. Reads capture
// the raw link and queue it; the value is filled in by
// ReadReferences.Resolve.
type ReferenceField struct {
	leaf
	desc     *ReferenceDesc
	value    types.RecordID
	captured bool
}

// NewReference returns a reference field template. A nil format is ByPointer.
func NewReference(d ReferenceDesc) *ReferenceField {
	if d.Format == nil {
		d.Format = ByPointer{}
	}
	return &ReferenceField{desc: &d}
}

func (f *ReferenceField) ID() string            { return f.desc.ID }
func (f *ReferenceField) Name() string          { return displayName(&f.desc.Meta) }
func (f *ReferenceField) Kind() Kind            { return KindReference }
func (f *ReferenceField) Desc() ReferenceDesc   { return *f.desc }
func (f *ReferenceField) Value() types.RecordID { return f.value }
func (f *ReferenceField) decoded() bool         { return f.captured || !f.value.IsNull() }
func (f *ReferenceField) clone() Field          { c := *f; return &c }

func (f *ReferenceField) width(*Types) (int, error) { return f.desc.Format.width(), nil }

func (f *ReferenceField) read(st *ReadState) error {
	f.value = types.NullRecord
	f.captured = false
	return f.desc.Format.readRef(st, f)
}

func (f *ReferenceField) write(st *WriteState) error { return f.desc.Format.writeRef(st, f) }

func (f *ReferenceField) copyFrom(_ *Types, src Field, _ types.StoreNumber) error {
	s, err := sameKind[*ReferenceField](f, src)
	if err != nil {
		return err
	}
	f.value = s.value
	return nil
}

func (f *ReferenceField) request(st *ReadState, kind requestKind) readRequest {
	owner, fid := st.owner()
	f.captured = true
	return readRequest{kind: kind, owner: owner, field: fid, table: f.desc.Table}
}

// tablePosition returns the index of f's target in its table, -1 when the
// target is not listed.
func (f *ReferenceField) tablePosition(t *Types) int {
	items, err := t.TableItems(f.desc.Table)
	if err != nil {
		return -1
	}
	return slices.Index(items, f.value)
}

func (ByPointer) width() int { return 4 }

func (ByPointer) readRef(st *ReadState, f *ReferenceField) error {
	target, ok, err := st.readPointer()
	if err != nil || !ok {
		return err
	}
	req := f.request(st, requestPointer)
	req.store = st.store
	req.offset = target
	st.refs.add(req)
	if f.desc.Table != "" {
		st.refs.noteTableAddress(st.store, f.desc.Table, target)
	}
	return nil
}

func (ByPointer) writeRef(st *WriteState, f *ReferenceField) error {
	slot := st.cursor
	st.cursor += 4
	if f.value.IsNull() {
		st.arc.ClearPointer(slot)
		return nil
	}
	st.refs.addPointer(slot, f.value)
	return nil
}

func (b ByIndex) width() int { return b.Format.Size() }

func (b ByIndex) readRef(st *ReadState, f *ReferenceField) error {
	raw, err := st.readInt(b.Format)
	if err != nil || raw == b.Null {
		return err
	}
	req := f.request(st, requestIndex)
	req.index = raw
	st.refs.add(req)
	return nil
}

func (b ByIndex) writeRef(st *WriteState, f *ReferenceField) error {
	if f.value.IsNull() {
		return st.writeInt(b.Format, b.Null)
	}
	idx := f.tablePosition(st.types)
	if idx < 0 {
		logger.Warn("reference target not in table", "table", f.desc.Table, "target", f.value.String())
		return st.writeInt(b.Format, b.Null)
	}
	return st.writeInt(b.Format, int64(idx))
}

func (ByKey) width() int { return 4 }

func (b ByKey) readRef(st *ReadState, f *ReferenceField) error {
	key, err := st.readText()
	if err != nil || key == "" {
		return err
	}
	req := f.request(st, requestKey)
	req.key = b.Prefix + key
	st.refs.add(req)
	return nil
}

func (b ByKey) writeRef(st *WriteState, f *ReferenceField) error {
	if f.value.IsNull() {
		return st.writeText("")
	}
	key, err := st.types.Key(f.value)
	if err != nil {
		return err
	}
	key, _ = strings.CutPrefix(key, b.Prefix)
	return st.writeText(key)
}

func (b ByField) width() int { return b.Format.Size() }

func (b ByField) readRef(st *ReadState, f *ReferenceField) error {
	raw, err := st.readInt(b.Format)
	if err != nil || raw == b.Null {
		return err
	}
	req := f.request(st, requestField)
	req.fieldID = b.Field
	req.index = raw
	st.refs.add(req)
	return nil
}

func (b ByField) writeRef(st *WriteState, f *ReferenceField) error {
	if f.value.IsNull() {
		return st.writeInt(b.Format, b.Null)
	}
	v, err := st.types.GetInt(f.value, b.Field)
	if err != nil {
		return err
	}
	return st.writeInt(b.Format, v)
}
