package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

// Placement says where the record owned by a Record field is stored.
type Placement interface {
	width(t *Types, typename string) (int, error)
	readRecord(st *ReadState, f *RecordField) error
	writeRecord(st *WriteState, f *RecordField) error
}

// Inline stores the record inside its parent.
type Inline struct{}

// ConditionalInline stores the record inline only when the named Bool
// condition, set earlier in this record or an ancestor, is true.
type ConditionalInline struct {
	Flag string
}

// InlinePointer stores a pointer immediately followed by its pointee.
type InlinePointer struct{}

// Pointer stores a pointer; the pointee is appended at the end of the
// archive. DeferWrite postpones the pointee until the owning record is
// complete, DeferToParent hands it further up to the enclosing record.
type Pointer struct {
	DeferWrite    bool
	DeferToParent bool
}

// SharedPointer is Pointer with pointees deduplicated by identity.
type SharedPointer struct {
	DeferWrite    bool
	DeferToParent bool
}

// LabelAppend stores the record Offset bytes past a named label.
type LabelAppend struct {
	Label  string
	Offset int
}

// Append reserves a zero-filled record at the end of the archive. Nothing
// is read back.
type Append struct{}

// RecordDesc describes an owned child record.
type RecordDesc struct {
	Meta
	Typename  string
	Placement Placement
}

// RecordField owns one child record.
type RecordField struct {
	desc  *RecordDesc
	value types.RecordID
}

// NewRecord returns a record field template. A nil placement is Inline.
func NewRecord(d RecordDesc) *RecordField {
	if d.Placement == nil {
		d.Placement = Inline{}
	}
	return &RecordField{desc: &d}
}

func (f *RecordField) ID() string            { return f.desc.ID }
func (f *RecordField) Name() string          { return displayName(&f.desc.Meta) }
func (f *RecordField) Kind() Kind            { return KindRecord }
func (f *RecordField) Desc() RecordDesc      { return *f.desc }
func (f *RecordField) Value() types.RecordID { return f.value }
func (f *RecordField) decoded() bool         { return !f.value.IsNull() }
func (f *RecordField) clone() Field          { c := *f; return &c }

func (f *RecordField) owned() []types.RecordID {
	if f.value.IsNull() {
		return nil
	}
	return []types.RecordID{f.value}
}

func (f *RecordField) replaceOwned(old, repl types.RecordID) {
	if f.value == old {
		f.value = repl
	}
}

func (f *RecordField) width(t *Types) (int, error) {
	return f.desc.Placement.width(t, f.desc.Typename)
}

func (f *RecordField) read(st *ReadState) error   { return f.desc.Placement.readRecord(st, f) }
func (f *RecordField) write(st *WriteState) error { return f.desc.Placement.writeRecord(st, f) }

func (f *RecordField) copyFrom(t *Types, src Field, store types.StoreNumber) error {
	s, err := sameKind[*RecordField](f, src)
	if err != nil {
		return err
	}
	if s.value.IsNull() {
		f.value = types.NullRecord
		return nil
	}
	dup, err := t.Duplicate(s.value, store)
	if err != nil {
		return err
	}
	f.value = dup
	return nil
}

// emitPointee appends the record at the end of the archive and points slot
// at it.
func (f *RecordField) emitPointee(st *WriteState, slot int) error {
	_, shared := f.desc.Placement.(SharedPointer)
	if shared {
		if addr, ok := st.shared[f.value]; ok {
			return st.arc.SetPointer(slot, addr)
		}
	}
	save := st.toEnd()
	addr, err := st.writeRecord(f.value, true)
	st.cursor = save
	if err != nil {
		return err
	}
	if shared {
		st.shared[f.value] = addr
	}
	return st.arc.SetPointer(slot, addr)
}

func (Inline) width(t *Types, typename string) (int, error) { return t.TypeSize(typename) }

func (Inline) readRecord(st *ReadState, f *RecordField) error {
	rid, err := st.readRecord(f.desc.Typename, "")
	if err != nil {
		return err
	}
	f.value = rid
	return nil
}

func (Inline) writeRecord(st *WriteState, f *RecordField) error {
	if f.value.IsNull() {
		return fmt.Errorf("inline %s: %w", f.desc.Typename, ErrValueRequired)
	}
	_, err := st.writeRecord(f.value, false)
	return err
}

func (ConditionalInline) width(*Types, string) (int, error) { return 0, nil }

func (p ConditionalInline) readRecord(st *ReadState, f *RecordField) error {
	present, err := st.condition(p.Flag)
	if err != nil {
		return err
	}
	f.value = types.NullRecord
	if !present {
		return nil
	}
	rid, err := st.readRecord(f.desc.Typename, "")
	if err != nil {
		return err
	}
	f.value = rid
	return nil
}

func (p ConditionalInline) writeRecord(st *WriteState, f *RecordField) error {
	present, err := st.condition(p.Flag)
	if err != nil {
		return err
	}
	if present == f.value.IsNull() {
		return fmt.Errorf("%s=%t with value %s: %w", p.Flag, present, f.value, ErrConditionMismatch)
	}
	if !present {
		return nil
	}
	_, err = st.writeRecord(f.value, true)
	return err
}

func (InlinePointer) width(*Types, string) (int, error) { return 4, nil }

func (InlinePointer) readRecord(st *ReadState, f *RecordField) error {
	target, ok, err := st.readPointer()
	if err != nil {
		return err
	}
	f.value = types.NullRecord
	if !ok {
		return nil
	}
	st.cursor = target
	rid, err := st.readRecord(f.desc.Typename, "")
	if err != nil {
		return err
	}
	f.value = rid
	return nil
}

func (InlinePointer) writeRecord(st *WriteState, f *RecordField) error {
	slot := st.cursor
	st.cursor += 4
	if f.value.IsNull() {
		st.arc.ClearPointer(slot)
		return nil
	}
	addr, err := st.writeRecord(f.value, true)
	if err != nil {
		return err
	}
	return st.arc.SetPointer(slot, addr)
}

func (Pointer) width(*Types, string) (int, error) { return 4, nil }

func (Pointer) readRecord(st *ReadState, f *RecordField) error {
	return readPointee(st, f, false)
}

func (p Pointer) writeRecord(st *WriteState, f *RecordField) error {
	return writePointer(st, f, p.DeferWrite, p.DeferToParent)
}

func (SharedPointer) width(*Types, string) (int, error) { return 4, nil }

func (SharedPointer) readRecord(st *ReadState, f *RecordField) error {
	return readPointee(st, f, true)
}

func (p SharedPointer) writeRecord(st *WriteState, f *RecordField) error {
	return writePointer(st, f, p.DeferWrite, p.DeferToParent)
}

func readPointee(st *ReadState, f *RecordField, shared bool) error {
	target, ok, err := st.readPointer()
	if err != nil {
		return err
	}
	f.value = types.NullRecord
	if !ok {
		return nil
	}
	if shared {
		if rid, hit := st.shared[target]; hit && st.types.Exists(rid) {
			f.value = rid
			return nil
		}
	}
	rid, err := st.readAt(target, f.desc.Typename, "")
	if err != nil {
		return err
	}
	if shared {
		st.shared[target] = rid
	}
	f.value = rid
	return nil
}

func writePointer(st *WriteState, f *RecordField, deferWrite, toParent bool) error {
	slot := st.cursor
	st.cursor += 4
	if f.value.IsNull() {
		st.arc.ClearPointer(slot)
		return nil
	}
	if deferWrite {
		owner, fid := st.owner()
		frame := st.frame()
		frame.deferred = append(frame.deferred, deferredWrite{slot: slot, owner: owner, field: fid, toParent: toParent})
		return nil
	}
	return f.emitPointee(st, slot)
}

func (LabelAppend) width(*Types, string) (int, error) { return 0, nil }

func (p LabelAppend) readRecord(st *ReadState, f *RecordField) error {
	addr, err := st.arc.LabelAddress(p.Label)
	if err != nil {
		return err
	}
	rid, err := st.readAt(addr+p.Offset, f.desc.Typename, "")
	if err != nil {
		return err
	}
	f.value = rid
	return nil
}

func (p LabelAppend) writeRecord(st *WriteState, f *RecordField) error {
	if f.value.IsNull() {
		return fmt.Errorf("label %q %s: %w", p.Label, f.desc.Typename, ErrValueRequired)
	}
	save := st.toEnd()
	start := st.cursor
	if err := st.insert(p.Offset); err != nil {
		st.cursor = save
		return err
	}
	st.cursor += p.Offset
	_, err := st.writeRecord(f.value, true)
	st.cursor = save
	if err != nil {
		return err
	}
	return st.arc.AddLabel(start, p.Label)
}

func (Append) width(*Types, string) (int, error) { return 0, nil }

func (Append) readRecord(_ *ReadState, f *RecordField) error {
	f.value = types.NullRecord
	return nil
}

func (Append) writeRecord(st *WriteState, f *RecordField) error {
	size, err := st.types.TypeSize(f.desc.Typename)
	if err != nil {
		return err
	}
	save := st.toEnd()
	err = st.insert(size)
	st.cursor = save
	return err
}
