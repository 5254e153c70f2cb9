package engine

import (
	"fmt"
	"slices"

	"github.com/joshuapare/binkit/pkg/types"
)

// ListDesc describes an owned sequence of records.
type ListDesc struct {
	Meta
	Typename string
	Count    ListFormat
	// Table, when set, registers the list as a reference table and the
	// items' addresses as known records of that table.
	Table string
}

// ListField owns an ordered sequence of records.
type ListField struct {
	desc  *ListDesc
	items []types.RecordID
}

// NewList returns a list field template.
func NewList(d ListDesc) *ListField {
	return &ListField{desc: &d}
}

func (f *ListField) ID() string              { return f.desc.ID }
func (f *ListField) Name() string            { return displayName(&f.desc.Meta) }
func (f *ListField) Kind() Kind              { return KindList }
func (f *ListField) Desc() ListDesc          { return *f.desc }
func (f *ListField) Items() []types.RecordID { return slices.Clone(f.items) }
func (f *ListField) Len() int                { return len(f.items) }
func (f *ListField) decoded() bool           { return len(f.items) > 0 }
func (f *ListField) owned() []types.RecordID { return slices.Clone(f.items) }

func (f *ListField) clone() Field {
	return &ListField{desc: f.desc, items: slices.Clone(f.items)}
}

func (f *ListField) replaceOwned(old, repl types.RecordID) {
	for i, rid := range f.items {
		if rid == old {
			f.items[i] = repl
		}
	}
}

// Lists occupy no fixed bytes; items are inserted where the list sits.
func (f *ListField) width(t *Types) (int, error) {
	if _, err := t.Definition(f.desc.Typename); err != nil {
		return 0, err
	}
	return 0, nil
}

func (f *ListField) read(st *ReadState) error {
	f.items = nil
	if err := f.desc.Count.readItems(st, f); err != nil {
		return err
	}
	if f.desc.Table != "" {
		owner, fid := st.owner()
		st.types.bindTable(f.desc.Table, owner, fid)
	}
	return nil
}

func (f *ListField) write(st *WriteState) error { return f.desc.Count.writeItems(st, f) }

func (f *ListField) copyFrom(t *Types, src Field, store types.StoreNumber) error {
	s, err := sameKind[*ListField](f, src)
	if err != nil {
		return err
	}
	items := make([]types.RecordID, 0, len(s.items))
	for _, rid := range s.items {
		dup, err := t.Duplicate(rid, store)
		if err != nil {
			return err
		}
		items = append(items, dup)
	}
	f.items = items
	return nil
}

func itemFrame(err error, i int) error {
	return types.Frame(err, "", fmt.Sprintf("[%d]", i), -1)
}

func (f *ListField) itemSize(t *Types) (int, error) {
	n, err := t.TypeSize(f.desc.Typename)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("list of zero-size %s: %w", f.desc.Typename, types.ErrUndefinedType)
	}
	return n, nil
}

func (f *ListField) readSequential(st *ReadState, count int) error {
	if count < 0 {
		return fmt.Errorf("list count %d: %w", count, types.ErrOutOfBounds)
	}
	for i := range count {
		st.pushIndex(i)
		rid, err := st.readRecord(f.desc.Typename, f.desc.Table)
		st.popIndex()
		if err != nil {
			return itemFrame(err, i)
		}
		f.items = append(f.items, rid)
	}
	return nil
}

func (f *ListField) readScattered(st *ReadState, addrs []int) error {
	for i, addr := range addrs {
		st.pushIndex(i)
		rid, err := st.readAt(addr, f.desc.Typename, f.desc.Table)
		st.popIndex()
		if err != nil {
			return itemFrame(err, i)
		}
		f.items = append(f.items, rid)
	}
	return nil
}

func (f *ListField) writeSequential(st *WriteState) error {
	for i, rid := range f.items {
		st.pushIndex(i)
		_, err := st.writeRecord(rid, true)
		st.popIndex()
		if err != nil {
			return itemFrame(err, i)
		}
	}
	return nil
}

// writeAppended writes every item at the end of the archive.
func (f *ListField) writeAppended(st *WriteState) error {
	for i, rid := range f.items {
		save := st.toEnd()
		st.pushIndex(i)
		_, err := st.writeRecord(rid, true)
		st.popIndex()
		st.cursor = save
		if err != nil {
			return itemFrame(err, i)
		}
	}
	return nil
}
