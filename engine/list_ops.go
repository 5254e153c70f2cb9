package engine

import (
	"slices"

	"github.com/joshuapare/binkit/pkg/types"
)

// ListItems returns the records of a list field.
func (t *Types) ListItems(rid types.RecordID, fid string) ([]types.RecordID, error) {
	f, err := lookup[*ListField](t, rid, fid)
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.items), nil
}

func (t *Types) ListLen(rid types.RecordID, fid string) (int, error) {
	f, err := lookup[*ListField](t, rid, fid)
	if err != nil {
		return 0, err
	}
	return len(f.items), nil
}

// ListInsert places item at index, transferring it into rid's store when
// it lives elsewhere. It returns the item's id after any transfer.
func (t *Types) ListInsert(rid types.RecordID, fid string, index int, item types.RecordID) (types.RecordID, error) {
	f, err := lookup[*ListField](t, rid, fid)
	if err != nil {
		return types.NullRecord, err
	}
	if index < 0 || index > len(f.items) {
		return types.NullRecord, errIndex(fid, index, len(f.items))
	}
	if err := t.checkType(item, f.desc.Typename); err != nil {
		return types.NullRecord, err
	}
	item, err = t.adopt(rid, item)
	if err != nil {
		return types.NullRecord, err
	}
	f.items = slices.Insert(f.items, index, item)
	return item, t.renumber(f)
}

// ListAdd appends a fresh item and returns its id.
func (t *Types) ListAdd(rid types.RecordID, fid string) (types.RecordID, error) {
	f, err := lookup[*ListField](t, rid, fid)
	if err != nil {
		return types.NullRecord, err
	}
	item, err := t.New(rid.Store, f.desc.Typename)
	if err != nil {
		return types.NullRecord, err
	}
	f.items = append(f.items, item)
	return item, t.renumber(f)
}

// ListRemove detaches the item at index and returns it. The record stays
// registered; Delete it to drop it.
func (t *Types) ListRemove(rid types.RecordID, fid string, index int) (types.RecordID, error) {
	f, err := lookup[*ListField](t, rid, fid)
	if err != nil {
		return types.NullRecord, err
	}
	if index < 0 || index >= len(f.items) {
		return types.NullRecord, errIndex(fid, index, len(f.items))
	}
	item := f.items[index]
	f.items = slices.Delete(f.items, index, index+1)
	return item, t.renumber(f)
}

func (t *Types) ListSwap(rid types.RecordID, fid string, i, j int) error {
	f, err := lookup[*ListField](t, rid, fid)
	if err != nil {
		return err
	}
	for _, k := range []int{i, j} {
		if k < 0 || k >= len(f.items) {
			return errIndex(fid, k, len(f.items))
		}
	}
	f.items[i], f.items[j] = f.items[j], f.items[i]
	return t.renumber(f)
}

// renumber rewrites the item type's index field with each item's position.
func (t *Types) renumber(f *ListField) error {
	def, err := t.Definition(f.desc.Typename)
	if err != nil || def.index == "" {
		return err
	}
	for i, item := range f.items {
		if err := t.SetInt(item, def.index, int64(i)); err != nil {
			return err
		}
	}
	return nil
}
