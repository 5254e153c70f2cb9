package engine

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/joshuapare/binkit/pkg/types"
)

// FieldKind returns the kind of a record's field. A union reports its
// own kind, not its active variant's.
func (t *Types) FieldKind(rid types.RecordID, fid string) (Kind, error) {
	f, err := t.field(rid, fid)
	if err != nil {
		return 0, err
	}
	return f.Kind(), nil
}

func (t *Types) GetBool(rid types.RecordID, fid string) (bool, error) {
	f, err := lookup[*BoolField](t, rid, fid)
	if err != nil {
		return false, err
	}
	return f.value, nil
}

func (t *Types) SetBool(rid types.RecordID, fid string, v bool) error {
	f, err := lookup[*BoolField](t, rid, fid)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

func (t *Types) GetInt(rid types.RecordID, fid string) (int64, error) {
	f, err := lookup[*IntField](t, rid, fid)
	if err != nil {
		return 0, err
	}
	return f.value, nil
}

// SetInt stores v, failing with a bounds error when the field's format
// cannot represent it.
func (t *Types) SetInt(rid types.RecordID, fid string, v int64) error {
	f, err := lookup[*IntField](t, rid, fid)
	if err != nil {
		return err
	}
	return f.set(v)
}

// IntRange returns the representable range of an Int field.
func (t *Types) IntRange(rid types.RecordID, fid string) (lo, hi int64, err error) {
	f, err := lookup[*IntField](t, rid, fid)
	if err != nil {
		return 0, 0, err
	}
	lo, hi = f.Range()
	return lo, hi, nil
}

func (t *Types) GetFloat(rid types.RecordID, fid string) (float32, error) {
	f, err := lookup[*FloatField](t, rid, fid)
	if err != nil {
		return 0, err
	}
	return f.value, nil
}

func (t *Types) SetFloat(rid types.RecordID, fid string, v float32) error {
	f, err := lookup[*FloatField](t, rid, fid)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

func (t *Types) GetString(rid types.RecordID, fid string) (string, error) {
	f, err := lookup[*StringField](t, rid, fid)
	if err != nil {
		return "", err
	}
	return f.value, nil
}

func (t *Types) SetString(rid types.RecordID, fid, v string) error {
	f, err := lookup[*StringField](t, rid, fid)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

func (t *Types) GetLabel(rid types.RecordID, fid string) (string, error) {
	f, err := lookup[*LabelField](t, rid, fid)
	if err != nil {
		return "", err
	}
	return f.value, nil
}

func (t *Types) SetLabel(rid types.RecordID, fid, v string) error {
	f, err := lookup[*LabelField](t, rid, fid)
	if err != nil {
		return err
	}
	f.value = v
	return nil
}

// GetMessage returns the text table key of a Message field.
func (t *Types) GetMessage(rid types.RecordID, fid string) (string, error) {
	f, err := lookup[*MessageField](t, rid, fid)
	if err != nil {
		return "", err
	}
	return f.value, nil
}

func (t *Types) SetMessage(rid types.RecordID, fid, key string) error {
	f, err := lookup[*MessageField](t, rid, fid)
	if err != nil {
		return err
	}
	f.value = key
	return nil
}

func (t *Types) GetBytes(rid types.RecordID, fid string) ([]byte, error) {
	f, err := lookup[*BytesField](t, rid, fid)
	if err != nil {
		return nil, err
	}
	return slices.Clone(f.value), nil
}

// SetBytes replaces the whole run; len(v) must equal the field size.
func (t *Types) SetBytes(rid types.RecordID, fid string, v []byte) error {
	f, err := lookup[*BytesField](t, rid, fid)
	if err != nil {
		return err
	}
	return f.set(v)
}

func (t *Types) GetByte(rid types.RecordID, fid string, i int) (byte, error) {
	f, err := lookup[*BytesField](t, rid, fid)
	if err != nil {
		return 0, err
	}
	return f.byteAt(i)
}

func (t *Types) SetByte(rid types.RecordID, fid string, i int, v byte) error {
	f, err := lookup[*BytesField](t, rid, fid)
	if err != nil {
		return err
	}
	return f.setByte(i, v)
}

func (t *Types) GetRecord(rid types.RecordID, fid string) (types.RecordID, error) {
	f, err := lookup[*RecordField](t, rid, fid)
	if err != nil {
		return types.NullRecord, err
	}
	return f.value, nil
}

// SetRecord assigns an owned child. A child from another store is
// transferred into rid's store first and the new id is returned.
func (t *Types) SetRecord(rid types.RecordID, fid string, child types.RecordID) (types.RecordID, error) {
	f, err := lookup[*RecordField](t, rid, fid)
	if err != nil {
		return types.NullRecord, err
	}
	if child.IsNull() {
		f.value = types.NullRecord
		return child, nil
	}
	if err := t.checkType(child, f.desc.Typename); err != nil {
		return types.NullRecord, err
	}
	child, err = t.adopt(rid, child)
	if err != nil {
		return types.NullRecord, err
	}
	f.value = child
	return child, nil
}

func (t *Types) GetReference(rid types.RecordID, fid string) (types.RecordID, error) {
	f, err := lookup[*ReferenceField](t, rid, fid)
	if err != nil {
		return types.NullRecord, err
	}
	return f.value, nil
}

// SetReference points a non-owning reference at target. Ownership is not
// affected.
func (t *Types) SetReference(rid types.RecordID, fid string, target types.RecordID) error {
	f, err := lookup[*ReferenceField](t, rid, fid)
	if err != nil {
		return err
	}
	if !target.IsNull() && !t.Exists(target) {
		return fmt.Errorf("reference target %s: %w", target, types.ErrNoRecord)
	}
	f.value = target
	return nil
}

// UnionVariant returns the active candidate index, -1 when none.
func (t *Types) UnionVariant(rid types.RecordID, fid string) (int, error) {
	f, err := t.union(rid, fid)
	if err != nil {
		return 0, err
	}
	return f.active, nil
}

// SetUnionVariant selects the candidate at index i.
func (t *Types) SetUnionVariant(rid types.RecordID, fid string, i int) error {
	f, err := t.union(rid, fid)
	if err != nil {
		return err
	}
	return f.setActive(i)
}

func (t *Types) union(rid types.RecordID, fid string) (*UnionField, error) {
	f, err := t.field(rid, fid)
	if err != nil {
		return nil, err
	}
	u, ok := f.(*UnionField)
	if !ok {
		return nil, errFieldKind(rid, fid, f.Kind(), KindUnion.String())
	}
	return u, nil
}

func (t *Types) checkType(rid types.RecordID, want string) error {
	got, err := t.Typename(rid)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%s is %s, want %s: %w", rid, got, want, ErrTypeMismatch)
	}
	return nil
}

// adopt makes child live in owner's store, transferring it when needed.
func (t *Types) adopt(owner, child types.RecordID) (types.RecordID, error) {
	if child.Store == owner.Store {
		return child, nil
	}
	return t.transfer(child, owner.Store)
}

// transfer re-registers rid and its owned sub-graph in store. The old ids
// stop resolving.
func (t *Types) transfer(rid types.RecordID, store types.StoreNumber) (types.RecordID, error) {
	rec, err := t.Record(rid)
	if err != nil {
		return types.NullRecord, err
	}
	delete(t.instances, rid)
	nid := t.Register(store, rec)
	for name, b := range t.tables {
		if b.Owner == rid {
			t.tables[name] = TableBinding{Owner: nid, Field: b.Field}
		}
	}
	for _, f := range rec.fields {
		for _, child := range f.owned() {
			if child.Store == store || !t.Exists(child) {
				continue
			}
			nc, err := t.transfer(child, store)
			if err != nil {
				return types.NullRecord, err
			}
			f.replaceOwned(child, nc)
		}
	}
	return nid, nil
}

// Key returns the value of the type's key field, "" when it has none.
func (t *Types) Key(rid types.RecordID) (string, error) {
	rec, err := t.Record(rid)
	if err != nil {
		return "", err
	}
	return t.fieldText(rid, rec.def.key)
}

// DisplayName returns the display field, falling back to the key and
// then to "Type rid".
func (t *Types) DisplayName(rid types.RecordID) (string, error) {
	rec, err := t.Record(rid)
	if err != nil {
		return "", err
	}
	for _, id := range []string{rec.def.display, rec.def.key} {
		s, err := t.fieldText(rid, id)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
	}
	return rec.Typename() + " " + rid.String(), nil
}

// Icon returns the value of the type's icon field.
func (t *Types) Icon(rid types.RecordID) (string, error) {
	rec, err := t.Record(rid)
	if err != nil {
		return "", err
	}
	return t.fieldText(rid, rec.def.icon)
}

func (t *Types) fieldText(rid types.RecordID, fid string) (string, error) {
	if fid == "" {
		return "", nil
	}
	f, err := t.field(rid, fid)
	if err != nil {
		return "", err
	}
	if u, ok := f.(*UnionField); ok {
		if f = u.Active(); f == nil {
			return "", nil
		}
	}
	switch v := f.(type) {
	case *StringField:
		return v.value, nil
	case *LabelField:
		return v.value, nil
	case *MessageField:
		return v.value, nil
	case *IntField:
		return strconv.FormatInt(v.value, 10), nil
	default:
		return "", errFieldKind(rid, fid, f.Kind(), "text")
	}
}

// Copy overwrites dst's fields with src's, except fields the type excludes
// from copying. Owned records are duplicated into dst's store.
func (t *Types) Copy(src, dst types.RecordID) error {
	s, err := t.Record(src)
	if err != nil {
		return err
	}
	d, err := t.Record(dst)
	if err != nil {
		return err
	}
	if s.def != d.def {
		return fmt.Errorf("copy %s into %s: %w", s.Typename(), d.Typename(), ErrTypeMismatch)
	}
	for i, f := range d.fields {
		if d.def.CopyExcluded(f.ID()) {
			continue
		}
		if err := f.copyFrom(t, s.fields[i], dst.Store); err != nil {
			return types.Frame(err, d.Typename(), f.ID(), -1)
		}
	}
	return nil
}

// Duplicate deep-copies src and its owned sub-graph into store.
func (t *Types) Duplicate(src types.RecordID, store types.StoreNumber) (types.RecordID, error) {
	s, err := t.Record(src)
	if err != nil {
		return types.NullRecord, err
	}
	rec := s.def.instantiate()
	nid := t.Register(store, rec)
	for i, f := range rec.fields {
		if err := f.copyFrom(t, s.fields[i], store); err != nil {
			return types.NullRecord, types.Frame(err, s.Typename(), f.ID(), -1)
		}
	}
	return nid, nil
}
