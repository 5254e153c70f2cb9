package engine

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/pkg/types"
)

// TableBinding names the list that backs a reference table.
type TableBinding struct {
	Owner types.RecordID
	Field string
}

// Types is the schema table plus the live instance registry.
type Types struct {
	defs      map[string]*TypeDefinition
	sizes     map[string]int
	fixed     map[string]int
	sizing    map[string]bool
	instances map[types.RecordID]*Record
	counters  map[types.StoreNumber]uint32
	nextStore types.StoreNumber
	tables    map[string]TableBinding
	text      TextTable
}

// NewTypes returns a registry holding defs.
func NewTypes(defs ...*TypeDefinition) (*Types, error) {
	t := &Types{
		defs:      make(map[string]*TypeDefinition),
		sizes:     make(map[string]int),
		fixed:     make(map[string]int),
		sizing:    make(map[string]bool),
		instances: make(map[types.RecordID]*Record),
		counters:  make(map[types.StoreNumber]uint32),
		tables:    make(map[string]TableBinding),
	}
	for _, d := range defs {
		if err := t.Define(d); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Define adds a type to the schema table.
func (t *Types) Define(def *TypeDefinition) error {
	if _, dup := t.defs[def.name]; dup {
		return fmt.Errorf("type %s defined twice: %w", def.name, types.ErrUndefinedType)
	}
	t.defs[def.name] = def
	clear(t.sizes)
	clear(t.fixed)
	return nil
}

// Definition looks up a type by name.
func (t *Types) Definition(name string) (*TypeDefinition, error) {
	def, ok := t.defs[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, types.ErrUndefinedType)
	}
	return def, nil
}

// Definitions returns the defined type names, sorted.
func (t *Types) Definitions() []string {
	return slices.Sorted(maps.Keys(t.defs))
}

// Validate checks that every type named by a field exists and that every
// type's fields fit its size.
func (t *Types) Validate() error {
	for _, name := range t.Definitions() {
		def := t.defs[name]
		for _, f := range def.fields {
			for _, ref := range referencedTypes(f) {
				if _, err := t.Definition(ref); err != nil {
					return fmt.Errorf("type %s field %s: %w", name, f.ID(), err)
				}
			}
		}
		if _, err := t.TypeSize(name); err != nil {
			return err
		}
	}
	return nil
}

func referencedTypes(f Field) []string {
	switch v := f.(type) {
	case *RecordField:
		return []string{v.desc.Typename}
	case *ListField:
		return []string{v.desc.Typename}
	case *UnionField:
		var out []string
		for _, c := range v.variants {
			out = append(out, referencedTypes(c)...)
		}
		return out
	}
	return nil
}

// TypeSize returns the fixed size of a type in bytes.
func (t *Types) TypeSize(name string) (int, error) {
	if n, ok := t.sizes[name]; ok {
		return n, nil
	}
	def, err := t.Definition(name)
	if err != nil {
		return 0, err
	}
	if t.sizing[name] {
		return 0, fmt.Errorf("type %s contains itself inline: %w", name, types.ErrUndefinedType)
	}
	t.sizing[name] = true
	defer delete(t.sizing, name)

	fixed := 0
	for _, f := range def.fields {
		w, err := f.width(t)
		if err != nil {
			return 0, fmt.Errorf("type %s field %s: %w", name, f.ID(), err)
		}
		fixed += w
	}
	size := def.size
	if size == 0 {
		size = fixed
	}
	if fixed > size {
		return 0, fmt.Errorf("type %s: %d bytes of fields in %d: %w", name, fixed, size, ErrSize)
	}
	t.sizes[name] = size
	t.fixed[name] = fixed
	return size, nil
}

// padding returns the bytes between the last field and the end of the type.
func (t *Types) padding(name string) (int, error) {
	size, err := t.TypeSize(name)
	if err != nil {
		return 0, err
	}
	return size - t.fixed[name], nil
}

// Instantiate creates an unregistered record with default field values.
func (t *Types) Instantiate(name string) (*Record, error) {
	def, err := t.Definition(name)
	if err != nil {
		return nil, err
	}
	return def.instantiate(), nil
}

// AllocateStore returns a fresh store number. Store numbers start at 1.
func (t *Types) AllocateStore() types.StoreNumber {
	t.nextStore++
	return t.nextStore
}

// Register stores rec under a new RecordID in store. Record numbers are
// never reused within a store.
func (t *Types) Register(store types.StoreNumber, rec *Record) types.RecordID {
	if store > t.nextStore {
		t.nextStore = store
	}
	t.counters[store]++
	rid := types.RecordID{Store: store, Number: t.counters[store]}
	t.instances[rid] = rec
	return rid
}

// New instantiates and registers a record.
func (t *Types) New(store types.StoreNumber, name string) (types.RecordID, error) {
	rec, err := t.Instantiate(name)
	if err != nil {
		return types.NullRecord, err
	}
	return t.Register(store, rec), nil
}

// Record returns the live record for rid.
func (t *Types) Record(rid types.RecordID) (*Record, error) {
	rec, ok := t.instances[rid]
	if !ok {
		return nil, fmt.Errorf("%s: %w", rid, types.ErrNoRecord)
	}
	return rec, nil
}

// Exists reports whether rid names a live record.
func (t *Types) Exists(rid types.RecordID) bool {
	_, ok := t.instances[rid]
	return ok
}

// Typename returns the type of a live record.
func (t *Types) Typename(rid types.RecordID) (string, error) {
	rec, err := t.Record(rid)
	if err != nil {
		return "", err
	}
	return rec.Typename(), nil
}

// Delete removes one record. References to it are left dangling.
func (t *Types) Delete(rid types.RecordID) error {
	if _, err := t.Record(rid); err != nil {
		return err
	}
	delete(t.instances, rid)
	return nil
}

// DeleteTree removes rid and every record it transitively owns.
func (t *Types) DeleteTree(rid types.RecordID) error {
	rec, err := t.Record(rid)
	if err != nil {
		return err
	}
	delete(t.instances, rid)
	for _, f := range rec.fields {
		for _, child := range f.owned() {
			if t.Exists(child) {
				if err := t.DeleteTree(child); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// DeleteStore removes every record of store and unbinds the tables they
// own. It returns the number of records removed.
func (t *Types) DeleteStore(store types.StoreNumber) int {
	n := 0
	for rid := range t.instances {
		if rid.Store == store {
			delete(t.instances, rid)
			n++
		}
	}
	for name, b := range t.tables {
		if b.Owner.Store == store {
			delete(t.tables, name)
		}
	}
	return n
}

// Len returns the number of live records.
func (t *Types) Len() int { return len(t.instances) }

// Instances returns the live records of store ordered by record number.
func (t *Types) Instances(store types.StoreNumber) []types.RecordID {
	var out []types.RecordID
	for rid := range t.instances {
		if rid.Store == store {
			out = append(out, rid)
		}
	}
	slices.SortFunc(out, func(a, b types.RecordID) int { return cmp.Compare(a.Number, b.Number) })
	return out
}

// Stores returns every store that holds at least one record, sorted.
func (t *Types) Stores() []types.StoreNumber {
	seen := make(map[types.StoreNumber]struct{})
	for rid := range t.instances {
		seen[rid.Store] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// RegisterTable binds a table name to a list field. A later binding
// replaces an earlier one.
func (t *Types) RegisterTable(name string, owner types.RecordID, fid string) error {
	if _, err := lookup[*ListField](t, owner, fid); err != nil {
		return err
	}
	if prev, ok := t.tables[name]; ok && prev.Owner != owner {
		logger.Debug("table rebound", "table", name, "from", prev.Owner.String(), "to", owner.String())
	}
	t.bindTable(name, owner, fid)
	return nil
}

func (t *Types) bindTable(name string, owner types.RecordID, fid string) {
	t.tables[name] = TableBinding{Owner: owner, Field: fid}
}

// Tables returns the table bindings.
func (t *Types) Tables() map[string]TableBinding { return maps.Clone(t.tables) }

// TableItems returns the records of a registered table in list order.
func (t *Types) TableItems(name string) ([]types.RecordID, error) {
	b, ok := t.tables[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNoTable)
	}
	return t.ListItems(b.Owner, b.Field)
}

// field returns the raw field of a record.
func (t *Types) field(rid types.RecordID, fid string) (Field, error) {
	rec, err := t.Record(rid)
	if err != nil {
		return nil, err
	}
	f, ok := rec.Field(fid)
	if !ok {
		return nil, fmt.Errorf("%s %s.%s: %w", rec.Typename(), rid, fid, types.ErrUndefinedField)
	}
	return f, nil
}

// lookup returns the field as T, delegating through a union to its
// active variant when the union itself is not a T.
func lookup[T Field](t *Types, rid types.RecordID, fid string) (T, error) {
	var zero T
	f, err := t.field(rid, fid)
	if err != nil {
		return zero, err
	}
	if v, ok := f.(T); ok {
		return v, nil
	}
	if u, ok := f.(*UnionField); ok {
		if active := u.Active(); active != nil {
			if v, ok := active.(T); ok {
				return v, nil
			}
			f = active
		}
	}
	return zero, errFieldKind(rid, fid, f.Kind(), fmt.Sprintf("%T", zero))
}
