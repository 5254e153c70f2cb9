package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/pkg/types"
)

type readFrame struct {
	rid        types.RecordID
	field      string
	conditions map[string]bool
}

// ReadState is the cursor-driven context of one archive read pass.
type ReadState struct {
	types *Types
	arc   *archive.Archive
	refs  *ReadReferences
	store types.StoreNumber

	cursor    int
	addresses []int
	frames    []*readFrame
	listIndex []int
	// registered is the allocation log used to roll back failed reads.
	registered []types.RecordID
	shared     map[int]types.RecordID
	// trial is the depth of union candidates being attempted.
	trial int
}

// NewReadState prepares a read of arc into store.
func NewReadState(t *Types, refs *ReadReferences, arc *archive.Archive, store types.StoreNumber) *ReadState {
	return &ReadState{
		types:  t,
		arc:    arc,
		refs:   refs,
		store:  store,
		shared: make(map[int]types.RecordID),
	}
}

// ReadArchive reads one record of typename at offset 0 of arc into store.
// References are queued on refs for a later Resolve.
func ReadArchive(t *Types, refs *ReadReferences, arc *archive.Archive, store types.StoreNumber, typename string) (types.RecordID, error) {
	st := NewReadState(t, refs, arc, store)
	return st.ReadRecord(typename)
}

func (st *ReadState) Types() *Types               { return st.types }
func (st *ReadState) Archive() *archive.Archive   { return st.arc }
func (st *ReadState) Store() types.StoreNumber    { return st.store }
func (st *ReadState) Tell() int                   { return st.cursor }
func (st *ReadState) Seek(addr int)               { st.cursor = addr }
func (st *ReadState) References() *ReadReferences { return st.refs }

// ReadRecord reads a record of typename at the cursor.
func (st *ReadState) ReadRecord(typename string) (types.RecordID, error) {
	return st.readRecord(typename, "")
}

// readRecord registers a record, then reads its fields. On failure every
// record registered since entry is removed again.
func (st *ReadState) readRecord(typename, table string) (types.RecordID, error) {
	rec, err := st.types.Instantiate(typename)
	if err != nil {
		return types.NullRecord, err
	}
	pad, err := st.types.padding(typename)
	if err != nil {
		return types.NullRecord, err
	}
	start := st.cursor
	mark := st.mark()
	rid := st.types.Register(st.store, rec)
	st.registered = append(st.registered, rid)
	st.refs.addKnown(st.store, table, start, rid)

	st.addresses = append(st.addresses, start)
	frame := &readFrame{rid: rid}
	st.frames = append(st.frames, frame)
	defer func() {
		st.addresses = st.addresses[:len(st.addresses)-1]
		st.frames = st.frames[:len(st.frames)-1]
	}()

	for _, f := range rec.fields {
		frame.field = f.ID()
		at := st.cursor
		if err := f.read(st); err != nil {
			st.rollback(mark)
			return types.NullRecord, types.Frame(err, typename, f.ID(), at)
		}
	}
	st.cursor += pad
	return rid, nil
}

// readMark is a rollback point covering records and queued references.
type readMark struct {
	records int
	refs    refMark
}

func (st *ReadState) mark() readMark {
	return readMark{records: len(st.registered), refs: st.refs.mark()}
}

// rollback removes every record registered since m together with the
// references and known addresses recorded for them.
func (st *ReadState) rollback(m readMark) {
	st.refs.undo(m.refs)
	if m.records >= len(st.registered) {
		return
	}
	for _, rid := range st.registered[m.records:] {
		delete(st.types.instances, rid)
	}
	logger.Debug("read rollback", "records", len(st.registered)-m.records)
	st.registered = st.registered[:m.records]
}

func (st *ReadState) frame() *readFrame {
	if len(st.frames) == 0 {
		return &readFrame{}
	}
	return st.frames[len(st.frames)-1]
}

// owner returns the record and top-level field currently being read.
func (st *ReadState) owner() (types.RecordID, string) {
	f := st.frame()
	return f.rid, f.field
}

func (st *ReadState) setCondition(name string, v bool) {
	f := st.frame()
	if f.conditions == nil {
		f.conditions = make(map[string]bool)
	}
	f.conditions[name] = v
}

func (st *ReadState) condition(name string) (bool, error) {
	for i := len(st.frames) - 1; i >= 0; i-- {
		if v, ok := st.frames[i].conditions[name]; ok {
			return v, nil
		}
	}
	return false, fmt.Errorf("%q: %w", name, ErrConditionUnset)
}

// address resolves an address-stack index: non-negative counts from the
// outermost record, negative from the innermost.
func (st *ReadState) address(index int) (int, error) {
	return stackAddress(st.addresses, index)
}

func stackAddress(stack []int, index int) (int, error) {
	i := index
	if i < 0 {
		i += len(stack)
	}
	if i < 0 || i >= len(stack) {
		return 0, errIndex("address stack", index, len(stack))
	}
	return stack[i], nil
}

func (st *ReadState) pushIndex(i int) { st.listIndex = append(st.listIndex, i) }
func (st *ReadState) popIndex()       { st.listIndex = st.listIndex[:len(st.listIndex)-1] }

func (st *ReadState) currentIndex() int {
	if len(st.listIndex) == 0 {
		return 0
	}
	return st.listIndex[len(st.listIndex)-1]
}

// checkPlain rejects numeric reads over pointer slots while a union
// candidate is on trial, so pointer-shaped data selects a pointer variant.
func (st *ReadState) checkPlain(n int) error {
	if st.trial == 0 {
		return nil
	}
	for a := st.cursor; a < st.cursor+n; a++ {
		_, ptr := st.arc.Pointer(a)
		_, txt := st.arc.Text(a)
		if ptr || txt {
			return fmt.Errorf("number over pointer slot 0x%x: %w", a, types.ErrContract)
		}
	}
	return nil
}

func (st *ReadState) readInt(f IntFormat) (int64, error) {
	if err := st.checkPlain(f.Size()); err != nil {
		return 0, err
	}
	v, err := f.get(st.arc, st.cursor)
	if err != nil {
		return 0, err
	}
	st.cursor += f.Size()
	return v, nil
}

func (st *ReadState) readBytes(n int) ([]byte, error) {
	b, err := st.arc.ReadBytes(st.cursor, n)
	if err != nil {
		return nil, err
	}
	st.cursor += n
	return b, nil
}

// readText reads a 4-byte text pointer slot. Empty slots read as "".
func (st *ReadState) readText() (string, error) {
	if _, err := st.arc.ReadBytes(st.cursor, 4); err != nil {
		return "", err
	}
	s, _ := st.arc.Text(st.cursor)
	st.cursor += 4
	return s, nil
}

// readPointer reads a 4-byte internal pointer slot.
func (st *ReadState) readPointer() (int, bool, error) {
	if _, err := st.arc.ReadBytes(st.cursor, 4); err != nil {
		return 0, false, err
	}
	target, ok := st.arc.Pointer(st.cursor)
	st.cursor += 4
	return target, ok, nil
}

// readAt reads a record at addr without moving the cursor.
func (st *ReadState) readAt(addr int, typename, table string) (types.RecordID, error) {
	save := st.cursor
	st.cursor = addr
	rid, err := st.readRecord(typename, table)
	st.cursor = save
	return rid, err
}
