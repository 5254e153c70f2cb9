package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/pkg/types"
)

type deferredWrite struct {
	slot     int
	owner    types.RecordID
	field    string
	toParent bool
}

type pendingLabel struct {
	addr int
	name string
}

type writeFrame struct {
	rid        types.RecordID
	field      string
	conditions map[string]bool
	deferred   []deferredWrite
	labels     []pendingLabel
}

// WriteState is the cursor-driven context of one archive write pass.
//
// Content is inserted at the cursor with Archive.Allocate, so everything
// the pass tracks by address is shifted through insert.
type WriteState struct {
	types *Types
	arc   *archive.Archive
	refs  *WriteReferences

	cursor    int
	addresses []int
	frames    []*writeFrame
	listIndex []int
	shared    map[types.RecordID]int
}

// NewWriteState prepares a write into arc.
func NewWriteState(t *Types, refs *WriteReferences, arc *archive.Archive) *WriteState {
	return &WriteState{
		types:  t,
		arc:    arc,
		refs:   refs,
		shared: make(map[types.RecordID]int),
	}
}

// WriteArchive serializes the record graph rooted at rid into a new
// archive and patches its pointer references.
func WriteArchive(t *Types, rid types.RecordID, policy Policy, opts ...archive.Option) (*archive.Archive, error) {
	arc := archive.New(opts...)
	refs := NewWriteReferences()
	st := NewWriteState(t, refs, arc)
	if _, err := st.WriteRecord(rid); err != nil {
		return nil, err
	}
	if _, err := refs.ResolvePointers(arc, policy); err != nil {
		return nil, err
	}
	return arc, nil
}

func (st *WriteState) Types() *Types                { return st.types }
func (st *WriteState) Archive() *archive.Archive    { return st.arc }
func (st *WriteState) Tell() int                    { return st.cursor }
func (st *WriteState) Seek(addr int)                { st.cursor = addr }
func (st *WriteState) References() *WriteReferences { return st.refs }

// WriteRecord inserts the record at the cursor and returns its address.
func (st *WriteState) WriteRecord(rid types.RecordID) (int, error) {
	return st.writeRecord(rid, true)
}

// writeRecord emits rid at the cursor. With reserve set the record's fixed
// size is inserted first; otherwise the space is already part of the
// enclosing record.
func (st *WriteState) writeRecord(rid types.RecordID, reserve bool) (int, error) {
	rec, err := st.types.Record(rid)
	if err != nil {
		return 0, err
	}
	typename := rec.Typename()
	size, err := st.types.TypeSize(typename)
	if err != nil {
		return 0, err
	}
	pad, err := st.types.padding(typename)
	if err != nil {
		return 0, err
	}
	if reserve {
		if err := st.insert(size); err != nil {
			return 0, err
		}
	}

	st.addresses = append(st.addresses, st.cursor)
	frame := &writeFrame{rid: rid}
	st.frames = append(st.frames, frame)
	pop := func() int {
		start := st.addresses[len(st.addresses)-1]
		st.addresses = st.addresses[:len(st.addresses)-1]
		st.frames = st.frames[:len(st.frames)-1]
		return start
	}

	for _, f := range rec.fields {
		frame.field = f.ID()
		at := st.cursor
		if err := f.write(st); err != nil {
			pop()
			return 0, types.Frame(err, typename, f.ID(), at)
		}
	}
	st.cursor += pad

	if err := st.drainDeferred(frame); err != nil {
		pop()
		return 0, types.Frame(err, typename, "", -1)
	}
	for _, l := range frame.labels {
		if err := st.arc.AddLabel(l.addr, l.name); err != nil {
			pop()
			return 0, types.Frame(err, typename, "", l.addr)
		}
	}
	start := pop()
	st.refs.recordWritten(rid, start)
	return start, nil
}

// drainDeferred emits the deferred pointees queued on frame, or hands
// entries marked toParent to the enclosing frame.
func (st *WriteState) drainDeferred(frame *writeFrame) error {
	for len(frame.deferred) > 0 {
		d := frame.deferred[0]
		frame.deferred = frame.deferred[1:]
		if d.toParent && len(st.frames) > 1 {
			parent := st.frames[len(st.frames)-2]
			d.toParent = false
			parent.deferred = append(parent.deferred, d)
			continue
		}
		f, err := lookup[*RecordField](st.types, d.owner, d.field)
		if err != nil {
			return err
		}
		if err := f.emitPointee(st, d.slot); err != nil {
			return fmt.Errorf("deferred %s: %w", d.field, err)
		}
	}
	return nil
}

// insert allocates n zero bytes at the cursor and shifts every address the
// pass is tracking. The cursor does not move.
func (st *WriteState) insert(n int) error {
	if n == 0 {
		return nil
	}
	at := st.cursor
	if err := st.arc.Allocate(at, n, false); err != nil {
		return err
	}
	// In-progress record starts equal to at belong to the record being
	// extended and stay put.
	for i, a := range st.addresses {
		if a > at {
			st.addresses[i] = a + n
		}
	}
	for _, f := range st.frames {
		for i := range f.deferred {
			if f.deferred[i].slot >= at {
				f.deferred[i].slot += n
			}
		}
		for i := range f.labels {
			if f.labels[i].addr > at {
				f.labels[i].addr += n
			}
		}
	}
	for rid, a := range st.shared {
		if a >= at {
			st.shared[rid] = a + n
		}
	}
	st.refs.shift(at, n)
	return nil
}

// toEnd moves the cursor to the end of the archive and returns the
// previous position.
func (st *WriteState) toEnd() int {
	save := st.cursor
	st.cursor = st.arc.Size()
	return save
}

func (st *WriteState) frame() *writeFrame {
	if len(st.frames) == 0 {
		return &writeFrame{}
	}
	return st.frames[len(st.frames)-1]
}

func (st *WriteState) owner() (types.RecordID, string) {
	f := st.frame()
	return f.rid, f.field
}

func (st *WriteState) setCondition(name string, v bool) {
	f := st.frame()
	if f.conditions == nil {
		f.conditions = make(map[string]bool)
	}
	f.conditions[name] = v
}

func (st *WriteState) condition(name string) (bool, error) {
	for i := len(st.frames) - 1; i >= 0; i-- {
		if v, ok := st.frames[i].conditions[name]; ok {
			return v, nil
		}
	}
	return false, fmt.Errorf("%q: %w", name, ErrConditionUnset)
}

func (st *WriteState) address(index int) (int, error) {
	return stackAddress(st.addresses, index)
}

func (st *WriteState) pushIndex(i int) { st.listIndex = append(st.listIndex, i) }
func (st *WriteState) popIndex()       { st.listIndex = st.listIndex[:len(st.listIndex)-1] }

func (st *WriteState) currentIndex() int {
	if len(st.listIndex) == 0 {
		return 0
	}
	return st.listIndex[len(st.listIndex)-1]
}

func (st *WriteState) writeInt(f IntFormat, v int64) error {
	if err := f.put(st.arc, st.cursor, v); err != nil {
		return err
	}
	st.cursor += f.Size()
	return nil
}

func (st *WriteState) writeBytes(b []byte) error {
	if err := st.arc.PutBytes(st.cursor, b); err != nil {
		return err
	}
	st.cursor += len(b)
	return nil
}

// writeText fills a 4-byte text pointer slot. "" leaves the slot empty.
func (st *WriteState) writeText(s string) error {
	if s == "" {
		st.arc.ClearPointer(st.cursor)
	} else if err := st.arc.SetText(st.cursor, s); err != nil {
		return err
	}
	st.cursor += 4
	return nil
}

// addLabel binds name to addr once the current record is complete.
func (st *WriteState) addLabel(addr int, name string) {
	f := st.frame()
	f.labels = append(f.labels, pendingLabel{addr: addr, name: name})
}
