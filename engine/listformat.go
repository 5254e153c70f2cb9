package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/internal/buf"
	"github.com/joshuapare/binkit/pkg/types"
)

// ListFormat decides how many items a list holds and where they live.
type ListFormat interface {
	readItems(st *ReadState, l *ListField) error
	writeItems(st *WriteState, l *ListField) error
}

// FatesSentinel terminates a FatesAI list.
const FatesSentinel = 0x80000000

// Static is a list of exactly Count items.
type Static struct {
	Count int
}

// Indirect reads the count from an integer stored Offset bytes past an
// enclosing record's start. Index selects the record on the address
// stack: non-negative from the outermost, negative from the innermost.
// Doubled stores the count twice in adjacent slots.
type Indirect struct {
	Index   int
	Offset  int
	Format  IntFormat
	Doubled bool
}

// PostfixCount stores a u32 count after the items; Label marks it.
type PostfixCount struct {
	Label string
}

// LabelOrDestTerminated runs until a label or pointer destination is hit.
type LabelOrDestTerminated struct {
	// StepSize defaults to the item size.
	StepSize  int
	SkipFirst bool
}

// FatesAI runs until the u32 FatesSentinel.
type FatesAI struct{}

// NullTerminated runs until Peek zero bytes at an item position and is
// followed by a StepSize zero terminator. Both default to the item size.
type NullTerminated struct {
	Peek     int
	StepSize int
}

// AllRemaining fills the rest of the archive, Divisor bytes per item.
type AllRemaining struct {
	Divisor int
}

// CountIncomingPointersUntilLabel has one item per pointer destination
// between the list start and Label.
type CountIncomingPointersUntilLabel struct {
	Label string
}

// Fake items sit at the addresses that pointer references into the list's
// table were seen to target.
type Fake struct{}

// FromLabels items sit at every label starting with Prefix.
type FromLabels struct {
	Prefix string
}

// FromLabelsIndexed items sit at every label from StartIndex on.
type FromLabelsIndexed struct {
	StartIndex int
}

func (s Static) readItems(st *ReadState, l *ListField) error {
	return l.readSequential(st, s.Count)
}

func (s Static) writeItems(st *WriteState, l *ListField) error {
	if len(l.items) != s.Count {
		return fmt.Errorf("%d items, want %d: %w", len(l.items), s.Count, ErrCountMismatch)
	}
	return l.writeSequential(st)
}

func (in Indirect) location(stack []int) (int, error) {
	base, err := stackAddress(stack, in.Index)
	if err != nil {
		return 0, err
	}
	return base + in.Offset, nil
}

func (in Indirect) readItems(st *ReadState, l *ListField) error {
	at, err := in.location(st.addresses)
	if err != nil {
		return err
	}
	n, err := in.Format.get(st.arc, at)
	if err != nil {
		return err
	}
	return l.readSequential(st, int(n))
}

// The count is written before the items so that insertions carry it along
// when it sits past the list.
func (in Indirect) writeItems(st *WriteState, l *ListField) error {
	at, err := in.location(st.addresses)
	if err != nil {
		return err
	}
	n := int64(len(l.items))
	if err := in.Format.put(st.arc, at, n); err != nil {
		return err
	}
	if in.Doubled {
		if err := in.Format.put(st.arc, at+in.Format.Size(), n); err != nil {
			return err
		}
	}
	return l.writeSequential(st)
}

func (p PostfixCount) readItems(st *ReadState, l *ListField) error {
	at, err := st.arc.LabelAddress(p.Label)
	if err != nil {
		return err
	}
	n, err := st.arc.ReadU32(at)
	if err != nil {
		return err
	}
	if err := l.readSequential(st, int(n)); err != nil {
		return err
	}
	if st.cursor == at {
		st.cursor += 4
	}
	return nil
}

func (p PostfixCount) writeItems(st *WriteState, l *ListField) error {
	if err := l.writeSequential(st); err != nil {
		return err
	}
	at := st.cursor
	if err := st.insert(4); err != nil {
		return err
	}
	if err := st.arc.PutU32(at, uint32(len(l.items))); err != nil {
		return err
	}
	st.cursor += 4
	return st.arc.AddLabel(at, p.Label)
}

func (lt LabelOrDestTerminated) readItems(st *ReadState, l *ListField) error {
	size, err := l.itemSize(st.types)
	if err != nil {
		return err
	}
	step := lt.StepSize
	if step <= 0 {
		step = size
	}
	dests := make(map[int]struct{})
	for _, d := range st.arc.Destinations(st.cursor, st.arc.Size()+1) {
		dests[d] = struct{}{}
	}
	start := st.cursor
	var addrs []int
	for pos := start; pos+size <= st.arc.Size(); pos += step {
		if len(addrs) > 0 || !lt.SkipFirst {
			if _, hit := dests[pos]; hit || len(st.arc.Labels(pos)) > 0 {
				break
			}
		}
		addrs = append(addrs, pos)
	}
	if err := l.readScattered(st, addrs); err != nil {
		return err
	}
	st.cursor = start + len(addrs)*step
	return nil
}

func (LabelOrDestTerminated) writeItems(st *WriteState, l *ListField) error {
	return l.writeSequential(st)
}

func (FatesAI) readItems(st *ReadState, l *ListField) error {
	size, err := l.itemSize(st.types)
	if err != nil {
		return err
	}
	n := 0
	for pos := st.cursor; ; pos += size {
		w, err := st.arc.ReadU32(pos)
		if err != nil {
			return fmt.Errorf("no terminator: %w", err)
		}
		if w == FatesSentinel {
			break
		}
		n++
	}
	if err := l.readSequential(st, n); err != nil {
		return err
	}
	st.cursor += 4
	return nil
}

func (FatesAI) writeItems(st *WriteState, l *ListField) error {
	if err := l.writeSequential(st); err != nil {
		return err
	}
	if err := st.insert(4); err != nil {
		return err
	}
	if err := st.arc.PutU32(st.cursor, FatesSentinel); err != nil {
		return err
	}
	st.cursor += 4
	return nil
}

func (nt NullTerminated) sizes(t *Types, l *ListField) (size, peek, step int, err error) {
	size, err = l.itemSize(t)
	if err != nil {
		return 0, 0, 0, err
	}
	peek, step = nt.Peek, nt.StepSize
	if peek <= 0 {
		peek = size
	}
	if step <= 0 {
		step = size
	}
	return size, peek, step, nil
}

func (nt NullTerminated) readItems(st *ReadState, l *ListField) error {
	size, peek, step, err := nt.sizes(st.types, l)
	if err != nil {
		return err
	}
	n := 0
	for pos := st.cursor; ; pos += size {
		b, err := st.arc.ReadBytes(pos, peek)
		if err != nil {
			return fmt.Errorf("no terminator: %w", err)
		}
		if buf.IsZero(b) {
			break
		}
		n++
	}
	if err := l.readSequential(st, n); err != nil {
		return err
	}
	st.cursor += step
	return nil
}

func (nt NullTerminated) writeItems(st *WriteState, l *ListField) error {
	_, _, step, err := nt.sizes(st.types, l)
	if err != nil {
		return err
	}
	if err := l.writeSequential(st); err != nil {
		return err
	}
	if err := st.insert(step); err != nil {
		return err
	}
	st.cursor += step
	return nil
}

func (a AllRemaining) readItems(st *ReadState, l *ListField) error {
	div := a.Divisor
	if div <= 0 {
		size, err := l.itemSize(st.types)
		if err != nil {
			return err
		}
		div = size
	}
	return l.readSequential(st, (st.arc.Size()-st.cursor)/div)
}

func (AllRemaining) writeItems(st *WriteState, l *ListField) error {
	return l.writeSequential(st)
}

func (c CountIncomingPointersUntilLabel) readItems(st *ReadState, l *ListField) error {
	end, err := st.arc.LabelAddress(c.Label)
	if err != nil {
		return err
	}
	return l.readSequential(st, len(st.arc.Destinations(st.cursor, end)))
}

func (CountIncomingPointersUntilLabel) writeItems(st *WriteState, l *ListField) error {
	return l.writeSequential(st)
}

func (Fake) readItems(st *ReadState, l *ListField) error {
	if l.desc.Table == "" {
		return fmt.Errorf("fake list %s has no table: %w", l.desc.ID, types.ErrUndefinedType)
	}
	return l.readScattered(st, st.refs.tableAddresses(st.store, l.desc.Table))
}

func (Fake) writeItems(st *WriteState, l *ListField) error { return l.writeAppended(st) }

// labelAddrs returns the distinct addresses of address-sorted labels.
func labelAddrs(labels []archive.Label) []int {
	var addrs []int
	for _, lb := range labels {
		if len(addrs) == 0 || addrs[len(addrs)-1] != lb.Addr {
			addrs = append(addrs, lb.Addr)
		}
	}
	return addrs
}

func (fl FromLabels) readItems(st *ReadState, l *ListField) error {
	return l.readScattered(st, labelAddrs(st.arc.LabelsWithPrefix(fl.Prefix)))
}

func (FromLabels) writeItems(st *WriteState, l *ListField) error { return l.writeAppended(st) }

func (fl FromLabelsIndexed) readItems(st *ReadState, l *ListField) error {
	all := st.arc.AllLabels()
	if fl.StartIndex < 0 || fl.StartIndex > len(all) {
		return errIndex("label", fl.StartIndex, len(all))
	}
	return l.readScattered(st, labelAddrs(all[fl.StartIndex:]))
}

func (FromLabelsIndexed) writeItems(st *WriteState, l *ListField) error { return l.writeAppended(st) }
