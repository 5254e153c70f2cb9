package archive

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Label is one alias bound to an address.
type Label struct {
	Addr int
	Name string
}

func (a *Archive) checkSlot(addr int) error {
	if _, err := a.span(addr, 4); err != nil {
		return fmt.Errorf("pointer slot: %w", err)
	}
	return nil
}

// Pointer returns the internal pointer target stored at addr.
func (a *Archive) Pointer(addr int) (int, bool) {
	t, ok := a.internal[addr]
	return t, ok
}

// SetPointer makes the 4-byte slot at addr an internal pointer to target.
// target may equal Size() so that a pointer can precede an empty tail.
func (a *Archive) SetPointer(addr, target int) error {
	if err := a.checkSlot(addr); err != nil {
		return err
	}
	if target < 0 || target > len(a.data) {
		return fmt.Errorf("pointer target 0x%x (size 0x%x): %w", target, len(a.data), ErrBounds)
	}
	delete(a.text, addr)
	a.internal[addr] = target
	return nil
}

// ClearPointer removes any internal or text pointer registered at addr.
func (a *Archive) ClearPointer(addr int) {
	delete(a.internal, addr)
	delete(a.text, addr)
}

// Text returns the string of the text pointer at addr.
func (a *Archive) Text(addr int) (string, bool) {
	s, ok := a.text[addr]
	return s, ok
}

// SetText makes the 4-byte slot at addr a text pointer to s. The string is
// checked against the archive encoding immediately.
func (a *Archive) SetText(addr int, s string) error {
	if err := a.checkSlot(addr); err != nil {
		return err
	}
	if _, err := a.codec.EncodeZ(s); err != nil {
		return err
	}
	delete(a.internal, addr)
	a.text[addr] = s
	return nil
}

// Labels returns the aliases bound to addr in insertion order.
func (a *Archive) Labels(addr int) []string {
	return slices.Clone(a.labels[addr])
}

// AddLabel binds name to addr. Duplicate aliases at the same address are ignored.
func (a *Archive) AddLabel(addr int, name string) error {
	if addr < 0 || addr > len(a.data) {
		return fmt.Errorf("label %q at 0x%x: %w", name, addr, ErrBounds)
	}
	if _, err := a.codec.EncodeZ(name); err != nil {
		return err
	}
	if slices.Contains(a.labels[addr], name) {
		return nil
	}
	a.labels[addr] = append(a.labels[addr], name)
	return nil
}

// RemoveLabels drops every alias bound to addr.
func (a *Archive) RemoveLabels(addr int) {
	delete(a.labels, addr)
}

// FindLabel returns the lowest address bound to name.
func (a *Archive) FindLabel(name string) (int, bool) {
	for _, l := range a.AllLabels() {
		if l.Name == name {
			return l.Addr, true
		}
	}
	return 0, false
}

// LabelAddress is FindLabel returning ErrLabelNotFound on a miss.
func (a *Archive) LabelAddress(name string) (int, error) {
	addr, ok := a.FindLabel(name)
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrLabelNotFound)
	}
	return addr, nil
}

// AllLabels returns every label ordered by address then alias order.
func (a *Archive) AllLabels() []Label {
	var out []Label
	for _, addr := range slices.Sorted(maps.Keys(a.labels)) {
		for _, name := range a.labels[addr] {
			out = append(out, Label{Addr: addr, Name: name})
		}
	}
	return out
}

// LabelsWithPrefix returns the labels whose name starts with prefix,
// ordered by address.
func (a *Archive) LabelsWithPrefix(prefix string) []Label {
	var out []Label
	for _, l := range a.AllLabels() {
		if strings.HasPrefix(l.Name, prefix) {
			out = append(out, l)
		}
	}
	return out
}

// IsDestination reports whether any internal pointer targets addr.
func (a *Archive) IsDestination(addr int) bool {
	for _, t := range a.internal {
		if t == addr {
			return true
		}
	}
	return false
}

// Destinations returns the distinct internal pointer targets in [from, to),
// sorted ascending.
func (a *Archive) Destinations(from, to int) []int {
	seen := make(map[int]struct{})
	for _, t := range a.internal {
		if t >= from && t < to {
			seen[t] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// InternalPointers returns a copy of the internal pointer table.
func (a *Archive) InternalPointers() map[int]int { return maps.Clone(a.internal) }

// TextPointers returns a copy of the text pointer table.
func (a *Archive) TextPointers() map[int]string { return maps.Clone(a.text) }
