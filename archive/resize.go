package archive

import (
	"fmt"
	"slices"
)

// Allocate inserts amount zero bytes at addr and shifts every pointer key
// and internal-pointer target at or past addr by amount.
//
// With anchor set, internal pointers whose target equals addr keep it, so
// the inserted space is adopted by the item already anchored there.
func (a *Archive) Allocate(addr, amount int, anchor bool) error {
	if addr < 0 || addr > len(a.data) || amount < 0 {
		return fmt.Errorf("allocate %d at 0x%x (size 0x%x): %w", amount, addr, len(a.data), ErrBounds)
	}
	if amount == 0 {
		return nil
	}
	a.data = slices.Insert(a.data, addr, make([]byte, amount)...)

	shiftKey := func(k int) int {
		if k >= addr {
			return k + amount
		}
		return k
	}
	internal := make(map[int]int, len(a.internal))
	for k, v := range a.internal {
		if v > addr || (v == addr && !anchor) {
			v += amount
		}
		internal[shiftKey(k)] = v
	}
	a.internal = internal
	a.text = rekey(a.text, func(k int) (int, bool) { return shiftKey(k), true })
	a.labels = rekey(a.labels, func(k int) (int, bool) { return shiftKey(k), true })
	return nil
}

// Deallocate removes amount bytes at addr. Pointers whose slot lies inside
// the removed span, or no longer fits in the data, are dropped; keys and
// targets past it shift down.
// Internal pointers targeting the removed span are dropped too, except that
// with anchor set a target equal to addr is preserved.
func (a *Archive) Deallocate(addr, amount int, anchor bool) error {
	end := addr + amount
	if addr < 0 || amount < 0 || end > len(a.data) {
		return fmt.Errorf("deallocate %d at 0x%x (size 0x%x): %w", amount, addr, len(a.data), ErrBounds)
	}
	if amount == 0 {
		return nil
	}
	a.data = slices.Delete(a.data, addr, end)

	shiftKey := func(k int) (int, bool) {
		switch {
		case k < addr:
			return k, true
		case k < end:
			return 0, false
		default:
			return k - amount, true
		}
	}
	// A slot that starts before addr keeps its key; it survives only while
	// its 4 bytes still fit in the shrunk data.
	shiftSlot := func(k int) (int, bool) {
		if k < addr && k+4 > len(a.data) {
			return 0, false
		}
		return shiftKey(k)
	}
	internal := make(map[int]int, len(a.internal))
	for k, v := range a.internal {
		nk, ok := shiftSlot(k)
		if !ok {
			continue
		}
		switch {
		case v < addr:
		case v == addr && anchor:
		case v < end:
			continue
		default:
			v -= amount
		}
		internal[nk] = v
	}
	a.internal = internal
	a.text = rekey(a.text, shiftSlot)
	a.labels = rekey(a.labels, shiftKey)
	return nil
}

func rekey[V any](m map[int]V, fn func(int) (int, bool)) map[int]V {
	out := make(map[int]V, len(m))
	for k, v := range m {
		if nk, ok := fn(k); ok {
			out[nk] = v
		}
	}
	return out
}
