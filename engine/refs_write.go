package engine

import (
	"errors"
	"fmt"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/pkg/types"
)

type pendingPointer struct {
	slot   int
	target types.RecordID
}

// WriteReferences is the write-time mirror of ReadReferences: pointer
// slots are queued while the graph is written and patched once every
// record has an address.
type WriteReferences struct {
	pending []pendingPointer
	written map[types.RecordID]int
}

// NewWriteReferences returns an empty worklist.
func NewWriteReferences() *WriteReferences {
	return &WriteReferences{written: make(map[types.RecordID]int)}
}

func (w *WriteReferences) addPointer(slot int, target types.RecordID) {
	w.pending = append(w.pending, pendingPointer{slot: slot, target: target})
}

func (w *WriteReferences) recordWritten(rid types.RecordID, addr int) {
	w.written[rid] = addr
}

// Written returns the address rid was written at.
func (w *WriteReferences) Written(rid types.RecordID) (int, bool) {
	addr, ok := w.written[rid]
	return addr, ok
}

// Pending returns the number of queued pointer slots.
func (w *WriteReferences) Pending() int { return len(w.pending) }

func (w *WriteReferences) shift(at, n int) {
	for i := range w.pending {
		if w.pending[i].slot >= at {
			w.pending[i].slot += n
		}
	}
	for rid, addr := range w.written {
		if addr >= at {
			w.written[rid] = addr + n
		}
	}
}

// ResolvePointers patches every queued slot with its target's address and
// returns how many targets were never written. Those slots stay empty
// unless policy makes them an error.
func (w *WriteReferences) ResolvePointers(arc *archive.Archive, policy Policy) (int, error) {
	unresolved := 0
	var errs []error
	for _, p := range w.pending {
		addr, ok := w.written[p.target]
		if !ok {
			unresolved++
			logger.Warn("pointer target not written", "slot", fmt.Sprintf("0x%x", p.slot), "target", p.target.String())
			if policy.StrictWritePointers {
				errs = append(errs, fmt.Errorf("slot 0x%x -> %s: %w", p.slot, p.target, types.ErrUnresolved))
			}
			continue
		}
		if err := arc.SetPointer(p.slot, addr); err != nil {
			return unresolved, err
		}
	}
	w.pending = nil
	return unresolved, errors.Join(errs...)
}
