package archive

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/joshuapare/binkit/internal/buf"
	"github.com/joshuapare/binkit/internal/format"
)

// FromBytes parses a serialized archive. The declared total size must equal
// len(b). Pointer table 1 entries are classified by their target: targets
// inside the text region become text pointers, everything else an internal
// pointer.
func FromBytes(b []byte, opts ...Option) (*Archive, error) {
	h, err := format.ParseHeader(b)
	if err != nil {
		return nil, err
	}
	a := New(opts...)
	a.data = slices.Clone(b[format.DataStart : format.DataStart+int(h.DataSize)])

	dataSize := int(h.DataSize)
	textStart := h.TextStart() - format.DataStart
	for i := range int(h.PointerCount) {
		addr := int(buf.U32LE(b[h.PointerTableStart()+i*format.PointerEntrySize:]))
		if !buf.Has(a.data, addr, 4) {
			return nil, fmt.Errorf("pointer %d at 0x%x (data 0x%x): %w", i, addr, dataSize, ErrBadPointer)
		}
		target := int(buf.U32LE(a.data[addr:]))
		if target >= textStart {
			s, err := a.readString(b, format.DataStart+target)
			if err != nil {
				return nil, fmt.Errorf("text pointer at 0x%x: %w", addr, err)
			}
			a.text[addr] = s
			continue
		}
		if target > dataSize {
			return nil, fmt.Errorf("pointer at 0x%x -> 0x%x: %w", addr, target, ErrBadPointer)
		}
		a.internal[addr] = target
	}

	textAbs := h.TextStart()
	for i := range int(h.MappedCount) {
		entry := h.MappedTableStart() + i*format.MappedEntrySize
		addr := int(buf.U32LE(b[entry:]))
		off := int(buf.U32LE(b[entry+format.MappedTextOffsetPos:]))
		if addr > dataSize {
			return nil, fmt.Errorf("label %d at 0x%x (data 0x%x): %w", i, addr, dataSize, ErrBadPointer)
		}
		name, err := a.readString(b, textAbs+off)
		if err != nil {
			return nil, fmt.Errorf("label %d at 0x%x: %w", i, addr, err)
		}
		a.labels[addr] = append(a.labels[addr], name)
	}
	return a, nil
}

func (a *Archive) readString(b []byte, abs int) (string, error) {
	if abs < 0 || abs >= len(b) {
		return "", fmt.Errorf("text at 0x%x (archive 0x%x): %w", abs, len(b), ErrBadPointer)
	}
	return a.codec.DecodeZ(b[abs:])
}

// textPool accumulates NUL-terminated strings, sharing one offset per
// distinct string.
type textPool struct {
	a       *Archive
	data    []byte
	offsets map[string]int
}

func (p *textPool) add(s string) (int, error) {
	if off, ok := p.offsets[s]; ok {
		return off, nil
	}
	raw, err := p.a.codec.EncodeZ(s)
	if err != nil {
		return 0, err
	}
	off := len(p.data)
	p.data = append(p.data, raw...)
	p.offsets[s] = off
	return off, nil
}

// Serialize emits the archive: header, data, pointer table 1 (internal
// pointers sorted by address, then text pointers ordered by resolved text
// address with ties broken by source address), pointer table 2 (labels by
// address) and the deduplicated text region.
func (a *Archive) Serialize() ([]byte, error) {
	pool := &textPool{a: a, offsets: make(map[string]int)}

	type mapped struct{ addr, off int }
	var mappedEntries []mapped
	for _, addr := range slices.Sorted(maps.Keys(a.labels)) {
		for _, name := range a.labels[addr] {
			off, err := pool.add(name)
			if err != nil {
				return nil, fmt.Errorf("label at 0x%x: %w", addr, err)
			}
			mappedEntries = append(mappedEntries, mapped{addr, off})
		}
	}

	type textEntry struct{ addr, off int }
	textEntries := make([]textEntry, 0, len(a.text))
	for _, addr := range slices.Sorted(maps.Keys(a.text)) {
		off, err := pool.add(a.text[addr])
		if err != nil {
			return nil, fmt.Errorf("text pointer at 0x%x: %w", addr, err)
		}
		textEntries = append(textEntries, textEntry{addr, off})
	}
	slices.SortFunc(textEntries, func(x, y textEntry) int {
		return cmp.Or(cmp.Compare(x.off, y.off), cmp.Compare(x.addr, y.addr))
	})

	internal := slices.Sorted(maps.Keys(a.internal))
	for _, addr := range internal {
		if !buf.Has(a.data, addr, 4) {
			return nil, fmt.Errorf("pointer at 0x%x (data 0x%x): %w", addr, len(a.data), ErrBounds)
		}
	}
	for _, e := range textEntries {
		if !buf.Has(a.data, e.addr, 4) {
			return nil, fmt.Errorf("text pointer at 0x%x (data 0x%x): %w", e.addr, len(a.data), ErrBounds)
		}
	}
	pointerCount := len(internal) + len(textEntries)
	textStart := len(a.data) + pointerCount*format.PointerEntrySize + len(mappedEntries)*format.MappedEntrySize
	total := format.DataStart + textStart + len(pool.data)

	out := make([]byte, total)
	format.Header{
		ArchiveSize:  uint32(total),
		DataSize:     uint32(len(a.data)),
		PointerCount: uint32(pointerCount),
		MappedCount:  uint32(len(mappedEntries)),
	}.Encode(out)

	data := out[format.DataStart : format.DataStart+len(a.data)]
	copy(data, a.data)
	pos := format.DataStart + len(a.data)
	for _, addr := range internal {
		buf.PutU32LE(data[addr:], uint32(a.internal[addr]))
		buf.PutU32LE(out[pos:], uint32(addr))
		pos += format.PointerEntrySize
	}
	for _, e := range textEntries {
		buf.PutU32LE(data[e.addr:], uint32(textStart+e.off))
		buf.PutU32LE(out[pos:], uint32(e.addr))
		pos += format.PointerEntrySize
	}
	for _, m := range mappedEntries {
		buf.PutU32LE(out[pos:], uint32(m.addr))
		buf.PutU32LE(out[pos+format.MappedTextOffsetPos:], uint32(m.off))
		pos += format.MappedEntrySize
	}
	copy(out[pos:], pool.data)
	return out, nil
}
