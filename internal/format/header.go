package format

import (
	"fmt"

	"github.com/joshuapare/binkit/internal/buf"
)

// Header captures the archive header.
type Header struct {
	ArchiveSize  uint32
	DataSize     uint32
	PointerCount uint32
	MappedCount  uint32
}

// ParseHeader validates and extracts the archive header from b. The
// declared total size must equal len(b) and every region must fit.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("archive header (%d bytes): %w", len(b), ErrTruncated)
	}
	h := Header{
		ArchiveSize:  buf.U32LE(b[ArchiveSizeOffset:]),
		DataSize:     buf.U32LE(b[DataSizeOffset:]),
		PointerCount: buf.U32LE(b[PointerCountOffset:]),
		MappedCount:  buf.U32LE(b[MappedCountOffset:]),
	}
	if int(h.ArchiveSize) != len(b) {
		return Header{}, fmt.Errorf("declared 0x%x, buffer 0x%x: %w", h.ArchiveSize, len(b), ErrSizeMismatch)
	}
	if _, err := buf.CheckSpan(len(b), h.TextStart(), 0); err != nil {
		return Header{}, fmt.Errorf("%v: %w", err, ErrLayout)
	}
	return h, nil
}

// PointerTableStart returns the file offset of pointer table 1.
func (h Header) PointerTableStart() int {
	return DataStart + int(h.DataSize)
}

// MappedTableStart returns the file offset of pointer table 2.
func (h Header) MappedTableStart() int {
	return h.PointerTableStart() + int(h.PointerCount)*PointerEntrySize
}

// TextStart returns the file offset of the text region.
func (h Header) TextStart() int {
	return h.MappedTableStart() + int(h.MappedCount)*MappedEntrySize
}

// Encode writes h into the first HeaderSize bytes of b, zeroing the
// reserved area.
func (h Header) Encode(b []byte) {
	buf.PutU32LE(b[ArchiveSizeOffset:], h.ArchiveSize)
	buf.PutU32LE(b[DataSizeOffset:], h.DataSize)
	buf.PutU32LE(b[PointerCountOffset:], h.PointerCount)
	buf.PutU32LE(b[MappedCountOffset:], h.MappedCount)
	clear(b[ReservedOffset : ReservedOffset+ReservedSize])
}
