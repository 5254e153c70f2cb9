// Package format houses the low-level layout of the binary archive
// container: header fields, pointer table entry sizes and the helpers that
// translate between file offsets and data-region offsets. It knows nothing
// about schemas or records.
package format

const (
	// HeaderSize is the size of the archive header in bytes.
	//
	//	Offset  Size  Description
	//	------  ----  ----------------------------------------------
	//	 0x00    4    Total archive size (must equal the buffer length)
	//	 0x04    4    Data region size
	//	 0x08    4    Normal pointer count (pointer table 1)
	//	 0x0C    4    Mapped pointer count (pointer table 2)
	//	 0x10    8    Reserved
	HeaderSize = 0x18

	ArchiveSizeOffset   = 0x00
	DataSizeOffset      = 0x04
	PointerCountOffset  = 0x08
	MappedCountOffset   = 0x0C
	ReservedOffset      = 0x10
	ReservedSize        = 8
	PointerEntrySize    = 4
	MappedEntrySize     = 8
	MappedTextOffsetPos = 4 // offset of the text offset within a mapped entry
)

// DataStart is the file offset of the data region. Every address stored in
// the pointer tables and in pointer slots is relative to this offset.
const DataStart = HeaderSize
