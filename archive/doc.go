// Package archive implements the pointer-relocatable binary container used
// by the game-data archives.
//
// # Overview
//
// An Archive owns a mutable data region plus three pointer tables keyed by
// byte offset within that region:
//
//   - internal pointers: offset → offset, both inside the data region
//   - text pointers:     offset → string, pooled into a deduplicated text
//     region when the archive is serialized
//   - mapped pointers:   offset → ordered aliases ("labels")
//
// The region can grow and shrink in the middle with Allocate/Deallocate;
// every pointer key and internal-pointer target is shifted so the tables
// stay correct.
//
// # Wire Layout
//
//	header (0x18) | data | pointer table 1 | pointer table 2 | text
//
// Pointer table 1 lists the addresses of internal pointers (sorted) followed
// by text pointer slots (ordered by the text address they resolve to).
// Pointer table 2 holds (address, text-relative offset) pairs for labels.
// All addresses are relative to the data region start.
//
// # Usage Example
//
//	a, err := archive.FromBytes(raw)
//	if err != nil {
//	    return err
//	}
//	if target, ok := a.Pointer(0x10); ok {
//	    v, _ := a.ReadU32(target)
//	    _ = v
//	}
//	out, err := a.Serialize()
//
// # Thread Safety
//
// Archive instances are not thread-safe.
package archive
