// Package engine implements the schema-driven object model and the
// recursive read/write protocol for game-data archives.
//
// # Overview
//
// A TypeDefinition describes one fixed-layout binary record as an ordered
// list of Field templates. Types is the live registry: it owns the schema
// table, allocates RecordIDs per store and stores every Record instance.
// Records are read from an archive.Archive through a ReadState and written
// back through a WriteState.
//
// # Field Kinds
//
// Field is a closed set of eleven variants:
//
//	Bool, Bytes, Float, Int, Label, List, Message, Record, Reference,
//	String, Union
//
// The interface carries unexported methods, so no other package can add a
// variant, and every variant must implement the full read/write/copy
// protocol.
//
// # Two-Phase Loading
//
// Cross-record references cannot be resolved until every source has been
// parsed. Reads queue requests into a ReadReferences accumulator; once all
// stores have been read, ReadReferences.Resolve rewrites every pending
// reference in a single pass:
//
//	refs := engine.NewReadReferences()
//	for _, src := range sources {
//	    if _, err := engine.ReadArchive(t, refs, src.Archive, src.Store, src.Type); err != nil {
//	        return err
//	    }
//	}
//	stats, err := refs.Resolve(t, engine.Policy{})
//
// Writing mirrors this: pointer references are queued while the record
// graph is serialized and patched by WriteReferences.ResolvePointers once
// every record has an address.
//
// # Mutation
//
// Records are never mutated directly from outside the package. Every
// get/set, list edit, ownership transfer and copy goes through Types so
// RecordID uniqueness and allocator monotonicity stay centrally enforced.
//
// # Thread Safety
//
// Types, ReadState and WriteState are not thread-safe. A read or write pass
// owns its Types exclusively.
package engine
