// Package schema loads type definitions and store bindings from YAML.
//
// A schema is a stream of YAML documents, each tagged by kind:
//
//	kind: type
//	name: Item
//	size: 0x10
//	key: iid
//	fields:
//	  - {id: iid, kind: string}
//	  - {id: price, kind: int, format: u16}
//	  - {id: owner, kind: reference, table: characters, ref: {type: key, prefix: PID_}}
//	---
//	kind: store
//	name: items
//	path: gamedata/item.bin
//	root: ItemFile
//
// Options that select a variant (placement, count, ref) accept either a
// bare name ("pointer") or a mapping with a type key and parameters.
//
// Documents may be split over any number of files; LoadDir reads every
// .yaml/.yml file of a directory in name order.
package schema
