package engine

import "github.com/joshuapare/binkit/pkg/types"

// Kind enumerates the closed set of field variants.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindBytes
	KindFloat
	KindInt
	KindLabel
	KindList
	KindMessage
	KindRecord
	KindReference
	KindString
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindLabel:
		return "label"
	case KindList:
		return "list"
	case KindMessage:
		return "message"
	case KindRecord:
		return "record"
	case KindReference:
		return "reference"
	case KindString:
		return "string"
	case KindUnion:
		return "union"
	default:
		return "invalid"
	}
}

// Meta is the identity every field descriptor carries.
type Meta struct {
	ID   string
	Name string
}

// Field is one typed slot of a record. Descriptors are shared, immutable
// values; only the value part is copied by clone.
type Field interface {
	ID() string
	Name() string
	Kind() Kind

	// width is the number of bytes the field occupies in its record's
	// fixed layout. Content inserted out of line is not counted.
	width(t *Types) (int, error)
	read(st *ReadState) error
	write(st *WriteState) error
	clone() Field
	// decoded is the union acceptance predicate for the last read.
	decoded() bool
	// owned lists the records this field owns.
	owned() []types.RecordID
	replaceOwned(old, repl types.RecordID)
	// copyFrom copies src's value, reallocating owned records into store.
	copyFrom(t *Types, src Field, store types.StoreNumber) error
}

func displayName(m *Meta) string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
