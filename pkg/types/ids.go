package types

import "fmt"

// StoreNumber identifies the container a record was allocated from: one
// loaded file or a dynamically opened sub-container.
type StoreNumber uint32

// RecordID is a globally unique handle for one live record instance.
// Record numbers start at 1, so the zero value doubles as the null
// reference.
type RecordID struct {
	Store  StoreNumber
	Number uint32
}

// NullRecord is the empty reference.
var NullRecord = RecordID{}

// IsNull reports whether id refers to no record.
func (id RecordID) IsNull() bool {
	return id.Number == 0
}

func (id RecordID) String() string {
	if id.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%d:%d", id.Store, id.Number)
}
