package archive

import (
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

var (
	// ErrBounds indicates an access outside the data region.
	ErrBounds = fmt.Errorf("archive: access out of range: %w", types.ErrOutOfBounds)
	// ErrBadPointer indicates a pointer table entry that does not fit the data region.
	ErrBadPointer = fmt.Errorf("archive: pointer outside data region: %w", types.ErrStructural)
	// ErrLabelNotFound indicates a label lookup miss.
	ErrLabelNotFound = fmt.Errorf("archive: label not found: %w", types.ErrContract)
)
