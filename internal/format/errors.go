package format

import (
	"errors"
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = fmt.Errorf("format: truncated buffer: %w", types.ErrStructural)
	// ErrSizeMismatch indicates the declared archive size differs from the buffer length.
	ErrSizeMismatch = fmt.Errorf("format: archive size mismatch: %w", types.ErrStructural)
	// ErrLayout indicates the declared regions do not fit inside the archive.
	ErrLayout = fmt.Errorf("format: region layout exceeds archive: %w", types.ErrStructural)
)

// IsStructural reports whether err came from header validation.
func IsStructural(err error) bool {
	return errors.Is(err, types.ErrStructural)
}
