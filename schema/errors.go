package schema

import (
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

var (
	// ErrUnknownKind indicates a document or field kind the loader does not know.
	ErrUnknownKind = fmt.Errorf("schema: unknown kind: %w", types.ErrUndefinedType)
	// ErrUnknownOption indicates an unknown placement, count, ref or transform name.
	ErrUnknownOption = fmt.Errorf("schema: unknown option: %w", types.ErrUndefinedType)
	// ErrDuplicateStore indicates two store documents with the same name.
	ErrDuplicateStore = fmt.Errorf("schema: duplicate store: %w", types.ErrUndefinedType)
	// ErrNoStore indicates a lookup of an undeclared store.
	ErrNoStore = fmt.Errorf("schema: no such store: %w", types.ErrUndefinedType)
	// ErrInvalid indicates a document with missing or malformed values.
	ErrInvalid = fmt.Errorf("schema: invalid document: %w", types.ErrUndefinedType)
)
