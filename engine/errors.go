package engine

import (
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

var (
	// ErrUnionNesting indicates a union candidate that is itself a union.
	ErrUnionNesting = fmt.Errorf("engine: union nested in union: %w", types.ErrUndefinedType)
	// ErrUnionExhausted indicates that no union candidate decoded.
	ErrUnionExhausted = fmt.Errorf("engine: every union candidate failed: %w", types.ErrContract)
	// ErrValueRequired indicates a placement that cannot encode an absent value.
	ErrValueRequired = fmt.Errorf("engine: value required: %w", types.ErrContract)
	// ErrConditionMismatch indicates a conditional record whose flag disagrees with its value.
	ErrConditionMismatch = fmt.Errorf("engine: condition flag mismatch: %w", types.ErrContract)
	// ErrConditionUnset indicates a conditional record whose flag was never set.
	ErrConditionUnset = fmt.Errorf("engine: condition not set: %w", types.ErrContract)
	// ErrCountMismatch indicates a static list whose length differs from its declared count.
	ErrCountMismatch = fmt.Errorf("engine: list count mismatch: %w", types.ErrContract)
	// ErrTypeMismatch indicates a record assigned to a field of another type.
	ErrTypeMismatch = fmt.Errorf("engine: record type mismatch: %w", types.ErrFieldKind)
	// ErrNoTable indicates a reference or list naming an unregistered table.
	ErrNoTable = fmt.Errorf("engine: table not registered: %w", types.ErrUnresolved)
	// ErrSize indicates a type whose fields do not fit its declared size.
	ErrSize = fmt.Errorf("engine: fields exceed type size: %w", types.ErrUndefinedType)
)

func errFieldKind(rid types.RecordID, fid string, got Kind, want string) error {
	return fmt.Errorf("%s.%s is %s, want %s: %w", rid, fid, got, want, types.ErrFieldKind)
}

func errIndex(what string, idx, n int) error {
	return fmt.Errorf("%s index %d (len %d): %w", what, idx, n, types.ErrOutOfBounds)
}
