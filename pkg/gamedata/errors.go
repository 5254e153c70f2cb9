package gamedata

import (
	"errors"
	"fmt"

	"github.com/joshuapare/binkit/pkg/types"
)

var (
	// ErrNotLoaded indicates an operation on a store that Load has not read.
	ErrNotLoaded = fmt.Errorf("gamedata: store not loaded: %w", types.ErrNoRecord)
	// ErrAlreadyLoaded indicates a second Load of the same store.
	ErrAlreadyLoaded = errors.New("gamedata: store already loaded")
	// ErrUnknownCodec indicates a store binding naming an unregistered codec.
	ErrUnknownCodec = errors.New("gamedata: unknown codec")
)
