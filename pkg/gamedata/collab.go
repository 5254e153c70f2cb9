package gamedata

import (
	"context"

	"github.com/joshuapare/binkit/engine"
)

// Source fetches the raw bytes stored under a project-relative path.
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// Sink stores bytes under a project-relative path.
type Sink interface {
	Store(ctx context.Context, path string, data []byte) error
}

// Codec unwraps a store's container on load and wraps it again on save.
type Codec interface {
	Decode(b []byte) ([]byte, error)
	Encode(b []byte) ([]byte, error)
}

// Identity is the Codec of uncompressed stores.
type Identity struct{}

func (Identity) Decode(b []byte) ([]byte, error) { return b, nil }
func (Identity) Encode(b []byte) ([]byte, error) { return b, nil }

// TextTable serves the text behind Message fields.
type TextTable = engine.TextTable
