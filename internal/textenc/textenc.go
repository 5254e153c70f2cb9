// Package textenc maps archive encoding names onto golang.org/x/text codecs
// and provides the NUL-terminated string helpers used by the text region.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/binkit/pkg/types"
)

// Default is the encoding used when none is configured.
const Default = "shift-jis"

// ErrUnknownEncoding indicates an encoding name with no registered codec.
var ErrUnknownEncoding = errors.New("textenc: unknown encoding")

// Codec converts between Go strings and the archive's byte encoding.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// Lookup returns the codec registered under name (case-insensitive).
// The empty name selects Default.
func Lookup(name string) (*Codec, error) {
	if name == "" {
		name = Default
	}
	var enc encoding.Encoding
	switch strings.ToLower(name) {
	case "shift-jis", "shift_jis", "sjis":
		enc = japanese.ShiftJIS
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	case "iso-8859-1", "latin1":
		enc = charmap.ISO8859_1
	case "utf-8", "utf8":
		enc = unicode.UTF8
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return &Codec{name: strings.ToLower(name), enc: enc}, nil
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(name string) *Codec {
	c, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the normalized encoding name.
func (c *Codec) Name() string { return c.name }

// Encode converts s to the archive encoding. Characters the encoding cannot
// represent fail with a types.ErrEncoding-classified error.
func (c *Codec) Encode(s string) ([]byte, error) {
	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %q as %s: %w", s, c.name, types.ErrEncoding)
	}
	return out, nil
}

// Decode converts archive bytes to a Go string.
func (c *Codec) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %d bytes as %s: %w", len(b), c.name, types.ErrEncoding)
	}
	return string(out), nil
}

// EncodeZ encodes s and appends the NUL terminator. Encoded text may not
// contain an embedded NUL.
func (c *Codec) EncodeZ(s string) ([]byte, error) {
	out, err := c.Encode(s)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(out, 0) >= 0 {
		return nil, fmt.Errorf("string %q contains NUL: %w", s, types.ErrEncoding)
	}
	return append(out, 0), nil
}

// DecodeZ decodes the NUL-terminated string starting at b[0]. A missing
// terminator consumes the rest of b.
func (c *Codec) DecodeZ(b []byte) (string, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return c.Decode(b)
}
