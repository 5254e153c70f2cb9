package archive

import (
	"fmt"
	"math"

	"github.com/joshuapare/binkit/internal/buf"
	"github.com/joshuapare/binkit/internal/textenc"
)

// Archive is a relocatable byte buffer with pointer bookkeeping.
type Archive struct {
	data     []byte
	internal map[int]int
	text     map[int]string
	labels   map[int][]string
	codec    *textenc.Codec
}

// Option configures an Archive.
type Option func(*Archive)

// WithCodec sets the text encoding used for text pointers and labels.
func WithCodec(c *textenc.Codec) Option {
	return func(a *Archive) {
		if c != nil {
			a.codec = c
		}
	}
}

// New returns an empty archive.
func New(opts ...Option) *Archive {
	a := &Archive{
		internal: make(map[int]int),
		text:     make(map[int]string),
		labels:   make(map[int][]string),
		codec:    textenc.MustLookup(textenc.Default),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Size returns the length of the data region.
func (a *Archive) Size() int { return len(a.data) }

// Bytes returns the data region. Pointer slots hold stale values until
// Serialize; use Pointer/Text to inspect them.
func (a *Archive) Bytes() []byte { return a.data }

// Codec returns the text codec.
func (a *Archive) Codec() *textenc.Codec { return a.codec }

func (a *Archive) span(addr, n int) ([]byte, error) {
	b, ok := buf.Slice(a.data, addr, n)
	if !ok {
		return nil, fmt.Errorf("0x%x+%d (size 0x%x): %w", addr, n, len(a.data), ErrBounds)
	}
	return b, nil
}

// ReadBytes returns a copy of n bytes at addr.
func (a *Archive) ReadBytes(addr, n int) ([]byte, error) {
	b, err := a.span(addr, n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// PutBytes overwrites len(v) bytes at addr.
func (a *Archive) PutBytes(addr int, v []byte) error {
	b, err := a.span(addr, len(v))
	if err != nil {
		return err
	}
	copy(b, v)
	return nil
}

// ReadU8 reads an unsigned byte at addr.
func (a *Archive) ReadU8(addr int) (uint8, error) {
	b, err := a.span(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadI8 reads a signed byte at addr.
func (a *Archive) ReadI8(addr int) (int8, error) {
	v, err := a.ReadU8(addr)
	return int8(v), err
}

// ReadU16 reads a little-endian uint16 at addr.
func (a *Archive) ReadU16(addr int) (uint16, error) {
	b, err := a.span(addr, 2)
	if err != nil {
		return 0, err
	}
	return buf.U16LE(b), nil
}

// ReadI16 reads a little-endian int16 at addr.
func (a *Archive) ReadI16(addr int) (int16, error) {
	v, err := a.ReadU16(addr)
	return int16(v), err
}

// ReadU32 reads a little-endian uint32 at addr.
func (a *Archive) ReadU32(addr int) (uint32, error) {
	b, err := a.span(addr, 4)
	if err != nil {
		return 0, err
	}
	return buf.U32LE(b), nil
}

// ReadI32 reads a little-endian int32 at addr.
func (a *Archive) ReadI32(addr int) (int32, error) {
	v, err := a.ReadU32(addr)
	return int32(v), err
}

// ReadF32 reads a little-endian IEEE-754 float at addr.
func (a *Archive) ReadF32(addr int) (float32, error) {
	v, err := a.ReadU32(addr)
	return math.Float32frombits(v), err
}

// PutU8 writes v at addr.
func (a *Archive) PutU8(addr int, v uint8) error {
	b, err := a.span(addr, 1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// PutI8 writes v at addr.
func (a *Archive) PutI8(addr int, v int8) error { return a.PutU8(addr, uint8(v)) }

// PutU16 writes v at addr in little-endian order.
func (a *Archive) PutU16(addr int, v uint16) error {
	b, err := a.span(addr, 2)
	if err != nil {
		return err
	}
	buf.PutU16LE(b, v)
	return nil
}

// PutI16 writes v at addr in little-endian order.
func (a *Archive) PutI16(addr int, v int16) error { return a.PutU16(addr, uint16(v)) }

// PutU32 writes v at addr in little-endian order.
func (a *Archive) PutU32(addr int, v uint32) error {
	b, err := a.span(addr, 4)
	if err != nil {
		return err
	}
	buf.PutU32LE(b, v)
	return nil
}

// PutI32 writes v at addr in little-endian order.
func (a *Archive) PutI32(addr int, v int32) error { return a.PutU32(addr, uint32(v)) }

// PutF32 writes v at addr in little-endian order.
func (a *Archive) PutF32(addr int, v float32) error { return a.PutU32(addr, math.Float32bits(v)) }
