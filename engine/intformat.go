package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/pkg/types"
)

// IntFormat is the storage format of an integer.
type IntFormat uint8

const (
	U8 IntFormat = iota + 1
	I8
	U16
	I16
	U32
	I32
)

var intFormatNames = map[IntFormat]string{
	U8: "u8", I8: "i8", U16: "u16", I16: "i16", U32: "u32", I32: "i32",
}

func (f IntFormat) String() string {
	if s, ok := intFormatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("IntFormat(%d)", uint8(f))
}

// ParseIntFormat maps "u8", "i16", ... to an IntFormat.
func ParseIntFormat(s string) (IntFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range intFormatNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("int format %q: %w", s, types.ErrUndefinedType)
}

// Size returns the encoded width in bytes.
func (f IntFormat) Size() int {
	switch f {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32:
		return 4
	default:
		return 0
	}
}

// Range returns the inclusive value range representable by f.
func (f IntFormat) Range() (lo, hi int64) {
	switch f {
	case U8:
		return 0, math.MaxUint8
	case I8:
		return math.MinInt8, math.MaxInt8
	case U16:
		return 0, math.MaxUint16
	case I16:
		return math.MinInt16, math.MaxInt16
	case U32:
		return 0, math.MaxUint32
	case I32:
		return math.MinInt32, math.MaxInt32
	default:
		return 0, 0
	}
}

func (f IntFormat) check(v int64) error {
	lo, hi := f.Range()
	if v < lo || v > hi {
		return fmt.Errorf("%d outside %s range [%d, %d]: %w", v, f, lo, hi, types.ErrOutOfBounds)
	}
	return nil
}

func (f IntFormat) get(a *archive.Archive, addr int) (int64, error) {
	switch f {
	case U8:
		v, err := a.ReadU8(addr)
		return int64(v), err
	case I8:
		v, err := a.ReadI8(addr)
		return int64(v), err
	case U16:
		v, err := a.ReadU16(addr)
		return int64(v), err
	case I16:
		v, err := a.ReadI16(addr)
		return int64(v), err
	case U32:
		v, err := a.ReadU32(addr)
		return int64(v), err
	case I32:
		v, err := a.ReadI32(addr)
		return int64(v), err
	default:
		return 0, fmt.Errorf("read %s: %w", f, types.ErrUndefinedType)
	}
}

func (f IntFormat) put(a *archive.Archive, addr int, v int64) error {
	if err := f.check(v); err != nil {
		return err
	}
	switch f {
	case U8:
		return a.PutU8(addr, uint8(v))
	case I8:
		return a.PutI8(addr, int8(v))
	case U16:
		return a.PutU16(addr, uint16(v))
	case I16:
		return a.PutI16(addr, int16(v))
	case U32:
		return a.PutU32(addr, uint32(v))
	case I32:
		return a.PutI32(addr, int32(v))
	default:
		return fmt.Errorf("write %s: %w", f, types.ErrUndefinedType)
	}
}
