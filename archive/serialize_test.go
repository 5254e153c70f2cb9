package archive

import (
	"encoding/binary"
	"testing"

	"github.com/joshuapare/binkit/internal/format"
	"github.com/joshuapare/binkit/internal/textenc"
	"github.com/joshuapare/binkit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeLayout(t *testing.T) {
	a := newTestArchive(t)
	out, err := a.Serialize()
	require.NoError(t, err)

	h, err := format.ParseHeader(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20), h.DataSize)
	assert.Equal(t, uint32(2), h.PointerCount)
	assert.Equal(t, uint32(2), h.MappedCount)

	ptrTable := h.PointerTableStart()
	assert.Equal(t, uint32(0x0C), binary.LittleEndian.Uint32(out[ptrTable:]), "internal pointers first")
	assert.Equal(t, uint32(0x10), binary.LittleEndian.Uint32(out[ptrTable+4:]))

	data := out[format.DataStart:]
	assert.Equal(t, uint32(0x18), binary.LittleEndian.Uint32(data[0x0C:]))

	textStart := h.TextStart() - format.DataStart
	textAddr := int(binary.LittleEndian.Uint32(data[0x10:]))
	assert.GreaterOrEqual(t, textAddr, textStart)

	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(out[format.ReservedOffset:]))
}

func TestSerializeRoundTrip(t *testing.T) {
	a := newTestArchive(t)
	require.NoError(t, a.AddLabel(0x18, "TailAlias"))
	require.NoError(t, a.SetText(0x14, "IID_鉄の剣"))
	require.NoError(t, a.SetText(0x1C, "Tail"))

	a0, err := a.Serialize()
	require.NoError(t, err)

	b, err := FromBytes(a0)
	require.NoError(t, err)
	assert.Equal(t, a.InternalPointers(), b.InternalPointers())
	assert.Equal(t, a.TextPointers(), b.TextPointers())
	assert.Equal(t, a.AllLabels(), b.AllLabels())

	a1, err := b.Serialize()
	require.NoError(t, err)
	assert.Equal(t, a0, a1, "serialize(from_bytes(A0)) must be byte-identical")
}

func TestTextDeduplication(t *testing.T) {
	a := New()
	require.NoError(t, a.Allocate(0, 8, false))
	require.NoError(t, a.SetText(0, "MPID_Same"))
	require.NoError(t, a.SetText(4, "MPID_Same"))

	out, err := a.Serialize()
	require.NoError(t, err)
	h, err := format.ParseHeader(out)
	require.NoError(t, err)

	text := out[h.TextStart():]
	assert.Equal(t, "MPID_Same\x00", string(text), "one pooled entry")

	data := out[format.DataStart:]
	assert.Equal(t, binary.LittleEndian.Uint32(data[0:]), binary.LittleEndian.Uint32(data[4:]))
}

func TestLabelSharesTextWithPointer(t *testing.T) {
	a := New()
	require.NoError(t, a.Allocate(0, 4, false))
	require.NoError(t, a.SetText(0, "Shared"))
	require.NoError(t, a.AddLabel(0, "Shared"))

	out, err := a.Serialize()
	require.NoError(t, err)
	h, err := format.ParseHeader(out)
	require.NoError(t, err)
	assert.Equal(t, "Shared\x00", string(out[h.TextStart():]))
}

func TestFromBytesSizeMismatch(t *testing.T) {
	out, err := newTestArchive(t).Serialize()
	require.NoError(t, err)

	_, err = FromBytes(append(out, 0))
	require.Error(t, err)
	assert.Equal(t, types.ErrKindStructural, types.KindOf(err))
}

func TestFromBytesBadPointer(t *testing.T) {
	out, err := newTestArchive(t).Serialize()
	require.NoError(t, err)
	h, err := format.ParseHeader(out)
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(out[h.PointerTableStart():], 0x1000)
	_, err = FromBytes(out)
	require.ErrorIs(t, err, ErrBadPointer)
}

func TestSerializeEncodingError(t *testing.T) {
	a := New(WithCodec(textenc.MustLookup("windows-1252")))
	require.NoError(t, a.Allocate(0, 4, false))
	require.Error(t, a.SetText(0, "日本"), "checked eagerly")

	a.text[0] = "日本"
	_, err := a.Serialize()
	require.Error(t, err)
	assert.Equal(t, types.ErrKindEncoding, types.KindOf(err))
}

func TestEmptyArchive(t *testing.T) {
	out, err := New().Serialize()
	require.NoError(t, err)
	assert.Len(t, out, format.HeaderSize)

	b, err := FromBytes(out)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Size())
}
