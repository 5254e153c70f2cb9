package textenc

import (
	"testing"

	"github.com/joshuapare/binkit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, Default, c.Name())

	_, err = Lookup("ebcdic")
	require.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestShiftJISRoundTrip(t *testing.T) {
	c := MustLookup("shift-jis")
	raw, err := c.EncodeZ("マルス")
	require.NoError(t, err)
	assert.Equal(t, byte(0), raw[len(raw)-1])
	assert.Len(t, raw, 7)

	got, err := c.DecodeZ(append(raw, 'x', 'y'))
	require.NoError(t, err)
	assert.Equal(t, "マルス", got)
}

func TestEncodeUnrepresentable(t *testing.T) {
	c := MustLookup("windows-1252")
	_, err := c.Encode("日本")
	require.Error(t, err)
	assert.Equal(t, types.ErrKindEncoding, types.KindOf(err))

	_, err = c.EncodeZ("a\x00b")
	require.ErrorIs(t, err, types.ErrEncoding)
}

func TestDecodeZWithoutTerminator(t *testing.T) {
	c := MustLookup("utf-8")
	got, err := c.DecodeZ([]byte("PID_A"))
	require.NoError(t, err)
	assert.Equal(t, "PID_A", got)
}
