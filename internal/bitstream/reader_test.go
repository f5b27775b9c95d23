package bitstream

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dc-asset-decoder/internal/decerr"
)

func TestTypedReads(t *testing.T) {
	r := New([]byte{
		0x01,
		0x34, 0x12,
		0xfe, 0xff,
		0x78, 0x56, 0x34, 0x12,
		0x00, 0x00, 0x80, 0x3f,
	})

	assert.Equal(t, uint8(1), r.U8())
	assert.Equal(t, uint16(0x1234), r.U16())
	assert.Equal(t, int16(-2), r.I16())
	assert.Equal(t, uint32(0x12345678), r.U32())
	assert.Equal(t, float32(1), r.F32())
	assert.Equal(t, 0, r.Remaining())
	require.NoError(t, r.Err())
}

func TestOverrunIsSticky(t *testing.T) {
	r := New([]byte{1, 2, 3})
	r.Skip(2)
	assert.Equal(t, uint32(0), r.U32())
	assert.Equal(t, 3, r.Tell())

	var trunc *decerr.TruncatedStreamError
	require.True(t, errors.As(r.Err(), &trunc))
	assert.Equal(t, 2, trunc.Offset)
	assert.Equal(t, 4, trunc.Want)
	assert.Equal(t, 1, trunc.Have)

	// A later overrun does not replace the first one.
	r.U16()
	require.True(t, errors.As(r.Err(), &trunc))
	assert.Equal(t, 2, trunc.Offset)
}

func TestFind(t *testing.T) {
	data := []byte("xxGBIXabcdPVRT\x04\x00\x00\x00")
	r := New(data)

	require.True(t, r.Find([]byte("PVRT")))
	assert.Equal(t, 14, r.Tell())
	assert.Equal(t, uint32(4), r.U32())

	assert.False(t, r.Find([]byte("PVRT")))
	assert.Equal(t, len(data), r.Tell())
	assert.NoError(t, r.Err())
}

func TestSubKeepsAbsoluteOffsets(t *testing.T) {
	r := New(make([]byte, 16))
	sub, err := r.Sub(8, 4)
	require.NoError(t, err)
	sub.U32()
	sub.U8()

	var trunc *decerr.TruncatedStreamError
	require.True(t, errors.As(sub.Err(), &trunc))
	assert.Equal(t, 12, trunc.Offset)

	_, err = r.Sub(12, 8)
	require.True(t, errors.As(err, &trunc))
	assert.Equal(t, 4, trunc.Have)
}
