package pvm

import (
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dc-asset-decoder/internal/decerr"
	"dc-asset-decoder/internal/fixture"
	"dc-asset-decoder/internal/pvr"
)

// texture returns a standalone 1x1 rectangle texture holding one texel.
func texture(cf pvr.ColorFormat, df pvr.DataFormat, texel uint16) []byte {
	return fixture.Texture(byte(cf), byte(df), 1, 1, []uint16{texel})
}

func TestArchiveAllFields(t *testing.T) {
	data := fixture.NamedArchive(FlagName|FlagFormat|FlagSize|FlagGlobalIndex, []fixture.Entry{
		{Name: "grass", Format: 0x0901, Size: 0x0101, GlobalIndex: 1000},
		{Name: "caf\xe9", Format: 0x0901, Size: 0x0101, GlobalIndex: 1001},
	},
		texture(pvr.ARGB4444, pvr.Rectangle, 0xf123),
		texture(pvr.RGB565, pvr.Rectangle, 0xffff),
	)

	a, err := ParseArchive(data)
	require.NoError(t, err)
	require.Len(t, a.Entries, 2)
	assert.True(t, a.HasNames())
	assert.Equal(t, Entry{ID: 0, Name: "grass", Format: 0x0901, Size: 0x0101, GlobalIndex: 1000}, a.Entries[0])
	assert.Equal(t, "café", a.Entries[1].Name)

	texs := a.Textures()
	require.Len(t, texs, 2)
	require.NoError(t, texs[0].Err)
	require.NoError(t, texs[1].Err)
	assert.Equal(t, []uint8{0x10, 0x20, 0x30, 0xf0}, texs[0].Image.Pix)
	assert.Equal(t, []uint8{0xf8, 0xfc, 0xf8, 0xff}, texs[1].Image.Pix)
	assert.Greater(t, texs[1].Offset, texs[0].Offset)
}

func TestArchiveWithoutNames(t *testing.T) {
	data := fixture.NamedArchive(FlagGlobalIndex, []fixture.Entry{{GlobalIndex: 1000}},
		texture(pvr.ARGB4444, pvr.Rectangle, 0))

	a, err := ParseArchive(data)
	require.NoError(t, err)
	assert.Equal(t, "texture[0]", a.Entries[0].Name)
	assert.Equal(t, uint32(1000), a.Entries[0].GlobalIndex)
}

func TestArchiveEntryFailuresAreIsolated(t *testing.T) {
	data := fixture.NamedArchive(0, make([]fixture.Entry, 3),
		texture(pvr.ARGB4444, pvr.Palettize4, 0),
		texture(pvr.ARGB4444, pvr.Rectangle, 0xf000),
	)

	a, err := ParseArchive(data)
	require.NoError(t, err)
	texs := a.Textures()
	require.Len(t, texs, 3)

	var unsupported *decerr.UnsupportedFormatError
	require.True(t, errors.As(texs[0].Err, &unsupported))

	require.NoError(t, texs[1].Err)
	assert.Equal(t, uint8(0xf0), texs[1].Image.Pix[3])

	var trunc *decerr.TruncatedStreamError
	require.True(t, errors.As(texs[2].Err, &trunc))
	assert.Equal(t, "PVRT marker", trunc.What)
}

func TestArchiveBadMagic(t *testing.T) {
	_, err := ParseArchive([]byte("PVRTxxxxxxxx"))
	var malformed *decerr.MalformedHeaderError
	require.True(t, errors.As(err, &malformed))
}

func TestArchiveTruncatedTable(t *testing.T) {
	data := fixture.PVMH(FlagName, fixture.Entry{Name: "a"}, fixture.Entry{Name: "b"}).Data[:20]
	binary.LittleEndian.PutUint32(data[4:], 0)

	_, err := ParseArchive(data)
	var malformed *decerr.MalformedHeaderError
	require.True(t, errors.As(err, &malformed))
}

func TestStreamLengthBeyondBuffer(t *testing.T) {
	b := fixture.PVMH(0, fixture.Entry{})
	b.Append([]byte("PVRT"), uint32(400), make([]byte, 12))

	a, err := ParseArchive(b.Data)
	require.NoError(t, err)
	texs := a.Textures()

	var trunc *decerr.TruncatedStreamError
	require.True(t, errors.As(texs[0].Err, &trunc))
	assert.Equal(t, 400, trunc.Want)
	assert.Equal(t, 12, trunc.Have)
}

func TestReadTexture(t *testing.T) {
	d, img, err := ReadTexture(texture(pvr.ARGB4444, pvr.Rectangle, 0xf123))
	require.NoError(t, err)
	assert.Equal(t, 1, d.Width)
	assert.Equal(t, []uint8{0x10, 0x20, 0x30, 0xf0}, img.Pix)

	_, _, err = ReadTexture([]byte("HRCM...."))
	var malformed *decerr.MalformedHeaderError
	require.True(t, errors.As(err, &malformed))
}
