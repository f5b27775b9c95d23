package mt5

import (
	"fmt"

	"dc-asset-decoder/internal/bitstream"
	"dc-asset-decoder/internal/decerr"
	"dc-asset-decoder/internal/pvm"
	"dc-asset-decoder/internal/pvr"
)

var (
	MagicTEXD = []byte("TEXD")
	MagicTEXN = []byte("TEXN")
)

// texnSkip is the gap between a TEXN marker and its texture id.
const texnSkip = 0x14

// readTextures decodes the TEXD block at off: magic, u32 length, u32 count,
// then count textures, each an optional TEXN record carrying its id followed
// by a PVRT stream. Without TEXN the id is the texture's position in the block.
// A block without the TEXD magic yields no textures.
func readTextures(data []byte, off int, opts []pvr.Option) ([]Texture, error) {
	r := bitstream.New(data)
	r.Seek(off)
	if magic := r.Magic(); magic != string(MagicTEXD) {
		return nil, nil
	}
	r.Skip(4)
	count := int(r.U32())
	if err := r.Err(); err != nil {
		return nil, err
	}
	// Every texture needs at least a PVRT marker, length and stream header.
	if count > r.Remaining()/(8+pvr.HeaderSize) {
		return nil, decerr.Malformed(off+8, "mt5 texture block", "%d textures in %d bytes", count, r.Remaining())
	}

	out := make([]Texture, 0, count)
	for i := 0; i < count; i++ {
		t := Texture{ID: i}
		if r.Remaining() >= 4 && string(r.Bytes()[r.Tell():r.Tell()+4]) == string(MagicTEXN) {
			r.Skip(4 + texnSkip)
			t.ID = int(r.U32())
		}
		t.Name = fmt.Sprintf("texture[%d]", t.ID)
		t.Stream = pvm.ScanStreams(r, 1, opts...)[0]
		out = append(out, t)
	}
	return out, nil
}
