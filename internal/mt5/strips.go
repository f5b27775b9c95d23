package mt5

import (
	"github.com/pkg/errors"

	"dc-asset-decoder/internal/bitstream"
	"dc-asset-decoder/internal/decerr"
)

// Polygon stream tags, read as (head, flag) u16 pairs.
const (
	tagEnd       = 0x8000
	tagEndFlag   = 0xffff
	tagGroupFlag = 0x10
	tagTexture   = 0x0009
	uvScale      = 1023.0
)

func opensGroup(head, flag uint16) bool {
	return (head == 2 || head == 3) && flag == tagGroupFlag
}

// decodePolygons reads the tagged polygon stream at off. base is added to every
// strip index; vertices is the number of vertices decoded so far, anything at
// or past it is dropped with a warning. Unknown tags are skipped. A group with
// no texture tag keeps the last texture id seen in the stream (0 at first).
func decodePolygons(r *bitstream.Reader, off, base, vertices int) ([]Polygon, []decerr.IndexOutOfRangeWarning, error) {
	if off < 0 || off > r.Len() {
		return nil, nil, decerr.Malformed(off, "mt5 polygons", "offset outside %d bytes", r.Len())
	}
	r.Seek(off)

	var (
		polys   []Polygon
		warns   []decerr.IndexOutOfRangeWarning
		open    bool
		texture int
	)
	for r.Tell() < r.Len()-4 {
		at := r.Tell()
		head, flag := r.U16(), r.U16()
		switch {
		case head == tagEnd && flag == tagEndFlag:
			return polys, warns, nil
		case opensGroup(head, flag):
			open = true
		case open && head == tagTexture:
			texture = int(flag)
		case open && StripFormat(head).valid():
			// flag is the block size; the strip count follows it.
			p := Polygon{Offset: at, TextureID: texture, Format: StripFormat(head)}
			var w []decerr.IndexOutOfRangeWarning
			p.Strips, w = readStrips(r, p.Format, base, vertices)
			if err := r.Err(); err != nil {
				return polys, warns, errors.Wrapf(err, "strip block at 0x%x", at)
			}
			polys = append(polys, p)
			warns = append(warns, w...)
			open = false
			if r.Abs(r.Tell())%4 == 2 {
				r.Skip(2)
			}
		}
	}
	return polys, warns, nil
}

// readStrips reads a strip block: u16 strip count, then per strip an i16
// length (sign is winding, ignored) and that many points.
func readStrips(r *bitstream.Reader, f StripFormat, base, vertices int) ([]Strip, []decerr.IndexOutOfRangeWarning) {
	count := int(r.U16())
	strips := make([]Strip, 0, count)
	var warns []decerr.IndexOutOfRangeWarning
	pairs := f.uvPairs()
	for s := 0; s < count && r.Err() == nil; s++ {
		n := int(r.I16())
		if n < 0 {
			n = -n
		}
		strip := make(Strip, 0, n)
		for i := 0; i < n && r.Err() == nil; i++ {
			at := r.Abs(r.Tell())
			p := Point{Index: int(r.I16()) + base}
			if pairs > 0 {
				p.UV = [2]float32{float32(r.I16()) / uvScale, float32(r.I16()) / uvScale}
				p.HasUV = true
			}
			if pairs > 1 {
				p.UV2 = [2]float32{float32(r.I16()) / uvScale, float32(r.I16()) / uvScale}
				p.HasUV2 = true
			}
			if p.Index < 0 || p.Index >= vertices {
				warns = append(warns, decerr.IndexOutOfRangeWarning{Offset: at, Index: p.Index, Vertices: vertices})
				continue
			}
			strip = append(strip, p)
		}
		strips = append(strips, strip)
	}
	return strips, warns
}
