package raster

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is a projected vertex: X, Y in pixels, Z grows towards the viewer.
type Vertex struct {
	X, Y, Z float64
	U, V    float64
}

// Rasterize draws one flat-shaded triangle with depth test. With a nil tex the
// face is filled with fill. Texels with alpha below 8 are discarded.
func Rasterize(fb *FrameBuffer, tri [3]Vertex, tex *image.NRGBA, fill [4]uint8, lc *LightConfig) {
	a, b, c := tri[0], tri[1], tri[2]

	e1 := mgl64.Vec3{b.X - a.X, b.Y - a.Y, b.Z - a.Z}
	e2 := mgl64.Vec3{c.X - a.X, c.Y - a.Y, c.Z - a.Z}
	n := e1.Cross(e2)
	if n.Len() < 1e-8 {
		return
	}
	shade := lc.Shade(n.Normalize())

	size := fb.Size
	minX := clampInt(int(math.Min(math.Min(a.X, b.X), c.X)), 0, size-1)
	maxX := clampInt(int(math.Max(math.Max(a.X, b.X), c.X))+1, 0, size-1)
	minY := clampInt(int(math.Min(math.Min(a.Y, b.Y), c.Y)), 0, size-1)
	maxY := clampInt(int(math.Max(math.Max(a.Y, b.Y), c.Y))+1, 0, size-1)
	if minX >= maxX || minY >= maxY {
		return
	}

	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(det) < 1e-8 {
		return
	}
	invDet := 1 / det

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - c.Y
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - c.X
			w0 := ((b.Y-c.Y)*dsx + (c.X-b.X)*dsy) * invDet
			w1 := ((c.Y-a.Y)*dsx + (a.X-c.X)*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			i := sy*size + sx
			if z <= fb.ZBuf[i] {
				continue
			}

			px := fill
			if tex != nil {
				u := w0*a.U + w1*b.U + w2*c.U
				v := w0*a.V + w1*b.V + w2*c.V
				px[0], px[1], px[2], px[3] = SampleTexture(tex, u, v)
			}
			if px[3] < 8 {
				continue
			}
			fb.ZBuf[i] = z

			o := i * 4
			fb.Color[o] = lc.apply(px[0], shade)
			fb.Color[o+1] = lc.apply(px[1], shade)
			fb.Color[o+2] = lc.apply(px[2], shade)
			fb.Color[o+3] = px[3]
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
