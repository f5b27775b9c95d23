// Package raster is a small software renderer used to produce preview images
// of decoded models.
package raster

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"dc-asset-decoder/internal/mt5"
)

var defaultColor = [4]uint8{160, 160, 170, 255}

// Options control the preview camera. Yaw and Pitch are in degrees.
type Options struct {
	Size        int
	Supersample int
	Yaw         float64
	Pitch       float64
	Margin      int // border in output pixels
}

func DefaultOptions() Options {
	return Options{Size: 256, Supersample: 1, Yaw: 45, Pitch: 25, Margin: 8}
}

// RenderModel draws m orthographically, fitted to the frame. The result is
// Size*Supersample pixels square; callers downsample it themselves.
func RenderModel(m *mt5.Model, opts Options) *image.NRGBA {
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	size := opts.Size * ss
	fb := NewFrameBuffer(size)
	if len(m.Vertices) == 0 || size == 0 {
		return fb.Image()
	}

	view := mgl64.Rotate3DX(mgl64.DegToRad(opts.Pitch)).Mul3(mgl64.Rotate3DY(mgl64.DegToRad(opts.Yaw)))

	rotated := make([]mgl64.Vec3, len(m.Vertices))
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i, v := range m.Vertices {
		p := view.Mul3x1(mgl64.Vec3{float64(v.Position[0]), float64(v.Position[1]), float64(v.Position[2])})
		rotated[i] = p
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}

	center := lo.Add(hi).Mul(0.5)
	span := math.Max(math.Max(hi[0]-lo[0], hi[1]-lo[1]), 0.001)
	margin := opts.Margin * ss
	if 2*margin >= size {
		margin = 0
	}
	scale := float64(size-2*margin) / span
	half := float64(size) / 2

	projected := make([]Vertex, len(rotated))
	for i, p := range rotated {
		projected[i] = Vertex{
			X: (p[0]-center[0])*scale + half,
			Y: half - (p[1]-center[1])*scale,
			Z: (p[2] - center[2]) * scale,
			U: float64(m.Vertices[i].UV[0]),
			V: float64(m.Vertices[i].UV[1]),
		}
	}

	lc := DefaultLightConfig()
	for _, g := range m.Groups {
		var tex *image.NRGBA
		fill := defaultColor
		if t := m.Texture(g.TextureID); t != nil {
			tex = t.Image
			fill = averageColor(tex)
		}
		for i := 0; i+2 < len(g.Indices); i += 3 {
			ia, ib, ic := int(g.Indices[i]), int(g.Indices[i+1]), int(g.Indices[i+2])
			if ic >= len(projected) || ia >= len(projected) || ib >= len(projected) {
				continue
			}
			faceTex := tex
			if !m.Vertices[ia].HasUV || !m.Vertices[ib].HasUV || !m.Vertices[ic].HasUV {
				faceTex = nil
			}
			Rasterize(fb, [3]Vertex{projected[ia], projected[ib], projected[ic]}, faceTex, fill, &lc)
		}
	}
	return fb.Image()
}
