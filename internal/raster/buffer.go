package raster

import (
	"image"
	"math"
)

// FrameBuffer is a square RGBA target with a depth buffer. Larger z is nearer.
type FrameBuffer struct {
	Size  int
	Color []uint8   // RGBA interleaved, len = Size*Size*4
	ZBuf  []float64 // len = Size*Size, cleared to -inf
}

func NewFrameBuffer(size int) *FrameBuffer {
	n := size * size
	zbuf := make([]float64, n)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	return &FrameBuffer{
		Size:  size,
		Color: make([]uint8, n*4),
		ZBuf:  zbuf,
	}
}

// Image copies the color buffer into a new NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Size, fb.Size))
	copy(img.Pix, fb.Color)
	return img
}
