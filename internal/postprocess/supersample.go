// Package postprocess holds image operations applied after decoding or rendering.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img down to w x h with CatmullRom filtering on
// premultiplied alpha, so transparent texels do not bleed dark fringes into
// opaque edges. Images already within w x h are returned unchanged.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), Premultiply(img), b, draw.Src, nil)
	return Unpremultiply(dst)
}

// Premultiply converts straight alpha to premultiplied alpha.
func Premultiply(img *image.NRGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si, di := img.PixOffset(x, y), out.PixOffset(x, y)
			a := float64(img.Pix[si+3]) / 255
			for c := 0; c < 3; c++ {
				out.Pix[di+c] = clamp8(float64(img.Pix[si+c]) * a)
			}
			out.Pix[di+3] = img.Pix[si+3]
		}
	}
	return out
}

// Unpremultiply is the inverse of Premultiply. Fully transparent pixels become 0,0,0,0.
func Unpremultiply(img *image.RGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si, di := img.PixOffset(x, y), out.PixOffset(x, y)
			a := float64(img.Pix[si+3])
			if a > 1 {
				inv := 255 / a
				for c := 0; c < 3; c++ {
					out.Pix[di+c] = clamp8(float64(img.Pix[si+c]) * inv)
				}
			}
			out.Pix[di+3] = img.Pix[si+3]
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
