package raster

import "image"

// wrap maps a texture coordinate into [0,1).
func wrap(t float64) float64 {
	t -= float64(int(t))
	if t < 0 {
		t += 1
	}
	return t
}

// SampleTexture reads tex with bilinear filtering and repeat addressing.
func SampleTexture(tex *image.NRGBA, u, v float64) (r, g, b, a uint8) {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()

	fx := wrap(u) * float64(w-1)
	fy := wrap(v) * float64(h-1)
	x0, y0 := int(fx), int(fy)
	x1, y1 := (x0+1)%w, (y0+1)%h
	dx, dy := fx-float64(x0), fy-float64(y0)

	i00 := y0*tex.Stride + x0*4
	i10 := y0*tex.Stride + x1*4
	i01 := y1*tex.Stride + x0*4
	i11 := y1*tex.Stride + x1*4
	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]uint8
	pix := tex.Pix
	for c := 0; c < 4; c++ {
		f := float64(pix[i00+c])*w00 + float64(pix[i10+c])*w10 + float64(pix[i01+c])*w01 + float64(pix[i11+c])*w11
		out[c] = clamp255(f)
	}
	return out[0], out[1], out[2], out[3]
}

// averageColor is the untextured fallback for faces whose texture is missing.
func averageColor(tex *image.NRGBA) [4]uint8 {
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	if w == 0 || h == 0 {
		return defaultColor
	}
	var sum [3]float64
	for y := 0; y < h; y++ {
		row := tex.Pix[y*tex.Stride:]
		for x := 0; x < w; x++ {
			sum[0] += float64(row[x*4])
			sum[1] += float64(row[x*4+1])
			sum[2] += float64(row[x*4+2])
		}
	}
	n := float64(w * h)
	return [4]uint8{clamp255(sum[0] / n), clamp255(sum[1] / n), clamp255(sum[2] / n), 255}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
