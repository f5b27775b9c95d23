package pvr

import "image/color"

// Each channel lands in the high bits of its byte; the low bits stay zero.

func argb1555(v uint16) color.NRGBA {
	var a uint8
	if v&0x8000 != 0 {
		a = 0xff
	}
	return color.NRGBA{
		R: uint8(v>>7) & 0xf8,
		G: uint8(v>>2) & 0xf8,
		B: uint8(v<<3) & 0xf8,
		A: a,
	}
}

func rgb565(v uint16) color.NRGBA {
	return color.NRGBA{
		R: uint8(v>>8) & 0xf8,
		G: uint8(v>>3) & 0xfc,
		B: uint8(v<<3) & 0xf8,
		A: 0xff,
	}
}

func argb4444(v uint16) color.NRGBA {
	return color.NRGBA{
		R: uint8(v>>4) & 0xf0,
		G: uint8(v) & 0xf0,
		B: uint8(v<<4) & 0xf0,
		A: uint8(v>>8) & 0xf0,
	}
}

// Convert maps a raw 16-bit texel to RGBA. ok is false for unsupported formats.
func (c ColorFormat) Convert(v uint16) (color.NRGBA, bool) {
	switch c {
	case ARGB1555:
		return argb1555(v), true
	case RGB565:
		return rgb565(v), true
	case ARGB4444:
		return argb4444(v), true
	}
	return color.NRGBA{}, false
}
