package pvr

import (
	"fmt"

	"dc-asset-decoder/internal/bitstream"
	"dc-asset-decoder/internal/decerr"
)

// HeaderSize is the size of the texture sub-stream header that precedes pixel data.
const HeaderSize = 8

// ColorFormat is the 16-bit texel encoding.
type ColorFormat uint8

const (
	ARGB1555 ColorFormat = 0x00
	RGB565   ColorFormat = 0x01
	ARGB4444 ColorFormat = 0x02
	YUV422   ColorFormat = 0x03
	Bump     ColorFormat = 0x04
	RGB555   ColorFormat = 0x05
	ARGB8888 ColorFormat = 0x06
)

var colorFormatNames = map[ColorFormat]string{
	ARGB1555: "ARGB1555",
	RGB565:   "RGB565",
	ARGB4444: "ARGB4444",
	YUV422:   "YUV422",
	Bump:     "BUMP",
	RGB555:   "RGB555",
	ARGB8888: "ARGB8888",
}

func (c ColorFormat) String() string {
	if n, ok := colorFormatNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ColorFormat(0x%02x)", uint8(c))
}

// Supported reports whether texels in this format can be converted to RGBA.
func (c ColorFormat) Supported() bool {
	return c == ARGB1555 || c == RGB565 || c == ARGB4444
}

// DataFormat describes the storage layout of the pixel payload.
type DataFormat uint8

const (
	Twiddled          DataFormat = 0x01
	TwiddledMM        DataFormat = 0x02
	VQ                DataFormat = 0x03
	VQMM              DataFormat = 0x04
	Palettize4        DataFormat = 0x05
	Palettize4MM      DataFormat = 0x06
	Palettize8        DataFormat = 0x07
	Palettize8MM      DataFormat = 0x08
	Rectangle         DataFormat = 0x09
	Stride            DataFormat = 0x0B
	TwiddledRectangle DataFormat = 0x0D
	ABGR              DataFormat = 0x0E
	ABGRMM            DataFormat = 0x0F
	SmallVQ           DataFormat = 0x10
	SmallVQMM         DataFormat = 0x11
	TwiddledMMAlias   DataFormat = 0x12
)

var dataFormatNames = map[DataFormat]string{
	Twiddled:          "TWIDDLED",
	TwiddledMM:        "TWIDDLED_MM",
	VQ:                "VQ",
	VQMM:              "VQ_MM",
	Palettize4:        "PALETTIZE4",
	Palettize4MM:      "PALETTIZE4_MM",
	Palettize8:        "PALETTIZE8",
	Palettize8MM:      "PALETTIZE8_MM",
	Rectangle:         "RECTANGLE",
	Stride:            "STRIDE",
	TwiddledRectangle: "TWIDDLED_RECTANGLE",
	ABGR:              "ABGR",
	ABGRMM:            "ABGR_MM",
	SmallVQ:           "SMALLVQ",
	SmallVQMM:         "SMALLVQ_MM",
	TwiddledMMAlias:   "TWIDDLED_MM_ALIAS",
}

func (f DataFormat) String() string {
	if n, ok := dataFormatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("DataFormat(0x%02x)", uint8(f))
}

// Layout is how the texel (or VQ index) grid is stored.
type Layout int

const (
	LayoutUnsupported Layout = iota
	LayoutTwiddled
	LayoutRectangle
	LayoutVQ // linear index grid, expanded in twiddled scan order
)

func (l Layout) String() string {
	switch l {
	case LayoutTwiddled:
		return "twiddled"
	case LayoutRectangle:
		return "rectangle"
	case LayoutVQ:
		return "vq"
	}
	return "unsupported"
}

// Descriptor is the parsed texture sub-stream header.
type Descriptor struct {
	ColorFormat ColorFormat
	DataFormat  DataFormat
	Width       int
	Height      int
}

// ParseHeader reads the 8-byte header: color format, data format, 2 reserved bytes,
// width and height.
func ParseHeader(r *bitstream.Reader) (Descriptor, error) {
	start := r.Tell()
	d := Descriptor{
		ColorFormat: ColorFormat(r.U8()),
		DataFormat:  DataFormat(r.U8()),
	}
	r.Skip(2)
	d.Width = int(r.U16())
	d.Height = int(r.U16())
	if err := r.Err(); err != nil {
		return d, err
	}
	if d.Width == 0 || d.Height == 0 || d.Width > 1024 || d.Height > 1024 {
		return d, decerr.Malformed(r.Abs(start), "texture header", "dimensions %dx%d", d.Width, d.Height)
	}
	return d, nil
}

func (d Descriptor) IsTwiddled() bool {
	switch d.DataFormat {
	case Twiddled, TwiddledMM, TwiddledRectangle, TwiddledMMAlias:
		return true
	}
	return false
}

func (d Descriptor) IsMipmap() bool {
	switch d.DataFormat {
	case TwiddledMM, Palettize4MM, Palettize8MM, ABGRMM, VQMM, SmallVQMM:
		return true
	}
	// TwiddledMMAlias carries no smaller levels despite its name.
	return false
}

func (d Descriptor) IsCompressed() bool {
	switch d.DataFormat {
	case VQ, VQMM, SmallVQ, SmallVQMM:
		return true
	}
	return false
}

func (d Descriptor) IsRectangle() bool {
	return d.DataFormat == Rectangle
}

// IsSmallVQ reports a VQ variant whose codebook is shrunk to fit the texture size.
func (d Descriptor) IsSmallVQ() bool {
	return d.DataFormat == SmallVQ || d.DataFormat == SmallVQMM
}

// CodebookSize is the number of 2x2 entries in the VQ codebook.
func (d Descriptor) CodebookSize() int {
	if !d.IsSmallVQ() {
		return 256
	}
	mm := d.IsMipmap()
	switch {
	case d.Width <= 16:
		return 16
	case d.Width == 32 && !mm:
		return 32
	case d.Width == 32 && mm:
		return 64
	case d.Width == 64 && !mm:
		return 128
	}
	return 256
}

// Layout classifies the data format. Palette, stride, ABGR and unknown formats
// are LayoutUnsupported.
func (d Descriptor) Layout() Layout {
	switch {
	case d.IsTwiddled():
		return LayoutTwiddled
	case d.IsRectangle():
		return LayoutRectangle
	case d.IsCompressed():
		return LayoutVQ
	}
	return LayoutUnsupported
}

// Validate reports an *decerr.UnsupportedFormatError if the descriptor cannot be decoded.
func (d Descriptor) Validate() error {
	if d.Layout() == LayoutUnsupported {
		return &decerr.UnsupportedFormatError{Kind: "data format", Value: int(d.DataFormat), Name: d.DataFormat.String()}
	}
	if !d.ColorFormat.Supported() {
		return &decerr.UnsupportedFormatError{Kind: "color format", Value: int(d.ColorFormat), Name: d.ColorFormat.String()}
	}
	return nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%dx%d %s %s", d.Width, d.Height, d.ColorFormat, d.DataFormat)
}
