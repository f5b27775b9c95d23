package pvr

import (
	"image"

	"github.com/pkg/errors"

	"dc-asset-decoder/internal/bitstream"
	"dc-asset-decoder/internal/decerr"
	"dc-asset-decoder/internal/twiddle"
)

const (
	wordSize       = 2
	codeComponents = 4 // texels per codebook entry (2x2 block)
)

type options struct {
	flipX  bool
	flipY  bool
	mapper twiddle.Mapper
}

// Option tweaks a decode.
type Option func(*options)

// WithFlipX mirrors every row.
func WithFlipX(v bool) Option { return func(o *options) { o.flipX = v } }

// WithFlipY stores rows bottom-to-top.
func WithFlipY(v bool) Option { return func(o *options) { o.flipY = v } }

// WithMapper replaces the shared twiddle cache.
func WithMapper(m twiddle.Mapper) Option { return func(o *options) { o.mapper = m } }

// DecodeStream parses the sub-stream header and decodes the payload that follows it.
func DecodeStream(stream []byte, opts ...Option) (Descriptor, *image.NRGBA, error) {
	r := bitstream.New(stream)
	d, err := ParseHeader(r)
	if err != nil {
		return d, nil, errors.Wrap(err, "pvr: header")
	}
	img, err := Decode(stream[HeaderSize:], d, opts...)
	return d, img, err
}

// Decode turns the pixel payload described by d into a Width x Height RGBA image.
func Decode(data []byte, d Descriptor, opts ...Option) (*image.NRGBA, error) {
	o := options{mapper: twiddle.Default}
	for _, opt := range opts {
		opt(&o)
	}
	if err := d.Validate(); err != nil {
		return nil, errors.Wrapf(err, "pvr: %s", d)
	}

	dec := &decoder{d: d, mapper: o.mapper, r: bitstream.New(data)}
	texels, err := dec.run()
	if err != nil {
		return nil, errors.Wrapf(err, "pvr: %s", d)
	}
	return dec.toImage(texels, o.flipX, o.flipY), nil
}

type decoder struct {
	d        Descriptor
	mapper   twiddle.Mapper
	r        *bitstream.Reader
	codebook []uint16
}

// run returns Width*Height raw 16-bit texels in row-major order.
func (dec *decoder) run() ([]uint16, error) {
	d := dec.d
	mipW, mipH := d.Width, d.Height
	texelSize := wordSize

	if d.IsCompressed() {
		n := d.CodebookSize() * codeComponents
		dec.codebook = make([]uint16, n)
		for i := range dec.codebook {
			dec.codebook[i] = dec.r.U16()
		}
		if err := dec.r.Err(); err != nil {
			return nil, errors.Wrap(err, "codebook")
		}
		mipW /= 2
		mipH /= 2
		texelSize = 1
	}

	if d.IsMipmap() {
		dec.r.Skip(MipSkip(d))
		if err := dec.r.Err(); err != nil {
			return nil, errors.Wrap(err, "mipmap skip")
		}
	}

	region, err := dec.r.Sub(dec.r.Tell(), dec.r.Remaining())
	if err != nil {
		return nil, err
	}

	var grid []uint16
	switch {
	case d.IsTwiddled() && mipW == mipH:
		grid, err = dec.detwiddle(region, mipW, mipH, texelSize)
	case d.IsTwiddled():
		grid, err = dec.detwiddleHalves(region, mipW, mipH, texelSize)
	default:
		grid, err = readLinear(region, mipW*mipH, texelSize)
	}
	if err != nil {
		return nil, err
	}

	if d.IsCompressed() {
		return dec.expand(grid, mipW)
	}
	return grid, nil
}

// detwiddle reads a square w x h twiddled grid from the start of region.
func (dec *decoder) detwiddle(region *bitstream.Reader, w, h, texelSize int) ([]uint16, error) {
	out := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			region.Seek(dec.mapper.Index(x, y) * texelSize)
			if texelSize == 1 {
				out[y*w+x] = uint16(region.U8())
			} else {
				out[y*w+x] = region.U16()
			}
		}
	}
	if err := region.Err(); err != nil {
		return nil, errors.Wrap(err, "twiddled texels")
	}
	return out, nil
}

// detwiddleHalves handles 2:1 twiddled rectangles stored as two square twiddled
// images, the second one starting at the midpoint of the region.
func (dec *decoder) detwiddleHalves(region *bitstream.Reader, w, h, texelSize int) ([]uint16, error) {
	wide := w > h
	hw, hh := w, h/2
	if wide {
		hw, hh = w/2, h
	}
	if hw != hh {
		return nil, &decerr.UnsupportedFormatError{Kind: "layout", Value: int(dec.d.DataFormat),
			Name: "twiddled rectangle that is not 2:1"}
	}

	mid := region.Len() / 2
	first, err := region.Sub(0, mid)
	if err != nil {
		return nil, err
	}
	second, err := region.Sub(mid, region.Len()-mid)
	if err != nil {
		return nil, err
	}

	one, err := dec.detwiddle(first, hw, hh, texelSize)
	if err != nil {
		return nil, err
	}
	two, err := dec.detwiddle(second, hw, hh, texelSize)
	if err != nil {
		return nil, err
	}

	out := make([]uint16, w*h)
	if !wide {
		copy(out, one)
		copy(out[len(one):], two)
		return out, nil
	}
	i1, i2 := 0, 0
	for i := range out {
		if i%w < hw {
			out[i] = one[i1]
			i1++
		} else {
			out[i] = two[i2]
			i2++
		}
	}
	return out, nil
}

func readLinear(region *bitstream.Reader, n, texelSize int) ([]uint16, error) {
	out := make([]uint16, n)
	for i := range out {
		if texelSize == 1 {
			out[i] = uint16(region.U8())
		} else {
			out[i] = region.U16()
		}
	}
	if err := region.Err(); err != nil {
		return nil, errors.Wrap(err, "linear texels")
	}
	return out, nil
}

// expand replaces each VQ index with its 2x2 codebook block. Blocks are written in
// raster order but their indices are taken in twiddled order.
func (dec *decoder) expand(indices []uint16, mipW int) ([]uint16, error) {
	fullW := dec.d.Width
	out := make([]uint16, dec.d.Width*dec.d.Height)
	entries := len(dec.codebook) / codeComponents

	x, y := 0, 0
	for range indices {
		i := dec.mapper.Index(x, y)
		if i >= len(indices) {
			return nil, &decerr.TruncatedStreamError{Offset: i, Want: i + 1, Have: len(indices), What: "vq index"}
		}
		entry := int(indices[i])
		if entry >= entries {
			return nil, decerr.Malformed(i, "vq index", "entry %d beyond codebook of %d", entry, entries)
		}
		code := dec.codebook[entry*codeComponents:]
		n := 0
		for xOfs := 0; xOfs < 2; xOfs++ {
			for yOfs := 0; yOfs < 2; yOfs++ {
				out[(y*2+yOfs)*fullW+(x*2+xOfs)] = code[n]
				n++
			}
		}
		x++
		if x >= mipW {
			x = 0
			y++
		}
	}
	return out, nil
}

func (dec *decoder) toImage(texels []uint16, flipX, flipY bool) *image.NRGBA {
	w, h := dec.d.Width, dec.d.Height
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		dy := y
		if flipY {
			dy = h - 1 - y
		}
		for x := 0; x < w; x++ {
			dx := x
			if flipX {
				dx = w - 1 - x
			}
			c, _ := dec.d.ColorFormat.Convert(texels[y*w+x])
			i := img.PixOffset(dx, dy)
			img.Pix[i] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
	return img
}

// MipSkip is the number of payload bytes taken by every mip level smaller than the
// full-size one. Uncompressed levels use two bytes per texel, VQ levels a quarter
// byte per texel with a one byte minimum.
func MipSkip(d Descriptor) int {
	if !d.IsMipmap() {
		return 0
	}
	levels := 0
	for w := d.Width; w > 0; w >>= 1 {
		levels++
	}
	skip := 0
	for l := 1; l < levels; l++ {
		size := (d.Width >> l) * (d.Height >> l)
		if d.IsCompressed() {
			s := size / codeComponents
			if s < 1 {
				s = 1
			}
			skip += s
		} else {
			skip += wordSize * size
		}
	}
	return skip
}
