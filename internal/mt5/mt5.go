// Package mt5 decodes HRCM model files: a pointer-linked scene graph whose nodes
// reference vertex arrays and tagged triangle-strip records, plus an embedded
// block of PVR textures.
package mt5

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"dc-asset-decoder/internal/bitstream"
	"dc-asset-decoder/internal/decerr"
	"dc-asset-decoder/internal/pvr"
)

var MagicHRCM = []byte("HRCM")

// DefaultMaxDepth bounds child nesting while crawling the scene graph.
const DefaultMaxDepth = 512

type options struct {
	maxDepth       int
	bakeTransforms bool
	skipTextures   bool
	textureOpts    []pvr.Option
}

type Option func(*options)

// WithMaxDepth caps how deep child links are followed.
func WithMaxDepth(n int) Option { return func(o *options) { o.maxDepth = n } }

// WithBakeTransforms applies each node's world matrix to its vertices.
func WithBakeTransforms(v bool) Option { return func(o *options) { o.bakeTransforms = v } }

// WithoutTextures skips the embedded texture block.
func WithoutTextures() Option { return func(o *options) { o.skipTextures = true } }

// WithTextureOptions is passed through to the PVR decoder.
func WithTextureOptions(opts ...pvr.Option) Option {
	return func(o *options) { o.textureOpts = append(o.textureOpts, opts...) }
}

// ParseHeader validates the magic and both offsets.
func ParseHeader(data []byte) (Header, error) {
	r := bitstream.New(data)
	if magic := r.Magic(); magic != string(MagicHRCM) {
		return Header{}, decerr.Malformed(0, "mt5 header", "magic %q", magic)
	}
	h := Header{TextureOffset: r.U32(), RootOffset: r.U32()}
	if err := r.Err(); err != nil {
		return h, errors.Wrap(err, "mt5: header")
	}
	if h.RootOffset == 0 || int(h.RootOffset)+nodeSize > len(data) {
		return h, decerr.Malformed(8, "mt5 header", "root node offset 0x%x outside %d bytes", h.RootOffset, len(data))
	}
	if int(h.TextureOffset) > len(data) {
		return h, decerr.Malformed(4, "mt5 header", "texture offset 0x%x outside %d bytes", h.TextureOffset, len(data))
	}
	return h, nil
}

// Decode crawls the scene graph, decodes every mesh, splits vertices with
// conflicting UVs and triangulates the strips.
func Decode(data []byte, opts ...Option) (*Model, error) {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	c := &crawler{
		r:       bitstream.New(data),
		opts:    o,
		visited: make(map[int]bool),
		model:   &Model{Header: h},
	}
	if err := c.crawl(int(h.RootOffset), mgl32.Ident4(), 0); err != nil {
		return nil, errors.Wrap(err, "mt5: scene graph")
	}

	m := c.model
	for _, w := range m.Warnings {
		log.Debug().Str("warning", w.String()).Msg("mt5: dropped strip point")
	}

	m.Vertices = Reconcile(m.Vertices, m.Polygons)
	if len(m.Vertices) > 1<<16 {
		return nil, decerr.Malformed(int(h.RootOffset), "mt5 model",
			"%d vertices do not fit 16-bit indices", len(m.Vertices))
	}
	m.Groups = Triangulate(m.Polygons)

	if !o.skipTextures && h.TextureOffset != 0 {
		m.Textures, err = readTextures(data, int(h.TextureOffset), o.textureOpts)
		if err != nil {
			return nil, errors.Wrap(err, "mt5: textures")
		}
	}
	return m, nil
}
