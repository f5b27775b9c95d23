package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"dc-asset-decoder/internal/fixture"
	"dc-asset-decoder/internal/mt5"
)

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 255})
			}
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".WebP")
	require.NoError(t, err)
	assert.Equal(t, WebP, f)

	_, err = ParseFormat("jpeg")
	assert.Error(t, err)

	f, ok := FormatFromPath("out/tex.tga")
	assert.True(t, ok)
	assert.Equal(t, TGA, f)
}

func TestEncodeFormats(t *testing.T) {
	src := checker()
	decoders := map[Format]func(*bytes.Buffer) (image.Image, error){
		PNG: func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) },
		TGA: func(b *bytes.Buffer) (image.Image, error) { return tga.Decode(b) },
		BMP: func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) },
	}
	for f, decode := range decoders {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, src, f))
			img, err := decode(&buf)
			require.NoError(t, err)
			r, g, b, _ := img.At(1, 0).RGBA()
			assert.Equal(t, [3]uint32{0, 0, 0xffff}, [3]uint32{r, g, b})
		})
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src, WebP))
	assert.Equal(t, "RIFF", buf.String()[:4])
}

func TestWriteImageCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "tex.png")
	require.NoError(t, WriteImage(path, checker(), PNG))
}

func decodedModel(t *testing.T) *mt5.Model {
	t.Helper()
	tex := fixture.PVRT(2, 0x09, 1, 1, []uint16{0xf123})
	data := fixture.HRCM([]fixture.Mesh{
		{
			Vertices:  [][6]float32{{0, 0, 0, 0, 1, 0}, {1, 0, 0, 0, 1, 0}, {0, 1, 0, 0, 0, 0}},
			TextureID: 0,
			Format:    0x11,
			Strips:    [][]fixture.Point{{{Index: 0}, {Index: 1, U: 1023}, {Index: 2, V: 1023}}},
		},
		{
			Vertices:  [][6]float32{{0, 0, 1, 0, 1, 0}, {1, 0, 1, 0, 1, 0}, {0, 1, 1, 0, 1, 0}},
			TextureID: 3,
			Format:    0x13,
			Strips:    [][]fixture.Point{{{Index: 0}, {Index: 1}, {Index: 2}}},
		},
	}, tex)
	m, err := mt5.Decode(data)
	require.NoError(t, err)
	return m
}

func TestBuildGLTF(t *testing.T) {
	doc, err := BuildGLTF(decodedModel(t), "sample")
	require.NoError(t, err)

	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Meshes[0].Primitives, 2)
	require.Len(t, doc.Materials, 2)
	assert.Len(t, doc.Images, 1)
	assert.Len(t, doc.Textures, 1)
	assert.NotNil(t, doc.Materials[0].PBRMetallicRoughness.BaseColorTexture)
	assert.Nil(t, doc.Materials[1].PBRMetallicRoughness.BaseColorTexture)

	prim := doc.Meshes[0].Primitives[0]
	assert.Equal(t, uint32(3), doc.Accessors[*prim.Indices].Count)
	assert.Equal(t, uint32(6), doc.Accessors[prim.Attributes["POSITION"]].Count)
	assert.Equal(t, []uint32{0}, doc.Scenes[0].Nodes)
}

func TestWriteModel(t *testing.T) {
	m := decodedModel(t)
	for _, name := range []string{"sample.gltf", "sample.glb"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteModel(path, m))

			doc, err := gltf.Open(path)
			require.NoError(t, err)
			require.Len(t, doc.Meshes, 1)
			assert.Equal(t, "sample", doc.Meshes[0].Name)
		})
	}
}

func TestBuildGLTFEmptyModel(t *testing.T) {
	doc, err := BuildGLTF(&mt5.Model{}, "empty")
	require.NoError(t, err)
	assert.Empty(t, doc.Meshes)
}
