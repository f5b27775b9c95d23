package export

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"dc-asset-decoder/internal/mt5"
)

// BuildGLTF converts a decoded model into a single-mesh glTF document with one
// primitive per texture group. Embedded textures that decoded successfully are
// stored as PNG images in the document buffer.
func BuildGLTF(m *mt5.Model, name string) (*gltf.Document, error) {
	doc := gltf.NewDocument()

	positions := make([][3]float32, len(m.Vertices))
	normals := make([][3]float32, len(m.Vertices))
	uvs := make([][2]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = v.Position
		n := mgl32.Vec3(v.Normal)
		if n.Len() > 0.5 {
			n = n.Normalize()
		} else {
			n = mgl32.Vec3{0, 1, 0}
		}
		normals[i] = [3]float32(n)
		uvs[i] = v.UV
	}

	mesh := &gltf.Mesh{Name: name}
	if len(m.Vertices) > 0 {
		attributes := map[string]uint32{
			"POSITION":   modeler.WritePosition(doc, positions),
			"NORMAL":     modeler.WriteNormal(doc, normals),
			"TEXCOORD_0": modeler.WriteTextureCoord(doc, uvs),
		}

		materials := make(map[int]uint32)
		for _, g := range m.Groups {
			if len(g.Indices) == 0 {
				continue
			}
			mat, ok := materials[g.TextureID]
			if !ok {
				var err error
				if mat, err = addMaterial(doc, m, g.TextureID); err != nil {
					return nil, err
				}
				materials[g.TextureID] = mat
			}
			indices := modeler.WriteIndices(doc, g.Indices)
			mesh.Primitives = append(mesh.Primitives, &gltf.Primitive{
				Indices:    gltf.Index(indices),
				Attributes: attributes,
				Material:   gltf.Index(mat),
			})
		}
	}

	if len(mesh.Primitives) > 0 {
		doc.Meshes = append(doc.Meshes, mesh)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: name,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
	}
	return doc, nil
}

func addMaterial(doc *gltf.Document, m *mt5.Model, textureID int) (uint32, error) {
	material := &gltf.Material{
		Name:                 fmt.Sprintf("material[%d]", textureID),
		DoubleSided:          true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
	}

	if tex := m.Texture(textureID); tex != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, tex.Image); err != nil {
			return 0, errors.Wrapf(err, "export: %s", tex.Name)
		}
		source, err := modeler.WriteImage(doc, tex.Name, "image/png", &buf)
		if err != nil {
			return 0, errors.Wrapf(err, "export: %s", tex.Name)
		}
		sampler := uint32(len(doc.Samplers))
		doc.Samplers = append(doc.Samplers, &gltf.Sampler{
			MagFilter: gltf.MagLinear,
			MinFilter: gltf.MinLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		})
		doc.Textures = append(doc.Textures, &gltf.Texture{
			Name:    tex.Name,
			Sampler: gltf.Index(sampler),
			Source:  gltf.Index(source),
		})
		material.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
			Index: uint32(len(doc.Textures) - 1),
		}
	}

	doc.Materials = append(doc.Materials, material)
	return uint32(len(doc.Materials) - 1), nil
}

// WriteGLTF encodes doc to path. Binary documents are written as .glb;
// otherwise buffers are embedded as data URIs in the JSON.
func WriteGLTF(path string, doc *gltf.Document, binary bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "export")
	}
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "export")
	}
	enc := gltf.NewEncoder(f)
	enc.AsBinary = binary
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return errors.Wrap(err, "export: gltf encode")
	}
	return errors.Wrap(f.Close(), "export")
}

// WriteModel builds and writes m. The .glb extension selects the binary container.
func WriteModel(path string, m *mt5.Model) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := BuildGLTF(m, name)
	if err != nil {
		return err
	}
	return WriteGLTF(path, doc, strings.EqualFold(filepath.Ext(path), ".glb"))
}
