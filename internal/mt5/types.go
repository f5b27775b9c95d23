package mt5

import (
	"github.com/go-gl/mathgl/mgl32"

	"dc-asset-decoder/internal/decerr"
	"dc-asset-decoder/internal/pvm"
)

const (
	nodeSize        = 0x40
	modelHeaderSize = 0x20
	vertexSize      = 0x18
)

// Header is the HRCM file header.
type Header struct {
	TextureOffset uint32
	RootOffset    uint32
}

// Node is one scene graph record. Child, Sibling and Parent are file offsets,
// zero when absent.
type Node struct {
	Offset   int
	Flags    uint32
	Model    uint32
	Rotation [3]int32 // 1/65536 of a turn
	Scale    [3]float32
	Position [3]float32
	Child    uint32
	Sibling  uint32
	Parent   uint32
	Reserved [2]uint32

	Depth       int
	World       mgl32.Mat4
	Mesh        *ModelHeader
	FirstVertex int // global index of the first vertex this node contributed
}

// ModelHeader is the mesh record a node points at.
type ModelHeader struct {
	Flags         uint32
	VertexOffset  uint32
	VertexCount   uint32
	PolygonOffset uint32
	Center        [3]float32
	Radius        float32
}

// Vertex has at most one UV once the model has been reconciled.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
	HasUV    bool
}

// Point is one strip entry. Index is global (already offset by the node's base).
type Point struct {
	Index  int
	UV     [2]float32
	HasUV  bool
	UV2    [2]float32
	HasUV2 bool
}

func (p Point) sameUV(v Vertex) bool {
	return p.HasUV == v.HasUV && p.UV == v.UV
}

// Strip is a triangle strip of points.
type Strip []Point

// StripFormat is the polygon record header that selects the per-point payload.
type StripFormat uint16

const (
	StripIndexUV   StripFormat = 0x11 // index, u, v
	StripIndexOnly StripFormat = 0x13 // index
	StripIndexUV2  StripFormat = 0x1c // index, u0, v0, u1, v1
)

func (f StripFormat) valid() bool {
	return f == StripIndexUV || f == StripIndexOnly || f == StripIndexUV2
}

// uvPairs is how many UV pairs follow each index.
func (f StripFormat) uvPairs() int {
	switch f {
	case StripIndexUV:
		return 1
	case StripIndexUV2:
		return 2
	}
	return 0
}

func (f StripFormat) String() string {
	switch f {
	case StripIndexUV:
		return "index+uv"
	case StripIndexOnly:
		return "index"
	case StripIndexUV2:
		return "index+uv+uv2"
	}
	return "unknown"
}

// Polygon is one polygon group: a texture id and the strips drawn with it.
type Polygon struct {
	Offset    int
	TextureID int
	Format    StripFormat
	Strips    []Strip
}

// Group is the triangle list for one texture id.
type Group struct {
	TextureID int
	Indices   []uint16
}

// Model is a fully decoded HRCM file.
type Model struct {
	Header   Header
	Nodes    []*Node
	Vertices []Vertex
	Polygons []Polygon
	Groups   []Group
	Textures []Texture
	Warnings []decerr.IndexOutOfRangeWarning
}

// FloatsPerVertex is the stride of Interleaved: position, normal, uv.
const FloatsPerVertex = 8

// Interleaved packs every vertex as x y z nx ny nz u v. Vertices without UV get 0,0.
func (m *Model) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*FloatsPerVertex)
	for _, v := range m.Vertices {
		out = append(out, v.Position[:]...)
		out = append(out, v.Normal[:]...)
		out = append(out, v.UV[:]...)
	}
	return out
}

// Triangles is the total triangle count over all groups.
func (m *Model) Triangles() int {
	n := 0
	for _, g := range m.Groups {
		n += len(g.Indices) / 3
	}
	return n
}

// Texture is one entry of the embedded texture block. ID is what polygon
// groups refer to.
type Texture struct {
	ID   int
	Name string
	pvm.Stream
}

// Texture returns the decoded texture for a texture id, or nil.
func (m *Model) Texture(id int) *Texture {
	for i := range m.Textures {
		if t := &m.Textures[i]; t.ID == id && t.Image != nil {
			return t
		}
	}
	return nil
}
