package mt5

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"dc-asset-decoder/internal/bitstream"
	"dc-asset-decoder/internal/decerr"
)

type crawler struct {
	r       *bitstream.Reader
	opts    options
	visited map[int]bool
	model   *Model

	// base is the global index of the next vertex; strip indices of a node are
	// relative to the value it had when the node's vertices were appended.
	base int
}

// crawl visits the node at off, its child subtree, then walks its sibling chain.
// Sibling chains are iterated so only child nesting counts towards the depth cap.
func (c *crawler) crawl(off int, parent mgl32.Mat4, depth int) error {
	for off != 0 {
		if depth > c.opts.maxDepth {
			return decerr.Malformed(off, "mt5 node", "nesting deeper than %d", c.opts.maxDepth)
		}
		if c.visited[off] {
			return decerr.Malformed(off, "mt5 node", "node revisited, scene graph has a cycle")
		}
		c.visited[off] = true

		n, err := readNode(c.r, off)
		if err != nil {
			return err
		}
		n.Depth = depth
		n.World = parent.Mul4(n.Local())
		n.FirstVertex = c.base
		c.model.Nodes = append(c.model.Nodes, n)

		if n.Model != 0 {
			if err := c.mesh(n); err != nil {
				return errors.Wrapf(err, "node at 0x%x", off)
			}
		}
		if n.Child != 0 {
			if err := c.crawl(int(n.Child), n.World, depth+1); err != nil {
				return err
			}
		}
		off = int(n.Sibling)
	}
	return nil
}

func (c *crawler) mesh(n *Node) error {
	mh, err := readModelHeader(c.r, int(n.Model))
	if err != nil {
		return err
	}
	n.Mesh = mh

	if mh.VertexOffset != 0 {
		verts, err := readVertices(c.r, int(mh.VertexOffset), int(mh.VertexCount))
		if err != nil {
			return err
		}
		if c.opts.bakeTransforms {
			Bake(verts, n.World)
		}
		c.model.Vertices = append(c.model.Vertices, verts...)
	}
	if mh.PolygonOffset != 0 {
		polys, warns, err := decodePolygons(c.r, int(mh.PolygonOffset), c.base, len(c.model.Vertices))
		if err != nil {
			return err
		}
		c.model.Polygons = append(c.model.Polygons, polys...)
		c.model.Warnings = append(c.model.Warnings, warns...)
	}
	if mh.VertexOffset != 0 {
		c.base += int(mh.VertexCount)
	}
	return nil
}

func readNode(r *bitstream.Reader, off int) (*Node, error) {
	if off < 0 || off+nodeSize > r.Len() {
		return nil, decerr.Malformed(off, "mt5 node", "offset outside %d bytes", r.Len())
	}
	r.Seek(off)
	n := &Node{Offset: off, Flags: r.U32(), Model: r.U32()}
	for i := range n.Rotation {
		n.Rotation[i] = r.I32()
	}
	for i := range n.Scale {
		n.Scale[i] = r.F32()
	}
	for i := range n.Position {
		n.Position[i] = r.F32()
	}
	n.Child = r.U32()
	n.Sibling = r.U32()
	n.Parent = r.U32()
	n.Reserved[0] = r.U32()
	n.Reserved[1] = r.U32()
	return n, errors.Wrap(r.Err(), "mt5 node")
}

func readModelHeader(r *bitstream.Reader, off int) (*ModelHeader, error) {
	if off < 0 || off+modelHeaderSize > r.Len() {
		return nil, decerr.Malformed(off, "mt5 model header", "offset outside %d bytes", r.Len())
	}
	r.Seek(off)
	mh := &ModelHeader{
		Flags:         r.U32(),
		VertexOffset:  r.U32(),
		VertexCount:   r.U32(),
		PolygonOffset: r.U32(),
	}
	for i := range mh.Center {
		mh.Center[i] = r.F32()
	}
	mh.Radius = r.F32()
	return mh, errors.Wrap(r.Err(), "mt5 model header")
}

func readVertices(r *bitstream.Reader, off, count int) ([]Vertex, error) {
	if off < 0 || off > r.Len() || count > (r.Len()-off)/vertexSize {
		have := r.Len() - off
		if have < 0 {
			have = 0
		}
		return nil, &decerr.TruncatedStreamError{Offset: off, Want: count * vertexSize, Have: have, What: "vertex list"}
	}
	r.Seek(off)
	verts := make([]Vertex, count)
	for i := range verts {
		v := &verts[i]
		v.Position = [3]float32{r.F32(), r.F32(), r.F32()}
		v.Normal = [3]float32{r.F32(), r.F32(), r.F32()}
	}
	return verts, r.Err()
}
