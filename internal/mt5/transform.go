package mt5

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// angle converts a node rotation (1/65536 of a turn) to radians.
func angle(v int32) float32 {
	return float32(float64(v) * 2 * math.Pi / 65536)
}

// Local is translate * rotZ * rotY * rotX * scale.
func (n *Node) Local() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	r := mgl32.HomogRotate3DZ(angle(n.Rotation[2])).
		Mul4(mgl32.HomogRotate3DY(angle(n.Rotation[1]))).
		Mul4(mgl32.HomogRotate3DX(angle(n.Rotation[0])))
	s := mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// Bake transforms positions and normals in place. Identity matrices are a no-op.
func Bake(verts []Vertex, world mgl32.Mat4) {
	if world.ApproxEqual(mgl32.Ident4()) {
		return
	}
	normalMat := world.Mat3().Inv().Transpose()
	for i := range verts {
		v := &verts[i]
		p := mgl32.TransformCoordinate(mgl32.Vec3(v.Position), world)
		v.Position = [3]float32(p)

		nrm := normalMat.Mul3x1(mgl32.Vec3(v.Normal))
		if l := nrm.Len(); l > 0 {
			nrm = nrm.Mul(1 / l)
		}
		v.Normal = [3]float32(nrm)
	}
}
