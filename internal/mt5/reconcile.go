package mt5

// Reconcile gives every vertex a single UV. The first strip point that
// references a vertex assigns its UV; a later point with a different UV gets a
// copy of the vertex appended and is repointed at it. Points with the same UV
// share one copy. Point indices in polys are rewritten in place.
func Reconcile(verts []Vertex, polys []Polygon) []Vertex {
	variants := make(map[int][]int)
	for pi := range polys {
		for _, strip := range polys[pi].Strips {
			for i := range strip {
				p := &strip[i]
				orig := p.Index
				known, ok := variants[orig]
				if !ok {
					verts[orig].UV, verts[orig].HasUV = p.UV, p.HasUV
					variants[orig] = []int{orig}
					continue
				}

				found := -1
				for _, v := range known {
					if p.sameUV(verts[v]) {
						found = v
						break
					}
				}
				if found < 0 {
					dup := verts[orig]
					dup.UV, dup.HasUV = p.UV, p.HasUV
					found = len(verts)
					verts = append(verts, dup)
					variants[orig] = append(known, found)
				}
				p.Index = found
			}
		}
	}
	return verts
}

// Triangulate turns every strip into a triangle list, alternating winding so
// all faces keep the same orientation. Triangles are grouped by texture id in
// the order the ids first appear.
func Triangulate(polys []Polygon) []Group {
	var groups []Group
	slot := make(map[int]int)
	for _, p := range polys {
		gi, ok := slot[p.TextureID]
		if !ok {
			gi = len(groups)
			slot[p.TextureID] = gi
			groups = append(groups, Group{TextureID: p.TextureID})
		}
		g := &groups[gi]
		for _, strip := range p.Strips {
			g.Indices = append(g.Indices, StripTriangles(strip)...)
		}
	}
	return groups
}

// StripTriangles emits (a,c,b) for even positions and (a,b,c) for odd ones.
func StripTriangles(strip Strip) []uint16 {
	if len(strip) < 3 {
		return nil
	}
	out := make([]uint16, 0, (len(strip)-2)*3)
	for i := 0; i+2 < len(strip); i++ {
		a, b, c := uint16(strip[i].Index), uint16(strip[i+1].Index), uint16(strip[i+2].Index)
		if i%2 == 0 {
			out = append(out, a, c, b)
		} else {
			out = append(out, a, b, c)
		}
	}
	return out
}
