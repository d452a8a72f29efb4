package mesh

// Cube returns a unit cube centered on the origin with per-face normals and uvs.
//
// Returns:
//   - []Vertex: 24 vertices, four per face
//   - []uint32: 36 counter-clockwise triangle indices
func Cube() ([]Vertex, []uint32) {
	faces := [6]struct {
		normal, u, v [3]float32
	}{
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range corners {
			var p [3]float32
			for i := range p {
				p[i] = 0.5 * (f.normal[i] + c[0]*f.u[i] + c[1]*f.v[i])
			}
			vertices = append(vertices, Vertex{
				Position: p,
				Normal:   f.normal,
				UV:       [2]float32{(c[0] + 1) / 2, 1 - (c[1]+1)/2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// Quad returns a unit quad in the XY plane facing +Z.
//
// Returns:
//   - []Vertex: 4 vertices
//   - []uint32: 6 counter-clockwise triangle indices
func Quad() ([]Vertex, []uint32) {
	n := [3]float32{0, 0, 1}
	return []Vertex{
		{Position: [3]float32{-0.5, -0.5, 0}, Normal: n, UV: [2]float32{0, 1}},
		{Position: [3]float32{0.5, -0.5, 0}, Normal: n, UV: [2]float32{1, 1}},
		{Position: [3]float32{0.5, 0.5, 0}, Normal: n, UV: [2]float32{1, 0}},
		{Position: [3]float32{-0.5, 0.5, 0}, Normal: n, UV: [2]float32{0, 0}},
	}, []uint32{0, 1, 2, 0, 2, 3}
}

// Plane returns a square ground plane of the given size in the XZ plane facing +Y.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - []Vertex: 4 vertices
//   - []uint32: 6 counter-clockwise triangle indices
func Plane(size float32) ([]Vertex, []uint32) {
	h := size / 2
	n := [3]float32{0, 1, 0}
	return []Vertex{
		{Position: [3]float32{-h, 0, h}, Normal: n, UV: [2]float32{0, 1}},
		{Position: [3]float32{h, 0, h}, Normal: n, UV: [2]float32{1, 1}},
		{Position: [3]float32{h, 0, -h}, Normal: n, UV: [2]float32{1, 0}},
		{Position: [3]float32{-h, 0, -h}, Normal: n, UV: [2]float32{0, 0}},
	}, []uint32{0, 1, 2, 0, 2, 3}
}
