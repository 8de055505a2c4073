package mesh

// Box returns the 12-triangle axis-aligned box spanning min..max. Faces are
// wound counter-clockwise when seen from outside, so normals point out.
func Box(name string, min, max Vertex) *Mesh {
	p := func(x, y, z int) Vertex {
		v := min
		if x == 1 {
			v.X = max.X
		}
		if y == 1 {
			v.Y = max.Y
		}
		if z == 1 {
			v.Z = max.Z
		}
		return v
	}
	quads := New(name,
		Face{p(0, 0, 0), p(0, 1, 0), p(1, 1, 0), p(1, 0, 0)}, // -Z
		Face{p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1)}, // +Z
		Face{p(0, 0, 0), p(1, 0, 0), p(1, 0, 1), p(0, 0, 1)}, // -Y
		Face{p(0, 1, 0), p(0, 1, 1), p(1, 1, 1), p(1, 1, 0)}, // +Y
		Face{p(0, 0, 0), p(0, 0, 1), p(0, 1, 1), p(0, 1, 0)}, // -X
		Face{p(1, 0, 0), p(1, 1, 0), p(1, 1, 1), p(1, 0, 1)}, // +X
	)
	return quads.Triangulate()
}
