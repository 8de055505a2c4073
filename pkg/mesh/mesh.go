// Package mesh defines the in-memory triangle geometry shared by the codec,
// the projection math and the rasterizer. Values are treated as immutable:
// every transform returns a new Mesh and leaves its input untouched.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

// Vertex is a point (or direction) in world space.
type Vertex struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vertex) Add(w Vertex) Vertex {
	return Vertex{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vertex) Sub(w Vertex) Vertex {
	return Vertex{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v multiplied by f.
func (v Vertex) Scale(f float64) Vertex {
	return Vertex{v.X * f, v.Y * f, v.Z * f}
}

// Cross returns the cross product v x w.
func (v Vertex) Cross(w Vertex) Vertex {
	return Vertex{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Dot returns the dot product of v and w.
func (v Vertex) Dot(w Vertex) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Length returns the euclidean length of v.
func (v Vertex) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged; callers that care must check Length first.
func (v Vertex) Normalize() Vertex {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// IsFinite reports whether all three coordinates are finite numbers.
func (v Vertex) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Face is an ordered polygon. Codec output and triangulated meshes hold
// exactly three vertices per face; programmatic input may hold more.
type Face []Vertex

// IsTriangle reports whether the face has exactly three vertices.
func (f Face) IsTriangle() bool {
	return len(f) == 3
}

// Normal returns (v2-v1) x (v3-v1) for the first three vertices. The result
// is not normalized; its length is twice the triangle area. Faces with fewer
// than three vertices have a zero normal.
func (f Face) Normal() Vertex {
	if len(f) < 3 {
		return Vertex{}
	}
	return f[1].Sub(f[0]).Cross(f[2].Sub(f[0]))
}

// Centroid returns the mean of all vertices of the face.
func (f Face) Centroid() Vertex {
	if len(f) == 0 {
		return Vertex{}
	}
	var sum Vertex
	for _, v := range f {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float64(len(f)))
}

// clone returns a copy of the face that shares no storage with f.
func (f Face) clone() Face {
	out := make(Face, len(f))
	copy(out, f)
	return out
}

// Mesh is an ordered list of faces. Face order is preserved by the codec so
// that serialization round-trips are reproducible.
type Mesh struct {
	Name  string
	Faces []Face
}

// New returns a mesh holding the given faces.
func New(name string, faces ...Face) *Mesh {
	return &Mesh{Name: name, Faces: faces}
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// IsEmpty reports whether the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// ErrInvalidMesh is wrapped by every error returned from Validate.
var ErrInvalidMesh = errors.New("invalid mesh")

// Validate checks that every face has at least three vertices and that all
// coordinates are finite.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		if len(f) < 3 {
			return fmt.Errorf("mesh: face %d has %d vertices: %w", i, len(f), ErrInvalidMesh)
		}
		for j, v := range f {
			if !v.IsFinite() {
				return fmt.Errorf("mesh: face %d vertex %d is not finite: %w", i, j, ErrInvalidMesh)
			}
		}
	}
	return nil
}

// Triangulate returns a new mesh where every face has exactly three
// vertices. Triangles are copied as-is; larger polygons are fan-triangulated
// from their first vertex, which assumes convex planar input. Faces with
// fewer than three vertices are dropped.
func (m *Mesh) Triangulate() *Mesh {
	out := &Mesh{Name: m.Name, Faces: make([]Face, 0, len(m.Faces))}
	for _, f := range m.Faces {
		if len(f) == 3 {
			out.Faces = append(out.Faces, f.clone())
			continue
		}
		for i := 1; i+1 < len(f); i++ {
			out.Faces = append(out.Faces, Face{f[0], f[i], f[i+1]})
		}
	}
	return out
}

// Bounds returns the axis-aligned bounding box of all vertices. An empty
// mesh reports ok == false.
func (m *Mesh) Bounds() (min, max Vertex, ok bool) {
	first := true
	for _, f := range m.Faces {
		for _, v := range f {
			if first {
				min, max, first = v, v, false
				continue
			}
			min = Vertex{math.Min(min.X, v.X), math.Min(min.Y, v.Y), math.Min(min.Z, v.Z)}
			max = Vertex{math.Max(max.X, v.X), math.Max(max.Y, v.Y), math.Max(max.Z, v.Z)}
		}
	}
	return min, max, !first
}

// Map returns a new mesh with fn applied to every vertex.
func (m *Mesh) Map(fn func(Vertex) Vertex) *Mesh {
	out := &Mesh{Name: m.Name, Faces: make([]Face, len(m.Faces))}
	for i, f := range m.Faces {
		nf := make(Face, len(f))
		for j, v := range f {
			nf[j] = fn(v)
		}
		out.Faces[i] = nf
	}
	return out
}

// Translate returns a copy of the mesh moved by d.
func (m *Mesh) Translate(d Vertex) *Mesh {
	return m.Map(func(v Vertex) Vertex { return v.Add(d) })
}

// Scale returns a copy of the mesh scaled per axis about the origin.
func (m *Mesh) Scale(s Vertex) *Mesh {
	return m.Map(func(v Vertex) Vertex { return Vertex{v.X * s.X, v.Y * s.Y, v.Z * s.Z} })
}

// Rotate returns a copy of the mesh rotated about the origin by Euler
// angles in degrees, applied around X first, then Y, then Z.
func (m *Mesh) Rotate(deg Vertex) *Mesh {
	return m.Map(func(v Vertex) Vertex { return RotateEuler(v, deg) })
}

// RotateEuler rotates v by Euler angles in degrees (X, then Y, then Z).
func RotateEuler(v, deg Vertex) Vertex {
	if deg.X != 0 {
		s, c := math.Sincos(deg.X * math.Pi / 180)
		v = Vertex{v.X, c*v.Y - s*v.Z, s*v.Y + c*v.Z}
	}
	if deg.Y != 0 {
		s, c := math.Sincos(deg.Y * math.Pi / 180)
		v = Vertex{c*v.X + s*v.Z, v.Y, -s*v.X + c*v.Z}
	}
	if deg.Z != 0 {
		s, c := math.Sincos(deg.Z * math.Pi / 180)
		v = Vertex{c*v.X - s*v.Y, s*v.X + c*v.Y, v.Z}
	}
	return v
}

// Merge concatenates the faces of several meshes into a single mesh.
func Merge(name string, meshes ...*Mesh) *Mesh {
	out := &Mesh{Name: name}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		for _, f := range m.Faces {
			out.Faces = append(out.Faces, f.clone())
		}
	}
	return out
}

func (m *Mesh) String() string {
	return fmt.Sprintf("<Mesh %q %d faces>", m.Name, len(m.Faces))
}
