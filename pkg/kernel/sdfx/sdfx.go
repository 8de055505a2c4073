// Package sdfx implements kernel.Kernel with the github.com/deadsy/sdfx
// signed distance field library. Solids are tessellated by uniform
// marching cubes.
package sdfx

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/templux/pkg/kernel"
	"github.com/chazu/templux/pkg/mesh"
)

var _ kernel.Kernel = (*Kernel)(nil)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 64

type solid struct {
	s sdf.SDF3
}

func (s *solid) Bounds() (min, max mesh.Vertex) {
	bb := s.s.BoundingBox()
	return fromVec(bb.Min), fromVec(bb.Max)
}

// Kernel implements kernel.Kernel using sdfx.
type Kernel struct {
	cells int
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithCells sets the marching cubes resolution. Values below 1 are ignored.
func WithCells(n int) Option {
	return func(k *Kernel) {
		if n > 0 {
			k.cells = n
		}
	}
}

// New returns an sdfx kernel.
func New(opts ...Option) *Kernel {
	k := &Kernel{cells: DefaultCells}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Cells returns the configured marching cubes resolution.
func (k *Kernel) Cells() int { return k.cells }

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*solid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &solid{s: s}
}

func toVec(v mesh.Vertex) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVec(v v3.Vec) mesh.Vertex {
	return mesh.Vertex{X: v.X, Y: v.Y, Z: v.Z}
}

// Box creates a box of the given size centered on the origin.
func (k *Kernel) Box(size mesh.Vertex) (kernel.Solid, error) {
	if err := kernel.CheckDimensions(size.X, size.Y, size.Z); err != nil {
		return nil, fmt.Errorf("sdfx: box %v: %w", size, err)
	}
	s, err := sdf.Box3D(toVec(size), 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	return wrap(s), nil
}

// Cylinder creates a Z-aligned cylinder centered on the origin.
func (k *Kernel) Cylinder(height, radius float64) (kernel.Solid, error) {
	if err := kernel.CheckDimensions(height, radius); err != nil {
		return nil, fmt.Errorf("sdfx: cylinder h=%g r=%g: %w", height, radius, err)
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	return wrap(s), nil
}

// Sphere creates a sphere centered on the origin.
func (k *Kernel) Sphere(radius float64) (kernel.Solid, error) {
	if err := kernel.CheckDimensions(radius); err != nil {
		return nil, fmt.Errorf("sdfx: sphere r=%g: %w", radius, err)
	}
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return wrap(s), nil
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

func (k *Kernel) Translate(s kernel.Solid, d mesh.Vertex) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), sdf.Translate3d(toVec(d))))
}

// Rotate applies X, then Y, then Z rotations given in degrees.
func (k *Kernel) Rotate(s kernel.Solid, deg mesh.Vertex) kernel.Solid {
	rad := deg.Scale(math.Pi / 180)
	m := sdf.RotateZ(rad.Z).Mul(sdf.RotateY(rad.Y)).Mul(sdf.RotateX(rad.X))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Scale stretches a solid about the origin.
func (k *Kernel) Scale(s kernel.Solid, f mesh.Vertex) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), sdf.Scale3d(toVec(f))))
}

// ToMesh tessellates a solid by marching cubes. Each output face carries
// the winding sdfx produced, so normals point out of the solid.
func (k *Kernel) ToMesh(s kernel.Solid, name string) (*mesh.Mesh, error) {
	r := render.NewMarchingCubesUniform(k.cells)
	tris := render.ToTriangles(unwrap(s), r)
	if len(tris) == 0 {
		return nil, fmt.Errorf("sdfx: %s: tessellation produced no triangles", name)
	}

	faces := make([]mesh.Face, 0, len(tris))
	for _, tri := range tris {
		faces = append(faces, mesh.Face{fromVec(tri[0]), fromVec(tri[1]), fromVec(tri[2])})
	}
	return mesh.New(name, faces...), nil
}
