// Package kernel defines the solid modeling interface used to build scene
// primitives. A kernel produces opaque solids, combines and moves them, and
// finally tessellates them into a mesh.Mesh the renderer can draw.
//
// Primitives are centered on the origin. Rotations are Euler angles in
// degrees applied about X, then Y, then Z, matching mesh.RotateEuler.
package kernel

import (
	"errors"

	"github.com/chazu/templux/pkg/mesh"
)

// ErrInvalidPrimitive is returned for non-positive or non-finite dimensions.
var ErrInvalidPrimitive = errors.New("kernel: invalid primitive dimensions")

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// Bounds returns the axis-aligned bounding box.
	Bounds() (min, max mesh.Vertex)
}

// Kernel builds and tessellates solids.
type Kernel interface {
	// Primitives
	Box(size mesh.Vertex) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Sphere(radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, d mesh.Vertex) Solid
	Rotate(s Solid, deg mesh.Vertex) Solid
	Scale(s Solid, f mesh.Vertex) Solid

	// ToMesh tessellates s into a triangle mesh named name.
	ToMesh(s Solid, name string) (*mesh.Mesh, error)
}

// CheckDimensions returns ErrInvalidPrimitive unless every value is finite
// and strictly positive.
func CheckDimensions(vals ...float64) error {
	for _, v := range vals {
		if !(v > 0) || v > maxDimension {
			return ErrInvalidPrimitive
		}
	}
	return nil
}

// maxDimension rejects +Inf along with absurd sizes.
const maxDimension = 1e12
