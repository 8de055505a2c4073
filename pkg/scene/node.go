package scene

import (
	"fmt"

	"github.com/chazu/templux/pkg/mesh"
)

// NodeKind enumerates the types of nodes in a scene.
type NodeKind int

const (
	NodeModel     NodeKind = iota // mesh loaded from an STL file
	NodePrimitive                 // kernel solid (box, cylinder, sphere)
	NodeTransform                 // placement of its children (place)
	NodeGroup                     // logical grouping
	NodeBoolean                   // union / difference / intersection of solids
)

func (k NodeKind) String() string {
	switch k {
	case NodeModel:
		return "model"
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeGroup:
		return "group"
	case NodeBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the scene graph.
type Node struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Name     string   `json:"name,omitempty"`
	Children []NodeID `json:"children,omitempty"`
	Data     NodeData `json:"data"`
}

// Label returns the node's name, or its short ID when unnamed.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// ModelData references an STL file on disk.
type ModelData struct {
	Path string `json:"path"`
	// Polygons accepts ASCII loops with more than three vertices.
	Polygons bool `json:"polygons,omitempty"`
}

func (ModelData) nodeData() {}

// Shape distinguishes kernel primitives.
type Shape int

const (
	ShapeBox Shape = iota
	ShapeCylinder
	ShapeSphere
)

func (s Shape) String() string {
	switch s {
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	case ShapeSphere:
		return "sphere"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// PrimitiveData describes a solid centered on the origin. Box uses Size;
// cylinder uses Height and Radius; sphere uses Radius.
type PrimitiveData struct {
	Shape  Shape       `json:"shape"`
	Size   mesh.Vertex `json:"size,omitempty"`
	Height float64     `json:"height,omitempty"`
	Radius float64     `json:"radius,omitempty"`
}

func (PrimitiveData) nodeData() {}

// TransformData places its children. Scale applies first, then rotation
// (Euler degrees, X then Y then Z), then translation.
type TransformData struct {
	Translation *mesh.Vertex `json:"translation,omitempty"`
	Rotation    *mesh.Vertex `json:"rotation,omitempty"`
	Scale       *mesh.Vertex `json:"scale,omitempty"`
}

func (TransformData) nodeData() {}

// IsIdentity reports whether the transform leaves geometry unchanged.
func (td TransformData) IsIdentity() bool {
	zero := mesh.Vertex{}
	one := mesh.Vertex{X: 1, Y: 1, Z: 1}
	return (td.Translation == nil || *td.Translation == zero) &&
		(td.Rotation == nil || *td.Rotation == zero) &&
		(td.Scale == nil || *td.Scale == one)
}

// Apply transforms a single vertex.
func (td TransformData) Apply(v mesh.Vertex) mesh.Vertex {
	if td.Scale != nil {
		v = mesh.Vertex{X: v.X * td.Scale.X, Y: v.Y * td.Scale.Y, Z: v.Z * td.Scale.Z}
	}
	if td.Rotation != nil {
		v = mesh.RotateEuler(v, *td.Rotation)
	}
	if td.Translation != nil {
		v = v.Add(*td.Translation)
	}
	return v
}

// GroupData is a logical grouping of children.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}

// BooleanOp selects the combination applied to a boolean node's children.
type BooleanOp int

const (
	OpUnion BooleanOp = iota
	OpDifference
	OpIntersection
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	default:
		return fmt.Sprintf("BooleanOp(%d)", int(op))
	}
}

// BooleanData combines child solids left to right. Difference subtracts
// every later child from the first.
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData() {}
