// Package scene defines the scene graph produced by evaluating a scene
// script. A scene is a DAG of models, primitives, transforms, groups and
// booleans, plus the view settings (camera, frames, style) used to render
// it. Scenes are built once per evaluation and treated as immutable
// afterwards.
package scene

import (
	"cmp"
	"fmt"
	"image/color"
	"slices"

	"github.com/samber/lo"

	"github.com/chazu/templux/pkg/camera"
	"github.com/chazu/templux/pkg/raster"
)

// Default view settings.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
)

// Frames describes a turntable sequence. Count 1 renders a still.
type Frames struct {
	Count     int     `json:"count"`
	PitchStep float64 `json:"pitch_step"` // degrees per frame
	YawStep   float64 `json:"yaw_step"`   // degrees per frame
}

// Style selects how the scene is drawn.
type Style struct {
	Mode       raster.Mode `json:"mode"`
	Color      color.RGBA  `json:"color"`     // wireframe line color
	Thickness  float64     `json:"thickness"` // wireframe line width
	Matcap     string      `json:"matcap,omitempty"`
	Background *color.RGBA `json:"background,omitempty"`
	Orderer    string      `json:"orderer,omitempty"` // depth.ByName key
}

// Scene is the top-level structure produced by evaluation.
type Scene struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`

	Camera camera.Camera `json:"camera"`
	Frames Frames        `json:"frames"`
	Style  Style         `json:"style"`
}

// New creates an empty scene with default view settings.
func New() *Scene {
	return &Scene{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Camera:    camera.MustNew(DefaultWidth, DefaultHeight, camera.DefaultSize, camera.Orientation{}),
		Frames:    Frames{Count: 1},
		Style: Style{
			Mode:      raster.Solid,
			Color:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
			Thickness: raster.DefaultThickness,
		},
	}
}

// AddNode adds a node to the scene. It does not check for duplicates.
func (s *Scene) AddNode(n *Node) {
	s.Nodes[n.ID] = n
	if n.Name != "" {
		s.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root. Adding the same root twice is a
// no-op.
func (s *Scene) AddRoot(id NodeID) {
	if !lo.Contains(s.Roots, id) {
		s.Roots = append(s.Roots, id)
	}
}

// RemoveRoot drops id from the roots, used when a top-level node is later
// adopted as a child.
func (s *Scene) RemoveRoot(id NodeID) {
	s.Roots = lo.Without(s.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (s *Scene) Lookup(name string) *Node {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (s *Scene) MustLookup(name string) *Node {
	n := s.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("scene: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (s *Scene) Get(id NodeID) *Node {
	return s.Nodes[id]
}

// Children returns the child nodes of n in declaration order. Dangling
// references are skipped.
func (s *Scene) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := s.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// OfKind returns every node of kind k, ordered by ID.
func (s *Scene) OfKind(k NodeKind) []*Node {
	var out []*Node
	for _, n := range s.Nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b *Node) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// NodeCount returns the total number of nodes.
func (s *Scene) NodeCount() int {
	return len(s.Nodes)
}
