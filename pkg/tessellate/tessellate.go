// Package tessellate walks a scene graph and produces the triangle meshes
// the renderer draws: one mesh per model, primitive or boolean node. STL
// models are read through a Loader; primitives and booleans are built and
// tessellated by a geometry kernel.
package tessellate

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/chazu/templux/pkg/kernel"
	"github.com/chazu/templux/pkg/mesh"
	"github.com/chazu/templux/pkg/raster"
	"github.com/chazu/templux/pkg/scene"
	"github.com/chazu/templux/pkg/stl"
)

// maxDepth bounds recursion so a cyclic scene fails instead of overflowing
// the stack.
const maxDepth = 256

// Loader reads the mesh stored at path.
type Loader func(path string, polygons bool) (*mesh.Mesh, error)

// ReadSTL is the default Loader.
func ReadSTL(path string, polygons bool) (*mesh.Mesh, error) {
	if polygons {
		return stl.ReadFile(path, stl.WithPolygons())
	}
	return stl.ReadFile(path)
}

// transformStack accumulates placements during traversal. The innermost
// transform is applied first.
type transformStack struct {
	frames []scene.TransformData
}

func (ts *transformStack) push(td scene.TransformData) {
	ts.frames = append(ts.frames, td)
}

func (ts *transformStack) pop() {
	if len(ts.frames) > 0 {
		ts.frames = ts.frames[:len(ts.frames)-1]
	}
}

func (ts *transformStack) apply(v mesh.Vertex) mesh.Vertex {
	for i := len(ts.frames) - 1; i >= 0; i-- {
		v = ts.frames[i].Apply(v)
	}
	return v
}

func (ts *transformStack) isIdentity() bool {
	for _, td := range ts.frames {
		if !td.IsIdentity() {
			return false
		}
	}
	return true
}

// Tessellator converts scenes to meshes. Loaded models are cached by path,
// so a model placed several times is read once.
type Tessellator struct {
	kernel  kernel.Kernel
	load    Loader
	baseDir string

	mu    sync.Mutex
	cache map[string]*mesh.Mesh
}

// Option configures a Tessellator.
type Option func(*Tessellator)

// WithLoader replaces the STL file loader.
func WithLoader(l Loader) Option {
	return func(t *Tessellator) { t.load = l }
}

// WithBaseDir resolves relative model paths against dir.
func WithBaseDir(dir string) Option {
	return func(t *Tessellator) { t.baseDir = dir }
}

// New returns a tessellator. k may be nil for scenes holding only models.
func New(k kernel.Kernel, opts ...Option) *Tessellator {
	t := &Tessellator{kernel: k, load: ReadSTL, cache: make(map[string]*mesh.Mesh)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tessellate is a convenience wrapper around New(k).Tessellate(s).
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*mesh.Mesh, error) {
	return New(k).Tessellate(s)
}

// Tessellate walks every root in order and returns the drawable meshes. The
// scene is never mutated.
func (t *Tessellator) Tessellate(s *scene.Scene) ([]*mesh.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*mesh.Mesh
	ts := &transformStack{}
	for _, rootID := range s.Roots {
		root := s.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := t.walk(s, root, ts, 0)
		if err != nil {
			return nil, fmt.Errorf("tessellate: root %s: %w", root.Label(), err)
		}
		meshes = append(meshes, collected...)
	}
	raster.Logger().Debug("scene tessellated", "roots", len(s.Roots), "meshes", len(meshes))
	return meshes, nil
}

func (t *Tessellator) walk(s *scene.Scene, n *scene.Node, ts *transformStack, depth int) ([]*mesh.Mesh, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("node %s: scene nested deeper than %d (cycle?)", n.Label(), maxDepth)
	}
	switch n.Kind {
	case scene.NodeModel:
		return t.handleModel(n, ts)
	case scene.NodePrimitive, scene.NodeBoolean:
		return t.handleSolid(s, n, ts)
	case scene.NodeTransform:
		td, ok := n.Data.(scene.TransformData)
		if !ok {
			return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.Label(), n.Data)
		}
		ts.push(td)
		defer ts.pop()
		return t.walkChildren(s, n, ts, depth)
	case scene.NodeGroup:
		return t.walkChildren(s, n, ts, depth)
	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func (t *Tessellator) walkChildren(s *scene.Scene, n *scene.Node, ts *transformStack, depth int) ([]*mesh.Mesh, error) {
	var meshes []*mesh.Mesh
	for _, child := range s.Children(n) {
		collected, err := t.walk(s, child, ts, depth+1)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// handleModel loads an STL file and places it.
func (t *Tessellator) handleModel(n *scene.Node, ts *transformStack) ([]*mesh.Mesh, error) {
	md, ok := n.Data.(scene.ModelData)
	if !ok {
		return nil, fmt.Errorf("model node %s has unexpected data type %T", n.Label(), n.Data)
	}
	m, err := t.loadModel(md)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", n.Label(), err)
	}
	return []*mesh.Mesh{t.place(m, n.Label(), ts)}, nil
}

func (t *Tessellator) loadModel(md scene.ModelData) (*mesh.Mesh, error) {
	path := md.Path
	if t.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(t.baseDir, path)
	}
	key := fmt.Sprintf("%s|%t", path, md.Polygons)

	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.cache[key]; ok {
		return m, nil
	}
	m, err := t.load(path, md.Polygons)
	if err != nil {
		return nil, err
	}
	m = m.Triangulate()
	t.cache[key] = m
	raster.Logger().Info("model loaded", "path", path, "faces", m.FaceCount())
	return m, nil
}

// handleSolid builds a kernel solid for a primitive or boolean subtree and
// tessellates it.
func (t *Tessellator) handleSolid(s *scene.Scene, n *scene.Node, ts *transformStack) ([]*mesh.Mesh, error) {
	if t.kernel == nil {
		return nil, fmt.Errorf("%s %s needs a geometry kernel", n.Kind, n.Label())
	}
	solid, err := t.solidOf(s, n, 0)
	if err != nil {
		return nil, err
	}
	m, err := t.kernel.ToMesh(solid, n.Label())
	if err != nil {
		return nil, fmt.Errorf("ToMesh failed for node %s: %w", n.Label(), err)
	}
	return []*mesh.Mesh{t.place(m, n.Label(), ts)}, nil
}

// place applies the accumulated transforms and names the result.
func (t *Tessellator) place(m *mesh.Mesh, name string, ts *transformStack) *mesh.Mesh {
	if ts.isIdentity() {
		return mesh.New(name, m.Faces...)
	}
	out := m.Map(ts.apply)
	out.Name = name
	return out
}

// solidOf converts a subtree to a single kernel solid. Transforms inside
// the subtree are applied by the kernel; groups union their children.
func (t *Tessellator) solidOf(s *scene.Scene, n *scene.Node, depth int) (kernel.Solid, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("node %s: solid nested deeper than %d (cycle?)", n.Label(), maxDepth)
	}
	k := t.kernel
	switch d := n.Data.(type) {
	case scene.PrimitiveData:
		switch d.Shape {
		case scene.ShapeBox:
			return k.Box(d.Size)
		case scene.ShapeCylinder:
			return k.Cylinder(d.Height, d.Radius)
		case scene.ShapeSphere:
			return k.Sphere(d.Radius)
		}
		return nil, fmt.Errorf("primitive %s has unsupported shape %v", n.Label(), d.Shape)

	case scene.TransformData:
		solid, err := t.foldChildren(s, n, scene.OpUnion, depth)
		if err != nil {
			return nil, err
		}
		if d.Scale != nil {
			solid = k.Scale(solid, *d.Scale)
		}
		if d.Rotation != nil {
			solid = k.Rotate(solid, *d.Rotation)
		}
		if d.Translation != nil {
			solid = k.Translate(solid, *d.Translation)
		}
		return solid, nil

	case scene.GroupData:
		return t.foldChildren(s, n, scene.OpUnion, depth)

	case scene.BooleanData:
		return t.foldChildren(s, n, d.Op, depth)

	case scene.ModelData:
		return nil, fmt.Errorf("model %s cannot be combined as a solid", n.Label())
	}
	return nil, fmt.Errorf("node %s has unsupported data type %T", n.Label(), n.Data)
}

func (t *Tessellator) foldChildren(s *scene.Scene, n *scene.Node, op scene.BooleanOp, depth int) (kernel.Solid, error) {
	children := s.Children(n)
	if len(children) == 0 {
		return nil, fmt.Errorf("%s %s has no operands", n.Kind, n.Label())
	}
	acc, err := t.solidOf(s, children[0], depth+1)
	if err != nil {
		return nil, err
	}
	for _, c := range children[1:] {
		next, err := t.solidOf(s, c, depth+1)
		if err != nil {
			return nil, err
		}
		switch op {
		case scene.OpDifference:
			acc = t.kernel.Difference(acc, next)
		case scene.OpIntersection:
			acc = t.kernel.Intersection(acc, next)
		default:
			acc = t.kernel.Union(acc, next)
		}
	}
	return acc, nil
}
