package tessellate_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/templux/pkg/kernel"
	"github.com/chazu/templux/pkg/kernel/sdfx"
	"github.com/chazu/templux/pkg/mesh"
	"github.com/chazu/templux/pkg/scene"
	"github.com/chazu/templux/pkg/stl"
	"github.com/chazu/templux/pkg/tessellate"
)

// newKernel returns a coarse sdfx kernel so tests stay fast.
func newKernel() kernel.Kernel {
	return sdfx.New(sdfx.WithCells(12))
}

func makeBox(name string, x, y, z float64) *scene.Node {
	return &scene.Node{
		ID:   scene.NewNodeID("box/" + name),
		Kind: scene.NodePrimitive,
		Name: name,
		Data: scene.PrimitiveData{Shape: scene.ShapeBox, Size: mesh.Vertex{X: x, Y: y, Z: z}},
	}
}

func makeModel(name, path string) *scene.Node {
	return &scene.Node{
		ID:   scene.NewNodeID("model/" + name),
		Kind: scene.NodeModel,
		Name: name,
		Data: scene.ModelData{Path: path},
	}
}

func makePlace(name string, at, rot *mesh.Vertex, children ...scene.NodeID) *scene.Node {
	return &scene.Node{
		ID:       scene.NewNodeID("place/" + name),
		Kind:     scene.NodeTransform,
		Children: children,
		Data:     scene.TransformData{Translation: at, Rotation: rot},
	}
}

func makeGroup(name string, children ...scene.NodeID) *scene.Node {
	return &scene.Node{
		ID:       scene.NewNodeID("group/" + name),
		Kind:     scene.NodeGroup,
		Name:     name,
		Children: children,
		Data:     scene.GroupData{},
	}
}

// unitTriangle is a fake loader result.
func unitTriangle(string, bool) (*mesh.Mesh, error) {
	return mesh.New("tri", mesh.Face{{}, {X: 1}, {Y: 1}}), nil
}

func centroid(m *mesh.Mesh) mesh.Vertex {
	lo, hi, _ := m.Bounds()
	return lo.Add(hi).Scale(0.5)
}

func TestSingleBox(t *testing.T) {
	s := scene.New()
	b := makeBox("shelf", 6, 3, 1)
	s.AddNode(b)
	s.AddRoot(b.ID)

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.IsEmpty() || m.Name != "shelf" {
		t.Fatalf("mesh = %v", m)
	}
	for i, f := range m.Faces {
		if !f.IsTriangle() {
			t.Fatalf("face %d has %d vertices", i, len(f))
		}
	}
}

func TestPlacedModel(t *testing.T) {
	s := scene.New()
	model := makeModel("tri", "tri.stl")
	at := mesh.Vertex{X: 10, Y: 20, Z: 30}
	rot := mesh.Vertex{Z: 90}
	place := makePlace("tri", &at, &rot, model.ID)
	s.AddNode(model)
	s.AddNode(place)
	s.AddRoot(place.ID)

	tz := tessellate.New(nil, tessellate.WithLoader(unitTriangle))
	meshes, err := tz.Tessellate(s)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	// (1,0,0) rotates to (0,1,0) before the translation.
	got := meshes[0].Faces[0][1]
	want := mesh.Vertex{X: 10, Y: 21, Z: 30}
	if got.Sub(want).Length() > 1e-9 {
		t.Errorf("placed vertex = %v, want %v", got, want)
	}
	if meshes[0].Name != "tri" {
		t.Errorf("name = %q", meshes[0].Name)
	}
}

func TestNestedTransformsComposeInnermostFirst(t *testing.T) {
	s := scene.New()
	model := makeModel("tri", "tri.stl")
	rot := mesh.Vertex{Z: 90}
	inner := makePlace("inner", nil, &rot, model.ID)
	at := mesh.Vertex{X: 5}
	outer := makePlace("outer", &at, nil, inner.ID)
	for _, n := range []*scene.Node{model, inner, outer} {
		s.AddNode(n)
	}
	s.AddRoot(outer.ID)

	meshes, err := tessellate.New(nil, tessellate.WithLoader(unitTriangle)).Tessellate(s)
	if err != nil {
		t.Fatal(err)
	}
	// Rotate (1,0,0) to (0,1,0), then translate to (5,1,0).
	got := meshes[0].Faces[0][1]
	if got.Sub(mesh.Vertex{X: 5, Y: 1}).Length() > 1e-9 {
		t.Errorf("vertex = %v, want (5,1,0)", got)
	}
}

func TestAssemblyKeepsOrder(t *testing.T) {
	s := scene.New()
	left := makeBox("left", 1, 4, 3)
	right := makeBox("right", 1, 4, 3)
	top := makeBox("top", 6, 4, 1)
	atR := mesh.Vertex{X: 5}
	atT := mesh.Vertex{X: 2.5, Z: 2}
	pl := makePlace("left", nil, nil, left.ID)
	pr := makePlace("right", &atR, nil, right.ID)
	pt := makePlace("top", &atT, nil, top.ID)
	asm := makeGroup("bench", pl.ID, pr.ID, pt.ID)
	for _, n := range []*scene.Node{left, right, top, pl, pr, pt, asm} {
		s.AddNode(n)
	}
	s.AddRoot(asm.ID)

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	var names []string
	for _, m := range meshes {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != "left,right,top" {
		t.Fatalf("names = %v", names)
	}
	if c := centroid(meshes[1]); math.Abs(c.X-5) > 0.5 {
		t.Errorf("right centroid = %v, want x near 5", c)
	}
	if c := centroid(meshes[2]); math.Abs(c.Z-2) > 0.5 {
		t.Errorf("top centroid = %v, want z near 2", c)
	}
}

func TestBooleanProducesOneMesh(t *testing.T) {
	s := scene.New()
	block := makeBox("block", 4, 4, 4)
	hole := &scene.Node{
		ID: scene.NewNodeID("cylinder/hole"), Kind: scene.NodePrimitive, Name: "hole",
		Data: scene.PrimitiveData{Shape: scene.ShapeCylinder, Height: 6, Radius: 1},
	}
	diff := &scene.Node{
		ID: scene.NewNodeID("difference/drilled"), Kind: scene.NodeBoolean, Name: "drilled",
		Children: []scene.NodeID{block.ID, hole.ID},
		Data:     scene.BooleanData{Op: scene.OpDifference},
	}
	for _, n := range []*scene.Node{block, hole, diff} {
		s.AddNode(n)
	}
	s.AddRoot(diff.ID)

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 || meshes[0].Name != "drilled" || meshes[0].IsEmpty() {
		t.Fatalf("meshes = %v", meshes)
	}
}

func TestModelInsideBooleanFails(t *testing.T) {
	s := scene.New()
	block := makeBox("block", 1, 1, 1)
	model := makeModel("tri", "tri.stl")
	u := &scene.Node{
		ID: scene.NewNodeID("union/u"), Kind: scene.NodeBoolean, Name: "u",
		Children: []scene.NodeID{block.ID, model.ID}, Data: scene.BooleanData{},
	}
	for _, n := range []*scene.Node{block, model, u} {
		s.AddNode(n)
	}
	s.AddRoot(u.ID)

	_, err := tessellate.New(newKernel(), tessellate.WithLoader(unitTriangle)).Tessellate(s)
	if err == nil || !strings.Contains(err.Error(), "cannot be combined") {
		t.Fatalf("err = %v", err)
	}
}

func TestPrimitiveWithoutKernelFails(t *testing.T) {
	s := scene.New()
	b := makeBox("b", 1, 1, 1)
	s.AddNode(b)
	s.AddRoot(b.ID)
	if _, err := tessellate.New(nil).Tessellate(s); err == nil {
		t.Fatal("expected error without kernel")
	}
}

func TestLoaderErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	s := scene.New()
	m := makeModel("x", "x.stl")
	s.AddNode(m)
	s.AddRoot(m.ID)
	_, err := tessellate.New(nil, tessellate.WithLoader(func(string, bool) (*mesh.Mesh, error) {
		return nil, boom
	})).Tessellate(s)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestModelsAreCachedAndResolvedAgainstBaseDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tri.stl")
	tri := mesh.New("tri", mesh.Face{{}, {X: 1}, {Y: 1}})
	if err := stl.WriteFile(path, tri, stl.ASCII); err != nil {
		t.Fatal(err)
	}

	s := scene.New()
	model := makeModel("tri", "tri.stl")
	at := mesh.Vertex{Z: 1}
	p1 := makePlace("a", nil, nil, model.ID)
	p2 := makePlace("b", &at, nil, model.ID)
	for _, n := range []*scene.Node{model, p1, p2} {
		s.AddNode(n)
	}
	s.AddRoot(p1.ID)
	s.AddRoot(p2.ID)

	loads := 0
	loader := func(p string, poly bool) (*mesh.Mesh, error) {
		loads++
		return tessellate.ReadSTL(p, poly)
	}
	meshes, err := tessellate.New(nil, tessellate.WithBaseDir(dir), tessellate.WithLoader(loader)).Tessellate(s)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if loads != 1 {
		t.Errorf("model loaded %d times, want 1", loads)
	}
	if len(meshes) != 2 || meshes[1].Faces[0][0].Z != 1 || meshes[0].Faces[0][0].Z != 0 {
		t.Errorf("meshes = %v", meshes)
	}
}

func TestCycleIsReportedNotOverflowed(t *testing.T) {
	s := scene.New()
	a := makeGroup("a")
	b := makeGroup("b", a.ID)
	a.Children = []scene.NodeID{b.ID}
	s.AddNode(a)
	s.AddNode(b)
	s.AddRoot(a.ID)
	if _, err := tessellate.New(nil).Tessellate(s); err == nil {
		t.Fatal("cycle not reported")
	}
}

func TestEmptyAndNilScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(scene.New(), newKernel())
	if err != nil || len(meshes) != 0 {
		t.Fatalf("empty scene: %v %v", meshes, err)
	}
	meshes, err = tessellate.Tessellate(nil, newKernel())
	if err != nil || meshes != nil {
		t.Fatalf("nil scene: %v %v", meshes, err)
	}
}

func TestReadSTLMissingFile(t *testing.T) {
	_, err := tessellate.ReadSTL(filepath.Join(t.TempDir(), "none.stl"), false)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}
