package engine

import (
	"image/color"
	"strings"
	"testing"

	"github.com/chazu/templux/pkg/mesh"
	"github.com/chazu/templux/pkg/raster"
	"github.com/chazu/templux/pkg/scene"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(model "a.stl" :name "a")`,
			expect: `(model "a.stl" "__kw_name" "a")`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :height 4 :radius 1)`,
			expect: `(cylinder "__kw_height" 4 "__kw_radius" 1)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def base-plate (box 1))`,
			expect: `(def base_plate (box 1))`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -1 0 -2.5)`,
			expect: `(vec3 -1 0 -2.5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:yaw-step`,
			expect: `"__kw_yaw-step"`,
		},
		{
			name:   "hex color string untouched",
			input:  `(style :color "#ff00ff")`,
			expect: `(style "__kw_color" "#ff00ff")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// evalScene evaluates source and fails the test on any error.
func evalScene(t *testing.T, source string) *scene.Scene {
	t.Helper()
	s, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return s
}

// evalFails evaluates source and returns the first eval error message.
func evalFails(t *testing.T, source string) string {
	t.Helper()
	s, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if s != nil || len(evalErrs) == 0 {
		t.Fatalf("expected eval error for %q", source)
	}
	return evalErrs[0].Message
}

// ---------------------------------------------------------------------------
// Node builtins
// ---------------------------------------------------------------------------

func TestModel(t *testing.T) {
	s := evalScene(t, `(model "parts/teapot.stl" :name "teapot" :polygons true)`)

	n := s.Lookup("teapot")
	if n == nil {
		t.Fatal("teapot not found")
	}
	if n.Kind != scene.NodeModel {
		t.Errorf("kind = %v", n.Kind)
	}
	md, ok := n.Data.(scene.ModelData)
	if !ok {
		t.Fatalf("data = %T", n.Data)
	}
	if md.Path != "parts/teapot.stl" || !md.Polygons {
		t.Errorf("model data = %+v", md)
	}
	if len(s.Roots) != 1 || s.Roots[0] != n.ID {
		t.Errorf("roots = %v", s.Roots)
	}
}

func TestBoxForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   mesh.Vertex
	}{
		{"three numbers", `(box 4 2 1)`, mesh.Vertex{X: 4, Y: 2, Z: 1}},
		{"cube", `(box 3)`, mesh.Vertex{X: 3, Y: 3, Z: 3}},
		{"size vec3", `(box :size (vec3 1 2 3))`, mesh.Vertex{X: 1, Y: 2, Z: 3}},
		{"size scalar", `(box :size 2.5)`, mesh.Vertex{X: 2.5, Y: 2.5, Z: 2.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := evalScene(t, tt.source)
			prims := s.OfKind(scene.NodePrimitive)
			if len(prims) != 1 {
				t.Fatalf("expected 1 primitive, got %d", len(prims))
			}
			pd := prims[0].Data.(scene.PrimitiveData)
			if pd.Shape != scene.ShapeBox || pd.Size != tt.want {
				t.Errorf("data = %+v, want size %v", pd, tt.want)
			}
		})
	}
}

func TestCylinderAndSphere(t *testing.T) {
	s := evalScene(t, `
(cylinder :height 4 :radius 0.5 :name "peg")
(sphere 2 :name "ball")
(sphere :radius 3)
`)
	peg := s.MustLookup("peg").Data.(scene.PrimitiveData)
	if peg.Shape != scene.ShapeCylinder || peg.Height != 4 || peg.Radius != 0.5 {
		t.Errorf("peg = %+v", peg)
	}
	ball := s.MustLookup("ball").Data.(scene.PrimitiveData)
	if ball.Shape != scene.ShapeSphere || ball.Radius != 2 {
		t.Errorf("ball = %+v", ball)
	}
	if len(s.Roots) != 3 {
		t.Errorf("roots = %d, want 3", len(s.Roots))
	}
}

func TestPlaceAdoptsChild(t *testing.T) {
	s := evalScene(t, `
(model "teapot.stl" :name "teapot")
(place (ref "teapot") :at (vec3 1 2 3) :rotate (vec3 0 0 90) :scale 2)
`)
	teapot := s.MustLookup("teapot")
	places := s.OfKind(scene.NodeTransform)
	if len(places) != 1 {
		t.Fatalf("expected 1 transform, got %d", len(places))
	}
	p := places[0]
	if len(p.Children) != 1 || p.Children[0] != teapot.ID {
		t.Errorf("children = %v", p.Children)
	}
	td := p.Data.(scene.TransformData)
	if td.Translation == nil || *td.Translation != (mesh.Vertex{X: 1, Y: 2, Z: 3}) {
		t.Errorf("translation = %v", td.Translation)
	}
	if td.Rotation == nil || td.Rotation.Z != 90 {
		t.Errorf("rotation = %v", td.Rotation)
	}
	if td.Scale == nil || *td.Scale != (mesh.Vertex{X: 2, Y: 2, Z: 2}) {
		t.Errorf("scale = %v", td.Scale)
	}

	// The model is no longer a root once placed.
	if len(s.Roots) != 1 || s.Roots[0] != p.ID {
		t.Errorf("roots = %v, want only the place", s.Roots)
	}
}

func TestGroupAndBooleans(t *testing.T) {
	s := evalScene(t, `
(def block (box 4 4 1 :name "block"))
(def hole (cylinder :height 2 :radius 0.5 :name "hole"))
(group "table"
  (difference block hole :name "drilled")
  (place (sphere 1) :at (vec3 0 0 2)))
`)
	table := s.MustLookup("table")
	if table.Kind != scene.NodeGroup || len(table.Children) != 2 {
		t.Fatalf("table = %+v", table)
	}
	drilled := s.MustLookup("drilled")
	bd, ok := drilled.Data.(scene.BooleanData)
	if !ok || bd.Op != scene.OpDifference {
		t.Errorf("drilled data = %+v", drilled.Data)
	}
	if drilled.Children[0] != s.MustLookup("block").ID || drilled.Children[1] != s.MustLookup("hole").ID {
		t.Errorf("operand order = %v", drilled.Children)
	}
	if len(s.Roots) != 1 || s.Roots[0] != table.ID {
		t.Errorf("roots = %v, want only the table", s.Roots)
	}
	if f := scene.Validate(s); len(f.Errors()) != 0 {
		t.Errorf("validation errors: %v", f.Errors())
	}
}

func TestGroupAcceptsLists(t *testing.T) {
	s := evalScene(t, `(group "row" (list (box 1) (box 2)) (box 3))`)
	if got := len(s.MustLookup("row").Children); got != 3 {
		t.Errorf("children = %d, want 3", got)
	}
}

func TestUnionIntersection(t *testing.T) {
	s := evalScene(t, `
(union (box 1) (sphere 0.7) :name "u")
(intersection (box 1) (sphere 0.7) :name "i")
`)
	if s.MustLookup("u").Data.(scene.BooleanData).Op != scene.OpUnion {
		t.Error("u is not a union")
	}
	if s.MustLookup("i").Data.(scene.BooleanData).Op != scene.OpIntersection {
		t.Error("i is not an intersection")
	}
}

func TestAnonymousNodesGetDistinctIDs(t *testing.T) {
	s := evalScene(t, `(box 1) (box 1) (box 1)`)
	if s.NodeCount() != 3 || len(s.Roots) != 3 {
		t.Errorf("nodes = %d, roots = %d", s.NodeCount(), len(s.Roots))
	}
}

// ---------------------------------------------------------------------------
// View builtins
// ---------------------------------------------------------------------------

func TestCameraAndFrames(t *testing.T) {
	s := evalScene(t, `
(camera :width 320 :height 200 :size 12 :pitch 30 :yaw 45)
(frames :count 36 :yaw-step 10)
`)
	c := s.Camera
	if c.Width != 320 || c.Height != 200 || c.Size != 12 {
		t.Errorf("camera = %v", c)
	}
	if c.Orientation.Pitch != 30 || c.Orientation.Yaw != 45 {
		t.Errorf("orientation = %+v", c.Orientation)
	}
	if s.Frames.Count != 36 || s.Frames.YawStep != 10 || s.Frames.PitchStep != 0 {
		t.Errorf("frames = %+v", s.Frames)
	}
}

func TestCameraKeepsUnsetFields(t *testing.T) {
	s := evalScene(t, `(camera :yaw 90)`)
	if s.Camera.Width != scene.DefaultWidth || s.Camera.Orientation.Yaw != 90 {
		t.Errorf("camera = %v", s.Camera)
	}
}

func TestStyle(t *testing.T) {
	s := evalScene(t, `
(style :mode :wireframe :color "#00ff00" :thickness 1.5
       :matcap "clay.png" :background "#102030" :orderer :depth)
`)
	st := s.Style
	if st.Mode != raster.Wireframe {
		t.Errorf("mode = %v", st.Mode)
	}
	if st.Color != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("color = %v", st.Color)
	}
	if st.Thickness != 1.5 || st.Matcap != "clay.png" || st.Orderer != "depth" {
		t.Errorf("style = %+v", st)
	}
	if st.Background == nil || *st.Background != (color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}) {
		t.Errorf("background = %v", st.Background)
	}
}

// ---------------------------------------------------------------------------
// Error cases
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"ref unknown", `(place (ref "ghost"))`, "no node named"},
		{"duplicate name", `(box 1 :name "a") (sphere 1 :name "a")`, "duplicate name"},
		{"box without size", `(box)`, "requires a size"},
		{"box bad dimension", `(box 1 "two" 3)`, "expected number"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"place without child", `(place :at (vec3 0 0 0))`, "node reference"},
		{"place bad at", `(place (box 1) :at 3)`, "expected vec3"},
		{"single operand", `(union (box 1))`, "at least two operands"},
		{"group child not ref", `(group "g" 42)`, "expected node reference"},
		{"model without path", `(model :name "m")`, "file path"},
		{"bad camera", `(camera :width 0)`, "invalid camera"},
		{"zero frames", `(frames :count 0)`, "at least 1"},
		{"bad mode", `(style :mode :sketch)`, "sketch"},
		{"bad color", `(style :color "teal")`, "color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not mention %q", msg, tt.want)
			}
		})
	}
}
