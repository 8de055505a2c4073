package main

import (
	"math"
	"strings"
	"testing"
)

// evaluate runs source through a fresh App and fails on errors.
func evaluate(t *testing.T, source string) EvalResult {
	t.Helper()
	result := NewApp(nil).Evaluate(source)
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e)
		}
		t.FailNow()
	}
	return result
}

// evaluateFails runs source and expects at least one error.
func evaluateFails(t *testing.T, source string) EvalResult {
	t.Helper()
	result := NewApp(nil).Evaluate(source)
	if len(result.Errors) == 0 {
		t.Fatalf("expected errors for %q", source)
	}
	if len(result.Meshes) != 0 || result.Scene != nil {
		t.Errorf("failed evaluation returned output: %d meshes", len(result.Meshes))
	}
	return result
}

func hasErrorContaining(r EvalResult, substr string) bool {
	for _, e := range r.Errors {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// TestE2ETableScene exercises the full pipeline: script -> engine -> scene
// -> tessellate -> meshes.
func TestE2ETableScene(t *testing.T) {
	source := `
; a small table
(def leg-h 3)
(def leg (fn [name x y]
  (place (box 0.3 0.3 leg-h :name name) :at (vec3 x y (/ leg-h 2.0)))))

(group "table"
  (leg "leg-a" -1 -1)
  (leg "leg-b"  1 -1)
  (leg "leg-c" -1  1)
  (leg "leg-d"  1  1)
  (place (difference (box 3 3 0.2 :name "top") (cylinder :height 1 :radius 0.3 :name "hole")
                     :name "drilled-top")
         :at (vec3 0 0 3.1)))

(camera :pitch 60 :yaw 30 :size 8)
`
	result := evaluate(t, source)

	want := []string{"leg-a", "leg-b", "leg-c", "leg-d", "drilled-top"}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if m.Name != want[i] {
			t.Errorf("mesh %d = %q, want %q", i, m.Name, want[i])
		}
		if m.IsEmpty() {
			t.Errorf("mesh %q has no faces", m.Name)
		}
	}

	// Legs stand on the floor and reach the top.
	lo, hi, _ := result.Meshes[0].Bounds()
	if math.Abs(lo.Z) > 0.2 || math.Abs(hi.Z-3) > 0.2 {
		t.Errorf("leg-a spans z %v..%v, want about 0..3", lo.Z, hi.Z)
	}
	if result.Scene.Camera.Orientation.Pitch != 60 {
		t.Errorf("camera = %v", result.Scene.Camera)
	}
}

func TestE2EEmptySource(t *testing.T) {
	result := evaluate(t, "")
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a nothing-to-draw warning")
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	result := evaluate(t, ";; nothing here\n; still nothing\n")
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

func TestE2ESyntaxError(t *testing.T) {
	result := evaluateFails(t, "(box 1 2 3")
	if result.Errors[0].Message == "" {
		t.Error("error message should not be empty")
	}
}

func TestE2EUndefinedReference(t *testing.T) {
	result := evaluateFails(t, `(place (ref "ghost") :at (vec3 0 0 1))`)
	if !hasErrorContaining(result, "ghost") {
		t.Errorf("errors do not mention the missing name: %v", result.Errors)
	}
}

func TestE2EInvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"zero box", `(box 0 1 1)`},
		{"all zero", `(box 0 0 0)`},
		{"negative", `(box 1 -2 1)`},
		{"zero radius", `(sphere 0)`},
		{"huge", `(box 1e13 1 1)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluateFails(t, tt.source)
			if !hasErrorContaining(result, "box") && !hasErrorContaining(result, "sphere") {
				t.Errorf("errors do not name the shape: %v", result.Errors)
			}
		})
	}
}

func TestE2EArithmeticDimensions(t *testing.T) {
	result := evaluate(t, `
(def w (* 2 3))
(def d (/ w 4.0))
(box w d 1 :name "plank")
`)
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	lo, hi, _ := result.Meshes[0].Bounds()
	if math.Abs(hi.X-lo.X-6) > 0.3 || math.Abs(hi.Y-lo.Y-1.5) > 0.3 {
		t.Errorf("plank size = %v", hi.Sub(lo))
	}
}

func TestE2ERepeatedEvaluation(t *testing.T) {
	app := NewApp(nil)
	sources := []string{`(box 1)`, `(sphere 1) (box 2)`, `(box 1`}
	for i := 0; i < 6; i++ {
		src := sources[i%len(sources)]
		result := app.Evaluate(src)
		wantErr := strings.Count(src, "(") != strings.Count(src, ")")
		if wantErr != (len(result.Errors) > 0) {
			t.Fatalf("iteration %d (%q): errors = %v", i, src, result.Errors)
		}
		if !wantErr && len(result.Meshes) != strings.Count(src, "(") {
			t.Errorf("iteration %d: %d meshes", i, len(result.Meshes))
		}
	}
}

func TestE2EMissingModelFile(t *testing.T) {
	result := evaluateFails(t, `(model "does-not-exist.stl")`)
	if !hasErrorContaining(result, "tessellation failed") {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestModelScene(t *testing.T) {
	s := ModelScene("parts/teapot.stl", true)
	n := s.Lookup("teapot")
	if n == nil || len(s.Roots) != 1 || s.Roots[0] != n.ID {
		t.Fatalf("scene = %+v", s)
	}
}
