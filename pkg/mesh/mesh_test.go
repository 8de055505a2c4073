package mesh

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

const eps = 1e-9

func near(a, b Vertex) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestNormalRightHanded(t *testing.T) {
	f := Face{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	n := f.Normal()
	if n != (Vertex{0, 0, 1}) {
		t.Fatalf("normal = %v, want (0,0,1)", n)
	}

	// Reversed winding flips the normal.
	r := Face{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}}
	if got := r.Normal(); got != (Vertex{0, 0, -1}) {
		t.Fatalf("reversed normal = %v, want (0,0,-1)", got)
	}
}

func TestNormalNotUnitLength(t *testing.T) {
	f := Face{{0, 0, 0}, {2, 0, 0}, {0, 3, 0}}
	n := f.Normal()
	if n.Length() != 6 {
		t.Errorf("normal length = %f, want 6 (twice the area)", n.Length())
	}
	if u := n.Normalize(); !near(u, Vertex{0, 0, 1}) {
		t.Errorf("normalized = %v, want (0,0,1)", u)
	}
}

func TestDegenerateNormal(t *testing.T) {
	f := Face{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}}
	if l := f.Normal().Length(); l != 0 {
		t.Errorf("collinear face normal length = %f, want 0", l)
	}
	if (Face{{0, 0, 0}}).Normal() != (Vertex{}) {
		t.Error("short face should have zero normal")
	}
}

func TestCentroid(t *testing.T) {
	f := Face{{0, 0, 0}, {3, 0, 0}, {0, 3, 3}}
	if c := f.Centroid(); !near(c, Vertex{1, 1, 1}) {
		t.Errorf("centroid = %v, want (1,1,1)", c)
	}
}

func TestTriangulateFan(t *testing.T) {
	quad := Face{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	pent := Face{{0, 0, 0}, {1, 0, 0}, {2, 1, 0}, {1, 2, 0}, {0, 1, 0}}
	m := New("poly", quad, pent)

	tri := m.Triangulate()
	if tri.FaceCount() != 2+3 {
		t.Fatalf("face count = %d, want 5", tri.FaceCount())
	}
	for i, f := range tri.Faces {
		if !f.IsTriangle() {
			t.Errorf("face %d has %d vertices", i, len(f))
		}
		if f[0] != (Vertex{0, 0, 0}) {
			t.Errorf("face %d does not fan from vertex 0: %v", i, f[0])
		}
	}
	want := Face{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	if !reflect.DeepEqual(tri.Faces[1], want) {
		t.Errorf("second quad triangle = %v, want %v", tri.Faces[1], want)
	}
	if tri.Name != "poly" {
		t.Errorf("name = %q, want poly", tri.Name)
	}
}

func TestTriangulateIsPure(t *testing.T) {
	tri := Face{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m := New("t", tri)
	out := m.Triangulate()
	out.Faces[0][0] = Vertex{9, 9, 9}
	if m.Faces[0][0] != (Vertex{0, 0, 0}) {
		t.Fatal("Triangulate shares vertex storage with its input")
	}
}

func TestTriangulateIdempotent(t *testing.T) {
	m := New("mix",
		Face{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Face{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
		Face{{0, 0, 0}, {1, 0, 0}}, // dropped
	)
	once := m.Triangulate()
	twice := once.Triangulate()
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("triangulate not idempotent:\n once=%v\ntwice=%v", once.Faces, twice.Faces)
	}
	if once.FaceCount() != 3 {
		t.Errorf("face count = %d, want 3", once.FaceCount())
	}
}

func TestValidate(t *testing.T) {
	ok := New("ok", Face{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	short := New("short", Face{{0, 0, 0}, {1, 0, 0}})
	if err := short.Validate(); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("short face: err = %v, want ErrInvalidMesh", err)
	}

	nan := New("nan", Face{{math.NaN(), 0, 0}, {1, 0, 0}, {0, 1, 0}})
	if err := nan.Validate(); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("NaN vertex: err = %v, want ErrInvalidMesh", err)
	}
}

func TestBounds(t *testing.T) {
	if _, _, ok := New("empty").Bounds(); ok {
		t.Fatal("empty mesh should report no bounds")
	}
	m := New("b",
		Face{{-1, 2, 0}, {1, 0, 0}, {0, 1, 5}},
		Face{{0, -3, 0}, {4, 0, 0}, {0, 1, -2}},
	)
	min, max, ok := m.Bounds()
	if !ok {
		t.Fatal("bounds not ok")
	}
	if min != (Vertex{-1, -3, -2}) || max != (Vertex{4, 2, 5}) {
		t.Errorf("bounds = %v..%v", min, max)
	}
}

func TestTransforms(t *testing.T) {
	m := New("x", Face{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})

	moved := m.Translate(Vertex{1, 2, 3})
	if moved.Faces[0][0] != (Vertex{2, 2, 3}) {
		t.Errorf("translate = %v", moved.Faces[0][0])
	}
	if m.Faces[0][0] != (Vertex{1, 0, 0}) {
		t.Error("Translate mutated its input")
	}

	scaled := m.Scale(Vertex{2, 3, 4})
	if scaled.Faces[0][2] != (Vertex{0, 0, 4}) {
		t.Errorf("scale = %v", scaled.Faces[0][2])
	}

	rot := m.Rotate(Vertex{0, 0, 90})
	if got := rot.Faces[0][0]; !near(got, Vertex{0, 1, 0}) {
		t.Errorf("rotate z 90 of +x = %v, want +y", got)
	}
	if got := RotateEuler(Vertex{0, 1, 0}, Vertex{90, 0, 0}); !near(got, Vertex{0, 0, 1}) {
		t.Errorf("rotate x 90 of +y = %v, want +z", got)
	}
	if got := RotateEuler(Vertex{0, 0, 1}, Vertex{0, 90, 0}); !near(got, Vertex{1, 0, 0}) {
		t.Errorf("rotate y 90 of +z = %v, want +x", got)
	}
}

func TestMerge(t *testing.T) {
	a := New("a", Face{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	b := New("b", Face{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}}, Face{{0, 0, 2}, {1, 0, 2}, {0, 1, 2}})
	m := Merge("ab", a, nil, b)
	if m.FaceCount() != 3 {
		t.Fatalf("merged face count = %d, want 3", m.FaceCount())
	}
	if m.Faces[1][0].Z != 1 {
		t.Errorf("merge did not preserve order: %v", m.Faces[1])
	}
}

func TestBoxOutwardNormals(t *testing.T) {
	b := Box("cube", Vertex{0, 0, 0}, Vertex{1, 1, 1})
	if b.FaceCount() != 12 {
		t.Fatalf("box face count = %d, want 12", b.FaceCount())
	}
	center := Vertex{0.5, 0.5, 0.5}
	for i, f := range b.Faces {
		out := f.Centroid().Sub(center)
		if f.Normal().Dot(out) <= 0 {
			t.Errorf("face %d normal %v points inward", i, f.Normal())
		}
	}
}
