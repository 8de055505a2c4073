package stl

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/templux/pkg/mesh"
)

// maxLineSize bounds a single ASCII line.
const maxLineSize = 1 << 20

// ParseASCII parses an ASCII STL stream. The first non-blank line must start
// with "solid"; the rest of that line becomes the mesh name. Every
// "vertex x y z" line adds a vertex to the open loop and every "endloop"
// line closes it into a face. Other keywords (facet normal, outer loop,
// endfacet, endsolid) are accepted and ignored.
//
// Loops must hold exactly three vertices unless WithPolygons is given, in
// which case any loop with at least three vertices is kept.
func ParseASCII(r io.Reader, opts ...Option) (*mesh.Mesh, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	m := &mesh.Mesh{}
	var (
		lineNo  int
		started bool
		pending mesh.Face
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if !started {
			if line == "" {
				continue
			}
			if !strings.HasPrefix(line, "solid") {
				return nil, &FormatError{Line: lineNo, Msg: `first line does not start with "solid"`}
			}
			m.Name = strings.TrimSpace(strings.TrimPrefix(line, "solid"))
			started = true
			continue
		}

		switch {
		case strings.HasPrefix(line, "vertex"):
			v, err := parseVertex(strings.TrimPrefix(line, "vertex"))
			if err != nil {
				return nil, &FormatError{Line: lineNo, Msg: err.Error()}
			}
			pending = append(pending, v)

		case strings.HasPrefix(line, "endloop"):
			if err := checkLoop(len(pending), o.polygons); err != nil {
				return nil, &FormatError{Line: lineNo, Msg: err.Error()}
			}
			m.Faces = append(m.Faces, pending)
			pending = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &FormatError{Line: lineNo + 1, Msg: err.Error()}
	}
	if !started {
		return nil, &FormatError{Msg: "empty input"}
	}
	if len(pending) > 0 {
		return nil, &FormatError{Line: lineNo, Msg: fmt.Sprintf("%d vertices after the last endloop", len(pending))}
	}
	return m, nil
}

func checkLoop(n int, polygons bool) error {
	if n == 3 || (polygons && n > 3) {
		return nil
	}
	return fmt.Errorf("loop has %d vertices, want 3", n)
}

// parseVertex parses the three whitespace separated coordinates that follow
// the vertex keyword. NaN and infinities are rejected.
func parseVertex(s string) (mesh.Vertex, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return mesh.Vertex{}, fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields))
	}
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return mesh.Vertex{}, fmt.Errorf("bad coordinate %q", f)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mesh.Vertex{}, fmt.Errorf("non-finite coordinate %q", f)
		}
		c[i] = v
	}
	return mesh.Vertex{X: c[0], Y: c[1], Z: c[2]}, nil
}

// WriteASCII writes m as ASCII STL under the given solid name. Each facet
// carries the unit normal of its triangle. No endsolid line is written; the
// reader only needs the opening solid token. Coordinates are printed with
// the shortest representation that parses back to the same float64.
func WriteASCII(w io.Writer, m *mesh.Mesh, name string) error {
	if err := checkTriangles(m); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, f := range m.Faces {
		n := f.Normal().Normalize()
		fmt.Fprintf(bw, "  facet normal %s\n", formatTriple(n))
		bw.WriteString("    outer loop\n")
		for _, v := range f {
			fmt.Fprintf(bw, "      vertex %s\n", formatTriple(v))
		}
		bw.WriteString("    endloop\n")
		bw.WriteString("  endfacet\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("stl: write: %w", err)
	}
	return nil
}

func formatTriple(v mesh.Vertex) string {
	return formatFloat(v.X) + " " + formatFloat(v.Y) + " " + formatFloat(v.Z)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'e', -1, 64)
}
