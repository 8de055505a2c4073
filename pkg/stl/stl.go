// Package stl reads and writes STL triangle meshes in both the ASCII and the
// little-endian binary flavor. Parsing either succeeds completely or fails
// with a *FormatError; no partial mesh is ever returned.
package stl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/templux/pkg/mesh"
)

// ErrFormat is matched by errors.Is for every *FormatError.
var ErrFormat = errors.New("stl: malformed input")

// ErrNotTriangulated is returned when serializing a mesh that still holds
// faces with more or fewer than three vertices.
var ErrNotTriangulated = errors.New("stl: mesh is not triangulated")

// FormatError describes malformed STL input. Line is set for ASCII input,
// Offset for binary input; the other one is zero.
type FormatError struct {
	Line   int
	Offset int64
	Msg    string
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("stl: line %d: %s", e.Line, e.Msg)
	case e.Offset > 0:
		return fmt.Sprintf("stl: offset %d: %s", e.Offset, e.Msg)
	}
	return "stl: " + e.Msg
}

// Is makes errors.Is(err, ErrFormat) true for any *FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Format selects the on-disk STL flavor.
type Format int

const (
	Binary Format = iota
	ASCII
)

func (f Format) String() string {
	switch f {
	case Binary:
		return "binary"
	case ASCII:
		return "ascii"
	default:
		return "unknown"
	}
}

// ParseFormat maps "binary" / "ascii" to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "binary", "bin":
		return Binary, nil
	case "ascii", "text":
		return ASCII, nil
	}
	return 0, fmt.Errorf("stl: unknown format %q, expected binary or ascii", s)
}

type options struct {
	polygons bool
}

// Option configures parsing.
type Option func(*options)

// WithPolygons accepts ASCII loops with more than three vertices instead of
// rejecting them. The resulting faces must be triangulated by the caller.
func WithPolygons() Option {
	return func(o *options) { o.polygons = true }
}

// le is the byte order of every binary STL field.
var le = binary.LittleEndian

// Read parses an STL stream of either flavor. A stream whose size matches
// the binary layout exactly is parsed as binary even if its header starts
// with "solid", which many exporters write.
func Read(r io.Reader, opts ...Option) (*mesh.Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("stl: read: %w", err)
	}
	return Parse(data, opts...)
}

// Parse is Read for an in-memory buffer.
func Parse(data []byte, opts ...Option) (*mesh.Mesh, error) {
	if DetectFormat(data) == ASCII {
		return ParseASCII(bytes.NewReader(data), opts...)
	}
	return ParseBinary(data)
}

// DetectFormat guesses the flavor of an STL buffer.
func DetectFormat(data []byte) Format {
	if len(data) >= headerSize+countSize {
		n := uint64(le.Uint32(data[headerSize:]))
		if uint64(len(data)) == binarySize(n) {
			return Binary
		}
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return ASCII
	}
	return Binary
}

// ReadFile parses the STL file at path.
func ReadFile(path string, opts ...Option) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stl: %w", err)
	}
	m, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile writes m to path in the requested format. The mesh name is used
// as the ASCII solid name and as the binary header.
func WriteFile(path string, m *mesh.Mesh, f Format) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stl: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("stl: %w", cerr)
		}
	}()

	switch f {
	case ASCII:
		return WriteASCII(file, m, m.Name)
	default:
		return WriteBinary(file, m, m.Name)
	}
}

// checkTriangles rejects meshes that cannot be written as STL facets.
func checkTriangles(m *mesh.Mesh) error {
	for i, f := range m.Faces {
		if !f.IsTriangle() {
			return fmt.Errorf("face %d has %d vertices: %w", i, len(f), ErrNotTriangulated)
		}
	}
	return nil
}
