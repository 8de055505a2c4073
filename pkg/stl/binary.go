package stl

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/chazu/templux/pkg/mesh"
)

// Binary layout sizes in bytes.
const (
	headerSize = 80
	countSize  = 4
	recordSize = 50 // normal (12) + 3 vertices (36) + attribute (2)
)

// binarySize returns the exact size of a binary STL holding n triangles.
func binarySize(n uint64) uint64 {
	return headerSize + countSize + recordSize*n
}

// ParseBinary parses a binary STL buffer: an opaque 80 byte header, a
// little-endian uint32 triangle count, then one 50 byte record per
// triangle. Stored normals and attribute bytes are skipped. Bytes past the
// last announced record are ignored.
func ParseBinary(data []byte) (*mesh.Mesh, error) {
	if len(data) < headerSize+countSize {
		return nil, &FormatError{Offset: int64(len(data)), Msg: "truncated header"}
	}
	n := uint64(le.Uint32(data[headerSize:]))
	if need := binarySize(n); uint64(len(data)) < need {
		got := (uint64(len(data)) - headerSize - countSize) / recordSize
		return nil, &FormatError{
			Offset: int64(len(data)),
			Msg:    fmt.Sprintf("truncated: header announces %d triangles, data holds %d", n, got),
		}
	}

	m := &mesh.Mesh{Faces: make([]mesh.Face, n)}
	off := headerSize + countSize
	for i := range m.Faces {
		rec := data[off : off+recordSize]
		f := make(mesh.Face, 3)
		for j := range f {
			base := 12 + j*12
			f[j] = mesh.Vertex{
				X: float64(readFloat32(rec[base:])),
				Y: float64(readFloat32(rec[base+4:])),
				Z: float64(readFloat32(rec[base+8:])),
			}
			if !finite(f[j]) {
				return nil, &FormatError{
					Offset: int64(off + base),
					Msg:    fmt.Sprintf("triangle %d vertex %d is not finite", i, j),
				}
			}
		}
		m.Faces[i] = f
		off += recordSize
	}
	return m, nil
}

func finite(v mesh.Vertex) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(le.Uint32(b))
}

// WriteBinary writes m as binary STL. The header is cut or right-padded
// with spaces to 80 bytes, and the two attribute bytes of every record are
// spaces as well.
func WriteBinary(w io.Writer, m *mesh.Mesh, header string) error {
	if err := checkTriangles(m); err != nil {
		return err
	}
	if uint64(len(m.Faces)) > math.MaxUint32 {
		return fmt.Errorf("stl: %d faces do not fit a binary STL", len(m.Faces))
	}

	bw := bufio.NewWriter(w)
	bw.Write(padHeader(header))

	var buf [recordSize]byte
	le.PutUint32(buf[:4], uint32(len(m.Faces)))
	bw.Write(buf[:4])

	for _, f := range m.Faces {
		putVertex(buf[0:], f.Normal().Normalize())
		for j, v := range f {
			putVertex(buf[12+j*12:], v)
		}
		buf[48], buf[49] = ' ', ' '
		bw.Write(buf[:])
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("stl: write: %w", err)
	}
	return nil
}

func padHeader(s string) []byte {
	h := make([]byte, headerSize)
	n := copy(h, s)
	for i := n; i < headerSize; i++ {
		h[i] = ' '
	}
	return h
}

func putVertex(b []byte, v mesh.Vertex) {
	le.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	le.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	le.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}
