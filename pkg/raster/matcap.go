package raster

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	// Matcap decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/gg"

	"github.com/chazu/templux/pkg/mesh"
)

// Matcap is a read-only material capture image. A unit normal n is looked
// up at
//
//	u = width  * (n.X + 1) / 2
//	v = height * (1 - n.Z) / 2
//
// truncated to integers, with values at or past the far edge clamped to the
// last row or column.
type Matcap struct {
	img    image.Image
	bounds image.Rectangle
}

// NewMatcap wraps an image. Empty images are rejected.
func NewMatcap(img image.Image) (*Matcap, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("raster: matcap image is empty")
	}
	return &Matcap{img: img, bounds: img.Bounds()}, nil
}

// DecodeMatcap decodes a PNG, JPEG, GIF, BMP, TIFF or WebP matcap.
func DecodeMatcap(r io.Reader) (*Matcap, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("raster: decode matcap: %w", err)
	}
	Logger().Debug("matcap decoded", "format", format, "bounds", img.Bounds().String())
	return NewMatcap(img)
}

// LoadMatcap reads and decodes the matcap image at path.
func LoadMatcap(path string) (*Matcap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: %w", err)
	}
	defer f.Close()
	m, err := DecodeMatcap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Size returns the image dimensions.
func (m *Matcap) Size() (w, h int) {
	return m.bounds.Dx(), m.bounds.Dy()
}

// Image returns the underlying image.
func (m *Matcap) Image() image.Image {
	return m.img
}

// Coord returns the pixel coordinate for a face normal. The normal need
// not be unit length. A zero or non-finite normal yields a
// *DegenerateGeometryError; a negative coordinate yields a
// *LookupOutOfRangeError.
func (m *Matcap) Coord(normal mesh.Vertex) (u, v int, err error) {
	l := normal.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return 0, 0, &DegenerateGeometryError{Normal: normal}
	}
	n := normal.Scale(1 / l)
	return m.index(n.X, n.Z)
}

// index maps unit-normal components to a pixel coordinate.
func (m *Matcap) index(nx, nz float64) (int, int, error) {
	w, h := m.Size()
	uf := float64(w) * (nx + 1) / 2
	vf := float64(h) * (1 - nz) / 2
	if uf >= float64(w) {
		uf = float64(w - 1)
	}
	if vf >= float64(h) {
		vf = float64(h - 1)
	}
	if math.IsNaN(uf) || math.IsNaN(vf) || uf <= -1 || vf <= -1 {
		return 0, 0, &LookupOutOfRangeError{U: uf, V: vf, Width: w, Height: h}
	}
	// Truncation towards zero maps (-1, 0) onto the first column.
	return int(uf), int(vf), nil
}

// Lookup returns the matcap color for a face normal.
func (m *Matcap) Lookup(normal mesh.Vertex) (color.Color, error) {
	u, v, err := m.Coord(normal)
	if err != nil {
		return nil, err
	}
	return m.img.At(m.bounds.Min.X+u, m.bounds.Min.Y+v), nil
}

// clay is the base albedo of DefaultMatcap.
var clay = [3]float64{0.80, 0.62, 0.52}

// DefaultMatcap builds a size x size clay matcap lit from the upper left.
// It is used when no matcap image is configured.
func DefaultMatcap(size int) *Matcap {
	if size < 1 {
		size = 1
	}
	pm := gg.NewPixmap(size, size)
	light := mesh.Vertex{X: -0.4, Y: 0.7, Z: 0.6}.Normalize()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			// Invert the lookup: column gives n.X, row gives n.Z and the
			// remaining component faces the viewer.
			nx := (float64(x)+0.5)/float64(size)*2 - 1
			nz := 1 - (float64(y)+0.5)/float64(size)*2
			n := mesh.Vertex{X: nx, Z: nz}
			if r2 := nx*nx + nz*nz; r2 < 1 {
				n.Y = math.Sqrt(1 - r2)
			} else {
				n = n.Normalize()
			}
			diff := math.Max(0, n.Dot(light))
			specular := math.Pow(diff, 24) * 0.35
			k := 0.22 + 0.78*diff
			pm.SetPixel(x, y, gg.RGB(
				math.Min(1, clay[0]*k+specular),
				math.Min(1, clay[1]*k+specular),
				math.Min(1, clay[2]*k+specular),
			))
		}
	}
	m, _ := NewMatcap(pm)
	return m
}
