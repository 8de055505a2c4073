// Package raster turns meshes into pixels. Wireframe strokes every triangle
// edge; Solid paints triangles back to front with a flat color taken from a
// matcap, so nearer faces overwrite farther ones. There is no depth buffer.
//
// Every call allocates a fresh transparent *gg.Pixmap sized to the camera
// and never mutates its camera or mesh inputs, so renders may run
// concurrently.
package raster

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/gogpu/gg"
	"github.com/samber/lo"

	"github.com/chazu/templux/pkg/camera"
	"github.com/chazu/templux/pkg/depth"
	"github.com/chazu/templux/pkg/mesh"
)

// DefaultThickness is the wireframe line width used when none is given.
const DefaultThickness = 2.0

// DefaultMatcapSize is the edge length of the generated fallback matcap.
const DefaultMatcapSize = 256

// Mode selects how Render draws.
type Mode int

const (
	Solid Mode = iota
	Wireframe
)

func (m Mode) String() string {
	switch m {
	case Solid:
		return "solid"
	case Wireframe:
		return "wireframe"
	default:
		return "unknown"
	}
}

// ParseMode maps "solid" / "wire" / "wireframe" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "solid", "":
		return Solid, nil
	case "wire", "wireframe":
		return Wireframe, nil
	}
	return 0, fmt.Errorf("raster: unknown mode %q, expected solid or wireframe", s)
}

// Style bundles everything Render needs besides the camera and meshes.
type Style struct {
	Mode Mode
	// Color and Thickness apply to Wireframe.
	Color     color.Color
	Thickness float64
	// Matcap applies to Solid; nil falls back to DefaultMatcap.
	Matcap *Matcap
}

// Renderer draws meshes. The zero value is not usable; call New.
type Renderer struct {
	orderer    depth.Orderer
	background color.Color
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithOrderer replaces the face ordering strategy used by Solid.
func WithOrderer(o depth.Orderer) Option {
	return func(r *Renderer) {
		if o != nil {
			r.orderer = o
		}
	}
}

// WithBackground fills every new buffer with c before drawing. Without it
// buffers start fully transparent.
func WithBackground(c color.Color) Option {
	return func(r *Renderer) { r.background = c }
}

// New returns a renderer using the heuristic depth order and a transparent
// background unless options say otherwise.
func New(opts ...Option) *Renderer {
	r := &Renderer{orderer: depth.Default}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render dispatches on style.Mode. It has the shape a preview window needs:
// camera in, pixel buffer out.
func (r *Renderer) Render(cam camera.Camera, meshes []*mesh.Mesh, style Style) (*gg.Pixmap, error) {
	switch style.Mode {
	case Wireframe:
		col := style.Color
		if col == nil {
			col = color.White
		}
		return r.Wireframe(cam, meshes, col, style.Thickness)
	default:
		mc := style.Matcap
		if mc == nil {
			mc = DefaultMatcap(DefaultMatcapSize)
		}
		return r.Solid(cam, meshes, mc)
	}
}

// Wireframe draws the three edges of every triangle in col. Faces are drawn
// in input order without depth sorting. A thickness <= 0 selects
// DefaultThickness.
func (r *Renderer) Wireframe(cam camera.Camera, meshes []*mesh.Mesh, col color.Color, thickness float64) (*gg.Pixmap, error) {
	if err := cam.Validate(); err != nil {
		return nil, fmt.Errorf("raster: %w", err)
	}
	if thickness <= 0 {
		thickness = DefaultThickness
	}

	pm, dc := r.surface(cam)
	defer dc.Close()
	dc.SetColor(col)
	dc.SetLineWidth(thickness)

	faces := collectFaces(meshes)
	for i, f := range faces {
		x0, y0 := cam.Screen(f[0])
		x1, y1 := cam.Screen(f[1])
		x2, y2 := cam.Screen(f[2])
		dc.DrawLine(x0, y0, x1, y1)
		dc.DrawLine(x0, y0, x2, y2)
		dc.DrawLine(x1, y1, x2, y2)
		if err := dc.Stroke(); err != nil {
			return nil, fmt.Errorf("raster: stroke face %d: %w", i, err)
		}
	}
	Logger().Debug("wireframe rendered", "faces", len(faces), "camera", cam.String())
	return pm, nil
}

// Solid paints every triangle, farthest first, in the matcap color for its
// normal. A pixel belongs to a triangle when its centre does, so faces
// sharing an edge leave no gap. Degenerate faces (zero-length normal) cover
// no pixels and are skipped. A matcap lookup outside the image aborts the
// render.
func (r *Renderer) Solid(cam camera.Camera, meshes []*mesh.Mesh, mc *Matcap) (*gg.Pixmap, error) {
	if err := cam.Validate(); err != nil {
		return nil, fmt.Errorf("raster: %w", err)
	}
	if mc == nil {
		return nil, ErrNoMatcap
	}

	pm := r.pixmap(cam)
	faces := r.orderer.Order(cam, collectFaces(meshes))
	skipped := 0
	for i, f := range faces {
		col, err := mc.Lookup(f.Normal())
		if err != nil {
			var dg *DegenerateGeometryError
			if errors.As(err, &dg) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("raster: face %d: %w", i, err)
		}

		fillTriangle(pm, screen(cam, f[0]), screen(cam, f[1]), screen(cam, f[2]), gg.FromColor(col))
	}
	if skipped > 0 {
		Logger().Warn("degenerate faces skipped", "count", skipped)
	}
	Logger().Debug("solid rendered", "faces", len(faces)-skipped, "skipped", skipped, "camera", cam.String())
	return pm, nil
}

// pixmap allocates the output buffer, cleared to the background.
func (r *Renderer) pixmap(cam camera.Camera) *gg.Pixmap {
	pm := gg.NewPixmap(cam.Width, cam.Height)
	if r.background != nil {
		pm.Clear(gg.FromColor(r.background))
	}
	return pm
}

// surface allocates the output buffer and a drawing context bound to it.
func (r *Renderer) surface(cam camera.Camera) (*gg.Pixmap, *gg.Context) {
	pm := r.pixmap(cam)
	return pm, gg.NewContextForPixmap(pm)
}

func screen(cam camera.Camera, v mesh.Vertex) point {
	x, y := cam.Screen(v)
	return point{x, y}
}

// collectFaces flattens all meshes into one triangle list. Polygons are
// fan-triangulated and faces with fewer than three vertices are dropped.
func collectFaces(meshes []*mesh.Mesh) []mesh.Face {
	return lo.FlatMap(meshes, func(m *mesh.Mesh, _ int) []mesh.Face {
		if m == nil {
			return nil
		}
		if lo.EveryBy(m.Faces, mesh.Face.IsTriangle) {
			return m.Faces
		}
		return m.Triangulate().Faces
	})
}

// RenderWireframe draws meshes as wireframe with a default Renderer.
func RenderWireframe(cam camera.Camera, meshes []*mesh.Mesh, col color.Color, thickness float64) (*gg.Pixmap, error) {
	return New().Wireframe(cam, meshes, col, thickness)
}

// RenderSolid draws meshes with a matcap using a default Renderer.
func RenderSolid(cam camera.Camera, meshes []*mesh.Mesh, mc *Matcap) (*gg.Pixmap, error) {
	return New().Solid(cam, meshes, mc)
}
