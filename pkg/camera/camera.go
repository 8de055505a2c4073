// Package camera describes the orthographic viewpoint used by the renderer
// and maps world points to camera space and then to pixel coordinates.
//
// A Camera is a plain value: the renderer never mutates it, and callers
// build a new one per frame.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/templux/pkg/mesh"
)

// DefaultSize is the world-space width mapped onto the output width when no
// zoom is given.
const DefaultSize = 5.0

// Orientation holds the two viewing angles in degrees. Pitch tilts the view
// towards the Z axis, Yaw turns it around Z.
type Orientation struct {
	Pitch float64
	Yaw   float64
}

// Camera is an orthographic camera.
type Camera struct {
	Width, Height int
	// Size is the world-space width shown across Width pixels.
	Size        float64
	Orientation Orientation
}

// ErrInvalidCamera is wrapped by every validation failure.
var ErrInvalidCamera = errors.New("invalid camera")

// New returns a validated camera.
func New(width, height int, size float64, o Orientation) (Camera, error) {
	c := Camera{Width: width, Height: height, Size: size, Orientation: o}
	if err := c.Validate(); err != nil {
		return Camera{}, err
	}
	return c, nil
}

// MustNew is New that panics on invalid input. Intended for tests and
// constants.
func MustNew(width, height int, size float64, o Orientation) Camera {
	c, err := New(width, height, size, o)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate reports whether the camera can be rendered with.
func (c Camera) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("camera: resolution %dx%d: %w", c.Width, c.Height, ErrInvalidCamera)
	}
	if !(c.Size > 0) || math.IsInf(c.Size, 0) {
		return fmt.Errorf("camera: size %v: %w", c.Size, ErrInvalidCamera)
	}
	for _, a := range []float64{c.Orientation.Pitch, c.Orientation.Yaw} {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf("camera: angle %v: %w", a, ErrInvalidCamera)
		}
	}
	return nil
}

// Rotated returns a copy turned by the given angle deltas in degrees.
func (c Camera) Rotated(dPitch, dYaw float64) Camera {
	c.Orientation.Pitch += dPitch
	c.Orientation.Yaw += dYaw
	return c
}

// WithOrientation returns a copy looking from o.
func (c Camera) WithOrientation(o Orientation) Camera {
	c.Orientation = o
	return c
}

// WithSize returns a copy with a different zoom.
func (c Camera) WithSize(size float64) Camera {
	c.Size = size
	return c
}

// WithResolution returns a copy rendering at w x h pixels.
func (c Camera) WithResolution(w, h int) Camera {
	c.Width, c.Height = w, h
	return c
}

func (c Camera) angles() (sinP, cosP, sinY, cosY float64) {
	sinP, cosP = math.Sincos(c.Orientation.Pitch * math.Pi / 180)
	sinY, cosY = math.Sincos(c.Orientation.Yaw * math.Pi / 180)
	return sinP, cosP, sinY, cosY
}

// Project maps a world point into 2D camera space. There is no perspective
// division. The screen axes are
//
//	X = ( cos yaw,           sin yaw,           0        )
//	Y = (-sin yaw·cos pitch, cos yaw·cos pitch, sin pitch)
//
// so at zero angles camera space is the world XY plane. The historical
// variant that negated the Y-axis world-y term is not supported.
func (c Camera) Project(v mesh.Vertex) (x, y float64) {
	sinP, cosP, sinY, cosY := c.angles()
	x = cosY*v.X + sinY*v.Y
	y = -sinY*cosP*v.X + cosY*cosP*v.Y + sinP*v.Z
	return x, y
}

// ToScreen maps camera-space coordinates to pixels. Both axes scale by the
// output width so world units stay square; the origin lands at the centre.
func (c Camera) ToScreen(x, y float64) (px, py float64) {
	w := float64(c.Width)
	px = x/c.Size*w + w/2
	py = y/c.Size*w + float64(c.Height)/2
	return px, py
}

// Screen projects v and maps it to pixels in one step.
func (c Camera) Screen(v mesh.Vertex) (px, py float64) {
	return c.ToScreen(c.Project(v))
}

// ViewDirection returns the unit vector pointing from the camera into the
// scene: the cross product of the X and Y screen axes used by Project.
func (c Camera) ViewDirection() mesh.Vertex {
	sinP, cosP, sinY, cosY := c.angles()
	return mesh.Vertex{X: sinY * sinP, Y: -cosY * sinP, Z: cosP}
}

// Depth returns the distance of v along the view direction. Larger values
// are further from the viewer.
func (c Camera) Depth(v mesh.Vertex) float64 {
	return v.Dot(c.ViewDirection())
}

func (c Camera) String() string {
	return fmt.Sprintf("camera %dx%d size=%g pitch=%g yaw=%g",
		c.Width, c.Height, c.Size, c.Orientation.Pitch, c.Orientation.Yaw)
}
