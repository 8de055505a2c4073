package raster

import (
	"errors"
	"fmt"

	"github.com/chazu/templux/pkg/mesh"
)

// ErrNoMatcap is returned by Solid when no matcap image is supplied.
var ErrNoMatcap = errors.New("raster: no matcap image")

// DegenerateGeometryError reports a face whose normal has zero or
// non-finite length, so it has no direction to shade by.
type DegenerateGeometryError struct {
	Normal mesh.Vertex
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("raster: degenerate face, normal %v has no direction", e.Normal)
}

// LookupOutOfRangeError reports a matcap coordinate below zero (or NaN).
// Coordinates past the far edge are clamped and never produce this error.
type LookupOutOfRangeError struct {
	U, V          float64
	Width, Height int
}

func (e *LookupOutOfRangeError) Error() string {
	return fmt.Sprintf("raster: matcap lookup (%g, %g) outside %dx%d image", e.U, e.V, e.Width, e.Height)
}
