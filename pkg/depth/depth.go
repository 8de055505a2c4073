// Package depth orders faces back to front for painter's-algorithm
// rendering. Two strategies implement Orderer:
//
//   - Heuristic: insertion by centroid, comparing one world axis at a time
//     in the priority z, x, y. O(n²) in the worst case, and wrong for
//     overlapping faces seen from oblique angles.
//   - ViewDepth: a stable sort of centroids by their distance along the
//     exact view direction.
//
// Neither splits faces, so cyclic overlaps can never be drawn correctly.
package depth

import (
	"math"
	"sort"

	"github.com/chazu/templux/pkg/camera"
	"github.com/chazu/templux/pkg/mesh"
)

// CameraDistance is how far from the origin the heuristic places the
// camera along its viewing axis. Only the sign of each component matters.
const CameraDistance = 1000.0

// axisEpsilon is the smallest camera position component that takes part in
// a comparison.
const axisEpsilon = 1e-9

// Orderer returns faces sorted so that drawing them in order paints the
// nearest faces last. Implementations must not modify the input slice.
type Orderer interface {
	Order(cam camera.Camera, faces []mesh.Face) []mesh.Face
}

// OrdererFunc adapts a function to the Orderer interface.
type OrdererFunc func(cam camera.Camera, faces []mesh.Face) []mesh.Face

// Order calls f.
func (f OrdererFunc) Order(cam camera.Camera, faces []mesh.Face) []mesh.Face {
	return f(cam, faces)
}

// Default is the Orderer used when none is configured.
var Default Orderer = Heuristic{}

// BackToFront orders faces with the Default orderer.
func BackToFront(cam camera.Camera, faces []mesh.Face) []mesh.Face {
	return Default.Order(cam, faces)
}

// CameraPosition returns the point the heuristic treats as the eye:
// CameraDistance units behind the origin, against the view direction.
func CameraPosition(cam camera.Camera) mesh.Vertex {
	return cam.ViewDirection().Scale(-CameraDistance)
}

// Heuristic is the centroid insertion orderer.
type Heuristic struct{}

// Order inserts each face, in input order, before the first already placed
// face that is nearer to the camera. Faces whose centroids tie keep their
// input order.
func (Heuristic) Order(cam camera.Camera, faces []mesh.Face) []mesh.Face {
	eye := CameraPosition(cam)
	type entry struct {
		face     mesh.Face
		centroid mesh.Vertex
	}
	ordered := make([]entry, 0, len(faces))
	for _, f := range faces {
		e := entry{face: f, centroid: f.Centroid()}
		pos := len(ordered)
		for i, o := range ordered {
			if nearer(eye, o.centroid, e.centroid) {
				pos = i
				break
			}
		}
		ordered = append(ordered, entry{})
		copy(ordered[pos+1:], ordered[pos:])
		ordered[pos] = e
	}

	out := make([]mesh.Face, len(ordered))
	for i, e := range ordered {
		out[i] = e.face
	}
	return out
}

// nearer reports whether centroid b lies further along the camera direction
// (closer to eye) than centroid a. Axes are checked in the order z, x, y;
// an axis is skipped when the eye has no component along it, and the first
// participating axis on which the centroids differ decides.
func nearer(eye, b, a mesh.Vertex) bool {
	axes := [3][3]float64{
		{eye.Z, b.Z, a.Z},
		{eye.X, b.X, a.X},
		{eye.Y, b.Y, a.Y},
	}
	for _, ax := range axes {
		dir, bv, av := ax[0], ax[1], ax[2]
		if math.Abs(dir) <= axisEpsilon || bv == av {
			continue
		}
		if dir > 0 {
			return bv > av
		}
		return bv < av
	}
	return false
}

// ViewDepth orders faces by the distance of their centroid along the view
// direction, farthest first. Ties keep input order.
type ViewDepth struct{}

// Order implements Orderer.
func (ViewDepth) Order(cam camera.Camera, faces []mesh.Face) []mesh.Face {
	d := cam.ViewDirection()
	keys := make([]float64, len(faces))
	idx := make([]int, len(faces))
	for i, f := range faces {
		keys[i] = f.Centroid().Dot(d)
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return keys[idx[i]] > keys[idx[j]]
	})
	out := make([]mesh.Face, len(faces))
	for i, k := range idx {
		out[i] = faces[k]
	}
	return out
}

// ByName returns the orderer registered under name: "heuristic" or "depth".
func ByName(name string) (Orderer, bool) {
	switch name {
	case "", "heuristic":
		return Heuristic{}, true
	case "depth", "view":
		return ViewDepth{}, true
	}
	return nil, false
}
