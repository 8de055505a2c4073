package raster

import (
	"math"

	"github.com/gogpu/gg"
)

// point is a position in pixel space.
type point struct{ x, y float64 }

func (p point) less(q point) bool {
	return p.x < q.x || (p.x == q.x && p.y < q.y)
}

// edge is twice the signed area of (a, b, p). The endpoints are taken in a
// fixed order so edge(a, b, p) == -edge(b, a, p) exactly, which keeps two
// triangles sharing ab in agreement about every pixel centre on it.
func edge(a, b, p point) float64 {
	if b.less(a) {
		return -edge(b, a, p)
	}
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

// covers reports whether p is on the inner side of the directed edge ab.
// Points exactly on the edge go to one direction only.
func covers(a, b, p point) bool {
	w := edge(a, b, p)
	if w != 0 {
		return w > 0
	}
	dy := b.y - a.y
	return dy > 0 || (dy == 0 && b.x < a.x)
}

// fillTriangle sets every pixel whose centre lies inside abc to col.
// Coverage is all or nothing, so adjacent triangles tile without a seam and
// a later triangle fully replaces an earlier one where they overlap.
func fillTriangle(pm *gg.Pixmap, a, b, c point, col gg.RGBA) {
	area := edge(a, b, c)
	if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return
	}
	if area < 0 {
		b, c = c, b
	}

	minX, maxX, ok := span(min(a.x, b.x, c.x), max(a.x, b.x, c.x), pm.Width())
	if !ok {
		return
	}
	minY, maxY, ok := span(min(a.y, b.y, c.y), max(a.y, b.y, c.y), pm.Height())
	if !ok {
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := point{float64(x) + 0.5, float64(y) + 0.5}
			if covers(a, b, p) && covers(b, c, p) && covers(c, a, p) {
				pm.SetPixel(x, y, col)
			}
		}
	}
}

// span clips [lo, hi] to the pixel range [0, n) and reports whether any of
// it is left.
func span(lo, hi float64, n int) (int, int, bool) {
	if hi < 0 || lo > float64(n) {
		return 0, 0, false
	}
	return int(math.Max(0, math.Floor(lo))), int(math.Min(float64(n-1), math.Ceil(hi))), true
}
