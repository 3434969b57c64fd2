// Package geom holds the 2D primitives shared by the contour pipeline:
// points, closed polylines, distance and area math, and the simplification
// and smoothing passes applied to traced outlines.
package geom

import "math"

// Point is a 2D coordinate. Units depend on the caller (pixels, mm, or the
// normalized 0-1000 contour space).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polyline is an ordered sequence of points. When used as an outline it is
// implicitly closed: the last point connects back to the first.
type Polyline []Point

// Dist returns the euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// PerpendicularDistance returns the distance from p to the infinite line
// through a and b. When a and b coincide it degrades to the distance to a.
func PerpendicularDistance(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return Dist(p, a)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / length
}

// SignedArea computes the shoelace area of a closed loop. The sign depends on
// winding order and on the orientation of the y axis.
func SignedArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// Bounds returns the min and max corners of the polyline.
func (p Polyline) Bounds() (min, max Point) {
	if len(p) == 0 {
		return Point{}, Point{}
	}
	min, max = p[0], p[0]
	for _, pt := range p[1:] {
		if pt.X < min.X {
			min.X = pt.X
		}
		if pt.Y < min.Y {
			min.Y = pt.Y
		}
		if pt.X > max.X {
			max.X = pt.X
		}
		if pt.Y > max.Y {
			max.Y = pt.Y
		}
	}
	return min, max
}

// Scale maps every point with x' = x*sx + dx, y' = y*sy + dy.
func (p Polyline) Scale(sx, sy, dx, dy float64) Polyline {
	out := make(Polyline, len(p))
	for i, pt := range p {
		out[i] = Point{X: pt.X*sx + dx, Y: pt.Y*sy + dy}
	}
	return out
}

// Equal reports whether both polylines hold the same points in the same order.
func (p Polyline) Equal(o Polyline) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}
