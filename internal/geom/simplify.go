package geom

import "math"

// Simplify runs Douglas-Peucker over a closed loop. The loop is treated as an
// open path from the first point back to a duplicate of itself; the duplicate
// is dropped from the result. If the simplified loop has 3 points or fewer the
// input is returned unchanged (as a copy).
func Simplify(pts Polyline, epsilon float64) Polyline {
	if len(pts) <= 3 {
		return append(Polyline(nil), pts...)
	}

	path := make(Polyline, len(pts)+1)
	copy(path, pts)
	path[len(pts)] = pts[0]

	keep := make([]bool, len(path))
	keep[0] = true
	keep[len(path)-1] = true

	// Explicit stack of [first, last] index ranges.
	stack := [][2]int{{0, len(path) - 1}}
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		first, last := seg[0], seg[1]
		if last-first < 2 {
			continue
		}

		maxDist := -1.0
		index := -1
		for i := first + 1; i < last; i++ {
			d := PerpendicularDistance(path[i], path[first], path[last])
			if d > maxDist {
				maxDist = d
				index = i
			}
		}
		if maxDist > epsilon {
			keep[index] = true
			stack = append(stack, [2]int{index, last}, [2]int{first, index})
		}
	}

	out := make(Polyline, 0, len(pts))
	for i := 0; i < len(path)-1; i++ {
		if keep[i] {
			out = append(out, path[i])
		}
	}
	if len(out) <= 3 {
		return append(Polyline(nil), pts...)
	}
	return out
}

// Chaikin performs one iteration of corner cutting on a closed loop. Every
// edge p->q is replaced by the points at 1/4 and 3/4 along it.
func Chaikin(pts Polyline) Polyline {
	n := len(pts)
	if n < 3 {
		return append(Polyline(nil), pts...)
	}
	out := make(Polyline, 0, n*2)
	for i := 0; i < n; i++ {
		p := pts[i]
		q := pts[(i+1)%n]
		out = append(out,
			Point{X: 0.75*p.X + 0.25*q.X, Y: 0.75*p.Y + 0.25*q.Y},
			Point{X: 0.25*p.X + 0.75*q.X, Y: 0.25*p.Y + 0.75*q.Y},
		)
	}
	return out
}

// Resample keeps every stride-th point so that the result holds at most
// maxPoints points. Loops already within budget are returned as a copy.
func Resample(pts Polyline, maxPoints int) Polyline {
	if maxPoints <= 0 || len(pts) <= maxPoints {
		return append(Polyline(nil), pts...)
	}
	stride := int(math.Ceil(float64(len(pts)) / float64(maxPoints)))
	out := make(Polyline, 0, maxPoints)
	for i := 0; i < len(pts); i += stride {
		out = append(out, pts[i])
	}
	return out
}
