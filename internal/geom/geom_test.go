package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staircase builds a closed loop around a w x h box where every edge is
// broken into unit steps, like a raster trace.
func staircase(w, h int) Polyline {
	var pts Polyline
	for x := 0; x < w; x++ {
		pts = append(pts, Point{X: float64(x), Y: 0})
	}
	for y := 0; y < h; y++ {
		pts = append(pts, Point{X: float64(w), Y: float64(y)})
	}
	for x := w; x > 0; x-- {
		pts = append(pts, Point{X: float64(x), Y: float64(h)})
	}
	for y := h; y > 0; y-- {
		pts = append(pts, Point{X: 0, Y: float64(y)})
	}
	return pts
}

func TestSignedArea_Square(t *testing.T) {
	sq := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.InDelta(t, 100.0, SignedArea(sq), 1e-9)

	reversed := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	assert.InDelta(t, -100.0, SignedArea(reversed), 1e-9)
	assert.Equal(t, 0.0, SignedArea(sq[:2]))
}

func TestPerpendicularDistance(t *testing.T) {
	assert.InDelta(t, 5.0, PerpendicularDistance(Point{5, 5}, Point{0, 0}, Point{10, 0}), 1e-9)
	// Degenerate chord falls back to point distance.
	assert.InDelta(t, 5.0, PerpendicularDistance(Point{3, 4}, Point{0, 0}, Point{0, 0}), 1e-9)
}

func TestBounds(t *testing.T) {
	p := Polyline{{3, 4}, {-1, 9}, {7, 2}}
	min, max := p.Bounds()
	assert.Equal(t, Point{-1, 2}, min)
	assert.Equal(t, Point{7, 9}, max)

	min, max = Polyline{}.Bounds()
	assert.Equal(t, Point{}, min)
	assert.Equal(t, Point{}, max)
}

func TestSimplify_RemovesCollinearStaircase(t *testing.T) {
	loop := staircase(20, 10)
	out := Simplify(loop, 0.5)

	assert.Len(t, out, 4)
	min, max := out.Bounds()
	assert.Equal(t, Point{0, 0}, min)
	assert.Equal(t, Point{20, 10}, max)
}

func TestSimplify_Idempotent(t *testing.T) {
	var loop Polyline
	for i := 0; i < 90; i++ {
		a := float64(i) / 90 * 2 * math.Pi
		r := 100 + 15*math.Sin(5*a)
		loop = append(loop, Point{X: 500 + r*math.Cos(a), Y: 500 + r*math.Sin(a)})
	}
	once := Simplify(loop, 3)
	twice := Simplify(once, 3)
	assert.True(t, once.Equal(twice))
	assert.Less(t, len(once), len(loop))
}

func TestSimplify_SafetyFloor(t *testing.T) {
	// A thin sliver collapses to fewer than four points, so the input is kept.
	loop := Polyline{{0, 0}, {5, 0.1}, {10, 0}, {5, -0.1}}
	out := Simplify(loop, 1)
	assert.True(t, out.Equal(loop))

	tri := Polyline{{0, 0}, {1, 0}, {0, 1}}
	assert.True(t, Simplify(tri, 10).Equal(tri))
}

func TestChaikin_QuarterPoints(t *testing.T) {
	sq := Polyline{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	out := Chaikin(sq)

	require.Len(t, out, 8)
	assert.Equal(t, Point{1, 0}, out[0])
	assert.Equal(t, Point{3, 0}, out[1])
	assert.Equal(t, Point{4, 1}, out[2])
	assert.Equal(t, Point{0, 1}, out[7])
}

func TestResample_BoundsPointCount(t *testing.T) {
	loop := staircase(100, 100)
	out := Resample(loop, 50)
	assert.LessOrEqual(t, len(out), 50)
	assert.Equal(t, loop[0], out[0])

	small := Polyline{{0, 0}, {1, 0}, {1, 1}}
	assert.True(t, Resample(small, 50).Equal(small))
}
