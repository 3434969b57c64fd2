package contour

import (
	"math"

	"github.com/piwi3910/StickerImposer/internal/geom"
)

// Edge directions on the cell-corner lattice, y pointing down. Adding one
// is a right turn.
const (
	dirRight = iota
	dirDown
	dirLeft
	dirUp
)

var dirDelta = [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// edgeGraph maps a lattice vertex to the set of directions of its outgoing
// boundary edges (bit d set for direction d).
type edgeGraph struct {
	cols  int // lattice width, mask width + 1
	edges map[int]uint8
}

func (g *edgeGraph) vertex(x, y int) int { return y*g.cols + x }

func (g *edgeGraph) add(x, y, dir int) {
	g.edges[g.vertex(x, y)] |= 1 << dir
}

// buildEdges emits one directed unit edge for every side of an opaque cell
// whose neighbor across that side is transparent. Edges run clockwise
// around opaque regions (on screen), counter-clockwise around holes.
func buildEdges(m *Mask) *edgeGraph {
	g := &edgeGraph{cols: m.W + 1, edges: make(map[int]uint8)}
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if !m.At(x, y) {
				continue
			}
			if !m.At(x, y-1) {
				g.add(x, y, dirRight)
			}
			if !m.At(x+1, y) {
				g.add(x+1, y, dirDown)
			}
			if !m.At(x, y+1) {
				g.add(x+1, y+1, dirLeft)
			}
			if !m.At(x-1, y) {
				g.add(x, y+1, dirUp)
			}
		}
	}
	return g
}

// next picks the outgoing edge at v after arriving along dir. Right turns
// win over going straight, which wins over left turns, so regions touching
// only at a corner are traced as separate loops.
func (g *edgeGraph) next(v, dir int) (int, bool) {
	out := g.edges[v]
	for _, d := range [3]int{(dir + 1) % 4, dir, (dir + 3) % 4} {
		if out&(1<<d) != 0 {
			return d, true
		}
	}
	return 0, false
}

// traceLoops follows the edge graph tip to tail and returns every closed
// loop as its corner vertices. ok is false when the walk exceeds the step
// budget, which only happens on a malformed graph.
func traceLoops(m *Mask) (loops []geom.Polyline, ok bool) {
	g := buildEdges(m)
	if len(g.edges) == 0 {
		return nil, true
	}

	limit := 4*m.W*m.H + 4
	steps := 0
	visited := make(map[int]uint8, len(g.edges))

	// Scan vertices in lattice order so the result is deterministic.
	for v := 0; v < g.cols*(m.H+1); v++ {
		out := g.edges[v]
		if out == 0 {
			continue
		}
		for d := 0; d < 4; d++ {
			if out&(1<<d) == 0 || visited[v]&(1<<d) != 0 {
				continue
			}

			var loop geom.Polyline
			cur, dir := v, d
			for {
				if steps++; steps > limit {
					return nil, false
				}
				visited[cur] |= 1 << dir
				nx := cur%g.cols + dirDelta[dir][0]
				ny := cur/g.cols + dirDelta[dir][1]
				nv := g.vertex(nx, ny)
				nd, found := g.next(nv, dir)
				if !found {
					return nil, false
				}
				if nd != dir {
					loop = append(loop, geom.Point{X: float64(nx), Y: float64(ny)})
				}
				if nv == v && nd == d {
					break
				}
				cur, dir = nv, nd
			}
			loops = append(loops, loop)
		}
	}
	return loops, true
}

// largestLoop returns the loop with the largest absolute signed area. Ties
// keep the first loop found.
func largestLoop(loops []geom.Polyline) geom.Polyline {
	var best geom.Polyline
	bestArea := 0.0
	for _, l := range loops {
		a := math.Abs(geom.SignedArea(l))
		if a > bestArea {
			best, bestArea = l, a
		}
	}
	return best
}
