// Package contour derives cut outlines from the opaque silhouette of a
// raster: alpha mask, dilation by the cut offset, boundary tracing, then
// simplification and smoothing into a normalized closed polyline.
package contour

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Mask is a binary opaque/transparent grid. Cells outside the grid read as
// transparent.
type Mask struct {
	W, H int
	bits []bool
}

// NewMask returns an all-transparent w x h mask.
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, bits: make([]bool, w*h)}
}

// At reports whether (x, y) is opaque.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.bits[y*m.W+x]
}

// Set marks (x, y). Out of range writes are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.bits[y*m.W+x] = v
}

// Fill marks the rectangle [x0, x1) x [y0, y1).
func (m *Mask) Fill(x0, y0, x1, y1 int, v bool) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y, v)
		}
	}
}

// Count returns the number of opaque cells.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// onBoundary reports whether an opaque cell has a transparent 4-neighbor.
func (m *Mask) onBoundary(x, y int) bool {
	return !m.At(x-1, y) || !m.At(x+1, y) || !m.At(x, y-1) || !m.At(x, y+1)
}

// Dilate grows the opaque region by radius cells using a circular kernel.
// The result is padded by radius on every side so nothing is clipped; a
// radius of 0 returns a copy.
func (m *Mask) Dilate(radius int) *Mask {
	if radius <= 0 {
		out := NewMask(m.W, m.H)
		copy(out.bits, m.bits)
		return out
	}

	var kernel []image.Point
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				kernel = append(kernel, image.Point{X: dx, Y: dy})
			}
		}
	}

	out := NewMask(m.W+2*radius, m.H+2*radius)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if !m.At(x, y) {
				continue
			}
			cx, cy := x+radius, y+radius
			out.Set(cx, cy, true)
			// The nearest opaque cell to any grown cell is a boundary cell,
			// so only those need the full kernel.
			if !m.onBoundary(x, y) {
				continue
			}
			for _, k := range kernel {
				out.Set(cx+k.X, cy+k.Y, true)
			}
		}
	}
	return out
}

// AlphaMask thresholds the alpha channel of img: cells with alpha strictly
// above threshold (0..1) are opaque.
func AlphaMask(img *image.NRGBA, threshold float64) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	limit := threshold * 255
	for y := 0; y < m.H; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < m.W; x++ {
			if float64(row[x*4+3]) > limit {
				m.bits[y*m.W+x] = true
			}
		}
	}
	return m
}

// rasterSize converts a physical size to a sampling size at pxPerMM, scaled
// so the longest side lands within [minPx, maxPx].
func rasterSize(widthMM, heightMM, pxPerMM float64, minPx, maxPx int) (int, int) {
	w := widthMM * pxPerMM
	h := heightMM * pxPerMM
	long := math.Max(w, h)
	scale := 1.0
	switch {
	case long <= 0:
		return minPx, minPx
	case long < float64(minPx):
		scale = float64(minPx) / long
	case long > float64(maxPx):
		scale = float64(maxPx) / long
	}
	return max(1, int(math.Round(w*scale))), max(1, int(math.Round(h*scale)))
}

// Rasterize resamples src to the sampling size for widthMM x heightMM and
// turns it 90 degrees counter-clockwise when rotated is set.
func Rasterize(src image.Image, widthMM, heightMM float64, rotated bool, p Params) *image.NRGBA {
	w, h := rasterSize(widthMM, heightMM, p.PxPerMM, p.MinPx, p.MaxPx)
	img := imaging.Resize(src, w, h, imaging.Linear)
	if rotated {
		img = imaging.Rotate90(img)
	}
	return img
}
