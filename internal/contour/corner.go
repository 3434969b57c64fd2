package contour

import (
	"image"

	"github.com/disintegration/imaging"
)

// Corner names an image corner. The declaration order is the tie-break
// order used by BestCorner.
type Corner int

const (
	TopRight Corner = iota
	TopLeft
	BottomRight
	BottomLeft
)

func (c Corner) String() string {
	switch c {
	case TopRight:
		return "top-right"
	case TopLeft:
		return "top-left"
	case BottomRight:
		return "bottom-right"
	default:
		return "bottom-left"
	}
}

// Corner sampling grid: the source is resampled to sampleSize squared and each
// corner square spans a quarter of each side.
const (
	sampleSize   = 64
	cornerExtent = sampleSize / 4
)

// CornerOpacity returns the mean alpha (0..1) of each corner square, indexed
// by Corner. Rotation is applied before sampling.
func CornerOpacity(img image.Image, rotated bool) [4]float64 {
	s := imaging.Resize(img, sampleSize, sampleSize, imaging.Linear)
	if rotated {
		s = imaging.Rotate90(s)
	}

	origins := [4]image.Point{
		TopRight:    {X: sampleSize - cornerExtent, Y: 0},
		TopLeft:     {X: 0, Y: 0},
		BottomRight: {X: sampleSize - cornerExtent, Y: sampleSize - cornerExtent},
		BottomLeft:  {X: 0, Y: sampleSize - cornerExtent},
	}

	var out [4]float64
	for c, o := range origins {
		sum := 0
		for y := o.Y; y < o.Y+cornerExtent; y++ {
			for x := o.X; x < o.X+cornerExtent; x++ {
				sum += int(s.Pix[s.PixOffset(x, y)+3])
			}
		}
		out[c] = float64(sum) / float64(cornerExtent*cornerExtent*255)
	}
	return out
}

// BestCorner returns the most opaque corner of img. Ties go to the first
// corner in TopRight, TopLeft, BottomRight, BottomLeft order.
func BestCorner(img image.Image, rotated bool) Corner {
	op := CornerOpacity(img, rotated)
	best := TopRight
	for c := TopLeft; c <= BottomLeft; c++ {
		if op[c] > op[best] {
			best = c
		}
	}
	return best
}
