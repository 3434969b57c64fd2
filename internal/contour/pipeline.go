package contour

import (
	"image"
	"math"

	"github.com/piwi3910/StickerImposer/internal/geom"
	"github.com/piwi3910/StickerImposer/internal/model"
)

// Params tunes the pipeline. Epsilons are in normalized 0-1000 units.
type Params struct {
	PxPerMM        float64
	MinPx          int // lower bound for the longest sampled side
	MaxPx          int // upper bound for the longest sampled side
	AlphaThreshold float64
	CoarseEpsilon  float64
	FineEpsilon    float64
	MaxPoints      int
}

// DefaultParams returns the settings used for cut contours.
func DefaultParams() Params {
	return Params{
		PxPerMM:        4,
		MinPx:          24,
		MaxPx:          1024,
		AlphaThreshold: 0.02,
		CoarseEpsilon:  6,
		FineEpsilon:    1.5,
		MaxPoints:      400,
	}
}

// Request describes one contour: the sticker size before rotation, the cut
// offset, and whether the sticker is placed turned 90 degrees.
type Request struct {
	WidthMM  float64
	HeightMM float64
	OffsetMM float64
	Rotated  bool
}

// RequestFor converts a cache key to a pipeline request.
func RequestFor(k model.ContourKey) Request {
	return Request{WidthMM: k.WidthMM, HeightMM: k.HeightMM, OffsetMM: k.OffsetMM, Rotated: k.Rotated}
}

// Extract runs the full pipeline on img with DefaultParams.
func Extract(img image.Image, req Request) model.Contour {
	return ExtractWith(img, req, DefaultParams())
}

// ExtractWith runs the full pipeline on img. An image without opaque pixels
// yields an empty contour.
func ExtractWith(img image.Image, req Request, p Params) model.Contour {
	raster := Rasterize(img, req.WidthMM, req.HeightMM, req.Rotated, p)
	mask := AlphaMask(raster, p.AlphaThreshold)

	radius := 0
	if req.OffsetMM > 0 && req.WidthMM > 0 {
		// Sampling density after clamping, measured on the unrotated width.
		sampledW := raster.Bounds().Dx()
		if req.Rotated {
			sampledW = raster.Bounds().Dy()
		}
		pxPerMM := float64(sampledW) / req.WidthMM
		radius = int(math.Round(req.OffsetMM * pxPerMM))
	}
	return FromMask(mask.Dilate(radius), p)
}

// FromMask traces the outline of an already dilated mask and runs the
// polyline stages: normalize, coarse simplify, smooth, resample, fine
// simplify.
func FromMask(m *Mask, p Params) model.Contour {
	loops, ok := traceLoops(m)
	if !ok {
		return model.Contour{}
	}
	loop := largestLoop(loops)
	if len(loop) == 0 {
		return model.Contour{}
	}

	sx := model.ContourSpace / float64(m.W)
	sy := model.ContourSpace / float64(m.H)
	pts := loop.Scale(sx, sy, 0, 0)

	pts = geom.Simplify(pts, p.CoarseEpsilon)
	pts = geom.Chaikin(pts)
	pts = geom.Resample(pts, p.MaxPoints)
	pts = geom.Simplify(pts, p.FineEpsilon)
	return pts
}
