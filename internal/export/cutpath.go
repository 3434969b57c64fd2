package export

import (
	"github.com/piwi3910/StickerImposer/internal/contour"
	"github.com/piwi3910/StickerImposer/internal/geom"
	"github.com/piwi3910/StickerImposer/internal/model"
)

// ContourSource returns the normalized silhouette for a placement key.
// *contour.Cache implements it.
type ContourSource interface {
	Get(key model.ContourKey) (model.Contour, error)
}

var _ ContourSource = (*contour.Cache)(nil)

// grownRect returns the placement footprint grown by offset on every side,
// as lower-left corner plus size in sheet millimeters.
func grownRect(p model.Placement, offset float64) (x, y, w, h float64) {
	return p.X - offset, p.Y - offset, p.Width + 2*offset, p.Height + 2*offset
}

func rectPath(x, y, w, h float64) geom.Polyline {
	return geom.Polyline{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

// CutPath returns the closed cut outline of a placement in sheet
// millimeters with the origin at the bottom-left corner. Real cuts fall back
// to the grown rectangle when the sticker has no usable silhouette.
func CutPath(p model.Placement, cut model.CutOptions, contours ContourSource) (geom.Polyline, error) {
	x, y, w, h := grownRect(p, cut.OffsetMM)
	switch cut.Mode {
	case model.CutNone:
		return nil, nil
	case model.CutReal:
		if contours == nil {
			break
		}
		c, err := contours.Get(model.ContourKeyFor(p, cut.OffsetMM))
		if err != nil {
			return nil, err
		}
		if len(c) >= 3 {
			// Contour y grows downward from the top of the grown rectangle.
			return c.Scale(w/model.ContourSpace, -h/model.ContourSpace, x, y+h), nil
		}
	}
	return rectPath(x, y, w, h), nil
}
