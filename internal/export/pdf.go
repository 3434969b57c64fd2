// Package export renders imposition jobs to print-ready PDF sheets and
// DXF cut files.
package export

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/StickerImposer/internal/contour"
	"github.com/piwi3910/StickerImposer/internal/model"
)

// Mark geometry in mm.
const (
	crosshairLength = 4.0
	crosshairInset  = 1.0
	markLineWidth   = 0.1
	cutLineWidth    = 0.25
	watermarkInset  = 1.0
)

// cutSpotColor is the spot color name most cutting plotters look for.
const cutSpotColor = "CutContour"

// RenderOptions controls the marks drawn on top of the stickers.
type RenderOptions struct {
	DrawBoxes  bool
	Crosshairs bool
	PageTags   bool
	Cut        model.CutOptions
	Watermark  model.WatermarkOptions
}

// renderer carries the state of one PDF export.
type renderer struct {
	pdf      *fpdf.Fpdf
	job      model.Job
	opts     RenderOptions
	images   contour.ImageSource
	contours ContourSource

	registered map[string]bool
	corners    map[string]contour.Corner
	wmW, wmH   float64
}

// ExportPDF writes one page per sheet of the job, each the physical size of
// the sheet. Images use the sheet's bottom-left origin convention of the
// placements; fpdf's top-left origin is handled here.
func ExportPDF(path string, job model.Job, images contour.ImageSource, contours ContourSource, opts RenderOptions) error {
	if len(job.Placements) == 0 {
		return fmt.Errorf("no placements to export")
	}

	sheet := job.Sheet
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: sheet.WidthMM, Ht: sheet.HeightMM},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle(fmt.Sprintf("Sticker sheets %s", job.ID), true)
	pdf.AddSpotColor(cutSpotColor, 0, 100, 0, 0)

	r := &renderer{
		pdf:        pdf,
		job:        job,
		opts:       opts,
		images:     images,
		contours:   contours,
		registered: make(map[string]bool),
		corners:    make(map[string]contour.Corner),
	}
	if opts.Watermark.Enabled() {
		if err := r.registerWatermark(); err != nil {
			return err
		}
	}

	pages := max(job.TotalPages, 1)
	for page := 0; page < pages; page++ {
		pdf.AddPage()
		for _, p := range job.PagePlacements(page) {
			if err := r.drawPlacement(p); err != nil {
				return err
			}
		}
		if opts.PageTags && sheet.MarginMM >= minTagMarginMM {
			tag := PageTag{JobID: job.ID, Page: page + 1, Pages: pages, Engine: string(job.Engine)}
			if err := drawPageTag(pdf, sheet, tag); err != nil {
				return err
			}
		}
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("failed to render page %d: %w", page+1, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// top converts a bottom-left sheet y and a height into fpdf's top y.
func (r *renderer) top(y, h float64) float64 {
	return r.job.Sheet.HeightMM - y - h
}

func imageName(id string, rotated bool) string {
	if rotated {
		return "sticker:" + id + ":r"
	}
	return "sticker:" + id
}

// registerSticker embeds an asset once per orientation. Rotated stickers are
// turned a quarter counter-clockwise, the same way their contours are.
func (r *renderer) registerSticker(id string, rotated bool) (string, error) {
	name := imageName(id, rotated)
	if r.registered[name] {
		return name, nil
	}

	img, err := r.images.Image(id)
	if err != nil {
		return "", fmt.Errorf("failed to load sticker %s: %w", id, err)
	}
	var src image.Image = img
	if rotated {
		src = imaging.Rotate90(img)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode sticker %s: %w", id, err)
	}
	r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
	r.registered[name] = true

	if r.opts.Watermark.Enabled() {
		r.corners[name] = contour.BestCorner(img, rotated)
	}
	return name, nil
}

func (r *renderer) registerWatermark() error {
	wm := r.opts.Watermark
	if !(wm.SizeMM > 0) || math.IsInf(wm.SizeMM, 0) {
		return model.NewError(model.ErrInvalidSpec, "watermark size must be positive (got %.2f mm)", wm.SizeMM)
	}
	img, err := imaging.Open(wm.Path)
	if err != nil {
		return fmt.Errorf("failed to open watermark: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("watermark %s has no pixels", wm.Path)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode watermark: %w", err)
	}
	r.pdf.RegisterImageOptionsReader("watermark", fpdf.ImageOptions{ImageType: "PNG"}, &buf)

	r.wmW = wm.SizeMM
	r.wmH = wm.SizeMM * float64(b.Dy()) / float64(b.Dx())
	if r.wmH > wm.SizeMM {
		r.wmW, r.wmH = wm.SizeMM*float64(b.Dx())/float64(b.Dy()), wm.SizeMM
	}
	return nil
}

func (r *renderer) drawPlacement(p model.Placement) error {
	name, err := r.registerSticker(p.AssetID, p.Rotated)
	if err != nil {
		return err
	}

	pdf := r.pdf
	x, y := p.X, r.top(p.Y, p.Height)
	pdf.ImageOptions(name, x, y, p.Width, p.Height, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	if r.opts.Watermark.Enabled() {
		r.drawWatermark(r.corners[name], x, y, p.Width, p.Height)
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(markLineWidth)
	if r.opts.DrawBoxes {
		pdf.Rect(x, y, p.Width, p.Height, "D")
	}
	if r.opts.Crosshairs {
		drawCrosshairs(pdf, x, y, p.Width, p.Height)
	}

	if r.opts.Cut.Mode != model.CutNone {
		path, err := CutPath(p, r.opts.Cut, r.contours)
		if err != nil {
			return fmt.Errorf("failed to build cut line for %s: %w", p.AssetID, err)
		}
		pts := make([]fpdf.PointType, len(path))
		for i, pt := range path {
			pts[i] = fpdf.PointType{X: pt.X, Y: r.job.Sheet.HeightMM - pt.Y}
		}
		pdf.SetDrawSpotColor(cutSpotColor, 100)
		pdf.SetLineWidth(cutLineWidth)
		pdf.Polygon(pts, "D")
		pdf.SetDrawColor(0, 0, 0)
	}
	return nil
}

// drawWatermark stamps the watermark inside the footprint at the given
// corner. x, y is the footprint's top-left in page coordinates.
func (r *renderer) drawWatermark(c contour.Corner, x, y, w, h float64) {
	wx, wy := x+w-watermarkInset-r.wmW, y+watermarkInset
	switch c {
	case contour.TopLeft:
		wx = x + watermarkInset
	case contour.BottomRight:
		wy = y + h - watermarkInset - r.wmH
	case contour.BottomLeft:
		wx, wy = x+watermarkInset, y+h-watermarkInset-r.wmH
	}
	r.pdf.SetAlpha(r.opts.Watermark.Opacity, "Normal")
	r.pdf.ImageOptions("watermark", wx, wy, r.wmW, r.wmH, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	r.pdf.SetAlpha(1, "Normal")
}

// drawCrosshairs draws outward ticks at the four corners of a box, leaving a
// small gap so the marks never touch the artwork.
func drawCrosshairs(pdf *fpdf.Fpdf, x, y, w, h float64) {
	for _, c := range []struct{ cx, cy, sx, sy float64 }{
		{x, y, -1, -1},
		{x + w, y, 1, -1},
		{x, y + h, -1, 1},
		{x + w, y + h, 1, 1},
	} {
		pdf.Line(c.cx+c.sx*crosshairInset, c.cy, c.cx+c.sx*crosshairLength, c.cy)
		pdf.Line(c.cx, c.cy+c.sy*crosshairInset, c.cx, c.cy+c.sy*crosshairLength)
	}
}
