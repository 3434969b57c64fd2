package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/StickerImposer/internal/geom"
	"github.com/piwi3910/StickerImposer/internal/model"
)

// DXF layer names.
const (
	LayerSheet = "SHEET"
	LayerCut   = "CUT"
)

// ExportDXF writes one cut file per page into dir, named
// <base>_p<page>.dxf, and returns the written paths. Coordinates are sheet
// millimeters with the origin at the bottom-left corner.
func ExportDXF(dir, base string, job model.Job, cut model.CutOptions, contours ContourSource) ([]string, error) {
	if cut.Mode == model.CutNone {
		return nil, model.NewError(model.ErrInvalidSpec, "dxf export needs a cut mode")
	}
	if len(job.Placements) == 0 {
		return nil, fmt.Errorf("no placements to export")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var paths []string
	for page := 0; page < max(job.TotalPages, 1); page++ {
		path := filepath.Join(dir, fmt.Sprintf("%s_p%d.dxf", base, page+1))
		if err := exportDXFPage(path, job, page, cut, contours); err != nil {
			return paths, fmt.Errorf("failed to export page %d: %w", page+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func exportDXFPage(path string, job model.Job, page int, cut model.CutOptions, contours ContourSource) error {
	d := dxf.NewDrawing()

	if _, err := d.AddLayer(LayerSheet, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return err
	}
	if err := addPolyline(d, rectPath(0, 0, job.Sheet.WidthMM, job.Sheet.HeightMM)); err != nil {
		return err
	}

	if _, err := d.AddLayer(LayerCut, color.Red, dxf.DefaultLineType, true); err != nil {
		return err
	}
	for _, p := range job.PagePlacements(page) {
		outline, err := CutPath(p, cut, contours)
		if err != nil {
			return fmt.Errorf("failed to build cut line for %s: %w", p.AssetID, err)
		}
		if err := addPolyline(d, outline); err != nil {
			return err
		}
	}
	return d.SaveAs(path)
}

// addPolyline adds a closed LWPOLYLINE on the current layer.
func addPolyline(d *drawing.Drawing, pts geom.Polyline) error {
	vertices := make([][]float64, len(pts))
	for i, pt := range pts {
		vertices[i] = []float64{pt.X, pt.Y}
	}
	_, err := d.LwPolyline(true, vertices...)
	return err
}
