package export

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/StickerImposer/internal/contour"
	"github.com/piwi3910/StickerImposer/internal/geom"
	"github.com/piwi3910/StickerImposer/internal/model"
)

type mapSource map[string]image.Image

func (m mapSource) Image(id string) (image.Image, error) {
	img, ok := m[id]
	if !ok {
		return nil, model.NewError(model.ErrMissingAsset, "no asset %s", id)
	}
	return img, nil
}

type fixedContours struct {
	contour model.Contour
	err     error
}

func (f fixedContours) Get(model.ContourKey) (model.Contour, error) {
	return f.contour, f.err
}

// badge is opaque in the center with a transparent border.
func badge(w, h int) *image.NRGBA {
	img := imaging.New(w, h, color.NRGBA{})
	for y := h / 5; y < h-h/5; y++ {
		for x := w / 5; x < w-w/5; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 220, G: 40, B: 90, A: 255})
		}
	}
	return img
}

func buildTestJob() model.Job {
	return model.Job{
		ID:     "a1b2c3d4",
		Engine: model.EngineShelf,
		Sheet:  model.SheetSpec{WidthMM: 200, HeightMM: 100, GapMM: 3, MarginMM: 10},
		Placements: []model.Placement{
			{PageIndex: 0, X: 10, Y: 70, Width: 30, Height: 20, AssetID: "cat"},
			{PageIndex: 0, X: 43, Y: 60, Width: 20, Height: 30, Rotated: true, AssetID: "cat"},
			{PageIndex: 0, X: 66, Y: 70, Width: 20, Height: 20, AssetID: "dog"},
			{PageIndex: 1, X: 10, Y: 70, Width: 20, Height: 20, AssetID: "dog"},
		},
		TotalPlaced: 4,
		TotalPages:  2,
	}
}

func buildTestSource() mapSource {
	return mapSource{"cat": badge(60, 40), "dog": badge(40, 40)}
}

// ─── Cut paths ─────────────────────────────────────────────

func TestCutPath_Modes(t *testing.T) {
	p := model.Placement{X: 10, Y: 20, Width: 30, Height: 40, AssetID: "cat"}

	none, err := CutPath(p, model.CutOptions{Mode: model.CutNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	simple, err := CutPath(p, model.CutOptions{Mode: model.CutSimple, OffsetMM: 2}, nil)
	require.NoError(t, err)
	min, max := simple.Bounds()
	assert.Equal(t, geom.Point{X: 8, Y: 18}, min)
	assert.Equal(t, geom.Point{X: 42, Y: 62}, max)

	square := model.Contour{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 500}, {X: 0, Y: 500}}
	traced, err := CutPath(p, model.CutOptions{Mode: model.CutReal, OffsetMM: 2}, fixedContours{contour: square})
	require.NoError(t, err)
	require.Len(t, traced, 4)
	// Contour top-left maps to the grown rectangle's top-left in sheet space.
	assert.InDelta(t, 8, traced[0].X, 1e-9)
	assert.InDelta(t, 62, traced[0].Y, 1e-9)
	// Half the normalized height ends at the vertical middle.
	assert.InDelta(t, 40, traced[2].Y, 1e-9)
}

func TestCutPath_RealFallsBackToRectangle(t *testing.T) {
	p := model.Placement{X: 0, Y: 0, Width: 10, Height: 10}
	path, err := CutPath(p, model.CutOptions{Mode: model.CutReal}, fixedContours{})
	require.NoError(t, err)
	assert.Equal(t, rectPath(0, 0, 10, 10), path)

	_, err = CutPath(p, model.CutOptions{Mode: model.CutReal}, fixedContours{err: errors.New("boom")})
	assert.Error(t, err)
}

// ─── PDF ───────────────────────────────────────────────────

func TestExportPDF_CreatesFileWithAllMarks(t *testing.T) {
	dir := t.TempDir()
	wmPath := filepath.Join(dir, "wm.png")
	require.NoError(t, imaging.Save(badge(20, 10), wmPath))

	src := buildTestSource()
	opts := RenderOptions{
		DrawBoxes:  true,
		Crosshairs: true,
		PageTags:   true,
		Cut:        model.CutOptions{Mode: model.CutReal, OffsetMM: 1.5},
		Watermark:  model.WatermarkOptions{Path: wmPath, Opacity: 0.4, SizeMM: 6},
	}
	cache := contour.NewCache(src, contour.DefaultParams())

	path := filepath.Join(dir, "sheets.pdf")
	require.NoError(t, ExportPDF(path, buildTestJob(), src, cache, opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.Greater(t, len(data), 1000)
	// cat upright, cat rotated, dog.
	assert.Equal(t, int64(3), cache.Computed())
}

func TestExportPDF_PlainSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.pdf")
	require.NoError(t, ExportPDF(path, buildTestJob(), buildTestSource(), nil, RenderOptions{}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(500))
}

func TestExportPDF_Errors(t *testing.T) {
	dir := t.TempDir()

	err := ExportPDF(filepath.Join(dir, "empty.pdf"), model.Job{}, buildTestSource(), nil, RenderOptions{})
	assert.Error(t, err)

	err = ExportPDF(filepath.Join(dir, "missing.pdf"), buildTestJob(), mapSource{"cat": badge(10, 10)}, nil, RenderOptions{})
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrMissingAsset))

	opts := RenderOptions{Watermark: model.WatermarkOptions{Path: filepath.Join(dir, "nope.png"), Opacity: 1, SizeMM: 5}}
	err = ExportPDF(filepath.Join(dir, "wm.pdf"), buildTestJob(), buildTestSource(), nil, opts)
	assert.Error(t, err)
}

func TestExportPDF_RejectsWatermarkWithoutSize(t *testing.T) {
	dir := t.TempDir()
	wmPath := filepath.Join(dir, "wm.png")
	require.NoError(t, imaging.Save(badge(20, 10), wmPath))

	for _, size := range []float64{0, -3} {
		opts := RenderOptions{Watermark: model.WatermarkOptions{Path: wmPath, Opacity: 0.5, SizeMM: size}}
		err := ExportPDF(filepath.Join(dir, "wm.pdf"), buildTestJob(), buildTestSource(), nil, opts)
		assert.True(t, model.IsCode(err, model.ErrInvalidSpec), "size %v: got %v", size, err)
	}
}

func TestPageTag(t *testing.T) {
	tag := PageTag{JobID: "a1b2c3d4", Page: 2, Pages: 3, Engine: "grid-v1"}
	assert.Equal(t, "a1b2c3d4  2/3  grid-v1", tag.Caption())
	assert.Equal(t, 6.0, tagSize(8))
	assert.Equal(t, maxTagSizeMM, tagSize(40))
}

// ─── DXF ───────────────────────────────────────────────────

func TestExportDXF_OneFilePerPage(t *testing.T) {
	dir := t.TempDir()
	job := buildTestJob()

	paths, err := ExportDXF(dir, "cut", job, model.CutOptions{Mode: model.CutSimple, OffsetMM: 1}, nil)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "cut_p1.dxf"), paths[0])

	for page, path := range paths {
		d, err := dxf.Open(path)
		require.NoError(t, err)

		polylines := 0
		for _, e := range d.Entities() {
			if lw, ok := e.(*entity.LwPolyline); ok {
				polylines++
				assert.Len(t, lw.Vertices, 4)
			}
		}
		// Sheet border plus one cut line per sticker.
		assert.Equal(t, len(job.PagePlacements(page))+1, polylines, "page %d", page+1)
	}
}

func TestExportDXF_RealContours(t *testing.T) {
	src := buildTestSource()
	cache := contour.NewCache(src, contour.DefaultParams())

	paths, err := ExportDXF(t.TempDir(), "real", buildTestJob(), model.CutOptions{Mode: model.CutReal, OffsetMM: 1}, cache)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Equal(t, int64(3), cache.Computed())
}

func TestExportDXF_NeedsCutMode(t *testing.T) {
	_, err := ExportDXF(t.TempDir(), "x", buildTestJob(), model.CutOptions{Mode: model.CutNone}, nil)
	assert.True(t, model.IsCode(err, model.ErrInvalidSpec))
}
