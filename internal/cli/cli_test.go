package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/StickerImposer/internal/importer"
	"github.com/piwi3910/StickerImposer/internal/model"
	"github.com/piwi3910/StickerImposer/internal/project"
)

// ─── Helpers ──────────────────────────────────────────────

// writeSticker saves an opaque disc on a transparent square.
func writeSticker(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy, r := w/2, h/2, min(w, h)/2-2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
			}
		}
	}
	require.NoError(t, imaging.Save(img, filepath.Join(dir, name)))
}

type testEnv struct {
	stickers string
	out      string
	cli      *CLI
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		stickers: filepath.Join(root, "badges"),
		out:      filepath.Join(root, "out"),
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
	}
	require.NoError(t, os.MkdirAll(env.stickers, 0755))
	env.cli = New(env.stderr, env.stdout, LogInfo)
	env.cli.ConfigPath = filepath.Join(root, "config.toml")
	env.cli.InventoryPath = filepath.Join(root, "sheets.json")
	return env
}

func (e *testEnv) run(args ...string) error {
	root := e.cli.RootCommand()
	root.SetArgs(args)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	return root.ExecuteContext(context.Background())
}

func (e *testEnv) glob(t *testing.T, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(e.out, pattern))
	require.NoError(t, err)
	return matches
}

// ─── Option Parsing Tests ─────────────────────────────────

func TestParseDims(t *testing.T) {
	w, h, err := parseDims("100x50")
	require.NoError(t, err)
	assert.Equal(t, 100.0, w)
	assert.Equal(t, 50.0, h)

	w, h, err = parseDims(" 7.5 X 2.25 ")
	require.NoError(t, err)
	assert.Equal(t, 7.5, w)
	assert.Equal(t, 2.25, h)

	for _, bad := range []string{"", "100", "100x", "ax5", "0x5", "-1x5", "1x2x3"} {
		_, _, err := parseDims(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestResolveRender_FlagsOverrideConfig(t *testing.T) {
	cfg := model.DefaultAppConfig()
	cfg.CutMode = "simple"
	cfg.WatermarkOpacity = 0.5

	var f renderFlags
	cmd := &cobra.Command{}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--cut", "real", "--offset", "2", "--boxes", "--workers", "3"}))

	rs, err := resolveRender(cmd, &f, cfg)
	require.NoError(t, err)
	assert.Equal(t, model.CutReal, rs.options.Cut.Mode)
	assert.Equal(t, 2.0, rs.options.Cut.OffsetMM)
	assert.True(t, rs.options.DrawBoxes)
	assert.Equal(t, cfg.DrawCrosshairs, rs.options.Crosshairs)
	assert.Equal(t, 0.5, rs.options.Watermark.Opacity)
	assert.Equal(t, 3, rs.workers)
	assert.Equal(t, cfg.OutputDir, rs.outDir)
}

func TestResolveRender_DXFNeedsCutLine(t *testing.T) {
	var f renderFlags
	cmd := &cobra.Command{}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--dxf"}))

	rs, err := resolveRender(cmd, &f, model.DefaultAppConfig())
	require.NoError(t, err)
	assert.Equal(t, model.CutSimple, rs.options.Cut.Mode)
	assert.Positive(t, rs.workers)
}

func TestResolveRender_Invalid(t *testing.T) {
	for _, args := range [][]string{
		{"--cut", "laser"},
		{"--offset", "-1"},
		{"--opacity", "1.5"},
		{"--opacity", "NaN"},
		{"--watermark", "wm.png", "--opacity", "0.5", "--watermark-size", "0"},
		{"--watermark", "wm.png", "--opacity", "0.5", "--watermark-size", "-2"},
	} {
		var f renderFlags
		cmd := &cobra.Command{}
		f.register(cmd)
		require.NoError(t, cmd.ParseFlags(args))

		_, err := resolveRender(cmd, &f, model.DefaultAppConfig())
		assert.Equal(t, model.ErrInvalidSpec, model.CodeOf(err), "args %v", args)
	}
}

// ─── Command Tests ────────────────────────────────────────

func TestImpose_WritesOutputs(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "cat.png", 120, 120)
	writeSticker(t, env.stickers, "dog.png", 120, 120)

	err := env.run("impose", env.stickers, "--out", env.out, "--each", "3", "--sheet", "10x5")
	require.NoError(t, err, env.stderr.String())

	pdfs := env.glob(t, "sheets_badges_*.pdf")
	orders := env.glob(t, "order_badges_*.csv")
	jobs := env.glob(t, "job_badges_*.json")
	require.Len(t, pdfs, 1)
	require.Len(t, orders, 1)
	require.Len(t, jobs, 1)

	lines := strings.Split(strings.TrimSpace(env.stdout.String()), "\n")
	assert.Len(t, lines, 3)

	spec, err := importer.ReadSpecFile(orders[0])
	require.NoError(t, err)
	assert.Equal(t, env.stickers, spec.FolderPath)
	assert.Equal(t, 100.0, spec.Sheet.WidthCm*10)
	assert.Equal(t, 6, spec.TotalQuantity())

	record, err := project.LoadJobFile(jobs[0])
	require.NoError(t, err)
	assert.Equal(t, 6, record.Job.TotalPlaced)
	assert.Equal(t, model.EngineGrid, record.Job.Engine)
	assert.Contains(t, record.Outputs, pdfs[0])
}

func TestImpose_DryRunWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "cat.png", 120, 120)

	require.NoError(t, env.run("impose", env.stickers, "--out", env.out, "--dry-run"))

	_, err := os.Stat(env.out)
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, env.stdout.String(), "Placed: 1 on 1 pages")
}

func TestImpose_QuantityList(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "cat.png", 120, 120)
	writeSticker(t, env.stickers, "dog.png", 120, 120)

	list := filepath.Join(t.TempDir(), "qty.csv")
	require.NoError(t, os.WriteFile(list, []byte("assetId;qty\ncat.png;4\ndog;0\n"), 0644))

	require.NoError(t, env.run("impose", env.stickers, "--out", env.out, "-q", list))

	orders := env.glob(t, "order_*.csv")
	require.Len(t, orders, 1)
	spec, err := importer.ReadSpecFile(orders[0])
	require.NoError(t, err)
	require.Len(t, spec.Quantities, 2)
	assert.Equal(t, "cat", spec.Quantities[0].AssetID)
	assert.Equal(t, 4, spec.TotalQuantity())
}

func TestImpose_MixedSizes(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "big.png", 240, 120)
	writeSticker(t, env.stickers, "small.png", 120, 120)

	err := env.run("impose", env.stickers, "--out", env.out)
	assert.Equal(t, model.ErrMixedSizes, model.CodeOf(err))

	err = env.run("impose", env.stickers, "--out", env.out, "--engine", "shelf-mixed-v1", "--each", "5")
	require.NoError(t, err, env.stderr.String())

	jobs := env.glob(t, "job_*.json")
	require.Len(t, jobs, 1)
	record, err := project.LoadJobFile(jobs[0])
	require.NoError(t, err)
	assert.Equal(t, model.EngineShelf, record.Job.Engine)
	assert.Equal(t, model.SizingPerAsset, record.Spec.StickerSizing.Mode)
	assert.Equal(t, 10, record.Job.TotalPlaced)
}

func TestImpose_ShelfWithPhysicalSizeKeepsWidth(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "cat.png", 120, 120)

	err := env.run("impose", env.stickers, "--out", env.out, "--engine", "shelf-mixed-v1", "--size", "5x8", "--each", "2")
	require.NoError(t, err, env.stderr.String())
	assert.Contains(t, env.stderr.String(), "ASPECT_MISMATCH")

	jobs := env.glob(t, "job_*.json")
	require.Len(t, jobs, 1)
	record, err := project.LoadJobFile(jobs[0])
	require.NoError(t, err)
	assert.Equal(t, model.SizingPerAsset, record.Spec.StickerSizing.Mode)

	var mismatches int
	for _, w := range record.Warnings {
		if w.Code == model.WarnAspectMismatch && w.AssetID == "cat" {
			mismatches++
		}
	}
	assert.Equal(t, 1, mismatches, "warnings %+v", record.Warnings)
	for _, p := range record.Job.Placements {
		assert.InDelta(t, 50.0, p.Width, 0.01)
		assert.InDelta(t, 50.0, p.Height, 0.01)
	}
}

func TestImpose_RealCutsWithDXF(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "cat.png", 120, 120)

	err := env.run("impose", env.stickers, "--out", env.out, "--each", "2", "--cut", "real", "--dxf", "--sheet", "20x10")
	require.NoError(t, err, env.stderr.String())

	assert.Len(t, env.glob(t, "cut_badges_*_p1.dxf"), 1)
	assert.Contains(t, env.stderr.String(), "Traced 1 contours")
}

func TestImpose_UnknownPreset(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "cat.png", 120, 120)

	err := env.run("impose", env.stickers, "--out", env.out, "--preset", "poster")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A4")
}

func TestImpose_PresetThenFlags(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "cat.png", 120, 120)

	require.NoError(t, env.run("impose", env.stickers, "--out", env.out, "--preset", "A4", "--margin", "4"))

	orders := env.glob(t, "order_*.csv")
	require.Len(t, orders, 1)
	spec, err := importer.ReadSpecFile(orders[0])
	require.NoError(t, err)
	assert.Equal(t, 21.0, spec.Sheet.WidthCm)
	assert.Equal(t, 29.7, spec.Sheet.HeightCm)
	assert.Equal(t, 4.0, spec.Sheet.MarginMM)
}

func TestReprint(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "cat.png", 120, 120)
	require.NoError(t, env.run("impose", env.stickers, "--out", env.out, "--each", "4"))

	orders := env.glob(t, "order_*.csv")
	require.Len(t, orders, 1)

	env.stdout.Reset()
	require.NoError(t, env.run("reprint", orders[0], "--out", env.out))
	assert.Len(t, env.glob(t, "sheets_badges_reprint_*.pdf"), 1)
	assert.Empty(t, env.glob(t, "order_badges_reprint_*"))
}

func TestReprint_MissingFolder(t *testing.T) {
	env := newTestEnv(t)
	order := filepath.Join(t.TempDir(), "order.csv")
	spec := model.DefaultExecutionSpec()
	spec.FolderPath = filepath.Join(t.TempDir(), "gone")
	spec.Quantities = []model.QuantityEntry{{AssetID: "cat", Qty: 1}}
	require.NoError(t, importer.WriteSpecFile(order, spec))

	assert.Error(t, env.run("reprint", order, "--out", env.out))
}

func TestPlan_Compare(t *testing.T) {
	env := newTestEnv(t)
	writeSticker(t, env.stickers, "big.png", 240, 120)
	writeSticker(t, env.stickers, "small.png", 120, 120)

	require.NoError(t, env.run("plan", env.stickers, "--compare"))

	out := env.stdout.String()
	assert.Contains(t, out, "grid-v1")
	assert.Contains(t, out, "shelf-mixed-v1")
	assert.Contains(t, out, "MIXED_SIZES")
}

func TestConfigInitAndShow(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run("config", "init"))
	assert.FileExists(t, env.cli.ConfigPath)
	assert.Error(t, env.run("config", "init"))

	require.NoError(t, env.run("config", "show"))
	assert.Contains(t, env.stdout.String(), "sheet_width_cm = 100.0")
}

func TestSheetsListAndImport(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run("sheets", "list"))
	assert.Contains(t, env.stdout.String(), "SRA3")

	shared := model.Inventory{Sheets: []model.SheetPreset{
		model.NewSheetPreset("kiss-cut", 30, 30, 2, 5, "Kiss-cut sheet"),
	}}
	sharedPath := filepath.Join(t.TempDir(), "shared.json")
	require.NoError(t, project.SaveInventory(sharedPath, shared))

	require.NoError(t, env.run("sheets", "import", sharedPath))
	inv, err := project.LoadInventory(env.cli.InventoryPath)
	require.NoError(t, err)
	require.NotNil(t, inv.FindSheetByName("kiss-cut"))
	assert.NotNil(t, inv.FindSheetByName("A4"))
}
