package cli

import (
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StickerImposer/internal/export"
	"github.com/piwi3910/StickerImposer/internal/model"
	"github.com/piwi3910/StickerImposer/internal/project"
)

// specFlags override the sheet, sizing and engine of a new spec.
type specFlags struct {
	preset     string
	sheet      string // "WxH" in cm
	gap        float64
	margin     float64
	dpi        float64
	engine     string
	sizing     string
	size       string // "WxH" in cm, physical sizing only
	quantities string
	each       int
}

func (f *specFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "named sheet preset (see 'sheets')")
	fs.StringVar(&f.sheet, "sheet", "", "sheet size in cm, e.g. 100x50")
	fs.Float64Var(&f.gap, "gap", 0, "gap between stickers in mm")
	fs.Float64Var(&f.margin, "margin", 0, "sheet margin in mm")
	fs.Float64Var(&f.dpi, "dpi", 0, "image resolution used for fromImageDpi sizing")
	fs.StringVar(&f.engine, "engine", "", "layout engine: grid-v1 or shelf-mixed-v1")
	fs.StringVar(&f.sizing, "sizing", "", "sticker sizing: fromImageDpi, physical or perAsset")
	fs.StringVar(&f.size, "size", "", "physical sticker size in cm, e.g. 5x5")
	fs.StringVarP(&f.quantities, "quantities", "q", "", "quantity list (.csv or .xlsx)")
	fs.IntVar(&f.each, "each", 1, "quantity for every sticker when no list is given")
}

// renderFlags select the marks and outputs of a run.
type renderFlags struct {
	cut        string
	offset     float64
	watermark  string
	opacity    float64
	wmSize     float64
	boxes      bool
	crosshairs bool
	pageTags   bool
	dxf        bool
	out        string
	workers    int
}

func (f *renderFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.cut, "cut", "", "cut line: none, simple or real")
	fs.Float64Var(&f.offset, "offset", 0, "cut line offset in mm")
	fs.StringVar(&f.watermark, "watermark", "", "watermark image stamped on every sticker")
	fs.Float64Var(&f.opacity, "opacity", 0, "watermark opacity, 0 to 1")
	fs.Float64Var(&f.wmSize, "watermark-size", 0, "watermark size in mm")
	fs.BoolVar(&f.boxes, "boxes", false, "draw a box around every sticker")
	fs.BoolVar(&f.crosshairs, "crosshairs", false, "draw corner marks")
	fs.BoolVar(&f.pageTags, "page-tags", false, "print a QR page tag in the margin")
	fs.BoolVar(&f.dxf, "dxf", false, "also write one DXF cut file per page")
	fs.StringVarP(&f.out, "out", "o", "", "output directory")
	fs.IntVar(&f.workers, "workers", 0, "parallel contour workers (0 = CPUs)")
}

// renderSettings is the resolved form of renderFlags.
type renderSettings struct {
	options export.RenderOptions
	dxf     bool
	outDir  string
	workers int
}

// parseDims parses "WxH" into two positive numbers.
func parseDims(s string) (float64, float64, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH", s)
	}
	w, errW := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	h, errH := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH", s)
	}
	return w, h, nil
}

// loadConfig reads the user configuration and warns about unknown keys.
func (c *CLI) loadConfig() (model.AppConfig, error) {
	cfg, unknown, err := project.LoadAppConfig(c.ConfigPath)
	if err != nil {
		return model.AppConfig{}, err
	}
	for _, key := range unknown {
		c.Logger.Warn("unknown config key", "key", key, "file", c.ConfigPath)
	}
	return cfg, nil
}

// applySpec layers preset and explicit flags over a spec that already holds
// the configuration defaults.
func (c *CLI) applySpec(cmd *cobra.Command, f *specFlags, spec *model.ExecutionSpec) error {
	changed := cmd.Flags().Changed

	if f.preset != "" {
		inv, err := project.LoadInventory(c.InventoryPath)
		if err != nil {
			return fmt.Errorf("failed to load sheet presets: %w", err)
		}
		p := inv.FindSheetByName(f.preset)
		if p == nil {
			return fmt.Errorf("unknown sheet preset %q (have %s)", f.preset, strings.Join(inv.SheetNames(), ", "))
		}
		spec.Sheet = p.Sheet
	}
	if changed("sheet") {
		w, h, err := parseDims(f.sheet)
		if err != nil {
			return err
		}
		spec.Sheet.WidthCm, spec.Sheet.HeightCm = w, h
	}
	if changed("gap") {
		spec.Sheet.GapMM = f.gap
	}
	if changed("margin") {
		spec.Sheet.MarginMM = f.margin
	}
	if changed("dpi") {
		spec.DPI = f.dpi
	}
	if changed("engine") {
		spec.Engine = model.EngineID(f.engine)
	}
	if changed("sizing") {
		switch mode := model.SizingMode(f.sizing); mode {
		case model.SizingFromImageDPI, model.SizingPhysical, model.SizingPerAsset:
			spec.StickerSizing = model.StickerSizing{Mode: mode}
		default:
			return model.NewError(model.ErrInvalidSpec, "unknown sizing %q", f.sizing)
		}
	}
	if changed("size") {
		w, h, err := parseDims(f.size)
		if err != nil {
			return err
		}
		if !changed("sizing") {
			spec.StickerSizing.Mode = model.SizingPhysical
		}
		spec.StickerSizing.WidthCm, spec.StickerSizing.HeightCm = w, h
	}
	return nil
}

// resolveRender merges configuration defaults with explicit render flags.
func resolveRender(cmd *cobra.Command, f *renderFlags, cfg model.AppConfig) (renderSettings, error) {
	changed := cmd.Flags().Changed
	pick := func(name, flag, conf string) string {
		if changed(name) {
			return flag
		}
		return conf
	}
	pickF := func(name string, flag, conf float64) float64 {
		if changed(name) {
			return flag
		}
		return conf
	}
	pickB := func(name string, flag, conf bool) bool {
		if changed(name) {
			return flag
		}
		return conf
	}

	mode, err := model.ParseCutMode(pick("cut", f.cut, cfg.CutMode))
	if err != nil {
		return renderSettings{}, err
	}
	rs := renderSettings{
		options: export.RenderOptions{
			DrawBoxes:  pickB("boxes", f.boxes, cfg.DrawBoxes),
			Crosshairs: pickB("crosshairs", f.crosshairs, cfg.DrawCrosshairs),
			PageTags:   pickB("page-tags", f.pageTags, cfg.PageTags),
			Cut:        model.CutOptions{Mode: mode, OffsetMM: pickF("offset", f.offset, cfg.CutOffsetMM)},
			Watermark: model.WatermarkOptions{
				Path:    pick("watermark", f.watermark, cfg.WatermarkPath),
				Opacity: pickF("opacity", f.opacity, cfg.WatermarkOpacity),
				SizeMM:  pickF("watermark-size", f.wmSize, cfg.WatermarkSizeMM),
			},
		},
		dxf:     f.dxf,
		outDir:  pick("out", f.out, cfg.OutputDir),
		workers: cfg.ContourWorkers,
	}
	if changed("workers") {
		rs.workers = f.workers
	}
	if rs.workers <= 0 {
		rs.workers = runtime.NumCPU()
	}

	if rs.options.Cut.OffsetMM < 0 {
		return renderSettings{}, model.NewError(model.ErrInvalidSpec, "cut offset must not be negative")
	}
	if o := rs.options.Watermark.Opacity; !(o >= 0 && o <= 1) {
		return renderSettings{}, model.NewError(model.ErrInvalidSpec, "watermark opacity must be between 0 and 1")
	}
	if wm := rs.options.Watermark; wm.Enabled() && (!(wm.SizeMM > 0) || math.IsInf(wm.SizeMM, 0)) {
		return renderSettings{}, model.NewError(model.ErrInvalidSpec, "watermark size must be positive (got %.2f mm)", wm.SizeMM)
	}
	if rs.dxf && mode == model.CutNone {
		rs.options.Cut.Mode = model.CutSimple
	}
	return rs, nil
}
