package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/StickerImposer/internal/catalog"
	"github.com/piwi3910/StickerImposer/internal/contour"
	"github.com/piwi3910/StickerImposer/internal/engine"
	"github.com/piwi3910/StickerImposer/internal/export"
	"github.com/piwi3910/StickerImposer/internal/importer"
	"github.com/piwi3910/StickerImposer/internal/model"
	"github.com/piwi3910/StickerImposer/internal/project"
)

// fileStamp is the timestamp embedded in output file names.
const fileStamp = "2006-01-02_15-04-05"

type imposeOpts struct {
	spec   specFlags
	render renderFlags
	dryRun bool
}

func (c *CLI) imposeCommand() *cobra.Command {
	var opts imposeOpts
	cmd := &cobra.Command{
		Use:   "impose <folder>",
		Short: "Lay out a folder of PNG stickers and write the print files",
		Long: `impose reads every PNG in folder, packs the requested quantities onto sheets
and writes, in the output directory:

  sheets_<folder>_<time>.pdf   print file
  order_<folder>_<time>.csv    execution spec, replayable with 'reprint'
  job_<folder>_<time>.json     layout record
  cut_<folder>_<time>_pN.dxf   cut lines per page (with --dxf)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImpose(cmd, args[0], &opts)
		},
	}
	opts.spec.register(cmd)
	opts.render.register(cmd)
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "plan the layout without writing files")
	return cmd
}

func (c *CLI) runImpose(cmd *cobra.Command, folder string, opts *imposeOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	rs, err := resolveRender(cmd, &opts.render, cfg)
	if err != nil {
		return err
	}

	cat, spec, err := c.prepareSpec(cmd, folder, &opts.spec, cfg)
	if err != nil {
		return err
	}
	now := time.Now()
	spec.Timestamp = now.UTC().Format(time.RFC3339)

	spec, res, err := c.plan(spec, cat)
	if err != nil {
		return err
	}
	if opts.dryRun {
		printSummary(c.out, res.Job)
		return nil
	}

	base := filepath.Base(filepath.Clean(folder))
	stamp := now.Format(fileStamp)
	pdfPath := filepath.Join(rs.outDir, fmt.Sprintf("sheets_%s_%s.pdf", base, stamp))
	outputs, err := c.render(ctx, res.Job, cat, rs, pdfPath, fmt.Sprintf("cut_%s_%s", base, stamp))
	if err != nil {
		return err
	}

	orderPath := filepath.Join(rs.outDir, fmt.Sprintf("order_%s_%s.csv", base, stamp))
	if err := importer.WriteSpecFile(orderPath, spec); err != nil {
		return err
	}
	outputs = append(outputs, orderPath)

	jobPath := filepath.Join(rs.outDir, fmt.Sprintf("job_%s_%s.json", base, stamp))
	if err := project.SaveJobFile(jobPath, spec, res.Job, res.Warnings, outputs); err != nil {
		return err
	}
	outputs = append(outputs, jobPath)

	logger.Debug("job written", "id", res.Job.ID, "files", len(outputs))
	for _, p := range outputs {
		fmt.Fprintln(c.out, p)
	}
	return nil
}

// prepareSpec opens the catalog and builds the execution spec for folder
// from configuration, preset, flags and the quantity list.
func (c *CLI) prepareSpec(cmd *cobra.Command, folder string, f *specFlags, cfg model.AppConfig) (*catalog.FS, model.ExecutionSpec, error) {
	logger := loggerFromContext(cmd.Context())

	cat, err := catalog.Open(folder)
	if err != nil {
		return nil, model.ExecutionSpec{}, err
	}
	assets := cat.Assets()
	logger.Debug("catalog scanned", "dir", folder, "assets", len(assets))

	spec := model.DefaultExecutionSpec()
	cfg.ApplyToSpec(&spec)
	spec.FolderPath = folder
	if err := c.applySpec(cmd, f, &spec); err != nil {
		return nil, model.ExecutionSpec{}, err
	}

	if f.quantities != "" {
		result := importer.ImportQuantities(f.quantities)
		for _, w := range result.Warnings {
			logger.Warn(w, "file", f.quantities)
		}
		if len(result.Errors) > 0 {
			for _, e := range result.Errors {
				logger.Error(e, "file", f.quantities)
			}
			return nil, model.ExecutionSpec{}, model.NewError(model.ErrInvalidSpec,
				"%d errors in quantity list %s", len(result.Errors), f.quantities)
		}
		spec.Quantities = result.Quantities
		if !cmd.Flags().Changed("sizing") && hasLineSizing(spec.Quantities) {
			spec.StickerSizing = model.StickerSizing{Mode: model.SizingPerAsset}
		}
	} else {
		if f.each < 0 {
			return nil, model.ExecutionSpec{}, model.NewError(model.ErrInvalidSpec, "--each must not be negative")
		}
		for _, a := range assets {
			spec.Quantities = append(spec.Quantities, model.QuantityEntry{AssetID: a.ID, Qty: f.each})
		}
	}
	return cat, spec, nil
}

func hasLineSizing(qs []model.QuantityEntry) bool {
	for _, q := range qs {
		if q.Sizing != nil {
			return true
		}
	}
	return false
}

// plan runs the layout and reports its warnings. The shelf engine only takes
// per-asset sizing, so a job-level choice is translated first; the returned
// spec is the one that was planned.
func (c *CLI) plan(spec model.ExecutionSpec, cat *catalog.FS) (model.ExecutionSpec, engine.Result, error) {
	prog := newProgress(c.Logger)
	assets := cat.Assets()

	var translated []model.Warning
	if spec.Engine == model.EngineShelf && spec.StickerSizing.Mode != model.SizingPerAsset {
		spec, translated = engine.SpecForEngine(spec, assets, engine.Shelf)
	}
	res, err := engine.Impose(engine.Request{Spec: spec, Assets: assets})
	if err != nil {
		return spec, engine.Result{}, err
	}
	res.Warnings = append(translated, res.Warnings...)
	logWarnings(c.Logger, res.Warnings)
	prog.done(fmt.Sprintf("Placed %d stickers on %d pages with %s", res.Job.TotalPlaced, res.Job.TotalPages, res.Job.Engine))
	return spec, res, nil
}

// render writes the PDF and, when requested, the DXF cut files. It returns
// the written paths.
func (c *CLI) render(ctx context.Context, job model.Job, cat *catalog.FS, rs renderSettings, pdfPath, dxfBase string) ([]string, error) {
	cache := contour.NewCache(cat, contour.DefaultParams())

	if rs.options.Cut.Mode == model.CutReal {
		prog := newProgress(c.Logger)
		keys := contour.KeysForJob(job, rs.options.Cut.OffsetMM)
		if _, err := contour.ExtractAll(ctx, cache, keys, rs.workers); err != nil {
			return nil, fmt.Errorf("failed to trace contours: %w", err)
		}
		prog.done(fmt.Sprintf("Traced %d contours", cache.Computed()))
	}

	prog := newProgress(c.Logger)
	if err := export.ExportPDF(pdfPath, job, cat, cache, rs.options); err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Rendered %d pages", job.TotalPages))
	outputs := []string{pdfPath}

	if rs.dxf {
		paths, err := export.ExportDXF(filepath.Dir(pdfPath), dxfBase, job, rs.options.Cut, cache)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, paths...)
	}
	return outputs, nil
}

func (c *CLI) reprintCommand() *cobra.Command {
	var (
		render renderFlags
		folder string
	)
	cmd := &cobra.Command{
		Use:   "reprint <order.csv>",
		Short: "Rebuild the print PDF from an order file",
		Long: `reprint replays an order CSV written by 'impose'. The layout is recomputed
from the recorded sheet, sizing and quantities, so the pages come out the same
as long as the stickers in the folder are unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReprint(cmd, args[0], folder, &render)
		},
	}
	render.register(cmd)
	cmd.Flags().StringVar(&folder, "folder", "", "sticker folder, overriding the one recorded in the order")
	return cmd
}

func (c *CLI) runReprint(cmd *cobra.Command, orderPath, folder string, f *renderFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	rs, err := resolveRender(cmd, f, cfg)
	if err != nil {
		return err
	}

	spec, err := importer.ReadSpecFile(orderPath)
	if err != nil {
		return err
	}
	if folder != "" {
		spec.FolderPath = folder
	}
	if spec.FolderPath == "" {
		return model.NewError(model.ErrInvalidSpec, "order %s records no folder; pass --folder", orderPath)
	}

	cat, err := catalog.Open(spec.FolderPath)
	if err != nil {
		return err
	}
	_, res, err := c.plan(spec, cat)
	if err != nil {
		return err
	}

	base := filepath.Base(filepath.Clean(spec.FolderPath))
	stamp := time.Now().Format(fileStamp)
	pdfPath := filepath.Join(rs.outDir, fmt.Sprintf("sheets_%s_reprint_%s.pdf", base, stamp))
	outputs, err := c.render(cmd.Context(), res.Job, cat, rs, pdfPath, fmt.Sprintf("cut_%s_reprint_%s", base, stamp))
	if err != nil {
		return err
	}
	for _, p := range outputs {
		fmt.Fprintln(c.out, p)
	}
	return nil
}
