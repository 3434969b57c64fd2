// Package engine turns an execution spec and a catalog of assets into a job:
// a list of placements on sheets. Two algorithms are available, a uniform
// grid for same-size stickers and a shelf packer for mixed sizes.
package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// Engine is the set of supported layout algorithms.
type Engine int

const (
	Grid Engine = iota
	Shelf
)

// ID returns the identifier stored in execution specs.
func (e Engine) ID() model.EngineID {
	switch e {
	case Shelf:
		return model.EngineShelf
	default:
		return model.EngineGrid
	}
}

func (e Engine) String() string {
	return string(e.ID())
}

// Lookup maps an engine identifier to its algorithm. An empty identifier
// selects the grid engine, matching specs written before the field existed.
func Lookup(id model.EngineID) (Engine, error) {
	switch id {
	case model.EngineGrid, "":
		return Grid, nil
	case model.EngineShelf:
		return Shelf, nil
	}
	return 0, model.NewError(model.ErrUnregisteredEngine, "no engine registered for %q (known: %s, %s)",
		id, model.EngineGrid, model.EngineShelf)
}

// Request is the input of a layout run.
type Request struct {
	Spec   model.ExecutionSpec
	Assets []model.AssetInfo
}

// Result is a successful layout run.
type Result struct {
	Job      model.Job
	Warnings []model.Warning
}

// plan is the per-engine step shared by Impose. Assets arrive sorted and
// every positive quantity refers to a known asset.
func (e Engine) plan(spec model.ExecutionSpec, sheet model.SheetSpec, byID map[string]model.AssetInfo) (model.Job, []model.Warning, error) {
	switch e {
	case Shelf:
		return planShelf(spec, sheet, byID)
	default:
		return planGrid(spec, sheet, byID)
	}
}

// Impose validates the request, selects the engine named by the execution spec and
// runs it. Any failure aborts the whole job.
func Impose(req Request) (Result, error) {
	spec := req.Spec

	eng, err := Lookup(spec.Engine)
	if err != nil {
		return Result{}, err
	}
	sheet, err := spec.Sheet.SheetSpec()
	if err != nil {
		return Result{}, err
	}
	if spec.DPI <= 0 || math.IsNaN(spec.DPI) || math.IsInf(spec.DPI, 0) {
		return Result{}, model.NewError(model.ErrInvalidSpec, "dpi must be a positive number (got %.2f)", spec.DPI)
	}

	assets := append([]model.AssetInfo(nil), req.Assets...)
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	if len(assets) == 0 {
		return Result{}, model.NewError(model.ErrInvalidSpec, "no assets found in %q", spec.FolderPath)
	}

	byID := make(map[string]model.AssetInfo, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}
	var missing []string
	for _, q := range spec.Quantities {
		if q.Qty > 0 {
			if _, ok := byID[q.AssetID]; !ok {
				missing = append(missing, q.AssetID)
			}
		}
	}
	if len(missing) > 0 {
		return Result{}, model.NewError(model.ErrMissingAsset, "assets not found in catalog: %s", strings.Join(missing, ", "))
	}

	job, warnings, err := eng.plan(spec, sheet, byID)
	if err != nil {
		return Result{}, err
	}
	job.ID = model.NewJobID()
	job.Engine = eng.ID()
	job.Sheet = sheet
	return Result{Job: job, Warnings: warnings}, nil
}

// positiveAssets returns the assets with a positive quantity, in spec order.
func positiveAssets(spec model.ExecutionSpec, byID map[string]model.AssetInfo) []model.AssetInfo {
	var out []model.AssetInfo
	for _, q := range spec.Quantities {
		if q.Qty > 0 {
			out = append(out, byID[q.AssetID])
		}
	}
	return out
}

// assertUniform fails with MixedSizes on the first asset whose pixel size
// differs from the first one.
func assertUniform(assets []model.AssetInfo) error {
	if len(assets) == 0 {
		return nil
	}
	ref := assets[0]
	for _, a := range assets[1:] {
		if !a.SameSize(ref) {
			return model.NewError(model.ErrMixedSizes, "mixed sticker sizes: %s=%dx%dpx vs %s=%dx%dpx",
				ref.ID, ref.WidthPx, ref.HeightPx, a.ID, a.WidthPx, a.HeightPx)
		}
	}
	return nil
}

func planGrid(spec model.ExecutionSpec, sheet model.SheetSpec, byID map[string]model.AssetInfo) (model.Job, []model.Warning, error) {
	positive := positiveAssets(spec, byID)
	if err := assertUniform(positive); err != nil {
		return model.Job{}, nil, err
	}

	sizing := spec.StickerSizing
	if sizing.Mode == "" {
		sizing.Mode = model.SizingFromImageDPI
	}
	if sizing.Mode == model.SizingPerAsset {
		return model.Job{}, nil, model.NewError(model.ErrInvalidSpec, "perAsset sizing is not supported by %s", model.EngineGrid)
	}

	// Nothing to place: any catalog asset still defines the cell size.
	ref := byID[sortedIDs(byID)[0]]
	if len(positive) > 0 {
		ref = positive[0]
	}

	size, err := model.ResolveStickerSizing(sizing, ref, spec.DPI)
	if err != nil {
		return model.Job{}, nil, err
	}
	warnings := sizingWarnings(sizing, ref, size)

	layout, err := PlanGrid(sheet, size.WidthMM, size.HeightMM)
	if err != nil {
		return model.Job{}, nil, err
	}

	items := make([]AssetQty, 0, len(spec.Quantities))
	for _, q := range spec.Quantities {
		items = append(items, AssetQty{AssetID: q.AssetID, Qty: q.Qty})
	}
	pg := PaginateGrid(sheet, layout, items)

	return model.Job{
		Sizing:      sizing,
		Layout:      &layout,
		Placements:  pg.Placements,
		TotalPlaced: pg.TotalPlaced,
		TotalPages:  pg.TotalPages,
	}, warnings, nil
}

func planShelf(spec model.ExecutionSpec, sheet model.SheetSpec, byID map[string]model.AssetInfo) (model.Job, []model.Warning, error) {
	if spec.StickerSizing.Mode != model.SizingPerAsset {
		return model.Job{}, nil, model.NewError(model.ErrInvalidSpec, "%s requires stickerSizing.mode=%s (got %q)",
			model.EngineShelf, model.SizingPerAsset, spec.StickerSizing.Mode)
	}

	var warnings []model.Warning
	items := make([]ShelfItem, 0, len(spec.Quantities))
	for _, q := range spec.Quantities {
		if q.Qty <= 0 {
			continue
		}
		if q.Sizing == nil {
			return model.Job{}, nil, model.NewError(model.ErrMissingSizing, "no sizing given for asset %s", q.AssetID)
		}
		a := byID[q.AssetID]
		size, err := model.ResolveAssetSizing(*q.Sizing, a, spec.DPI)
		if err != nil {
			return model.Job{}, nil, err
		}
		if w, ok := lowDPIWarning(a, size); ok {
			warnings = append(warnings, w)
		}
		items = append(items, ShelfItem{AssetID: q.AssetID, Qty: q.Qty, WidthMM: size.WidthMM, HeightMM: size.HeightMM})
	}

	res, err := PackShelf(sheet, items)
	if err != nil {
		return model.Job{}, nil, err
	}
	return model.Job{
		Sizing:      spec.StickerSizing,
		Placements:  res.Placements,
		TotalPlaced: res.TotalPlaced,
		TotalPages:  res.TotalPages,
	}, warnings, nil
}

// sizingWarnings reports an aspect mismatch for physical sizing, and a low
// print resolution otherwise.
func sizingWarnings(s model.StickerSizing, a model.AssetInfo, size model.ResolvedSize) []model.Warning {
	if s.Mode == model.SizingPhysical {
		if w, ok := aspectWarning(a, s.WidthCm/s.HeightCm, ""); ok {
			return []model.Warning{w}
		}
		return nil
	}
	if w, ok := lowDPIWarning(a, size); ok {
		return []model.Warning{w}
	}
	return nil
}

// aspectWarning reports when the asset's pixel ratio is more than
// AspectTolerance away from the requested physical ratio. note is appended
// to the message when set.
func aspectWarning(a model.AssetInfo, physicalRatio float64, note string) (model.Warning, bool) {
	if a.WidthPx <= 0 || a.HeightPx <= 0 || physicalRatio <= 0 {
		return model.Warning{}, false
	}
	imageRatio := float64(a.WidthPx) / float64(a.HeightPx)
	if math.Abs(imageRatio-physicalRatio)/physicalRatio <= model.AspectTolerance {
		return model.Warning{}, false
	}
	msg := fmt.Sprintf("image ratio %.4f differs from physical size ratio %.4f by more than 1%%", imageRatio, physicalRatio)
	if note != "" {
		msg += "; " + note
	}
	return model.Warning{Code: model.WarnAspectMismatch, AssetID: a.ID, Message: msg}, true
}

func lowDPIWarning(a model.AssetInfo, size model.ResolvedSize) (model.Warning, bool) {
	if size.EffectiveDPI >= model.MinPrintDPI {
		return model.Warning{}, false
	}
	return model.Warning{
		Code:    model.WarnLowDPI,
		AssetID: a.ID,
		Message: fmt.Sprintf("asset %s prints at a low effective resolution (%.1f dpi)", a.ID, size.EffectiveDPI),
	}, true
}

func sortedIDs(byID map[string]model.AssetInfo) []string {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
