package engine

import (
	"fmt"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// ComparisonResult holds the outcome of one engine on a shared request.
// Err is set when the engine cannot handle the request (for example grid
// packing of mixed sizes); the other engines still run.
type ComparisonResult struct {
	Engine       Engine
	Result       Result
	Err          error
	PagesUsed    int
	Efficiency   float64
	WarningCount int
}

// CompareEngines runs every engine over the same assets and quantities. The
// sizing is translated to what each engine accepts, so a grid spec is tried
// with per-asset sizes on the shelf engine and vice versa.
func CompareEngines(req Request) []ComparisonResult {
	engines := []Engine{Grid, Shelf}
	results := make([]ComparisonResult, 0, len(engines))

	for _, eng := range engines {
		spec, translated := SpecForEngine(req.Spec, req.Assets, eng)
		res, err := Impose(Request{Spec: spec, Assets: req.Assets})
		cr := ComparisonResult{Engine: eng, Err: err}
		if err == nil {
			res.Warnings = append(translated, res.Warnings...)
			cr.Result = res
			cr.PagesUsed = res.Job.TotalPages
			cr.Efficiency = res.Job.Efficiency()
			cr.WarningCount = len(res.Warnings)
		}
		results = append(results, cr)
	}
	return results
}

// SpecForEngine returns a copy of spec retargeted to eng with its sizing
// rewritten into the form that engine accepts. Per-asset sizes fix one axis
// only, so a physical WxH job moved to the shelf engine keeps the width and
// takes the height from each image; assets whose ratio does not match the
// requested size get an aspect mismatch warning.
func SpecForEngine(spec model.ExecutionSpec, assets []model.AssetInfo, eng Engine) (model.ExecutionSpec, []model.Warning) {
	out := spec
	out.Engine = eng.ID()
	out.Quantities = append([]model.QuantityEntry(nil), spec.Quantities...)

	switch eng {
	case Shelf:
		if spec.StickerSizing.Mode == model.SizingPerAsset {
			return out, nil
		}
		line := model.AssetSizing{Mode: model.SizingFromImageDPI}
		if spec.StickerSizing.Mode == model.SizingPhysical {
			line = model.AssetSizing{Mode: model.SizingPhysical, Axis: model.AxisWidth, SizeCm: spec.StickerSizing.WidthCm}
		}
		out.StickerSizing = model.StickerSizing{Mode: model.SizingPerAsset}
		for i := range out.Quantities {
			s := line
			out.Quantities[i].Sizing = &s
		}
		if spec.StickerSizing.Mode == model.SizingPhysical {
			return out, shelfAspectWarnings(spec, assets)
		}

	case Grid:
		if spec.StickerSizing.Mode != model.SizingPerAsset {
			return out, nil
		}
		out.StickerSizing = model.StickerSizing{Mode: model.SizingFromImageDPI}
		byID := make(map[string]model.AssetInfo, len(assets))
		for _, a := range assets {
			byID[a.ID] = a
		}
		// The first sized line decides the uniform cell.
		for _, q := range spec.Quantities {
			if q.Qty <= 0 || q.Sizing == nil {
				continue
			}
			a, ok := byID[q.AssetID]
			if !ok || q.Sizing.Mode != model.SizingPhysical {
				break
			}
			size, err := model.ResolveAssetSizing(*q.Sizing, a, spec.DPI)
			if err != nil {
				break
			}
			out.StickerSizing = model.StickerSizing{
				Mode:     model.SizingPhysical,
				WidthCm:  size.WidthMM / 10,
				HeightCm: size.HeightMM / 10,
			}
			break
		}
		for i := range out.Quantities {
			out.Quantities[i].Sizing = nil
		}
	}
	return out, nil
}

// shelfAspectWarnings lists the positive-quantity assets whose pixel ratio
// does not match a physical WxH size that the shelf engine turns into a
// width-only size.
func shelfAspectWarnings(spec model.ExecutionSpec, assets []model.AssetInfo) []model.Warning {
	byID := make(map[string]model.AssetInfo, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}
	s := spec.StickerSizing
	if s.WidthCm <= 0 || s.HeightCm <= 0 {
		return nil
	}
	seen := make(map[string]bool)
	var warnings []model.Warning
	for _, q := range spec.Quantities {
		a, ok := byID[q.AssetID]
		if q.Qty <= 0 || !ok || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		note := fmt.Sprintf("%s keeps the %.4g cm width and follows the image ratio for the height", model.EngineShelf, s.WidthCm)
		if w, ok := aspectWarning(a, s.WidthCm/s.HeightCm, note); ok {
			warnings = append(warnings, w)
		}
	}
	return warnings
}
