package model

import (
	"math"

	"github.com/google/uuid"

	"github.com/piwi3910/StickerImposer/internal/geom"
)

// EngineID identifies a layout algorithm. The set is closed: only the
// constants below are accepted by the engine selector.
type EngineID string

const (
	EngineGrid  EngineID = "grid-v1"        // Uniform tiling for same-size stickers
	EngineShelf EngineID = "shelf-mixed-v1" // Best-fit row packing with rotation for mixed sizes
)

// Engines lists every known engine in display order.
var Engines = []EngineID{EngineGrid, EngineShelf}

// SheetSpec describes the print substrate in millimeters.
type SheetSpec struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	GapMM    float64 `json:"gap_mm"`    // Space between adjacent stickers
	MarginMM float64 `json:"margin_mm"` // Blank border on every side
}

// UsableWidth returns the width left after removing the margin on both sides.
func (s SheetSpec) UsableWidth() float64 {
	return s.WidthMM - 2*s.MarginMM
}

// UsableHeight returns the height left after removing the margin on both sides.
func (s SheetSpec) UsableHeight() float64 {
	return s.HeightMM - 2*s.MarginMM
}

// Validate checks the sheet dimensions and the usable area.
func (s SheetSpec) Validate() error {
	for _, v := range []float64{s.WidthMM, s.HeightMM, s.GapMM, s.MarginMM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewError(ErrInvalidSpec, "sheet dimensions must be finite (got %.2fx%.2f mm, gap %.2f, margin %.2f)",
				s.WidthMM, s.HeightMM, s.GapMM, s.MarginMM)
		}
	}
	if s.WidthMM <= 0 || s.HeightMM <= 0 {
		return NewError(ErrInvalidSpec, "sheet dimensions must be positive (got %.2fx%.2f mm)", s.WidthMM, s.HeightMM)
	}
	if s.GapMM < 0 {
		return NewError(ErrInvalidSpec, "gap must not be negative (got %.2f mm)", s.GapMM)
	}
	if s.MarginMM < 0 {
		return NewError(ErrInvalidSpec, "margin must not be negative (got %.2f mm)", s.MarginMM)
	}
	if s.UsableWidth() <= 0 || s.UsableHeight() <= 0 {
		return NewError(ErrInvalidSpec, "margin %.2f mm leaves no usable area on a %.2fx%.2f mm sheet",
			s.MarginMM, s.WidthMM, s.HeightMM)
	}
	return nil
}

// SheetConfig is the sheet section of an execution spec: dimensions in cm,
// gap and margin in mm.
type SheetConfig struct {
	WidthCm  float64 `json:"w_cm"`
	HeightCm float64 `json:"h_cm"`
	GapMM    float64 `json:"gap_mm"`
	MarginMM float64 `json:"margin_mm"`
}

// SheetSpec converts the config to millimeters and validates it.
func (c SheetConfig) SheetSpec() (SheetSpec, error) {
	s := SheetSpec{
		WidthMM:  CmToMM(c.WidthCm),
		HeightMM: CmToMM(c.HeightCm),
		GapMM:    c.GapMM,
		MarginMM: c.MarginMM,
	}
	if err := s.Validate(); err != nil {
		return SheetSpec{}, err
	}
	return s, nil
}

// AssetInfo is one raster in the catalog.
type AssetInfo struct {
	ID       string `json:"id"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
	Path     string `json:"path,omitempty"`
}

// SameSize reports whether both assets share pixel dimensions.
func (a AssetInfo) SameSize(o AssetInfo) bool {
	return a.WidthPx == o.WidthPx && a.HeightPx == o.HeightPx
}

// GridLayout is the uniform tiling computed once per grid job.
type GridLayout struct {
	Cols            int     `json:"cols"`
	Rows            int     `json:"rows"`
	CapacityPerPage int     `json:"capacity_per_page"`
	ItemWidthMM     float64 `json:"item_width_mm"`
	ItemHeightMM    float64 `json:"item_height_mm"`
	StepXMM         float64 `json:"step_x_mm"`
	StepYMM         float64 `json:"step_y_mm"`
}

// Placement positions one sticker on a page. X/Y is the lower-left corner
// with the origin at the bottom-left of the sheet. Width and Height are the
// footprint on the sheet, already swapped when Rotated is set.
type Placement struct {
	PageIndex int     `json:"page"`
	X         float64 `json:"x_mm"`
	Y         float64 `json:"y_mm"`
	Width     float64 `json:"width_mm"`
	Height    float64 `json:"height_mm"`
	Rotated   bool    `json:"rotated"`
	AssetID   string  `json:"asset_id"`
}

// Job is the complete result of a layout run, handed to renderers.
type Job struct {
	ID          string        `json:"id"`
	Engine      EngineID      `json:"engine"`
	Sheet       SheetSpec     `json:"sheet"`
	Sizing      StickerSizing `json:"sizing"`
	Layout      *GridLayout   `json:"layout,omitempty"` // grid engine only
	Placements  []Placement   `json:"placements"`
	TotalPlaced int           `json:"total_placed"`
	TotalPages  int           `json:"total_pages"`
}

// NewJobID returns a short random identifier for a job.
func NewJobID() string {
	return uuid.New().String()[:8]
}

// PagePlacements returns the placements that belong to the given page,
// preserving order.
func (j Job) PagePlacements(page int) []Placement {
	var out []Placement
	for _, p := range j.Placements {
		if p.PageIndex == page {
			out = append(out, p)
		}
	}
	return out
}

// UsedArea returns the summed footprint of all placements in mm².
func (j Job) UsedArea() float64 {
	total := 0.0
	for _, p := range j.Placements {
		total += p.Width * p.Height
	}
	return total
}

// Efficiency returns the share of usable sheet area covered by stickers
// across all pages, as a percentage.
func (j Job) Efficiency() float64 {
	usable := j.Sheet.UsableWidth() * j.Sheet.UsableHeight() * float64(j.TotalPages)
	if usable <= 0 {
		return 0
	}
	return j.UsedArea() / usable * 100
}

// QuantityEntry is one line of an execution spec.
type QuantityEntry struct {
	AssetID string       `json:"asset_id"`
	Qty     int          `json:"qty"`
	Sizing  *AssetSizing `json:"sizing,omitempty"`
}

// ExecutionSpec is the versioned description of a packing job.
type ExecutionSpec struct {
	SpecVersion   int             `json:"spec_version"`
	Timestamp     string          `json:"timestamp"`
	FolderPath    string          `json:"folder_path"`
	DPI           float64         `json:"dpi"`
	Sheet         SheetConfig     `json:"sheet"`
	StickerSizing StickerSizing   `json:"sticker_sizing"`
	Quantities    []QuantityEntry `json:"quantities"`
	Engine        EngineID        `json:"engine"`
}

// Execution spec defaults.
const (
	CurrentSpecVersion = 2
	DefaultDPI         = 300.0
	DefaultSheetWCm    = 100.0
	DefaultSheetHCm    = 50.0
	DefaultGapMM       = 3.0
	DefaultMarginMM    = 0.0
)

// DefaultSheetConfig returns the 100x50 cm sheet with a 3 mm gap.
func DefaultSheetConfig() SheetConfig {
	return SheetConfig{
		WidthCm:  DefaultSheetWCm,
		HeightCm: DefaultSheetHCm,
		GapMM:    DefaultGapMM,
		MarginMM: DefaultMarginMM,
	}
}

// DefaultExecutionSpec returns a spec with every field at its default and no
// quantities.
func DefaultExecutionSpec() ExecutionSpec {
	return ExecutionSpec{
		SpecVersion:   CurrentSpecVersion,
		DPI:           DefaultDPI,
		Sheet:         DefaultSheetConfig(),
		StickerSizing: StickerSizing{Mode: SizingFromImageDPI},
		Engine:        EngineGrid,
	}
}

// TotalQuantity sums the positive quantities.
func (s ExecutionSpec) TotalQuantity() int {
	total := 0
	for _, q := range s.Quantities {
		if q.Qty > 0 {
			total += q.Qty
		}
	}
	return total
}

// CutMode selects which cut line, if any, is drawn around each sticker.
type CutMode string

const (
	CutNone   CutMode = "none"   // No cut line
	CutSimple CutMode = "simple" // Rectangle grown by the offset
	CutReal   CutMode = "real"   // Traced silhouette contour
)

// ParseCutMode validates a cut mode string. Empty means none.
func ParseCutMode(s string) (CutMode, error) {
	switch CutMode(s) {
	case "", CutNone:
		return CutNone, nil
	case CutSimple, CutReal:
		return CutMode(s), nil
	}
	return "", NewError(ErrInvalidSpec, "unknown cut mode %q (expected none, simple or real)", s)
}

// CutOptions controls cut line generation.
type CutOptions struct {
	Mode     CutMode `json:"mode"`
	OffsetMM float64 `json:"offset_mm"`
}

// WatermarkOptions controls the small mark stamped on each sticker.
type WatermarkOptions struct {
	Path    string  `json:"path"`
	Opacity float64 `json:"opacity"` // 0..1
	SizeMM  float64 `json:"size_mm"`
}

// Enabled reports whether a watermark image was configured.
func (w WatermarkOptions) Enabled() bool {
	return w.Path != "" && w.Opacity > 0
}

// Contour is a closed cut outline in normalized 0-1000 space on both axes,
// x to the right and y downward. The space covers the sticker rectangle grown
// by the cut offset on every side.
type Contour = geom.Polyline

// ContourSpace is the extent of the normalized contour coordinate space.
const ContourSpace = 1000.0

// ContourKey identifies one cached contour computation.
type ContourKey struct {
	AssetID  string
	WidthMM  float64
	HeightMM float64
	OffsetMM float64
	Rotated  bool
}

// ContourKeyFor builds the cache key for a placement. Placement sizes are
// footprints, so rotated placements are turned back to the source orientation.
func ContourKeyFor(p Placement, offsetMM float64) ContourKey {
	w, h := p.Width, p.Height
	if p.Rotated {
		w, h = h, w
	}
	return ContourKey{AssetID: p.AssetID, WidthMM: w, HeightMM: h, OffsetMM: offsetMM, Rotated: p.Rotated}
}
