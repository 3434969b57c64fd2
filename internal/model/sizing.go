package model

import "math"

// MMPerInch converts between DPI and millimeters.
const MMPerInch = 25.4

// SizingMode selects how sticker physical size is derived.
type SizingMode string

const (
	SizingPhysical     SizingMode = "physical"     // Fixed width x height in cm
	SizingFromImageDPI SizingMode = "fromImageDpi" // Pixel size at the job DPI
	SizingPerAsset     SizingMode = "perAsset"     // Each quantity line carries its own sizing
)

// Axis is the dimension a per-asset physical size applies to.
type Axis string

const (
	AxisWidth  Axis = "w"
	AxisHeight Axis = "h"
)

// StickerSizing is the job-level sizing choice.
type StickerSizing struct {
	Mode     SizingMode `json:"mode"`
	WidthCm  float64    `json:"w_cm,omitempty"`  // physical only
	HeightCm float64    `json:"h_cm,omitempty"` // physical only
}

// AssetSizing is the per-line sizing used with SizingPerAsset. Mode is
// either SizingPhysical (Axis + SizeCm) or SizingFromImageDPI.
type AssetSizing struct {
	Mode   SizingMode `json:"mode"`
	Axis   Axis       `json:"axis,omitempty"`
	SizeCm float64    `json:"size_cm,omitempty"`
}

// ResolvedSize is a sticker size in millimeters plus the resolution the
// source pixels will print at.
type ResolvedSize struct {
	WidthMM      float64
	HeightMM     float64
	EffectiveDPI float64
}

// CmToMM converts centimeters to millimeters.
func CmToMM(cm float64) float64 {
	return cm * 10
}

// PxToMM converts a pixel count at the given DPI to millimeters.
func PxToMM(px int, dpi float64) float64 {
	return float64(px) / dpi * MMPerInch
}

// effectiveDPI is the print resolution when widthPx pixels span widthMM.
func effectiveDPI(widthPx int, widthMM float64) float64 {
	return float64(widthPx) * MMPerInch / widthMM
}

func checkAsset(a AssetInfo) error {
	if a.WidthPx <= 0 || a.HeightPx <= 0 {
		return NewError(ErrInvalidSpec, "asset %s has invalid pixel size %dx%d", a.ID, a.WidthPx, a.HeightPx)
	}
	return nil
}

func checkDPI(dpi float64) error {
	if dpi <= 0 || math.IsNaN(dpi) {
		return NewError(ErrInvalidSpec, "dpi must be positive (got %.2f)", dpi)
	}
	return nil
}

// ResolveStickerSizing resolves a job-level sizing for one asset. perAsset is
// rejected here; those jobs resolve every line with ResolveAssetSizing.
func ResolveStickerSizing(s StickerSizing, a AssetInfo, dpi float64) (ResolvedSize, error) {
	if err := checkAsset(a); err != nil {
		return ResolvedSize{}, err
	}
	switch s.Mode {
	case SizingPhysical:
		if s.WidthCm <= 0 || s.HeightCm <= 0 {
			return ResolvedSize{}, NewError(ErrInvalidSpec, "physical sticker size must be positive (got %.2fx%.2f cm)", s.WidthCm, s.HeightCm)
		}
		w := CmToMM(s.WidthCm)
		return ResolvedSize{WidthMM: w, HeightMM: CmToMM(s.HeightCm), EffectiveDPI: effectiveDPI(a.WidthPx, w)}, nil
	case SizingFromImageDPI, "":
		if err := checkDPI(dpi); err != nil {
			return ResolvedSize{}, err
		}
		return ResolvedSize{WidthMM: PxToMM(a.WidthPx, dpi), HeightMM: PxToMM(a.HeightPx, dpi), EffectiveDPI: dpi}, nil
	case SizingPerAsset:
		return ResolvedSize{}, NewError(ErrInvalidSpec, "perAsset sizing needs per-line sizes and cannot be resolved per job")
	}
	return ResolvedSize{}, NewError(ErrInvalidSpec, "unknown sizing mode %q", s.Mode)
}

// ResolveAssetSizing resolves a per-line sizing. For physical sizes the other
// axis follows the source aspect ratio.
func ResolveAssetSizing(s AssetSizing, a AssetInfo, dpi float64) (ResolvedSize, error) {
	if err := checkAsset(a); err != nil {
		return ResolvedSize{}, err
	}
	switch s.Mode {
	case SizingFromImageDPI:
		if err := checkDPI(dpi); err != nil {
			return ResolvedSize{}, err
		}
		return ResolvedSize{WidthMM: PxToMM(a.WidthPx, dpi), HeightMM: PxToMM(a.HeightPx, dpi), EffectiveDPI: dpi}, nil
	case SizingPhysical, "":
		if s.SizeCm <= 0 {
			return ResolvedSize{}, NewError(ErrInvalidSpec, "asset %s: size must be positive (got %.2f cm)", a.ID, s.SizeCm)
		}
		ratio := float64(a.WidthPx) / float64(a.HeightPx)
		size := CmToMM(s.SizeCm)
		var w, h float64
		switch s.Axis {
		case AxisWidth:
			w, h = size, size/ratio
		case AxisHeight:
			w, h = size*ratio, size
		default:
			return ResolvedSize{}, NewError(ErrInvalidSpec, "asset %s: unknown size axis %q", a.ID, s.Axis)
		}
		return ResolvedSize{WidthMM: w, HeightMM: h, EffectiveDPI: effectiveDPI(a.WidthPx, w)}, nil
	}
	return ResolvedSize{}, NewError(ErrInvalidSpec, "asset %s: unsupported sizing mode %q", a.ID, s.Mode)
}
