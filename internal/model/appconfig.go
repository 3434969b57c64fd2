package model

// AppConfig holds user defaults applied to every new job. Command-line flags
// override individual values.
type AppConfig struct {
	// Default sheet applied to new jobs
	SheetWidthCm  float64 `toml:"sheet_width_cm"`
	SheetHeightCm float64 `toml:"sheet_height_cm"`
	GapMM         float64 `toml:"gap_mm"`
	MarginMM      float64 `toml:"margin_mm"`
	DPI           float64 `toml:"dpi"`
	Engine        string  `toml:"engine"`

	// Rendering
	CutMode          string  `toml:"cut_mode"` // "none", "simple", "real"
	CutOffsetMM      float64 `toml:"cut_offset_mm"`
	DrawBoxes        bool    `toml:"draw_boxes"`
	DrawCrosshairs   bool    `toml:"draw_crosshairs"`
	PageTags         bool    `toml:"page_tags"` // QR tag in the sheet margin
	WatermarkPath    string  `toml:"watermark_path"`
	WatermarkOpacity float64 `toml:"watermark_opacity"`
	WatermarkSizeMM  float64 `toml:"watermark_size_mm"`

	// Application preferences
	OutputDir      string `toml:"output_dir"`
	ContourWorkers int    `toml:"contour_workers"` // 0 = number of CPUs
}

// DefaultAppConfig returns an AppConfig populated with the execution spec
// defaults.
func DefaultAppConfig() AppConfig {
	sheet := DefaultSheetConfig()
	return AppConfig{
		SheetWidthCm:     sheet.WidthCm,
		SheetHeightCm:    sheet.HeightCm,
		GapMM:            sheet.GapMM,
		MarginMM:         sheet.MarginMM,
		DPI:              DefaultDPI,
		Engine:           string(EngineGrid),
		CutMode:          string(CutNone),
		CutOffsetMM:      1.5,
		DrawBoxes:        false,
		DrawCrosshairs:   true,
		PageTags:         true,
		WatermarkOpacity: 0.35,
		WatermarkSizeMM:  6,
		OutputDir:        "out",
		ContourWorkers:   0,
	}
}

// ApplyToSpec copies the sheet, dpi and engine defaults into an execution spec.
func (c AppConfig) ApplyToSpec(s *ExecutionSpec) {
	s.Sheet = SheetConfig{
		WidthCm:  c.SheetWidthCm,
		HeightCm: c.SheetHeightCm,
		GapMM:    c.GapMM,
		MarginMM: c.MarginMM,
	}
	s.DPI = c.DPI
	if c.Engine != "" {
		s.Engine = EngineID(c.Engine)
	}
}
