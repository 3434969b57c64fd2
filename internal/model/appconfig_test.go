package model

import "testing"

func TestDefaultAppConfigMatchesSpecDefaults(t *testing.T) {
	cfg := DefaultAppConfig()
	spec := DefaultExecutionSpec()

	if cfg.SheetWidthCm != spec.Sheet.WidthCm || cfg.SheetHeightCm != spec.Sheet.HeightCm {
		t.Errorf("sheet mismatch: config=%vx%v spec=%vx%v", cfg.SheetWidthCm, cfg.SheetHeightCm, spec.Sheet.WidthCm, spec.Sheet.HeightCm)
	}
	if cfg.GapMM != spec.Sheet.GapMM {
		t.Errorf("gap mismatch: config=%v spec=%v", cfg.GapMM, spec.Sheet.GapMM)
	}
	if cfg.MarginMM != spec.Sheet.MarginMM {
		t.Errorf("margin mismatch: config=%v spec=%v", cfg.MarginMM, spec.Sheet.MarginMM)
	}
	if cfg.DPI != spec.DPI {
		t.Errorf("dpi mismatch: config=%v spec=%v", cfg.DPI, spec.DPI)
	}
	if EngineID(cfg.Engine) != spec.Engine {
		t.Errorf("engine mismatch: config=%q spec=%q", cfg.Engine, spec.Engine)
	}
	if _, err := ParseCutMode(cfg.CutMode); err != nil {
		t.Errorf("default cut mode %q is invalid: %v", cfg.CutMode, err)
	}
}

func TestApplyToSpec(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.SheetWidthCm = 32
	cfg.SheetHeightCm = 45
	cfg.MarginMM = 10
	cfg.DPI = 600
	cfg.Engine = string(EngineShelf)

	spec := DefaultExecutionSpec()
	cfg.ApplyToSpec(&spec)

	if spec.Sheet.WidthCm != 32 || spec.Sheet.HeightCm != 45 || spec.Sheet.MarginMM != 10 {
		t.Errorf("sheet not applied: %+v", spec.Sheet)
	}
	if spec.DPI != 600 {
		t.Errorf("dpi = %v, want 600", spec.DPI)
	}
	if spec.Engine != EngineShelf {
		t.Errorf("engine = %q, want %q", spec.Engine, EngineShelf)
	}
}

func TestApplyToSpecKeepsEngineWhenEmpty(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Engine = ""

	spec := DefaultExecutionSpec()
	spec.Engine = EngineShelf
	cfg.ApplyToSpec(&spec)

	if spec.Engine != EngineShelf {
		t.Errorf("engine = %q, want unchanged %q", spec.Engine, EngineShelf)
	}
}
