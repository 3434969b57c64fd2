package model

import (
	"testing"
)

func TestNewSheetPreset(t *testing.T) {
	p := NewSheetPreset("A4", 21, 29.7, 3, 10, "Sticker paper")
	if len(p.ID) != 8 {
		t.Errorf("expected 8 character id, got %q", p.ID)
	}
	if p.Sheet.WidthCm != 21 || p.Sheet.HeightCm != 29.7 || p.Sheet.MarginMM != 10 {
		t.Errorf("unexpected sheet %+v", p.Sheet)
	}
	if _, err := p.Sheet.SheetSpec(); err != nil {
		t.Errorf("preset sheet should be valid: %v", err)
	}
}

func TestDefaultInventoryIsValid(t *testing.T) {
	inv := DefaultInventory()
	if len(inv.Sheets) == 0 {
		t.Fatal("expected default presets")
	}
	for _, p := range inv.Sheets {
		if _, err := p.Sheet.SheetSpec(); err != nil {
			t.Errorf("preset %s is invalid: %v", p.Name, err)
		}
	}
	if inv.Sheets[0].Sheet != DefaultSheetConfig() {
		t.Errorf("first preset should match the default sheet, got %+v", inv.Sheets[0].Sheet)
	}
}

func TestInventoryFindSheetByName(t *testing.T) {
	inv := DefaultInventory()
	if p := inv.FindSheetByName("a3"); p == nil || p.Name != "A3" {
		t.Errorf("expected case-insensitive match for A3, got %+v", p)
	}
	if p := inv.FindSheetByName("Letter"); p != nil {
		t.Errorf("expected nil, got %+v", p)
	}
	names := inv.SheetNames()
	if len(names) != len(inv.Sheets) || names[2] != "A4" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestInventoryUpsert(t *testing.T) {
	inv := Inventory{}
	inv.Upsert(SheetPreset{Name: "shop", Sheet: SheetConfig{WidthCm: 30, HeightCm: 30}})
	if len(inv.Sheets) != 1 || inv.Sheets[0].ID == "" {
		t.Fatalf("expected one preset with an id, got %+v", inv.Sheets)
	}
	id := inv.Sheets[0].ID

	inv.Upsert(SheetPreset{Name: "SHOP", Sheet: SheetConfig{WidthCm: 40, HeightCm: 30}})
	if len(inv.Sheets) != 1 {
		t.Fatalf("expected replacement, got %d presets", len(inv.Sheets))
	}
	if inv.Sheets[0].ID != id || inv.Sheets[0].Sheet.WidthCm != 40 {
		t.Errorf("unexpected preset after upsert %+v", inv.Sheets[0])
	}
}
