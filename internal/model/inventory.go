package model

import (
	"strings"

	"github.com/google/uuid"
)

// SheetPreset is a reusable sheet definition, selected by name.
type SheetPreset struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Sheet SheetConfig `json:"sheet"`
	Media string      `json:"media"`
}

// NewSheetPreset creates a new SheetPreset with a generated ID.
func NewSheetPreset(name string, widthCm, heightCm, gapMM, marginMM float64, media string) SheetPreset {
	return SheetPreset{
		ID:    uuid.New().String()[:8],
		Name:  name,
		Sheet: SheetConfig{WidthCm: widthCm, HeightCm: heightCm, GapMM: gapMM, MarginMM: marginMM},
		Media: media,
	}
}

// Inventory holds the user's saved sheet presets.
type Inventory struct {
	Sheets []SheetPreset `json:"sheets"`
}

// DefaultInventory returns an inventory populated with common print media.
func DefaultInventory() Inventory {
	return Inventory{
		Sheets: []SheetPreset{
			NewSheetPreset("roll-100x50", DefaultSheetWCm, DefaultSheetHCm, DefaultGapMM, DefaultMarginMM, "Vinyl roll"),
			NewSheetPreset("roll-60x100", 60, 100, 3, 5, "Vinyl roll"),
			NewSheetPreset("A4", 21, 29.7, 3, 10, "Sticker paper"),
			NewSheetPreset("A3", 29.7, 42, 3, 10, "Sticker paper"),
			NewSheetPreset("SRA3", 32, 45, 3, 10, "Sticker paper"),
		},
	}
}

// FindSheetByName returns a pointer to the preset with the given name
// (case-insensitive), or nil.
func (inv *Inventory) FindSheetByName(name string) *SheetPreset {
	for i := range inv.Sheets {
		if strings.EqualFold(inv.Sheets[i].Name, name) {
			return &inv.Sheets[i]
		}
	}
	return nil
}

// SheetNames returns the preset names in inventory order.
func (inv *Inventory) SheetNames() []string {
	names := make([]string, len(inv.Sheets))
	for i, s := range inv.Sheets {
		names[i] = s.Name
	}
	return names
}

// Upsert replaces the preset with the same name or appends a new one.
func (inv *Inventory) Upsert(p SheetPreset) {
	if existing := inv.FindSheetByName(p.Name); existing != nil {
		id := existing.ID
		*existing = p
		if existing.ID == "" {
			existing.ID = id
		}
		return
	}
	if p.ID == "" {
		p.ID = uuid.New().String()[:8]
	}
	inv.Sheets = append(inv.Sheets, p)
}
