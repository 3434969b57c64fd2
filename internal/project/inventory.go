package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// DefaultInventoryPath returns the default file path for the sheet presets.
// This is located at ~/.stickerimposer/sheets.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "sheets.json")
}

// SaveInventory writes the inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv model.Inventory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadInventory reads the inventory from the specified JSON file.
// If the file does not exist, it returns the default inventory and saves it.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			inv := model.DefaultInventory()
			if saveErr := SaveInventory(path, inv); saveErr != nil {
				return inv, saveErr
			}
			return inv, nil
		}
		return model.Inventory{}, err
	}
	var inv model.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return model.Inventory{}, fmt.Errorf("failed to parse sheet presets: %w", err)
	}
	return inv, nil
}

// ImportInventory merges presets from a shared JSON file into an existing
// inventory. Presets with the same name are replaced.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Inventory
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, fmt.Errorf("failed to parse sheet presets: %w", err)
	}

	merged := model.Inventory{Sheets: append([]model.SheetPreset(nil), existing.Sheets...)}
	for _, p := range imported.Sheets {
		if p.Name == "" {
			continue
		}
		if _, err := p.Sheet.SheetSpec(); err != nil {
			return existing, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		merged.Upsert(p)
	}
	return merged, nil
}
