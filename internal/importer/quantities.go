// Package importer reads and writes the files that feed an imposition run:
// the execution spec CSV and quantity lists exported from spreadsheets.
// Quantity lists support automatic delimiter detection, flexible column
// mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// ImportResult holds the results of a quantity import.
type ImportResult struct {
	Quantities []model.QuantityEntry
	Errors     []string
	Warnings   []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	AssetID int
	Qty     int
	Axis    int
	Size    int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"asset": {"assetid", "asset", "asset id", "id", "sticker", "name", "file", "filename", "image"},
	"qty":   {"qty", "quantity", "count", "copies", "amount", "pcs", "pieces"},
	"axis":  {"sizeaxis", "size axis", "axis"},
	"size":  {"sizecm", "size cm", "size", "size (cm)"},
}

// delimiters are the separators a quantity list may use, in preference order.
var delimiters = []rune{',', ';', '\t', '|'}

// DetectCSVDelimiter picks the separator of a quantity list. A separator that
// splits the first line into a header naming both the asset and the quantity
// column wins outright. Without such a header, the separator under which the
// most rows carry a number in the second column is used; comma if none does.
func DetectCSVDelimiter(data []byte) rune {
	best, bestRows := ',', 0
	for _, delim := range delimiters {
		rows := splitRows(data, delim)
		if len(rows) == 0 {
			continue
		}
		if m, ok := DetectColumns(rows[0]); ok && m.AssetID >= 0 && m.Qty >= 0 {
			return delim
		}
		n := 0
		for _, row := range rows {
			if len(row) < 2 {
				continue
			}
			if _, err := parseNum(getCell(row, 1)); err == nil {
				n++
			}
		}
		if n > bestRows {
			best, bestRows = delim, n
		}
	}
	return best
}

// splitRows reads data with delim, keeping the rows read before any error.
func splitRows(data []byte, delim rune) [][]string {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := r.Read()
		if err != nil {
			return rows
		}
		rows = append(rows, row)
	}
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping (asset, qty, axis, size) and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{AssetID: -1, Qty: -1, Axis: -1, Size: -1}
	slots := map[string]*int{
		"asset": &mapping.AssetID,
		"qty":   &mapping.Qty,
		"axis":  &mapping.Axis,
		"size":  &mapping.Size,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[role]; *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{AssetID: 0, Qty: 1, Axis: 2, Size: 3}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseRow extracts a quantity entry from a row.
// Returns the entry, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.QuantityEntry, string, string) {
	id := getCell(row, mapping.AssetID)
	if id == "" {
		return model.QuantityEntry{}, fmt.Sprintf("%s: Missing asset id", rowLabel), ""
	}
	if strings.EqualFold(filepath.Ext(id), ".png") {
		id = strings.TrimSuffix(id, filepath.Ext(id))
	}

	qtyStr := getCell(row, mapping.Qty)
	if qtyStr == "" {
		return model.QuantityEntry{}, fmt.Sprintf("%s: Missing quantity value", rowLabel), ""
	}
	qty, err := parseNum(qtyStr)
	if err != nil {
		return model.QuantityEntry{}, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), ""
	}

	var warning string
	entry := model.QuantityEntry{AssetID: id, Qty: int(qty)}
	if entry.Qty < 0 {
		entry.Qty = 0
		warning = fmt.Sprintf("%s: Negative quantity for %s, using 0", rowLabel, id)
	}

	axis := getCell(row, mapping.Axis)
	if axis != "" {
		sizing, err := parseLineSizing(id, axis, getCell(row, mapping.Size))
		if err != nil {
			return model.QuantityEntry{}, fmt.Sprintf("%s: %v", rowLabel, err), ""
		}
		entry.Sizing = sizing
	}
	return entry, "", warning
}

// ImportQuantities imports a quantity list, choosing the reader by file
// extension.
func ImportQuantities(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx":
		return ImportExcel(path)
	case ".csv", ".txt", ".tsv":
		return ImportCSV(path)
	}
	return ImportResult{Errors: []string{fmt.Sprintf("Unsupported quantity file type '%s'", filepath.Ext(path))}}
}

// ImportCSV imports quantities from a CSV file with any of the supported
// delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	imported := ImportCSVFromReader(bytes.NewReader(data), delimiter)
	imported.Warnings = append(result.Warnings, imported.Warnings...)
	return imported
}

// ImportCSVFromReader imports quantities from a reader with a known delimiter.
func ImportCSVFromReader(r io.Reader, delimiter rune) ImportResult {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	if len(records) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}
	return importFromRows(records, "Line")
}

// ImportExcel imports quantities from the first sheet of a workbook.
func ImportExcel(path string) ImportResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{Errors: []string{"Excel file has no sheets"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read Excel data: %v", err)}}
	}
	if len(rows) == 0 {
		return ImportResult{Errors: []string{"Sheet is empty"}}
	}
	return importFromRows(rows, "Row")
}

// importFromRows is the shared logic for CSV and Excel data. Repeated asset
// ids are merged into one entry.
func importFromRows(rows [][]string, rowPrefix string) ImportResult {
	var result ImportResult

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		var missing []string
		if mapping.AssetID == -1 {
			missing = append(missing, "Asset")
		}
		if mapping.Qty == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if _, err := strconv.ParseFloat(getCell(rows[0], 1), 64); err != nil {
		startRow = 1
		result.Warnings = append(result.Warnings, "Skipping unrecognized header row")
	}

	index := make(map[string]int)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		entry, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		if at, dup := index[entry.AssetID]; dup {
			prev := &result.Quantities[at]
			prev.Qty += entry.Qty
			if prev.Sizing == nil {
				prev.Sizing = entry.Sizing
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Duplicate asset %s, quantities summed", rowLabel, entry.AssetID))
			continue
		}
		index[entry.AssetID] = len(result.Quantities)
		result.Quantities = append(result.Quantities, entry)
	}

	if len(result.Quantities) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
