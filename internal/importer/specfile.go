package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// Execution spec metadata keys.
const (
	keySpecVersion  = "specVersion"
	keyTimestamp    = "timestamp"
	keyFolderPath   = "folderPath"
	keyDPI          = "dpi"
	keySheetW       = "sheet.wCm"
	keySheetH       = "sheet.hCm"
	keyGap          = "gapMm"
	keyMargin       = "marginMm"
	keyAlgo         = "algoVersion"
	keySizingMode   = "stickerSizing.mode"
	keySizingW      = "stickerSizing.wCm"
	keySizingH      = "stickerSizing.hCm"
	legacyKeySheetW = "sheetWcm"
	legacyKeySheetH = "sheetHcm"

	// axisDPI marks a per-asset line sized from the image DPI.
	axisDPI = "dpi"
)

// formatNum prints the shortest representation that parses back exactly.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseNum parses a finite number; NaN and infinities are rejected.
func parseNum(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteSpec serializes an execution spec: quoted key/value metadata lines,
// a blank line, then one row per quantity. Per-asset specs carry the extra
// sizeAxis and sizeCm columns.
func WriteSpec(w io.Writer, spec model.ExecutionSpec) error {
	bw := bufio.NewWriter(w)

	meta := [][2]string{
		{keySpecVersion, strconv.Itoa(spec.SpecVersion)},
		{keyTimestamp, spec.Timestamp},
		{keyFolderPath, spec.FolderPath},
		{keyDPI, formatNum(spec.DPI)},
		{keySheetW, formatNum(spec.Sheet.WidthCm)},
		{keySheetH, formatNum(spec.Sheet.HeightCm)},
		{keyGap, formatNum(spec.Sheet.GapMM)},
		{keyMargin, formatNum(spec.Sheet.MarginMM)},
		{keyAlgo, string(spec.Engine)},
		{keySizingMode, string(spec.StickerSizing.Mode)},
	}
	if spec.StickerSizing.Mode == model.SizingPhysical {
		meta = append(meta,
			[2]string{keySizingW, formatNum(spec.StickerSizing.WidthCm)},
			[2]string{keySizingH, formatNum(spec.StickerSizing.HeightCm)},
		)
	}
	for _, kv := range meta {
		if _, err := fmt.Fprintf(bw, "%s,%s\n", quoteField(kv[0]), quoteField(kv[1])); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}

	perAsset := spec.StickerSizing.Mode == model.SizingPerAsset
	cw := csv.NewWriter(bw)
	header := []string{"assetId", "qty"}
	if perAsset {
		header = append(header, "sizeAxis", "sizeCm")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, q := range spec.Quantities {
		row := []string{q.AssetID, strconv.Itoa(q.Qty)}
		if perAsset {
			axis, size := "", ""
			if q.Sizing != nil {
				if q.Sizing.Mode == model.SizingFromImageDPI {
					axis = axisDPI
				} else {
					axis, size = string(q.Sizing.Axis), formatNum(q.Sizing.SizeCm)
				}
			}
			row = append(row, axis, size)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteSpecFile writes an execution spec to path, creating parent directories.
func WriteSpecFile(path string, spec model.ExecutionSpec) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create spec directory: %w", err)
	}
	var buf bytes.Buffer
	if err := WriteSpec(&buf, spec); err != nil {
		return fmt.Errorf("failed to encode spec: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write spec file: %w", err)
	}
	return nil
}

// ReadSpecFile reads an execution spec from path.
func ReadSpecFile(path string) (model.ExecutionSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ExecutionSpec{}, fmt.Errorf("failed to open spec file: %w", err)
	}
	defer f.Close()
	return ReadSpec(f)
}

// ReadSpec parses an execution spec. Files written before versioning (no
// specVersion, sheetWcm/sheetHcm keys, no sizing columns) are read with
// defaults for everything they lack. Negative quantities become zero.
func ReadSpec(r io.Reader) (model.ExecutionSpec, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return model.ExecutionSpec{}, model.WrapError(model.ErrInvalidSpec, err, "cannot parse spec")
	}

	meta := make(map[string]string)
	i := 0
	for ; i < len(records); i++ {
		rec := records[i]
		if strings.EqualFold(strings.TrimSpace(rec[0]), "assetId") {
			i++
			break
		}
		if len(rec) >= 2 {
			meta[strings.TrimSpace(rec[0])] = strings.TrimSpace(strings.Join(rec[1:], ","))
		}
	}

	spec := model.DefaultExecutionSpec()
	spec.SpecVersion = 1
	spec.Timestamp = meta[keyTimestamp]
	spec.FolderPath = meta[keyFolderPath]

	num := func(v *float64, keys ...string) error {
		for _, k := range keys {
			s, ok := meta[k]
			if !ok || s == "" {
				continue
			}
			f, err := parseNum(s)
			if err != nil {
				return model.WrapError(model.ErrInvalidSpec, err, "invalid %s %q", k, s)
			}
			*v = f
			return nil
		}
		return nil
	}
	if s := meta[keySpecVersion]; s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return model.ExecutionSpec{}, model.WrapError(model.ErrInvalidSpec, err, "invalid %s %q", keySpecVersion, s)
		}
		spec.SpecVersion = v
	}
	for _, f := range []struct {
		dst  *float64
		keys []string
	}{
		{&spec.DPI, []string{keyDPI}},
		{&spec.Sheet.WidthCm, []string{keySheetW, legacyKeySheetW}},
		{&spec.Sheet.HeightCm, []string{keySheetH, legacyKeySheetH}},
		{&spec.Sheet.GapMM, []string{keyGap}},
		{&spec.Sheet.MarginMM, []string{keyMargin}},
		{&spec.StickerSizing.WidthCm, []string{keySizingW}},
		{&spec.StickerSizing.HeightCm, []string{keySizingH}},
	} {
		if err := num(f.dst, f.keys...); err != nil {
			return model.ExecutionSpec{}, err
		}
	}
	if s := meta[keyAlgo]; s != "" {
		spec.Engine = model.EngineID(s)
	}
	if s := meta[keySizingMode]; s != "" {
		switch mode := model.SizingMode(s); mode {
		case model.SizingPhysical, model.SizingFromImageDPI, model.SizingPerAsset:
			spec.StickerSizing.Mode = mode
		default:
			return model.ExecutionSpec{}, model.NewError(model.ErrInvalidSpec, "unknown %s %q", keySizingMode, s)
		}
	}

	for ; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		id := strings.TrimSpace(rec[0])
		qtyStr := strings.TrimSpace(rec[1])
		qty, err := parseNum(qtyStr)
		if err != nil {
			return model.ExecutionSpec{}, model.WrapError(model.ErrInvalidSpec, err, "invalid quantity %q for %s", qtyStr, id)
		}
		entry := model.QuantityEntry{AssetID: id, Qty: max(0, int(qty))}

		if len(rec) >= 3 {
			sizing, err := parseLineSizing(id, strings.TrimSpace(rec[2]), cell(rec, 3))
			if err != nil {
				return model.ExecutionSpec{}, err
			}
			entry.Sizing = sizing
		}
		spec.Quantities = append(spec.Quantities, entry)
	}
	return spec, nil
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// parseLineSizing decodes the sizeAxis/sizeCm columns. An empty axis means
// the line has no sizing.
func parseLineSizing(id, axis, size string) (*model.AssetSizing, error) {
	switch strings.ToLower(axis) {
	case "":
		return nil, nil
	case axisDPI:
		return &model.AssetSizing{Mode: model.SizingFromImageDPI}, nil
	case string(model.AxisWidth), string(model.AxisHeight):
		cm, err := parseNum(size)
		if err != nil {
			return nil, model.WrapError(model.ErrInvalidSpec, err, "invalid sizeCm %q for %s", size, id)
		}
		return &model.AssetSizing{Mode: model.SizingPhysical, Axis: model.Axis(strings.ToLower(axis)), SizeCm: cm}, nil
	}
	return nil, model.NewError(model.ErrInvalidSpec, "invalid sizeAxis %q for %s", axis, id)
}
