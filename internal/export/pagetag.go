package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// Page tags only fit when the bottom margin has room for a readable code.
const (
	minTagMarginMM = 8.0
	maxTagSizeMM   = 20.0
	tagPaddingMM   = 1.0
)

// PageTag holds the data encoded into each page's QR code.
type PageTag struct {
	JobID  string `json:"job"`
	Page   int    `json:"page"`
	Pages  int    `json:"pages"`
	Engine string `json:"engine"`
}

// Caption is the human readable line printed beside the code.
func (t PageTag) Caption() string {
	return fmt.Sprintf("%s  %d/%d  %s", t.JobID, t.Page, t.Pages, t.Engine)
}

// tagSize is the QR edge for a given margin.
func tagSize(marginMM float64) float64 {
	return math.Min(marginMM-2*tagPaddingMM, maxTagSizeMM)
}

// drawPageTag places the QR code in the lower-right margin of the current page.
func drawPageTag(pdf *fpdf.Fpdf, sheet model.SheetSpec, tag PageTag) error {
	data, err := json.Marshal(tag)
	if err != nil {
		return fmt.Errorf("failed to marshal page tag: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	name := fmt.Sprintf("pagetag_%d", tag.Page)
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))

	size := tagSize(sheet.MarginMM)
	x := sheet.WidthMM - sheet.MarginMM - size
	y := sheet.HeightMM - sheet.MarginMM + (sheet.MarginMM-size)/2
	pdf.ImageOptions(name, x, y, size, size, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(x-62, y+size/2-1.5)
	pdf.CellFormat(60, 3, tag.Caption(), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}
