package engine

import (
	"math"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// fitEpsilon absorbs floating point noise when an item fills the usable
// area exactly.
const fitEpsilon = 1e-9

// PlanGrid computes the uniform tiling of itemW x itemH stickers on a sheet.
// The last column and row need no trailing gap, hence the +gap term.
func PlanGrid(sheet model.SheetSpec, itemW, itemH float64) (model.GridLayout, error) {
	usableW := sheet.UsableWidth()
	usableH := sheet.UsableHeight()
	if usableW <= 0 || usableH <= 0 {
		return model.GridLayout{}, model.NewError(model.ErrInvalidSpec,
			"margin %.2f mm leaves no usable area", sheet.MarginMM)
	}
	if itemW <= 0 || itemH <= 0 {
		return model.GridLayout{}, model.NewError(model.ErrInvalidSpec,
			"sticker size must be positive (got %.2fx%.2f mm)", itemW, itemH)
	}

	stepX := itemW + sheet.GapMM
	stepY := itemH + sheet.GapMM
	cols := int(math.Floor((usableW+sheet.GapMM)/stepX + fitEpsilon))
	rows := int(math.Floor((usableH+sheet.GapMM)/stepY + fitEpsilon))
	if cols <= 0 || rows <= 0 {
		return model.GridLayout{}, model.NewError(model.ErrDoesNotFit,
			"sticker %.2fx%.2f mm does not fit the usable area %.2fx%.2f mm", itemW, itemH, usableW, usableH)
	}

	return model.GridLayout{
		Cols:            cols,
		Rows:            rows,
		CapacityPerPage: cols * rows,
		ItemWidthMM:     itemW,
		ItemHeightMM:    itemH,
		StepXMM:         stepX,
		StepYMM:         stepY,
	}, nil
}

// AssetQty pairs an asset with the number of copies to place.
type AssetQty struct {
	AssetID string
	Qty     int
}

// GridPagination is the output of PaginateGrid.
type GridPagination struct {
	Placements  []model.Placement
	TotalPlaced int
	TotalPages  int
}

// PaginateGrid emits one placement per unit, filling each page row-major from
// the top-left cell. Negative quantities count as zero.
func PaginateGrid(sheet model.SheetSpec, layout model.GridLayout, items []AssetQty) GridPagination {
	var result GridPagination
	if layout.CapacityPerPage <= 0 || layout.Cols <= 0 {
		result.TotalPages = 1
		return result
	}

	placed := 0
	for _, item := range items {
		for i := 0; i < item.Qty; i++ {
			cell := placed % layout.CapacityPerPage
			row := cell / layout.Cols
			col := cell % layout.Cols

			top := sheet.HeightMM - sheet.MarginMM - float64(row)*layout.StepYMM
			result.Placements = append(result.Placements, model.Placement{
				PageIndex: placed / layout.CapacityPerPage,
				X:         sheet.MarginMM + float64(col)*layout.StepXMM,
				Y:         top - layout.ItemHeightMM,
				Width:     layout.ItemWidthMM,
				Height:    layout.ItemHeightMM,
				AssetID:   item.AssetID,
			})
			placed++
		}
	}

	result.TotalPlaced = placed
	result.TotalPages = max(1, (placed+layout.CapacityPerPage-1)/layout.CapacityPerPage)
	return result
}
