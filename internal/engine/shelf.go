package engine

import (
	"sort"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// Shelf scoring weights. Lower scores win. Page index dominates, then any
// fit into an existing row beats opening a new one.
const (
	pageWeight      = 1_000_000.0
	newRowPenalty   = 100_000.0
	rowSlackWeight  = 0.25
	pageSlackWeight = 0.01
)

// ShelfItem is one asset with its resolved size and quantity.
type ShelfItem struct {
	AssetID  string
	Qty      int
	WidthMM  float64
	HeightMM float64
}

// ShelfResult is the output of PackShelf.
type ShelfResult struct {
	Placements  []model.Placement
	TotalPlaced int
	TotalPages  int
}

// shelfRow is a horizontal band on a page. Items hang from topY.
type shelfRow struct {
	topY      float64
	height    float64
	usedWidth float64
}

// shelfPage indexes into the packer's row arena.
type shelfPage struct {
	rows       []int
	usedHeight float64
}

type shelfUnit struct {
	assetID string
	w, h    float64
}

type orientation struct {
	w, h    float64
	rotated bool
}

type candidate struct {
	page  int
	row   int // -1 opens a new row
	o     orientation
	score float64
}

// shelfPacker holds the transient per-job state. Pages and rows live in
// slices and refer to each other by index.
type shelfPacker struct {
	sheet   model.SheetSpec
	usableW float64
	usableH float64
	pages   []shelfPage
	rows    []shelfRow
	out     []model.Placement
}

// PackShelf places every unit of every item on the fewest pages it can find
// with a best-fit row heuristic. Items may be turned 90 degrees.
func PackShelf(sheet model.SheetSpec, items []ShelfItem) (ShelfResult, error) {
	if err := sheet.Validate(); err != nil {
		return ShelfResult{}, err
	}

	var units []shelfUnit
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		if it.WidthMM <= 0 || it.HeightMM <= 0 {
			return ShelfResult{}, model.NewError(model.ErrInvalidSpec,
				"asset %s: size must be positive (got %.2fx%.2f mm)", it.AssetID, it.WidthMM, it.HeightMM)
		}
		for i := 0; i < it.Qty; i++ {
			units = append(units, shelfUnit{assetID: it.AssetID, w: it.WidthMM, h: it.HeightMM})
		}
	}

	// Largest first reduces fragmentation.
	sort.SliceStable(units, func(i, j int) bool {
		mi := max(units[i].w, units[i].h)
		mj := max(units[j].w, units[j].h)
		if mi != mj {
			return mi > mj
		}
		return units[i].w*units[i].h > units[j].w*units[j].h
	})

	p := &shelfPacker{
		sheet:   sheet,
		usableW: sheet.UsableWidth(),
		usableH: sheet.UsableHeight(),
	}
	for _, u := range units {
		if err := p.place(u); err != nil {
			return ShelfResult{}, err
		}
	}

	return ShelfResult{
		Placements:  p.out,
		TotalPlaced: len(p.out),
		TotalPages:  max(1, len(p.pages)),
	}, nil
}

func (p *shelfPacker) orientations(u shelfUnit) []orientation {
	var out []orientation
	for _, o := range []orientation{{w: u.w, h: u.h}, {w: u.h, h: u.w, rotated: true}} {
		if o.w <= p.usableW+fitEpsilon && o.h <= p.usableH+fitEpsilon {
			out = append(out, o)
		}
	}
	return out
}

func (p *shelfPacker) gapIf(nonEmpty bool) float64 {
	if nonEmpty {
		return p.sheet.GapMM
	}
	return 0
}

// remainingWidth is the width still available in a row, net of the gap the
// next item would need.
func (p *shelfPacker) remainingWidth(r shelfRow) float64 {
	return p.usableW - r.usedWidth - p.gapIf(r.usedWidth > 0)
}

// bestOnPage returns the lowest scoring candidate on one page.
func (p *shelfPacker) bestOnPage(pageIdx int, opts []orientation) (candidate, bool) {
	page := p.pages[pageIdx]
	base := float64(pageIdx) * pageWeight

	var best candidate
	found := false
	consider := func(c candidate) {
		if !found || c.score < best.score {
			best = c
			found = true
		}
	}

	for _, o := range opts {
		for _, ri := range page.rows {
			r := p.rows[ri]
			if o.h > r.height+fitEpsilon {
				continue
			}
			remaining := p.remainingWidth(r)
			if o.w > remaining+fitEpsilon {
				continue
			}
			leftover := remaining - o.w
			slack := r.height - o.h
			consider(candidate{page: pageIdx, row: ri, o: o, score: base + leftover + slack*rowSlackWeight})
		}

		needed := p.gapIf(len(page.rows) > 0) + o.h
		if page.usedHeight+needed <= p.usableH+fitEpsilon {
			waste := p.usableW - o.w
			rest := p.usableH - (page.usedHeight + needed)
			consider(candidate{page: pageIdx, row: -1, o: o, score: base + newRowPenalty + waste + rest*pageSlackWeight})
		}
	}
	return best, found
}

func (p *shelfPacker) place(u shelfUnit) error {
	opts := p.orientations(u)
	if len(opts) == 0 {
		return model.NewError(model.ErrDoesNotFit,
			"asset %s (%.2fx%.2f mm) exceeds the usable area %.2fx%.2f mm in both orientations",
			u.assetID, u.w, u.h, p.usableW, p.usableH)
	}

	var best candidate
	found := false
	for i := range p.pages {
		c, ok := p.bestOnPage(i, opts)
		if ok && (!found || c.score < best.score) {
			best = c
			found = true
		}
	}

	if !found {
		p.pages = append(p.pages, shelfPage{})
		c, ok := p.bestOnPage(len(p.pages)-1, opts)
		if !ok {
			return model.NewError(model.ErrDoesNotFit, "asset %s does not fit an empty page", u.assetID)
		}
		best = c
	}

	p.commit(u, best)
	return nil
}

func (p *shelfPacker) commit(u shelfUnit, c candidate) {
	page := &p.pages[c.page]

	rowIdx := c.row
	if rowIdx < 0 {
		gap := p.gapIf(len(page.rows) > 0)
		p.rows = append(p.rows, shelfRow{
			topY:   p.sheet.HeightMM - p.sheet.MarginMM - page.usedHeight - gap,
			height: c.o.h,
		})
		rowIdx = len(p.rows) - 1
		page.rows = append(page.rows, rowIdx)
		page.usedHeight += gap + c.o.h
	}

	row := &p.rows[rowIdx]
	gap := p.gapIf(row.usedWidth > 0)
	p.out = append(p.out, model.Placement{
		PageIndex: c.page,
		X:         p.sheet.MarginMM + row.usedWidth + gap,
		Y:         row.topY - c.o.h,
		Width:     c.o.w,
		Height:    c.o.h,
		Rotated:   c.o.rotated,
		AssetID:   u.assetID,
	})
	row.usedWidth += gap + c.o.w
}
