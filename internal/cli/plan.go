package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/piwi3910/StickerImposer/internal/engine"
	"github.com/piwi3910/StickerImposer/internal/model"
)

var (
	colorDim    = lipgloss.Color("240")
	colorGray   = lipgloss.Color("245")
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("203")
	headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

func (c *CLI) planCommand() *cobra.Command {
	var (
		flags   specFlags
		compare bool
	)
	cmd := &cobra.Command{
		Use:   "plan <folder>",
		Short: "Show the layout for a folder without writing files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cat, spec, err := c.prepareSpec(cmd, args[0], &flags, cfg)
			if err != nil {
				return err
			}
			if compare {
				results := engine.CompareEngines(engine.Request{Spec: spec, Assets: cat.Assets()})
				fmt.Fprintln(c.out, compareTable(results))
				return nil
			}
			_, res, err := c.plan(spec, cat)
			if err != nil {
				return err
			}
			printSummary(c.out, res.Job)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&compare, "compare", false, "run every engine and compare pages and efficiency")
	return cmd
}

// printSummary writes a short plain-text description of a job.
func printSummary(w io.Writer, job model.Job) {
	fmt.Fprintf(w, "Job %s (%s)\n", job.ID, job.Engine)
	fmt.Fprintf(w, "Sheet: %.1f x %.1f mm, gap %.1f mm, margin %.1f mm\n",
		job.Sheet.WidthMM, job.Sheet.HeightMM, job.Sheet.GapMM, job.Sheet.MarginMM)
	if l := job.Layout; l != nil {
		fmt.Fprintf(w, "Grid: %d x %d cells of %.1f x %.1f mm, %d per page\n",
			l.Cols, l.Rows, l.ItemWidthMM, l.ItemHeightMM, l.CapacityPerPage)
	}
	fmt.Fprintf(w, "Placed: %d on %d pages, %.1f%% of usable area\n",
		job.TotalPlaced, job.TotalPages, job.Efficiency())
	for page := 0; page < job.TotalPages; page++ {
		placements := job.PagePlacements(page)
		rotated := 0
		for _, p := range placements {
			if p.Rotated {
				rotated++
			}
		}
		fmt.Fprintf(w, "  page %d: %d stickers", page+1, len(placements))
		if rotated > 0 {
			fmt.Fprintf(w, " (%d rotated)", rotated)
		}
		fmt.Fprintln(w)
	}
}

// compareTable renders engine comparison results. Failed engines show their
// error instead of numbers.
func compareTable(results []engine.ComparisonResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			rows = append(rows, []string{r.Engine.String(), "-", "-", "-", r.Err.Error()})
			continue
		}
		rows = append(rows, []string{
			r.Engine.String(),
			strconv.Itoa(r.PagesUsed),
			strconv.Itoa(r.Result.Job.TotalPlaced),
			fmt.Sprintf("%.1f%%", r.Efficiency),
			strconv.Itoa(r.WarningCount) + " warnings",
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Engine", "Pages", "Placed", "Efficiency", "Notes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < len(results) && results[row].Err != nil {
				return lipgloss.NewStyle().Foreground(colorRed)
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return lipgloss.NewStyle()
		}).
		String()
}
