package report

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle  = cellStyle.Foreground(lipgloss.Color("9"))
	okStyle     = cellStyle.Foreground(lipgloss.Color("10"))
)

// Table renders one row per report with the kept/pruned/failed/unknown counts.
func Table(reports []Report) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		pruned := strconv.Itoa(len(r.Pruned))
		if r.DryRun {
			pruned = fmt.Sprintf("(%d)", len(r.Pruned))
		}
		rows = append(rows, []string{
			r.Hostname,
			strconv.Itoa(r.Kept),
			pruned,
			strconv.Itoa(len(r.Failed)),
			strconv.Itoa(r.Unknown),
			r.Status(),
			r.ErrorString(),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("HOSTNAME", "KEPT", "PRUNED", "FAILED", "UNKNOWN", "STATUS", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 && row >= 0 && row < len(rows) {
				if rows[row][5] == "ok" {
					return okStyle
				}
				return errorStyle
			}
			return cellStyle
		}).
		Render()
}
