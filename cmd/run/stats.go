package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wippyai/wasi-common/engine"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1)
)

const (
	colErrors  = 3
	colSignals = 4
)

func renderStats(stats []engine.FuncStats) string {
	if len(stats) == 0 {
		return "no WASI calls"
	}
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Module,
			s.Func,
			fmt.Sprint(s.Calls),
			fmt.Sprint(s.Errors),
			fmt.Sprint(s.Signals),
			s.Total.Round(time.Microsecond).String(),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MODULE", "FUNCTION", "CALLS", "ERRNO", "EXIT/TRAP", "TIME").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if (col == colErrors || col == colSignals) && rows[row][col] != "0" {
				return errorStyle
			}
			return cellStyle
		}).
		Render()
}
