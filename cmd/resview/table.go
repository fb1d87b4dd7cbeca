package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wippyai/assetcache/resource"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var usageHeaders = []string{"RESOURCE", "TYPE", "HOLDERS", "STATE"}

func usageRow(u resource.Usage) []string {
	return []string{u.ID.String(), strings.TrimPrefix(u.Type, "*"), fmt.Sprint(u.Holders), usageState(u)}
}

func usageState(u resource.Usage) string {
	switch {
	case u.Pending:
		return "pending"
	case u.Err != nil:
		return "failed"
	default:
		return "live"
	}
}

// renderUsage draws the static usage table printed after a run.
func renderUsage(usage []resource.Usage) string {
	if len(usage) == 0 {
		return helpStyle.Render("cache is empty")
	}

	rows := make([][]string, len(usage))
	for i, u := range usage {
		rows[i] = usageRow(u)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(helpStyle).
		Headers(usageHeaders...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(usage) && usage[row].Pending:
				return pendingStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}
