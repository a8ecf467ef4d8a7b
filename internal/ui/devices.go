package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jobinpa/tinyhttp/internal/discovery"
)

// RenderDevices renders scan results as a table, one server per row
func RenderDevices(devices []*discovery.Device) string {
	if len(devices) == 0 {
		return MutedStyle.Render("No servers found")
	}

	headers := []string{"INSTANCE", "ADDRESS", "HOSTNAME", "URL"}
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.Instance, d.Address(), d.Hostname, d.BaseURL()})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(headers, widths, TableHeaderStyle))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(renderRow(row, widths, TableCellStyle))
	}
	b.WriteString("\n\n")
	b.WriteString(RenderSuccess(fmt.Sprintf("%d server(s) found", len(devices))))
	return b.String()
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = style.Width(widths[i] + 2).Render(cell)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
