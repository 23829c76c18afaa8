package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Table renders simple aligned columnar output for non-interactive commands.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Short rows are padded with empty cells.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.headers) {
		cells = append(cells, "")
	}
	t.rows = append(t.rows, cells[:len(t.headers)])
}

// Render returns the formatted table. Column widths fit the widest cell;
// maxWidth > 0 truncates overlong cells with an ellipsis. Widths are display
// widths, so wide runes (CJK profile names) stay aligned.
func (t *Table) Render(maxWidth int) string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if maxWidth > 0 {
		for i := range widths {
			if widths[i] > maxWidth {
				widths[i] = maxWidth
			}
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(t.formatRow(t.headers, widths)))
	sb.WriteString("\n")
	for _, row := range t.rows {
		sb.WriteString(t.formatRow(row, widths))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *Table) formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if runewidth.StringWidth(cell) > widths[i] {
			cell = runewidth.Truncate(cell, widths[i], "…")
		}
		parts[i] = runewidth.FillRight(cell, widths[i])
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
