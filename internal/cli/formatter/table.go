package formatter

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colGap = 2

// RenderTable renders an aligned table with a header separator line.
// Columns are padded to their widest visible cell; a column whose cells are
// all integers is right-aligned.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	cols := len(headers)

	widths := make([]int, cols)
	numeric := make([]bool, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
		numeric[i] = len(rows) > 0
	}
	for _, row := range rows {
		for i := 0; i < cols; i++ {
			cell := cellAt(row, i)
			widths[i] = max(widths[i], lipgloss.Width(cell))
			if _, err := strconv.Atoi(strings.TrimSpace(cell)); err != nil {
				numeric[i] = false
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		writeCell(&b, StyleHeader.Render(h), lipgloss.Width(h), widths[i], numeric[i], i == cols-1)
	}
	b.WriteString("\n")

	for i, w := range widths {
		b.WriteString(StyleDim.Render(strings.Repeat("─", w)))
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")

	for _, row := range rows {
		for i := 0; i < cols; i++ {
			cell := cellAt(row, i)
			writeCell(&b, cell, lipgloss.Width(cell), widths[i], numeric[i], i == cols-1)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func writeCell(b *strings.Builder, cell string, visible, width int, right, last bool) {
	pad := max(width-visible, 0)
	if right {
		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(cell)
		if !last {
			b.WriteString(strings.Repeat(" ", colGap))
		}
		return
	}
	b.WriteString(cell)
	if !last {
		b.WriteString(strings.Repeat(" ", pad+colGap))
	}
}
