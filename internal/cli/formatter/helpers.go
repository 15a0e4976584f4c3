package formatter

import (
	"strings"

	"github.com/alexanderramin/neuron/internal/dates"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	content = strings.TrimRight(content, "\n")
	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// Remaining renders the days-left label colored by urgency, or "--" when
// the deadline is unknown.
func Remaining(days int, ok bool, u Urgency) string {
	if !ok {
		return Dim("--")
	}
	return u.Style(days).Render(dates.RemainingLabel(days))
}

// DateOrDash formats d, or "--" for the zero date.
func DateOrDash(d dates.Date) string {
	if d.IsZero() {
		return Dim("--")
	}
	return dates.Format(d)
}

// Names joins assignees for a table cell.
func Names(names []string) string {
	if len(names) == 0 {
		return Dim("--")
	}
	return strings.Join(names, ", ")
}

// Truncate shortens s to at most n visible characters, ending in "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func kv(label, value string) string {
	return StyleDim.Render(label+":") + " " + value
}
