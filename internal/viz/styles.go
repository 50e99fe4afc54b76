package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles is the set of lipgloss styles derived from one Theme.
type Styles struct {
	Panel   lipgloss.Style
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Goal    lipgloss.Style
	Current lipgloss.Style
	Warning lipgloss.Style
	KeyHint lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Title),
		Label:   lipgloss.NewStyle().Foreground(t.Muted).Width(14),
		Value:   lipgloss.NewStyle().Foreground(t.Text),
		Goal:    lipgloss.NewStyle().Foreground(t.Goal),
		Current: lipgloss.NewStyle().Foreground(t.Current),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		KeyHint: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
	}
}

// Row renders a label/value pair on one line.
func (s Styles) Row(label, value string) string {
	return s.Label.Render(label) + s.Value.Render(value)
}

// Sparkline renders the most recent width values on an eight-level scale.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return b.String()
}
