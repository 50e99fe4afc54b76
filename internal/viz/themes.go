package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Goal    lipgloss.Color // commanded velocity arrows
	Current lipgloss.Color // measured velocity arrows
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeIsaac = Theme{
		Name:    "isaac",
		Title:   lipgloss.Color("#76b900"),
		Goal:    lipgloss.Color("#00cc44"),
		Current: lipgloss.Color("#3388ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#777777"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Title:   lipgloss.Color("#00ff00"),
		Goal:    lipgloss.Color("#88ff88"),
		Current: lipgloss.Color("#00aa00"),
		Text:    lipgloss.Color("#00ff00"),
		Muted:   lipgloss.Color("#005500"),
		Warning: lipgloss.Color("#ffff00"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Title:   lipgloss.Color("#ffffff"),
		Goal:    lipgloss.Color("#cccccc"),
		Current: lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	Themes = []Theme{ThemeIsaac, ThemeRetroGreen, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
