package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/velcmd/internal/config"
)

var (
	cyan = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	dim  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	red  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type presetItem struct {
	robot, variant string
}

// MenuModel lists every preset and hands over to a LiveModel on enter.
type MenuModel struct {
	items  []presetItem
	cursor int
	agents int
	seed   uint64
	err    error
}

// NewMenu builds the picker. agents overrides each preset's batch size when
// positive.
func NewMenu(agents int, seed uint64) MenuModel {
	var items []presetItem
	for _, robot := range config.ListRobots() {
		for _, variant := range config.ListPresets(robot) {
			items = append(items, presetItem{robot, variant})
		}
	}
	return MenuModel{items: items, agents: agents, seed: seed}
}

func (m MenuModel) Init() tea.Cmd { return nil }

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		return m.launch()
	}
	return m, nil
}

func (m MenuModel) launch() (tea.Model, tea.Cmd) {
	it := m.items[m.cursor]
	cfg := config.GetPreset(it.robot, it.variant)
	if m.agents > 0 {
		cfg.NumAgents = m.agents
	}
	s, diags, err := cfg.Build(m.seed)
	if err != nil {
		m.err = err
		return m, nil
	}
	live := NewLive(s, cfg.Name, diags)
	return live, live.Init()
}

func (m MenuModel) View() string {
	var b strings.Builder
	b.WriteString(cyan.Bold(true).Render("velocity command presets") + "\n\n")
	for i, it := range m.items {
		line := it.robot + " / " + it.variant
		if i == m.cursor {
			b.WriteString(cyan.Render("> "+line) + "\n")
		} else {
			b.WriteString(dim.Render("  "+line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n" + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("↑/↓ select · enter run · q quit"))
	return b.String()
}

func RunInteractive(agents int, seed uint64) error {
	p := tea.NewProgram(NewMenu(agents, seed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
