package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/velcmd/internal/batch"
	"github.com/san-kum/velcmd/internal/command"
	"github.com/san-kum/velcmd/internal/control"
	"github.com/san-kum/velcmd/internal/export"
	"github.com/san-kum/velcmd/internal/metrics"
	"github.com/san-kum/velcmd/internal/sim"
	"github.com/san-kum/velcmd/internal/viz"
	"gonum.org/v1/gonum/stat"
)

const (
	fieldWidth      = 48
	fieldHeight     = 20
	fieldExtent     = 6.0
	historyCapacity = 300
	maxDrawn        = 32
	maxSpeed        = 64
	smoothing       = 0.1
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// LiveModel steps a simulator on a timer and shows a top-down view of the
// first agents next to batch-wide tracking statistics.
type LiveModel struct {
	sim   *sim.Simulator
	name  string
	dt    float64
	diags command.Diagnostics

	field  *viz.Field
	theme  viz.Theme
	styles viz.Styles

	running bool
	speed   int
	focus   int
	ticks   int

	xyHistory   []float64
	yawHistory  []float64
	xySmooth    *control.LowPass
	lastEpisode map[string]float64
	saved       string
	err         error
}

func NewLive(s *sim.Simulator, name string, diags command.Diagnostics) LiveModel {
	theme := viz.Themes[0]
	return LiveModel{
		sim:        s,
		name:       name,
		dt:         s.Generator().Config().Dt,
		diags:      diags,
		field:      viz.NewField(fieldWidth, fieldHeight, fieldExtent),
		theme:      theme,
		styles:     viz.NewStyles(theme),
		running:    true,
		speed:      1,
		xyHistory:  make([]float64, 0, historyCapacity),
		xySmooth:   mustLowPass(smoothing),
		yawHistory: make([]float64, 0, historyCapacity),
	}
}

func (m LiveModel) Init() tea.Cmd { return tick() }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func mustLowPass(alpha float64) *control.LowPass {
	f, err := control.NewLowPass(alpha)
	if err != nil {
		panic(err)
	}
	return f
}

func (m LiveModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	gen := m.sim.Generator()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "space":
		m.running = !m.running
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-":
		m.speed = max(m.speed/2, 1)
	case "tab", "n":
		m.focus = (m.focus + 1) % gen.Len()
	case "r":
		means, err := m.sim.Reset(batch.AllIndices(gen.Len()))
		if err != nil {
			m.err = err
		} else {
			m.lastEpisode = means
		}
	case "v":
		if a := gen.Arrows(); a != nil {
			a.SetVisible(!a.Visible())
		}
	case "t":
		m.theme = viz.NextTheme(m.theme)
		m.styles = viz.NewStyles(m.theme)
	case "s":
		m.saveField()
	case "[", "]":
		h := gen.HeadingController()
		gain := h.Gain * 2
		if msg.String() == "[" {
			gain = h.Gain / 2
		}
		if err := h.SetParam("Gain", gain); err != nil {
			m.err = err
		}
	}
	return m, nil
}

// saveField writes the current field view to <name>_<ticks>.svg.
func (m *LiveModel) saveField() {
	m.renderField()
	path := fmt.Sprintf("%s_%d.svg", m.name, m.ticks)
	svg := export.CanvasToSVG(m.field.Canvas, 4, string(m.theme.Goal))
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		m.err = err
		return
	}
	m.saved = path
}

func (m *LiveModel) step() {
	res, err := m.sim.Run(context.Background(), m.speed)
	if err != nil {
		m.err = err
		return
	}
	m.ticks += res.Ticks
	if n := len(res.Episodes); n > 0 {
		m.lastEpisode = res.Episodes[n-1].Means
	}

	xy, yaw := m.sim.Generator().Metrics()
	meanXY := stat.Mean(xy, nil)
	m.xySmooth.Apply(meanXY)
	m.xyHistory = appendBounded(m.xyHistory, meanXY)
	m.yawHistory = appendBounded(m.yawHistory, stat.Mean(yaw, nil))
}

func appendBounded(h []float64, v float64) []float64 {
	if len(h) == historyCapacity {
		copy(h, h[1:])
		h = h[:len(h)-1]
	}
	return append(h, v)
}

func (m LiveModel) View() string {
	left := m.styles.Panel.Render(m.styles.Title.Render("field") + "\n" + m.renderField())
	right := m.styles.Panel.Render(m.renderStats())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n" +
		m.styles.KeyHint.Render("space pause · +/- speed · tab focus · r reset · v arrows · t theme · [/] gain · s save svg · q quit")
}

func (m LiveModel) renderField() string {
	m.field.Clear()
	gen := m.sim.Generator()
	snap := m.sim.Snapshot()
	arrows := gen.Arrows()
	n := min(gen.Len(), maxDrawn)

	for i := 0; i < n; i++ {
		if arrows != nil && arrows.Visible() {
			m.field.DrawMarker(arrows.Goal[i])
			m.field.DrawMarker(arrows.Current[i])
			continue
		}
		x, y := m.field.Project(snap.Position[i].X, snap.Position[i].Y)
		m.field.Set(x, y)
	}
	return m.styles.Goal.Render(strings.TrimRight(m.field.String(), "\n"))
}

func (m LiveModel) renderStats() string {
	gen := m.sim.Generator()
	var b strings.Builder

	state := "running"
	if !m.running {
		state = "paused"
	}
	b.WriteString(m.styles.Title.Render(m.name) + "\n\n")
	b.WriteString(m.styles.Row("agents", fmt.Sprintf("%d", gen.Len())) + "\n")
	b.WriteString(m.styles.Row("time", fmt.Sprintf("%.2fs (%d ticks)", float64(m.ticks)*m.dt, m.ticks)) + "\n")
	b.WriteString(m.styles.Row("state", fmt.Sprintf("%s x%d", state, m.speed)) + "\n")

	standing, heading := gen.Fractions()
	b.WriteString(m.styles.Row("standing", fmt.Sprintf("%.1f%%", 100*standing)) + "\n")
	b.WriteString(m.styles.Row("heading", fmt.Sprintf("%.1f%%", 100*heading)) + "\n")
	b.WriteString(m.styles.Row("heading gain", fmt.Sprintf("%.3g", gen.HeadingController().Gain)) + "\n")

	if n := len(m.xyHistory); n > 0 {
		b.WriteString(m.styles.Row(metrics.ErrorVelXY, fmt.Sprintf("%.4f", m.xyHistory[n-1])) + "\n")
		if v, ok := m.xySmooth.Value(); ok {
			b.WriteString(m.styles.Row("xy smoothed", fmt.Sprintf("%.4f", v)) + "\n")
		}
		b.WriteString(m.styles.Row(metrics.ErrorVelYaw, fmt.Sprintf("%.4f", m.yawHistory[n-1])) + "\n")
	}
	if m.lastEpisode != nil {
		b.WriteString(m.styles.Row("last episode", fmt.Sprintf("xy %.4f yaw %.4f",
			m.lastEpisode[metrics.ErrorVelXY], m.lastEpisode[metrics.ErrorVelYaw])) + "\n")
	}

	a := gen.Agent(m.focus)
	b.WriteString("\n" + m.styles.Title.Render(fmt.Sprintf("agent %d", m.focus)) + "\n")
	b.WriteString(m.styles.Row("command", a.Command.String()) + "\n")
	if a.IsHeading {
		b.WriteString(m.styles.Row("heading", fmt.Sprintf("%.3f rad", a.HeadingTarget)) + "\n")
	}
	if a.IsStanding {
		b.WriteString(m.styles.Row("mode", "standing") + "\n")
	}
	b.WriteString(m.styles.Row("resample", fmt.Sprintf("%.2f / %.2fs (#%d)", a.Elapsed, a.Interval, a.Resamples)) + "\n")

	if len(m.xyHistory) > 1 {
		b.WriteString("\n" + asciigraph.Plot(m.xyHistory,
			asciigraph.Height(6),
			asciigraph.Width(40),
			asciigraph.Caption("mean "+metrics.ErrorVelXY)) + "\n")
		b.WriteString(m.styles.Current.Render(viz.Sparkline(m.yawHistory, 40)) + "\n")
	}

	for _, d := range m.diags {
		b.WriteString("\n" + m.styles.Warning.Render(d.String()))
	}
	if m.saved != "" {
		b.WriteString("\n" + m.styles.Row("saved", m.saved))
	}
	if m.err != nil {
		b.WriteString("\n" + m.styles.Warning.Render("error: "+m.err.Error()))
	}
	return b.String()
}

// RunLive takes over the terminal until the user quits.
func RunLive(s *sim.Simulator, name string, diags command.Diagnostics) error {
	p := tea.NewProgram(NewLive(s, name, diags), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
