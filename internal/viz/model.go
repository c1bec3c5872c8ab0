package viz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	defaultWidth    = 60
	defaultHeight   = 24
	historyCapacity = 600
	fitMargin       = 0.15
	secondsPerDay   = 86400.0
)

// StateMsg carries a snapshot published by the simulator.
type StateMsg sim.State

// StoppedMsg reports that the simulator's tick loop has returned.
type StoppedMsg struct{ Err error }

// ResetMsg replaces the initial bodies, e.g. after a scenario reload.
type ResetMsg struct{ Bodies dynamo.Bodies }

type Options struct {
	Title string
	// Scale is in metres per pixel; zero fits the initial bodies.
	Scale  float64
	Theme  string
	Width  int
	Height int
	Energy sim.Hamiltonian
}

// Model renders a running simulator. The simulator owns the state; the
// model only keeps the latest snapshot it was sent.
type Model struct {
	sim    *sim.Simulator
	ctx    context.Context
	energy sim.Hamiltonian
	title  string

	state   sim.State
	history []float64

	proj    Projection
	autoFit bool
	canvas  *Canvas
	theme   Theme
	styles  styles

	running    bool
	loopActive bool
	err        error
}

func NewModel(ctx context.Context, s *sim.Simulator, opts Options) Model {
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	theme := GetTheme(opts.Theme)

	m := Model{
		sim:     s,
		ctx:     ctx,
		energy:  opts.Energy,
		title:   opts.Title,
		state:   s.Snapshot(),
		history: make([]float64, 0, historyCapacity),
		canvas:  NewCanvas(w, h),
		theme:   theme,
		styles:  newStyles(theme),
		autoFit: opts.Scale <= 0,

		running:    true,
		loopActive: true,
	}
	pw, ph := m.canvas.PixelSize()
	m.proj = NewProjection(opts.Scale, pw, ph)
	if m.autoFit {
		m.fit()
	}
	m.recordEnergy()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.start()
}

func (m Model) start() tea.Cmd {
	s, ctx := m.sim, m.ctx
	return func() tea.Msg { return StoppedMsg{Err: s.Start(ctx)} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		w := msg.Width - statsWidth - 8
		h := msg.Height - 2
		if w < 10 {
			w = 10
		}
		if h < 5 {
			h = 5
		}
		m.canvas = NewCanvas(w, h)
		pw, ph := m.canvas.PixelSize()
		m.proj = NewProjection(m.proj.Scale, pw, ph)
		if m.autoFit {
			m.fit()
		}

	case StateMsg:
		m.state = sim.State(msg)
		m.recordEnergy()

	case ResetMsg:
		if err := m.sim.Reset(msg.Bodies); err != nil {
			m.err = err
			return m, nil
		}
		m.afterReset()

	case StoppedMsg:
		m.loopActive = false
		if msg.Err != nil {
			if !errors.Is(msg.Err, context.Canceled) {
				m.err = msg.Err
			}
			m.running = false
			return m, nil
		}
		// Resumed while the previous loop was shutting down.
		if m.running {
			m.loopActive = true
			return m, m.start()
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.sim.Stop()
		return m, tea.Quit
	case " ":
		if m.running {
			m.sim.Stop()
			m.running = false
			return m, nil
		}
		if m.err != nil {
			return m, nil
		}
		m.running = true
		if !m.loopActive {
			m.loopActive = true
			return m, m.start()
		}
	case "r":
		if err := m.sim.Reset(nil); err != nil {
			m.err = err
			return m, nil
		}
		m.afterReset()
		if !m.running && !m.loopActive {
			m.running = true
			m.loopActive = true
			return m, m.start()
		}
	case "+", "=":
		m.proj = m.proj.ZoomIn()
		m.autoFit = false
	case "-", "_":
		m.proj = m.proj.ZoomOut()
		m.autoFit = false
	case "c":
		m.fit()
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	}
	return m, nil
}

func (m *Model) afterReset() {
	m.err = nil
	m.state = m.sim.Snapshot()
	m.history = m.history[:0]
	m.recordEnergy()
	if m.autoFit {
		m.fit()
	}
}

func (m *Model) fit() {
	pw, ph := m.canvas.PixelSize()
	m.proj.Scale = FitScale(m.state.Bodies, pw, ph, fitMargin)
}

func (m *Model) recordEnergy() {
	if m.energy == nil || len(m.state.Bodies) == 0 {
		return
	}
	m.history = append(m.history, m.energy.Energy(m.state.Bodies))
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m Model) Running() bool            { return m.running }
func (m Model) Err() error               { return m.err }
func (m Model) Projection() Projection   { return m.proj }
func (m Model) State() sim.State         { return m.state }
func (m Model) Theme() Theme             { return m.theme }
func (m Model) EnergyHistory() []float64 { return m.history }
func (m Model) Canvas() *Canvas          { return m.canvas }

// draw renders trails first so that markers stay on top.
func (m *Model) draw() {
	m.canvas.Clear()
	pw, ph := m.canvas.PixelSize()

	for i, tr := range m.state.Trails {
		if i >= len(m.state.Bodies) {
			break
		}
		color := lipgloss.Color(m.state.Bodies[i].Color)
		for j := 1; j < len(tr); j++ {
			x0, y0 := m.proj.Project(tr[j-1])
			x1, y1 := m.proj.Project(tr[j])
			if !nearView(x0, y0, pw, ph) || !nearView(x1, y1, pw, ph) {
				continue
			}
			m.canvas.DrawLine(x0, y0, x1, y1, color)
		}
	}

	for _, b := range m.state.Bodies {
		x, y := m.proj.Project(b.Pos)
		m.canvas.FillCircle(x, y, MarkerRadius(b), lipgloss.Color(b.Color))
	}
}

// nearView bounds line rasterization to points within one view size of
// the visible area.
func nearView(x, y, w, h int) bool {
	return x >= -w && x <= 2*w && y >= -h && y <= 2*h
}

func (m Model) View() string {
	m.draw()
	canvasView := m.styles.canvas.Render(m.canvas.Render(m.theme.Background))

	st := m.styles
	var s strings.Builder

	title := m.title
	if title == "" {
		title = "orbitsim"
	}
	s.WriteString(st.header.Render(strings.ToUpper(title)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(st.halted.Render("HALTED") + "\n")
		s.WriteString(st.value.Render(wrap(m.err.Error(), statsWidth-6)) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	s.WriteString(st.label.Render("Day") + st.value.Render(fmt.Sprintf("%.1f", m.state.Time/secondsPerDay)) + "\n")
	s.WriteString(st.label.Render("Step") + st.value.Render(fmt.Sprintf("%d", m.state.Step)) + "\n")
	s.WriteString(st.label.Render("Scale") + st.value.Render(fmt.Sprintf("%.2e m/px", m.proj.Scale)) + "\n")
	if len(m.history) > 0 {
		s.WriteString(st.label.Render("Energy") + st.value.Render(fmt.Sprintf("%.4e J", m.history[len(m.history)-1])) + "\n")
	}

	s.WriteString("\n")
	for _, b := range m.state.Bodies {
		line := fmt.Sprintf("%-10s %7.2f km/s", b.Name, b.Vel.Len()/1000)
		s.WriteString(swatch(b.Color) + " " + st.value.Render(line) + "\n")
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	s.WriteString(st.help.Render(Separator(statsWidth-6, m.theme) + "\nSP:Pause R:Reset Q:Quit\n+/-:Zoom C:Fit T:Theme"))

	statsView := st.stats.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func wrap(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width] + "\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

// NewProgram builds a Bubble Tea program for s and subscribes it to the
// simulator's ticks. Start and stop are driven by the model.
func NewProgram(ctx context.Context, s *sim.Simulator, opts Options, teaOpts ...tea.ProgramOption) *tea.Program {
	p := tea.NewProgram(NewModel(ctx, s, opts), teaOpts...)
	s.AddObserver(sim.ObserverFunc(func(st sim.State) { p.Send(StateMsg(st)) }))
	return p
}
