package viz

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
)

func trinary() dynamo.Bodies {
	return dynamo.Bodies{
		{Name: "Star 1", Mass: 1.689e30, Color: "#ffd700"},
		{Name: "Star 2", Mass: 1.5e30, Pos: dynamo.Vec2{Y: 1.5e11}, Vel: dynamo.Vec2{Y: 2e4}, Color: "#ffa500"},
		{Name: "Star 3", Mass: 1.9e30, Pos: dynamo.Vec2{X: -1.1e11}, Vel: dynamo.Vec2{Y: -2e4}, Color: "#ff4500"},
		{Name: "Planet", Mass: 5.972e24, Pos: dynamo.Vec2{X: 1e11}, Vel: dynamo.Vec2{Y: 3e4}, Color: "#1e90ff"},
	}
}

func newTestModel(t *testing.T, scale float64) (Model, *sim.Simulator) {
	t.Helper()
	g := physics.NewGravity()
	s, err := sim.New(g, trinary(), sim.DefaultConfig(), nil)
	require.NoError(t, err)
	m := NewModel(context.Background(), s, Options{Title: "trinary", Scale: scale, Energy: g})
	return m, s
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestModelFitsBodiesByDefault(t *testing.T) {
	m, _ := newTestModel(t, 0)
	pw, ph := m.Canvas().PixelSize()

	for _, b := range m.State().Bodies {
		x, y := m.Projection().Project(b.Pos)
		assert.True(t, x >= 0 && x < pw && y >= 0 && y < ph, "%s at (%d,%d)", b.Name, x, y)
	}
	assert.True(t, m.Running())
	assert.NotNil(t, m.Init())
	assert.Len(t, m.EnergyHistory(), 1)
}

func TestModelFollowsState(t *testing.T) {
	m, s := newTestModel(t, 0)

	for i := 0; i < 3; i++ {
		st, err := s.Tick()
		require.NoError(t, err)
		m, _ = update(t, m, StateMsg(s.Snapshot()))
		assert.Equal(t, st.Step, m.State().Step)
	}
	assert.Len(t, m.EnergyHistory(), 4)

	view := m.View()
	assert.Contains(t, view, "TRINARY")
	assert.Contains(t, view, "RUNNING")
	assert.Contains(t, view, "Planet")
	assert.Contains(t, view, "Energy")
	assert.Len(t, m.State().Trails[3], 3)
}

func TestModelPauseResume(t *testing.T) {
	m, s := newTestModel(t, 0)

	m, cmd := update(t, m, key(" "))
	assert.False(t, m.Running())
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "PAUSED")

	// Resume before the old loop reported back: no second loop yet.
	m, cmd = update(t, m, key(" "))
	assert.True(t, m.Running())
	assert.Nil(t, cmd)

	// The old loop ends; the model restarts it.
	m, cmd = update(t, m, StoppedMsg{})
	assert.NotNil(t, cmd)
	assert.False(t, s.Running(), "loop starts only when the command runs")

	m, _ = update(t, m, key(" "))
	m, cmd = update(t, m, StoppedMsg{})
	assert.Nil(t, cmd)
	assert.False(t, m.Running())

	// Resuming with no loop active starts one straight away.
	m, cmd = update(t, m, key(" "))
	assert.True(t, m.Running())
	assert.NotNil(t, cmd)
}

func TestModelStepFailureHalts(t *testing.T) {
	m, _ := newTestModel(t, 0)

	failure := &dynamo.SimulationError{Step: 4, Time: 4 * 86400, Wrapped: dynamo.ErrInvalidState}
	m, _ = update(t, m, StoppedMsg{Err: failure})

	assert.False(t, m.Running())
	assert.True(t, errors.Is(m.Err(), dynamo.ErrInvalidState))
	assert.Contains(t, m.View(), "HALTED")

	// Space does nothing while halted; reset clears the error and restarts.
	m, cmd := update(t, m, key(" "))
	assert.Nil(t, cmd)
	m, cmd = update(t, m, key("r"))
	assert.NoError(t, m.Err())
	assert.True(t, m.Running())
	assert.NotNil(t, cmd)
}

func TestModelCancelIsNotAnError(t *testing.T) {
	m, _ := newTestModel(t, 0)
	m, _ = update(t, m, StoppedMsg{Err: context.Canceled})
	assert.NoError(t, m.Err())
	assert.False(t, m.Running())
}

func TestModelReset(t *testing.T) {
	m, s := newTestModel(t, 0)
	for i := 0; i < 5; i++ {
		_, err := s.Tick()
		require.NoError(t, err)
	}
	m, _ = update(t, m, StateMsg(s.Snapshot()))

	m, _ = update(t, m, key("r"))
	assert.Equal(t, 0, m.State().Step)
	assert.Equal(t, trinary(), m.State().Bodies)
	assert.Len(t, m.EnergyHistory(), 1)
}

func TestModelResetMsg(t *testing.T) {
	m, s := newTestModel(t, 0)

	pair := trinary()[:2]
	m, _ = update(t, m, ResetMsg{Bodies: pair})
	assert.NoError(t, m.Err())
	assert.Len(t, m.State().Bodies, 2)
	assert.Len(t, s.Snapshot().Trails, 2)

	m, _ = update(t, m, ResetMsg{Bodies: dynamo.Bodies{{Name: "x", Mass: 0}}})
	assert.ErrorIs(t, m.Err(), dynamo.ErrInvalidMass)
}

func TestModelZoomAndFit(t *testing.T) {
	m, _ := newTestModel(t, 1e9)
	assert.Equal(t, 1e9, m.Projection().Scale)

	m, _ = update(t, m, key("+"))
	assert.Less(t, m.Projection().Scale, 1e9)
	m, _ = update(t, m, key("-"))
	m, _ = update(t, m, key("-"))
	assert.Greater(t, m.Projection().Scale, 1e9)

	m, _ = update(t, m, key("c"))
	pw, ph := m.Canvas().PixelSize()
	assert.Equal(t, FitScale(m.State().Bodies, pw, ph, fitMargin), m.Projection().Scale)
}

func TestModelWindowResize(t *testing.T) {
	m, _ := newTestModel(t, 0)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 150, Height: 40})

	assert.Equal(t, 150-statsWidth-8, m.Canvas().Width)
	assert.Equal(t, 38, m.Canvas().Height)
	pw, ph := m.Canvas().PixelSize()
	assert.Equal(t, float64(pw)/2, m.Projection().CenterX)
	assert.Equal(t, float64(ph)/2, m.Projection().CenterY)
}

func TestModelThemeAndQuit(t *testing.T) {
	m, _ := newTestModel(t, 0)
	m, _ = update(t, m, key("t"))
	assert.Equal(t, "retro", m.Theme().Name)

	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelDrawsBodiesInTheirColors(t *testing.T) {
	m, _ := newTestModel(t, 0)
	m.View()

	for _, b := range m.State().Bodies {
		x, y := m.Projection().Project(b.Pos)
		assert.True(t, m.Canvas().IsSet(x, y), b.Name)
		assert.Equal(t, b.Color, string(m.Canvas().Colors[y/4][x/2]), b.Name)
	}
}

func TestPicker(t *testing.T) {
	p := NewPicker([]Choice{{"binary", "two"}, {"trinary", "four"}})
	assert.Contains(t, p.View(), "binary")

	next, _ := p.Update(key("down"))
	next, cmd := next.Update(key("enter"))
	assert.NotNil(t, cmd)
	assert.Equal(t, "trinary", next.(Picker).Selected())

	next, _ = NewPicker([]Choice{{"binary", "two"}}).Update(key("q"))
	assert.Empty(t, next.(Picker).Selected())
}
