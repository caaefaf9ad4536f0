package tui

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// falling moves every body down at 1 m/s until it reaches the ground.
type falling struct {
	t       float64
	start   []float64
	failAt  float64
	advance int
}

func (f *falling) AdvanceTo(_ context.Context, t float64) error {
	f.advance++
	if f.failAt > 0 && t >= f.failAt {
		return errors.New("diverged")
	}
	f.t = t
	return nil
}

func (f *falling) Time() float64 { return f.t }

func (f *falling) Heights() ([]float64, error) {
	z := make([]float64, len(f.start))
	for i, h := range f.start {
		z[i] = max(0, h-f.t)
	}
	return z, nil
}

func (f *falling) Bodies() []string { return []string{"box::box", "ball::ball"} }

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
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

func TestModelAdvancesOnTick(t *testing.T) {
	sim := &falling{start: []float64{0.5, 1.0}}
	m := NewModel(context.Background(), sim, "drop", 1.0, 0.1)
	require.NotNil(t, m.Init())

	m, cmd := update(t, m, tickMsg{})
	assert.NotNil(t, cmd)
	assert.InDelta(t, 0.1, sim.Time(), 1e-12)
	assert.False(t, m.Done())

	for i := 0; i < 20 && !m.Done(); i++ {
		m, cmd = update(t, m, tickMsg{})
	}
	assert.True(t, m.Done())
	assert.Nil(t, cmd)
	assert.InDelta(t, 1.0, sim.Time(), 1e-12)
	assert.NoError(t, m.Err())
}

func TestModelPause(t *testing.T) {
	sim := &falling{start: []float64{0.5}}
	m := NewModel(context.Background(), sim, "drop", 1.0, 0.1)

	m, _ = update(t, m, key(" "))
	assert.True(t, m.Paused())
	m, cmd := update(t, m, tickMsg{})
	assert.NotNil(t, cmd, "paused model keeps ticking")
	assert.Zero(t, sim.advance)

	m, _ = update(t, m, key("p"))
	assert.False(t, m.Paused())
	_, _ = update(t, m, tickMsg{})
	assert.Equal(t, 1, sim.advance)
}

func TestModelSpeed(t *testing.T) {
	sim := &falling{start: []float64{0.5}}
	m := NewModel(context.Background(), sim, "drop", 10.0, 0.1)

	m, _ = update(t, m, key("+"))
	m, _ = update(t, m, key("+"))
	assert.Equal(t, 4.0, m.Speed())
	m, _ = update(t, m, tickMsg{})
	assert.InDelta(t, 0.4, sim.Time(), 1e-12)

	for range 10 {
		m, _ = update(t, m, key("-"))
	}
	assert.Equal(t, 0.25, m.Speed())
	m, _ = update(t, m, key("0"))
	assert.Equal(t, 1.0, m.Speed())
}

func TestModelQuit(t *testing.T) {
	m := NewModel(context.Background(), &falling{start: []float64{1}}, "drop", 1.0, 0.1)
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelStopsOnError(t *testing.T) {
	sim := &falling{start: []float64{1}, failAt: 0.2}
	m := NewModel(context.Background(), sim, "drop", 1.0, 0.1)
	m, _ = update(t, m, tickMsg{})
	m, cmd := update(t, m, tickMsg{})
	assert.Nil(t, cmd)
	assert.True(t, m.Done())
	assert.EqualError(t, m.Err(), "diverged")
	assert.Contains(t, m.View(), "diverged")
}

func TestModelView(t *testing.T) {
	sim := &falling{start: []float64{0.5, 1.0}}
	m := NewModel(context.Background(), sim, "stack", 1.0, 0.1)
	m, _ = update(t, m, tickMsg{})

	view := m.View()
	assert.Contains(t, view, "stack")
	assert.Contains(t, view, "running")
	assert.Contains(t, view, "box::box")
	assert.Contains(t, view, "0.400 m")
	assert.Contains(t, view, "ball::ball")
	assert.Contains(t, view, "0.900 m")
	assert.Contains(t, view, "q quit")

	m, _ = update(t, m, key(" "))
	assert.Contains(t, m.View(), "paused")
}

func TestCanvasDraw(t *testing.T) {
	c := NewCanvas(1.0)
	c.Draw([]float64{0, 1.0})
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	require.Len(t, lines, height)

	assert.Contains(t, lines[height-1], "===")
	assert.Contains(t, lines[height-2], "[O]", "resting body sits on the ground")
	assert.Contains(t, lines[1], "[O]", "body at MaxHeight is drawn near the top")
	assert.Contains(t, lines[height-3], ":", "elevated body has a column")
}

func TestCanvasClampsHeights(t *testing.T) {
	c := NewCanvas(1.0)
	assert.Equal(t, 0, c.row(100))
	assert.Equal(t, height-2, c.row(-3))
	assert.Equal(t, height-2, c.row(math.NaN()))
}

func TestCanvasTrail(t *testing.T) {
	c := NewCanvas(1.0)
	for i := range trailLen + 10 {
		c.Draw([]float64{float64(i) / float64(trailLen+10)})
	}
	assert.Len(t, c.trail, trailLen)
}

func TestLiveRendererFrame(t *testing.T) {
	var buf bytes.Buffer
	sim := &falling{start: []float64{0.5}, t: 0.25}
	r := NewLiveRenderer(&buf, "drop", []string{"box::box"}, sim.Heights, 30)
	r.Start()
	r.Frame(0.25)
	r.Stop()

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, hideCursor+clearScreen))
	assert.Contains(t, out, "drop  t=0.25s")
	assert.Contains(t, out, "box::box=0.250")
	assert.True(t, strings.HasSuffix(out, showCursor))
}

func TestLiveRendererThrottles(t *testing.T) {
	var buf bytes.Buffer
	sim := &falling{start: []float64{0.5}}
	r := NewLiveRenderer(&buf, "drop", nil, sim.Heights, 1)
	r.OnStep(0, nil)
	first := buf.Len()
	require.Positive(t, first)
	r.OnStep(0.001, nil)
	assert.Equal(t, first, buf.Len())
	assert.Contains(t, buf.String(), "z0=0.500")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, 10, strings.Count(ProgressBar(2, 10), "█"))
	assert.Equal(t, 10, strings.Count(ProgressBar(-1, 10), "░"))
	assert.Equal(t, 5, strings.Count(ProgressBar(0.5, 10), "█"))
}
