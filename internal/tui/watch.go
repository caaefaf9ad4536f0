package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FrameInterval is the wall-clock spacing of watch ticks.
const FrameInterval = 33 * time.Millisecond

// Stepper is the part of an experiment the watch view drives.
type Stepper interface {
	AdvanceTo(ctx context.Context, t float64) error
	Time() float64
	Heights() ([]float64, error)
	Bodies() []string
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is a bubbletea model that advances a Stepper by one frame per tick.
type Model struct {
	ctx      context.Context
	sim      Stepper
	title    string
	duration float64
	// frame is the simulated time per tick at speed 1.
	frame   float64
	speed   float64
	paused  bool
	done    bool
	err     error
	heights []float64
	canvas  *Canvas
}

func NewModel(ctx context.Context, sim Stepper, title string, duration, frame float64) Model {
	if !(frame > 0) {
		frame = FrameInterval.Seconds()
	}
	m := Model{
		ctx:      ctx,
		sim:      sim,
		title:    title,
		duration: duration,
		frame:    frame,
		speed:    1,
		canvas:   NewCanvas(maxHeightHint),
	}
	m.heights, m.err = sim.Heights()
	m.done = m.err != nil
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Paused() bool   { return m.paused }
func (m Model) Done() bool     { return m.done }
func (m Model) Err() error     { return m.err }
func (m Model) Speed() float64 { return m.speed }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "+", "=":
			m.speed = math.Min(m.speed*2, 16)
		case "-", "_":
			m.speed = math.Max(m.speed/2, 0.25)
		case "0":
			m.speed = 1
		}
		return m, nil
	case tickMsg:
		if m.done {
			return m, nil
		}
		if !m.paused {
			m.step()
		}
		if m.done {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	target := math.Min(m.duration, m.sim.Time()+m.frame*m.speed)
	if err := m.sim.AdvanceTo(m.ctx, target); err != nil {
		m.err, m.done = err, true
		return
	}
	z, err := m.sim.Heights()
	if err != nil {
		m.err, m.done = err, true
		return
	}
	m.heights = z
	if m.sim.Time() >= m.duration-1e-9 {
		m.done = true
	}
}

func (m Model) View() string {
	var b strings.Builder

	status := StatusRunning.Render("● running")
	switch {
	case m.err != nil:
		status = StatusError.Render("✕ " + m.err.Error())
	case m.done:
		status = StatusDone.Render("■ done")
	case m.paused:
		status = StatusPaused.Render("○ paused")
	}
	b.WriteString(Header.Render(Title.Render(m.title)+"  "+status) + "\n")

	t := m.sim.Time()
	progress := 1.0
	if m.duration > 0 {
		progress = t / m.duration
	}
	fmt.Fprintf(&b, "%s %s  %s\n", ProgressBar(progress, 36),
		Subtle.Render(fmt.Sprintf("%.2fs/%.2fs", t, m.duration)),
		Subtle.Render(fmt.Sprintf("x%g", m.speed)))

	m.canvas.Draw(m.heights)
	b.WriteString(Panel.Render(strings.TrimSuffix(m.canvas.String(), "\n")) + "\n")

	bodies := m.sim.Bodies()
	for i, z := range m.heights {
		name := fmt.Sprintf("z%d", i)
		if i < len(bodies) {
			name = bodies[i]
		}
		b.WriteString("  " + Metric(name, fmt.Sprintf("%.3f m", z)) + "\n")
	}
	b.WriteString(KeyHint.Render("  space pause  +/- speed  0 reset speed  q quit") + "\n")
	return b.String()
}
