package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"

	trailLen = 40
)

// Canvas draws body heights as columns standing on a ground line.
type Canvas struct {
	cells [][]rune
	trail []struct{ x, y int }
	// MaxHeight is the height mapped to the top row.
	MaxHeight float64
}

func NewCanvas(maxHeight float64) *Canvas {
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = make([]rune, width)
	}
	if !(maxHeight > 0) {
		maxHeight = 1
	}
	c := &Canvas{cells: cells, MaxHeight: maxHeight, trail: make([]struct{ x, y int }, 0, trailLen)}
	c.clear()
	return c
}

func (c *Canvas) clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *Canvas) set(x, y int, r rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		c.cells[y][x] = r
	}
}

func (c *Canvas) line(x1, y1, x2, y2 int, r rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// row maps a height to a canvas row. Row height-2 is the ground.
func (c *Canvas) row(z float64) int {
	ground := height - 2
	if math.IsNaN(z) {
		return ground
	}
	r := ground - int(math.Round(z/c.MaxHeight*float64(ground-1)))
	return max(0, min(ground, r))
}

// Draw redraws the canvas for the given heights. The highest body leaves a trail.
func (c *Canvas) Draw(heights []float64) {
	c.clear()
	ground := height - 2
	c.line(2, ground+1, width-3, ground+1, '=')
	if len(heights) == 0 {
		return
	}
	spacing := (width - 8) / (len(heights) + 1)
	top, topX := -1, 0
	for i, z := range heights {
		x := 4 + spacing*(i+1)
		y := c.row(z)
		if y < ground {
			c.line(x, ground, x, y+1, ':')
		}
		c.set(x-1, y, '[')
		c.set(x, y, 'O')
		c.set(x+1, y, ']')
		if top < 0 || y < top {
			top, topX = y, x
		}
	}
	c.trail = append(c.trail, struct{ x, y int }{topX + 3, top})
	if len(c.trail) > trailLen {
		c.trail = c.trail[1:]
	}
	for i, pt := range c.trail {
		if i < len(c.trail)/2 {
			c.set(pt.x, pt.y, '.')
		} else {
			c.set(pt.x, pt.y, 'o')
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, r := range c.cells {
		b.WriteString("  ")
		b.WriteString(strings.TrimRight(string(r), " "))
		b.WriteString("\n")
	}
	return b.String()
}

// HeightSource reports the current body heights.
type HeightSource func() ([]float64, error)

// LiveRenderer repaints a Canvas on a terminal as the simulator steps.
type LiveRenderer struct {
	out       io.Writer
	title     string
	bodies    []string
	heights   HeightSource
	frameRate int
	lastFrame time.Time
	canvas    *Canvas
}

func NewLiveRenderer(out io.Writer, title string, bodies []string, heights HeightSource, frameRate int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &LiveRenderer{
		out:       out,
		title:     title,
		bodies:    bodies,
		heights:   heights,
		frameRate: frameRate,
		canvas:    NewCanvas(maxHeightHint),
	}
}

// maxHeightHint is the default top of the canvas in meters.
const maxHeightHint = 1.5

// OnStep implements analysis.Observer. Frames are dropped above the frame rate.
func (r *LiveRenderer) OnStep(t float64, _ *systems.Context[scalar.Float]) {
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()
	r.Frame(t)
}

// Frame renders unconditionally.
func (r *LiveRenderer) Frame(t float64) {
	z, err := r.heights()
	if err != nil {
		return
	}
	r.canvas.Draw(z)

	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  %s  t=%.2fs\n", r.title, t)
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(r.canvas.String())
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString("  " + formatHeights(r.bodies, z) + "\n")
	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

func formatHeights(bodies []string, z []float64) string {
	parts := make([]string, 0, len(z))
	for i, v := range z {
		name := fmt.Sprintf("z%d", i)
		if i < len(bodies) {
			name = bodies[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%.3f", name, v))
		if i >= 3 {
			break
		}
	}
	return strings.Join(parts, " ")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
