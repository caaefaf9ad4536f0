package analysis

import (
	"errors"
	"math"
	"strings"
)

var ErrShortSeries = errors.New("analysis: phase portrait needs at least two samples of equal length")

// PhasePoint is one body's height and vertical rate.
type PhasePoint struct {
	Z, V float64
}

// PhasePortrait pairs each sampled height with its rate, estimated by central
// differences inside the series and one-sided differences at the ends.
func PhasePortrait(times, z []float64) ([]PhasePoint, error) {
	n := len(times)
	if n < 2 || len(z) != n {
		return nil, ErrShortSeries
	}
	out := make([]PhasePoint, n)
	for i := range n {
		lo, hi := max(i-1, 0), min(i+1, n-1)
		dt := times[hi] - times[lo]
		if !(dt > 0) {
			return nil, ErrInvalidTime
		}
		out[i] = PhasePoint{Z: z[i], V: (z[hi] - z[lo]) / dt}
	}
	return out, nil
}

// PlotPhase draws points with height across and rate upward, with the zero
// rate axis marked.
func PlotPhase(points []PhasePoint, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minZ, maxZ = math.Min(minZ, p.Z), math.Max(maxZ, p.Z)
		minV, maxV = math.Min(minV, p.V), math.Max(maxV, p.V)
	}
	spanZ := padded(&minZ, &maxZ)
	spanV := padded(&minV, &maxV)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	cell := func(z, v float64) (int, int) {
		col := int((z - minZ) / spanZ * float64(width-1))
		row := height - 1 - int((v-minV)/spanV*float64(height-1))
		return row, col
	}
	if minV <= 0 && maxV >= 0 {
		row, _ := cell(minZ, 0)
		for col := range grid[row] {
			grid[row][col] = '─'
		}
	}
	for _, p := range points {
		row, col := cell(p.Z, p.V)
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(strings.TrimRight(string(row), " "))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// padded widens [lo, hi] by a tenth on each side and returns the new span.
func padded(lo, hi *float64) float64 {
	span := *hi - *lo
	if span == 0 {
		span = 1
	}
	*lo -= span * 0.1
	*hi += span * 0.1
	return *hi - *lo
}
