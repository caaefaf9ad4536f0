package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhasePortraitRates(t *testing.T) {
	times := []float64{0, 0.1, 0.2, 0.3}
	z := []float64{1.0, 0.9, 0.8, 0.7}
	points, err := PhasePortrait(times, z)
	require.NoError(t, err)
	require.Len(t, points, 4)
	for i, p := range points {
		assert.Equal(t, z[i], p.Z)
		assert.InDelta(t, -1.0, p.V, 1e-9)
	}
}

func TestPhasePortraitFreeFall(t *testing.T) {
	const g = 9.81
	var times, z []float64
	for i := range 11 {
		tm := 0.01 * float64(i)
		times = append(times, tm)
		z = append(z, 1-0.5*g*tm*tm)
	}
	points, err := PhasePortrait(times, z)
	require.NoError(t, err)
	// Central differences are exact for a parabola.
	assert.InDelta(t, -g*0.05, points[5].V, 1e-9)
}

func TestPhasePortraitErrors(t *testing.T) {
	_, err := PhasePortrait([]float64{0}, []float64{1})
	assert.ErrorIs(t, err, ErrShortSeries)
	_, err = PhasePortrait([]float64{0, 1}, []float64{1})
	assert.ErrorIs(t, err, ErrShortSeries)
	_, err = PhasePortrait([]float64{0, 0, 0}, []float64{1, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestPlotPhase(t *testing.T) {
	points := []PhasePoint{{Z: 1, V: 0}, {Z: 0.5, V: -2}, {Z: 0, V: 1}}
	out := PlotPhase(points, 20, 8)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, 3, strings.Count(out, "•"))
	assert.Contains(t, out, "─")

	assert.Empty(t, PlotPhase(nil, 20, 8))
	assert.Empty(t, PlotPhase(points, 1, 8))
}
