package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oscillator(t float64, x []float64) ([]float64, error) {
	return []float64{x[1], -x[0]}, nil
}

func energy(x []float64) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func run(t *testing.T, integ Integrator, x []float64, dt float64, steps int) []float64 {
	t.Helper()
	var err error
	for i := 0; i < steps; i++ {
		x, err = integ.Step(oscillator, float64(i)*dt, x, dt)
		require.NoError(t, err)
	}
	return x
}

func TestRK4Accuracy(t *testing.T) {
	dt := 0.01
	steps := 100
	x := run(t, NewRK4(), []float64{1, 0}, dt, steps)

	assert.InDelta(t, math.Cos(float64(steps)*dt), x[0], 1e-4)
	assert.InDelta(t, -math.Sin(float64(steps)*dt), x[1], 1e-4)
}

func TestRK45EnergyConservation(t *testing.T) {
	x0 := []float64{1, 0}
	x := run(t, NewRK45(), x0, 0.01, 10000)

	drift := math.Abs(energy(x)-energy(x0)) / energy(x0)
	assert.Less(t, drift, 1e-6)
}

func TestEulerDrifts(t *testing.T) {
	x0 := []float64{1, 0}
	x := run(t, NewEuler(), x0, 0.01, 1000)

	assert.Greater(t, energy(x), energy(x0), "explicit euler gains energy on an oscillator")
}

func TestStepDoesNotMutateInput(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, err := ByName(name)
			require.NoError(t, err)
			x := []float64{1, 0}
			next, err := integ.Step(oscillator, 0, x, 0.1)
			require.NoError(t, err)
			assert.Equal(t, []float64{1, 0}, x)
			assert.NotEqual(t, x, next)
		})
	}
}

func TestDerivativeErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	failing := func(float64, []float64) ([]float64, error) { return nil, boom }

	for _, name := range Names() {
		integ, err := ByName(name)
		require.NoError(t, err)
		_, err = integ.Step(failing, 0, []float64{1}, 0.1)
		assert.ErrorIs(t, err, boom, name)
	}
}

func TestDerivativeLengthMismatch(t *testing.T) {
	short := func(float64, []float64) ([]float64, error) { return []float64{0}, nil }
	for _, name := range Names() {
		integ, err := ByName(name)
		require.NoError(t, err)
		_, err = integ.Step(short, 0, []float64{1, 2}, 0.1)
		assert.Error(t, err, name)
	}
}

func TestRK45AdaptiveRejectsLargeSteps(t *testing.T) {
	r := NewRK45()
	_, dtNext, accepted, err := r.StepAdaptive(oscillator, 0, []float64{1, 0}, 2.0, 1e-10)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Less(t, dtNext, 2.0)

	_, dtNext, accepted, err = r.StepAdaptive(oscillator, 0, []float64{1, 0}, 1e-4, 1e-6)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Greater(t, dtNext, 1e-4)
}

func TestByName(t *testing.T) {
	assert.Equal(t, []string{"euler", "rk4", "rk45"}, Names())

	integ, err := ByName("rk4")
	require.NoError(t, err)
	assert.Equal(t, "rk4", integ.Name())

	_, err = ByName("verlet")
	assert.ErrorIs(t, err, ErrUnknownIntegrator)
}
