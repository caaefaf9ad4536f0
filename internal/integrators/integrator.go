package integrators

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

// Derivative evaluates dx/dt at (t, x). The returned slice must not alias x.
type Derivative func(t float64, x []float64) ([]float64, error)

// Integrator advances a flat state vector by one fixed step.
type Integrator interface {
	Name() string
	Step(f Derivative, t float64, x []float64, dt float64) ([]float64, error)
}

var registry = map[string]func() Integrator{
	"euler": func() Integrator { return NewEuler() },
	"rk4":   func() Integrator { return NewRK4() },
	"rk45":  func() Integrator { return NewRK45() },
}

// ByName returns a fresh integrator. Integrators keep scratch buffers and
// must not be shared between goroutines.
func ByName(name string) (Integrator, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownIntegrator, name, Names())
	}
	return mk(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func checkLen(name string, dx []float64, n int) error {
	if len(dx) != n {
		return fmt.Errorf("integrators: %s: derivative has %d entries, state has %d", name, len(dx), n)
	}
	return nil
}
