package integrators

// Euler is the explicit first-order method.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(f Derivative, t float64, x []float64, dt float64) ([]float64, error) {
	dx, err := f(t, x)
	if err != nil {
		return nil, err
	}
	if err := checkLen(e.Name(), dx, len(x)); err != nil {
		return nil, err
	}
	result := make([]float64, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result, nil
}
