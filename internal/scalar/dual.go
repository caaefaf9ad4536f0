package scalar

// Dual carries a value and its gradient with respect to a fixed set of
// independent variables.
type Dual struct {
	V float64
	D []float64
}

// Variable returns a Dual seeded as the i-th of n independent variables.
func Variable(v float64, i, n int) Dual {
	d := make([]float64, n)
	if i >= 0 && i < n {
		d[i] = 1
	}
	return Dual{V: v, D: d}
}

func (a Dual) Add(b Dual) Dual {
	return Dual{V: a.V + b.V, D: combine(a.D, 1, b.D, 1)}
}

func (a Dual) Sub(b Dual) Dual {
	return Dual{V: a.V - b.V, D: combine(a.D, 1, b.D, -1)}
}

func (a Dual) Mul(b Dual) Dual {
	return Dual{V: a.V * b.V, D: combine(a.D, b.V, b.D, a.V)}
}

func (a Dual) Div(b Dual) Dual {
	inv := 1 / b.V
	return Dual{V: a.V * inv, D: combine(a.D, inv, b.D, -a.V*inv*inv)}
}

func (a Dual) Neg() Dual {
	return Dual{V: -a.V, D: combine(a.D, -1, nil, 0)}
}

func (Dual) Lift(c float64) Dual { return Dual{V: c} }

func (a Dual) Float() float64 { return a.V }

// Derivative returns the partial derivative with respect to variable i.
func (a Dual) Derivative(i int) float64 {
	if i < 0 || i >= len(a.D) {
		return 0
	}
	return a.D[i]
}

// combine returns ka*a + kb*b, zero-extending the shorter gradient.
func combine(a []float64, ka float64, b []float64, kb float64) []float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range a {
		out[i] += ka * a[i]
	}
	for i := range b {
		out[i] += kb * b[i]
	}
	return out
}
