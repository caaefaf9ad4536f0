package scalar

// Value is the arithmetic every scalar kind supports. Lift builds a constant of the
// receiver's kind and must work on the zero value.
type Value[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Neg() T
	Lift(c float64) T
	Float() float64
}

// From returns the constant c as a T.
func From[T Value[T]](c float64) T {
	var zero T
	return zero.Lift(c)
}

// Convert lifts the primal value of x into the scalar kind U.
func Convert[U Value[U], T Value[T]](x T) U {
	return From[U](x.Float())
}

// ConvertSlice converts every element of xs.
func ConvertSlice[U Value[U], T Value[T]](xs []T) []U {
	out := make([]U, len(xs))
	for i, x := range xs {
		out[i] = Convert[U](x)
	}
	return out
}

// Floats returns the primal values of xs.
func Floats[T Value[T]](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x.Float()
	}
	return out
}

// Less reports whether a's primal value is below b's.
func Less[T Value[T]](a, b T) bool {
	return a.Float() < b.Float()
}

// Float is a plain double.
type Float float64

func (f Float) Add(o Float) Float  { return f + o }
func (f Float) Sub(o Float) Float  { return f - o }
func (f Float) Mul(o Float) Float  { return f * o }
func (f Float) Div(o Float) Float  { return f / o }
func (f Float) Neg() Float         { return -f }
func (Float) Lift(c float64) Float { return Float(c) }
func (f Float) Float() float64     { return float64(f) }
