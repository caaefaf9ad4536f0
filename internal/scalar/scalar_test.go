package scalar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLiftsZeroValue(t *testing.T) {
	assert.Equal(t, Float(2.5), From[Float](2.5))
	assert.Equal(t, 2.5, From[Dual](2.5).V)
	assert.Equal(t, 2.5, From[Expr](2.5).Float())
}

func TestDualProductRule(t *testing.T) {
	x := Variable(3, 0, 2)
	y := Variable(4, 1, 2)

	f := x.Mul(y).Add(x)
	assert.Equal(t, 15.0, f.V)
	assert.Equal(t, 5.0, f.Derivative(0))
	assert.Equal(t, 3.0, f.Derivative(1))

	g := x.Div(y)
	assert.InDelta(t, 0.75, g.V, 1e-12)
	assert.InDelta(t, 0.25, g.Derivative(0), 1e-12)
	assert.InDelta(t, -3.0/16.0, g.Derivative(1), 1e-12)
}

func TestDualMixedGradientLengths(t *testing.T) {
	c := From[Dual](2)
	x := Variable(1, 0, 1)
	sum := c.Sub(x).Neg()
	assert.Equal(t, -1.0, sum.V)
	assert.Equal(t, 1.0, sum.Derivative(0))
	assert.Equal(t, 0.0, sum.Derivative(7))
}

func TestExprFoldsConstants(t *testing.T) {
	e := Const(2).Mul(Const(3)).Add(From[Expr](1))
	assert.True(t, e.IsConstant())
	assert.Equal(t, 7.0, e.Float())
	assert.Equal(t, "7", e.String())
}

func TestExprEvaluate(t *testing.T) {
	x := Var("x")
	e := x.Mul(x).Sub(Const(1)).Div(Const(2))
	assert.Equal(t, []string{"x"}, e.Variables())
	assert.True(t, math.IsNaN(e.Float()))
	assert.Equal(t, "(((x * x) - 1) / 2)", e.String())

	v, err := e.Evaluate(map[string]float64{"x": 3})
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	_, err = e.Evaluate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbound variable")
}

func TestExprZeroValue(t *testing.T) {
	var e Expr
	assert.Equal(t, 0.0, e.Float())
	assert.Equal(t, "-1", e.Sub(Const(1)).String())
}

func TestConvert(t *testing.T) {
	xs := []Float{1, 2, 3}
	ds := ConvertSlice[Dual](xs)
	require.Len(t, ds, 3)
	assert.Equal(t, 2.0, ds[1].V)
	assert.Equal(t, []float64{1, 2, 3}, Floats(ds))
	assert.True(t, Less(Float(1), Float(2)))
}
