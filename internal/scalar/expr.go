package scalar

import (
	"fmt"
	"math"
	"strconv"
)

type op int

const (
	opConst op = iota
	opVar
	opAdd
	opSub
	opMul
	opDiv
	opNeg
)

type node struct {
	op    op
	value float64
	name  string
	l, r  *node
}

// Expr is a symbolic expression. The zero value is the constant 0.
type Expr struct {
	n *node
}

// Var returns the free variable name.
func Var(name string) Expr {
	return Expr{n: &node{op: opVar, name: name}}
}

// Const returns the constant c.
func Const(c float64) Expr {
	return Expr{n: &node{op: opConst, value: c}}
}

func (e Expr) root() *node {
	if e.n == nil {
		return &node{op: opConst}
	}
	return e.n
}

func (e Expr) binary(o op, other Expr) Expr {
	l, r := e.root(), other.root()
	if l.op == opConst && r.op == opConst {
		return Const(fold(o, l.value, r.value))
	}
	return Expr{n: &node{op: o, l: l, r: r}}
}

func (e Expr) Add(o Expr) Expr { return e.binary(opAdd, o) }
func (e Expr) Sub(o Expr) Expr { return e.binary(opSub, o) }
func (e Expr) Mul(o Expr) Expr { return e.binary(opMul, o) }
func (e Expr) Div(o Expr) Expr { return e.binary(opDiv, o) }

func (e Expr) Neg() Expr {
	n := e.root()
	if n.op == opConst {
		return Const(-n.value)
	}
	return Expr{n: &node{op: opNeg, l: n}}
}

func (Expr) Lift(c float64) Expr { return Const(c) }

// Float evaluates e when it has no free variables and returns NaN otherwise.
func (e Expr) Float() float64 {
	v, err := e.Evaluate(nil)
	if err != nil {
		return math.NaN()
	}
	return v
}

// IsConstant reports whether e has no free variables.
func (e Expr) IsConstant() bool {
	return len(e.Variables()) == 0
}

// Variables returns the distinct free variable names in first-seen order.
func (e Expr) Variables() []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		if n.op == opVar && !seen[n.name] {
			seen[n.name] = true
			names = append(names, n.name)
		}
		walk(n.l)
		walk(n.r)
	}
	walk(e.root())
	return names
}

// Evaluate substitutes env into e.
func (e Expr) Evaluate(env map[string]float64) (float64, error) {
	return eval(e.root(), env)
}

func eval(n *node, env map[string]float64) (float64, error) {
	switch n.op {
	case opConst:
		return n.value, nil
	case opVar:
		v, ok := env[n.name]
		if !ok {
			return 0, fmt.Errorf("scalar: unbound variable %q", n.name)
		}
		return v, nil
	case opNeg:
		v, err := eval(n.l, env)
		return -v, err
	}
	l, err := eval(n.l, env)
	if err != nil {
		return 0, err
	}
	r, err := eval(n.r, env)
	if err != nil {
		return 0, err
	}
	return fold(n.op, l, r), nil
}

func fold(o op, l, r float64) float64 {
	switch o {
	case opAdd:
		return l + r
	case opSub:
		return l - r
	case opMul:
		return l * r
	case opDiv:
		return l / r
	}
	return math.NaN()
}

func (e Expr) String() string {
	return format(e.root())
}

func format(n *node) string {
	switch n.op {
	case opConst:
		return strconv.FormatFloat(n.value, 'g', -1, 64)
	case opVar:
		return n.name
	case opNeg:
		return "(-" + format(n.l) + ")"
	}
	sym := map[op]string{opAdd: " + ", opSub: " - ", opMul: " * ", opDiv: " / "}[n.op]
	return "(" + format(n.l) + sym + format(n.r) + ")"
}
