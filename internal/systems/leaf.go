package systems

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// EventHandler reacts to a publish event.
type EventHandler[T scalar.Value[T]] func(ctx *Context[T]) error

// PeriodicEvent fires at Offset, Offset+Period, Offset+2*Period, ...
type PeriodicEvent[T scalar.Value[T]] struct {
	Period  float64
	Offset  float64
	Handler EventHandler[T]
}

// DerivativeFunc writes the time derivative of the continuous state into xdot.
type DerivativeFunc[T scalar.Value[T]] func(ctx *Context[T], xdot []T) error

// UpdateFunc writes the next discrete state into next.
type UpdateFunc[T scalar.Value[T]] func(ctx *Context[T], next []T) error

// LeafSystem is embedded by concrete subsystems. It implements every System
// method; the embedding type supplies behavior through the Declare* methods.
type LeafSystem[T scalar.Value[T]] struct {
	id      uuid.UUID
	name    string
	kind    Kind
	inputs  []*InputPort[T]
	outputs []*OutputPort[T]

	numContinuous int
	derivatives   DerivativeFunc[T]

	numDiscrete int
	update      *PeriodicEvent[T]
	updateFn    UpdateFunc[T]

	publishes []PeriodicEvent[T]
	onInit    []EventHandler[T]
	perStep   []EventHandler[T]
	defaults  func(ctx *Context[T])
}

func NewLeafSystem[T scalar.Value[T]](kind Kind) *LeafSystem[T] {
	return &LeafSystem[T]{id: uuid.New(), kind: kind}
}

func (l *LeafSystem[T]) Leaf() *LeafSystem[T] { return l }
func (l *LeafSystem[T]) ID() uuid.UUID        { return l.id }
func (l *LeafSystem[T]) Name() string         { return l.name }
func (l *LeafSystem[T]) SetName(name string)  { l.name = name }
func (l *LeafSystem[T]) Kind() Kind           { return l.kind }
func (l *LeafSystem[T]) NumInputPorts() int   { return len(l.inputs) }
func (l *LeafSystem[T]) NumOutputPorts() int  { return len(l.outputs) }

func (l *LeafSystem[T]) InputPort(i int) *InputPort[T] {
	if i < 0 || i >= len(l.inputs) {
		return nil
	}
	return l.inputs[i]
}

func (l *LeafSystem[T]) OutputPort(i int) *OutputPort[T] {
	if i < 0 || i >= len(l.outputs) {
		return nil
	}
	return l.outputs[i]
}

func (l *LeafSystem[T]) InputPortByName(name string) *InputPort[T] {
	for _, p := range l.inputs {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (l *LeafSystem[T]) OutputPortByName(name string) *OutputPort[T] {
	for _, p := range l.outputs {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (l *LeafSystem[T]) DeclareInputPort(name string) *InputPort[T] {
	p := &InputPort[T]{owner: l.id, index: len(l.inputs), name: name}
	l.inputs = append(l.inputs, p)
	return p
}

func (l *LeafSystem[T]) DeclareOutputPort(name string, calc CalcFunc[T]) *OutputPort[T] {
	p := &OutputPort[T]{owner: l.id, index: len(l.outputs), name: name, calc: calc}
	l.outputs = append(l.outputs, p)
	return p
}

func (l *LeafSystem[T]) DeclareContinuousState(n int, fn DerivativeFunc[T]) {
	l.numContinuous = n
	l.derivatives = fn
}

// DeclareDiscreteState declares n discrete states updated every period seconds.
func (l *LeafSystem[T]) DeclareDiscreteState(n int, period, offset float64, fn UpdateFunc[T]) {
	l.numDiscrete = n
	l.update = &PeriodicEvent[T]{Period: period, Offset: offset}
	l.updateFn = fn
}

func (l *LeafSystem[T]) DeclarePeriodicPublish(period, offset float64, fn EventHandler[T]) {
	l.publishes = append(l.publishes, PeriodicEvent[T]{Period: period, Offset: offset, Handler: fn})
}

func (l *LeafSystem[T]) DeclareInitializationPublish(fn EventHandler[T]) {
	l.onInit = append(l.onInit, fn)
}

func (l *LeafSystem[T]) DeclarePerStepPublish(fn EventHandler[T]) {
	l.perStep = append(l.perStep, fn)
}

// SetDefaultState installs the hook run on every newly created context.
func (l *LeafSystem[T]) SetDefaultState(fn func(ctx *Context[T])) {
	l.defaults = fn
}

func (l *LeafSystem[T]) CreateDefaultContext() *Context[T] {
	ctx := newContext[T](l.id, l.numContinuous, l.numDiscrete)
	if l.defaults != nil {
		l.defaults(ctx)
	}
	return ctx
}

func (l *LeafSystem[T]) ValidateContext(ctx ContextReader[T]) error {
	if ctx == nil {
		return fmt.Errorf("%w: nil context for %q", ErrContextMismatch, l.name)
	}
	if ctx.SystemID() != l.id {
		return fmt.Errorf("%w: context %s is not for %q", ErrContextMismatch, ctx.SystemID(), l.name)
	}
	if ctx.NumSubcontexts() != 0 {
		return fmt.Errorf("%w: diagram context passed to leaf %q", ErrContextMismatch, l.name)
	}
	if len(ctx.ContinuousState()) != l.numContinuous || len(ctx.DiscreteState()) != l.numDiscrete {
		return fmt.Errorf("%w: context for %q", ErrStateSize, l.name)
	}
	return nil
}

func (l *LeafSystem[T]) NumContinuousStates() int { return l.numContinuous }
func (l *LeafSystem[T]) NumDiscreteStates() int   { return l.numDiscrete }

// CalcDerivatives evaluates the continuous-state derivative in ctx.
func (l *LeafSystem[T]) CalcDerivatives(ctx *Context[T]) ([]T, error) {
	xdot := make([]T, l.numContinuous)
	if l.derivatives == nil || l.numContinuous == 0 {
		return xdot, nil
	}
	if err := l.derivatives(ctx, xdot); err != nil {
		return nil, err
	}
	return xdot, nil
}

// DiscreteUpdate reports the discrete update schedule, if any.
func (l *LeafSystem[T]) DiscreteUpdate() (PeriodicEvent[T], bool) {
	if l.update == nil || l.updateFn == nil {
		return PeriodicEvent[T]{}, false
	}
	return *l.update, true
}

// ApplyDiscreteUpdate computes the next discrete state and stores it in ctx.
func (l *LeafSystem[T]) ApplyDiscreteUpdate(ctx *Context[T]) error {
	if l.updateFn == nil {
		return nil
	}
	next := ctx.DiscreteState()
	if err := l.updateFn(ctx, next); err != nil {
		return err
	}
	return ctx.SetDiscreteState(next)
}

func (l *LeafSystem[T]) PeriodicPublishes() []PeriodicEvent[T] {
	return append([]PeriodicEvent[T](nil), l.publishes...)
}

func (l *LeafSystem[T]) InitializationPublishes() []EventHandler[T] {
	return append([]EventHandler[T](nil), l.onInit...)
}

func (l *LeafSystem[T]) PerStepPublishes() []EventHandler[T] {
	return append([]EventHandler[T](nil), l.perStep...)
}
