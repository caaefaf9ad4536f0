package systems

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// CalcFunc computes an output port value from a context.
type CalcFunc[T scalar.Value[T]] func(ctx *Context[T]) (any, error)

type InputPort[T scalar.Value[T]] struct {
	owner uuid.UUID
	index int
	name  string
}

func (p *InputPort[T]) Name() string        { return p.name }
func (p *InputPort[T]) Index() int          { return p.index }
func (p *InputPort[T]) SystemID() uuid.UUID { return p.owner }

// Eval returns the value feeding p in ctx: a fixed value if one is set, otherwise
// the connected output port evaluated in the sibling context.
func (p *InputPort[T]) Eval(ctx *Context[T]) (any, error) {
	if ctx.systemID != p.owner {
		return nil, fmt.Errorf("%w: input port %q", ErrContextMismatch, p.name)
	}
	if v, ok := ctx.fixed[p.index]; ok {
		return v, nil
	}
	if ctx.parent == nil {
		return nil, fmt.Errorf("%w: %q", ErrInputNotConnected, p.name)
	}
	return ctx.parent.resolveInput(ctx.index, p)
}

type OutputPort[T scalar.Value[T]] struct {
	owner uuid.UUID
	index int
	name  string
	calc  CalcFunc[T]
}

func (p *OutputPort[T]) Name() string        { return p.name }
func (p *OutputPort[T]) Index() int          { return p.index }
func (p *OutputPort[T]) SystemID() uuid.UUID { return p.owner }

// Eval computes the port value in the owning system's context.
func (p *OutputPort[T]) Eval(ctx *Context[T]) (any, error) {
	if ctx.systemID != p.owner {
		return nil, fmt.Errorf("%w: output port %q", ErrContextMismatch, p.name)
	}
	return p.calc(ctx)
}

// EvalInput evaluates p and asserts its value is a V.
func EvalInput[V any, T scalar.Value[T]](p *InputPort[T], ctx *Context[T]) (V, error) {
	raw, err := p.Eval(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	return as[V](raw, p.name)
}

// EvalOutput evaluates p and asserts its value is a V.
func EvalOutput[V any, T scalar.Value[T]](p *OutputPort[T], ctx *Context[T]) (V, error) {
	raw, err := p.Eval(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	return as[V](raw, p.name)
}

func as[V any](raw any, port string) (V, error) {
	v, ok := raw.(V)
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: port %q carries %T, want %T", ErrValueType, port, raw, zero)
	}
	return v, nil
}
