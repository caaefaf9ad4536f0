package systems

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// ContextReader is the read-only view of a Context.
type ContextReader[T scalar.Value[T]] interface {
	SystemID() uuid.UUID
	Time() T
	ContinuousState() []T
	DiscreteState() []T
	NumSubcontexts() int
}

// Context is the runtime state of one system. A diagram context owns one
// subcontext per child; all contexts of a tree share one clock.
type Context[T scalar.Value[T]] struct {
	systemID   uuid.UUID
	clock      *T
	continuous []T
	discrete   []T
	fixed      map[int]any

	parent   *Context[T]
	index    int
	children []*Context[T]

	// Set on diagram contexts only.
	members []System[T]
	wiring  map[PortLocator]PortLocator
}

func newContext[T scalar.Value[T]](id uuid.UUID, numContinuous, numDiscrete int) *Context[T] {
	return &Context[T]{
		systemID:   id,
		clock:      new(T),
		continuous: make([]T, numContinuous),
		discrete:   make([]T, numDiscrete),
		fixed:      make(map[int]any),
	}
}

func (c *Context[T]) SystemID() uuid.UUID { return c.systemID }
func (c *Context[T]) Time() T             { return *c.clock }
func (c *Context[T]) SetTime(t T)         { *c.clock = t }
func (c *Context[T]) NumSubcontexts() int { return len(c.children) }

// ContinuousState returns a copy of the continuous state.
func (c *Context[T]) ContinuousState() []T {
	return append([]T(nil), c.continuous...)
}

// MutableContinuousState returns the backing continuous state.
func (c *Context[T]) MutableContinuousState() []T {
	return c.continuous
}

func (c *Context[T]) SetContinuousState(x []T) error {
	if len(x) != len(c.continuous) {
		return fmt.Errorf("%w: continuous got %d, want %d", ErrStateSize, len(x), len(c.continuous))
	}
	copy(c.continuous, x)
	return nil
}

// DiscreteState returns a copy of the discrete state.
func (c *Context[T]) DiscreteState() []T {
	return append([]T(nil), c.discrete...)
}

// MutableDiscreteState returns the backing discrete state.
func (c *Context[T]) MutableDiscreteState() []T {
	return c.discrete
}

func (c *Context[T]) SetDiscreteState(x []T) error {
	if len(x) != len(c.discrete) {
		return fmt.Errorf("%w: discrete got %d, want %d", ErrStateSize, len(x), len(c.discrete))
	}
	copy(c.discrete, x)
	return nil
}

// FixInputPortValue feeds v to port regardless of wiring.
func (c *Context[T]) FixInputPortValue(port *InputPort[T], v any) error {
	if port.owner != c.systemID {
		return fmt.Errorf("%w: input port %q", ErrContextMismatch, port.name)
	}
	c.fixed[port.index] = v
	return nil
}

// Subcontext returns the i-th child context of a diagram context.
func (c *Context[T]) Subcontext(i int) *Context[T] {
	if i < 0 || i >= len(c.children) {
		return nil
	}
	return c.children[i]
}

// adopt attaches child as the i-th subcontext and moves its tree onto c's clock.
func (c *Context[T]) adopt(i int, child *Context[T]) {
	child.parent = c
	child.index = i
	child.setClock(c.clock)
	c.children = append(c.children, child)
}

func (c *Context[T]) setClock(clock *T) {
	c.clock = clock
	for _, ch := range c.children {
		ch.setClock(clock)
	}
}

func (c *Context[T]) resolveInput(child int, port *InputPort[T]) (any, error) {
	src, ok := c.wiring[PortLocator{System: child, Port: port.index}]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInputNotConnected, port.name)
	}
	out := c.members[src.System].OutputPort(src.Port)
	return out.Eval(c.children[src.System])
}
