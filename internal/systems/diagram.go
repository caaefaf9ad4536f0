package systems

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// Diagram is a sealed subsystem graph. Its topology never changes.
type Diagram[T scalar.Value[T]] struct {
	id      uuid.UUID
	name    string
	systems []System[T]
	byID    map[uuid.UUID]int
	wiring  map[PortLocator]PortLocator
	order   []PortLocator
}

func (d *Diagram[T]) AsDiagram() *Diagram[T]        { return d }
func (d *Diagram[T]) ID() uuid.UUID                 { return d.id }
func (d *Diagram[T]) Name() string                  { return d.name }
func (d *Diagram[T]) SetName(name string)           { d.name = name }
func (d *Diagram[T]) Kind() Kind                    { return DiagramKind }
func (d *Diagram[T]) NumInputPorts() int            { return 0 }
func (d *Diagram[T]) NumOutputPorts() int           { return 0 }
func (d *Diagram[T]) InputPort(int) *InputPort[T]   { return nil }
func (d *Diagram[T]) OutputPort(int) *OutputPort[T] { return nil }
func (d *Diagram[T]) Connections() []Connection     { return describe(d.systems, d.wiring, d.order) }
func (d *Diagram[T]) Systems() []System[T]          { return append([]System[T](nil), d.systems...) }

func (d *Diagram[T]) HasSubsystem(s System[T]) bool {
	_, ok := d.byID[s.ID()]
	return ok
}

func (d *Diagram[T]) SubsystemByName(name string) (System[T], error) {
	return unique(d.systems, "diagram", name)
}

// CreateDefaultContext returns a fresh context tree owned by the caller.
func (d *Diagram[T]) CreateDefaultContext() *Context[T] {
	ctx := newContext[T](d.id, 0, 0)
	ctx.members = d.systems
	ctx.wiring = d.wiring
	for i, s := range d.systems {
		ctx.adopt(i, s.CreateDefaultContext())
	}
	return ctx
}

func (d *Diagram[T]) ValidateContext(ctx ContextReader[T]) error {
	if ctx == nil {
		return fmt.Errorf("%w: nil context for diagram", ErrContextMismatch)
	}
	if ctx.SystemID() != d.id {
		return fmt.Errorf("%w: context %s is not for diagram %q", ErrContextMismatch, ctx.SystemID(), d.name)
	}
	if ctx.NumSubcontexts() != len(d.systems) {
		return fmt.Errorf("%w: diagram context has %d subcontexts, want %d",
			ErrContextMismatch, ctx.NumSubcontexts(), len(d.systems))
	}
	return nil
}

// SubsystemContext returns the subcontext of root that belongs to s.
func (d *Diagram[T]) SubsystemContext(s System[T], root *Context[T]) (*Context[T], error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root context", ErrContextMismatch)
	}
	if err := d.ValidateContext(root); err != nil {
		return nil, err
	}
	i, ok := d.byID[s.ID()]
	if !ok {
		return nil, &LookupError{Where: "diagram", Name: s.Name(), Want: s.Kind(), Err: ErrMissingSubsystem}
	}
	return root.children[i], nil
}

// LeafBinding pairs a leaf system with its context inside a context tree.
type LeafBinding[T scalar.Value[T]] struct {
	System  System[T]
	Leaf    *LeafSystem[T]
	Context *Context[T]
}

// Leaves flattens the diagram, descending into nested diagrams, in registration order.
func (d *Diagram[T]) Leaves(root *Context[T]) ([]LeafBinding[T], error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root context", ErrContextMismatch)
	}
	if err := d.ValidateContext(root); err != nil {
		return nil, err
	}
	var out []LeafBinding[T]
	for i, s := range d.systems {
		switch sys := s.(type) {
		case DiagramProvider[T]:
			nested, err := sys.AsDiagram().Leaves(root.children[i])
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		case LeafProvider[T]:
			out = append(out, LeafBinding[T]{System: s, Leaf: sys.Leaf(), Context: root.children[i]})
		}
	}
	return out, nil
}
