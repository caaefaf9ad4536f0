package systems

import (
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// BuilderReader is the read-only view of a Builder.
type BuilderReader[T scalar.Value[T]] interface {
	Systems() []System[T]
	HasSystemNamed(name string) bool
	SystemByName(name string) (System[T], error)
	Connections() []Connection
	IsConnected(in *InputPort[T]) bool
	IsBuilt() bool
}

// Builder assembles subsystems and their wiring. It is consumed by Build.
type Builder[T scalar.Value[T]] struct {
	systems []System[T]
	byID    map[uuid.UUID]int
	wiring  map[PortLocator]PortLocator
	order   []PortLocator
	built   bool
}

func NewBuilder[T scalar.Value[T]]() *Builder[T] {
	return &Builder[T]{
		byID:   make(map[uuid.UUID]int),
		wiring: make(map[PortLocator]PortLocator),
	}
}

// Add registers s with b and returns it with its concrete type.
func Add[S System[T], T scalar.Value[T]](b *Builder[T], s S) (S, error) {
	if err := b.AddSystem(s); err != nil {
		var zero S
		return zero, err
	}
	return s, nil
}

// AddSystem registers s. Unnamed systems get a name derived from their kind.
func (b *Builder[T]) AddSystem(s System[T]) error {
	if b.built {
		return ErrBuilderUsed
	}
	if s == nil {
		return ErrNilSystem
	}
	if _, ok := b.byID[s.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSystem, s.Name())
	}
	if s.Name() == "" {
		s.SetName(b.freshName(s.Kind()))
	}
	if b.HasSystemNamed(s.Name()) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, s.Name())
	}
	b.byID[s.ID()] = len(b.systems)
	b.systems = append(b.systems, s)
	return nil
}

func (b *Builder[T]) freshName(kind Kind) string {
	for n := len(b.systems); ; n++ {
		name := fmt.Sprintf("%s_%d", kind, n)
		if !b.HasSystemNamed(name) {
			return name
		}
	}
}

// Connect wires out into in. Each input accepts exactly one source.
func (b *Builder[T]) Connect(out *OutputPort[T], in *InputPort[T]) error {
	if b.built {
		return ErrBuilderUsed
	}
	if out == nil || in == nil {
		return fmt.Errorf("%w: nil port", ErrUnknownPort)
	}
	src, ok := b.byID[out.owner]
	if !ok {
		return fmt.Errorf("%w: output %q", ErrUnknownPort, out.name)
	}
	dst, ok := b.byID[in.owner]
	if !ok {
		return fmt.Errorf("%w: input %q", ErrUnknownPort, in.name)
	}
	to := PortLocator{System: dst, Port: in.index}
	if _, ok := b.wiring[to]; ok {
		return fmt.Errorf("%w: %s.%s", ErrAlreadyConnected, b.systems[dst].Name(), in.name)
	}
	b.wiring[to] = PortLocator{System: src, Port: out.index}
	b.order = append(b.order, to)
	return nil
}

func (b *Builder[T]) Systems() []System[T] {
	return append([]System[T](nil), b.systems...)
}

func (b *Builder[T]) HasSystemNamed(name string) bool {
	return len(named(b.systems, name)) > 0
}

// SystemByName resolves name against the systems' current names.
func (b *Builder[T]) SystemByName(name string) (System[T], error) {
	return unique(b.systems, "builder", name)
}

func (b *Builder[T]) IsConnected(in *InputPort[T]) bool {
	dst, ok := b.byID[in.owner]
	if !ok {
		return false
	}
	_, ok = b.wiring[PortLocator{System: dst, Port: in.index}]
	return ok
}

func (b *Builder[T]) Connections() []Connection {
	return describe(b.systems, b.wiring, b.order)
}

func (b *Builder[T]) IsBuilt() bool { return b.built }

// Atomically runs fn and, if it fails, removes every system and connection fn
// added before returning its error.
func (b *Builder[T]) Atomically(fn func() error) error {
	if b.built {
		return ErrBuilderUsed
	}
	numSystems := len(b.systems)
	numConnections := len(b.order)
	byID := maps.Clone(b.byID)
	wiring := maps.Clone(b.wiring)

	if err := fn(); err != nil {
		b.systems = b.systems[:numSystems]
		b.order = b.order[:numConnections]
		b.byID, b.wiring = byID, wiring
		return err
	}
	return nil
}

// Build seals the graph into a Diagram. The builder cannot be used afterwards.
func (b *Builder[T]) Build() (*Diagram[T], error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	seen := make(map[string]bool, len(b.systems))
	for _, s := range b.systems {
		if seen[s.Name()] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, s.Name())
		}
		seen[s.Name()] = true
	}
	d := &Diagram[T]{
		id:      uuid.New(),
		systems: b.systems,
		byID:    b.byID,
		wiring:  b.wiring,
		order:   b.order,
	}
	b.built = true
	b.systems, b.byID, b.wiring, b.order = nil, nil, nil, nil
	return d, nil
}

func describe[T scalar.Value[T]](members []System[T], wiring map[PortLocator]PortLocator, order []PortLocator) []Connection {
	out := make([]Connection, 0, len(order))
	for _, to := range order {
		from := wiring[to]
		src, dst := members[from.System], members[to.System]
		out = append(out, Connection{
			FromSystem: src.Name(),
			FromPort:   src.OutputPort(from.Port).Name(),
			ToSystem:   dst.Name(),
			ToPort:     dst.InputPort(to.Port).Name(),
		})
	}
	return out
}

func named[T scalar.Value[T]](members []System[T], name string) []System[T] {
	var out []System[T]
	for _, s := range members {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

func unique[T scalar.Value[T]](members []System[T], where, name string) (System[T], error) {
	found := named(members, name)
	switch len(found) {
	case 0:
		return nil, &LookupError{Where: where, Name: name, Err: ErrMissingSubsystem}
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("%w: %d subsystems named %q", ErrDuplicateName, len(found), name)
}
