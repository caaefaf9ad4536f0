package systems

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// ConvertFunc rebuilds one subsystem over another scalar kind. The result must
// declare the same ports in the same order.
type ConvertFunc[T scalar.Value[T], U scalar.Value[U]] func(System[T]) (System[U], error)

// ScalarConverter holds one ConvertFunc per subsystem kind.
type ScalarConverter[T scalar.Value[T], U scalar.Value[U]] struct {
	funcs map[Kind]ConvertFunc[T, U]
}

func NewScalarConverter[T scalar.Value[T], U scalar.Value[U]]() *ScalarConverter[T, U] {
	return &ScalarConverter[T, U]{funcs: make(map[Kind]ConvertFunc[T, U])}
}

func (c *ScalarConverter[T, U]) Register(kind Kind, fn ConvertFunc[T, U]) {
	c.funcs[kind] = fn
}

func (c *ScalarConverter[T, U]) Supports(kind Kind) bool {
	if kind == DiagramKind {
		return true
	}
	_, ok := c.funcs[kind]
	return ok
}

// Convert rebuilds s over U, keeping its name.
func (c *ScalarConverter[T, U]) Convert(s System[T]) (System[U], error) {
	if d, ok := s.(DiagramProvider[T]); ok {
		conv, err := ConvertDiagram(d.AsDiagram(), c)
		if err != nil {
			return nil, err
		}
		return conv, nil
	}
	fn, ok := c.funcs[s.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %s (%q)", ErrConversionUnsupported, s.Kind(), s.Name())
	}
	out, err := fn(s)
	if err != nil {
		return nil, fmt.Errorf("convert %q: %w", s.Name(), err)
	}
	if out.NumInputPorts() != s.NumInputPorts() || out.NumOutputPorts() != s.NumOutputPorts() {
		return nil, fmt.Errorf("%w: %q changed its ports", ErrConversionUnsupported, s.Name())
	}
	out.SetName(s.Name())
	return out, nil
}

// ConvertDiagram rebuilds every subsystem of d over U and rewires them identically.
func ConvertDiagram[T scalar.Value[T], U scalar.Value[U]](d *Diagram[T], c *ScalarConverter[T, U]) (*Diagram[U], error) {
	out := &Diagram[U]{
		id:      uuid.New(),
		name:    d.name,
		systems: make([]System[U], len(d.systems)),
		byID:    make(map[uuid.UUID]int, len(d.systems)),
		wiring:  make(map[PortLocator]PortLocator, len(d.wiring)),
		order:   append([]PortLocator(nil), d.order...),
	}
	for i, s := range d.systems {
		conv, err := c.Convert(s)
		if err != nil {
			return nil, err
		}
		out.systems[i] = conv
		out.byID[conv.ID()] = i
	}
	for to, from := range d.wiring {
		out.wiring[to] = from
	}
	return out, nil
}
