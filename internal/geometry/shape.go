package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidShape indicates a shape with a non-positive dimension.
var ErrInvalidShape = errors.New("geometry: invalid shape")

// Shape is a primitive centered on its geometry origin.
type Shape interface {
	TypeName() string
	Dimensions() []float64
	// HalfHeight is the extent of the shape below its origin along z.
	HalfHeight() float64
	Validate() error
}

type Box struct {
	Width, Depth, Height float64
}

type Sphere struct {
	Radius float64
}

// Cylinder has its axis along z.
type Cylinder struct {
	Radius, Length float64
}

func (b Box) TypeName() string      { return "box" }
func (b Box) Dimensions() []float64 { return []float64{b.Width, b.Depth, b.Height} }
func (b Box) HalfHeight() float64   { return b.Height / 2 }
func (b Box) Validate() error       { return positive(b) }

func (s Sphere) TypeName() string      { return "sphere" }
func (s Sphere) Dimensions() []float64 { return []float64{s.Radius} }
func (s Sphere) HalfHeight() float64   { return s.Radius }
func (s Sphere) Validate() error       { return positive(s) }

func (c Cylinder) TypeName() string      { return "cylinder" }
func (c Cylinder) Dimensions() []float64 { return []float64{c.Radius, c.Length} }
func (c Cylinder) HalfHeight() float64   { return c.Length / 2 }
func (c Cylinder) Validate() error       { return positive(c) }

func positive(s Shape) error {
	for _, d := range s.Dimensions() {
		if !(d > 0) {
			return fmt.Errorf("%w: %s dimensions %v", ErrInvalidShape, s.TypeName(), s.Dimensions())
		}
	}
	return nil
}

// NewShape builds a shape from its type name and dimensions.
func NewShape(typeName string, dims []float64) (Shape, error) {
	want := map[string]int{"box": 3, "sphere": 1, "cylinder": 2}[typeName]
	if want == 0 {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidShape, typeName)
	}
	if len(dims) != want {
		return nil, fmt.Errorf("%w: %s takes %d dimensions, got %d", ErrInvalidShape, typeName, want, len(dims))
	}
	var s Shape
	switch typeName {
	case "box":
		s = Box{Width: dims[0], Depth: dims[1], Height: dims[2]}
	case "sphere":
		s = Sphere{Radius: dims[0]}
	default:
		s = Cylinder{Radius: dims[0], Length: dims[1]}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
