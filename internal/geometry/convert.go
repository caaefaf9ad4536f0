package geometry

import (
	"fmt"

	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// RegisterConversions teaches c to rebuild scene graphs and visualizers over U.
func RegisterConversions[T scalar.Value[T], U scalar.Value[U]](c *systems.ScalarConverter[T, U]) {
	c.Register(SceneGraphKind, func(s systems.System[T]) (systems.System[U], error) {
		sg, ok := s.(*SceneGraph[T])
		if !ok {
			return nil, fmt.Errorf("geometry: %q is a %T, not a scene graph", s.Name(), s)
		}
		return Clone[U](sg), nil
	})
	c.Register(VisualizerKind, func(s systems.System[T]) (systems.System[U], error) {
		v, ok := s.(*Visualizer[T])
		if !ok {
			return nil, fmt.Errorf("geometry: %q is a %T, not a visualizer", s.Name(), s)
		}
		out, err := NewVisualizer[U](v.bus, v.params)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}
