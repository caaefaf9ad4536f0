package multibody

import (
	"fmt"

	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// Names AddPlantSceneGraph registers its systems under.
const (
	PlantName      = "plant"
	SceneGraphName = "scene_graph"
)

// AddPlantSceneGraph adds a plant named "plant" and a scene graph named
// "scene_graph" to b and wires poses into the scene graph and queries back into
// the plant. On failure b is left unchanged.
func AddPlantSceneGraph[T scalar.Value[T]](b *systems.Builder[T], timeStep float64) (*Plant[T], *geometry.SceneGraph[T], error) {
	var (
		plant *Plant[T]
		sg    *geometry.SceneGraph[T]
	)
	err := b.Atomically(func() error {
		var err error
		plant, err = NewPlant[T](timeStep)
		if err != nil {
			return err
		}
		plant.SetName(PlantName)
		sg = geometry.NewSceneGraph[T]()
		sg.SetName(SceneGraphName)

		src, err := plant.RegisterAsSourceForSceneGraph(sg)
		if err != nil {
			return err
		}
		if err := b.AddSystem(plant); err != nil {
			return err
		}
		if err := b.AddSystem(sg); err != nil {
			return err
		}
		poses, err := sg.SourcePoseInput(src)
		if err != nil {
			return err
		}
		if err := b.Connect(plant.GeometryPoseOutput(), poses); err != nil {
			return err
		}
		return b.Connect(sg.QueryOutput(), plant.GeometryQueryInput())
	})
	if err != nil {
		return nil, nil, fmt.Errorf("multibody: add plant and scene graph: %w", err)
	}
	return plant, sg, nil
}

// RegisterConversions teaches c to rebuild plants and contact publishers over U.
func RegisterConversions[T scalar.Value[T], U scalar.Value[U]](c *systems.ScalarConverter[T, U]) {
	c.Register(PlantKind, func(s systems.System[T]) (systems.System[U], error) {
		p, ok := s.(*Plant[T])
		if !ok {
			return nil, fmt.Errorf("multibody: %q is a %T, not a plant", s.Name(), s)
		}
		return Clone[U](p), nil
	})
	c.Register(ContactResultsPublisherKind, func(s systems.System[T]) (systems.System[U], error) {
		pub, ok := s.(*ContactResultsPublisher[T])
		if !ok {
			return nil, fmt.Errorf("multibody: %q is a %T, not a contact publisher", s.Name(), s)
		}
		out, err := NewContactResultsPublisher[U](pub.bus, pub.period)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}
