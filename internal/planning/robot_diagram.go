package planning

import (
	"fmt"
	"slices"

	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/multibody"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// RobotDiagram is the sealed result of RobotDiagramBuilder.BuildDiagram. Its
// structure is safe for concurrent reads; each context belongs to the caller.
type RobotDiagram[T scalar.Value[T]] struct {
	*systems.Diagram[T]

	plant *multibody.Plant[T]
	sg    *geometry.SceneGraph[T]
}

func (d *RobotDiagram[T]) Plant() multibody.Reader[T]                 { return d.plant }
func (d *RobotDiagram[T]) SceneGraph() geometry.Reader[T]             { return d.sg }
func (d *RobotDiagram[T]) MutableSceneGraph() *geometry.SceneGraph[T] { return d.sg }

// MutablePlantContext returns the plant's subcontext of root.
func (d *RobotDiagram[T]) MutablePlantContext(root *systems.Context[T]) (*systems.Context[T], error) {
	return d.subcontext(d.plant, root)
}

// PlantContext is the read-only form of MutablePlantContext.
func (d *RobotDiagram[T]) PlantContext(root *systems.Context[T]) (systems.ContextReader[T], error) {
	ctx, err := d.subcontext(d.plant, root)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

func (d *RobotDiagram[T]) MutableSceneGraphContext(root *systems.Context[T]) (*systems.Context[T], error) {
	return d.subcontext(d.sg, root)
}

func (d *RobotDiagram[T]) SceneGraphContext(root *systems.Context[T]) (systems.ContextReader[T], error) {
	ctx, err := d.subcontext(d.sg, root)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

func (d *RobotDiagram[T]) subcontext(s systems.System[T], root *systems.Context[T]) (*systems.Context[T], error) {
	ctx, err := d.SubsystemContext(s, root)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateContext(ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// Convert rebuilds d over the scalar kind U. extra registers conversions for
// subsystems added beside the plant and scene graph.
func Convert[U scalar.Value[U], T scalar.Value[T]](d *RobotDiagram[T], extra ...func(*systems.ScalarConverter[T, U])) (*RobotDiagram[U], error) {
	c := systems.NewScalarConverter[T, U]()
	multibody.RegisterConversions(c)
	geometry.RegisterConversions(c)
	for _, fn := range extra {
		fn(c)
	}
	conv, err := systems.ConvertDiagram(d.Diagram, c)
	if err != nil {
		return nil, fmt.Errorf("planning: convert robot diagram: %w", err)
	}

	members, converted := d.Systems(), conv.Systems()
	plant, ok := converted[slices.Index(members, systems.System[T](d.plant))].(*multibody.Plant[U])
	if !ok {
		return nil, fmt.Errorf("planning: plant did not convert to a plant")
	}
	sg, ok := converted[slices.Index(members, systems.System[T](d.sg))].(*geometry.SceneGraph[U])
	if !ok {
		return nil, fmt.Errorf("planning: scene graph did not convert to a scene graph")
	}
	return &RobotDiagram[U]{Diagram: conv, plant: plant, sg: sg}, nil
}

// ToAutoDiff converts d to dual numbers.
func ToAutoDiff[T scalar.Value[T]](d *RobotDiagram[T]) (*RobotDiagram[scalar.Dual], error) {
	return Convert[scalar.Dual](d)
}

// ToSymbolic converts d to symbolic expressions.
func ToSymbolic[T scalar.Value[T]](d *RobotDiagram[T]) (*RobotDiagram[scalar.Expr], error) {
	return Convert[scalar.Expr](d)
}
