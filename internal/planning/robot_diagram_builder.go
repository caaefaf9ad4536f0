package planning

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/robodiagram/internal/geometry"
	"github.com/san-kum/robodiagram/internal/logging"
	"github.com/san-kum/robodiagram/internal/multibody"
	"github.com/san-kum/robodiagram/internal/parsing"
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// DefaultTimeStep selects a continuous plant.
const DefaultTimeStep = 0.0

type options struct {
	timeStep float64
}

// Option configures NewRobotDiagramBuilder.
type Option func(*options)

// WithTimeStep sets the plant's discrete time step. Zero means continuous.
func WithTimeStep(h float64) Option {
	return func(o *options) { o.timeStep = h }
}

// ParserReader is the read-only view of a Parser.
type ParserReader[T scalar.Value[T]] interface {
	Plant() *multibody.Plant[T]
	AutoRenaming() bool
}

// RobotDiagramBuilder owns a diagram builder preloaded with a plant named
// "plant" and a scene graph named "scene_graph", and a parser bound to the
// plant. It is not safe for concurrent use.
type RobotDiagramBuilder[T scalar.Value[T]] struct {
	builder *systems.Builder[T]
	plant   *multibody.Plant[T]
	sg      *geometry.SceneGraph[T]
	parser  *parsing.Parser[T]
	built   bool
}

func NewRobotDiagramBuilder[T scalar.Value[T]](opts ...Option) (*RobotDiagramBuilder[T], error) {
	o := options{timeStep: DefaultTimeStep}
	for _, opt := range opts {
		opt(&o)
	}
	b := systems.NewBuilder[T]()
	plant, sg, err := multibody.AddPlantSceneGraph(b, o.timeStep)
	if err != nil {
		return nil, err
	}
	return &RobotDiagramBuilder[T]{
		builder: b,
		plant:   plant,
		sg:      sg,
		parser:  parsing.NewParser(plant),
	}, nil
}

func (r *RobotDiagramBuilder[T]) guard(op string) error {
	if r.built {
		return &LifecycleError{Op: op}
	}
	return nil
}

func (r *RobotDiagramBuilder[T]) MutableBuilder() (*systems.Builder[T], error) {
	if err := r.guard("MutableBuilder"); err != nil {
		return nil, err
	}
	return r.builder, nil
}

func (r *RobotDiagramBuilder[T]) Builder() (systems.BuilderReader[T], error) {
	if err := r.guard("Builder"); err != nil {
		return nil, err
	}
	return r.builder, nil
}

func (r *RobotDiagramBuilder[T]) MutableParser() (*parsing.Parser[T], error) {
	if err := r.guard("MutableParser"); err != nil {
		return nil, err
	}
	return r.parser, nil
}

func (r *RobotDiagramBuilder[T]) Parser() (ParserReader[T], error) {
	if err := r.guard("Parser"); err != nil {
		return nil, err
	}
	return r.parser, nil
}

func (r *RobotDiagramBuilder[T]) MutablePlant() (*multibody.Plant[T], error) {
	if err := r.guard("MutablePlant"); err != nil {
		return nil, err
	}
	return r.plant, nil
}

func (r *RobotDiagramBuilder[T]) Plant() (multibody.Reader[T], error) {
	if err := r.guard("Plant"); err != nil {
		return nil, err
	}
	return r.plant, nil
}

func (r *RobotDiagramBuilder[T]) MutableSceneGraph() (*geometry.SceneGraph[T], error) {
	if err := r.guard("MutableSceneGraph"); err != nil {
		return nil, err
	}
	return r.sg, nil
}

func (r *RobotDiagramBuilder[T]) SceneGraph() (geometry.Reader[T], error) {
	if err := r.guard("SceneGraph"); err != nil {
		return nil, err
	}
	return r.sg, nil
}

func (r *RobotDiagramBuilder[T]) IsPlantFinalized() (bool, error) {
	if err := r.guard("IsPlantFinalized"); err != nil {
		return false, err
	}
	return r.plant.IsFinalized(), nil
}

// FinalizePlant seals the plant's structure. A second call fails with
// multibody.ErrAlreadyFinalized.
func (r *RobotDiagramBuilder[T]) FinalizePlant() error {
	if err := r.guard("FinalizePlant"); err != nil {
		return err
	}
	return r.plant.Finalize()
}

// IsDiagramBuilt reports whether BuildDiagram has succeeded. It stays callable
// after the builder is consumed.
func (r *RobotDiagramBuilder[T]) IsDiagramBuilt() bool {
	return r.built
}

// BuildDiagram finalizes the plant if needed and moves the graph into a
// RobotDiagram. The builder keeps no reference to anything it built; a failed
// build leaves it usable.
func (r *RobotDiagramBuilder[T]) BuildDiagram() (*RobotDiagram[T], error) {
	if err := r.guard("BuildDiagram"); err != nil {
		return nil, err
	}
	if !r.plant.IsFinalized() {
		if err := r.plant.Finalize(); err != nil {
			return nil, err
		}
	}
	d, err := r.builder.Build()
	if err != nil {
		return nil, fmt.Errorf("planning: build diagram: %w", err)
	}
	out := &RobotDiagram[T]{Diagram: d, plant: r.plant, sg: r.sg}
	logging.L().Info("robot diagram built",
		zap.Int("systems", len(d.Systems())),
		zap.Int("bodies", r.plant.NumBodies()),
		zap.Bool("discrete", r.plant.IsDiscrete()))

	r.builder, r.plant, r.sg, r.parser = nil, nil, nil, nil
	r.built = true
	return out, nil
}
