package multibody

import (
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// Reader is the read-only view of a Plant.
type Reader[T scalar.Value[T]] interface {
	systems.System[T]
	TimeStep() float64
	IsDiscrete() bool
	IsFinalized() bool
	NumBodies() int
	NumModelInstances() int
	Bodies() []Body
	Body(i BodyIndex) (Body, error)
	BodyByName(name string, instance ModelInstanceIndex) (Body, error)
	HasModelInstanceNamed(name string) bool
	ModelInstanceByName(name string) (ModelInstanceIndex, error)
	ModelInstanceName(i ModelInstanceIndex) string
	ScopedName(b Body) string
	GetParams() map[string]float64
	GetPositions(ctx *systems.Context[T]) ([]T, error)
	GetVelocities(ctx *systems.Context[T]) ([]T, error)
	EvalContactResults(ctx *systems.Context[T]) (ContactResults[T], error)
	ActuationInput() *systems.InputPort[T]
	GeometryQueryInput() *systems.InputPort[T]
	GeometryPoseOutput() *systems.OutputPort[T]
	StateOutput() *systems.OutputPort[T]
	ContactResultsOutput() *systems.OutputPort[T]
}

var _ Reader[scalar.Float] = (*Plant[scalar.Float])(nil)
