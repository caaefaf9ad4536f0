package geometry

import (
	"github.com/san-kum/robodiagram/internal/scalar"
	"github.com/san-kum/robodiagram/internal/systems"
)

// Reader is the read-only view of a SceneGraph.
type Reader[T scalar.Value[T]] interface {
	systems.System[T]
	Inspector() *Inspector
	QueryOutput() *systems.OutputPort[T]
	SourcePoseInput(src SourceID) (*systems.InputPort[T], error)
}

var _ Reader[scalar.Float] = (*SceneGraph[scalar.Float])(nil)
