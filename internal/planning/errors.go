package planning

import (
	"errors"
	"fmt"
)

// ErrInvalidLifecycleState matches every use of a RobotDiagramBuilder after
// BuildDiagram.
var ErrInvalidLifecycleState = errors.New("planning: invalid lifecycle state")

// LifecycleError names the operation attempted on a consumed builder.
type LifecycleError struct {
	Op string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("planning: RobotDiagramBuilder.%s: BuildDiagram was already called; the builder may no longer be used", e.Op)
}

func (e *LifecycleError) Unwrap() error {
	return ErrInvalidLifecycleState
}
