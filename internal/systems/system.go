package systems

import (
	"github.com/google/uuid"

	"github.com/san-kum/robodiagram/internal/scalar"
)

// Kind identifies the type of a subsystem independently of its name.
type Kind string

// DiagramKind is the Kind of every Diagram.
const DiagramKind Kind = "diagram"

// System is a node of a subsystem graph.
type System[T scalar.Value[T]] interface {
	ID() uuid.UUID
	Name() string
	SetName(name string)
	Kind() Kind
	NumInputPorts() int
	NumOutputPorts() int
	InputPort(i int) *InputPort[T]
	OutputPort(i int) *OutputPort[T]
	CreateDefaultContext() *Context[T]
	ValidateContext(ctx ContextReader[T]) error
}

// LeafProvider is implemented by every system that embeds a LeafSystem.
type LeafProvider[T scalar.Value[T]] interface {
	Leaf() *LeafSystem[T]
}

// DiagramProvider is implemented by Diagram and by every type embedding one.
type DiagramProvider[T scalar.Value[T]] interface {
	AsDiagram() *Diagram[T]
}

// PortLocator addresses a port by subsystem index and port index.
type PortLocator struct {
	System int
	Port   int
}

// Connection is a named edge of the graph.
type Connection struct {
	FromSystem string
	FromPort   string
	ToSystem   string
	ToPort     string
}
