// Package systems is the subsystem-graph framework the rest of the module is built on.
//
// A graph is assembled with a [Builder], sealed into an immutable [Diagram] by
// [Builder.Build], and evaluated against a caller-owned [Context]:
//
//	b := systems.NewBuilder[scalar.Float]()
//	src, err := systems.Add(b, newSource())
//	if err != nil {
//		return err
//	}
//	sink, err := systems.Add(b, newSink())
//	if err != nil {
//		return err
//	}
//	if err := b.Connect(src.OutputPort(0), sink.InputPort(0)); err != nil {
//		return err
//	}
//	d, err := b.Build()
//	if err != nil {
//		return err
//	}
//	ctx := d.CreateDefaultContext()
//
// Concrete subsystems embed [LeafSystem], which supplies ports, state and event
// declarations. Subsystems are discovered by name and [Kind] through [Lookup].
//
// # Scalar kinds
//
// Every type is generic over a scalar.Value. A built diagram moves between kinds with
// [ConvertDiagram] and a [ScalarConverter] holding one conversion per subsystem kind.
//
// # Thread Safety
//
// Builders are single-owner. Diagrams are immutable and safe for concurrent
// read-only use; contexts must be synchronized by the caller.
package systems
