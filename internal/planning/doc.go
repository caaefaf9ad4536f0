// Package planning assembles the standard robot diagram: a plant and a scene
// graph wired together, plus a parser bound to the plant. A
// RobotDiagramBuilder is used once; BuildDiagram transfers its graph into an
// immutable RobotDiagram and leaves the builder inert.
package planning
