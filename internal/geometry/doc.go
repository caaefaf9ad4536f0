// Package geometry holds the scene graph: the registry of frames and shapes
// every other subsystem reads poses and contact candidates from, together with
// the visualizer that publishes those shapes on a bus.
package geometry
