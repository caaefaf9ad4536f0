// Package visualization compiles a Config into viewer and contact publishers
// and wires them next to a plant and scene graph in a diagram builder.
package visualization
