// Package multibody implements the plant: rigid bodies translating along the
// world z axis above a ground plane, with penalty contact computed from the
// proximity geometry the scene graph reports.
//
// A plant is either continuous (time step 0), exposing its state to the
// simulator's integrator, or discrete, advancing itself with semi-implicit
// Euler every time step.
package multibody
