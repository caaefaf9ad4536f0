// Package scalar provides the numeric scalar kinds every subsystem is generic over.
//
// Three kinds are provided:
//
//   - [Float]: plain double-precision values
//   - [Dual]: forward-mode derivative-tracking values
//   - [Expr]: symbolic expressions over named variables
//
// Systems are written once against the [Value] constraint and instantiated for
// whichever kind a caller needs:
//
//	plant := multibody.NewPlant[scalar.Dual](0.0)
//
// Moving a built diagram between kinds is the job of systems.ConvertDiagram; this
// package only supplies the arithmetic.
package scalar
