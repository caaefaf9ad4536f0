package multibody

import "errors"

var (
	// ErrAlreadyFinalized indicates a second call to Finalize.
	ErrAlreadyFinalized = errors.New("multibody: plant is already finalized")

	// ErrFinalized indicates a structural change after Finalize.
	ErrFinalized = errors.New("multibody: structural change after finalize")

	// ErrNotFinalized indicates an evaluation that needs a finalized plant.
	ErrNotFinalized = errors.New("multibody: plant is not finalized")

	// ErrInvalidTimeStep indicates a negative or non-finite time step.
	ErrInvalidTimeStep = errors.New("multibody: time step must be zero or positive")

	// ErrUnknownModelInstance indicates a model instance that was never added.
	ErrUnknownModelInstance = errors.New("multibody: unknown model instance")

	// ErrUnknownBody indicates a body index or name that was never added.
	ErrUnknownBody = errors.New("multibody: unknown body")

	// ErrDuplicateName indicates a model instance or body name already in use.
	ErrDuplicateName = errors.New("multibody: duplicate name")

	// ErrUnknownParameter indicates a parameter name the plant does not expose.
	ErrUnknownParameter = errors.New("multibody: unknown parameter")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("multibody: parameter out of valid bounds")

	// ErrNoSceneGraph indicates geometry registration on a plant that is not a
	// scene graph source.
	ErrNoSceneGraph = errors.New("multibody: plant is not registered with a scene graph")
)
