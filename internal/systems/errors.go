package systems

import (
	"errors"
	"fmt"
)

// Domain errors for graph construction and evaluation.
var (
	// ErrBuilderUsed indicates a builder was touched after Build succeeded.
	ErrBuilderUsed = errors.New("systems: builder may no longer be used after Build")

	// ErrNilSystem indicates a nil subsystem was registered.
	ErrNilSystem = errors.New("systems: nil subsystem")

	// ErrDuplicateName indicates two subsystems share a name in one builder.
	ErrDuplicateName = errors.New("systems: duplicate subsystem name")

	// ErrDuplicateSystem indicates the same subsystem was registered twice.
	ErrDuplicateSystem = errors.New("systems: subsystem already registered")

	// ErrUnknownPort indicates a port whose owner is not registered here.
	ErrUnknownPort = errors.New("systems: port does not belong to a registered subsystem")

	// ErrAlreadyConnected indicates an input port with an existing source.
	ErrAlreadyConnected = errors.New("systems: input port already connected")

	// ErrInputNotConnected indicates an input port that has no source or fixed value.
	ErrInputNotConnected = errors.New("systems: input port is not connected")

	// ErrContextMismatch indicates a context created for a different system.
	ErrContextMismatch = errors.New("systems: context does not belong to this system")

	// ErrStateSize indicates a state vector of the wrong dimension.
	ErrStateSize = errors.New("systems: state dimension mismatch")

	// ErrValueType indicates a port value of an unexpected Go type.
	ErrValueType = errors.New("systems: unexpected port value type")

	// ErrMissingSubsystem indicates no subsystem is registered under a name.
	ErrMissingSubsystem = errors.New("systems: missing subsystem")

	// ErrWrongSubsystemType indicates a subsystem of an unexpected kind.
	ErrWrongSubsystemType = errors.New("systems: wrong subsystem type")

	// ErrConversionUnsupported indicates a kind with no registered scalar conversion.
	ErrConversionUnsupported = errors.New("systems: scalar conversion unsupported")
)

// LookupError reports a failed name-and-kind discovery.
type LookupError struct {
	Where string
	Name  string
	Want  Kind
	Got   Kind
	Err   error
}

func (e *LookupError) Error() string {
	if errors.Is(e.Err, ErrWrongSubsystemType) {
		return fmt.Sprintf("systems: subsystem named %q is of the wrong type: got %s, want %s",
			e.Name, e.Got, e.Want)
	}
	if e.Want == "" {
		return fmt.Sprintf("systems: %s does not contain a subsystem named %q", e.Where, e.Name)
	}
	return fmt.Sprintf("systems: %s does not contain a subsystem named %q of kind %s",
		e.Where, e.Name, e.Want)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
