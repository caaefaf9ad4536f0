package parsing

import (
	"errors"
	"fmt"
)

// ErrModelLoad matches every failure to load a model.
var ErrModelLoad = errors.New("parsing: model load failed")

// LoadError reports which input failed to load and why.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("parsing: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrModelLoad
}
