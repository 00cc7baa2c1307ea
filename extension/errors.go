package extension

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName indicates a name that fails validation.
	ErrInvalidName = errors.New("extension: invalid name")

	// ErrNilFactory indicates a nil Factory.
	ErrNilFactory = errors.New("extension: factory is nil")
)

// MountError reports a factory that failed while mounting Name.
type MountError struct {
	Name string
	Err  error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("extension: mount %q: %v", e.Name, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// PanicError is the MountError cause when a factory panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("factory panicked: %v", e.Value)
}
