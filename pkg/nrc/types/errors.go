package types

import (
	"errors"
	"fmt"
)

// Error taxonomy of the resource compiler. Use errors.Is to classify.
var (
	// ErrNotFound means the resource root does not exist. Fatal.
	ErrNotFound = errors.New("not found")

	// ErrIO means a file or directory could not be read. Fatal for the
	// root, a diagnostic for anything below it.
	ErrIO = errors.New("i/o error")

	// ErrCycle means following a symbolic link would loop. Fatal.
	ErrCycle = errors.New("symlink cycle")

	// ErrResourceTooLarge means the payload does not fit the packed
	// header's offset width. Fatal to the encode step.
	ErrResourceTooLarge = errors.New("resource too large")

	// ErrCommandLine means the command line could not be understood.
	ErrCommandLine = errors.New("invalid command line")
)

// PathError records an error together with the operation and path that
// caused it. Kind is one of the sentinel errors above.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

// NewPathError creates a PathError.
func NewPathError(op, path string, kind, err error) *PathError {
	return &PathError{Op: op, Path: path, Kind: kind, Err: err}
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the classification and the underlying cause.
func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
