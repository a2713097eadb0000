package engine

import (
	"errors"
	"fmt"
)

// InferenceError wraps every failure of Generate: a missing model file, a
// load failure, a generation error or an unavailable runtime.
type InferenceError struct {
	Op    string // resolve, admit, load, generate
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s %s: %v", e.Op, e.Model, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// IsInferenceError reports whether err is or wraps an *InferenceError.
func IsInferenceError(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}

// dependencyUnavailableError signals a missing runtime (e.g. llama.cpp not built in).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err wraps a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}
