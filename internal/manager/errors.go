package manager

import "errors"

// Registry and executor failures. They are wrapped with the model name via
// fmt.Errorf("...: %w") and matched with errors.Is or the Is* helpers.
var (
	ErrNotFound          = errors.New("model not found")
	ErrAlreadyExists     = errors.New("model already exists")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotAvailable      = errors.New("model not available")
	ErrModelNotReady     = errors.New("model not ready")
	ErrLoadFailure       = errors.New("model load failed")
	ErrUnloadFailure     = errors.New("model unload failed")
	ErrCompute           = errors.New("model computation failed")
	ErrInvalidName       = errors.New("model name is required")
	ErrClosed            = errors.New("manager is closed")
)

// dependencyUnavailableError signals a runtime that was not compiled in or
// whose external dependency is missing (e.g. llama.cpp without the llama tag).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var d dependencyUnavailableError
	return errors.As(err, &d)
}

// IsNotFound reports whether err indicates an unknown model name.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err indicates a live instance already holds the name.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsInvalidTransition reports whether err indicates an operation illegal in the current state.
func IsInvalidTransition(err error) bool { return errors.Is(err, ErrInvalidTransition) }

// IsModelNotReady reports whether a predict could not acquire the model.
func IsModelNotReady(err error) bool { return errors.Is(err, ErrModelNotReady) }
