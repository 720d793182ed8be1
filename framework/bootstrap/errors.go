package bootstrap

import "errors"

var (
	ErrConfigurationInvalid = errors.New("bootstrap: configuration is invalid")
	ErrConventionsInvalid   = errors.New("bootstrap: conventions are invalid")
	ErrNotInitialised       = errors.New("bootstrap: not initialised, call Initialise before GetEngine")
	ErrAlreadyInitialised   = errors.New("bootstrap: already initialised")
	ErrResolutionFailure    = errors.New("bootstrap: unable to resolve")
)

// CompositionError wraps a failure raised while resolving a process-wide
// service out of the application resolver.
type CompositionError struct {
	Err error
}

func (e *CompositionError) Error() string {
	return "bootstrap: something went wrong when trying to satisfy one of the dependencies during composition, " +
		"make sure that you've registered all new dependencies in the container and inspect the cause for more details: " +
		e.Err.Error()
}

func (e *CompositionError) Unwrap() error { return e.Err }
