package provider

import "fmt"

// RuntimeError is returned when an external tool cannot be located.
type RuntimeError struct {
	Runtime string
	Err     error
}

func NewRuntimeError(runtime string, err error) *RuntimeError {
	return &RuntimeError{Runtime: runtime, Err: err}
}

func (e *RuntimeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("runtime '%s' not found", e.Runtime)
	}
	return fmt.Sprintf("runtime '%s' not found: %s", e.Runtime, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
