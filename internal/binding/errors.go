package binding

import "fmt"

// ConfigurationError means a component's wrapper chain has no layer that can
// project rows for the binding. It is a wiring bug in the host.
type ConfigurationError struct {
	Component string
	Want      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("binding: %s has no %s in its model chain", e.Component, e.Want)
}

// InstantiationError means a template factory failed.
type InstantiationError struct {
	Role string
	Err  error
}

func (e *InstantiationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("binding: %s factory returned no template", e.Role)
	}
	return fmt.Sprintf("binding: create %s: %v", e.Role, e.Err)
}

func (e *InstantiationError) Unwrap() error { return e.Err }

// CommitError wraps a failure raised while a deferred commit wrote an edit back.
type CommitError struct {
	View    int
	Storage int
	Column  int
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("binding: commit row %d (view %d, column %d): %v", e.Storage, e.View, e.Column, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
