package settings

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates the definition documents could not be loaded
// into a usable registry. It is only ever produced at startup; a process
// receiving one must not continue serving.
type ConfigurationError struct {
	Document string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Document == "" {
		return fmt.Sprintf("settings: configuration: %v", e.Err)
	}
	return fmt.Sprintf("settings: configuration: document %q: %v", e.Document, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func configErr(document string, err error) error {
	if err == nil {
		return nil
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return err
	}
	return &ConfigurationError{Document: document, Err: err}
}

// EvaluationError captures why one setting's value expression could not be
// evaluated. It never aborts a whole evaluation pass; callers receive it
// per key.
type EvaluationError struct {
	Key  string
	Expr string
	Err  error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("settings: evaluate %q expr=%q: %v", e.Key, e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

var (
	// ErrCyclicInherits indicates an inherits chain that references itself.
	ErrCyclicInherits = errors.New("settings: cyclic inherits reference")
	// ErrDependencyCycle indicates a setting participates in, or depends
	// on, a cycle of value expressions.
	ErrDependencyCycle = errors.New("settings: dependency cycle")
	// ErrDependencyFailed indicates a referenced setting failed to
	// evaluate, so dependents cannot be computed.
	ErrDependencyFailed = errors.New("settings: dependency failed")
	// ErrUnknownSetting indicates a key that is not in the registry.
	ErrUnknownSetting = errors.New("settings: unknown setting")
	// ErrUnknownPreset indicates a preset name that is not registered.
	ErrUnknownPreset = errors.New("settings: unknown preset")
)
