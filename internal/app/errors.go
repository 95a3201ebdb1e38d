package app

import (
	"errors"
	"fmt"
)

// ErrIntrospectionDisabled means the target refused the introspection check.
var ErrIntrospectionDisabled = errors.New("introspection is disabled")

// ConfigurationError is an invalid option detected before any network
// activity.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// SchemaUnavailableError means no schema could be obtained, either from the
// target or from a file.
type SchemaUnavailableError struct {
	Reason string
	Err    error
}

func (e *SchemaUnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *SchemaUnavailableError) Unwrap() error {
	return e.Err
}

// ExitCode maps the result of Run to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
