// Package errors provides the typed errors shared by the library components.
// Callers inspect them with errors.As and errors.Is; every type supports
// unwrapping to the underlying cause.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Join returns an error that wraps the given errors, nil if all are nil.
var Join = errors.Join

// Sentinel errors used as errors.Is targets.
var (
	// ErrConfiguration indicates unusable configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrDecode indicates a container could not be listed or decoded.
	ErrDecode = errors.New("decode error")

	// ErrIO indicates a filesystem operation failed.
	ErrIO = errors.New("io error")

	// ErrNotFound indicates that a catalog record was not found.
	ErrNotFound = errors.New("not found")
)

// ConfigurationError is raised before any file is touched when the
// requested algorithm, system, tool or schema cannot be resolved.
type ConfigurationError struct {
	Setting string
	Value   string
	Message string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error for %s=%q: %s", e.Setting, e.Value, e.Message)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Setting, e.Message)
}

// Is implements errors.Is support
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(setting, value, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Value: value, Message: message}
}

// DecodeError reports a failed external decode or a malformed listing.
type DecodeError struct {
	Path    string
	Command []string
	Output  string
	Err     error
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to decode %s", e.Path)
	if len(e.Command) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Command, " "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, "\n%s", out)
	}
	return b.String()
}

// Unwrap implements errors.Unwrap
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(path string, command []string, output string, err error) *DecodeError {
	return &DecodeError{Path: path, Command: command, Output: output, Err: err}
}

// IOError wraps a filesystem failure with the operation and path involved.
type IOError struct {
	Operation string
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// WrapIO wraps err in an IOError. A nil err yields nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NotFoundError represents a missing catalog record.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}
