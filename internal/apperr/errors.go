// Package apperr defines the error kinds surfaced by the chat backend.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports required settings that are absent.
type ConfigurationError struct {
	Missing []string
}

// NewConfigurationError builds a ConfigurationError for the given variable names.
func NewConfigurationError(missing ...string) *ConfigurationError {
	return &ConfigurationError{Missing: missing}
}

func (e *ConfigurationError) Error() string {
	return "missing configuration: " + strings.Join(e.Missing, ", ")
}

// UpstreamError wraps a failed call to an external API (embedding, vector
// index or generation). StatusCode is zero when no HTTP response was received.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s upstream error: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream is a shorthand for &UpstreamError{Service: service, Err: err}.
func Upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

// StoreError wraps a failed session store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsConfiguration reports whether err carries a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// IsStore reports whether err carries a StoreError.
func IsStore(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}
