// SPDX-License-Identifier: MPL-2.0

package compose

import (
	"errors"
	"fmt"
)

// ErrMalformedDescriptor is the sentinel error wrapped by MalformedDescriptorError.
var ErrMalformedDescriptor = errors.New("malformed descriptor")

// MalformedDescriptorError is returned when a descriptor is not valid YAML, does not have
// the expected shape, or references a service that does not exist.
type MalformedDescriptorError struct {
	// Source is the file path (or "<input>") the descriptor was read from.
	Source string
	// Reason describes the structural problem.
	Reason string
	// Err is the underlying parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *MalformedDescriptorError) Error() string {
	msg := fmt.Sprintf("malformed descriptor %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrMalformedDescriptor so callers can use errors.Is for programmatic detection.
// The parse cause remains reachable through errors.As on the concrete type.
func (e *MalformedDescriptorError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedDescriptor}
	}
	return []error{ErrMalformedDescriptor, e.Err}
}

func malformed(source, reason string, err error) error {
	return &MalformedDescriptorError{Source: source, Reason: reason, Err: err}
}
