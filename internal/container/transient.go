// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// engineErrorExitCode is the generic container engine failure status.
const engineErrorExitCode = 125

// transientMarkers are output fragments of failures that usually disappear on a re-run.
var transientMarkers = []string{
	// Rootless Podman race conditions and OCI runtime errors.
	"ping_group_range",
	"OCI runtime error",
	// Network errors during image pull or package installation inside builds.
	"Temporary failure resolving",
	"Could not resolve host",
	"connection timed out",
	"connection refused",
	"TLS handshake timeout",
	// Storage driver errors (overlay mount races on rootless Podman).
	"error creating overlay mount",
	"error mounting layer",
}

// IsTransientError reports whether err is a transient container engine error
// that may succeed if provisioning is started again. Nothing in this package
// retries; the classification only feeds operator guidance.
//
// Context cancellation and deadline errors are explicitly non-transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Cause == nil && cmdErr.ExitCode == engineErrorExitCode {
		return true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == engineErrorExitCode {
		return true
	}

	errStr := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
