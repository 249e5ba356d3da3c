// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
)

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrNoEngineAvailable is the sentinel error wrapped by EngineNotAvailableError.
var ErrNoEngineAvailable = errors.New("no container engine available")

type (
	// Engine is a container engine CLI able to run compose operations.
	Engine interface {
		// Name returns the engine name (docker or podman)
		Name() string
		// Available checks if the engine is available on the system
		Available() bool
		// Version returns the engine version
		Version(ctx context.Context) (string, error)
		// BinaryPath returns the resolved path of the engine binary
		BinaryPath() string
		// BaseCLI exposes the shared command plumbing
		BaseCLI() *BaseCLIEngine
	}

	// EngineType identifies the container engine type
	EngineType string

	// EngineNotAvailableError is returned when a container engine is not available
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}
)

func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrNoEngineAvailable so callers can use errors.Is.
func (e *EngineNotAvailableError) Unwrap() error { return ErrNoEngineAvailable }

// String returns the engine type name.
func (t EngineType) String() string { return string(t) }

// ParseEngineType converts a configuration value to an EngineType.
func ParseEngineType(s string) (EngineType, error) {
	switch EngineType(s) {
	case EngineTypeDocker, EngineTypePodman:
		return EngineType(s), nil
	default:
		return "", fmt.Errorf("unknown container engine type: %q (valid: docker, podman)", s)
	}
}

// NewEngine creates a new container engine based on preference
func NewEngine(preferredType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine(opts...)
		if engine.Available() {
			return engine, nil
		}
		// Fall back to Docker
		dockerEngine := NewDockerEngine(opts...)
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		engine := NewDockerEngine(opts...)
		if engine.Available() {
			return engine, nil
		}
		// Fall back to Podman
		podmanEngine := NewPodmanEngine(opts...)
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}
