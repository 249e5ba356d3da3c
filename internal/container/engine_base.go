// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides common implementation for CLI-based container engines.
	// Docker and Podman engines embed this struct; engine-specific methods
	// (Available, Version) remain on the concrete types.
	BaseCLIEngine struct {
		name            string // Engine name for error messages (e.g., "docker", "podman")
		binaryPath      string
		execCommand     ExecCommandFunc
		cmdEnvOverrides map[string]string // Per-command env var overrides
		sandbox         SandboxType
	}
)

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithCmdEnvOverride adds an environment variable passed to every command.
func WithCmdEnvOverride(key, value string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		if e.cmdEnvOverrides == nil {
			e.cmdEnvOverrides = make(map[string]string)
		}
		e.cmdEnvOverrides[key] = value
	}
}

// WithSandbox overrides sandbox detection. Commands created inside a Flatpak
// sandbox are spawned on the host through flatpak-spawn.
func WithSandbox(st SandboxType) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.sandbox = st
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
		sandbox:     DetectSandbox(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// BaseCLI returns the BaseCLIEngine itself. Promoted by embedding engines so
// the runner can reach the command plumbing without a type switch.
func (e *BaseCLIEngine) BaseCLI() *BaseCLIEngine {
	return e
}

// --- Command Execution ---

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
// Engine-level env overrides are applied automatically.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.CreateCommandWithEnv(ctx, nil, args...)
}

// CreateCommandWithEnv creates an exec.Cmd that receives env (KEY=VALUE entries)
// on top of the inherited environment and the engine overrides.
func (e *BaseCLIEngine) CreateCommandWithEnv(ctx context.Context, env []string, args ...string) *exec.Cmd {
	extra := append(e.overrideEnv(), env...)

	name, argv := e.binaryPath, args
	if e.sandbox == SandboxFlatpak {
		// flatpak-spawn does not forward the caller's environment to the host.
		name, argv = hostSpawnArgs(e.binaryPath, extra, args)
		extra = nil
	}

	cmd := e.execCommand(ctx, name, argv...)
	if len(extra) > 0 {
		// exec.Cmd.Env being nil means "inherit everything", but once set to
		// a non-nil slice, only the listed vars are passed to the child.
		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		cmd.Env = append(cmd.Env, extra...)
	}
	return cmd
}

// overrideEnv returns the overrides in a stable order.
func (e *BaseCLIEngine) overrideEnv() []string {
	if len(e.cmdEnvOverrides) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.cmdEnvOverrides))
	for k, v := range e.cmdEnvOverrides {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
