// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

type (
	// Runner executes one engine invocation and captures its result.
	// A non-zero exit code is reported through Result, not as an error;
	// the error return is reserved for failures to start the process at all.
	Runner interface {
		Run(ctx context.Context, inv Invocation) (*Result, error)
	}

	// Invocation describes one engine command.
	Invocation struct {
		// Args are the engine arguments, without the binary itself.
		Args []string
		// Env entries (KEY=VALUE) added to the inherited environment.
		Env []string
		// Dir is the working directory; empty means the current one.
		Dir string
		// Stdin feeds the process standard input.
		Stdin io.Reader
		// Output, when set, receives stdout and stderr as they are produced.
		// Both streams are captured in the Result regardless.
		Output io.Writer
	}

	// Result is the outcome of an Invocation.
	Result struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// ExecRunner runs invocations as real processes through an engine CLI.
	ExecRunner struct {
		base *BaseCLIEngine
	}
)

// NewExecRunner creates a Runner bound to engine.
func NewExecRunner(engine Engine) *ExecRunner {
	return &ExecRunner{base: engine.BaseCLI()}
}

// Name returns the engine name.
func (r *ExecRunner) Name() string {
	return r.base.Name()
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	cmd := r.base.CreateCommandWithEnv(ctx, inv.Env, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdin = inv.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if inv.Output != nil {
		cmd.Stdout = io.MultiWriter(&stdout, inv.Output)
		cmd.Stderr = io.MultiWriter(&stderr, inv.Output)
	}

	err := cmd.Run()
	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("start %s: %w", r.base.Name(), err)
	}
	return result, nil
}

// Succeeded reports whether the invocation exited with status zero.
func (r *Result) Succeeded() bool {
	return r != nil && r.ExitCode == 0
}
