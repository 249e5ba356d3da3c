// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/launchpad/internal/issue"
)

const (
	// maxDiagnosticLines bounds how much captured output is embedded in an error message.
	maxDiagnosticLines = 20

	redacted = "***"
)

var (
	// ErrBuildFailed is the sentinel for a failed image build.
	ErrBuildFailed = errors.New("build failed")
	// ErrStartupFailed is the sentinel for a failed "up".
	ErrStartupFailed = errors.New("startup failed")
	// ErrExecutionFailed is the sentinel for a failed in-service command.
	ErrExecutionFailed = errors.New("execution failed")
)

// CommandError describes a compose invocation that did not succeed.
// It unwraps to one of ErrBuildFailed, ErrStartupFailed or ErrExecutionFailed.
type CommandError struct {
	Engine   string
	Action   string
	Service  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	// Cause is set when the process could not be started at all.
	Cause error

	kind error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "%s compose %s", e.Engine, e.Action)
	if e.Service != "" {
		fmt.Fprintf(&msg, " in service %q", e.Service)
	}
	if e.Cause != nil {
		fmt.Fprintf(&msg, " could not start: %v", e.Cause)
		return msg.String()
	}
	fmt.Fprintf(&msg, " exited with status %d", e.ExitCode)
	if out := e.Diagnostics(); out != "" {
		msg.WriteString(":\n")
		msg.WriteString(out)
	}
	return msg.String()
}

// Unwrap exposes the failure kind and the start error, if any.
func (e *CommandError) Unwrap() []error {
	errs := []error{e.kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Diagnostics returns the tail of the captured output, preferring stderr.
func (e *CommandError) Diagnostics() string {
	out := strings.TrimSpace(e.Stderr)
	if out == "" {
		out = strings.TrimSpace(e.Stdout)
	}
	lines := strings.Split(out, "\n")
	if len(lines) > maxDiagnosticLines {
		lines = lines[len(lines)-maxDiagnosticLines:]
	}
	return strings.Join(lines, "\n")
}

// CommandLine renders the invocation as a shell-quoted command line with
// -e values hidden.
func (e *CommandError) CommandLine() string {
	return QuoteArgs(RedactArgs(append([]string{e.Engine}, e.Args...)))
}

// RedactArgs returns a copy of argv where the value of every "-e KEY=VALUE"
// or "--env KEY=VALUE" assignment is replaced, keeping the variable name.
// Exec environment carries credentials such as COMPOSER_AUTH.
func RedactArgs(argv []string) []string {
	out := slices.Clone(argv)
	for i := 1; i < len(out); i++ {
		if out[i-1] != "-e" && out[i-1] != "--env" {
			continue
		}
		if name, _, ok := strings.Cut(out[i], "="); ok {
			out[i] = name + "=" + redacted
		}
	}
	return out
}

// QuoteArgs joins argv into a single bash-quoted line for logs and diagnostics.
func QuoteArgs(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = fmt.Sprintf("%q", a)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}

// actionableComposeError decorates a CommandError with operator guidance.
func actionableComposeError(composeFile string, cmdErr *CommandError) error {
	ctx := issue.NewErrorContext()

	switch cmdErr.kind {
	case ErrBuildFailed:
		ctx.WithOperation("build services").
			WithResource(composeFile).
			WithSuggestion("Check the Dockerfiles under the provisioning folder for errors").
			WithSuggestion("Ensure base images are available (try: " + cmdErr.Engine + " pull <base-image>)")
	case ErrStartupFailed:
		ctx.WithOperation("start services").
			WithResource(composeFile).
			WithSuggestion("Ensure the network port range is not already in use").
			WithSuggestion("Inspect the service logs (try: " + cmdErr.Engine + " compose -f " + composeFile + " logs)")
	default:
		ctx.WithOperation("run command in service " + cmdErr.Service).
			WithResource(cmdErr.CommandLine()).
			WithSuggestion("Verify the service is running (try: " + cmdErr.Engine + " compose -f " + composeFile + " ps)")
	}
	if IsTransientError(cmdErr) {
		ctx.WithSuggestion("This looks like a transient engine or network failure; re-run the command")
	}
	ctx.WithSuggestion("Run with --verbose to see the full engine output")

	return ctx.Wrap(cmdErr).BuildError()
}
