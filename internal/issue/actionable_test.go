// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// joinedError mimics engine errors that carry a failure kind and a start error.
type joinedError struct {
	msg  string
	errs []error
}

func (e *joinedError) Error() string   { return e.msg }
func (e *joinedError) Unwrap() []error { return e.errs }

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "build services"}, "failed to build services"},
		{
			"with resource",
			&ActionableError{Operation: "build services", Resource: "provisioning/dev/docker-compose.yml"},
			"failed to build services: provisioning/dev/docker-compose.yml",
		},
		{
			"with cause",
			&ActionableError{Operation: "open project configuration", Cause: errors.New("yaml: line 2")},
			"failed to open project configuration: yaml: line 2",
		},
		{
			"everything",
			&ActionableError{Operation: "load configuration", Resource: "config.cue", Cause: errors.New("not found")},
			"failed to load configuration: config.cue: not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorContext_BuildError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("startup failed")
	err := NewErrorContext().
		WithOperation("start services").
		WithResource("docker-compose.yml").
		WithSuggestion("Ensure the network port range is not already in use").
		WithSuggestion("  ").
		Wrap(fmt.Errorf("compose up: %w", sentinel)).
		BuildError()

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("BuildError() = %T, want *ActionableError", err)
	}
	if ae.Operation != "start services" || ae.Resource != "docker-compose.yml" {
		t.Errorf("ActionableError = %+v", ae)
	}
	if len(ae.Suggestions) != 1 || !ae.HasSuggestions() {
		t.Errorf("Suggestions = %q, want the blank one dropped", ae.Suggestions)
	}
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is() does not reach the wrapped sentinel")
	}

	if NewErrorContext().WithSuggestion("x").BuildError() != nil {
		t.Error("BuildError() without an operation should be nil")
	}
}

func TestErrorContext_BuildErrorSnapshots(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("run command in service engine")
	first := ctx.WithSuggestion("a").Wrap(errors.New("one")).BuildError()
	second := ctx.WithSuggestion("b").Wrap(errors.New("two")).BuildError()

	var a, b *ActionableError
	if !errors.As(first, &a) || !errors.As(second, &b) {
		t.Fatal("expected actionable errors")
	}
	if len(a.Suggestions) != 1 || a.Cause.Error() != "one" {
		t.Errorf("first error changed after reuse: %+v", a)
	}
	if len(b.Suggestions) != 2 || b.Cause.Error() != "two" {
		t.Errorf("second error = %+v", b)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	kind := errors.New("build failed")
	start := errors.New("exec: docker: not found")
	err := &ActionableError{
		Operation:   "build services",
		Suggestions: []string{"Install docker", "Run with --verbose"},
		Cause:       fmt.Errorf("step CleanBuild: %w", &joinedError{msg: "docker compose build could not start", errs: []error{kind, start}}),
	}

	tests := []struct {
		name     string
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "plain",
			contains: []string{"failed to build services", "\n  • Install docker", "\n  • Run with --verbose"},
			excludes: []string{"Caused by:"},
		},
		{
			name:    "verbose walks joined causes",
			verbose: true,
			contains: []string{
				"Caused by:",
				"\n  - step CleanBuild: docker compose build could not start",
				"\n    - docker compose build could not start",
				"\n      - build failed",
				"\n      - exec: docker: not found",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := err.Format(tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("Format(%v) lacks %q:\n%s", tt.verbose, want, out)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(out, bad) {
					t.Errorf("Format(%v) contains %q:\n%s", tt.verbose, bad, out)
				}
			}
		})
	}
}

func TestActionableError_FormatWithoutSuggestions(t *testing.T) {
	t.Parallel()

	err := &ActionableError{Operation: "select container engine"}
	if got := err.Format(true); got != "failed to select container engine" {
		t.Errorf("Format(true) = %q", got)
	}
}
