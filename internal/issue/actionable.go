// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"strings"
)

type (
	// ActionableError tells the operator what launchpad was doing when a step
	// failed, on what, and what to try next. Build it with NewErrorContext.
	ActionableError struct {
		// Operation is a verb phrase, e.g. "build services".
		Operation string
		// Resource is the file, service or command line involved. Optional.
		Resource string
		// Suggestions are shown as a list under the message.
		Suggestions []string
		// Cause is the wrapped failure.
		Cause error
	}

	// ErrorContext accumulates the parts of an ActionableError.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("open project configuration").
	//		WithResource(projectPath).
	//		WithSuggestion("Fix or remove the malformed .launchpad.yml file").
	//		Wrap(err).
	//		BuildError()
	ErrorContext struct {
		ae ActionableError
	}
)

// NewErrorContext starts an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WithOperation sets what was being attempted.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.ae.Operation = op
	return c
}

// WithResource sets the entity the operation acted on.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.ae.Resource = res
	return c
}

// WithSuggestion appends one hint. Blank hints are ignored.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	if strings.TrimSpace(sug) != "" {
		c.ae.Suggestions = append(c.ae.Suggestions, sug)
	}
	return c
}

// Wrap sets the underlying failure.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.ae.Cause = err
	return c
}

// BuildError returns the accumulated *ActionableError, or nil when no
// operation was set.
func (c *ErrorContext) BuildError() error {
	if c.ae.Operation == "" {
		return nil
	}
	ae := c.ae
	ae.Suggestions = append([]string(nil), c.ae.Suggestions...)
	return &ae
}

// Error renders "failed to <operation>: <resource>: <cause>", omitting empty parts.
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// HasSuggestions reports whether any hint is attached.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// Format renders the message followed by the suggestions. Verbose output
// appends every error in the cause tree, one per line, indented by depth;
// errors joining several causes list each of them.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • ")
			b.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nCaused by:")
		writeCauses(&b, e.Cause, 1)
	}
	return b.String()
}

func writeCauses(b *strings.Builder, err error, depth int) {
	if err == nil {
		return
	}
	fmt.Fprintf(b, "\n%s- %s", strings.Repeat("  ", depth), err.Error())
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			writeCauses(b, inner, depth+1)
		}
	case interface{ Unwrap() error }:
		writeCauses(b, u.Unwrap(), depth+1)
	}
}
