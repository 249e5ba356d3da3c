// SPDX-License-Identifier: MPL-2.0

// Package containertest provides a recording container.Runner for tests that
// must not spawn real engine processes.
package containertest

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/invowk/launchpad/internal/container"
)

type (
	// Call is one recorded invocation. Stdin is drained into StdinData.
	Call struct {
		container.Invocation
		StdinData string
	}

	// Rule answers invocations accepted by Match with Result (or Err).
	Rule struct {
		Match  func(Call) bool
		Result container.Result
		Err    error
	}

	// FakeRunner records every invocation and answers with the first matching
	// rule, or with a successful empty result.
	FakeRunner struct {
		mu    sync.Mutex
		calls []Call
		rules []Rule
	}
)

// NewFakeRunner creates a runner answering with the given rules.
func NewFakeRunner(rules ...Rule) *FakeRunner {
	return &FakeRunner{rules: rules}
}

// On adds a rule.
func (f *FakeRunner) On(r Rule) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, r)
	return f
}

// FailAction makes every invocation of the compose action exit with code and stderr.
func (f *FakeRunner) FailAction(action string, code int, stderr string) *FakeRunner {
	return f.On(Rule{
		Match:  func(c Call) bool { return Action(c.Args) == action },
		Result: container.Result{ExitCode: code, Stderr: stderr},
	})
}

// Run implements container.Runner.
func (f *FakeRunner) Run(_ context.Context, inv container.Invocation) (*container.Result, error) {
	call := Call{Invocation: inv}
	if inv.Stdin != nil {
		data, err := io.ReadAll(inv.Stdin)
		if err != nil {
			return nil, err
		}
		call.StdinData = string(data)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	rules := append([]Rule(nil), f.rules...)
	f.mu.Unlock()

	for _, r := range rules {
		if r.Match(call) {
			res := r.Result
			return &res, r.Err
		}
	}
	return &container.Result{}, nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Commands summarizes recorded invocations as "<action> <flags...>" strings,
// e.g. "build --no-cache" or "exec -T --user solr solr /opt/solr/bin/solr ...".
func (f *FakeRunner) Commands() []string {
	calls := f.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, strings.Join(ActionArgs(c.Args), " "))
	}
	return out
}

// Action extracts the compose action from engine arguments.
func Action(args []string) string {
	if rest := ActionArgs(args); len(rest) > 0 {
		return rest[0]
	}
	return ""
}

// ActionArgs returns the compose action and its flags, skipping the global
// "compose -p <name> -f <file>" prefix.
func ActionArgs(args []string) []string {
	i := 0
	if i < len(args) && args[i] == "compose" {
		i++
	}
	for i+1 < len(args) && (args[i] == "-p" || args[i] == "-f") {
		i += 2
	}
	return args[i:]
}
