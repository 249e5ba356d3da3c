// SPDX-License-Identifier: MPL-2.0

package provision

import "fmt"

// State is one step of a provisioning run.
type State int

const (
	StateScaffolding State = iota
	StateCleanBuild
	StateDependencyInstallPre
	StateApplicationInstall
	StateSearchSetup
	StateFullRedeploy
	StateDependencyInstallPost
	StateSearchIndex
	StateCleanup
	StateDone
)

var stateNames = [...]string{
	StateScaffolding:           "Scaffolding",
	StateCleanBuild:            "CleanBuild",
	StateDependencyInstallPre:  "DependencyInstall(pre)",
	StateApplicationInstall:    "ApplicationInstall",
	StateSearchSetup:           "SearchSetup",
	StateFullRedeploy:          "FullRedeploy",
	StateDependencyInstallPost: "DependencyInstall(post)",
	StateSearchIndex:           "SearchIndex",
	StateCleanup:               "Cleanup",
	StateDone:                  "Done",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// StepError is returned when a state's handler fails. No later state ran.
type StepError struct {
	State State
	Err   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("provisioning failed in state %s: %v", e.State, e.Err)
}

// Unwrap returns the handler's error.
func (e *StepError) Unwrap() error { return e.Err }
