// SPDX-License-Identifier: MPL-2.0

// Package provision drives the initialization of a project's container stack.
//
// A run is an explicit state machine. Each state has one handler that returns
// the next state; the driver stops at the first failure and reports it as a
// *StepError naming the state:
//
//	Scaffolding → CleanBuild → DependencyInstallPre → ApplicationInstall
//	  → [SearchSetup] → FullRedeploy → DependencyInstallPost → [SearchIndex]
//	  → Cleanup → Done
//
// The bracketed states are only traversed when the search service survived
// service selection.
//
// The first build and start use a "clean" copy of the descriptor without host
// mounts, so the installer runs before application sources exist on the host.
// The full descriptor is then dumped over it and the stack restarted.
//
//	o := provision.New(
//		provision.WithProjectPath(dir),
//		provision.WithRunner(container.NewExecRunner(engine)),
//		provision.WithStore(store),
//	)
//	report, err := o.Run(ctx, answers, provision.DefaultInstallRequest())
//
// Concurrent runs against the same project path are not supported.
package provision
