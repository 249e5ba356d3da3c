// SPDX-License-Identifier: MPL-2.0

// Package container drives the container engine's compose tooling (Docker/Podman).
//
// Engine selection uses NewEngine(EngineType) with automatic fallback if the preferred engine
// is unavailable.
// Both engines embed BaseCLIEngine for command creation; inside a Flatpak sandbox commands are
// spawned on the host.
//
// Process execution sits behind the Runner capability (ExecRunner in production, fakes in tests).
// ComposeClient layers the provisioning context (compose file, network identity, port prefix,
// project path, host mappings, dependency cache) over a Runner and exposes Build, Up and Exec.
// Every call is a single attempt; failures are *CommandError values unwrapping to ErrBuildFailed,
// ErrStartupFailed or ErrExecutionFailed.
package container
