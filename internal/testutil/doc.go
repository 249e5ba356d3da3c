// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers shared across launchpad packages:
// environment overrides that restore themselves (MustSetenv, MustUnsetenv,
// SetHomeDir) and the semaphore bounding tests that talk to a real
// container engine.
package testutil
