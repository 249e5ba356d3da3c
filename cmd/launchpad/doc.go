// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the launchpad command tree.
//
// NewRootCommand builds the cobra tree around an App, the composition root
// that owns the configuration provider and the provisioning service. Command
// handlers only parse input, delegate to the App and render the outcome;
// provisioning failures are rendered here with the matching issue catalog
// entry and surface to main as an *ExitError.
package cmd
