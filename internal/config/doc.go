// SPDX-License-Identifier: MPL-2.0

// Package config handles launchpad's own configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/launchpad/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/launchpad/config.cue on macOS, %APPDATA%\launchpad\config.cue
// on Windows). It selects the container engine, an optional payload directory, UI settings
// and the defaults offered when initializing a project.
//
// Per-project settings written by a provisioning run live in package projectconfig instead.
package config
