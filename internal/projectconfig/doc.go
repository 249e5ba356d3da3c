// SPDX-License-Identifier: MPL-2.0

// Package projectconfig persists the per-project and per-user settings that a
// provisioning run records: provisioning folder, compose file, network identity,
// HTTP basic credentials and the active environment.
//
// Two YAML files back the store. The local file lives at the project root
// (.launchpad.yml) and the global one in the user's home directory. Reads fall
// through local, then global, then built-in defaults.
package projectconfig
