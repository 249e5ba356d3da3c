// SPDX-License-Identifier: MPL-2.0

// Package scaffold writes the provisioning folder of a project: it mirrors the
// payload's dev/ tree, marks the entrypoint scripts executable, renders the
// PHP configuration fragments and prunes directories of services that were
// not selected.
package scaffold
