// SPDX-License-Identifier: MPL-2.0

// Package tasks runs the in-container provisioning steps against a running
// deployment: dependency install, application install, search engine setup
// and indexing.
//
// Each step is a bash recipe embedded in the binary and streamed to the
// application service on stdin. The executor does not order steps; callers
// are responsible for running them in a meaningful sequence.
package tasks
