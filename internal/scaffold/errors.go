// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"errors"
	"fmt"
)

// ErrFilesystem is the sentinel carried by every scaffolding failure.
var ErrFilesystem = errors.New("filesystem error")

// FilesystemError records which operation failed on which path.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *FilesystemError) Unwrap() []error {
	return []error{ErrFilesystem, e.Err}
}

func fsError(op, path string, err error) error {
	return &FilesystemError{Op: op, Path: path, Err: err}
}
