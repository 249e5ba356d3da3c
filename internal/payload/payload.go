// SPDX-License-Identifier: MPL-2.0

// Package payload embeds the default provisioning payload: the dev/ tree
// mirrored into each project and the README copied next to it.
package payload

import (
	"embed"
	"io/fs"
	"os"
)

const (
	// DevDir is the payload directory mirrored into <provisioning>/dev.
	DevDir = "dev"
	// ComposeFile is the payload descriptor path.
	ComposeFile = "dev/docker-compose.yml"
	// Readme is copied to <provisioning>/README.md.
	Readme = "README.md"
)

//go:embed all:dev README.md
var embedded embed.FS

// Embedded returns the built-in payload.
func Embedded() fs.FS {
	return embedded
}

// Open returns the payload rooted at dir, or the embedded one when dir is empty.
func Open(dir string) fs.FS {
	if dir == "" {
		return embedded
	}
	return os.DirFS(dir)
}
