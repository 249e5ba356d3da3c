// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/launchpad/internal/payload"
)

const (
	redisMarker    = "##REDIS_CONFIG##"
	sendmailMarker = "##SENDMAIL_CONFIG##"

	redisConfig = `; redis configuration in dev
session.save_handler = redis
session.save_path = "tcp://redis:6379"`

	sendmailConfig = `; mailcatcher configuration in dev
sendmail_path = /usr/bin/env catchmail --smtp-ip mailcatcher --smtp-port 1025 -f docker@localhost`
)

// entrypoints are made executable after mirroring, keyed by their service directory.
var entrypoints = []struct {
	dir      string
	optional bool
}{
	{dir: "nginx"},
	{dir: "engine"},
	{dir: "solr", optional: true},
}

// prunable lists the service directories removed when their service is absent.
var prunable = []string{"solr", "varnish"}

type (
	// PHPFragments selects the optional php.ini blocks.
	PHPFragments struct {
		Redis       bool
		Mailcatcher bool
	}

	// Scaffolder writes one project's provisioning folder from a payload.
	Scaffolder struct {
		payload fs.FS
		root    string
	}
)

// New creates a scaffolder writing into <projectPath>/<provisioningFolder>.
func New(payloadFS fs.FS, projectPath, provisioningFolder string) *Scaffolder {
	return &Scaffolder{
		payload: payloadFS,
		root:    filepath.Join(projectPath, provisioningFolder),
	}
}

// Root returns the provisioning folder.
func (s *Scaffolder) Root() string { return s.root }

// DevDir returns <provisioning>/dev.
func (s *Scaffolder) DevDir() string { return filepath.Join(s.root, payload.DevDir) }

// ComposePath returns the path the descriptor is dumped to.
func (s *Scaffolder) ComposePath(filename string) string {
	return filepath.Join(s.DevDir(), filename)
}

// Mirror copies the payload dev/ tree into the provisioning folder.
func (s *Scaffolder) Mirror() error {
	if err := CopyDir(s.payload, payload.DevDir, s.DevDir()); err != nil {
		return fsError("mirror", s.DevDir(), err)
	}
	return nil
}

// MakeEntrypointsExecutable sets 0755 on every service entrypoint. An optional
// entrypoint may be missing only if its whole service directory is.
func (s *Scaffolder) MakeEntrypointsExecutable() error {
	for _, ep := range entrypoints {
		dir := filepath.Join(s.DevDir(), ep.dir)
		file := filepath.Join(dir, "entrypoint.bash")
		err := os.Chmod(file, 0o755)
		if err == nil {
			continue
		}
		if ep.optional && errors.Is(err, fs.ErrNotExist) {
			if _, statErr := os.Stat(dir); errors.Is(statErr, fs.ErrNotExist) {
				continue
			}
		}
		return fsError("chmod", file, err)
	}
	return nil
}

// InjectPHPConfig renders the optional blocks into engine/php.ini.
func (s *Scaffolder) InjectPHPConfig(f PHPFragments) error {
	file := filepath.Join(s.DevDir(), "engine", "php.ini")
	data, err := os.ReadFile(file)
	if err != nil {
		return fsError("read", file, err)
	}

	content := strings.ReplaceAll(string(data), redisMarker, fragment(f.Redis, redisConfig))
	content = strings.ReplaceAll(content, sendmailMarker, fragment(f.Mailcatcher, sendmailConfig))

	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		return fsError("write", file, err)
	}
	return nil
}

func fragment(enabled bool, block string) string {
	if enabled {
		return block
	}
	return ""
}

// CopyReadme copies the payload README next to dev/.
func (s *Scaffolder) CopyReadme() error {
	dst := filepath.Join(s.root, payload.Readme)
	if err := CopyFile(s.payload, payload.Readme, dst); err != nil {
		return fsError("copy", dst, err)
	}
	return nil
}

// PruneUnused removes the directory of every prunable service for which
// present reports false, and returns the removed directories.
func (s *Scaffolder) PruneUnused(present func(service string) bool) ([]string, error) {
	var removed []string
	for _, service := range prunable {
		if present(service) {
			continue
		}
		dir := filepath.Join(s.DevDir(), service)
		if err := os.RemoveAll(dir); err != nil {
			return removed, fsError("remove", dir, err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}
