// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"

	"github.com/invowk/launchpad/internal/container"
	"github.com/invowk/launchpad/internal/payload"
	"github.com/invowk/launchpad/internal/projectconfig"
)

type (
	// Store is the subset of the project configuration a run reads and writes.
	// *projectconfig.Store satisfies it.
	Store interface {
		Get(key string) string
		SetMultiLocal(values map[string]any) error
		SetEnvironment(name string) error
		HTTPBasicCredentials() []projectconfig.Credential
	}

	// Config holds the collaborators and settings of an Orchestrator.
	Config struct {
		// Payload is the provisioning payload. Default: the embedded one.
		Payload fs.FS

		// ProjectPath is the absolute project root on the host.
		ProjectPath string

		// EngineName labels engine diagnostics (docker or podman).
		EngineName string

		// Runner executes engine invocations.
		Runner container.Runner

		// Store persists answer-derived settings.
		Store Store

		// Recipes lists the in-container recipes the run requires.
		// Empty means every built-in recipe.
		Recipes []string

		// Logger receives state transitions and engine tracing.
		Logger *log.Logger

		// Output receives streamed build/up output. Nil keeps it captured only.
		Output io.Writer

		// Observer is called after each state completes and once with StateDone
		// when the run succeeds.
		Observer func(State)

		// UID and GID are exported to the stack as DEV_UID/DEV_GID.
		UID int
		GID int
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Payload:    payload.Embedded(),
		EngineName: container.EngineTypeDocker.String(),
		Logger:     log.New(io.Discard),
		UID:        os.Getuid(),
		GID:        os.Getgid(),
	}
}

// WithPayload returns an Option that sets the payload filesystem.
func WithPayload(fsys fs.FS) Option {
	return func(c *Config) {
		c.Payload = fsys
	}
}

// WithProjectPath returns an Option that sets ProjectPath on the config.
func WithProjectPath(path string) Option {
	return func(c *Config) {
		c.ProjectPath = path
	}
}

// WithEngineName returns an Option that sets EngineName on the config.
func WithEngineName(name string) Option {
	return func(c *Config) {
		c.EngineName = name
	}
}

// WithRunner returns an Option that sets Runner on the config.
func WithRunner(r container.Runner) Option {
	return func(c *Config) {
		c.Runner = r
	}
}

// WithStore returns an Option that sets Store on the config.
func WithStore(s Store) Option {
	return func(c *Config) {
		c.Store = s
	}
}

// WithRecipes returns an Option that sets the required recipes.
func WithRecipes(names []string) Option {
	return func(c *Config) {
		c.Recipes = names
	}
}

// WithLogger returns an Option that sets Logger on the config.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithOutput returns an Option that streams engine output to w.
func WithOutput(w io.Writer) Option {
	return func(c *Config) {
		c.Output = w
	}
}

// WithObserver returns an Option that sets Observer on the config.
func WithObserver(fn func(State)) Option {
	return func(c *Config) {
		c.Observer = fn
	}
}

// WithUser returns an Option that sets the host user exported to the stack.
func WithUser(uid, gid int) Option {
	return func(c *Config) {
		c.UID = uid
		c.GID = gid
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
