// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/invowk/launchpad/internal/config"
	"github.com/invowk/launchpad/internal/container"
	"github.com/invowk/launchpad/internal/issue"
	"github.com/invowk/launchpad/internal/payload"
	"github.com/invowk/launchpad/internal/projectconfig"
	"github.com/invowk/launchpad/internal/provision"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: command handlers receive an App and delegate through its
	// service interfaces.
	App struct {
		Config      ConfigProvider
		Provisioner ProvisionService
		stdout      io.Writer
		stderr      io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config      ConfigProvider
		Provisioner ProvisionService
		Stdout      io.Writer
		Stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ProvisionRequest captures the inputs of one `initialize` invocation.
	ProvisionRequest struct {
		ProjectPath string
		Answers     provision.Answers
		Install     provision.InstallRequest
		Config      *config.Config
		Verbose     bool
	}

	// ProvisionService runs a provisioning request. The report is returned
	// even on failure so the CLI can show how far the run got.
	ProvisionService interface {
		Provision(ctx context.Context, req ProvisionRequest) (*provision.Report, error)
	}

	// engineProvisioner is the production ProvisionService: it resolves the
	// container engine and the project configuration store, then drives a
	// provision.Orchestrator.
	engineProvisioner struct {
		stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Provisioner == nil {
		deps.Provisioner = &engineProvisioner{stderr: deps.Stderr}
	}

	return &App{
		Config:      deps.Config,
		Provisioner: deps.Provisioner,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
	}
}

// Provision resolves the engine and runs the orchestrator.
func (p *engineProvisioner) Provision(ctx context.Context, req ProvisionRequest) (*provision.Report, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	engineType, err := container.ParseEngineType(string(cfg.ContainerEngine))
	if err != nil {
		return nil, err
	}
	engine, err := container.NewEngine(engineType)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("select container engine").
			WithResource(engineType.String()).
			WithSuggestion("Install docker or podman and make sure it is on PATH").
			WithSuggestion("Switch engines with: launchpad config set container_engine podman").
			Wrap(err).
			BuildError()
	}

	store, err := projectconfig.Open(req.ProjectPath)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("open project configuration").
			WithResource(req.ProjectPath).
			WithSuggestion("Fix or remove the malformed " + projectconfig.FileName + " file").
			Wrap(err).
			BuildError()
	}

	logger := newLogger(p.stderr, req.Verbose)
	opts := []provision.Option{
		provision.WithPayload(payload.Open(cfg.PayloadDir)),
		provision.WithProjectPath(req.ProjectPath),
		provision.WithEngineName(engine.Name()),
		provision.WithRunner(container.NewExecRunner(engine)),
		provision.WithStore(store),
		provision.WithLogger(logger),
	}
	if req.Verbose {
		opts = append(opts, provision.WithOutput(p.stderr))
	}

	logger.Debug("using container engine", "engine", engine.Name(), "binary", engine.BinaryPath())
	return provision.New(opts...).Run(ctx, req.Answers, req.Install)
}

// newLogger returns the CLI logger. Verbose mode lowers the level to debug
// and adds timestamps.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	opts := log.Options{
		Prefix: config.AppName,
		Level:  log.InfoLevel,
	}
	if verbose {
		opts.Level = log.DebugLevel
		opts.ReportTimestamp = true
	}
	return log.NewWithOptions(w, opts)
}
