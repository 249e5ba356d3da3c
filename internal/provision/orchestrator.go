// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/invowk/launchpad/internal/compose"
	"github.com/invowk/launchpad/internal/container"
	"github.com/invowk/launchpad/internal/payload"
	"github.com/invowk/launchpad/internal/projectconfig"
	"github.com/invowk/launchpad/internal/scaffold"
	"github.com/invowk/launchpad/internal/tasks"
)

// Well-known services of the payload.
const (
	ServiceEngine      = "engine"
	ServiceDatabase    = "db"
	ServiceSearch      = "solr"
	ServiceEdgeCache   = "varnish"
	ServiceCache       = "redis"
	ServiceMailcatcher = "mailcatcher"

	activeEnvironment = "dev"
)

var (
	// ErrNoRunner is returned by Run when no container.Runner was configured.
	ErrNoRunner = errors.New("provision: no container runner configured")
	// ErrNoStore is returned by Run when no configuration store was configured.
	ErrNoStore = errors.New("provision: no configuration store configured")
)

type (
	// Orchestrator runs the provisioning state machine.
	Orchestrator struct {
		cfg *Config
	}

	// Report summarizes a run, successful or not. States ends with StateDone
	// only when the run succeeded.
	Report struct {
		RunID           string
		States          []State
		Services        []string
		RemovedServices []string
		PrunedDirs      []string
		ComposeFile     string
		ProvisioningDir string
		NetworkName     string
		NetworkPort     int
	}

	// run is the state shared by the handlers of one Run call.
	run struct {
		cfg      *Config
		logger   *log.Logger
		answers  Answers
		request  InstallRequest
		report   *Report
		desc     *compose.Descriptor
		scaffold *scaffold.Scaffolder
		client   *container.ComposeClient
		executor *tasks.Executor
	}

	handler func(context.Context) (State, error)
)

// New creates an Orchestrator from DefaultConfig and opts.
func New(opts ...Option) *Orchestrator {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Orchestrator{cfg: cfg}
}

// Config returns the orchestrator configuration.
func (o *Orchestrator) Config() *Config {
	return o.cfg
}

// Run provisions the project from answers. States run strictly in sequence;
// the first failure aborts the run and is returned as a *StepError. The
// returned Report lists the states that completed either way.
func (o *Orchestrator) Run(ctx context.Context, answers Answers, req InstallRequest) (*Report, error) {
	if err := answers.Validate(); err != nil {
		return nil, err
	}
	if o.cfg.Runner == nil {
		return nil, ErrNoRunner
	}
	if o.cfg.Store == nil {
		return nil, ErrNoStore
	}

	runID := uuid.NewString()
	r := &run{
		cfg:     o.cfg,
		logger:  o.cfg.Logger.With("run", runID),
		answers: answers,
		request: req.WithDefaults(),
		report: &Report{
			RunID:       runID,
			NetworkName: answers.NetworkName,
			NetworkPort: answers.NetworkPort,
		},
		scaffold: scaffold.New(o.cfg.Payload, o.cfg.ProjectPath, answers.ProvisioningFolder),
	}
	r.report.ProvisioningDir = r.scaffold.Root()
	r.report.ComposeFile = r.scaffold.ComposePath(answers.ComposeFilename)

	return r.report, r.drive(ctx)
}

func (r *run) handlers() map[State]handler {
	return map[State]handler{
		StateScaffolding:           r.scaffolding,
		StateCleanBuild:            r.cleanBuild,
		StateDependencyInstallPre:  r.dependencyInstallPre,
		StateApplicationInstall:    r.applicationInstall,
		StateSearchSetup:           r.searchSetup,
		StateFullRedeploy:          r.fullRedeploy,
		StateDependencyInstallPost: r.dependencyInstallPost,
		StateSearchIndex:           r.searchIndex,
		StateCleanup:               r.cleanup,
	}
}

func (r *run) drive(ctx context.Context) error {
	handlers := r.handlers()
	state := StateScaffolding
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			return &StepError{State: state, Err: err}
		}

		r.logger.Info("entering state", "state", state)
		next, err := handlers[state](ctx)
		if err != nil {
			r.logger.Error("state failed", "state", state, "err", err)
			return &StepError{State: state, Err: err}
		}
		r.logger.Debug("state completed", "state", state, "next", next)

		r.record(state)
		state = next
	}
	r.record(StateDone)
	return nil
}

// record appends a reached state to the report and notifies the observer.
func (r *run) record(state State) {
	r.report.States = append(r.report.States, state)
	if r.cfg.Observer != nil {
		r.cfg.Observer(state)
	}
}

func (r *run) hasSearch() bool {
	return r.desc.HasService(ServiceSearch)
}

func (r *run) scaffolding(_ context.Context) (State, error) {
	data, err := fs.ReadFile(r.cfg.Payload, payload.ComposeFile)
	if err != nil {
		return 0, fmt.Errorf("read payload descriptor: %w", err)
	}
	desc, err := compose.Parse(data, payload.ComposeFile)
	if err != nil {
		return 0, err
	}
	desc.FilterServices(r.answers.Services)
	r.desc = desc
	r.report.Services = desc.Services()
	r.report.RemovedServices = desc.RemovedServices()
	r.logger.Debug("services selected", "kept", r.report.Services, "removed", r.report.RemovedServices)

	if err := r.scaffold.Mirror(); err != nil {
		return 0, err
	}
	if err := r.scaffold.MakeEntrypointsExecutable(); err != nil {
		return 0, err
	}
	if err := r.scaffold.InjectPHPConfig(scaffold.PHPFragments{
		Redis:       desc.HasService(ServiceCache),
		Mailcatcher: desc.HasService(ServiceMailcatcher),
	}); err != nil {
		return 0, err
	}
	desc.RemoveUselessEnvironmentsVariables()
	if err := r.scaffold.CopyReadme(); err != nil {
		return 0, err
	}

	if err := r.cfg.Store.SetMultiLocal(r.localSettings()); err != nil {
		return 0, fmt.Errorf("persist project configuration: %w", err)
	}

	clientOpts := []container.ComposeClientOption{
		container.WithLogger(r.logger),
		container.WithUser(r.cfg.UID, r.cfg.GID),
	}
	if r.cfg.Output != nil {
		clientOpts = append(clientOpts, container.WithOutput(r.cfg.Output))
	}
	r.client = container.NewComposeClient(r.cfg.Runner, container.ComposeOptions{
		EngineName:             r.cfg.EngineName,
		ComposeFile:            r.report.ComposeFile,
		NetworkName:            r.answers.NetworkName,
		NetworkPort:            r.answers.NetworkPort,
		ProjectPath:            r.cfg.ProjectPath,
		ProvisioningFolderName: r.answers.ProvisioningFolder,
		HostMachineMapping:     r.cfg.Store.Get(projectconfig.KeyHostMachineMapping),
		ComposerCacheDir:       r.cfg.Store.Get(projectconfig.KeyComposerCacheDir),
	}, clientOpts...)

	r.executor, err = tasks.NewExecutor(tasks.Context{
		Client:             r.client,
		Store:              r.cfg.Store,
		Recipes:            r.cfg.Recipes,
		ProvisioningFolder: r.answers.ProvisioningFolder,
		Logger:             r.logger,
	})
	if err != nil {
		return 0, err
	}

	return StateCleanBuild, nil
}

func (r *run) localSettings() map[string]any {
	settings := map[string]any{
		projectconfig.KeyProvisioningFolder: r.answers.ProvisioningFolder,
		projectconfig.KeyComposeFilename:    r.answers.ComposeFilename,
		projectconfig.KeyNetworkName:        r.answers.NetworkName,
		projectconfig.KeyNetworkPort:        strconv.Itoa(r.answers.NetworkPort),
	}
	for name, basic := range r.answers.HTTPBasics {
		host, login, password := projectconfig.CredentialKeys(name)
		settings[host] = basic.Host
		settings[login] = basic.Login
		settings[password] = basic.Password
	}
	return settings
}

func (r *run) cleanBuild(ctx context.Context) (State, error) {
	clean := r.desc.CleanForInitialize()
	if err := clean.Dump(r.report.ComposeFile); err != nil {
		return 0, fmt.Errorf("dump initialization descriptor: %w", err)
	}
	if err := r.client.Build(ctx, "--no-cache"); err != nil {
		return 0, err
	}
	if err := r.client.Up(ctx, "-d"); err != nil {
		return 0, err
	}
	return StateDependencyInstallPre, nil
}

func (r *run) dependencyInstallPre(ctx context.Context) (State, error) {
	if err := r.executor.ComposerInstall(ctx); err != nil {
		return 0, err
	}
	return StateApplicationInstall, nil
}

func (r *run) applicationInstall(ctx context.Context) (State, error) {
	req := r.request
	if err := r.executor.ApplicationInstall(ctx, req.Version, req.Repository, req.InitialData); err != nil {
		return 0, err
	}
	if r.hasSearch() {
		return StateSearchSetup, nil
	}
	return StateFullRedeploy, nil
}

func (r *run) searchSetup(ctx context.Context) (State, error) {
	if err := r.executor.InstallSearchEngine(ctx); err != nil {
		return 0, err
	}
	return StateFullRedeploy, nil
}

func (r *run) fullRedeploy(ctx context.Context) (State, error) {
	if err := r.desc.Dump(r.report.ComposeFile); err != nil {
		return 0, fmt.Errorf("dump descriptor: %w", err)
	}
	if err := r.client.Up(ctx, "-d"); err != nil {
		return 0, err
	}
	return StateDependencyInstallPost, nil
}

func (r *run) dependencyInstallPost(ctx context.Context) (State, error) {
	if err := r.executor.ComposerInstall(ctx); err != nil {
		return 0, err
	}
	if r.hasSearch() {
		return StateSearchIndex, nil
	}
	return StateCleanup, nil
}

func (r *run) searchIndex(ctx context.Context) (State, error) {
	if err := r.executor.CreateSearchCore(ctx); err != nil {
		return 0, err
	}
	if err := r.executor.IndexSearchEngine(ctx); err != nil {
		return 0, err
	}
	return StateCleanup, nil
}

func (r *run) cleanup(_ context.Context) (State, error) {
	pruned, err := r.scaffold.PruneUnused(r.desc.HasService)
	r.report.PrunedDirs = pruned
	if err != nil {
		return 0, err
	}
	if err := r.cfg.Store.SetEnvironment(activeEnvironment); err != nil {
		return 0, fmt.Errorf("mark environment active: %w", err)
	}
	return StateDone, nil
}
