// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/invowk/launchpad/internal/compose"
	"github.com/invowk/launchpad/internal/container"
	"github.com/invowk/launchpad/internal/container/containertest"
	"github.com/invowk/launchpad/internal/projectconfig"
	"github.com/invowk/launchpad/internal/tasks"
)

type harness struct {
	project string
	store   *projectconfig.Store
	runner  *containertest.FakeRunner

	mu        sync.Mutex
	buildCopy string
	observed  []State
	orch      *Orchestrator
}

func newHarness(t *testing.T, rules ...containertest.Rule) *harness {
	t.Helper()

	dir := t.TempDir()
	project := filepath.Join(dir, "acme")
	store, err := projectconfig.OpenPaths(filepath.Join(project, projectconfig.FileName), filepath.Join(dir, "home", projectconfig.FileName))
	if err != nil {
		t.Fatalf("OpenPaths() error = %v", err)
	}

	h := &harness{project: project, store: store}
	// Snapshot the descriptor the image build sees.
	capture := containertest.Rule{
		Match: func(c containertest.Call) bool {
			if containertest.Action(c.Args) == "build" {
				data, _ := os.ReadFile(filepath.Join(project, "provisioning", "dev", "docker-compose.yml"))
				h.mu.Lock()
				h.buildCopy = string(data)
				h.mu.Unlock()
			}
			return false
		},
	}
	h.runner = containertest.NewFakeRunner(append([]containertest.Rule{capture}, rules...)...)
	h.orch = New(
		WithProjectPath(project),
		WithRunner(h.runner),
		WithStore(store),
		WithUser(1000, 1000),
		WithObserver(func(s State) { h.observed = append(h.observed, s) }),
	)
	return h
}

func testAnswers(services ...string) Answers {
	return Answers{
		NetworkName:        "acme",
		NetworkPort:        42,
		Services:           services,
		ProvisioningFolder: "provisioning",
		ComposeFilename:    "docker-compose.yml",
	}
}

func (h *harness) devDir(parts ...string) string {
	return filepath.Join(append([]string{h.project, "provisioning", "dev"}, parts...)...)
}

func TestOrchestrator_SearchScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	report, err := h.orch.Run(t.Context(), testAnswers("db", "solr"), DefaultInstallRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantStates := []State{
		StateScaffolding, StateCleanBuild, StateDependencyInstallPre, StateApplicationInstall,
		StateSearchSetup, StateFullRedeploy, StateDependencyInstallPost, StateSearchIndex, StateCleanup, StateDone,
	}
	if !slices.Equal(report.States, wantStates) {
		t.Errorf("states = %v, want %v", report.States, wantStates)
	}
	if !slices.Equal(h.observed, wantStates) {
		t.Errorf("observed = %v, want %v", h.observed, wantStates)
	}

	wantCommands := []string{
		"build --no-cache",
		"up -d",
		recipeExec(tasks.RecipeComposerInstall),
		recipeExec(tasks.RecipeAppInstall, "2.*", "ezsystems/ezplatform", "clean"),
		recipeExec(tasks.RecipeSearchInstall, "provisioning"),
		"up -d",
		recipeExec(tasks.RecipeComposerInstall),
		"exec -T --user solr solr /opt/solr/bin/solr create_core -c collection1 -d /ezsolr/server/ez/template",
		recipeExec(tasks.RecipeSearchIndex),
	}
	if got := h.runner.Commands(); !slices.Equal(got, wantCommands) {
		t.Errorf("commands =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(wantCommands, "\n"))
	}

	final, err := compose.Load(report.ComposeFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, svc := range []string{"engine", "nginx", "db", "solr"} {
		if !final.HasService(svc) {
			t.Errorf("final descriptor lacks %q", svc)
		}
	}
	for _, svc := range []string{"varnish", "redis", "mailcatcher"} {
		if final.HasService(svc) {
			t.Errorf("final descriptor keeps unselected %q", svc)
		}
	}
	engine, _ := final.Service("engine")
	for _, env := range engine.Environment {
		if strings.HasPrefix(env.Name, "HTTPCACHE_") || env.Name == "MAILER_HOST" {
			t.Errorf("final descriptor keeps orphaned variable %s", env.Name)
		}
	}

	if _, err := os.Stat(h.devDir("varnish")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("varnish scaffolding should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(h.devDir("solr")); err != nil {
		t.Errorf("solr scaffolding should be kept: %v", err)
	}
	if !slices.Equal(report.PrunedDirs, []string{h.devDir("varnish")}) {
		t.Errorf("PrunedDirs = %v", report.PrunedDirs)
	}
}

func TestOrchestrator_DatabaseOnlyScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	report, err := h.orch.Run(t.Context(), testAnswers("db"), DefaultInstallRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, s := range report.States {
		if s == StateSearchSetup || s == StateSearchIndex {
			t.Errorf("state %s traversed without the search service", s)
		}
	}
	if n := len(report.States); n < 2 || report.States[n-2] != StateCleanup || report.States[n-1] != StateDone {
		t.Errorf("states = %v, want Cleanup then Done last", report.States)
	}
	if last := h.observed[len(h.observed)-1]; last != StateDone {
		t.Errorf("last observed state = %s, want Done", last)
	}
	for _, dir := range []string{"solr", "varnish"} {
		if _, err := os.Stat(h.devDir(dir)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s scaffolding should be removed, stat err = %v", dir, err)
		}
	}
	for _, c := range h.runner.Commands() {
		if strings.Contains(c, "solr") {
			t.Errorf("unexpected search command %q", c)
		}
	}

	ini, err := os.ReadFile(h.devDir("engine", "php.ini"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(ini), "redis") || strings.Contains(string(ini), "catchmail") {
		t.Errorf("php.ini has fragments for unselected services:\n%s", ini)
	}
}

func TestOrchestrator_CleanPassThenFullDescriptor(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	report, err := h.orch.Run(t.Context(), testAnswers("db", "redis", "mailcatcher"), DefaultInstallRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	h.mu.Lock()
	buildCopy := h.buildCopy
	h.mu.Unlock()
	if buildCopy == "" {
		t.Fatal("descriptor was not written before build")
	}
	clean, err := compose.Parse([]byte(buildCopy), "build copy")
	if err != nil {
		t.Fatalf("Parse(build copy) error = %v", err)
	}
	full, err := compose.Load(report.ComposeFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cleanEngine, _ := clean.Service("engine")
	fullEngine, _ := full.Service("engine")
	if hasTarget(cleanEngine, "/usr/local/etc/php/php.ini") || hasVar(cleanEngine, "SYMFONY_ENV") {
		t.Errorf("build descriptor still carries install-time mounts or variables: %+v", cleanEngine)
	}
	if !hasTarget(cleanEngine, "/var/www/.composer/cache") || !hasTarget(cleanEngine, "/var/www/html/project") {
		t.Errorf("build descriptor lost a kept mount: %+v", cleanEngine.Volumes)
	}
	if !hasTarget(fullEngine, "/usr/local/etc/php/php.ini") || !hasVar(fullEngine, "SYMFONY_ENV") || !hasVar(fullEngine, "CACHE_DSN") {
		t.Errorf("final descriptor lacks the full mounts and variables: %+v", fullEngine)
	}

	ini, err := os.ReadFile(h.devDir("engine", "php.ini"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ini), "session.save_handler = redis") || !strings.Contains(string(ini), "catchmail") {
		t.Errorf("php.ini lacks selected fragments:\n%s", ini)
	}
}

func TestOrchestrator_CleanPassKeepsStartupMounts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	report, err := h.orch.Run(t.Context(), testAnswers("solr", "varnish"), DefaultInstallRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	h.mu.Lock()
	buildCopy := h.buildCopy
	h.mu.Unlock()
	clean, err := compose.Parse([]byte(buildCopy), "build copy")
	if err != nil {
		t.Fatalf("Parse(build copy) error = %v", err)
	}
	full, err := compose.Load(report.ComposeFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	nginx, _ := clean.Service("nginx")
	if nginx.Entrypoint != "/entrypoint.bash" || !hasTarget(nginx, "/entrypoint.bash") {
		t.Errorf("build descriptor starts nginx without its entrypoint: %+v", nginx)
	}
	varnish, _ := clean.Service("varnish")
	if !hasTarget(varnish, "/etc/varnish/default.vcl") {
		t.Errorf("build descriptor starts varnish without its VCL: %+v", varnish.Volumes)
	}
	for _, name := range clean.Services() {
		svc, _ := clean.Service(name)
		fullSvc, _ := full.Service(name)
		if svc.Entrypoint == "" || !hasTarget(fullSvc, svc.Entrypoint) {
			continue
		}
		if !hasTarget(svc, svc.Entrypoint) {
			t.Errorf("%s: build descriptor drops the mount of entrypoint %s", name, svc.Entrypoint)
		}
	}
}

func TestOrchestrator_PersistsSettings(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	answers := testAnswers("db")
	answers.HTTPBasics = map[string]HTTPBasic{
		"ez": {Host: "updates.ez.no", Login: "user", Password: "secret"},
	}
	req := InstallRequest{Repository: "ezsystems/ezplatform-ee", Version: "2.5.*"}
	if _, err := h.orch.Run(t.Context(), answers, req); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for key, want := range map[string]string{
		projectconfig.KeyProvisioningFolder: "provisioning",
		projectconfig.KeyComposeFilename:    "docker-compose.yml",
		projectconfig.KeyNetworkName:        "acme",
		projectconfig.KeyNetworkPort:        "42",
		projectconfig.KeyEnvironment:        "dev",
	} {
		if got := h.store.Get(key); got != want {
			t.Errorf("store %s = %q, want %q", key, got, want)
		}
	}
	creds := h.store.HTTPBasicCredentials()
	if len(creds) != 1 || creds[0].Host != "updates.ez.no" {
		t.Errorf("credentials = %+v", creds)
	}

	var install []string
	for _, c := range h.runner.Calls() {
		args := containertest.ActionArgs(c.Args)
		if slices.Contains(args, "ezsystems/ezplatform-ee") {
			install = args
		}
		if containertest.Action(c.Args) == "exec" && !slices.ContainsFunc(args, func(a string) bool {
			return strings.HasPrefix(a, "COMPOSER_AUTH=")
		}) && slices.Contains(args, "engine") {
			t.Errorf("recipe exec without COMPOSER_AUTH: %v", args)
		}
	}
	if len(install) == 0 || install[len(install)-1] != "studio-clean" || install[len(install)-3] != "2.5.*" {
		t.Errorf("application install args = %v, want studio-clean remap", install)
	}
}

func TestOrchestrator_BuildFailureStops(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.runner.FailAction("build", 1, "failed to solve: process did not complete successfully")

	report, err := h.orch.Run(t.Context(), testAnswers("db", "solr"), DefaultInstallRequest())
	if !errors.Is(err, container.ErrBuildFailed) {
		t.Fatalf("Run() error = %v, want ErrBuildFailed", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.State != StateCleanBuild {
		t.Errorf("StepError = %+v, want state CleanBuild", stepErr)
	}
	if !slices.Equal(report.States, []State{StateScaffolding}) {
		t.Errorf("completed states = %v, want only Scaffolding", report.States)
	}
	if got := h.runner.Commands(); len(got) != 1 || got[0] != "build --no-cache" {
		t.Errorf("commands after failure = %v", got)
	}
	if h.store.Get(projectconfig.KeyNetworkName) != "acme" {
		t.Error("settings from Scaffolding should already be persisted")
	}
}

func TestOrchestrator_ExecutionFailureNamesState(t *testing.T) {
	t.Parallel()

	h := newHarness(t, containertest.Rule{
		Match: func(c containertest.Call) bool {
			return slices.Contains(c.Args, "create_core")
		},
		Result: container.Result{ExitCode: 1, Stderr: "core collection1 already exists"},
	})

	report, err := h.orch.Run(t.Context(), testAnswers("solr"), DefaultInstallRequest())
	if !errors.Is(err, container.ErrExecutionFailed) {
		t.Fatalf("Run() error = %v, want ErrExecutionFailed", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.State != StateSearchIndex {
		t.Fatalf("failed state = %v, want SearchIndex", stepErr)
	}
	if slices.Contains(report.States, StateCleanup) {
		t.Error("Cleanup ran after a failure")
	}
	if !strings.Contains(err.Error(), "SearchIndex") {
		t.Errorf("error does not name the state: %v", err)
	}
}

func TestOrchestrator_CanceledBetweenStates(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	h.orch.Config().Apply(WithObserver(func(s State) {
		if s == StateScaffolding {
			cancel()
		}
	}))

	report, err := h.orch.Run(ctx, testAnswers("db"), DefaultInstallRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.State != StateCleanBuild {
		t.Errorf("StepError = %+v, want state CleanBuild", stepErr)
	}
	if !slices.Equal(report.States, []State{StateScaffolding}) {
		t.Errorf("completed states = %v", report.States)
	}
	if len(h.runner.Calls()) != 0 {
		t.Errorf("engine invoked after cancellation: %v", h.runner.Commands())
	}
}

func TestOrchestrator_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	bad := testAnswers("db")
	bad.NetworkName = ""
	if _, err := h.orch.Run(t.Context(), bad, DefaultInstallRequest()); !errors.Is(err, ErrInvalidAnswers) {
		t.Errorf("Run() error = %v, want ErrInvalidAnswers", err)
	}
	if len(h.runner.Calls()) != 0 {
		t.Error("engine invoked for invalid answers")
	}

	if _, err := New(WithStore(h.store)).Run(t.Context(), testAnswers(), DefaultInstallRequest()); !errors.Is(err, ErrNoRunner) {
		t.Errorf("Run() without runner error = %v, want ErrNoRunner", err)
	}
}

func TestOrchestrator_MalformedPayload(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "dev"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dev", "docker-compose.yml"), []byte("services:\n  a:\n    depends_on: [ghost]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.orch.Config().Apply(WithPayload(os.DirFS(dir)))

	_, err := h.orch.Run(t.Context(), testAnswers(), DefaultInstallRequest())
	if !errors.Is(err, compose.ErrMalformedDescriptor) {
		t.Fatalf("Run() error = %v, want ErrMalformedDescriptor", err)
	}
	if len(h.runner.Calls()) != 0 {
		t.Error("engine invoked for a malformed descriptor")
	}
}

func recipeExec(recipe string, args ...string) string {
	return "exec -T --user www-data engine " + strings.Join(tasks.RecipeCommand(recipe, args...), " ")
}

func hasTarget(svc compose.ServiceDescriptor, target string) bool {
	for _, v := range svc.Volumes {
		if v.Target == target {
			return true
		}
	}
	return false
}

func hasVar(svc compose.ServiceDescriptor, name string) bool {
	for _, e := range svc.Environment {
		if e.Name == name {
			return true
		}
	}
	return false
}
