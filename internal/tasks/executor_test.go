// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"encoding/json"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/invowk/launchpad/internal/container"
	"github.com/invowk/launchpad/internal/container/containertest"
	"github.com/invowk/launchpad/internal/projectconfig"
)

type staticCredentials []projectconfig.Credential

func (s staticCredentials) HTTPBasicCredentials() []projectconfig.Credential { return s }

func newTestExecutor(t *testing.T, runner *containertest.FakeRunner, store CredentialSource) *Executor {
	t.Helper()
	client := container.NewComposeClient(runner, container.ComposeOptions{
		EngineName:  "docker",
		ComposeFile: "/work/acme/provisioning/dev/docker-compose.yml",
		NetworkName: "acme",
		NetworkPort: 42,
		ProjectPath: "/work/acme",
	})
	executor, err := NewExecutor(Context{Client: client, Store: store, ProvisioningFolder: "provisioning"})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	return executor
}

// appExec is the summarized exec of a recipe in the application service.
func appExec(recipe string, args ...string) string {
	return "exec -T --user www-data engine " + strings.Join(RecipeCommand(recipe, args...), " ")
}

func TestRecipeCommand_ChildrenDoNotReadScript(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}

	// cat would swallow the rest of a script streamed with "bash -s".
	script := "cat\necho after \"$0\" \"$1\"\n"
	argv := RecipeCommand(RecipeComposerInstall, "arg1")
	cmd := exec.CommandContext(t.Context(), argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(script)
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("run recipe: %v", err)
	}
	if got := string(out); got != "after composer_install arg1\n" {
		t.Errorf("output = %q, want the echo to run after cat", got)
	}
}

func TestResolveInitialData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		repository, initialData, want string
	}{
		{"ezsystems/ezplatform-ee", "clean", "studio-clean"},
		{"vendor/ezplatform-ee-something", "clean", "studio-clean"},
		{"ezsystems/ezplatform", "clean", "clean"},
		{"ezsystems/ezplatform-ee", "demo", "demo"},
		{"ezsystems/ezplatform-ee-demo", "studio-clean", "studio-clean"},
	}
	for _, tt := range tests {
		t.Run(tt.repository+"/"+tt.initialData, func(t *testing.T) {
			t.Parallel()
			if got := ResolveInitialData(tt.repository, tt.initialData); got != tt.want {
				t.Errorf("ResolveInitialData(%q, %q) = %q, want %q", tt.repository, tt.initialData, got, tt.want)
			}
		})
	}
}

func TestExecutor_ApplicationInstallRemapsStudio(t *testing.T) {
	t.Parallel()

	runner := containertest.NewFakeRunner()
	executor := newTestExecutor(t, runner, nil)

	if err := executor.ApplicationInstall(t.Context(), "2.*", "vendor/ezplatform-ee-something", "clean"); err != nil {
		t.Fatalf("ApplicationInstall() error = %v", err)
	}

	call := runner.Calls()[0]
	want := append([]string{"exec", "-T", "--user", "www-data", "engine"}, RecipeCommand(RecipeAppInstall, "2.*", "vendor/ezplatform-ee-something", "studio-clean")...)
	if got := containertest.ActionArgs(call.Args); !slices.Equal(got, want) {
		t.Errorf("exec args = %v, want %v", got, want)
	}
	if !strings.Contains(call.StdinData, "ezplatform:install") {
		t.Errorf("app_install recipe was not streamed on stdin: %q", call.StdinData)
	}
}

func TestExecutor_ComposerAuth(t *testing.T) {
	t.Parallel()

	runner := containertest.NewFakeRunner()
	executor := newTestExecutor(t, runner, staticCredentials{
		{Name: "ez", Host: "updates.ez.no", Login: "user", Password: "secret"},
		{Name: "broken", Login: "nohost"},
	})

	if err := executor.ComposerInstall(t.Context()); err != nil {
		t.Fatalf("ComposerInstall() error = %v", err)
	}

	args := containertest.ActionArgs(runner.Calls()[0].Args)
	i := slices.Index(args, "-e")
	if i < 0 || !strings.HasPrefix(args[i+1], "COMPOSER_AUTH=") {
		t.Fatalf("exec args lack COMPOSER_AUTH: %v", args)
	}

	var auth struct {
		HTTPBasic map[string]struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"http-basic"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(args[i+1], "COMPOSER_AUTH=")), &auth); err != nil {
		t.Fatalf("COMPOSER_AUTH is not JSON: %v", err)
	}
	if len(auth.HTTPBasic) != 1 || auth.HTTPBasic["updates.ez.no"].Password != "secret" {
		t.Errorf("COMPOSER_AUTH = %+v", auth)
	}
}

func TestExecutor_SearchSteps(t *testing.T) {
	t.Parallel()

	runner := containertest.NewFakeRunner()
	executor := newTestExecutor(t, runner, nil)

	if err := executor.InstallSearchEngine(t.Context()); err != nil {
		t.Fatalf("InstallSearchEngine() error = %v", err)
	}
	if err := executor.CreateSearchCore(t.Context()); err != nil {
		t.Fatalf("CreateSearchCore() error = %v", err)
	}
	if err := executor.IndexSearchEngine(t.Context()); err != nil {
		t.Fatalf("IndexSearchEngine() error = %v", err)
	}

	cmds := runner.Commands()
	want := []string{
		appExec(RecipeSearchInstall, "provisioning"),
		"exec -T --user solr solr /opt/solr/bin/solr create_core -c collection1 -d /ezsolr/server/ez/template",
		appExec(RecipeSearchIndex),
	}
	if !slices.Equal(cmds, want) {
		t.Errorf("commands = %q, want %q", cmds, want)
	}
	if !strings.Contains(runner.Calls()[2].StdinData, "ezplatform:reindex") {
		t.Error("search_index recipe was not streamed")
	}
}

func TestExecutor_FailureCarriesExecutionFailed(t *testing.T) {
	t.Parallel()

	runner := containertest.NewFakeRunner().FailAction("exec", 1, "Your requirements could not be resolved")
	executor := newTestExecutor(t, runner, nil)

	err := executor.ComposerInstall(t.Context())
	if !errors.Is(err, container.ErrExecutionFailed) {
		t.Fatalf("ComposerInstall() error = %v, want ErrExecutionFailed", err)
	}
	if !strings.Contains(err.Error(), "composer_install") {
		t.Errorf("error does not name the recipe: %v", err)
	}
}

func TestNewExecutor_RecipeValidation(t *testing.T) {
	t.Parallel()

	client := container.NewComposeClient(containertest.NewFakeRunner(), container.ComposeOptions{})

	tests := []struct {
		name string
		fsys fstest.MapFS
		want error
	}{
		{"missing", fstest.MapFS{}, ErrRecipeNotFound},
		{"unparsable", fstest.MapFS{"composer_install.bash": {Data: []byte("echo 'unterminated\n")}}, ErrInvalidRecipe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewExecutor(Context{Client: client, Recipes: []string{RecipeComposerInstall}, RecipeFS: tt.fsys})
			if !errors.Is(err, tt.want) {
				t.Errorf("NewExecutor() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExecutor_UnloadedRecipe(t *testing.T) {
	t.Parallel()

	client := container.NewComposeClient(containertest.NewFakeRunner(), container.ComposeOptions{})
	executor, err := NewExecutor(Context{Client: client, Recipes: []string{RecipeComposerInstall}})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	if err := executor.IndexSearchEngine(t.Context()); !errors.Is(err, ErrRecipeNotFound) {
		t.Errorf("IndexSearchEngine() error = %v, want ErrRecipeNotFound", err)
	}
}

func TestEmbeddedRecipesParse(t *testing.T) {
	t.Parallel()

	if _, err := loadRecipes(EmbeddedRecipes(), DefaultRecipes()); err != nil {
		t.Fatalf("embedded recipes: %v", err)
	}
}
