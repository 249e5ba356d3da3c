// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/launchpad/internal/container"
	"github.com/invowk/launchpad/internal/projectconfig"
)

const (
	// AppService runs the PHP application and every recipe.
	AppService = "engine"
	// SearchService is the optional Solr service.
	SearchService = "solr"

	appUser    = "www-data"
	searchUser = "solr"

	// InitialDataClean is the installer's default dataset.
	InitialDataClean = "clean"
	// InitialDataStudioClean is the dataset the enterprise distribution needs
	// in place of InitialDataClean.
	InitialDataStudioClean = "studio-clean"

	searchCoreName     = "collection1"
	searchCoreTemplate = "/ezsolr/server/ez/template"

	// recipeLoader reads the whole recipe from stdin before running it, so
	// commands inside the recipe see an exhausted stdin instead of the
	// remaining script. $0 is the recipe name.
	recipeLoader = `exec bash -c "$(cat)" "$0" "$@"`
)

var (
	// ErrRecipeNotFound is returned when a required recipe is not available.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrInvalidRecipe is returned when a recipe does not parse as bash.
	ErrInvalidRecipe = errors.New("invalid recipe")
)

type (
	// Exec runs a command inside a service. *container.ComposeClient satisfies it.
	Exec interface {
		Exec(ctx context.Context, service string, command []string, opts container.ExecOptions) (*container.Result, error)
	}

	// CredentialSource provides the HTTP basic credentials forwarded to composer.
	CredentialSource interface {
		HTTPBasicCredentials() []projectconfig.Credential
	}

	// Context is the set of facts one run of the executor needs.
	Context struct {
		Client Exec
		Store  CredentialSource
		// Recipes lists the recipes this run requires. Empty means DefaultRecipes.
		Recipes []string
		// ProvisioningFolder is the project-relative folder holding the payload.
		ProvisioningFolder string
		// RecipeFS overrides the embedded recipes.
		RecipeFS fs.FS
		Logger   *log.Logger
	}

	// Executor runs provisioning recipes against a running deployment.
	Executor struct {
		tc      Context
		recipes map[string][]byte
		logger  *log.Logger
	}
)

// NewExecutor loads and validates every recipe tc requires.
func NewExecutor(tc Context) (*Executor, error) {
	if tc.Client == nil {
		return nil, errors.New("tasks: nil client")
	}
	names := tc.Recipes
	if len(names) == 0 {
		names = DefaultRecipes()
	}
	fsys := tc.RecipeFS
	if fsys == nil {
		fsys = EmbeddedRecipes()
	}

	recipes, err := loadRecipes(fsys, names)
	if err != nil {
		return nil, err
	}

	logger := tc.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Executor{tc: tc, recipes: recipes, logger: logger}, nil
}

// ComposerInstall installs composer and the application dependencies. It is
// safe to run more than once.
func (e *Executor) ComposerInstall(ctx context.Context) error {
	return e.runRecipe(ctx, RecipeComposerInstall)
}

// ApplicationInstall creates the application from repository at version and
// runs the installer with initialData.
func (e *Executor) ApplicationInstall(ctx context.Context, version, repository, initialData string) error {
	data := ResolveInitialData(repository, initialData)
	if data != initialData {
		e.logger.Debug("remapped initial data", "repository", repository, "from", initialData, "to", data)
	}
	return e.runRecipe(ctx, RecipeAppInstall, version, repository, data)
}

// InstallSearchEngine adds the Solr search engine bundle to the application.
func (e *Executor) InstallSearchEngine(ctx context.Context) error {
	return e.runRecipe(ctx, RecipeSearchInstall, e.tc.ProvisioningFolder)
}

// CreateSearchCore creates the Solr core the application indexes into.
func (e *Executor) CreateSearchCore(ctx context.Context) error {
	e.logger.Info("creating search core", "core", searchCoreName)
	_, err := e.tc.Client.Exec(ctx, SearchService,
		[]string{"/opt/solr/bin/solr", "create_core", "-c", searchCoreName, "-d", searchCoreTemplate},
		container.ExecOptions{User: searchUser})
	return err
}

// IndexSearchEngine clears the application cache and reindexes all content.
func (e *Executor) IndexSearchEngine(ctx context.Context) error {
	return e.runRecipe(ctx, RecipeSearchIndex)
}

// ResolveInitialData returns the dataset to install. The enterprise
// distribution has no default database selection for the clean dataset, so
// "clean" becomes "studio-clean" for it.
func ResolveInitialData(repository, initialData string) string {
	if initialData == InitialDataClean && strings.Contains(repository, "ezplatform-ee") {
		return InitialDataStudioClean
	}
	return initialData
}

func (e *Executor) runRecipe(ctx context.Context, name string, args ...string) error {
	script, ok := e.recipes[name]
	if !ok {
		return fmt.Errorf("%w: %s was not loaded", ErrRecipeNotFound, name)
	}

	env, err := e.composerAuth()
	if err != nil {
		return err
	}

	e.logger.Info("running recipe", "recipe", name, "args", args)
	_, err = e.tc.Client.Exec(ctx, AppService, RecipeCommand(name, args...), container.ExecOptions{
		User:  appUser,
		Env:   env,
		Stdin: bytes.NewReader(script),
	})
	if err != nil {
		return fmt.Errorf("recipe %s: %w", name, err)
	}
	return nil
}

// RecipeCommand returns the command that runs the recipe streamed on stdin
// with args as its positional parameters.
func RecipeCommand(name string, args ...string) []string {
	return append([]string{"bash", "-c", recipeLoader, name}, args...)
}

type httpBasicAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// composerAuth renders COMPOSER_AUTH from the stored credentials.
func (e *Executor) composerAuth() ([]string, error) {
	if e.tc.Store == nil {
		return nil, nil
	}
	creds := e.tc.Store.HTTPBasicCredentials()
	if len(creds) == 0 {
		return nil, nil
	}

	basic := make(map[string]httpBasicAuth, len(creds))
	for _, c := range creds {
		if c.Host == "" {
			continue
		}
		basic[c.Host] = httpBasicAuth{Username: c.Login, Password: c.Password}
	}
	data, err := json.Marshal(map[string]any{"http-basic": basic})
	if err != nil {
		return nil, fmt.Errorf("encode COMPOSER_AUTH: %w", err)
	}
	return []string{"COMPOSER_AUTH=" + string(data)}, nil
}
