// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/launchpad/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the launchpad command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "launchpad",
		Short: "Provision containerized development stacks",
		Long: TitleStyle.Render("launchpad") + SubtitleStyle.Render(" - Provision containerized development stacks") + `

launchpad scaffolds a provisioning folder from its payload, builds and starts
the selected services with docker or podman compose, and installs the
application inside the running stack.

` + SubtitleStyle.Render("Examples:") + `
  launchpad initialize                           Provision with defaults
  launchpad init ezsystems/ezplatform-ee 2.5.*   Install a specific distribution
  launchpad services                             List the payload services
  launchpad config show                          Show current configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/launchpad/config.cue)")

	rootCmd.AddCommand(newInitializeCommand(app, flags))
	rootCmd.AddCommand(newServicesCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newCredentialsCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the command tree and exits with the resulting code.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

// loadConfig loads the launchpad configuration honoring --config. The
// --verbose flag wins over ui.verbose only when it is set.
func loadConfig(ctx context.Context, app *App, flags *rootFlags) (*config.Config, bool, error) {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, flags.verbose, err
	}
	return cfg, flags.verbose || cfg.UI.Verbose, nil
}

// renderAndExit renders err with its issue help and wraps it in an *ExitError
// carrying code.
func renderAndExit(cmd *cobra.Command, app *App, err error, code int, verbose bool, style string) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	renderError(app.stderr, err, verbose, style)
	return &ExitError{Code: code, Err: err}
}
