// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/invowk/launchpad/internal/config"
	"github.com/invowk/launchpad/internal/provision"
)

// errInvalidHTTPBasic is returned for a malformed --http-basic value.
var errInvalidHTTPBasic = errors.New("invalid --http-basic value")

// initializeFlags holds the answer flags of `launchpad initialize`.
type initializeFlags struct {
	projectPath        string
	answersFile        string
	networkName        string
	networkPort        int
	services           []string
	provisioningFolder string
	composeFile        string
	httpBasic          []string
}

func newInitializeCommand(app *App, root *rootFlags) *cobra.Command {
	flags := &initializeFlags{}

	cmd := &cobra.Command{
		Use:     "initialize [repository] [version] [initialdata]",
		Aliases: []string{"init", "docker:initialize", "docker:init"},
		Short:   "Initialize the project and all the services",
		Long: `Initialize the project and all the services.

The payload is scaffolded into <project>/<provisioning-folder>/dev, the stack is
built and started, the application is installed with composer and, when the
search service is selected, the search engine is configured and indexed.

Answers come from flags or from a YAML file given with --answers:

  network_name: myproject
  network_port: 42
  services: [solr, redis]
  provisioning_folder: provisioning
  compose_filename: docker-compose.yml
  http_basic:
    updates:
      host: updates.ez.no
      login: user
      password: secret`,
		Example: `  launchpad initialize
  launchpad init ezsystems/ezplatform-ee 2.5.* clean --services solr,varnish
  launchpad init --http-basic ee=updates.ez.no,user,secret`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitialize(cmd, app, root, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.projectPath, "project", "", "project root (default is the current directory)")
	cmd.Flags().StringVar(&flags.answersFile, "answers", "", "read the answers from a YAML file")
	cmd.Flags().StringVar(&flags.networkName, "network-name", "", "compose project and network name (default is derived from the project directory)")
	cmd.Flags().IntVar(&flags.networkPort, "network-port", 0, "host port prefix of the stack (default from config, 42)")
	cmd.Flags().StringSliceVar(&flags.services, "services", nil, "optional services to add to the required ones")
	cmd.Flags().StringVar(&flags.provisioningFolder, "provisioning-folder", "", "provisioning folder name (default from config, provisioning)")
	cmd.Flags().StringVar(&flags.composeFile, "compose-file", "", "compose file name (default from config, docker-compose.yml)")
	cmd.Flags().StringArrayVar(&flags.httpBasic, "http-basic", nil, "composer credential as name=host,user,password (repeatable)")

	return cmd
}

func runInitialize(cmd *cobra.Command, app *App, root *rootFlags, flags *initializeFlags, args []string) error {
	ctx := cmd.Context()

	cfg, verbose, err := loadConfig(ctx, app, root)
	if err != nil {
		return renderAndExit(cmd, app, err, ExitProvisioning, verbose, string(config.ColorSchemeAuto))
	}
	style := string(cfg.UI.ColorScheme)

	projectPath, err := resolveProjectPath(flags.projectPath)
	if err != nil {
		return err
	}

	answers, err := buildAnswers(cmd, flags, cfg, projectPath)
	if err != nil {
		return renderAndExit(cmd, app, err, ExitUsage, verbose, style)
	}

	report, err := app.Provisioner.Provision(ctx, ProvisionRequest{
		ProjectPath: projectPath,
		Answers:     answers,
		Install:     installRequest(args),
		Config:      cfg,
		Verbose:     verbose,
	})
	renderReport(app.stdout, report, err)
	if err != nil {
		return renderAndExit(cmd, app, err, ExitProvisioning, verbose, style)
	}
	return nil
}

// installRequest maps the positional arguments onto an InstallRequest.
func installRequest(args []string) provision.InstallRequest {
	var req provision.InstallRequest
	if len(args) > 0 {
		req.Repository = args[0]
	}
	if len(args) > 1 {
		req.Version = args[1]
	}
	if len(args) > 2 {
		req.InitialData = args[2]
	}
	return req.WithDefaults()
}

func resolveProjectPath(path string) (string, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve project path: %w", err)
	}
	return abs, nil
}

// buildAnswers assembles the answer record. An answers file is the base when
// given; otherwise configured defaults are. Explicitly set flags override both.
func buildAnswers(cmd *cobra.Command, flags *initializeFlags, cfg *config.Config, projectPath string) (provision.Answers, error) {
	answers := provision.Answers{
		NetworkPort:        cfg.Defaults.NetworkPort,
		ProvisioningFolder: cfg.Defaults.ProvisioningFolder,
		ComposeFilename:    cfg.Defaults.ComposeFilename,
	}
	if flags.answersFile != "" {
		loaded, err := provision.LoadAnswers(flags.answersFile)
		if err != nil {
			return provision.Answers{}, err
		}
		answers = loaded
	}

	changed := cmd.Flags().Changed
	if changed("network-name") {
		answers.NetworkName = flags.networkName
	}
	if changed("network-port") {
		answers.NetworkPort = flags.networkPort
	}
	if changed("services") {
		answers.Services = flags.services
	}
	if changed("provisioning-folder") {
		answers.ProvisioningFolder = flags.provisioningFolder
	}
	if changed("compose-file") {
		answers.ComposeFilename = flags.composeFile
	}
	for _, raw := range flags.httpBasic {
		name, basic, err := parseHTTPBasic(raw)
		if err != nil {
			return provision.Answers{}, err
		}
		if answers.HTTPBasics == nil {
			answers.HTTPBasics = make(map[string]provision.HTTPBasic)
		}
		answers.HTTPBasics[name] = basic
	}

	if answers.NetworkName == "" {
		answers.NetworkName = defaultNetworkName(projectPath)
	}
	return answers, answers.Validate()
}

// parseHTTPBasic parses name=host,user,password. The password may contain commas.
func parseHTTPBasic(raw string) (string, provision.HTTPBasic, error) {
	name, rest, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", provision.HTTPBasic{}, fmt.Errorf("%w %q: expected name=host,user,password", errInvalidHTTPBasic, raw)
	}
	parts := strings.SplitN(rest, ",", 3)
	if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
		return "", provision.HTTPBasic{}, fmt.Errorf("%w %q: expected name=host,user,password", errInvalidHTTPBasic, raw)
	}
	return name, provision.HTTPBasic{
		Host:     strings.TrimSpace(parts[0]),
		Login:    parts[1],
		Password: parts[2],
	}, nil
}

// defaultNetworkName derives a compose project name from the project
// directory: lower case letters and digits only.
func defaultNetworkName(projectPath string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(filepath.Base(projectPath)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "launchpad"
	}
	return b.String()
}
