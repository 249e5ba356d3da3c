// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/launchpad/internal/config"
)

// newConfigCommand creates the `launchpad config` command tree.
func newConfigCommand(app *App, root *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage launchpad configuration",
		Long: `Manage launchpad configuration.

Configuration is stored in:
  - Linux: ~/.config/launchpad/config.cue
  - macOS: ~/Library/Application Support/launchpad/config.cue
  - Windows: %APPDATA%\launchpad\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, root)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd.OutOrStdout(), root)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := configFilePath(root)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value.\n\nValid keys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), cmd.OutOrStdout(), app, root, args[0], args[1])
		},
	})

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd.Context(), app, root)
			if err != nil {
				return err
			}
			return dumpConfig(cmd.OutOrStdout(), cfg, format)
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "cue", "output format (cue or toml)")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func configFilePath(root *rootFlags) (string, error) {
	if root.configPath != "" {
		return root.configPath, nil
	}
	return config.FilePath("")
}

func showConfig(cmd *cobra.Command, app *App, root *rootFlags) error {
	cfg, verbose, err := loadConfig(cmd.Context(), app, root)
	if err != nil {
		return renderAndExit(cmd, app, err, ExitProvisioning, verbose, string(config.ColorSchemeAuto))
	}

	cfgPath, err := configFilePath(root)
	if err != nil || !fileExistsCheck(cfgPath) {
		cfgPath = ""
	}

	out := cmd.OutOrStdout()
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	_, _ = fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	_, _ = fmt.Fprintln(out)
	if cfgPath == "" {
		cfgPath = SubtitleStyle.Render("(using defaults)")
	}
	_, _ = fmt.Fprintf(out, "%s: %s\n\n", keyStyle.Render("Config file"), cfgPath)

	payloadDir := cfg.PayloadDir
	if payloadDir == "" {
		payloadDir = SubtitleStyle.Render("(embedded)")
	}
	_, _ = fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("container_engine"), valueStyle.Render(string(cfg.ContainerEngine)))
	_, _ = fmt.Fprintf(out, "%s: %s\n", keyStyle.Render("payload_dir"), payloadDir)

	_, _ = fmt.Fprintf(out, "\n%s:\n", keyStyle.Render("ui"))
	_, _ = fmt.Fprintf(out, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	_, _ = fmt.Fprintf(out, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	_, _ = fmt.Fprintf(out, "\n%s:\n", keyStyle.Render("defaults"))
	_, _ = fmt.Fprintf(out, "  network_port: %s\n", valueStyle.Render(fmt.Sprintf("%d", cfg.Defaults.NetworkPort)))
	_, _ = fmt.Fprintf(out, "  provisioning_folder: %s\n", valueStyle.Render(cfg.Defaults.ProvisioningFolder))
	_, _ = fmt.Fprintf(out, "  compose_filename: %s\n", valueStyle.Render(cfg.Defaults.ComposeFilename))

	return nil
}

func initConfig(out io.Writer, root *rootFlags) error {
	var (
		cfgPath string
		err     error
	)
	if root.configPath != "" {
		cfgPath = root.configPath
		if !fileExistsCheck(cfgPath) {
			err = config.Save(config.DefaultConfig(), cfgPath)
		}
	} else {
		cfgPath, err = config.CreateDefaultConfig("")
	}
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "%s Configuration at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

func setConfigValue(ctx context.Context, out io.Writer, app *App, root *rootFlags, key, value string) error {
	cfg, _, err := loadConfig(ctx, app, root)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return fmt.Errorf("%w\nValid keys: %s", err, strings.Join(config.Keys(), ", "))
	}

	cfgPath, err := configFilePath(root)
	if err != nil {
		return err
	}
	if err := config.Save(cfg, cfgPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}

func dumpConfig(out io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "cue":
		_, _ = fmt.Fprint(out, config.GenerateCUE(cfg))
	case "toml":
		content, err := config.GenerateTOML(cfg)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, content)
	default:
		return fmt.Errorf("unknown format %q (valid: cue, toml)", format)
	}
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
