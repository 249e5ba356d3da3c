// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/launchpad/internal/projectconfig"
)

type credentialsFlags struct {
	projectPath string
	global      bool
}

// newCredentialsCommand creates the `launchpad credentials` command tree.
func newCredentialsCommand(app *App, root *rootFlags) *cobra.Command {
	flags := &credentialsFlags{}

	credCmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage composer HTTP basic credentials",
		Long: `Manage the HTTP basic credentials handed to composer for private repositories.

Credentials are stored in the project's ` + projectconfig.FileName + ` file, or with
--global in the one of your home directory. Project entries shadow global
entries of the same name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	credCmd.PersistentFlags().StringVar(&flags.projectPath, "project", "", "project root (default is the current directory)")

	setCmd := &cobra.Command{
		Use:   "set <name> <host> <login> <password>",
		Short: "Store a credential",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCredentialStore(cmd, app, root, flags)
			if err != nil {
				return err
			}
			cred := projectconfig.Credential{Name: args[0], Host: args[1], Login: args[2], Password: args[3]}
			if err := store.SetCredential(cred, flags.global); err != nil {
				return err
			}

			target := store.LocalPath()
			if flags.global {
				target = store.GlobalPath()
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s Stored %s in %s\n", SuccessStyle.Render("✓"), cred.Name, target)
			return nil
		},
	}
	setCmd.Flags().BoolVar(&flags.global, "global", false, "store in the user file instead of the project")
	credCmd.AddCommand(setCmd)

	credCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the credentials visible to the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCredentialStore(cmd, app, root, flags)
			if err != nil {
				return err
			}
			return listCredentials(cmd, store.HTTPBasicCredentials())
		},
	})

	return credCmd
}

func openCredentialStore(cmd *cobra.Command, app *App, root *rootFlags, flags *credentialsFlags) (*projectconfig.Store, error) {
	cfg, verbose, err := loadConfig(cmd.Context(), app, root)
	if err != nil {
		return nil, renderAndExit(cmd, app, err, ExitProvisioning, verbose, "auto")
	}
	projectPath, err := resolveProjectPath(flags.projectPath)
	if err != nil {
		return nil, err
	}
	store, err := projectconfig.Open(projectPath)
	if err != nil {
		return nil, renderAndExit(cmd, app, err, ExitProvisioning, verbose, string(cfg.UI.ColorScheme))
	}
	return store, nil
}

// listCredentials prints one line per credential with the password masked.
func listCredentials(cmd *cobra.Command, creds []projectconfig.Credential) error {
	out := cmd.OutOrStdout()
	if len(creds) == 0 {
		_, _ = fmt.Fprintln(out, SubtitleStyle.Render("No credentials stored"))
		return nil
	}

	nameStyle := CmdStyle.Width(14)
	_, _ = fmt.Fprintln(out, TitleStyle.Render("HTTP basic credentials"))
	_, _ = fmt.Fprintln(out)
	for _, c := range creds {
		_, _ = fmt.Fprintf(out, "  %s %s %s ***\n", nameStyle.Render(c.Name), c.Host, c.Login)
	}
	return nil
}
