// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/spf13/cobra"

	"github.com/invowk/launchpad/internal/compose"
	"github.com/invowk/launchpad/internal/payload"
)

func newServicesCommand(app *App, root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the services of the provisioning payload",
		Long: `List the services described by the provisioning payload.

Services are listed in start order. Required services are always
provisioned; the others can be selected with 'launchpad initialize --services'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, verbose, err := loadConfig(cmd.Context(), app, root)
			if err != nil {
				return renderAndExit(cmd, app, err, ExitProvisioning, verbose, "auto")
			}
			desc, err := loadPayloadDescriptor(cfg.PayloadDir)
			if err != nil {
				return renderAndExit(cmd, app, err, ExitProvisioning, verbose, string(cfg.UI.ColorScheme))
			}
			return listServices(cmd, desc)
		},
	}
}

func loadPayloadDescriptor(dir string) (*compose.Descriptor, error) {
	data, err := fs.ReadFile(payload.Open(dir), payload.ComposeFile)
	if err != nil {
		return nil, fmt.Errorf("read payload descriptor: %w", err)
	}
	source := payload.ComposeFile
	if dir != "" {
		source = path.Join(dir, payload.ComposeFile)
	}
	return compose.Parse(data, source)
}

// listServices prints the services in start order.
func listServices(cmd *cobra.Command, desc *compose.Descriptor) error {
	order, err := desc.StartOrder()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	nameStyle := CmdStyle.Width(14)

	_, _ = fmt.Fprintln(out, TitleStyle.Render("Payload services"))
	_, _ = fmt.Fprintln(out)
	for _, name := range order {
		marker := SubtitleStyle.Render("optional")
		if desc.IsRequired(name) {
			marker = SuccessStyle.Render("required")
		}
		_, _ = fmt.Fprintf(out, "  %s %s\n", nameStyle.Render(name), marker)
	}
	return nil
}
