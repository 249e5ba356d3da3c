// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/invowk/launchpad/internal/compose"
	"github.com/invowk/launchpad/internal/config"
	"github.com/invowk/launchpad/internal/container"
	"github.com/invowk/launchpad/internal/issue"
	"github.com/invowk/launchpad/internal/projectconfig"
	"github.com/invowk/launchpad/internal/provision"
	"github.com/invowk/launchpad/internal/scaffold"
)

// issueFor maps a failure to its issue catalog entry. Zero means none.
func issueFor(err error) issue.Id {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, container.ErrNoEngineAvailable):
		return issue.ContainerEngineNotFoundId
	case errors.Is(err, compose.ErrMalformedDescriptor):
		return issue.DescriptorMalformedId
	case errors.Is(err, container.ErrBuildFailed):
		return issue.BuildFailedId
	case errors.Is(err, container.ErrStartupFailed):
		return issue.StartupFailedId
	case errors.Is(err, container.ErrExecutionFailed):
		return issue.ExecutionFailedId
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId
	case errors.Is(err, scaffold.ErrFilesystem):
		return issue.ScaffoldingFailedId
	case errors.Is(err, provision.ErrInvalidAnswers):
		return issue.InvalidAnswersId
	case errors.Is(err, config.ErrLoadFailed):
		return issue.ConfigLoadFailedId
	case errors.Is(err, projectconfig.ErrUnreadable):
		return issue.ProjectConfigFailedId
	default:
		return 0
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderError writes the error and, when one matches, the rendered issue
// catalog entry.
func renderError(w io.Writer, err error, verbose bool, style string) {
	_, _ = fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var cmdErr *container.CommandError
	if verbose && errors.As(err, &cmdErr) {
		if out := strings.TrimSpace(cmdErr.Stderr); out != "" {
			_, _ = fmt.Fprintln(w)
			_, _ = fmt.Fprintln(w, SubtitleStyle.Render("engine output:"))
			_, _ = fmt.Fprintln(w, out)
		}
	}

	id := issueFor(err)
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(style)
	if renderErr != nil {
		_, _ = fmt.Fprintln(w, WarningStyle.Render("warning: ")+"cannot render help: "+renderErr.Error())
		return
	}
	_, _ = fmt.Fprint(w, rendered)
}

// renderReport writes the status report of a run. A failed run still lists
// the states it completed.
func renderReport(w io.Writer, report *provision.Report, failed error) {
	if report == nil {
		return
	}

	var stepErr *provision.StepError
	title := SuccessStyle.Render("✓") + " " + TitleStyle.Render("Project provisioned")
	if errors.As(failed, &stepErr) {
		title = ErrorStyle.Render("✗") + " " + TitleStyle.Render("Provisioning stopped in "+stepErr.State.String())
	}

	rows := []string{
		title,
		"",
		reportRow("Run", report.RunID),
		reportRow("Network", report.NetworkName+" (port prefix "+strconv.Itoa(report.NetworkPort)+")"),
		reportRow("Provisioning", report.ProvisioningDir),
		reportRow("Compose file", report.ComposeFile),
	}
	if len(report.Services) > 0 {
		rows = append(rows, reportRow("Services", strings.Join(report.Services, ", ")))
	}
	if len(report.RemovedServices) > 0 {
		rows = append(rows, reportRow("Not selected", strings.Join(report.RemovedServices, ", ")))
	}
	if len(report.PrunedDirs) > 0 {
		rows = append(rows, reportRow("Pruned", strings.Join(report.PrunedDirs, ", ")))
	}

	states := make([]string, 0, len(report.States))
	for _, s := range report.States {
		states = append(states, s.String())
	}
	rows = append(rows, reportRow("Completed", strings.Join(states, " → ")))

	_, _ = fmt.Fprintln(w, reportBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func reportRow(label, value string) string {
	if value == "" {
		value = SubtitleStyle.Render("-")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, reportLabelStyle.Render(label), value)
}
