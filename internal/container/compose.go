// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
)

const (
	actionBuild = "build"
	actionUp    = "up"
	actionExec  = "exec"

	// composeHTTPTimeout is passed as COMPOSE_HTTP_TIMEOUT; image builds of the
	// application service routinely exceed the compose default of 60s.
	composeHTTPTimeout = 200
)

type (
	// ComposeOptions are the fixed facts every compose invocation carries.
	ComposeOptions struct {
		// EngineName is used in diagnostics only.
		EngineName string
		// ComposeFile is the descriptor passed with -f.
		ComposeFile string
		// NetworkName doubles as the compose project name.
		NetworkName string
		// NetworkPort is the base port prefix services derive their published ports from.
		NetworkPort int
		// ProjectPath is the absolute path of the project on the host.
		ProjectPath string
		// ProvisioningFolderName is the folder holding the provisioning payload.
		ProvisioningFolderName string
		// HostMachineMapping is the extra_hosts entry that lets containers reach the host.
		HostMachineMapping string
		// ComposerCacheDir is the host dependency cache mounted into the application service.
		ComposerCacheDir string
	}

	// ExecOptions configure Exec.
	ExecOptions struct {
		// User runs the command as this user inside the container.
		User string
		// Env entries (KEY=VALUE) passed with -e.
		Env []string
		// Stdin feeds the command; its presence does not allocate a TTY.
		Stdin io.Reader
	}

	// ComposeClientOption configures a ComposeClient.
	ComposeClientOption func(*ComposeClient)

	// ComposeClient wraps compose operations with a fixed set of contextual options.
	// It holds no state between calls and never retries.
	ComposeClient struct {
		runner Runner
		opts   ComposeOptions
		logger *log.Logger
		output io.Writer
		uid    int
		gid    int
	}
)

// WithLogger sets the logger used for invocation tracing.
func WithLogger(l *log.Logger) ComposeClientOption {
	return func(c *ComposeClient) {
		c.logger = l
	}
}

// WithOutput streams engine output to w while it is captured.
func WithOutput(w io.Writer) ComposeClientOption {
	return func(c *ComposeClient) {
		c.output = w
	}
}

// WithUser overrides the host uid/gid exported as DEV_UID/DEV_GID.
func WithUser(uid, gid int) ComposeClientOption {
	return func(c *ComposeClient) {
		c.uid, c.gid = uid, gid
	}
}

// NewComposeClient creates a client issuing invocations through runner.
func NewComposeClient(runner Runner, opts ComposeOptions, options ...ComposeClientOption) *ComposeClient {
	if opts.EngineName == "" {
		opts.EngineName = string(EngineTypeDocker)
	}
	c := &ComposeClient{
		runner: runner,
		opts:   opts,
		logger: log.New(io.Discard),
		uid:    os.Getuid(),
		gid:    os.Getgid(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Options returns the contextual options the client was created with.
func (c *ComposeClient) Options() ComposeOptions {
	return c.opts
}

// Build builds the service images. Failures unwrap to ErrBuildFailed.
func (c *ComposeClient) Build(ctx context.Context, flags ...string) error {
	_, err := c.invoke(ctx, ErrBuildFailed, actionBuild, "", flags, nil, true)
	return err
}

// Up brings the services to running state. Failures unwrap to ErrStartupFailed.
func (c *ComposeClient) Up(ctx context.Context, flags ...string) error {
	_, err := c.invoke(ctx, ErrStartupFailed, actionUp, "", flags, nil, true)
	return err
}

// Exec runs command inside the running container of service. Failures unwrap to
// ErrExecutionFailed and carry the captured output.
func (c *ComposeClient) Exec(ctx context.Context, service string, command []string, opts ExecOptions) (*Result, error) {
	flags := []string{"-T"}
	if opts.User != "" {
		flags = append(flags, "--user", opts.User)
	}
	for _, kv := range opts.Env {
		flags = append(flags, "-e", kv)
	}
	flags = append(flags, service)
	flags = append(flags, command...)
	return c.invoke(ctx, ErrExecutionFailed, actionExec, service, flags, opts.Stdin, false)
}

// Environment returns the variables exported to every compose invocation.
// The payload descriptor interpolates them.
func (c *ComposeClient) Environment() []string {
	return []string{
		"PROJECTNETWORKNAME=" + c.opts.NetworkName,
		"PROJECTPORTPREFIX=" + strconv.Itoa(c.opts.NetworkPort),
		"PROJECTCOMPOSEPATH=" + c.opts.ProjectPath,
		"PROVISIONINGFOLDERNAME=" + c.opts.ProvisioningFolderName,
		"HOST_COMPOSER_CACHE_DIR=" + c.opts.ComposerCacheDir,
		"HOST_MACHINE_MAPPING=" + c.opts.HostMachineMapping,
		"DEV_UID=" + strconv.Itoa(c.uid),
		"DEV_GID=" + strconv.Itoa(c.gid),
		"COMPOSE_HTTP_TIMEOUT=" + strconv.Itoa(composeHTTPTimeout),
	}
}

func (c *ComposeClient) args(action string, flags ...string) []string {
	args := []string{"compose", "-p", c.opts.NetworkName, "-f", c.opts.ComposeFile, action}
	return append(args, flags...)
}

// invoke runs one invocation. stream controls whether output is mirrored to the
// configured writer; exec output is only captured.
func (c *ComposeClient) invoke(ctx context.Context, kind error, action, service string, flags []string, stdin io.Reader, stream bool) (*Result, error) {
	args := c.args(action, flags...)
	inv := Invocation{
		Args:  args,
		Env:   c.Environment(),
		Dir:   c.opts.ProjectPath,
		Stdin: stdin,
	}
	if stream {
		inv.Output = c.output
	}

	c.logger.Debug("invoking engine", "cmd", QuoteArgs(RedactArgs(append([]string{c.opts.EngineName}, args...))))

	res, err := c.runner.Run(ctx, inv)
	if err == nil && res.Succeeded() {
		return res, nil
	}

	cmdErr := &CommandError{
		Engine:  c.opts.EngineName,
		Action:  action,
		Service: service,
		Args:    args,
		Cause:   err,
		kind:    kind,
	}
	if res != nil {
		cmdErr.ExitCode = res.ExitCode
		cmdErr.Stdout = res.Stdout
		cmdErr.Stderr = res.Stderr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		cmdErr.Cause = ctxErr
		if err != nil {
			cmdErr.Cause = fmt.Errorf("%w: %w", ctxErr, err)
		}
	}
	c.logger.Debug("engine invocation failed", "action", cmdErr.Action, "exit", cmdErr.ExitCode)
	return res, actionableComposeError(c.opts.ComposeFile, cmdErr)
}
