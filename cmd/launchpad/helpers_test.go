// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/invowk/launchpad/internal/config"
	"github.com/invowk/launchpad/internal/provision"
)

type (
	fakeConfigProvider struct {
		cfg *config.Config
		err error
	}

	fakeProvisioner struct {
		mu       sync.Mutex
		requests []ProvisionRequest
		report   *provision.Report
		err      error
	}

	testHarness struct {
		app         *App
		provisioner *fakeProvisioner
		stdout      *bytes.Buffer
		stderr      *bytes.Buffer
	}
)

func (f *fakeConfigProvider) Load(_ context.Context, _ config.LoadOptions) (*config.Config, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg == nil {
		return config.DefaultConfig(), nil
	}
	cfg := *f.cfg
	return &cfg, nil
}

func (f *fakeProvisioner) Provision(_ context.Context, req ProvisionRequest) (*provision.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.report, f.err
}

func (f *fakeProvisioner) calls() []ProvisionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ProvisionRequest(nil), f.requests...)
}

func newHarness(t *testing.T, cfg ConfigProvider, p *fakeProvisioner) *testHarness {
	t.Helper()

	if p == nil {
		p = &fakeProvisioner{report: &provision.Report{RunID: "run-1"}}
	}
	h := &testHarness{
		provisioner: p,
		stdout:      &bytes.Buffer{},
		stderr:      &bytes.Buffer{},
	}
	h.app = NewApp(Dependencies{
		Config:      cfg,
		Provisioner: p,
		Stdout:      h.stdout,
		Stderr:      h.stderr,
	})
	return h
}

// run executes the command tree with args, capturing cobra output in the
// harness buffers.
func (h *testHarness) run(t *testing.T, args ...string) error {
	t.Helper()

	root := NewRootCommand(h.app)
	root.SetArgs(args)
	root.SetOut(h.stdout)
	root.SetErr(h.stderr)
	return root.ExecuteContext(t.Context())
}
