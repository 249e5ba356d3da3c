// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCommands_RoundTrip(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "launchpad", "config.cue")

	h := newHarness(t, nil, nil)
	if err := h.run(t, "--config", cfgPath, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	h = newHarness(t, nil, nil)
	if err := h.run(t, "--config", cfgPath, "config", "set", "container_engine", "podman"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "Set container_engine = podman") {
		t.Errorf("set output = %q", h.stdout)
	}

	h = newHarness(t, nil, nil)
	if err := h.run(t, "--config", cfgPath, "config", "dump", "--format", "toml"); err != nil {
		t.Fatalf("config dump: %v", err)
	}
	if out := h.stdout.String(); !strings.Contains(out, "container_engine") || !strings.Contains(out, "podman") {
		t.Errorf("toml dump = %q", out)
	}

	h = newHarness(t, nil, nil)
	if err := h.run(t, "--config", cfgPath, "config", "show"); err != nil {
		t.Fatalf("config show: %v", err)
	}
	out := h.stdout.String()
	for _, want := range []string{cfgPath, "podman", "(embedded)", "network_port: 42"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommands_InitKeepsExistingFile(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.cue")
	custom := "container_engine: \"podman\"\n"
	if err := os.WriteFile(cfgPath, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newHarness(t, nil, nil)
	if err := h.run(t, "--config", cfgPath, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != custom {
		t.Errorf("config init overwrote the file:\n%s", data)
	}
}

func TestConfigCommands_Errors(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.cue")
	h := newHarness(t, nil, nil)
	if err := h.run(t, "--config", cfgPath, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "nope", "x"}},
		{"invalid engine", []string{"config", "set", "container_engine", "lxc"}},
		{"unknown format", []string{"config", "dump", "--format", "yaml"}},
		{"missing value", []string{"config", "set", "ui.verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, nil, nil)
			err := h.run(t, append([]string{"--config", cfgPath}, tt.args...)...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := exitCode(err); code != ExitUsage {
				t.Errorf("exit code = %d, want %d", code, ExitUsage)
			}
		})
	}
}

func TestConfigCommands_Path(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "custom.cue")
	h := newHarness(t, nil, nil)
	if err := h.run(t, "--config", cfgPath, "config", "path"); err != nil {
		t.Fatalf("config path: %v", err)
	}
	if got := strings.TrimSpace(h.stdout.String()); got != cfgPath {
		t.Errorf("config path = %q, want %q", got, cfgPath)
	}
}
