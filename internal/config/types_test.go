// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"slices"
	"testing"
)

func TestContainerEngine_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value ContainerEngine
		valid bool
	}{
		{ContainerEngineDocker, true},
		{ContainerEnginePodman, true},
		{"", false},
		{"containerd", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()
			valid, errs := tt.value.IsValid()
			if valid != tt.valid {
				t.Errorf("IsValid() = %v, want %v", valid, tt.valid)
			}
			if !tt.valid && !errors.Is(errs[0], ErrInvalidContainerEngine) {
				t.Errorf("error = %v, want ErrInvalidContainerEngine", errs[0])
			}
		})
	}
}

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	for _, cs := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if ok, _ := cs.IsValid(); !ok {
			t.Errorf("%q should be valid", cs)
		}
	}
	ok, errs := ColorScheme("sepia").IsValid()
	if ok || !errors.Is(errs[0], ErrInvalidColorScheme) {
		t.Errorf("IsValid(sepia) = %v, %v", ok, errs)
	}
}

func TestConfig_Set(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for key, value := range map[string]string{
		"container_engine":             "podman",
		"payload_dir":                  "/srv/payload",
		"ui.color_scheme":              "dark",
		"ui.verbose":                   "true",
		"defaults.network_port":        "7",
		"defaults.provisioning_folder": "infra",
		"defaults.compose_filename":    "compose.yml",
	} {
		if err := cfg.Set(key, value); err != nil {
			t.Errorf("Set(%q, %q) error = %v", key, value, err)
		}
	}
	want := Config{
		ContainerEngine: ContainerEnginePodman,
		PayloadDir:      "/srv/payload",
		UI:              UIConfig{ColorScheme: ColorSchemeDark, Verbose: true},
		Defaults:        DefaultsConfig{NetworkPort: 7, ProvisioningFolder: "infra", ComposeFilename: "compose.yml"},
	}
	if *cfg != want {
		t.Errorf("config = %+v, want %+v", *cfg, want)
	}
}

func TestConfig_SetRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value string
		sentinel   error
	}{
		{"container_engine", "lxc", ErrInvalidContainerEngine},
		{"ui.color_scheme", "neon", ErrInvalidColorScheme},
		{"nope", "x", ErrUnknownKey},
		{"ui.verbose", "maybe", nil},
		{"defaults.network_port", "-1", nil},
		{"defaults.compose_filename", "dev/compose.yml", nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			err := DefaultConfig().Set(tt.key, tt.value)
			if err == nil {
				t.Fatal("Set() expected an error")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("Set() error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestKeys_AreSettable(t *testing.T) {
	t.Parallel()

	for _, key := range Keys() {
		err := DefaultConfig().Set(key, "")
		if errors.Is(err, ErrUnknownKey) {
			t.Errorf("Keys() lists %q but Set does not know it", key)
		}
	}
	if !slices.Contains(Keys(), "container_engine") {
		t.Error("Keys() lacks container_engine")
	}
}
