// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrUnknownKey is returned by Set for keys the configuration does not have.
	ErrUnknownKey = errors.New("unknown configuration key")
	// ErrLoadFailed marks a configuration file that is missing or invalid.
	ErrLoadFailed = errors.New("configuration could not be loaded")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine specifies whether to use "podman" or "docker"
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine" toml:"container_engine"`
		// PayloadDir replaces the embedded provisioning payload when set
		PayloadDir string `json:"payload_dir" mapstructure:"payload_dir" toml:"payload_dir"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui" toml:"ui"`
		// Defaults are offered when a project is initialized
		Defaults DefaultsConfig `json:"defaults" mapstructure:"defaults" toml:"defaults"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose" toml:"verbose"`
	}

	// DefaultsConfig holds the initialization defaults.
	DefaultsConfig struct {
		NetworkPort        int    `json:"network_port" mapstructure:"network_port" toml:"network_port"`
		ProvisioningFolder string `json:"provisioning_folder" mapstructure:"provisioning_folder" toml:"provisioning_folder"`
		ComposeFilename    string `json:"compose_filename" mapstructure:"compose_filename" toml:"compose_filename"`
	}
)

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// IsValid returns whether the ContainerEngine is one of the defined engine types.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEnginePodman, ContainerEngineDocker:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineDocker,
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Defaults: DefaultsConfig{
			NetworkPort:        42,
			ProvisioningFolder: "provisioning",
			ComposeFilename:    "docker-compose.yml",
		},
	}
}

// Keys lists the keys accepted by Set.
func Keys() []string {
	return []string{
		"container_engine",
		"payload_dir",
		"ui.color_scheme",
		"ui.verbose",
		"defaults.network_port",
		"defaults.provisioning_folder",
		"defaults.compose_filename",
	}
}

// Set assigns a string value to the field addressed by key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "container_engine":
		ce := ContainerEngine(value)
		if ok, errs := ce.IsValid(); !ok {
			return errs[0]
		}
		c.ContainerEngine = ce
	case "payload_dir":
		c.PayloadDir = value
	case "ui.color_scheme":
		cs := ColorScheme(value)
		if ok, errs := cs.IsValid(); !ok {
			return errs[0]
		}
		c.UI.ColorScheme = cs
	case "ui.verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ui.verbose: %w", err)
		}
		c.UI.Verbose = b
	case "defaults.network_port":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 || n >= 655 {
			return fmt.Errorf("defaults.network_port: %q must be between 1 and 654", value)
		}
		c.Defaults.NetworkPort = n
	case "defaults.provisioning_folder":
		if value == "" || strings.Contains(value, "/") {
			return fmt.Errorf("defaults.provisioning_folder: %q must be a single folder name", value)
		}
		c.Defaults.ProvisioningFolder = value
	case "defaults.compose_filename":
		if value == "" || strings.Contains(value, "/") {
			return fmt.Errorf("defaults.compose_filename: %q must be a file name", value)
		}
		c.Defaults.ComposeFilename = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}
