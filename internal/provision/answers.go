// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/invowk/launchpad/internal/projectconfig"
)

const (
	DefaultProvisioningFolder = "provisioning"
	DefaultComposeFilename    = "docker-compose.yml"
	DefaultNetworkPort        = 42

	DefaultRepository  = "ezsystems/ezplatform"
	DefaultVersion     = "2.*"
	DefaultInitialData = "clean"
)

// ErrInvalidAnswers is returned when an answer record cannot drive a run.
var ErrInvalidAnswers = errors.New("invalid provisioning answers")

// projectNamePattern is the compose project name rule; the network name is passed as -p.
var projectNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

type (
	// HTTPBasic is one private repository credential.
	HTTPBasic struct {
		Host     string `yaml:"host"`
		Login    string `yaml:"login"`
		Password string `yaml:"password"`
	}

	// Answers is the record collected from the operator before a run.
	Answers struct {
		NetworkName        string               `yaml:"network_name"`
		NetworkPort        int                  `yaml:"network_port"`
		HTTPBasics         map[string]HTTPBasic `yaml:"http_basic"`
		Services           []string             `yaml:"services"`
		ProvisioningFolder string               `yaml:"provisioning_folder"`
		ComposeFilename    string               `yaml:"compose_filename"`
	}

	// InstallRequest selects the application distribution to install.
	InstallRequest struct {
		Repository  string
		Version     string
		InitialData string
	}
)

// LoadAnswers reads an answer record from a YAML file. Omitted fields keep
// their defaults.
func LoadAnswers(path string) (Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Answers{}, fmt.Errorf("read answers: %w", err)
	}

	a := Answers{
		NetworkPort:        DefaultNetworkPort,
		ProvisioningFolder: DefaultProvisioningFolder,
		ComposeFilename:    DefaultComposeFilename,
	}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Answers{}, fmt.Errorf("%w: %s: %w", ErrInvalidAnswers, path, err)
	}
	return a, nil
}

// Validate reports the first field that cannot be used.
func (a Answers) Validate() error {
	switch {
	case strings.TrimSpace(a.NetworkName) == "":
		return fmt.Errorf("%w: network name is empty", ErrInvalidAnswers)
	case !projectNamePattern.MatchString(a.NetworkName):
		return fmt.Errorf("%w: network name %q must start with a lower case letter or digit and contain only lower case letters, digits, '-' and '_'", ErrInvalidAnswers, a.NetworkName)
	case a.NetworkPort <= 0:
		return fmt.Errorf("%w: network port must be positive, got %d", ErrInvalidAnswers, a.NetworkPort)
	case strings.TrimSpace(a.ProvisioningFolder) == "":
		return fmt.Errorf("%w: provisioning folder is empty", ErrInvalidAnswers)
	case strings.TrimSpace(a.ComposeFilename) == "":
		return fmt.Errorf("%w: compose file name is empty", ErrInvalidAnswers)
	case strings.ContainsAny(a.ComposeFilename, `/\`):
		return fmt.Errorf("%w: compose file name %q must not contain a path", ErrInvalidAnswers, a.ComposeFilename)
	}
	names := slices.Sorted(maps.Keys(a.HTTPBasics))
	for _, name := range names {
		basic := a.HTTPBasics[name]
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: http basic credential without a name", ErrInvalidAnswers)
		}
		if !projectconfig.ValidCredentialName(name) {
			return fmt.Errorf("%w: http basic credential name %q may only contain letters, digits, '-' and '_'", ErrInvalidAnswers, name)
		}
		if strings.TrimSpace(basic.Host) == "" {
			return fmt.Errorf("%w: http basic credential %q has no host", ErrInvalidAnswers, name)
		}
	}
	return nil
}

// DefaultInstallRequest returns the stock distribution request.
func DefaultInstallRequest() InstallRequest {
	return InstallRequest{
		Repository:  DefaultRepository,
		Version:     DefaultVersion,
		InitialData: DefaultInitialData,
	}
}

// WithDefaults fills empty fields from DefaultInstallRequest.
func (r InstallRequest) WithDefaults() InstallRequest {
	d := DefaultInstallRequest()
	if r.Repository == "" {
		r.Repository = d.Repository
	}
	if r.Version == "" {
		r.Version = d.Version
	}
	if r.InitialData == "" {
		r.InitialData = d.InitialData
	}
	return r
}
