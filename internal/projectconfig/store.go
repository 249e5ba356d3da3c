// SPDX-License-Identifier: MPL-2.0

package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	// FileName is the name of both the local and the global settings file.
	FileName = ".launchpad.yml"

	KeyProvisioningFolder = "provisioning.folder_name"
	KeyComposeFilename    = "docker.compose_filename"
	KeyNetworkName        = "docker.network_name"
	KeyNetworkPort        = "docker.network_prefix_port"
	KeyHostMachineMapping = "docker.host_machine_mapping"
	KeyComposerCacheDir   = "docker.host_composer_cache_dir"
	KeyEnvironment        = "last_environment"

	httpBasicPrefix = "composer.http_basic"
)

var (
	// ErrEmptyKey is returned when a setter receives an empty key.
	ErrEmptyKey = errors.New("configuration key must not be empty")
	// ErrUnreadable is returned when a settings file exists but cannot be read or parsed.
	ErrUnreadable = errors.New("unreadable project configuration")
	// ErrInvalidCredential is returned when a credential cannot be stored.
	ErrInvalidCredential = errors.New("invalid http basic credential")

	// Names become key segments, so the key delimiter is excluded.
	credentialNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type (
	// Credential is one HTTP basic entry used for private package repositories.
	Credential struct {
		Name     string
		Host     string
		Login    string
		Password string
	}

	// Store is the scoped key/value configuration of one project.
	Store struct {
		mu         sync.Mutex
		local      *viper.Viper
		global     *viper.Viper
		defaults   *viper.Viper
		localPath  string
		globalPath string
	}
)

// ValidCredentialName reports whether name can be used as a credential name.
func ValidCredentialName(name string) bool {
	return credentialNamePattern.MatchString(name)
}

// CredentialKeys returns the three keys under which a credential is stored.
func CredentialKeys(name string) (host, login, password string) {
	base := httpBasicPrefix + "." + name
	return base + ".host", base + ".login", base + ".password"
}

// Open loads the local store of projectPath and the global store of the
// current user. Missing files are treated as empty.
func Open(projectPath string) (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return OpenPaths(filepath.Join(projectPath, FileName), filepath.Join(home, FileName))
}

// OpenPaths loads a store from explicit local and global file paths.
func OpenPaths(localPath, globalPath string) (*Store, error) {
	local, err := readFile(localPath)
	if err != nil {
		return nil, err
	}
	global, err := readFile(globalPath)
	if err != nil {
		return nil, err
	}

	defaults := viper.New()
	defaults.SetDefault(KeyHostMachineMapping, "host.docker.internal:host-gateway")
	defaults.SetDefault(KeyComposerCacheDir, "~/.composer/cache")
	defaults.SetDefault(KeyEnvironment, "dev")

	return &Store{
		local:      local,
		global:     global,
		defaults:   defaults,
		localPath:  localPath,
		globalPath: globalPath,
	}, nil
}

func readFile(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ErrUnreadable, path, err)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnreadable, path, err)
	}
	return v, nil
}

// LocalPath returns the project-scoped settings file.
func (s *Store) LocalPath() string { return s.localPath }

// GlobalPath returns the user-scoped settings file.
func (s *Store) GlobalPath() string { return s.globalPath }

// Get returns the value of key from the first scope that defines it.
// A leading "~/" is expanded to the user's home directory.
func (s *Store) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range []*viper.Viper{s.local, s.global, s.defaults} {
		if v.IsSet(key) {
			return expandHome(v.GetString(key))
		}
	}
	return ""
}

// SetLocal stores key in the project file.
func (s *Store) SetLocal(key string, value any) error {
	return s.SetMultiLocal(map[string]any{key: value})
}

// SetMultiLocal stores every pair in the project file with a single write.
func (s *Store) SetMultiLocal(values map[string]any) error {
	return s.set(s.local, s.localPath, values)
}

// SetCredential stores c in the user file when global is set, in the project
// file otherwise.
func (s *Store) SetCredential(c Credential, global bool) error {
	switch {
	case !ValidCredentialName(c.Name):
		return fmt.Errorf("%w: name %q may only contain letters, digits, '-' and '_'", ErrInvalidCredential, c.Name)
	case strings.TrimSpace(c.Host) == "":
		return fmt.Errorf("%w: %q has no host", ErrInvalidCredential, c.Name)
	}

	host, login, password := CredentialKeys(c.Name)
	values := map[string]any{host: c.Host, login: c.Login, password: c.Password}
	if global {
		return s.set(s.global, s.globalPath, values)
	}
	return s.set(s.local, s.localPath, values)
}

// SetEnvironment marks name as the active environment of the project.
func (s *Store) SetEnvironment(name string) error {
	return s.SetLocal(KeyEnvironment, name)
}

// Environment returns the active environment.
func (s *Store) Environment() string {
	return s.Get(KeyEnvironment)
}

func (s *Store) set(v *viper.Viper, path string, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range values {
		if strings.TrimSpace(key) == "" {
			return ErrEmptyKey
		}
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// HTTPBasicCredentials returns the stored credentials sorted by name. A
// project entry shadows a global entry with the same name.
func (s *Store) HTTPBasicCredentials() []Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := map[string]*viper.Viper{}
	for _, v := range []*viper.Viper{s.global, s.local} {
		for name := range v.GetStringMap(httpBasicPrefix) {
			names[name] = v
		}
	}

	out := make([]Credential, 0, len(names))
	for name, v := range names {
		hostKey, loginKey, passwordKey := CredentialKeys(name)
		out = append(out, Credential{
			Name:     name,
			Host:     v.GetString(hostKey),
			Login:    v.GetString(loginKey),
			Password: v.GetString(passwordKey),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func expandHome(value string) string {
	if value != "~" && !strings.HasPrefix(value, "~/") {
		return value
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return value
	}
	return filepath.Join(home, strings.TrimPrefix(value, "~"))
}
