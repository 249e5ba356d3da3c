// SPDX-License-Identifier: MPL-2.0

package config

import "os"

// EnvConfigDir names the environment variable that relocates the
// configuration directory.
const EnvConfigDir = "LAUNCHPAD_CONFIG_DIR"

// configDirOverride pins ConfigDir for tests, where os.UserHomeDir does not
// reliably honor HOME (e.g. macOS in CI).
var configDirOverride string

// SetConfigDirOverride pins ConfigDir to dir until Reset is called.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset clears the override set by SetConfigDirOverride.
func Reset() {
	configDirOverride = ""
}

// overriddenConfigDir returns the pinned directory, then $LAUNCHPAD_CONFIG_DIR,
// or "" when neither is set.
func overriddenConfigDir() string {
	if configDirOverride != "" {
		return configDirOverride
	}
	return os.Getenv(EnvConfigDir)
}
