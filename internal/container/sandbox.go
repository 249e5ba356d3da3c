// SPDX-License-Identifier: MPL-2.0

package container

import (
	"os"
	"os/exec"
	"sync"
)

const (
	// SandboxNone indicates no sandbox environment detected.
	SandboxNone SandboxType = ""
	// SandboxFlatpak indicates a Flatpak sandbox environment.
	SandboxFlatpak SandboxType = "flatpak"
	// SandboxSnap indicates a Snap sandbox environment. Classic snaps reach the
	// host engine directly, so no spawn wrapper is used.
	SandboxSnap SandboxType = "snap"

	flatpakSpawn = "flatpak-spawn"
)

// SandboxType identifies the type of application sandbox, if any.
type SandboxType string

// detectOnce caches the sandbox detection result for the lifetime of the process.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(os.Getenv, func(p string) error {
		_, err := os.Stat(p)
		return err
	})
})

// DetectSandbox returns the type of application sandbox the current process is running in.
func DetectSandbox() SandboxType {
	return detectOnce()
}

// detectSandboxFrom performs sandbox detection using the provided lookup functions.
func detectSandboxFrom(lookupEnv func(string) string, statFile func(string) error) SandboxType {
	// The /.flatpak-info file is always present inside Flatpak sandboxes.
	if err := statFile("/.flatpak-info"); err == nil {
		return SandboxFlatpak
	}
	if lookupEnv("SNAP_NAME") != "" {
		return SandboxSnap
	}
	return SandboxNone
}

// hostSpawnArgs rewrites a command so it runs on the host via flatpak-spawn.
// env entries are forwarded explicitly with --env.
func hostSpawnArgs(binary string, env, args []string) (string, []string) {
	argv := make([]string, 0, len(env)+len(args)+2)
	argv = append(argv, "--host")
	for _, kv := range env {
		argv = append(argv, "--env="+kv)
	}
	argv = append(argv, binary)
	return flatpakSpawn, append(argv, args...)
}

// lookPath resolves binary on PATH. Inside a Flatpak sandbox the engine lives on
// the host, so the bare name is kept for flatpak-spawn to resolve there.
func lookPath(binary string) string {
	if p, err := exec.LookPath(binary); err == nil {
		return p
	}
	if DetectSandbox() == SandboxFlatpak {
		return binary
	}
	return ""
}
