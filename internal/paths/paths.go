// Package paths resolves local input files and the fixed locations used inside
// the sandbox. This package has NO internal imports (only stdlib) to avoid
// import cycles.
package paths

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

const (
	// DefaultSandboxHome is used when the sandbox cannot report its home directory.
	DefaultSandboxHome = "/home/daytona"

	// OpenClawDirName is the OpenClaw state directory under the sandbox home.
	OpenClawDirName = ".openclaw"

	// OpenClawConfigName is the gateway config file inside OpenClawDirName.
	OpenClawConfigName = "openclaw.json"

	// Local input files, relative to the working directory.
	DefaultOverrideFile = "config.json"
	DefaultEnvFile      = ".env.sandbox"
	DefaultSettingsFile = "openclaw-daytona.toml"
)

// SandboxConfigDir returns <home>/.openclaw. Sandbox paths are always POSIX.
func SandboxConfigDir(home string) string {
	if home == "" {
		home = DefaultSandboxHome
	}
	return path.Join(home, OpenClawDirName)
}

// SandboxConfigFile returns <home>/.openclaw/openclaw.json.
func SandboxConfigFile(home string) string {
	return path.Join(SandboxConfigDir(home), OpenClawConfigName)
}

// ExpandTilde expands a path that starts with ~ to the user's home directory.
// Returns the path unchanged if it doesn't start with ~.
func ExpandTilde(p string) (string, error) {
	if len(p) == 0 || p[0] != '~' {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if len(p) == 1 {
		return home, nil
	}
	return filepath.Join(home, p[1:]), nil
}

// Local resolves a user-supplied local path: ~ is expanded and relative paths
// are made absolute against the working directory. Empty stays empty.
func Local(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	expanded, err := ExpandTilde(p)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}
