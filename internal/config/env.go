package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
)

// LoadSandboxEnv reads KEY=VALUE pairs to forward into the sandbox.
// A missing file is not an error and yields an empty set. Keys with blank
// values are dropped.
func LoadSandboxEnv(path string) (map[string]string, error) {
	env := map[string]string{}
	if path == "" {
		return env, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			L_debug("config: no sandbox env file", "path", path)
			return env, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	parsed, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for k, v := range parsed {
		if v == "" {
			continue
		}
		env[k] = v
	}

	L_debug("config: sandbox env loaded", "path", path, "vars", len(env), "dropped", len(parsed)-len(env))
	return env, nil
}
