package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSandboxEnvMissingFileIsEmpty(t *testing.T) {
	env, err := LoadSandboxEnv(filepath.Join(t.TempDir(), ".env.sandbox"))
	require.NoError(t, err)
	assert.NotNil(t, env)
	assert.Empty(t, env)
}

func TestLoadSandboxEnvEmptyPath(t *testing.T) {
	env, err := LoadSandboxEnv("")
	require.NoError(t, err)
	assert.Empty(t, env)
}

func TestLoadSandboxEnvFiltersBlankValues(t *testing.T) {
	path := writeFile(t, ".env.sandbox", "# provider keys\nANTHROPIC_API_KEY=sk-test\nEMPTY=\nQUOTED=\"hello world\"\n\nBLANK_QUOTED=\"\"\n")

	env, err := LoadSandboxEnv(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"ANTHROPIC_API_KEY": "sk-test",
		"QUOTED":            "hello world",
	}, env)
}
