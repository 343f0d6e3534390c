package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxConfigPaths(t *testing.T) {
	assert.Equal(t, "/home/daytona/.openclaw", SandboxConfigDir(DefaultSandboxHome))
	assert.Equal(t, "/home/daytona/.openclaw/openclaw.json", SandboxConfigFile(""))
	assert.Equal(t, "/root/.openclaw/openclaw.json", SandboxConfigFile("/root/"))
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandTilde("~/config.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.json"), got)

	got, err = ExpandTilde("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = ExpandTilde("rel/path")
	require.NoError(t, err)
	assert.Equal(t, "rel/path", got)
}

func TestLocal(t *testing.T) {
	got, err := Local("")
	require.NoError(t, err)
	assert.Empty(t, got)

	wd, err := os.Getwd()
	require.NoError(t, err)
	got, err = Local(DefaultOverrideFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, DefaultOverrideFile), got)
}
