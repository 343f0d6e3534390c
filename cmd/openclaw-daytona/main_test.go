package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesmurdza/openclaw-daytona/internal/paths"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Vars{
		"override_file": paths.DefaultOverrideFile,
		"env_file":      paths.DefaultEnvFile,
		"settings_file": paths.DefaultSettingsFile,
	})
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, kctx
}

func TestDefaultCommandIsRun(t *testing.T) {
	t.Setenv("DAYTONA_API_KEY", "dtn_key")
	cli, kctx := parse(t, "--qr", "--set", ".a = 1, .b = 2", "--set", ".c = 3")

	assert.Equal(t, "run", kctx.Command())
	assert.True(t, cli.Run.QR)
	assert.Equal(t, []string{".a = 1, .b = 2", ".c = 3"}, cli.Run.Set)
	assert.Equal(t, "dtn_key", cli.Run.APIKey)
	assert.Equal(t, paths.DefaultOverrideFile, filepath.Base(cli.Run.Config))
	assert.Equal(t, paths.DefaultEnvFile, filepath.Base(cli.Run.EnvFile))
}

func TestLauncherFlagsOverrideSettings(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "openclaw-daytona.toml")
	require.NoError(t, os.WriteFile(settings, []byte("snapshot = \"custom\"\nport = 9000\n"), 0o600))

	r := &RunCmd{Settings: settings}
	l, err := r.launcher()
	require.NoError(t, err)
	assert.Equal(t, "custom", l.Snapshot)
	assert.Equal(t, 9000, l.Port)
	assert.False(t, l.Private)

	r = &RunCmd{Settings: settings, Snapshot: "flag-snap", Port: 18000, Private: true, Quiet: true}
	l, err = r.launcher()
	require.NoError(t, err)
	assert.Equal(t, "flag-snap", l.Snapshot)
	assert.Equal(t, 18000, l.Port)
	assert.True(t, l.Private)
	assert.True(t, l.HideLogs)
	assert.Equal(t, "openclaw gateway run", l.Command)
}

func TestResolvePathsMakesAbsolute(t *testing.T) {
	r := &RunCmd{Config: "config.json", EnvFile: ".env.sandbox"}
	require.NoError(t, r.resolvePaths())

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "config.json"), r.Config)
	assert.Equal(t, filepath.Join(wd, ".env.sandbox"), r.EnvFile)
	assert.Empty(t, r.DumpConfig)
}
