package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/jamesmurdza/openclaw-daytona/internal/auth"
	"github.com/jamesmurdza/openclaw-daytona/internal/config"
	"github.com/jamesmurdza/openclaw-daytona/internal/console"
	"github.com/jamesmurdza/openclaw-daytona/internal/daytona"
	"github.com/jamesmurdza/openclaw-daytona/internal/lifecycle"
	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
	"github.com/jamesmurdza/openclaw-daytona/internal/paths"
)

const version = "0.1.0"

// CLI is the command line.
type CLI struct {
	Debug bool `help:"Enable debug logging."`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Launch an OpenClaw gateway in a Daytona sandbox (default)."`
	Version VersionCmd `cmd:"" help:"Print the version."`
}

// RunCmd launches the gateway and blocks until it ends or is interrupted.
type RunCmd struct {
	Config     string   `help:"Gateway config override (JSON or YAML)." default:"${override_file}"`
	EnvFile    string   `help:"KEY=VALUE file forwarded into the sandbox." default:"${env_file}"`
	Settings   string   `help:"Launcher settings (TOML)." default:"${settings_file}"`
	Set        []string `help:"jq expression applied to the override, e.g. '.gateway.bind = \"lan\"'. Repeatable." placeholder:"EXPR" sep:"none"`
	DumpConfig string   `help:"Write the generated gateway config (token redacted) to this file." placeholder:"FILE"`

	Snapshot string `help:"Daytona snapshot with openclaw installed."`
	Port     int    `help:"Gateway port inside the sandbox."`
	Private  bool   `help:"Don't make the sandbox preview public."`
	Quiet    bool   `short:"q" help:"Don't forward gateway output."`
	QR       bool   `name:"qr" help:"Print the dashboard URL as a QR code."`

	APIKey string `name:"api-key" env:"DAYTONA_API_KEY" help:"Daytona API key."`
	APIURL string `name:"api-url" env:"DAYTONA_API_URL" help:"Daytona API URL."`
	Target string `env:"DAYTONA_TARGET" help:"Daytona target region."`
	Org    string `env:"DAYTONA_ORGANIZATION_ID" help:"Daytona organization id."`
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("openclaw-daytona %s\n", version)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("openclaw-daytona"),
		kong.Description("Run an OpenClaw gateway in a throwaway Daytona sandbox."),
		kong.UsageOnError(),
		kong.Vars{
			"override_file": paths.DefaultOverrideFile,
			"env_file":      paths.DefaultEnvFile,
			"settings_file": paths.DefaultSettingsFile,
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	level := LevelInfo
	if cli.Debug {
		level = LevelDebug
	}
	Init(&Config{
		Level:      level,
		ShowCaller: cli.Debug,
	})

	if err := kctx.Run(); err != nil {
		stop()
		L_fatal("%v", err)
	}
}

// Run executes the launch.
func (r *RunCmd) Run(ctx context.Context) error {
	out := console.New(os.Stdout)

	if err := r.resolvePaths(); err != nil {
		return err
	}

	launcher, err := r.launcher()
	if err != nil {
		return err
	}

	env, err := config.LoadSandboxEnv(r.EnvFile)
	if err != nil {
		return err
	}
	L_debug("env: forwarding variables", "count", len(env))

	override, err := config.LoadOverride(r.Config)
	if err != nil {
		if errors.Is(err, config.ErrOverrideNotFound) {
			return fmt.Errorf("%w (create it, or pass --config)", err)
		}
		return err
	}
	if override, err = config.ApplyPatches(override, r.Set); err != nil {
		return err
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	doc := config.Build(config.DefaultGatewayConfig(launcher.Port), override, token)

	if r.DumpConfig != "" {
		if err := config.WriteJSON(r.DumpConfig, auth.Redact(doc)); err != nil {
			return err
		}
		L_info("config: generated document written", "path", r.DumpConfig)
	}

	client, err := daytona.New(daytona.ClientConfig{
		APIKey:         r.APIKey,
		APIURL:         r.APIURL,
		Target:         r.Target,
		OrganizationID: r.Org,
	})
	if err != nil {
		return err
	}

	opts := lifecycle.Options{
		Launcher: launcher,
		Env:      env,
		Document: doc,
		OnReady: func(link *daytona.PreviewLink) {
			dashboard := auth.DashboardURL(link.URL, token)
			out.URL("OpenClaw dashboard:", dashboard)
			if r.QR {
				out.QR(dashboard)
			}
			out.Hint("Ctrl+C to shut down and delete the sandbox.")
		},
	}
	if !launcher.HideLogs {
		opts.OnStdout = func(p []byte) { os.Stdout.Write(p) }
		opts.OnStderr = func(p []byte) { os.Stderr.Write(p) }
	}

	out.Step("Creating sandbox from snapshot %s", launcher.Snapshot)
	mgr := lifecycle.New(client, opts)
	if err := mgr.Run(ctx); err != nil {
		return err
	}

	out.Step("Shut down")
	return nil
}

func (r *RunCmd) resolvePaths() error {
	for _, p := range []*string{&r.Config, &r.EnvFile, &r.Settings, &r.DumpConfig} {
		abs, err := paths.Local(*p)
		if err != nil {
			return err
		}
		*p = abs
	}
	return nil
}

// launcher loads the settings file and applies flags on top of it.
func (r *RunCmd) launcher() (config.Launcher, error) {
	l, err := config.LoadLauncher(r.Settings)
	if err != nil {
		return config.Launcher{}, err
	}
	if r.Snapshot != "" {
		l.Snapshot = r.Snapshot
	}
	if r.Port > 0 {
		l.Port = r.Port
	}
	if r.Private {
		l.Private = true
	}
	if r.Quiet {
		l.HideLogs = true
	}
	if err := l.Normalize(); err != nil {
		return config.Launcher{}, err
	}
	return l, nil
}
