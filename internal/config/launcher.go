package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"

	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
)

// Launcher holds settings for the launcher itself (not the gateway document).
// Zero values mean "use the default", so booleans are phrased so that false is
// the default behaviour. StartupWait is a pointer because an explicit zero
// turns the wait off.
type Launcher struct {
	Snapshot  string `toml:"snapshot"`   // Daytona snapshot with openclaw installed
	Port      int    `toml:"port"`       // gateway port inside the sandbox
	Private   bool   `toml:"private"`    // don't mark the sandbox preview as public
	HideLogs  bool   `toml:"hide_logs"`  // don't forward gateway output to the terminal
	SessionID string `toml:"session_id"` // name of the sandbox session running the gateway
	Command   string `toml:"command"`    // gateway command line

	StartupWait      *time.Duration `toml:"startup_wait"`      // pause before asking for the preview URL
	PreviewAttempts  int            `toml:"preview_attempts"`  // preview URL attempts before giving up
	PreviewDelay     time.Duration  `toml:"preview_delay"`     // fixed delay between attempts
	PreviewExpiry    time.Duration  `toml:"preview_expiry"`    // lifetime of the signed preview URL
	DeleteGrace      time.Duration  `toml:"delete_grace"`      // deadline for the sandbox delete call
	ProvisionTimeout time.Duration  `toml:"provision_timeout"` // deadline for sandbox creation
}

// DefaultLauncher returns the built-in launcher settings.
func DefaultLauncher() Launcher {
	return Launcher{
		Snapshot:         "daytona-medium",
		Port:             DefaultGatewayPort,
		SessionID:        "openclaw-gateway",
		Command:          "openclaw gateway run",
		StartupWait:      DurationPtr(2 * time.Second),
		PreviewAttempts:  5,
		PreviewDelay:     2 * time.Second,
		PreviewExpiry:    24 * time.Hour,
		DeleteGrace:      30 * time.Second,
		ProvisionTimeout: 2 * time.Minute,
	}
}

// DurationPtr returns a pointer to d.
func DurationPtr(d time.Duration) *time.Duration { return &d }

// StartupDelay is the pause before the first preview URL request.
// Zero when the wait is turned off.
func (l Launcher) StartupDelay() time.Duration {
	if l.StartupWait == nil {
		return DefaultLauncher().StartupDelay()
	}
	return *l.StartupWait
}

// LoadLauncher reads launcher settings from a TOML file. An empty path or a
// missing file returns the defaults. Unset fields are filled from the defaults.
func LoadLauncher(path string) (Launcher, error) {
	var cfg Launcher

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			meta, err := toml.DecodeFile(path, &cfg)
			if err != nil {
				return Launcher{}, fmt.Errorf("invalid TOML in %s: %w", path, err)
			}
			for _, key := range meta.Undecoded() {
				L_warn("config: unknown launcher setting", "path", path, "key", key.String())
			}
			L_debug("config: launcher settings loaded", "path", path)
		} else if !os.IsNotExist(err) {
			return Launcher{}, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if err := cfg.fillDefaults(); err != nil {
		return Launcher{}, err
	}
	return cfg, nil
}

// Normalize fills unset fields from the defaults. Call it after applying CLI
// flags on top of a loaded file.
func (l *Launcher) Normalize() error {
	return l.fillDefaults()
}

func (l *Launcher) fillDefaults() error {
	// set pointers are kept as-is, so an explicit zero survives
	if err := mergo.Merge(l, DefaultLauncher(), mergo.WithoutDereference); err != nil {
		return fmt.Errorf("failed to apply launcher defaults: %w", err)
	}
	return nil
}
