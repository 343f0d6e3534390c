// Package lifecycle runs one OpenClaw gateway in one Daytona sandbox: it
// provisions the sandbox, writes the gateway config, starts the gateway,
// follows its output, and deletes the sandbox exactly once when the gateway
// ends or the launcher is interrupted.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"

	"github.com/jamesmurdza/openclaw-daytona/internal/config"
	"github.com/jamesmurdza/openclaw-daytona/internal/daytona"
	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
	"github.com/jamesmurdza/openclaw-daytona/internal/paths"
)

// RunIDLabel is the sandbox label carrying the launcher run id.
const RunIDLabel = "openclaw-daytona/run-id"

// Backend is the remote sandbox service. *daytona.Client implements it.
type Backend interface {
	CreateSandbox(ctx context.Context, req daytona.CreateSandboxRequest) (*daytona.Sandbox, error)
	DeleteSandbox(ctx context.Context, id string) error
	UserHomeDir(ctx context.Context, sandboxID string) (string, error)
	ExecuteCommand(ctx context.Context, sandboxID, command string) (*daytona.ExecuteResponse, error)
	UploadFile(ctx context.Context, sandboxID, dest string, data []byte) error
	CreateSession(ctx context.Context, sandboxID, sessionID string) error
	ExecuteSessionCommand(ctx context.Context, sandboxID, sessionID string, req daytona.SessionExecuteRequest) (*daytona.SessionExecuteResponse, error)
	StreamSessionCommandLogs(ctx context.Context, sandboxID, sessionID, cmdID string, onStdout, onStderr func([]byte)) error
	SignedPreviewURL(ctx context.Context, sandboxID string, port int, expiry time.Duration) (*daytona.PreviewLink, error)
}

// State is the manager's position in the run.
type State int

const (
	StateUninitialized State = iota
	StateProvisioning
	StateConfiguring
	StateRunning
	StateTerminating
	StateTerminated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateProvisioning:
		return "provisioning"
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a run.
type Options struct {
	config.Launcher

	Env      map[string]string // forwarded into the sandbox
	Document config.Tree       // final gateway config to upload

	// Gateway output sinks; nil drops that stream.
	OnStdout func([]byte)
	OnStderr func([]byte)

	// OnReady is called once the preview URL is known.
	OnReady func(link *daytona.PreviewLink)
}

// Process identifies the gateway command running in the sandbox.
type Process struct {
	SessionID string
	CommandID string
}

// Manager owns the sandbox for the duration of a run.
type Manager struct {
	backend Backend
	opts    Options
	runID   string

	mu      sync.Mutex
	state   State
	sandbox *daytona.Sandbox
	cancel  context.CancelFunc // stops work tied to the running gateway

	teardownOnce sync.Once
	tearingDown  atomic.Bool
	done         chan struct{}

	tail *lineRing
}

// New creates a manager. Unset launcher settings take their defaults.
func New(backend Backend, opts Options) *Manager {
	if err := opts.Launcher.Normalize(); err != nil {
		L_warn("lifecycle: launcher defaults not applied", "error", err)
	}
	return &Manager{
		backend: backend,
		opts:    opts,
		runID:   uuid.NewString(),
		done:    make(chan struct{}),
		tail:    newLineRing(tailLines),
	}
}

// RunID is the id attached to the sandbox as a label.
func (m *Manager) RunID() string { return m.runID }

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Sandbox returns the provisioned sandbox, or nil.
func (m *Manager) Sandbox() *daytona.Sandbox {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sandbox
}

// Done is closed when teardown has finished.
func (m *Manager) Done() <-chan struct{} { return m.done }

func (m *Manager) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	if prev != s {
		L_trace("lifecycle: state", "from", prev, "to", s)
	}
}

// Run drives the whole lifecycle and blocks until the sandbox is released.
// It returns nil after a graceful shutdown (interrupt or gateway exit) and an
// error when startup fails. Once a sandbox exists, every path out of Run
// deletes it.
func (m *Manager) Run(ctx context.Context) error {
	if _, err := m.Provision(ctx); err != nil {
		if ctx.Err() != nil {
			L_debug("lifecycle: provisioning interrupted", "error", err)
			return nil
		}
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	defer cancel()

	if err := m.Configure(runCtx, m.opts.Document); err != nil {
		return m.abort(ctx, err)
	}

	proc, err := m.StartManagedProcess(runCtx)
	if err != nil {
		return m.abort(ctx, err)
	}

	go m.follow(runCtx, proc)

	if wait := m.opts.StartupDelay(); wait > 0 {
		select {
		case <-time.After(wait):
		case <-runCtx.Done():
		}
	}

	if runCtx.Err() == nil {
		link, err := m.ResolvePublicEndpoint(runCtx, m.opts.Port, m.opts.PreviewAttempts, m.opts.PreviewDelay)
		if err != nil {
			return m.abort(ctx, err)
		}
		if m.opts.OnReady != nil {
			m.opts.OnReady(link)
		}
	}

	select {
	case <-ctx.Done():
		L_info("lifecycle: interrupt received, shutting down")
		m.Teardown(ctx)
	case <-m.done:
	}
	<-m.done
	return nil
}

// abort tears down after a startup failure. Failures caused by an interrupt
// or by the gateway already ending are part of a normal shutdown.
func (m *Manager) abort(ctx context.Context, err error) error {
	graceful := ctx.Err() != nil || m.tearingDown.Load()
	m.Teardown(ctx)
	if graceful {
		L_debug("lifecycle: startup step interrupted by shutdown", "error", err)
		return nil
	}
	return err
}

// Provision creates the sandbox with auto-stop disabled.
func (m *Manager) Provision(ctx context.Context) (*daytona.Sandbox, error) {
	m.setState(StateProvisioning)

	req := daytona.CreateSandboxRequest{
		Snapshot:         m.opts.Snapshot,
		Env:              m.opts.Env,
		Labels:           map[string]string{RunIDLabel: m.runID},
		Public:           !m.opts.Private,
		AutoStopInterval: 0,
	}
	if req.Env == nil {
		req.Env = map[string]string{}
	}

	pctx, cancel := context.WithTimeout(ctx, m.opts.ProvisionTimeout)
	defer cancel()

	start := time.Now()
	L_debug("lifecycle: creating sandbox", "snapshot", req.Snapshot, "public", req.Public, "env", len(req.Env), "run", m.runID)

	sb, err := m.backend.CreateSandbox(pctx, req)
	if err != nil {
		m.setState(StateFailed)
		if sb != nil && sb.ID != "" {
			// created but never became usable; don't leave it running
			m.release(ctx, sb.ID)
		}
		return nil, &ProvisioningError{Snapshot: req.Snapshot, Err: err}
	}

	m.mu.Lock()
	m.sandbox = sb
	m.mu.Unlock()

	L_elapsed(start, "lifecycle: sandbox ready", "id", sb.ID)
	return sb, nil
}

// Configure writes the gateway document to <home>/.openclaw/openclaw.json.
// A failed home lookup falls back to paths.DefaultSandboxHome.
func (m *Manager) Configure(ctx context.Context, doc config.Tree) error {
	sb := m.Sandbox()
	if sb == nil {
		return &ConfigurationError{Step: "sandbox", Err: ErrNotProvisioned}
	}
	m.setState(StateConfiguring)

	data, err := config.Encode(doc)
	if err != nil {
		return &ConfigurationError{Step: "encode", Err: err}
	}

	home := m.homeDir(ctx, sb.ID)
	dir := paths.SandboxConfigDir(home)

	res, err := m.backend.ExecuteCommand(ctx, sb.ID, shellquote.Join("mkdir", "-p", dir))
	if err != nil {
		return &ConfigurationError{Step: "mkdir", Err: err}
	}
	if res.ExitCode != 0 {
		return &ConfigurationError{
			Step: "mkdir",
			Err:  fmt.Errorf("exit code %d: %s", res.ExitCode, strings.TrimSpace(res.Result)),
		}
	}

	dest := paths.SandboxConfigFile(home)
	if err := m.backend.UploadFile(ctx, sb.ID, dest, data); err != nil {
		return &ConfigurationError{Step: "upload", Err: err}
	}

	L_debug("lifecycle: gateway config written", "path", dest, "bytes", len(data))
	return nil
}

func (m *Manager) homeDir(ctx context.Context, sandboxID string) string {
	home, err := m.backend.UserHomeDir(ctx, sandboxID)
	if err != nil || home == "" {
		L_warn("lifecycle: home directory lookup failed, using default", "default", paths.DefaultSandboxHome, "error", err)
		return paths.DefaultSandboxHome
	}
	return home
}

// StartManagedProcess opens the gateway session and starts the command
// asynchronously. It returns as soon as the command has an id.
func (m *Manager) StartManagedProcess(ctx context.Context) (Process, error) {
	sb := m.Sandbox()
	if sb == nil {
		return Process{}, ErrNotProvisioned
	}

	if err := m.backend.CreateSession(ctx, sb.ID, m.opts.SessionID); err != nil {
		return Process{}, fmt.Errorf("creating session %q: %w", m.opts.SessionID, err)
	}

	res, err := m.backend.ExecuteSessionCommand(ctx, sb.ID, m.opts.SessionID, daytona.SessionExecuteRequest{
		Command:  m.opts.Command,
		RunAsync: true,
	})
	if err != nil {
		return Process{}, fmt.Errorf("starting %q: %w", m.opts.Command, err)
	}

	m.setState(StateRunning)
	L_debug("lifecycle: gateway started", "session", m.opts.SessionID, "cmd", res.CmdID)
	return Process{SessionID: m.opts.SessionID, CommandID: res.CmdID}, nil
}

// StreamLogs forwards the gateway's output until it exits, the connection
// drops, or ctx is cancelled. Output is also kept in a short tail buffer.
func (m *Manager) StreamLogs(ctx context.Context, proc Process, onStdout, onStderr func([]byte)) error {
	sb := m.Sandbox()
	if sb == nil {
		return ErrNotProvisioned
	}

	outTail := &tailWriter{ring: m.tail}
	errTail := &tailWriter{ring: m.tail}
	defer outTail.Flush()
	defer errTail.Flush()

	return m.backend.StreamSessionCommandLogs(ctx, sb.ID, proc.SessionID, proc.CommandID,
		func(p []byte) {
			outTail.Write(p)
			if onStdout != nil {
				onStdout(p)
			}
		},
		func(p []byte) {
			errTail.Write(p)
			if onStderr != nil {
				onStderr(p)
			}
		},
	)
}

// follow streams the gateway output and tears down when the stream settles,
// whatever the reason.
func (m *Manager) follow(ctx context.Context, proc Process) {
	err := m.StreamLogs(ctx, proc, m.opts.OnStdout, m.opts.OnStderr)

	if !m.tearingDown.Load() && ctx.Err() == nil {
		if err != nil {
			L_warn("lifecycle: log stream ended", "error", err)
		} else {
			L_info("lifecycle: gateway exited")
		}
		if lines := m.tail.Lines(); len(lines) > 0 {
			L_debug("lifecycle: last gateway output", "lines", strings.Join(lines, "\n"))
		}
	}

	m.Teardown(context.WithoutCancel(ctx))
}

// TailLines returns the most recent gateway output lines.
func (m *Manager) TailLines() []string { return m.tail.Lines() }

// ResolvePublicEndpoint fetches a signed preview URL for port, retrying with
// a fixed delay. It gives up after maxAttempts tries.
func (m *Manager) ResolvePublicEndpoint(ctx context.Context, port, maxAttempts int, retryDelay time.Duration) (*daytona.PreviewLink, error) {
	sb := m.Sandbox()
	if sb == nil {
		return nil, &EndpointResolutionError{Port: port, Err: ErrNotProvisioned}
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		link, err := m.backend.SignedPreviewURL(ctx, sb.ID, port, m.opts.PreviewExpiry)
		if err == nil {
			L_debug("lifecycle: preview url resolved", "port", port, "attempt", attempt)
			return link, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		L_debug("lifecycle: preview url not ready, retrying", "attempt", attempt, "of", maxAttempts, "error", err)

		select {
		case <-ctx.Done():
			return nil, &EndpointResolutionError{Port: port, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(retryDelay):
		}
	}

	return nil, &EndpointResolutionError{Port: port, Attempts: maxAttempts, Err: lastErr}
}

// Teardown releases the sandbox. Only the first call does anything; later and
// concurrent calls wait for it to finish. Release errors are logged, not
// returned.
func (m *Manager) Teardown(ctx context.Context) {
	m.teardownOnce.Do(func() {
		m.tearingDown.Store(true)

		m.mu.Lock()
		cancel := m.cancel
		sb := m.sandbox
		failed := m.state == StateFailed
		m.mu.Unlock()

		if !failed {
			m.setState(StateTerminating)
		}
		if cancel != nil {
			cancel()
		}
		if sb != nil {
			m.release(ctx, sb.ID)
		}
		if !failed {
			m.setState(StateTerminated)
		}
		close(m.done)
	})
	<-m.done
}

// release deletes a sandbox within the grace window, logging any failure.
func (m *Manager) release(ctx context.Context, id string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.DeleteGrace)
	defer cancel()

	L_info("lifecycle: deleting sandbox", "id", id)
	if err := m.backend.DeleteSandbox(rctx, id); err != nil {
		L_error("lifecycle: failed to delete sandbox", "id", id, "error", err)
		return
	}
	L_debug("lifecycle: sandbox deleted", "id", id)
}
