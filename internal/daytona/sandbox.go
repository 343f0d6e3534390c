package daytona

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
)

// Sandbox states reported by the API.
const (
	StateCreating    = "creating"
	StateStarting    = "starting"
	StateStarted     = "started"
	StateError       = "error"
	StateBuildFailed = "build_failed"
)

// CreateSandboxRequest is the body of POST /sandbox.
type CreateSandboxRequest struct {
	Snapshot string            `json:"snapshot,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
	Public   bool              `json:"public"`
	Target   string            `json:"target,omitempty"`

	// AutoStopInterval is in minutes; 0 disables the idle auto-stop.
	AutoStopInterval int `json:"autoStopInterval"`
}

// Sandbox is the subset of the sandbox resource the launcher uses.
type Sandbox struct {
	ID          string            `json:"id"`
	State       string            `json:"state"`
	ErrorReason string            `json:"errorReason,omitempty"`
	Target      string            `json:"target,omitempty"`
	User        string            `json:"user,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// PreviewLink is a signed, externally reachable URL for a sandbox port.
type PreviewLink struct {
	SandboxID string `json:"sandboxId"`
	Port      int    `json:"port"`
	URL       string `json:"url"`
	Token     string `json:"token"`
}

// CreateSandbox creates a sandbox and waits until it reports "started".
// The wait is bounded only by ctx.
func (c *Client) CreateSandbox(ctx context.Context, req CreateSandboxRequest) (*Sandbox, error) {
	if req.Target == "" {
		req.Target = c.cfg.Target
	}

	var sb Sandbox
	if err := c.call(ctx, http.MethodPost, "/sandbox", req, &sb); err != nil {
		return nil, err
	}
	if sb.ID == "" {
		return nil, fmt.Errorf("daytona: create returned no sandbox id")
	}
	L_debug("daytona: sandbox created", "id", sb.ID, "state", sb.State)

	if err := c.waitStarted(ctx, &sb); err != nil {
		// hand back what we have so the caller can still delete it
		return &sb, err
	}
	return &sb, nil
}

func (c *Client) waitStarted(ctx context.Context, sb *Sandbox) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		switch sb.State {
		case StateStarted:
			return nil
		case StateError, StateBuildFailed:
			return fmt.Errorf("daytona: sandbox %s failed to start (%s): %s", sb.ID, sb.State, sb.ErrorReason)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("daytona: waiting for sandbox %s to start (last state %q): %w", sb.ID, sb.State, ctx.Err())
		case <-ticker.C:
		}

		current, err := c.GetSandbox(ctx, sb.ID)
		if err != nil {
			return err
		}
		if current.State != sb.State {
			L_trace("daytona: sandbox state", "id", sb.ID, "state", current.State)
		}
		*sb = *current
	}
}

// GetSandbox fetches the current sandbox resource.
func (c *Client) GetSandbox(ctx context.Context, id string) (*Sandbox, error) {
	var sb Sandbox
	if err := c.call(ctx, http.MethodGet, "/sandbox/"+url.PathEscape(id), nil, &sb); err != nil {
		return nil, err
	}
	return &sb, nil
}

// DeleteSandbox deletes a sandbox. Deleting one that is already gone is not an error.
func (c *Client) DeleteSandbox(ctx context.Context, id string) error {
	err := c.call(ctx, http.MethodDelete, "/sandbox/"+url.PathEscape(id), nil, nil)
	if IsNotFound(err) {
		L_debug("daytona: sandbox already gone", "id", id)
		return nil
	}
	return err
}

// SignedPreviewURL returns a signed public URL for a port inside the sandbox.
func (c *Client) SignedPreviewURL(ctx context.Context, id string, port int, expiry time.Duration) (*PreviewLink, error) {
	path := fmt.Sprintf("/sandbox/%s/ports/%d/signed-preview-url", url.PathEscape(id), port)
	if expiry > 0 {
		path += "?expiresInSeconds=" + strconv.Itoa(int(expiry.Seconds()))
	}

	var link PreviewLink
	if err := c.call(ctx, http.MethodGet, path, nil, &link); err != nil {
		return nil, err
	}
	if link.URL == "" {
		return nil, fmt.Errorf("daytona: preview link for port %d has no url", port)
	}
	return &link, nil
}
