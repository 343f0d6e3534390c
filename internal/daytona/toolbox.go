package daytona

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"

	"github.com/gabriel-vasile/mimetype"
)

// ExecuteResponse is the result of a one-shot command.
type ExecuteResponse struct {
	ExitCode int    `json:"exitCode"`
	Result   string `json:"result"`
}

// SessionExecuteRequest starts a command inside a named session.
type SessionExecuteRequest struct {
	Command  string `json:"command"`
	RunAsync bool   `json:"runAsync"`
}

// SessionExecuteResponse identifies the started command. Output and ExitCode
// are only set for synchronous commands.
type SessionExecuteResponse struct {
	CmdID    string `json:"cmdId"`
	Output   string `json:"output,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`
}

// UserHomeDir asks the sandbox for the home directory of its default user.
func (c *Client) UserHomeDir(ctx context.Context, sandboxID string) (string, error) {
	var out struct {
		Dir string `json:"dir"`
	}
	if err := c.call(ctx, http.MethodGet, toolboxPath(sandboxID)+"/user-home-dir", nil, &out); err != nil {
		return "", err
	}
	if out.Dir == "" {
		return "", fmt.Errorf("daytona: sandbox %s reported an empty home directory", sandboxID)
	}
	return out.Dir, nil
}

// ExecuteCommand runs a command to completion. A non-zero exit code is not an
// error at this layer; callers check ExitCode.
func (c *Client) ExecuteCommand(ctx context.Context, sandboxID, command string) (*ExecuteResponse, error) {
	body := map[string]any{"command": command}
	var out ExecuteResponse
	if err := c.call(ctx, http.MethodPost, toolboxPath(sandboxID)+"/process/execute", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile writes data to an absolute path inside the sandbox.
func (c *Client) UploadFile(ctx context.Context, sandboxID, dest string, data []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, path.Base(dest)))
	h.Set("Content-Type", mimetype.Detect(data).String())
	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := c.cfg.APIURL + toolboxPath(sandboxID) + "/files/upload?path=" + url.QueryEscape(dest)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req.Header)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req, nil)
}

// CreateSession creates a named, persistent shell session in the sandbox.
func (c *Client) CreateSession(ctx context.Context, sandboxID, sessionID string) error {
	body := map[string]string{"sessionId": sessionID}
	return c.call(ctx, http.MethodPost, toolboxPath(sandboxID)+"/process/session", body, nil)
}

// ExecuteSessionCommand runs a command in a session. With RunAsync it returns
// as soon as the command has been started.
func (c *Client) ExecuteSessionCommand(ctx context.Context, sandboxID, sessionID string, req SessionExecuteRequest) (*SessionExecuteResponse, error) {
	p := toolboxPath(sandboxID) + "/process/session/" + url.PathEscape(sessionID) + "/exec"
	var out SessionExecuteResponse
	if err := c.call(ctx, http.MethodPost, p, req, &out); err != nil {
		return nil, err
	}
	if out.CmdID == "" {
		return nil, fmt.Errorf("daytona: session %s returned no command id", sessionID)
	}
	return &out, nil
}
