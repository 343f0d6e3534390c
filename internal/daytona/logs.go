package daytona

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
)

// Session command logs arrive as one byte stream; these markers switch the
// stream that following bytes belong to.
var (
	stdoutPrefix = [3]byte{0x01, 0x01, 0x01}
	stderrPrefix = [3]byte{0x02, 0x02, 0x02}
)

const handshakeTimeout = 30 * time.Second

// StreamSessionCommandLogs follows the output of a session command until the
// command exits, the connection drops, or ctx is cancelled. Chunks are passed
// to onStdout/onStderr in arrival order; callbacks must not retain the slice.
//
// A normal close (the command finished) and cancellation both return nil.
func (c *Client) StreamSessionCommandLogs(ctx context.Context, sandboxID, sessionID, cmdID string, onStdout, onStderr func([]byte)) error {
	wsURL, err := c.logsURL(sandboxID, sessionID, cmdID)
	if err != nil {
		return err
	}

	header := http.Header{}
	c.setHeaders(header)

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}

	//nolint:bodyclose // WebSocket upgrade - response body handled by gorilla/websocket
	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("daytona: log stream connect: %w", err)
	}

	// Closing the connection is what unblocks ReadMessage on cancellation.
	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { conn.Close() }) }
	defer closeConn()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			L_trace("daytona: log stream cancelled", "cmd", cmdID)
			closeConn()
		case <-stop:
		}
	}()

	d := &demuxer{stdout: onStdout, stderr: onStderr}
	defer d.flush()

	L_debug("daytona: log stream attached", "session", sessionID, "cmd", cmdID)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				L_debug("daytona: log stream closed by server", "cmd", cmdID)
				return nil
			}
			return fmt.Errorf("daytona: log stream: %w", err)
		}
		d.write(msg)
	}
}

func (c *Client) logsURL(sandboxID, sessionID, cmdID string) (string, error) {
	raw := c.cfg.APIURL + toolboxPath(sandboxID) +
		"/process/session/" + url.PathEscape(sessionID) +
		"/command/" + url.PathEscape(cmdID) + "/logs?follow=true"

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("daytona: bad log stream url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// demuxer splits the prefixed log stream into stdout and stderr chunks.
// Bytes seen before any marker count as stdout. A marker may be split across
// websocket messages, so a trailing partial marker is held back.
type demuxer struct {
	stdout  func([]byte)
	stderr  func([]byte)
	toErr   bool
	pending []byte
}

func (d *demuxer) write(chunk []byte) {
	data := chunk
	if len(d.pending) > 0 {
		data = make([]byte, 0, len(d.pending)+len(chunk))
		data = append(data, d.pending...)
		data = append(data, chunk...)
		d.pending = nil
	}

	start := 0
	for i := 0; i < len(data); {
		b := data[i]
		if b != stdoutPrefix[0] && b != stderrPrefix[0] {
			i++
			continue
		}

		rest := data[i:]
		if len(rest) < len(stdoutPrefix) {
			if allBytes(rest, b) {
				d.emit(data[start:i])
				d.pending = append([]byte(nil), rest...)
				return
			}
			i++
			continue
		}

		if rest[1] == b && rest[2] == b {
			d.emit(data[start:i])
			d.toErr = b == stderrPrefix[0]
			i += len(stdoutPrefix)
			start = i
			continue
		}
		i++
	}
	d.emit(data[start:])
}

// flush emits a held-back partial marker as plain data once the stream ends.
func (d *demuxer) flush() {
	if len(d.pending) > 0 {
		d.emit(d.pending)
		d.pending = nil
	}
}

func (d *demuxer) emit(p []byte) {
	if len(p) == 0 {
		return
	}
	if d.toErr {
		if d.stderr != nil {
			d.stderr(p)
		}
		return
	}
	if d.stdout != nil {
		d.stdout(p)
	}
}

func allBytes(p []byte, b byte) bool {
	for _, c := range p {
		if c != b {
			return false
		}
	}
	return true
}
