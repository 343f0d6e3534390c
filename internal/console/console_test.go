package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainOutputForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)

	p.Step("creating sandbox from %s", "daytona-medium")
	p.URL("Dashboard:", "https://18789-abc.proxy.daytona.work/?token=t")
	p.Hint("Ctrl+C to shut down and delete the sandbox.")

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no escape codes when not a terminal")
	assert.Contains(t, out, "==> creating sandbox from daytona-medium\n")
	assert.Contains(t, out, "Dashboard:\n  https://18789-abc.proxy.daytona.work/?token=t\n")
	assert.Contains(t, out, "Ctrl+C to shut down and delete the sandbox.\n")
}

func TestQR(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).QR("https://example.com/?token=t")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Greater(t, len(lines), 10)
}
