package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCallShapes(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: LevelDebug, Output: &buf})

	L_info("plain message")
	L_info("value is %d", 42)
	L_debug("sandbox ready", "id", "sb-1")
	L_elapsed(time.Now(), "done")

	out := buf.String()
	assert.Contains(t, out, "plain message")
	assert.Contains(t, out, "value is 42")
	assert.Contains(t, out, "id=sb-1")
	assert.Contains(t, out, "elapsed=")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}
