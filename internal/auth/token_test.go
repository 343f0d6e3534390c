package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesmurdza/openclaw-daytona/internal/config"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, TokenBytes*2)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDashboardURL(t *testing.T) {
	tests := []struct {
		name    string
		preview string
		want    string
	}{
		{"no query", "https://18789-abc.proxy.daytona.works", "https://18789-abc.proxy.daytona.works?token=tok"},
		{"with path", "https://host/ui/", "https://host/ui/?token=tok"},
		{"signed query", "https://host/?sig=xyz", "https://host/?sig=xyz&token=tok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DashboardURL(tt.preview, "tok"))
		})
	}
}

func TestRedact(t *testing.T) {
	doc := config.Build(config.DefaultGatewayConfig(0), nil, "secret")
	red := Redact(doc)

	auth := red["gateway"].(map[string]any)["auth"].(map[string]any)
	assert.Equal(t, Redacted, auth["token"])
	// original untouched
	assert.Equal(t, "secret", doc["gateway"].(map[string]any)["auth"].(map[string]any)["token"])
}

func TestRedactWithoutAuth(t *testing.T) {
	doc := config.Tree{"agents": config.Tree{}}
	red := Redact(doc)
	assert.Equal(t, doc, red)
	_, hasGateway := red["gateway"]
	assert.False(t, hasGateway)
}
