// Package auth generates the gateway access token and attaches it to the
// dashboard URL handed to the user.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jamesmurdza/openclaw-daytona/internal/config"
)

// TokenBytes is the amount of randomness in a gateway token (hex doubles it).
const TokenBytes = 24

// Redacted replaces the token wherever a gateway document is shown or saved.
const Redacted = "<redacted>"

// GenerateToken returns a fresh random hex token for gateway auth.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate gateway token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// DashboardURL appends the token as a query parameter to a preview URL.
// The preview URL is kept byte-for-byte since it may carry its own signature.
func DashboardURL(previewURL, token string) string {
	sep := "?"
	if strings.Contains(previewURL, "?") {
		sep = "&"
	}
	return previewURL + sep + "token=" + token
}

// Redact returns a copy of a gateway document with the auth token hidden.
func Redact(tree config.Tree) config.Tree {
	gw, ok := tree["gateway"].(map[string]any)
	if !ok {
		return config.Merge(tree, nil)
	}
	if _, ok := gw["auth"].(map[string]any); !ok {
		return config.Merge(tree, nil)
	}
	return config.StampToken(tree, Redacted)
}
