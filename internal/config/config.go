// Package config builds the openclaw.json document that is uploaded into the
// sandbox, and loads the launcher's own settings.
//
// The gateway document is assembled in three layers: the built-in defaults, the
// user's override file, and finally the generated gateway token. Later layers
// win on conflicting keys; nested objects merge key by key.
package config

import (
	"encoding/json"
	"fmt"
)

// Tree is a hierarchical settings document as decoded from JSON or YAML.
// Values are Tree/map[string]any, []any, or scalars.
type Tree = map[string]any

// DefaultGatewayPort is the port the OpenClaw gateway listens on inside the sandbox.
const DefaultGatewayPort = 18789

// DefaultGatewayConfig returns the base gateway settings for a sandboxed run.
// The auth token is left empty; StampToken fills it.
func DefaultGatewayConfig(port int) Tree {
	if port <= 0 {
		port = DefaultGatewayPort
	}
	return Tree{
		"gateway": Tree{
			"mode": "local",
			"port": port,
			"bind": "lan",
			"auth": Tree{
				"mode":  "token",
				"token": "",
			},
			"controlUi": Tree{
				"allowInsecureAuth": true,
			},
		},
		"agents": Tree{
			"defaults": Tree{
				"workspace": "~/.openclaw/workspace",
			},
		},
	}
}

// Merge returns a new tree with override applied onto base.
//
// For a key present in both, two nested objects merge recursively; any other
// pairing (scalars, arrays, null, object vs non-object) is replaced wholesale
// by the override value. Neither input is modified, and the result shares no
// maps or slices with them.
func Merge(base, override Tree) Tree {
	out := make(Tree, len(base)+len(override))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, b := range override {
		if a, ok := out[k]; ok {
			aTree, aOK := asTree(a)
			bTree, bOK := asTree(b)
			if aOK && bOK {
				out[k] = Merge(aTree, bTree)
				continue
			}
		}
		out[k] = cloneValue(b)
	}
	return out
}

// StampToken sets gateway.auth to token mode with the given token. It is the
// last layer applied, so it wins over anything the user override set.
func StampToken(tree Tree, token string) Tree {
	return Merge(tree, secretTree(token))
}

// Build assembles the final gateway document: base, then override, then token.
func Build(base, override Tree, token string) Tree {
	return StampToken(Merge(base, override), token)
}

// Encode serializes a tree as indented JSON.
func Encode(tree Tree) ([]byte, error) {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func secretTree(token string) Tree {
	return Tree{
		"gateway": Tree{
			"auth": Tree{
				"mode":  "token",
				"token": token,
			},
		},
	}
}

// asTree reports whether v is a non-nil object. Arrays are not trees.
func asTree(v any) (Tree, bool) {
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return nil, false
	}
	return m, true
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
