package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
)

var (
	// ErrOverrideNotFound is returned when the user override file does not exist.
	ErrOverrideNotFound = errors.New("override file not found")

	// ErrNotObject is returned when an override document is not a JSON/YAML object.
	ErrNotObject = errors.New("override must be an object")
)

// LoadOverride reads the user override tree from path.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadOverride(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrOverrideNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
	}

	tree, ok := asTree(doc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotObject, path)
	}

	L_debug("config: override loaded", "path", path, "keys", len(tree))
	return tree, nil
}

// ApplyPatches runs each jq expression against the tree in order, e.g.
// `.gateway.bind = "loopback"`. Every expression must produce exactly one
// object, which replaces the tree for the next expression.
func ApplyPatches(tree Tree, exprs []string) (Tree, error) {
	if len(exprs) == 0 {
		return tree, nil
	}

	// gojq only understands plain JSON shapes, so round-trip through JSON to
	// normalize ints and nested Tree values.
	current, err := normalize(tree)
	if err != nil {
		return nil, err
	}

	for _, expr := range exprs {
		query, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid --set expression %q: %w", expr, err)
		}

		var results []any
		iter := query.Run(current)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				return nil, fmt.Errorf("--set %q: %w", expr, err)
			}
			results = append(results, v)
		}

		if len(results) != 1 {
			return nil, fmt.Errorf("--set %q: produced %d results, want 1", expr, len(results))
		}
		next, ok := asTree(results[0])
		if !ok {
			return nil, fmt.Errorf("--set %q: %w", expr, ErrNotObject)
		}
		L_trace("config: patch applied", "expr", expr)
		current = next
	}

	return current, nil
}

func normalize(tree Tree) (Tree, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to encode override: %w", err)
	}
	var out Tree
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode override: %w", err)
	}
	if out == nil {
		out = Tree{}
	}
	return out, nil
}
