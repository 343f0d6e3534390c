package config

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/jamesmurdza/openclaw-daytona/internal/logging"
)

// WriteJSON writes a local copy of a gateway document, e.g. for --dump-config.
// The file is created with 0600 since it may contain provider credentials.
// Readers never see a half-written file: the document goes to a temp file in
// the same directory and is renamed into place.
func WriteJSON(path string, tree Tree) error {
	data, err := Encode(tree)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	_, werr := tmp.Write(append(data, '\n'))
	cerr := tmp.Close()
	if err := firstErr(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	L_debug("config: wrote local copy", "path", path, "bytes", len(data)+1)
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
