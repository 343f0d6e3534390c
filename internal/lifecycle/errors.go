package lifecycle

import (
	"errors"
	"fmt"
)

// ErrNotProvisioned is returned by operations that need a sandbox before
// Provision has succeeded.
var ErrNotProvisioned = errors.New("no sandbox provisioned")

// ProvisioningError means the sandbox could not be created. Not retried.
type ProvisioningError struct {
	Snapshot string
	Err      error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning sandbox from snapshot %q: %v", e.Snapshot, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// ConfigurationError means the gateway config could not be written into the
// sandbox. Step names the part that failed (encode, mkdir, upload).
type ConfigurationError struct {
	Step string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuring sandbox (%s): %v", e.Step, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// EndpointResolutionError is returned after every preview URL attempt failed.
type EndpointResolutionError struct {
	Port     int
	Attempts int
	Err      error
}

func (e *EndpointResolutionError) Error() string {
	return fmt.Sprintf("resolving preview URL for port %d after %d attempt(s): %v", e.Port, e.Attempts, e.Err)
}

func (e *EndpointResolutionError) Unwrap() error { return e.Err }
