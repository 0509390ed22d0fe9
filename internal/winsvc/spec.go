// Package winsvc runs the collector as a Windows service. On other
// platforms every operation except ExePath returns ErrUnsupported.
package winsvc

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupported   = errors.New("windows services are not supported on this platform")
	ErrServiceExists = errors.New("service already exists")
	ErrInvalidSpec   = errors.New("invalid service spec")
)

const (
	// stopTimeout bounds how long a stop request waits for run to return.
	stopTimeout = 30 * time.Second
	// uninstallTimeout bounds how long Uninstall waits for a running
	// service to stop before deleting it.
	uninstallTimeout = 5 * time.Second

	defaultResetPeriod = 24 * time.Hour
)

var defaultRestartDelays = []time.Duration{10 * time.Second, 30 * time.Second}

// Spec describes a service to install.
type Spec struct {
	Name        string
	DisplayName string
	Description string
	ExePath     string
	Args        []string

	// RestartDelays are the waits before restarting after the first,
	// second, ... failure. Later failures are not restarted. Nil means
	// 10s then 30s.
	RestartDelays []time.Duration
	// ResetPeriod clears the failure count after this much time without
	// failures. Zero means one day.
	ResetPeriod time.Duration
}

func (s Spec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	if s.ExePath == "" {
		return fmt.Errorf("%w: executable path is required", ErrInvalidSpec)
	}
	for i, d := range s.RestartDelays {
		if d < 0 {
			return fmt.Errorf("%w: restart delay %d is negative", ErrInvalidSpec, i)
		}
	}
	if s.ResetPeriod < 0 {
		return fmt.Errorf("%w: reset period is negative", ErrInvalidSpec)
	}
	return nil
}

func (s Spec) withDefaults() Spec {
	if s.DisplayName == "" {
		s.DisplayName = s.Name
	}
	if s.RestartDelays == nil {
		s.RestartDelays = defaultRestartDelays
	}
	if s.ResetPeriod == 0 {
		s.ResetPeriod = defaultResetPeriod
	}
	return s
}

// exitCode maps the result of the run function to a service-specific exit
// code. Zero means a clean stop.
func exitCode(err error) uint32 {
	if err != nil {
		return 1
	}
	return 0
}
