//go:build !windows

package winsvc

import (
	"context"
	"io"
	"os"
)

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool { return false }

// RunService is not supported on non-Windows platforms.
func RunService(_ string, _ func(ctx context.Context) error) error {
	return ErrUnsupported
}

// EventLogWriter returns nil on non-Windows platforms.
func EventLogWriter(_ string) io.Writer { return nil }

// Install is not supported on non-Windows platforms.
func Install(spec Spec) error {
	if err := spec.validate(); err != nil {
		return err
	}
	return ErrUnsupported
}

// Uninstall is not supported on non-Windows platforms.
func Uninstall(_ string) error {
	return ErrUnsupported
}

// ExePath returns the path to the currently running executable.
func ExePath() (string, error) {
	return os.Executable()
}
