//go:build !windows

package winsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsupportedPlatform(t *testing.T) {
	assert.False(t, IsWindowsService())
	assert.Nil(t, EventLogWriter("svc"))
	assert.ErrorIs(t, Install(Spec{Name: "svc", ExePath: "/bin/true"}), ErrUnsupported)
	assert.ErrorIs(t, Install(Spec{}), ErrInvalidSpec)
	assert.ErrorIs(t, Uninstall("svc"), ErrUnsupported)
	assert.ErrorIs(t, RunService("svc", func(context.Context) error { return nil }), ErrUnsupported)
}
