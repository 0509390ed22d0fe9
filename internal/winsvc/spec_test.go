package winsvc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpecValidate(t *testing.T) {
	assert.ErrorIs(t, Spec{ExePath: "x"}.validate(), ErrInvalidSpec)
	assert.ErrorIs(t, Spec{Name: "svc"}.validate(), ErrInvalidSpec)
	assert.ErrorIs(t, Spec{Name: "svc", ExePath: "x", RestartDelays: []time.Duration{-time.Second}}.validate(), ErrInvalidSpec)
	assert.ErrorIs(t, Spec{Name: "svc", ExePath: "x", ResetPeriod: -time.Hour}.validate(), ErrInvalidSpec)
	assert.NoError(t, Spec{Name: "svc", ExePath: "x"}.validate())
}

func TestSpecWithDefaults(t *testing.T) {
	s := Spec{Name: "svc", ExePath: "x"}.withDefaults()
	assert.Equal(t, "svc", s.DisplayName)
	assert.Equal(t, []time.Duration{10 * time.Second, 30 * time.Second}, s.RestartDelays)
	assert.Equal(t, 24*time.Hour, s.ResetPeriod)

	custom := Spec{Name: "svc", DisplayName: "Service", RestartDelays: []time.Duration{}, ResetPeriod: time.Hour}.withDefaults()
	assert.Equal(t, "Service", custom.DisplayName)
	assert.Empty(t, custom.RestartDelays)
	assert.Equal(t, time.Hour, custom.ResetPeriod)
}

func TestExitCode(t *testing.T) {
	assert.Zero(t, exitCode(nil))
	assert.Equal(t, uint32(1), exitCode(errors.New("boom")))
}

func TestExePath(t *testing.T) {
	p, err := ExePath()
	assert.NoError(t, err)
	assert.NotEmpty(t, p)
}
