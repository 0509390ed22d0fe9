package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUser_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	s, err := LoadUser(path)
	require.NoError(t, err)

	cfg := s.Config()
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.True(t, cfg.Submit)
	assert.Equal(t, 3, cfg.UserID)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.LastHWReportVersion)
	assert.Equal(t, Display{Width: 1024, Height: 768}, cfg.Display)
	assert.Equal(t, "glxinfo", cfg.Graphics.Source)
	assert.Equal(t, path, s.Path())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "load must not create the file")
}

func TestLoadUser_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
endpoint: http://127.0.0.1:8000/upload/v1/
submit: false
last_hw_report_version: 2
display:
  width: 1920
  height: 1080
graphics:
  source: static
  vendor: NVIDIA Corporation
  shading_language: 450
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := LoadUser(path)
	require.NoError(t, err)

	cfg := s.Config()
	assert.Equal(t, "http://127.0.0.1:8000/upload/v1/", cfg.Endpoint)
	assert.False(t, cfg.Submit)
	assert.Equal(t, 2, s.LastReportedVersion())
	assert.Equal(t, 1920, cfg.Display.Width)
	assert.Equal(t, 1080, cfg.Display.Height)
	assert.Equal(t, "static", cfg.Graphics.Source)
	assert.Equal(t, 450, cfg.Graphics.ShadingLanguage)
}

func TestUserStore_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s, err := LoadUser(path)
	require.NoError(t, err)
	s.SetLastReportedVersion(1)
	require.NoError(t, s.Save())

	again, err := LoadUser(path)
	require.NoError(t, err)
	assert.Equal(t, 1, again.LastReportedVersion())
	assert.Equal(t, s.Config(), again.Config())
}

func TestLoadUser_EnvOverride(t *testing.T) {
	t.Setenv("HWREPORT_DISPLAY_WIDTH", "2560")
	t.Setenv("HWREPORT_SUBMIT", "false")

	s, err := LoadUser(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2560, s.Config().Display.Width)
	assert.False(t, s.Config().Submit)
}

func TestLoadUser_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display: [unclosed"), 0o644))

	_, err := LoadUser(path)
	assert.Error(t, err)
}

func TestUserStore_SaveWritesOnlyFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display:\n  width: 1920\n"), 0o644))

	t.Setenv("HWREPORT_ENDPOINT", "http://override.invalid/upload/v1/")
	t.Setenv("HWREPORT_SUBMIT", "false")
	t.Setenv("HWREPORT_CLIENT_SECRET", "s3cret")

	s, err := LoadUser(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", s.Config().ClientSecret)
	assert.False(t, s.Config().Submit)

	s.SetLastReportedVersion(1)
	require.NoError(t, s.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	written := string(raw)
	assert.Contains(t, written, "last_hw_report_version: 1")
	assert.Contains(t, written, "width: 1920")
	assert.NotContains(t, written, "endpoint")
	assert.NotContains(t, written, "submit")
	assert.NotContains(t, written, "client_secret")
	assert.NotContains(t, written, "height")
}
