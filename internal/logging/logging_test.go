package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_SameCategorySameLogger(t *testing.T) {
	assert.Same(t, Get("sender"), Get("sender"))
	assert.NotSame(t, Get("sender"), Get("server"))
}

func TestInit_ReconfiguresExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := Get("HW report")

	require.NoError(t, Init(Config{Level: "error", Output: &buf}))
	t.Cleanup(func() { _ = Init(Config{}) })

	l.Info("Upload successful.")
	assert.Empty(t, buf.String())

	l.Error("Error uploading the HW report.")
	assert.Contains(t, buf.String(), "HW report")
	assert.Contains(t, buf.String(), "Error uploading the HW report.")
}

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "debug", Format: "json", Output: &buf}))
	t.Cleanup(func() { _ = Init(Config{}) })

	Get("json").Debug("document", "len", 3)
	assert.Contains(t, buf.String(), `"msg":"document"`)
	assert.Contains(t, buf.String(), `"prefix":"json"`)
}

func TestInit_Invalid(t *testing.T) {
	assert.Error(t, Init(Config{Level: "loud"}))
	assert.ErrorIs(t, Init(Config{Format: "xml"}), ErrInvalidFormat)
}
