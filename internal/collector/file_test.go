package collector

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseHeaders(t *testing.T) {
	h, err := ParseHeaders([]byte(" null\n"))
	require.NoError(t, err)
	assert.Nil(t, h)

	h, err = ParseHeaders([]byte(`{"unavailable": true}`))
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.True(t, h.Unavailable)

	h, err = ParseHeaders([]byte(`{}`))
	require.NoError(t, err)
	assert.False(t, h.Unavailable)
	assert.Equal(t, 0, h.Len())

	h, err = ParseHeaders([]byte(`{"Strict-Transport-Security": "max-age=31536000", "Content-Length": 512}`))
	require.NoError(t, err)
	assert.Equal(t, "max-age=31536000", h.Get("strict-transport-security"))
	assert.Equal(t, "512", h.Get("content-length"))

	_, err = ParseHeaders([]byte(`["x"]`))
	assert.ErrorIs(t, err, sharedErrors.ErrInvalidHeaderDoc)

	_, err = ParseHeaders([]byte(`{"x-nested": {"a": 1}}`))
	assert.ErrorIs(t, err, sharedErrors.ErrInvalidHeaderDoc)
}

func TestLoadHeadersWithoutFile(t *testing.T) {
	h, err := LoadHeaders("")
	require.NoError(t, err)
	assert.True(t, h.Unavailable)
}

func TestFileCollectorHTML(t *testing.T) {
	dir := t.TempDir()
	htmlPath := writeFile(t, dir, "page.html", loginPage)
	headersPath := writeFile(t, dir, "headers.json", `{"X-Frame-Options": "SAMEORIGIN"}`)

	c := &FileCollector{HTMLPath: htmlPath, HeadersPath: headersPath}
	pc, err := c.Collect(context.Background(), "https://shop.example.com/login")
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com/login", pc.URL)
	assert.Equal(t, "SAMEORIGIN", pc.Headers.Get("x-frame-options"))
	require.Len(t, pc.Document.PasswordInputs, 1)
	assert.Equal(t, "https://shop.example.com/login", pc.Document.PasswordInputs[0].FormAction)
}

func TestFileCollectorDefaultsToFileURL(t *testing.T) {
	dir := t.TempDir()
	htmlPath := writeFile(t, dir, "page.html", "<!DOCTYPE html><p>x</p>")

	pc, err := (&FileCollector{HTMLPath: htmlPath}).Collect(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pc.URL, "file://"), pc.URL)
	assert.True(t, pc.Headers.Unavailable)
}

func TestFileCollectorSnapshotJSON(t *testing.T) {
	dir := t.TempDir()
	snapshotPath := writeFile(t, dir, "snapshot.json", `{
  "url": "https://app.example.com/",
  "compatMode": "CSS1Compat",
  "localStorage": {"captured": true, "keys": ["authToken"]},
  "sessionStorage": {"captured": true, "error": "SecurityError"}
}`)
	headersPath := writeFile(t, dir, "headers.json", "null")

	pc, err := (&FileCollector{HTMLPath: snapshotPath, HeadersPath: headersPath}).Collect(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, pc.Headers)
	assert.Equal(t, "https://app.example.com/", pc.Document.URL)
	assert.Equal(t, []string{"authToken"}, pc.Document.LocalStorage.Keys)
	assert.Equal(t, "SecurityError", pc.Document.SessionStorage.Error)
}

func TestFileCollectorMissingFile(t *testing.T) {
	_, err := (&FileCollector{HTMLPath: filepath.Join(t.TempDir(), "missing.html")}).Collect(context.Background(), "")
	assert.ErrorIs(t, err, sharedErrors.ErrPageUnavailable)
}
