package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/khanhnv2901/vigilante/internal/scan"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

var sampleCatalog = []scan.RuleInfo{
	{Order: 1, Name: "Content Security Policy", Description: "Checks for a CSP header or meta tag."},
	{Order: 2, Name: "Cookie Security", Description: "Cookies should be Secure | HttpOnly."},
}

func TestCatalogTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Catalog(&buf, FormatTable, sampleCatalog))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^#\s+RULE\s+DESCRIPTION$`, lines[0])
	assert.Regexp(t, `^1\s+Content Security Policy\s+Checks for a CSP`, lines[1])
}

func TestCatalogStructured(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Catalog(&buf, FormatJSON, sampleCatalog))
	var fromJSON []scan.RuleInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, sampleCatalog, fromJSON)

	buf.Reset()
	require.NoError(t, Catalog(&buf, FormatYAML, sampleCatalog))
	var fromYAML []scan.RuleInfo
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, sampleCatalog, fromYAML)
}

func TestCatalogMarkdownEscapesPipes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Catalog(&buf, FormatMarkdown, sampleCatalog))
	assert.Contains(t, buf.String(), "| 2 | Cookie Security |")
	assert.NotContains(t, buf.String(), "Secure | HttpOnly")
}

func TestCatalogRejectsDocumentFormats(t *testing.T) {
	err := Catalog(&bytes.Buffer{}, FormatPDF, sampleCatalog)
	assert.ErrorIs(t, err, sharedErrors.ErrInvalidFormat)
}
