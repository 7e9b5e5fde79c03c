package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailure(t *testing.T) {
	doc := NewFailure("https://example.com/", errors.New("page unavailable: connection refused"), reportTime)

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatText, []string{"[ERROR] Scan Failed", "page unavailable: connection refused", "Recommendation: Try refreshing the page and scanning again."}},
		{FormatHTML, []string{"<h2>Scan Failed <span class=\"status\">ERROR</span></h2>", "connection refused"}},
		{FormatMarkdown, []string{"## Scan Failed (ERROR)", "**Recommendation:** Try refreshing the page and scanning again."}},
		{FormatYAML, []string{"status: error", "test: Scan Failed"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Failure(&buf, tt.format, doc, Options{}))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			assert.NotContains(t, buf.String(), "/100", "a failed scan has no score")
		})
	}
}

func TestFailureJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Failure(&buf, FormatJSON, NewFailure("https://example.com/", nil, reportTime), Options{}))

	var decoded FailureDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "error", decoded.Status)
	assert.Equal(t, "unknown error", decoded.Error)
	assert.True(t, reportTime.Equal(decoded.Timestamp))
}

func TestFailureHTMLEscapes(t *testing.T) {
	var buf bytes.Buffer
	doc := NewFailure("https://example.com/<b>", errors.New("<script>x</script>"), reportTime)
	require.NoError(t, Failure(&buf, FormatHTML, doc, Options{}))
	assert.NotContains(t, buf.String(), "<script>x")
	assert.NotContains(t, buf.String(), "<b>")
}

func TestFailurePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Failure(&buf, FormatPDF, NewFailure("https://example.com/", errors.New("timeout"), reportTime), Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
