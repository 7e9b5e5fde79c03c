package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/khanhnv2901/vigilante/internal/scan"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

var reportTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleReport() *scan.Report {
	findings := scan.ScanResult{
		{
			Test:        "jQuery Version",
			Description: "Checks for vulnerable jQuery versions",
			URL:         "https://example.com/",
			Status:      scan.StatusFail,
			Details:     "Vulnerable v1.12.4 (medium risk)",
			Severity:    scan.Medium,
			Fix:         "Upgrade to jQuery 3.6.0+",
			Reference:   "https://nvd.nist.gov/vuln/search/results?query=jquery",
		},
		{
			Test:        "Cookie Security",
			Description: "Checks cookie flags",
			URL:         "https://example.com/",
			Status:      scan.StatusFail,
			Details:     "2 insecure cookies",
			Severity:    scan.High,
			Examples:    []string{"session", "<script>alert(1)</script>", "tracking_id", "fourth"},
		},
		{
			Test:        "CSP Header",
			Description: "Checks for a Content Security Policy",
			URL:         "https://example.com/",
			Status:      scan.StatusPass,
			Details:     "CSP detected",
		},
		{
			Test:   "Local Storage Sensitive Data",
			URL:    "https://example.com/",
			Status: scan.StatusNA,
		},
	}
	return scan.NewReport("scan-1", "https://example.com/", findings, reportTime, reportTime.Add(1500*time.Millisecond))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"txt", FormatText},
		{"TABLE", FormatTable},
		{"json", FormatJSON},
		{"yml", FormatYAML},
		{"htm", FormatHTML},
		{"md", FormatMarkdown},
		{" pdf ", FormatPDF},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("docx")
	assert.True(t, errors.Is(err, sharedErrors.ErrInvalidFormat))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "vigilante-security-report-2025-03-14.pdf", Filename(FormatPDF, reportTime))
	assert.Equal(t, "vigilante-security-report-2025-03-14.md", Filename(FormatMarkdown, reportTime))
	assert.Equal(t, "vigilante-security-report-2025-03-14.txt", Filename(FormatTable, reportTime))
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", FormatTable.ContentType())
	assert.True(t, FormatPDF.Binary())
	assert.False(t, FormatHTML.Binary())
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "✓ 3 Passed | ✗ 1 Failed | ○ 0 N/A", SummaryLine(scan.Summary{Pass: 3, Fail: 1}))
	assert.Equal(t, "✓ 0 Passed | ✗ 0 Failed | ⚠ 2 Warnings | ○ 1 N/A | ⚠ 4 Errors",
		SummaryLine(scan.Summary{Warn: 2, NA: 1, Error: 4}))
}

func TestRenderNilReport(t *testing.T) {
	err := Render(&bytes.Buffer{}, FormatText, nil, Options{})
	assert.True(t, errors.Is(err, sharedErrors.ErrEmptyReport))
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, Format("docx"), sampleReport(), Options{})
	assert.True(t, errors.Is(err, sharedErrors.ErrInvalidFormat))
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, sampleReport(), Options{}))
	out := buf.String()

	assert.Contains(t, out, "Security Risk: 95/100 (Low Risk)")
	assert.Contains(t, out, "✓ 1 Passed | ✗ 2 Failed | ○ 1 N/A")
	assert.Contains(t, out, "[FAIL] jQuery Version")
	assert.Contains(t, out, "Vulnerable v1.12.4 (medium risk) (MEDIUM)")
	assert.Contains(t, out, "Recommendation: Upgrade to jQuery 3.6.0+")
	assert.Contains(t, out, "• tracking_id")
	assert.NotContains(t, out, "fourth", "only three examples are printed")
	assert.Contains(t, out, "No description available")
	assert.NotContains(t, out, "\x1b[", "no colour codes when disabled")
}

func TestTextUnknownStatusRendersAsError(t *testing.T) {
	r := scan.NewReport("x", "https://example.com/", scan.ScanResult{{Test: "Odd"}}, reportTime, reportTime)
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, r, Options{}))
	assert.Contains(t, buf.String(), "[ERROR] Odd")
}

func TestTextColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sampleReport(), Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatTable, sampleReport(), Options{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	require.Len(t, lines, 3+1+4)
	assert.Equal(t, "Security Risk: 95/100 (Low Risk)", lines[0])
	assert.Regexp(t, `^#\s+TEST\s+STATUS\s+SEVERITY\s+DETAILS$`, lines[3])
	assert.Regexp(t, `^1\s+jQuery Version\s+FAIL\s+medium\s+Vulnerable`, lines[4])
	assert.Regexp(t, `^3\s+CSP Header\s+PASS\s+-\s+CSP detected$`, lines[6])
}

func TestOneLineTruncatesRunes(t *testing.T) {
	long := strings.Repeat("é", 100)
	got := oneLine(long)
	assert.Equal(t, 80, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "a b", oneLine("a\n  b"))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, sampleReport(), Options{}))

	var decoded scan.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 95, decoded.Score)
	assert.Equal(t, scan.LowRisk, decoded.Band)
	assert.Len(t, decoded.Findings, 4)
	assert.Contains(t, buf.String(), `"started_at": "2025-03-14T09:30:00Z"`)
	assert.NotContains(t, buf.String(), `"severity": ""`)
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, sampleReport(), Options{}))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 95, decoded["score"])
	assert.Equal(t, "Low Risk", decoded["band"])
	assert.Contains(t, buf.String(), "  pass: 1\n")
}

func TestHTMLEscapesUntrustedFields(t *testing.T) {
	r := sampleReport()
	r.URL = `https://example.com/?q=<img src=x onerror=alert(1)>`
	r.Findings[0].Reference = "javascript:alert(1)"

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatHTML, r, Options{}))
	out := buf.String()

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "95/100")
	assert.Contains(t, out, "band-low")
	assert.Contains(t, out, "Scan Results by Status")
	assert.Contains(t, out, "Findings by Severity Level")
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, out, "<img src=x")
	assert.NotContains(t, out, `href="javascript:`)
	assert.Contains(t, out, "Report scan-1")
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatMarkdown, sampleReport(), Options{}))
	out := buf.String()

	assert.Contains(t, out, "## Security Risk: 95/100 (Low Risk)")
	assert.Contains(t, out, "| 1 | jQuery Version | FAIL | medium | Vulnerable v1.12.4 (medium risk) |")
	assert.Contains(t, out, "| 3 | CSP Header | PASS | - | CSP detected |")
	assert.Contains(t, out, "**Recommendation:** Upgrade to jQuery 3.6.0+")
	assert.Contains(t, out, "- `<script>alert(1)</script>`")
	assert.Contains(t, out, "- `tracking_id`")
	assert.Contains(t, out, "**Duration:** 1.5s")
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a \| b \*c\* &lt;x&gt;`, escapeMarkdown("a | b *c* <x>"))
	assert.Equal(t, "one two", escapeMarkdown("one\n\ttwo"))
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatPDF, sampleReport(), Options{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestPDFManyFindingsPaginates(t *testing.T) {
	var findings scan.ScanResult
	for i := 0; i < 60; i++ {
		findings = append(findings, scan.Finding{
			Test:        "Rule",
			Description: strings.Repeat("long description ", 10),
			Status:      scan.StatusWarn,
			Details:     "details",
			Severity:    scan.Low,
		})
	}
	r := scan.NewReport("many", "https://example.com/", findings, reportTime, reportTime)

	var buf bytes.Buffer
	require.NoError(t, PDF(&buf, r))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, rgb{52, 168, 83}, hexColor("#34a853"))
	assert.Equal(t, colorNA, hexColor("green"))
}

func TestBarsScaleToLargestCount(t *testing.T) {
	got := bars([]Bar{{Count: 4}, {Count: 2}, {Count: 0}})
	assert.Equal(t, maxBarWidth, got[0].Width)
	assert.Equal(t, maxBarWidth/2, got[1].Width)
	assert.Equal(t, 0, got[2].Width)

	empty := bars([]Bar{{Count: 0}})
	assert.Equal(t, 0, empty[0].Width)
}
