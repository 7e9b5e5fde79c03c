package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhnv2901/vigilante/internal/report"
	"github.com/khanhnv2901/vigilante/internal/scan"
	"github.com/khanhnv2901/vigilante/internal/scanner"
	consts "github.com/khanhnv2901/vigilante/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

const testPage = `<!DOCTYPE html>
<html><head><title>Shop</title></head>
<body>
  <form action="/login" method="post">
    <input type="text" name="user">
    <input type="password" name="pass">
  </form>
</body></html>`

var testTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Frame-Options", "DENY")
		_, _ = w.Write([]byte(testPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), consts.DefaultFilePerm))
	return path
}

func TestPlanScanValidation(t *testing.T) {
	htmlPath := writeTestFile(t, "page.html", testPage)

	tests := []struct {
		name    string
		mutate  func(*ScanRuntimeConfig)
		args    []string
		wantErr error
	}{
		{"no targets", nil, nil, sharedErrors.ErrMissingRequired},
		{"bad mode", func(sc *ScanRuntimeConfig) { sc.Mode = "telnet" }, []string{"example.com"}, sharedErrors.ErrInvalidScanMode},
		{"bad format", func(sc *ScanRuntimeConfig) { sc.Format = "docx" }, []string{"example.com"}, sharedErrors.ErrInvalidFormat},
		{"bad threshold", func(sc *ScanRuntimeConfig) { sc.FailOn = "Severe" }, []string{"example.com"}, sharedErrors.ErrInvalidInput},
		{"file mode without html", func(sc *ScanRuntimeConfig) { sc.Mode = "file" }, nil, sharedErrors.ErrMissingRequired},
		{"file mode with two targets", func(sc *ScanRuntimeConfig) {
			sc.Mode = "file"
			sc.HTMLPath = htmlPath
		}, []string{"a.example", "b.example"}, sharedErrors.ErrInvalidInput},
		{"pdf of several targets to stdout", func(sc *ScanRuntimeConfig) {
			sc.Format = "pdf"
			sc.Output = "-"
		}, []string{"a.example", "b.example"}, sharedErrors.ErrInvalidInput},
		{"several targets to one file", func(sc *ScanRuntimeConfig) {
			sc.Output = filepath.Join(t.TempDir(), "report.json")
		}, []string{"a.example", "b.example"}, sharedErrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newCLIConfig().Scan
			if tt.mutate != nil {
				tt.mutate(&sc)
			}
			_, err := planScan(sc, tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlanScanTargets(t *testing.T) {
	sc := newCLIConfig().Scan
	sc.FailOn = "high"
	plan, err := planScan(sc, []string{"example.com", "https://EXAMPLE.com/", "shop.example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "shop.example.com"}, plan.targets)
	assert.Equal(t, scan.HighRisk, plan.threshold)

	sc = newCLIConfig().Scan
	sc.Mode = "file"
	sc.HTMLPath = writeTestFile(t, "saved.html", testPage)
	plan, err = planScan(sc, nil)
	require.NoError(t, err)
	require.Len(t, plan.targets, 1)
	assert.True(t, strings.HasPrefix(plan.targets[0], "file://"))
	assert.True(t, strings.HasSuffix(plan.targets[0], "/saved.html"))
}

func TestScanOutcome(t *testing.T) {
	high := &scan.Report{URL: "https://a.example/", Band: scan.HighRisk}
	low := &scan.Report{URL: "https://b.example/", Band: scan.LowRisk}
	boom := errors.New("boom")

	plan := &scanPlan{}
	assert.NoError(t, scanOutcome(plan, []scanner.BatchResult{{Report: high}}))

	plan.threshold = scan.MediumRisk
	err := scanOutcome(plan, []scanner.BatchResult{{Report: low}, {Report: high}})
	var threshold *RiskThresholdError
	require.ErrorAs(t, err, &threshold)
	assert.Equal(t, "https://a.example/", threshold.Target)
	assert.Equal(t, exitThreshold, exitCode(err))

	err = scanOutcome(plan, []scanner.BatchResult{{Report: high}, {Target: "c", Err: boom}})
	var failed *ScanFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 1, failed.Failed)
	assert.Equal(t, 2, failed.Total)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestScanCommandHTTPJSON(t *testing.T) {
	defer setupTestAppContext(t)()
	srv := pageServer(t)
	cliConfig.Scan.Format = "json"

	output, err := runCommand(t, scanCmd, srv.URL)
	require.NoError(t, err)

	var rep scan.Report
	require.NoError(t, json.Unmarshal([]byte(output), &rep))
	assert.True(t, strings.HasPrefix(rep.URL, srv.URL), "report URL %s", rep.URL)
	assert.NotEmpty(t, rep.ID)
	assert.NotEmpty(t, rep.Findings)
	assert.Equal(t, scan.BandFor(rep.Score), rep.Band)
}

func TestScanCommandFileMode(t *testing.T) {
	defer setupTestAppContext(t)()
	cliConfig.Scan.Mode = "file"
	cliConfig.Scan.HTMLPath = writeTestFile(t, "saved.html", testPage)
	cliConfig.Scan.HeadersPath = writeTestFile(t, "headers.json", `{"Content-Security-Policy": "default-src 'self'"}`)

	output, err := runCommand(t, scanCmd, "https://shop.example.com/login")
	require.NoError(t, err)
	assert.Contains(t, output, "Security Risk:")
	assert.Contains(t, output, "Passed")
}

func TestScanCommandFailOn(t *testing.T) {
	defer setupTestAppContext(t)()
	srv := pageServer(t)
	cliConfig.Scan.FailOn = "Low Risk"

	_, err := runCommand(t, scanCmd, srv.URL)
	var threshold *RiskThresholdError
	require.ErrorAs(t, err, &threshold)
	assert.Equal(t, scan.LowRisk, threshold.Threshold)
}

func TestScanCommandUnavailablePage(t *testing.T) {
	defer setupTestAppContext(t)()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	cliConfig.Scan.Format = "json"

	output, err := runCommand(t, scanCmd, url)
	var failed *ScanFailedError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, sharedErrors.ErrPageUnavailable)

	var doc report.FailureDocument
	require.NoError(t, json.Unmarshal([]byte(output), &doc))
	assert.Equal(t, "Scan Failed", doc.Test)
	assert.Equal(t, url, doc.URL)
}

func TestScanCommandWritesReportsToDirectory(t *testing.T) {
	defer setupTestAppContext(t)()
	srv := pageServer(t)
	outDir := t.TempDir()
	cliConfig.Scan.Format = "markdown"
	cliConfig.Scan.Output = outDir
	cliConfig.Scan.Concurrency = 2

	output, err := runCommand(t, scanCmd, srv.URL+"/a", srv.URL+"/b")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(output, "report saved to"))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, strings.HasPrefix(e.Name(), report.FilenamePrefix))
		assert.True(t, strings.HasSuffix(e.Name(), ".md"))
	}
}

func TestScanCommandPDFDefaultsToReportsDir(t *testing.T) {
	defer setupTestAppContext(t)()
	srv := pageServer(t)
	cliConfig.Scan.Format = "pdf"

	output, err := runCommand(t, scanCmd, srv.URL)
	require.NoError(t, err)
	assert.Contains(t, output, globalAppContext.ReportsDir)

	entries, err := os.ReadDir(globalAppContext.ReportsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(globalAppContext.ReportsDir, entries[0].Name()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestWriteStreamBatchesStructuredFormats(t *testing.T) {
	var buf strings.Builder
	results := []scanner.BatchResult{
		{Target: "https://a.example/", Report: &scan.Report{URL: "https://a.example/", Band: scan.LowRisk, Score: 100}},
		{Target: "https://b.example/", Err: errors.New("refused")},
	}
	require.NoError(t, writeStream(&buf, report.FormatJSON, results, report.Options{}, testTime))

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "https://a.example/", docs[0]["url"])
	assert.Equal(t, "refused", docs[1]["error"])
}
