package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/vigilante/internal/report"
	"github.com/khanhnv2901/vigilante/internal/shared/security"
)

func TestWritesToStdout(t *testing.T) {
	tests := []struct {
		output string
		format report.Format
		want   bool
	}{
		{"", report.FormatText, true},
		{"", report.FormatPDF, false},
		{"-", report.FormatPDF, true},
		{"out.json", report.FormatJSON, false},
	}
	for _, tt := range tests {
		if got := writesToStdout(tt.output, tt.format); got != tt.want {
			t.Errorf("writesToStdout(%q, %s) = %v, want %v", tt.output, tt.format, got, tt.want)
		}
	}
}

func TestTargetSlug(t *testing.T) {
	tests := map[string]string{
		"https://Example.com/login":  "example.com-login",
		"example.com:8443/x/y":       "example.com-8443-x-y",
		"/tmp/pages/saved page.html": "saved-page.html",
		"https://[::1]:8080/":        "1-8080",
		"":                           "page",
	}
	for in, want := range tests {
		if got := targetSlug(in); got != want {
			t.Errorf("targetSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReportFilename(t *testing.T) {
	at := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	if got := reportFilename(report.FormatPDF, at, "https://example.com/", false); got != "vigilante-security-report-2025-03-14.pdf" {
		t.Fatalf("unexpected untagged name %q", got)
	}
	if got := reportFilename(report.FormatMarkdown, at, "https://example.com/", true); got != "vigilante-security-report-2025-03-14-example.com.md" {
		t.Fatalf("unexpected tagged name %q", got)
	}
}

func TestResolveOutputPath(t *testing.T) {
	reportsDir := filepath.Join(t.TempDir(), "reports")

	path, err := resolveOutputPath("", reportsDir, "r.pdf")
	if err != nil {
		t.Fatalf("resolveOutputPath default failed: %v", err)
	}
	if path != filepath.Join(reportsDir, "r.pdf") {
		t.Fatalf("expected report under reports dir, got %s", path)
	}
	if _, err := os.Stat(reportsDir); err != nil {
		t.Fatalf("expected reports directory to be created: %v", err)
	}

	outDir := filepath.Join(t.TempDir(), "exports") + string(os.PathSeparator)
	path, err = resolveOutputPath(outDir, reportsDir, "r.html")
	if err != nil {
		t.Fatalf("resolveOutputPath dir failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Clean(outDir) {
		t.Fatalf("expected report in output dir, got %s", path)
	}

	file := filepath.Join(t.TempDir(), "nested", "custom.json")
	path, err = resolveOutputPath(file, reportsDir, "ignored.json")
	if err != nil {
		t.Fatalf("resolveOutputPath file failed: %v", err)
	}
	if path != file {
		t.Fatalf("expected explicit file path, got %s", path)
	}
	if _, err := os.Stat(filepath.Dir(file)); err != nil {
		t.Fatalf("expected parent directory to be created: %v", err)
	}
}

func TestResolveOutputPathRejectsEscape(t *testing.T) {
	_, err := resolveOutputPath("", t.TempDir(), "../escape.pdf")
	if !errors.Is(err, security.ErrPathEscape) {
		t.Fatalf("expected ErrPathEscape, got %v", err)
	}
	if !strings.Contains(err.Error(), "escape") {
		t.Fatalf("unexpected error %v", err)
	}
}
