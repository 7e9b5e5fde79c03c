package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/khanhnv2901/vigilante/internal/scan"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatTable, FormatJSON, FormatYAML, FormatHTML, FormatMarkdown, FormatPDF}

// FilenamePrefix starts every exported report file name.
const FilenamePrefix = "vigilante-security-report"

// ParseFormat accepts a format name or a common alias ("md", "yml", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrInvalidFormat, s)
	}
}

// Extension is the file extension of the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText, FormatTable:
		return "txt"
	default:
		return string(f)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Binary reports whether the format should not be written to a terminal.
func (f Format) Binary() bool {
	return f == FormatPDF
}

// Filename returns vigilante-security-report-YYYY-MM-DD.<ext> for the day of t.
func Filename(f Format, t time.Time) string {
	return fmt.Sprintf("%s-%s.%s", FilenamePrefix, t.Format("2006-01-02"), f.Extension())
}

// Options tune rendering.
type Options struct {
	Color bool // ANSI colours for text output
}

// Render writes r in format f.
func Render(w io.Writer, f Format, r *scan.Report, opts Options) error {
	if r == nil {
		return sharedErrors.ErrEmptyReport
	}
	switch f {
	case FormatText, "":
		return Text(w, r, opts)
	case FormatTable:
		return Table(w, r)
	case FormatJSON:
		return JSON(w, r)
	case FormatYAML:
		return YAML(w, r)
	case FormatHTML:
		return HTML(w, r)
	case FormatMarkdown:
		return Markdown(w, r)
	case FormatPDF:
		return PDF(w, r)
	default:
		return fmt.Errorf("%w: %q", sharedErrors.ErrInvalidFormat, f)
	}
}

// displayStatus maps missing or unknown statuses to error.
func displayStatus(s scan.Status) scan.Status {
	if !s.IsValid() {
		return scan.StatusError
	}
	return s
}

// SummaryLine is "✓ N Passed | ✗ N Failed | ⚠ N Warnings | ○ N N/A | ⚠ N Errors";
// warnings and errors appear only when non-zero.
func SummaryLine(s scan.Summary) string {
	parts := []string{
		fmt.Sprintf("✓ %d Passed", s.Pass),
		fmt.Sprintf("✗ %d Failed", s.Fail),
	}
	if s.Warn > 0 {
		parts = append(parts, fmt.Sprintf("⚠ %d Warnings", s.Warn))
	}
	parts = append(parts, fmt.Sprintf("○ %d N/A", s.NA))
	if s.Error > 0 {
		parts = append(parts, fmt.Sprintf("⚠ %d Errors", s.Error))
	}
	return strings.Join(parts, " | ")
}

// RiskLine is "Security Risk: {score}/100 ({band})".
func RiskLine(r *scan.Report) string {
	return fmt.Sprintf("Security Risk: %d/100 (%s)", r.Score, r.Band)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
