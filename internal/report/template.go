package report

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

const (
	htmlTemplatePath     = "templates/report.html"
	markdownTemplatePath = "templates/report.md"
	maxBarWidth          = 180
)

//go:embed templates/report.html templates/report.md
var reportTemplateFS embed.FS

var (
	htmlTemplateFuncs = htmltemplate.FuncMap{
		"formatTime": formatTimestamp,
		"upper":      upper,
		"bandClass":  bandClass,
	}

	markdownTemplateFuncs = texttemplate.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"formatTime": formatTimestamp,
		"upper":      upper,
		"md":         escapeMarkdown,
		"cell":       markdownCell,
		"code":       func(s string) string { return strings.ReplaceAll(s, "`", "'") },
	}

	htmlReportTemplate = htmltemplate.Must(
		htmltemplate.New("report.html").Funcs(htmlTemplateFuncs).ParseFS(reportTemplateFS, htmlTemplatePath),
	)
	markdownReportTemplate = texttemplate.Must(
		texttemplate.New("report.md").Funcs(markdownTemplateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath),
	)
)

// Bar is one bar of a status or severity chart.
type Bar struct {
	Label string
	Count int
	Width int
	Color string
}

// TemplateData holds the data for HTML and Markdown rendering.
type TemplateData struct {
	Report       *scan.Report
	Findings     []scan.Finding
	SummaryLine  string
	Duration     string
	StatusBars   []Bar
	SeverityBars []Bar
}

func buildTemplateData(r *scan.Report) TemplateData {
	findings := make([]scan.Finding, len(r.Findings))
	for i, f := range r.Findings {
		f.Status = displayStatus(f.Status)
		f.Test = orDefault(f.Test, "Unknown Test")
		f.Description = orDefault(f.Description, "No description available")
		f.Details = orDefault(f.Details, "No details available")
		findings[i] = f
	}
	s := r.Summary
	return TemplateData{
		Report:      r,
		Findings:    findings,
		SummaryLine: SummaryLine(s),
		Duration:    formatDuration(r.Duration()),
		StatusBars: bars([]Bar{
			{Label: "Passed", Count: s.Pass, Color: "#34a853"},
			{Label: "Failed", Count: s.Fail, Color: "#ea4335"},
			{Label: "Warnings", Count: s.Warn, Color: "#fbbc05"},
			{Label: "N/A", Count: s.NA, Color: "#9aa0a6"},
			{Label: "Errors", Count: s.Error, Color: "#b80672"},
		}),
		SeverityBars: bars([]Bar{
			{Label: "Critical", Count: s.Critical, Color: "#b80672"},
			{Label: "High", Count: s.High, Color: "#ea4335"},
			{Label: "Medium", Count: s.Medium, Color: "#fbbc05"},
			{Label: "Low", Count: s.Low, Color: "#34a853"},
		}),
	}
}

// bars scales widths against the largest count.
func bars(in []Bar) []Bar {
	peak := 0
	for _, b := range in {
		if b.Count > peak {
			peak = b.Count
		}
	}
	for i := range in {
		if peak > 0 {
			in[i].Width = in[i].Count * maxBarWidth / peak
		}
	}
	return in
}

// HTML writes a self-contained HTML page.
func HTML(w io.Writer, r *scan.Report) error {
	return executeTemplate(w, htmlReportTemplate, buildTemplateData(r))
}

// Markdown writes a Markdown document.
func Markdown(w io.Writer, r *scan.Report) error {
	return executeTemplate(w, markdownReportTemplate, buildTemplateData(r))
}

type executor interface {
	Execute(w io.Writer, data any) error
	Name() string
}

func executeTemplate(w io.Writer, tmpl executor, data TemplateData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute %s template: %w", tmpl.Name(), err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func upper(v any) string {
	return strings.ToUpper(fmt.Sprint(v))
}

func bandClass(b scan.RiskBand) string {
	switch b {
	case scan.LowRisk:
		return "band-low"
	case scan.MediumRisk:
		return "band-medium"
	case scan.HighRisk:
		return "band-high"
	default:
		return "band-critical"
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", "&lt;", ">", "&gt;", "#", `\#`, "|", `\|`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(strings.Join(strings.Fields(s), " "))
}

func markdownCell(s string) string {
	return escapeMarkdown(oneLine(s))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1f min", d.Minutes())
}
