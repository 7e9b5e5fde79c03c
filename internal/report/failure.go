package report

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

const (
	failureTitle          = "Scan Failed"
	failureRecommendation = "Try refreshing the page and scanning again."
)

// FailureDocument is the structured form of a whole-scan failure.
type FailureDocument struct {
	URL            string    `json:"url" yaml:"url"`
	Test           string    `json:"test" yaml:"test"`
	Status         string    `json:"status" yaml:"status"`
	Error          string    `json:"error" yaml:"error"`
	Recommendation string    `json:"recommendation" yaml:"recommendation"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewFailure describes err for target at time at.
func NewFailure(target string, err error, at time.Time) FailureDocument {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return FailureDocument{
		URL:            target,
		Test:           failureTitle,
		Status:         "error",
		Error:          msg,
		Recommendation: failureRecommendation,
		Timestamp:      at,
	}
}

var failureHTMLTemplate = htmltemplate.Must(htmltemplate.New("failure.html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Vigilante Security Scan Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; color: #202124; margin: 2rem; }
.finding { border-left: 4px solid #b80672; padding: .5rem 1rem; background: #fdf2f8; }
.status { color: #b80672; font-weight: bold; }
</style>
</head>
<body>
<h1>Vigilante Security Scan Report</h1>
<p>Scanned URL: {{ .URL }}<br>Generated: {{ .Generated }}</p>
<div class="finding">
<h2>{{ .Test }} <span class="status">ERROR</span></h2>
<p>{{ .Error }}</p>
<p><strong>Recommendation:</strong> {{ .Recommendation }}</p>
</div>
</body>
</html>
`))

// Failure renders a whole-scan failure in format f. There is no score or summary.
func Failure(w io.Writer, f Format, doc FailureDocument, opts Options) error {
	switch f {
	case FormatText, FormatTable, "":
		p := newPalette(opts.Color)
		var b strings.Builder
		fmt.Fprintln(&b, p.bold("Vigilante Security Scan Report"))
		fmt.Fprintf(&b, "URL:       %s\n\n", doc.URL)
		fmt.Fprintf(&b, "[%s] %s\n", p.errc("ERROR"), p.bold(doc.Test))
		fmt.Fprintf(&b, "    %s\n", doc.Error)
		fmt.Fprintf(&b, "    Recommendation: %s\n", doc.Recommendation)
		_, err := io.WriteString(w, b.String())
		return err
	case FormatJSON:
		return encodeJSON(w, doc)
	case FormatYAML:
		return encodeYAML(w, doc)
	case FormatHTML:
		var buf bytes.Buffer
		data := struct {
			FailureDocument
			Generated string
		}{doc, formatTimestamp(doc.Timestamp)}
		if err := failureHTMLTemplate.Execute(&buf, data); err != nil {
			return fmt.Errorf("failed to execute %s template: %w", failureHTMLTemplate.Name(), err)
		}
		_, err := buf.WriteTo(w)
		return err
	case FormatMarkdown:
		_, err := fmt.Fprintf(w, "# Vigilante Security Scan Report\n\n- **Scanned URL:** %s\n- **Generated:** %s\n\n## %s (ERROR)\n\n%s\n\n**Recommendation:** %s\n",
			escapeMarkdown(doc.URL), formatTimestamp(doc.Timestamp), doc.Test, escapeMarkdown(doc.Error), doc.Recommendation)
		return err
	case FormatPDF:
		return failurePDF(w, doc)
	default:
		return fmt.Errorf("%w: %q", sharedErrors.ErrInvalidFormat, f)
	}
}

func failurePDF(w io.Writer, doc FailureDocument) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Vigilante Security Scan Report", true)
	pdf.AddPage()

	setColor(pdf.SetTextColor, colorHeading)
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "Vigilante Security Scan Report", "", 1, "L", false, 0, "")
	setColor(pdf.SetTextColor, colorBodyText)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, tr("Scanned URL: "+doc.URL), "", "", false)
	pdf.Ln(4)

	setColor(pdf.SetTextColor, colorError)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, doc.Test+" - ERROR", "", 1, "", false, 0, "")
	setColor(pdf.SetTextColor, colorBodyText)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, tr(doc.Error), "", "", false)
	pdf.SetFont("Arial", "B", 9)
	pdf.MultiCell(0, 5, tr("Recommendation: "+doc.Recommendation), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
