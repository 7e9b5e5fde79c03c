package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

type rgb struct{ r, g, b int }

var (
	colorPass     = rgb{52, 168, 83}
	colorFail     = rgb{234, 67, 53}
	colorWarn     = rgb{251, 188, 5}
	colorNA       = rgb{154, 160, 166}
	colorError    = rgb{184, 6, 114}
	colorHeading  = rgb{26, 115, 232}
	colorBodyText = rgb{32, 33, 36}
)

func statusColor(s scan.Status) rgb {
	switch s {
	case scan.StatusPass:
		return colorPass
	case scan.StatusFail:
		return colorFail
	case scan.StatusWarn:
		return colorWarn
	case scan.StatusNA:
		return colorNA
	default:
		return colorError
	}
}

func bandColor(b scan.RiskBand) rgb {
	switch b {
	case scan.LowRisk:
		return colorPass
	case scan.MediumRisk:
		return colorWarn
	case scan.HighRisk:
		return colorFail
	default:
		return colorError
	}
}

// PDF writes an A4 report with charts, the findings list and page numbers.
func PDF(w io.Writer, r *scan.Report) error {
	data, err := generatePDFReportBytes(r)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func generatePDFReportBytes(r *scan.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Vigilante Security Scan Report", true)
	pdf.SetCreator("vigilante", true)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("{nb}")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(95, 99, 104)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Title
	setColor(pdf.SetTextColor, colorHeading)
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "Vigilante Security Scan Report", "", 1, "L", false, 0, "")
	setColor(pdf.SetTextColor, colorBodyText)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("Generated: "+formatTimestamp(r.CompletedAt)), "", 1, "", false, 0, "")
	pdf.MultiCell(0, 6, tr("Scanned URL: "+r.URL), "", "", false)
	pdf.Ln(4)

	// Risk score
	setColor(pdf.SetTextColor, bandColor(r.Band))
	pdf.SetFont("Arial", "B", 28)
	pdf.CellFormat(0, 14, fmt.Sprintf("%d/100", r.Score), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, string(r.Band), "", 1, "C", false, 0, "")
	setColor(pdf.SetTextColor, colorBodyText)
	pdf.Ln(4)

	data := buildTemplateData(r)
	drawBarChart(pdf, "Scan Results by Status", data.StatusBars)
	drawBarChart(pdf, "Findings by Severity Level", data.SeverityBars)

	// Summary
	s := r.Summary
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Scan Summary", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Passed: %d | Failed: %d | Warnings: %d | N/A: %d | Errors: %d",
		s.Pass, s.Fail, s.Warn, s.NA, s.Error), "", 1, "", false, 0, "")
	pdf.Ln(4)

	// Findings
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Detailed Results", "", 1, "", false, 0, "")
	pdf.Ln(1)
	for _, f := range data.Findings {
		if pdf.GetY() > 255 {
			pdf.AddPage()
		}
		c := statusColor(f.Status)
		setColor(pdf.SetFillColor, c)
		pdf.Rect(pdf.GetX(), pdf.GetY(), 2, 7, "F")
		pdf.SetX(pdf.GetX() + 4)

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(140, 7, tr(f.Test), "", 0, "", false, 0, "")
		setColor(pdf.SetTextColor, c)
		pdf.CellFormat(0, 7, strings.ToUpper(string(f.Status)), "", 1, "R", false, 0, "")
		setColor(pdf.SetTextColor, colorBodyText)

		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 4, tr(f.Description), "", "", false)
		pdf.SetFont("Arial", "", 9)
		details := f.Details
		if f.Severity != "" {
			details += " [" + strings.ToUpper(string(f.Severity)) + "]"
		}
		pdf.MultiCell(0, 5, tr(details), "", "", false)
		if f.Fix != "" {
			pdf.SetFont("Arial", "B", 8)
			pdf.MultiCell(0, 4, tr("Recommendation: "+f.Fix), "", "", false)
		}
		if f.Reference != "" {
			pdf.SetFont("Arial", "", 8)
			pdf.MultiCell(0, 4, tr("Reference: "+f.Reference), "", "", false)
		}
		for i, ex := range f.Examples {
			if i == 3 {
				break
			}
			pdf.SetFont("Arial", "", 8)
			pdf.MultiCell(0, 4, tr("  - "+ex), "", "", false)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func drawBarChart(pdf *gofpdf.Fpdf, title string, bars []Bar) {
	const labelWidth, maxWidth, rowHeight = 28.0, 110.0, 6.0

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, title, "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, b := range bars {
		x, y := pdf.GetX(), pdf.GetY()
		pdf.CellFormat(labelWidth, rowHeight, b.Label, "", 0, "", false, 0, "")
		width := float64(b.Width) / maxBarWidth * maxWidth
		if width > 0 {
			setColor(pdf.SetFillColor, hexColor(b.Color))
			pdf.Rect(x+labelWidth, y+1, width, rowHeight-2, "F")
		}
		pdf.SetXY(x+labelWidth+width+2, y)
		pdf.CellFormat(0, rowHeight, fmt.Sprintf("%d", b.Count), "", 1, "", false, 0, "")
	}
	pdf.Ln(3)
}

func setColor(set func(r, g, b int), c rgb) {
	set(c.r, c.g, c.b)
}

// hexColor parses #rrggbb; anything else is grey.
func hexColor(s string) rgb {
	var c rgb
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.r, &c.g, &c.b); err != nil {
		return colorNA
	}
	return c
}

