package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

type palette struct {
	pass, fail, warn, muted, errc, bold func(a ...interface{}) string
}

func newPalette(enabled bool) palette {
	if !enabled {
		return palette{fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint, fmt.Sprint}
	}
	sprint := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	return palette{
		pass:  sprint(color.FgGreen),
		fail:  sprint(color.FgRed),
		warn:  sprint(color.FgYellow),
		muted: sprint(color.FgHiBlack),
		errc:  sprint(color.FgMagenta),
		bold:  sprint(color.Bold),
	}
}

func (p palette) status(s scan.Status) func(a ...interface{}) string {
	switch s {
	case scan.StatusPass:
		return p.pass
	case scan.StatusFail:
		return p.fail
	case scan.StatusWarn:
		return p.warn
	case scan.StatusNA:
		return p.muted
	default:
		return p.errc
	}
}

func (p palette) band(b scan.RiskBand) func(a ...interface{}) string {
	switch b {
	case scan.LowRisk:
		return p.pass
	case scan.MediumRisk:
		return p.warn
	default:
		return p.fail
	}
}

// Text writes the report as a readable list, one block per finding.
func Text(w io.Writer, r *scan.Report, opts Options) error {
	p := newPalette(opts.Color)
	var b strings.Builder

	fmt.Fprintln(&b, p.bold("Vigilante Security Scan Report"))
	fmt.Fprintf(&b, "URL:       %s\n", r.URL)
	if ts := formatTimestamp(r.CompletedAt); ts != "" {
		fmt.Fprintf(&b, "Generated: %s\n", ts)
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, p.band(r.Band)(RiskLine(r)))
	fmt.Fprintln(&b, SummaryLine(r.Summary))
	fmt.Fprintln(&b)

	for _, f := range r.Findings {
		status := displayStatus(f.Status)
		fmt.Fprintf(&b, "[%s] %s\n", p.status(status)(strings.ToUpper(string(status))), p.bold(orDefault(f.Test, "Unknown Test")))
		fmt.Fprintf(&b, "    %s\n", orDefault(f.Description, "No description available"))
		details := orDefault(f.Details, "No details available")
		if f.Severity != "" {
			details += " " + p.status(status)("("+strings.ToUpper(string(f.Severity))+")")
		}
		fmt.Fprintf(&b, "    %s\n", details)
		if f.Fix != "" {
			fmt.Fprintf(&b, "    Recommendation: %s\n", f.Fix)
		}
		if f.Reference != "" {
			fmt.Fprintf(&b, "    Reference: %s\n", f.Reference)
		}
		for i, ex := range f.Examples {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "      • %s\n", ex)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
