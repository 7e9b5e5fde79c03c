package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

// Table writes one row per finding.
func Table(w io.Writer, r *scan.Report) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", RiskLine(r), SummaryLine(r.Summary)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTEST\tSTATUS\tSEVERITY\tDETAILS")
	for i, f := range r.Findings {
		severity := string(f.Severity)
		if severity == "" {
			severity = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, f.Test, strings.ToUpper(string(displayStatus(f.Status))), severity, oneLine(f.Details))
	}
	return tw.Flush()
}

func oneLine(s string) string {
	runes := []rune(strings.Join(strings.Fields(s), " "))
	if len(runes) > 80 {
		return string(runes[:77]) + "..."
	}
	return string(runes)
}
