package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/khanhnv2901/vigilante/internal/scan"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// Catalog lists rules as a table, JSON, YAML or Markdown.
func Catalog(w io.Writer, f Format, rules []scan.RuleInfo) error {
	switch f {
	case FormatTable, FormatText, "":
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tRULE\tDESCRIPTION")
		for _, r := range rules {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", r.Order, r.Name, oneLine(r.Description))
		}
		return tw.Flush()
	case FormatJSON:
		return encodeJSON(w, rules)
	case FormatYAML:
		return encodeYAML(w, rules)
	case FormatMarkdown:
		if _, err := fmt.Fprintln(w, "| # | Rule | Description |\n|---|------|-------------|"); err != nil {
			return err
		}
		for _, r := range rules {
			if _, err := fmt.Fprintf(w, "| %d | %s | %s |\n", r.Order, escapeMarkdown(r.Name), escapeMarkdown(r.Description)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: rules cannot be listed as %q", sharedErrors.ErrInvalidFormat, f)
	}
}
