package rules

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

func documentStandards() scan.Rule {
	return documentRule("Document Standards", "Checks document compatibility mode", func(doc *page.Snapshot) scan.Outcome {
		if doc.CompatMode == page.QuirksMode {
			return scan.Outcome{
				Status:    scan.StatusFail,
				Details:   "Document in quirks mode",
				Severity:  scan.Medium,
				Fix:       "Add proper DOCTYPE declaration",
				Reference: "https://developer.mozilla.org/en-US/docs/Web/HTML/Quirks_Mode_and_Standards_Mode",
			}
		}
		return scan.Outcome{Status: scan.StatusPass, Details: "Document mode: " + doc.CompatMode}
	})
}

func documentWriteUsage() scan.Rule {
	return documentRule("document.write() Usage", "Detects dangerous document.write() calls", func(doc *page.Snapshot) scan.Outcome {
		count := 0
		for _, s := range doc.Scripts {
			if strings.Contains(s.Text, "document.write(") {
				count++
			}
		}
		if count == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No document.write() usage"}
		}
		return scan.Outcome{
			Status:    scan.StatusFail,
			Details:   fmt.Sprintf("%d scripts use document.write()", count),
			Severity:  scan.Medium,
			Fix:       "Replace with DOM manipulation methods",
			Reference: "https://developer.mozilla.org/en-US/docs/Web/API/Document/write",
		}
	})
}

func formActionSecurity() scan.Rule {
	return documentRule("Form Action Security", "Checks form submission targets", func(doc *page.Snapshot) scan.Outcome {
		var actions []string
		for _, f := range doc.Forms {
			if strings.HasPrefix(f.Action, "http://") {
				actions = append(actions, f.Action)
			}
		}
		if len(actions) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "All forms use secure submission"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d forms submit via HTTP", len(actions)),
			Severity: scan.High,
			Fix:      "Use HTTPS for all form actions",
			Examples: firstN(actions, 3),
		}
	})
}
