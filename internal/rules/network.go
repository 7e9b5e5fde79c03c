package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

var insecureWebSocket = regexp.MustCompile(`new WebSocket\(['"]ws:`)

func mixedContent() scan.Rule {
	return documentRule("Mixed Content", "Detects HTTP resources on HTTPS pages", func(doc *page.Snapshot) scan.Outcome {
		if !doc.IsHTTPS() {
			return scan.Outcome{Status: scan.StatusNA, Details: "Page not HTTPS"}
		}
		var insecure []string
		for _, r := range doc.Resources {
			if strings.HasPrefix(r.Name, "http://") && !strings.HasPrefix(r.Name, "http://localhost") {
				insecure = append(insecure, r.Name)
			}
		}
		if len(insecure) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "All resources secure"}
		}
		return scan.Outcome{
			Status:    scan.StatusFail,
			Details:   fmt.Sprintf("%d insecure requests", len(insecure)),
			Severity:  scan.High,
			Fix:       "Use HTTPS for all resources",
			Examples:  firstN(insecure, 3),
			Reference: "https://web.dev/what-is-mixed-content/",
		}
	})
}

func hstsValidation() scan.Rule {
	return headerRule("HSTS Validation", "Checks for Strict-Transport-Security header", func(h *scan.Headers) scan.Outcome {
		if v := h.Get("strict-transport-security"); v != "" {
			return scan.Outcome{Status: scan.StatusPass, Details: "HSTS: " + v}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  "Missing HSTS header",
			Severity: scan.High,
			Fix:      "Add Strict-Transport-Security header",
		}
	})
}

func webSocketSecurity() scan.Rule {
	return documentRule("WebSocket Security", "Checks for insecure WebSocket connections (ws://)", func(doc *page.Snapshot) scan.Outcome {
		count := 0
		for _, s := range doc.Scripts {
			if insecureWebSocket.MatchString(s.Text) {
				count++
			}
		}
		if count == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No insecure WebSockets"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d insecure WebSocket connections", count),
			Severity: scan.Critical,
			Fix:      "Use wss:// for all WebSocket connections",
		}
	})
}
