package rules

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

func sriValidation() scan.Rule {
	return documentRule("SRI Validation", "Checks for missing SRI on scripts/styles", func(doc *page.Snapshot) scan.Outcome {
		count := 0
		for _, s := range doc.Scripts {
			if s.Src != "" && s.Integrity == "" {
				count++
			}
		}
		for _, l := range doc.Stylesheets {
			if l.Integrity == "" {
				count++
			}
		}
		if count == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "All external resources use SRI"}
		}
		return scan.Outcome{
			Status:    scan.StatusFail,
			Details:   fmt.Sprintf("%d resources without SRI", count),
			Severity:  scan.Medium,
			Fix:       "Add integrity attributes to external resources",
			Reference: "https://developer.mozilla.org/en-US/docs/Web/Security/Subresource_Integrity",
		}
	})
}

func thirdPartyScripts() scan.Rule {
	return documentRule("Third-Party Scripts", "Detects potentially risky third-party scripts", func(doc *page.Snapshot) scan.Outcome {
		origin := doc.Origin()
		var hosts []string
		for _, s := range doc.Scripts {
			if s.Src == "" || sameOrigin(s.Src, origin) {
				continue
			}
			u, err := url.Parse(s.Src)
			if err != nil {
				continue
			}
			hosts = append(hosts, u.Hostname())
		}
		if len(hosts) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No third-party scripts detected"}
		}
		return scan.Outcome{
			Status:    scan.StatusWarn,
			Details:   fmt.Sprintf("%d third-party scripts loaded", len(hosts)),
			Severity:  scan.Low,
			Examples:  firstN(unique(hosts), 5),
			Reference: "https://web.dev/third-party-scripts/",
		}
	})
}

func sameOrigin(src, origin string) bool {
	if origin == "" {
		return false
	}
	return src == origin || strings.HasPrefix(src, origin+"/") || strings.HasPrefix(src, origin+"?") || strings.HasPrefix(src, origin+"#")
}
