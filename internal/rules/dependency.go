package rules

import (
	"fmt"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

const jqueryNVDReference = "https://nvd.nist.gov/vuln/search/results?form_type=Advanced&results_type=overview&search_type=all&cpe_vendor=cpe%3A%2F%3Ajquery&cpe_product=cpe%3A%2F%3Ajquery%3Ajquery"

// jqueryVulnerableRanges is checked in order; the first upper bound the
// detected version does not exceed decides the severity.
var jqueryVulnerableRanges = []struct {
	max      string
	severity scan.Severity
}{
	{"1.4.4", scan.Critical},
	{"1.6.4", scan.High},
	{"1.9.1", scan.Medium},
	{"2.2.4", scan.Medium},
}

func jqueryVersion() scan.Rule {
	return documentRule("jQuery Version", "Checks for vulnerable jQuery versions", func(doc *page.Snapshot) scan.Outcome {
		version, ok := doc.Library("jquery")
		if !ok {
			return scan.Outcome{Status: scan.StatusNA, Details: "jQuery not used"}
		}
		for _, r := range jqueryVulnerableRanges {
			if compareVersion(version, r.max) <= 0 {
				return scan.Outcome{
					Status:    scan.StatusFail,
					Details:   fmt.Sprintf("Vulnerable v%s (%s risk)", version, r.severity),
					Severity:  r.severity,
					Fix:       "Upgrade to jQuery 3.6.0+",
					Reference: jqueryNVDReference,
				}
			}
		}
		return scan.Outcome{Status: scan.StatusPass, Details: fmt.Sprintf("Secure v%s", version)}
	})
}

func outdatedLibraries() scan.Rule {
	return documentRule("Outdated Libraries", "Detects known vulnerable library versions", func(doc *page.Snapshot) scan.Outcome {
		var vulnerable []string
		if v, ok := doc.Library("react"); ok && compareVersion(v, "16.8.0") < 0 {
			vulnerable = append(vulnerable, "React v"+v)
		}
		if v, ok := doc.Library("angularjs"); ok && compareVersion(v, "1.8.0") < 0 {
			vulnerable = append(vulnerable, "AngularJS v"+v)
		}
		if len(vulnerable) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No outdated libraries detected"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d outdated libraries", len(vulnerable)),
			Severity: scan.High,
			Examples: vulnerable,
			Fix:      "Update to latest stable versions",
		}
	})
}
