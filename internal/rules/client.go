package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

// vulnerableLibrary is one entry of the known-vulnerable library table.
type vulnerableLibrary struct {
	key        string // snapshot library key
	name       string
	fixedIn    string
	cves       []string
	severity   scan.Severity
	desc       string
	suggestion string
}

// knownVulnerableLibraries is a curated list of widely exploited releases.
var knownVulnerableLibraries = []vulnerableLibrary{
	{"jquery", "jQuery", "3.5.0", []string{"CVE-2020-11022", "CVE-2020-11023"}, scan.High,
		"XSS in htmlPrefilter", "Update jQuery to version 3.5.0 or later"},
	{"angularjs", "AngularJS", "1.7.9", []string{"CVE-2019-10768"}, scan.Critical,
		"prototype pollution", "Update AngularJS to 1.7.9+ or migrate to Angular 2+"},
	{"lodash", "Lodash", "4.17.12", []string{"CVE-2019-10744"}, scan.Critical,
		"prototype pollution", "Update Lodash to version 4.17.12 or later"},
	{"moment", "Moment.js", "2.29.2", []string{"CVE-2022-24785"}, scan.High,
		"path traversal in locale loading", "Update to 2.29.2+ or migrate to date-fns or Luxon"},
	{"bootstrap", "Bootstrap", "3.4.0", []string{"CVE-2019-8331"}, scan.Medium,
		"XSS in tooltip/popover", "Update Bootstrap to version 3.4.0 or later"},
}

func knownVulnerableLibrariesRule() scan.Rule {
	return documentRule("Known Vulnerable Libraries", "Matches detected library versions against published CVEs", func(doc *page.Snapshot) scan.Outcome {
		var found []string
		var fixes []string
		worst := scan.Severity("")
		for _, lib := range knownVulnerableLibraries {
			version, ok := doc.Library(lib.key)
			if !ok || compareVersion(version, lib.fixedIn) >= 0 {
				continue
			}
			found = append(found, fmt.Sprintf("%s %s: %s (%s)", lib.name, version, lib.desc, strings.Join(lib.cves, ", ")))
			fixes = append(fixes, lib.suggestion)
			if lib.severity.Weight() > worst.Weight() {
				worst = lib.severity
			}
		}
		if len(found) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No known vulnerable library versions"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d libraries with known CVEs", len(found)),
			Severity: worst,
			Examples: found,
			Fix:      strings.Join(fixes, "; "),
		}
	})
}

var (
	csrfMetaNames   = []string{"csrf-token", "_csrf", "xsrf-token", "csrf-param"}
	csrfFieldNames  = []string{"csrf", "_csrf", "csrfmiddlewaretoken", "authenticity_token", "__requestverificationtoken", "_token"}
	csrfCookieNames = []string{"xsrf-token", "csrf_token", "csrftoken"}
)

// csrfProtection grades POST forms by the token and SameSite defences the page shows.
func csrfProtection() scan.Rule {
	return documentRule("CSRF Protection", "Checks state-changing forms for CSRF defences", func(doc *page.Snapshot) scan.Outcome {
		var unprotected []string
		posts := 0
		for _, f := range doc.Forms {
			if f.Method != "post" {
				continue
			}
			posts++
			if !formHasToken(f) {
				unprotected = append(unprotected, firstNonEmpty(f.Action, f.ID, f.Name))
			}
		}
		if posts == 0 {
			return scan.Outcome{Status: scan.StatusNA, Details: "No POST forms found"}
		}

		var mechanisms []string
		if metaHasToken(doc.Metas) {
			mechanisms = append(mechanisms, "meta")
		}
		if len(unprotected) < posts {
			mechanisms = append(mechanisms, "form")
		}
		if cookieNamed(doc.Cookies, csrfCookieNames) {
			mechanisms = append(mechanisms, "cookie")
		}
		sameSite := false
		for _, c := range doc.Cookies {
			if c.SameSite != "" && !strings.EqualFold(c.SameSite, "none") {
				sameSite = true
			}
		}
		sort.Strings(mechanisms)

		switch {
		case len(unprotected) == 0 || (len(mechanisms) > 0 && sameSite):
			return scan.Outcome{Status: scan.StatusPass, Details: "CSRF protection: " + strings.Join(append(mechanisms, sameSiteLabel(sameSite)...), ", ")}
		case len(mechanisms) > 0 || sameSite:
			return scan.Outcome{
				Status:   scan.StatusWarn,
				Details:  fmt.Sprintf("%d POST forms without CSRF tokens", len(unprotected)),
				Severity: scan.Low,
				Examples: firstN(unprotected, 3),
				Fix:      "Add CSRF tokens to forms and SameSite=Lax or Strict to session cookies",
			}
		default:
			return scan.Outcome{
				Status:    scan.StatusFail,
				Details:   "No CSRF protection mechanisms detected",
				Severity:  scan.Medium,
				Examples:  firstN(unprotected, 3),
				Fix:       "Implement CSRF tokens using synchronizer token pattern or double-submit cookie",
				Reference: "https://owasp.org/www-community/attacks/csrf",
			}
		}
	})
}

func sameSiteLabel(sameSite bool) []string {
	if sameSite {
		return []string{"SameSite cookies"}
	}
	return nil
}

func formHasToken(f page.Form) bool {
	for _, field := range f.Fields {
		name := strings.ToLower(field.Name)
		for _, token := range csrfFieldNames {
			if name == token {
				return true
			}
		}
		if field.Type == "hidden" && (strings.Contains(name, "csrf") || strings.Contains(name, "xsrf")) {
			return true
		}
	}
	return false
}

func metaHasToken(metas []page.Meta) bool {
	for _, m := range metas {
		for _, name := range csrfMetaNames {
			if strings.EqualFold(m.Name, name) && m.Content != "" {
				return true
			}
		}
	}
	return false
}

func cookieNamed(cookies []page.Cookie, names []string) bool {
	for _, c := range cookies {
		for _, name := range names {
			if strings.EqualFold(c.Name, name) {
				return true
			}
		}
	}
	return false
}
