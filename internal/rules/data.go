package rules

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

func cookieSecurity() scan.Rule {
	return documentRule("Cookie Security", "Checks for Secure/HttpOnly cookie flags", func(doc *page.Snapshot) scan.Outcome {
		var insecure []string
		for _, c := range doc.Cookies {
			if !c.Secure || !c.HTTPOnly {
				insecure = append(insecure, c.Name+"="+c.Value)
			}
		}
		if len(insecure) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "All cookies secure"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d insecure cookies", len(insecure)),
			Severity: scan.High,
			Fix:      "Add Secure and HttpOnly flags to cookies",
			Examples: firstN(insecure, 3),
		}
	})
}

func passwordFields() scan.Rule {
	return documentRule("Password Fields", "Checks for insecure password fields", func(doc *page.Snapshot) scan.Outcome {
		var insecure []string
		for _, in := range doc.PasswordInputs {
			if in.InForm && strings.HasPrefix(in.FormAction, "http://") {
				insecure = append(insecure, firstNonEmpty("unnamed", in.Name, in.ID))
			}
		}
		if len(insecure) > 0 {
			return scan.Outcome{
				Status:   scan.StatusFail,
				Details:  fmt.Sprintf("%d password fields submitted over HTTP", len(insecure)),
				Severity: scan.Critical,
				Fix:      "Ensure all forms with password fields use HTTPS",
				Examples: firstN(insecure, 3),
			}
		}
		if len(doc.PasswordInputs) == 0 {
			return scan.Outcome{Status: scan.StatusNA, Details: "No password fields found"}
		}
		return scan.Outcome{
			Status:  scan.StatusPass,
			Details: fmt.Sprintf("%d password fields found (all secure)", len(doc.PasswordInputs)),
		}
	})
}

func passwordVisibility() scan.Rule {
	return documentRule("Password Visibility", "Checks if passwords are visible in DOM", func(doc *page.Snapshot) scan.Outcome {
		count := 0
		for _, in := range doc.PasswordInputs {
			if in.HasValue {
				count++
			}
		}
		if count == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No exposed passwords"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d password fields with visible values", count),
			Severity: scan.High,
			Fix:      "Ensure passwords aren't pre-filled in HTML",
		}
	})
}

func passwordAutocomplete() scan.Rule {
	return documentRule("Password Autocomplete", "Checks password fields have autocomplete=off", func(doc *page.Snapshot) scan.Outcome {
		count := 0
		for _, in := range doc.PasswordInputs {
			if in.Autocomplete != "off" {
				count++
			}
		}
		if count == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "Password fields secured"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d password fields allow autocomplete", count),
			Severity: scan.Medium,
			Fix:      "Add autocomplete='off' to password fields",
		}
	})
}
