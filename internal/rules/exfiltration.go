package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

var (
	webSocketOpen       = regexp.MustCompile(`new WebSocket\(['"][^'"]+['"]\)`)
	webSocketSensitive  = regexp.MustCompile(`(?i)\.send\(.*(password|email|credit|card|ssn|personal)`)
	sensitiveStorageKey = regexp.MustCompile(`(?i)password|token|auth|secret|credit|card|cvv|ssn`)
	canvasFingerprint   = regexp.MustCompile(`(?i)canvas.*getContext|toDataURL|measureText|getImageData`)
	webglFingerprint    = regexp.MustCompile(`(?i)WebGL.*getParameter|getExtension|readPixels`)
	trackingElement     = regexp.MustCompile(`(?i)track|pixel|beacon|analytics|collect`)
	trackingRequest     = regexp.MustCompile(`(?i)track|pixel|beacon|analytics|collect|log`)
)

var fingerprintGlobals = []string{"Fingerprint2", "fpjs", "ClientJS"}

func hiddenDataCollection() scan.Rule {
	return documentRule("Hidden Data Collection", "Detects hidden forms/iframes that might collect data", func(doc *page.Snapshot) scan.Outcome {
		var hidden []string
		for _, f := range doc.Forms {
			if f.Hidden {
				hidden = append(hidden, firstNonEmpty("unnamed", f.ID, f.Name))
			}
		}
		if len(hidden) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No suspicious hidden forms"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d hidden forms detected", len(hidden)),
			Severity: scan.High,
			Examples: firstN(hidden, 3),
			Fix:      "Investigate hidden forms for potential data collection",
		}
	})
}

func beaconTracking() scan.Rule {
	return documentRule("Beacon Tracking", "Checks for navigator.sendBeacon() usage", func(doc *page.Snapshot) scan.Outcome {
		count := 0
		for _, s := range doc.Scripts {
			if strings.Contains(s.Text, "navigator.sendBeacon(") {
				count++
			}
		}
		if count == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No beacon tracking detected"}
		}
		return scan.Outcome{
			Status:    scan.StatusWarn,
			Details:   fmt.Sprintf("%d scripts use sendBeacon()", count),
			Severity:  scan.Medium,
			Fix:       "Review beacon destinations for sensitive data",
			Reference: "https://developer.mozilla.org/en-US/docs/Web/API/Navigator/sendBeacon",
		}
	})
}

func webSocketExfiltration() scan.Rule {
	return documentRule("WebSocket Data Exfiltration", "Checks for WebSocket connections sending sensitive data", func(doc *page.Snapshot) scan.Outcome {
		var matches []string
		for _, s := range doc.Scripts {
			if webSocketOpen.MatchString(s.Text) && webSocketSensitive.MatchString(s.Text) {
				matches = append(matches, firstNonEmpty("inline script", s.Src))
			}
		}
		if len(matches) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No suspicious WebSocket usage"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d WebSocket connections with potential sensitive data", len(matches)),
			Severity: scan.Critical,
			Fix:      "Encrypt sensitive data before WebSocket transmission",
			Examples: firstN(matches, 2),
		}
	})
}

func localStorageSensitiveData() scan.Rule {
	return storageRule("Local Storage Sensitive Data", "Checks for sensitive data in localStorage",
		"localStorage", "LocalStorage", func(doc *page.Snapshot) page.Storage { return doc.LocalStorage })
}

func sessionStorageSensitiveData() scan.Rule {
	return storageRule("Session Storage Sensitive Data", "Checks for sensitive data in sessionStorage",
		"sessionStorage", "SessionStorage", func(doc *page.Snapshot) page.Storage { return doc.SessionStorage })
}

// storageRule flags storage keys that look like credentials or payment data.
// area is the JavaScript name of the storage object; label starts error details.
func storageRule(name, description, area, label string, pick func(*page.Snapshot) page.Storage) scan.Rule {
	return documentRule(name, description, func(doc *page.Snapshot) scan.Outcome {
		store := pick(doc)
		if !store.Captured {
			return scan.Outcome{Status: scan.StatusNA, Details: area + " not captured in this scan mode"}
		}
		if store.Error != "" {
			return scan.Outcome{Status: scan.StatusError, Details: label + " access denied"}
		}
		var sensitive []string
		for _, key := range store.Keys {
			if sensitiveStorageKey.MatchString(key) {
				sensitive = append(sensitive, key)
			}
		}
		if len(sensitive) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No sensitive data in " + area}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d sensitive items in %s", len(sensitive), area),
			Severity: scan.High,
			Examples: firstN(sensitive, 3),
			Fix:      "Remove sensitive data from " + area + ", use secure HTTP-only cookies",
		}
	})
}

func browserFingerprinting() scan.Rule {
	return documentRule("Browser Fingerprinting", "Detects common fingerprinting techniques", func(doc *page.Snapshot) scan.Outcome {
		var techniques []string
		for _, g := range fingerprintGlobals {
			if doc.HasGlobal(g) {
				techniques = append(techniques, "Fingerprinting library detected")
				break
			}
		}
		if anyScript(doc, canvasFingerprint) {
			techniques = append(techniques, "Canvas fingerprinting detected")
		}
		if anyScript(doc, webglFingerprint) {
			techniques = append(techniques, "WebGL fingerprinting detected")
		}
		if len(techniques) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No fingerprinting detected"}
		}
		return scan.Outcome{
			Status:    scan.StatusWarn,
			Details:   fmt.Sprintf("%d fingerprinting techniques detected", len(techniques)),
			Severity:  scan.Medium,
			Examples:  techniques,
			Fix:       "Consider blocking fingerprinting scripts if not essential",
			Reference: "https://coveryourtracks.eff.org/",
		}
	})
}

func backgroundDataExfiltration() scan.Rule {
	return documentRule("Background Data Exfiltration", "Detects hidden tracking pixels and background data collection", func(doc *page.Snapshot) scan.Outcome {
		var pixels []string
		for _, el := range doc.Elements {
			tiny := el.Measured && el.Width <= 1 && el.Height <= 1
			if tiny || trackingElement.MatchString(el.Src) {
				pixels = append(pixels, firstNonEmpty("hidden element", el.Src))
			}
		}
		var requests []string
		for _, r := range doc.Resources {
			if trackingRequest.MatchString(r.Name) && r.InitiatorType != "xmlhttprequest" {
				requests = append(requests, r.Name)
			}
		}
		total := len(pixels) + len(requests)
		if total == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No obvious data exfiltration detected"}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  fmt.Sprintf("%d potential data collection mechanisms", total),
			Severity: scan.High,
			Fix:      "Review all tracking pixels and background requests",
			Examples: append(firstN(pixels, 2), firstN(requests, 2)...),
		}
	})
}

func anyScript(doc *page.Snapshot, re *regexp.Regexp) bool {
	for _, s := range doc.Scripts {
		if re.MatchString(s.Text) {
			return true
		}
	}
	return false
}
