package rules

import (
	"strings"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

// cspHeader passes on a CSP meta tag, or on a CSP response header when headers
// were observed. The meta tag alone decides when headers are missing.
func cspHeader() scan.Rule {
	return pageRule("CSP Header", "Checks for Content Security Policy", func(pc *scan.PageContext) scan.Outcome {
		doc := pc.Document
		detected := len(doc.MetaHTTPEquiv("Content-Security-Policy")) > 0 ||
			len(doc.MetaHTTPEquiv("Content-Security-Policy-Report-Only")) > 0
		if !detected && pc.Headers != nil && !pc.Headers.Unavailable {
			detected = pc.Headers.Has("content-security-policy") || pc.Headers.Has("content-security-policy-report-only")
		}
		if detected {
			return scan.Outcome{Status: scan.StatusPass, Details: "CSP detected"}
		}
		return scan.Outcome{
			Status:    scan.StatusFail,
			Details:   "No CSP header detected",
			Severity:  scan.High,
			Fix:       "Implement Content Security Policy",
			Reference: "https://developer.mozilla.org/en-US/docs/Web/HTTP/CSP",
		}
	})
}

func xssProtection() scan.Rule {
	return headerRule("XSS Protection", "Checks X-XSS-Protection header", func(h *scan.Headers) scan.Outcome {
		v := h.Get("x-xss-protection")
		if v == "" {
			return scan.Outcome{
				Status:   scan.StatusFail,
				Details:  "Missing X-XSS-Protection header",
				Severity: scan.Medium,
				Fix:      "Add 'X-XSS-Protection: 1; mode=block' header",
			}
		}
		if strings.Contains(v, "mode=block") {
			return scan.Outcome{Status: scan.StatusPass, Details: "XSS Protection: " + v}
		}
		return scan.Outcome{
			Status:  scan.StatusWarn,
			Details: "XSS Protection: " + v,
			Fix:     "Set to '1; mode=block'",
		}
	})
}

func referrerPolicy() scan.Rule {
	return headerRule("Referrer Policy", "Checks for Referrer-Policy header", func(h *scan.Headers) scan.Outcome {
		if v := h.Get("referrer-policy"); v != "" {
			return scan.Outcome{Status: scan.StatusPass, Details: "Referrer-Policy: " + v}
		}
		return scan.Outcome{
			Status:   scan.StatusWarn,
			Details:  "Missing Referrer-Policy header",
			Severity: scan.Low,
			Fix:      "Set Referrer-Policy: strict-origin-when-cross-origin",
		}
	})
}

func permissionsPolicy() scan.Rule {
	return headerRule("Permissions Policy", "Checks for Permissions-Policy header", func(h *scan.Headers) scan.Outcome {
		if v := h.Get("permissions-policy"); v != "" {
			return scan.Outcome{Status: scan.StatusPass, Details: "Permissions-Policy: " + v}
		}
		return scan.Outcome{
			Status:   scan.StatusWarn,
			Details:  "Missing Permissions-Policy header",
			Severity: scan.Medium,
			Fix:      "Implement least-privilege permissions policy",
		}
	})
}

func clickjackingProtection() scan.Rule {
	return headerRule("Clickjacking Protection", "Checks for X-Frame-Options header", func(h *scan.Headers) scan.Outcome {
		if v := h.Get("x-frame-options"); v != "" {
			return scan.Outcome{Status: scan.StatusPass, Details: "X-Frame-Options: " + v}
		}
		return scan.Outcome{
			Status:   scan.StatusFail,
			Details:  "Missing X-Frame-Options header",
			Severity: scan.High,
			Fix:      "Set X-Frame-Options: DENY or SAMEORIGIN",
		}
	})
}

func serverHeader() scan.Rule {
	return headerRule("Server Header", "Checks for Server header disclosure", func(h *scan.Headers) scan.Outcome {
		if v := h.Get("server"); v != "" {
			return scan.Outcome{
				Status:   scan.StatusWarn,
				Details:  "Server header exposed: " + v,
				Severity: scan.Low,
				Fix:      "Remove Server header from responses",
			}
		}
		return scan.Outcome{Status: scan.StatusPass, Details: "No Server header exposed"}
	})
}
