package rules

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

// disclosureHeaders expose the server stack. Server itself has its own rule.
var disclosureHeaders = []string{
	"X-Powered-By",
	"X-AspNet-Version",
	"X-AspNetMvc-Version",
	"X-Generator",
}

func contentTypeOptions() scan.Rule {
	return headerRule("X-Content-Type-Options", "Checks MIME sniffing protection", func(h *scan.Headers) scan.Outcome {
		v := h.Get("x-content-type-options")
		switch {
		case v == "":
			return scan.Outcome{
				Status:   scan.StatusFail,
				Details:  "Missing X-Content-Type-Options header",
				Severity: scan.Medium,
				Fix:      "Add 'X-Content-Type-Options: nosniff'",
			}
		case strings.EqualFold(strings.TrimSpace(v), "nosniff"):
			return scan.Outcome{Status: scan.StatusPass, Details: "X-Content-Type-Options: " + v}
		default:
			return scan.Outcome{
				Status:   scan.StatusFail,
				Details:  fmt.Sprintf("Invalid X-Content-Type-Options value %q, should be 'nosniff'", v),
				Severity: scan.Medium,
				Fix:      "Set to 'nosniff'",
			}
		}
	})
}

func hstsConfiguration() scan.Rule {
	return headerRule("HSTS Configuration", "Checks Strict-Transport-Security directives", func(h *scan.Headers) scan.Outcome {
		raw := h.Get("strict-transport-security")
		if raw == "" {
			return scan.Outcome{Status: scan.StatusNA, Details: "No HSTS header to evaluate"}
		}
		value := strings.ToLower(raw)
		var issues []string
		switch {
		case !strings.Contains(value, "max-age="):
			issues = append(issues, "Missing 'max-age' directive")
		case strings.Contains(value, "max-age=0"):
			issues = append(issues, "max-age is set to 0 (HSTS disabled)")
		case !strings.Contains(value, "max-age=31536000") && !strings.Contains(value, "max-age=63072000"):
			issues = append(issues, "Consider increasing max-age to at least 31536000 (1 year)")
		}
		if !strings.Contains(value, "includesubdomains") {
			issues = append(issues, "Missing 'includeSubDomains' directive")
		}
		if !strings.Contains(value, "preload") {
			issues = append(issues, "Missing 'preload' directive (optional but recommended)")
		}
		if len(issues) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "Excellent HSTS configuration"}
		}
		sev := scan.Low
		if strings.Contains(value, "max-age=0") || !strings.Contains(value, "max-age=") {
			sev = scan.High
		}
		return scan.Outcome{
			Status:   scan.StatusWarn,
			Details:  fmt.Sprintf("%d HSTS configuration issues", len(issues)),
			Severity: sev,
			Examples: issues,
			Fix:      "Use 'max-age=31536000; includeSubDomains; preload'",
		}
	})
}

// cspQuality reviews the directives of the first policy found in headers or meta tags.
func cspQuality() scan.Rule {
	return pageRule("CSP Quality", "Checks Content Security Policy for unsafe directives", func(pc *scan.PageContext) scan.Outcome {
		policy := pc.Headers.Get("content-security-policy")
		if policy == "" {
			if metas := pc.Document.MetaHTTPEquiv("Content-Security-Policy"); len(metas) > 0 {
				policy = metas[0]
			}
		}
		if policy == "" {
			return scan.Outcome{Status: scan.StatusNA, Details: "No enforced CSP to evaluate"}
		}
		issues := cspIssues(policy)
		if len(issues) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "CSP is present with good configuration"}
		}
		return scan.Outcome{
			Status:    scan.StatusWarn,
			Details:   fmt.Sprintf("%d weak CSP directives", len(issues)),
			Severity:  scan.Medium,
			Examples:  issues,
			Fix:       "Review and strengthen your Content-Security-Policy",
			Reference: "https://developer.mozilla.org/en-US/docs/Web/HTTP/CSP",
		}
	})
}

func cspIssues(policy string) []string {
	value := strings.ToLower(policy)
	directives := parseCSPDirectives(value)
	var issues []string

	if strings.Contains(value, "'unsafe-inline'") {
		issues = append(issues, "Contains 'unsafe-inline' which weakens CSP protection")
	}
	if strings.Contains(value, "'unsafe-eval'") {
		issues = append(issues, "Contains 'unsafe-eval' which allows eval() and similar functions")
	}
	if strings.Contains(value, "*") {
		issues = append(issues, "Contains wildcard (*) which is too permissive")
	}
	if _, ok := directives["default-src"]; !ok {
		issues = append(issues, "Missing 'default-src' directive (recommended fallback)")
	}
	for _, token := range directives["script-src"] {
		switch {
		case token == "data:" || token == "blob:" || token == "filesystem:":
			issues = append(issues, "Script sources allow "+token+" URLs which can enable CSP bypasses")
		case strings.HasPrefix(token, "http:"):
			issues = append(issues, "Script sources allow insecure http scheme")
		}
	}
	return issues
}

func parseCSPDirectives(value string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(value, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		result[fields[0]] = fields[1:]
	}
	return result
}

func crossOriginIsolation() scan.Rule {
	return headerRule("Cross-Origin Isolation", "Checks Cross-Origin-Opener-Policy and Cross-Origin-Embedder-Policy", func(h *scan.Headers) scan.Outcome {
		var issues []string
		switch coop := strings.ToLower(h.Get("cross-origin-opener-policy")); coop {
		case "same-origin", "same-origin-allow-popups":
		case "":
			issues = append(issues, "Cross-Origin-Opener-Policy header missing")
		case "unsafe-none":
			issues = append(issues, "COOP is set to 'unsafe-none' which provides no protection")
		default:
			issues = append(issues, "Invalid COOP value")
		}
		switch coep := strings.ToLower(h.Get("cross-origin-embedder-policy")); coep {
		case "require-corp", "credentialless":
		case "":
			issues = append(issues, "Cross-Origin-Embedder-Policy header missing")
		case "unsafe-none":
			issues = append(issues, "COEP is set to 'unsafe-none' which provides no protection")
		default:
			issues = append(issues, "Invalid COEP value")
		}
		if len(issues) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "Cross-origin isolation enabled"}
		}
		return scan.Outcome{
			Status:   scan.StatusWarn,
			Details:  fmt.Sprintf("%d cross-origin isolation issues", len(issues)),
			Severity: scan.Low,
			Examples: issues,
			Fix:      "Add 'Cross-Origin-Opener-Policy: same-origin' and 'Cross-Origin-Embedder-Policy: require-corp'",
		}
	})
}

func deprecatedHeaders() scan.Rule {
	return headerRule("Deprecated Headers", "Checks for deprecated security headers", func(h *scan.Headers) scan.Outcome {
		var found []string
		if h.Has("expect-ct") {
			found = append(found, "Expect-CT is deprecated. Remove this header.")
		}
		if h.Has("public-key-pins") {
			found = append(found, "Public-Key-Pins (HPKP) is deprecated and dangerous. Remove this header immediately.")
		}
		if len(found) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No deprecated headers"}
		}
		return scan.Outcome{
			Status:   scan.StatusWarn,
			Details:  fmt.Sprintf("%d deprecated headers", len(found)),
			Severity: scan.Low,
			Examples: found,
			Fix:      "Remove deprecated security headers",
		}
	})
}

func informationDisclosure() scan.Rule {
	return headerRule("Information Disclosure", "Checks for headers exposing the server stack", func(h *scan.Headers) scan.Outcome {
		var exposed []string
		for _, name := range disclosureHeaders {
			if v := h.Get(name); v != "" {
				exposed = append(exposed, name+": "+v)
			}
		}
		if len(exposed) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "No technology headers exposed"}
		}
		return scan.Outcome{
			Status:   scan.StatusWarn,
			Details:  fmt.Sprintf("%d headers expose server information", len(exposed)),
			Severity: scan.Low,
			Examples: exposed,
			Fix:      "Remove or obfuscate technology disclosure headers",
		}
	})
}

func corsPolicy() scan.Rule {
	return headerRule("CORS Policy", "Checks cross-origin resource sharing headers", func(h *scan.Headers) scan.Outcome {
		origin := h.Get("access-control-allow-origin")
		if origin == "" {
			return scan.Outcome{Status: scan.StatusPass, Details: "No CORS headers exposed"}
		}
		credentials := strings.EqualFold(h.Get("access-control-allow-credentials"), "true")
		var issues []string
		if origin == "*" {
			issues = append(issues, "CORS allows any origin (*)")
			if credentials {
				issues = append(issues, "Credentials allowed with wildcard origin (disallowed by browsers)")
			}
		}
		if strings.Contains(h.Get("access-control-allow-headers"), "*") {
			issues = append(issues, "Access-Control-Allow-Headers allows any header (*)")
		}
		if strings.Contains(h.Get("access-control-expose-headers"), "*") {
			issues = append(issues, "Access-Control-Expose-Headers exposes all headers (*)")
		}
		if origin != "*" && !varyIncludesOrigin(h.Get("vary")) {
			issues = append(issues, "Vary: Origin header missing (responses may be cached incorrectly)")
		}
		if len(issues) == 0 {
			return scan.Outcome{Status: scan.StatusPass, Details: "CORS restricted to " + origin}
		}
		out := scan.Outcome{
			Status:   scan.StatusWarn,
			Details:  fmt.Sprintf("%d CORS issues", len(issues)),
			Severity: scan.Medium,
			Examples: issues,
			Fix:      "Restrict Access-Control-Allow-Origin to trusted origins",
		}
		if origin == "*" && credentials {
			out.Status = scan.StatusFail
			out.Severity = scan.High
		}
		return out
	})
}

func varyIncludesOrigin(value string) bool {
	for _, token := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(token), "origin") {
			return true
		}
	}
	return false
}

// cachePolicy flags pages with password fields that caches may store, and
// pages that send no caching headers at all.
func cachePolicy() scan.Rule {
	return pageRule("Cache Policy", "Checks caching headers of the document", func(pc *scan.PageContext) scan.Outcome {
		if out, unusable := headerGate(pc.Headers); unusable {
			return out
		}
		cc := pc.Headers.Get("cache-control")
		lower := strings.ToLower(cc)
		if len(pc.Document.PasswordInputs) > 0 && !strings.Contains(lower, "no-store") {
			return scan.Outcome{
				Status:   scan.StatusFail,
				Details:  "Page with password fields may be cached",
				Severity: scan.Medium,
				Fix:      "Send 'Cache-Control: no-store' on pages handling credentials",
			}
		}
		if cc == "" && pc.Headers.Get("expires") == "" {
			return scan.Outcome{
				Status:   scan.StatusWarn,
				Details:  "No caching headers (Cache-Control/Expires) present",
				Severity: scan.Low,
				Fix:      "Declare an explicit Cache-Control policy",
			}
		}
		if cc != "" && !strings.Contains(lower, "max-age") && !strings.Contains(lower, "no-cache") && !strings.Contains(lower, "no-store") {
			return scan.Outcome{
				Status:   scan.StatusWarn,
				Details:  "Cache-Control lacks explicit max-age/no-cache directives",
				Severity: scan.Low,
				Fix:      "Add max-age, no-cache or no-store to Cache-Control",
			}
		}
		return scan.Outcome{Status: scan.StatusPass, Details: "Cache-Control: " + firstNonEmpty("(Expires only)", cc)}
	})
}

func trustedTypes() scan.Rule {
	return pageRule("Trusted Types", "Checks CSP enforcement of Trusted Types", func(pc *scan.PageContext) scan.Outcome {
		policies := pc.Document.MetaHTTPEquiv("Content-Security-Policy")
		policies = append(policies, pc.Headers.Get("content-security-policy"), pc.Headers.Get("content-security-policy-report-only"))
		for _, p := range policies {
			if strings.Contains(p, "require-trusted-types-for") && strings.Contains(p, "'script'") {
				return scan.Outcome{Status: scan.StatusPass, Details: "Trusted Types enforced for scripts"}
			}
		}
		return scan.Outcome{
			Status:    scan.StatusWarn,
			Details:   "Trusted Types not enforced",
			Severity:  scan.Low,
			Fix:       "Add \"require-trusted-types-for 'script'\" to the Content-Security-Policy",
			Reference: "https://developer.mozilla.org/en-US/docs/Web/API/Trusted_Types_API",
		}
	})
}
