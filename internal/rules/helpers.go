package rules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
	"github.com/khanhnv2901/vigilante/internal/scan"
)

var errNoDocument = errors.New("document snapshot unavailable")

// headerRule wraps a predicate over response headers with the shared header
// contract: nil headers are an error, unavailable headers make the rule inapplicable.
func headerRule(name, description string, check func(h *scan.Headers) scan.Outcome) scan.Rule {
	return scan.NewRule(name, description, func(_ context.Context, pc *scan.PageContext) (scan.Outcome, error) {
		if out, unusable := headerGate(pc.Headers); unusable {
			return out, nil
		}
		return check(pc.Headers), nil
	})
}

func headerGate(h *scan.Headers) (scan.Outcome, bool) {
	if h == nil {
		return scan.Outcome{Status: scan.StatusError, Details: "Header check failed"}, true
	}
	if h.Unavailable {
		return scan.Outcome{Status: scan.StatusNA, Details: "Header check not available"}, true
	}
	return scan.Outcome{}, false
}

// documentRule wraps a predicate over the DOM snapshot.
func documentRule(name, description string, check func(doc *page.Snapshot) scan.Outcome) scan.Rule {
	return scan.NewRule(name, description, func(_ context.Context, pc *scan.PageContext) (scan.Outcome, error) {
		if pc.Document == nil {
			return scan.Outcome{}, errNoDocument
		}
		return check(pc.Document), nil
	})
}

// pageRule wraps a predicate that needs both the snapshot and the headers.
func pageRule(name, description string, check func(pc *scan.PageContext) scan.Outcome) scan.Rule {
	return scan.NewRule(name, description, func(_ context.Context, pc *scan.PageContext) (scan.Outcome, error) {
		if pc.Document == nil {
			return scan.Outcome{}, errNoDocument
		}
		return check(pc), nil
	})
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	out := make([]string, len(items))
	copy(out, items)
	return out
}

func unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// firstNonEmpty returns the first non-empty value, or fallback.
func firstNonEmpty(fallback string, values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return fallback
}

// compareVersion compares dotted versions numerically.
// Returns: -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
func compareVersion(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		n1, n2 := versionPart(parts1, i), versionPart(parts2, i)
		if n1 < n2 {
			return -1
		}
		if n1 > n2 {
			return 1
		}
	}
	return 0
}

// versionPart reads the leading integer of parts[i]; missing or non-numeric parts are 0.
func versionPart(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(parts[i], "%d", &n); err != nil {
		return 0
	}
	return n
}
