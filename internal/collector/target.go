package collector

import (
	"fmt"
	"net/url"
	"strings"

	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// Target contains parsed target information
type Target struct {
	Original string // Original target string
	Scheme   string // http or https
	Host     string // Hostname (without protocol, path, port)
	Port     string // Port if specified
	Path     string // Path if specified
	URL      string // Full normalized URL
}

// ParseTarget parses a target string into structured components.
// This handles various input formats:
//   - example.com
//   - http://example.com
//   - https://example.com:8443/path?q=1
//   - example.com:8080/login
//
// A missing scheme defaults to https. Fragments are dropped.
func ParseTarget(target string) (*Target, error) {
	raw := strings.TrimSpace(target)
	if raw == "" {
		return nil, sharedErrors.ErrEmptyTarget
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", sharedErrors.ErrInvalidTarget, target, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", sharedErrors.ErrInvalidTarget, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q has no host", sharedErrors.ErrInvalidTarget, target)
	}

	parsed.Scheme = scheme
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	return &Target{
		Original: target,
		Scheme:   scheme,
		Host:     parsed.Hostname(),
		Port:     parsed.Port(),
		Path:     parsed.Path,
		URL:      parsed.String(),
	}, nil
}

// NormalizeURL returns the normalized URL of a target.
func NormalizeURL(target string) (string, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return "", err
	}
	return t.URL, nil
}

// PageKey identifies a page for in-flight bookkeeping. Targets that do not
// parse as web URLs (saved files) are keyed by their trimmed text.
func PageKey(target string) string {
	if u, err := NormalizeURL(target); err == nil {
		return u
	}
	return strings.TrimSpace(target)
}
