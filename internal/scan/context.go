package scan

import (
	"strings"

	"github.com/khanhnv2901/vigilante/internal/page"
)

// Headers are the main document response headers, keyed by lowercase name.
//
// A nil *Headers means acquisition was attempted and failed. Unavailable means
// the headers could not be observed at all (no provider, or the wait timed out).
// An empty, available mapping means every header is confirmed absent.
type Headers struct {
	Unavailable bool
	values      map[string]string
}

// NewHeaders copies m, lowercasing the keys.
func NewHeaders(m map[string]string) *Headers {
	h := &Headers{values: make(map[string]string, len(m))}
	for k, v := range m {
		h.values[strings.ToLower(k)] = v
	}
	return h
}

// UnavailableHeaders returns the "could not observe headers" sentinel.
func UnavailableHeaders() *Headers {
	return &Headers{Unavailable: true}
}

// Get returns the value of a header by case-insensitive name.
func (h *Headers) Get(name string) string {
	if h == nil {
		return ""
	}
	return h.values[strings.ToLower(name)]
}

// Has reports whether the header is present with a non-empty value.
func (h *Headers) Has(name string) bool {
	return h.Get(name) != ""
}

// Len returns the number of headers.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.values)
}

// Map returns a copy of the header mapping.
func (h *Headers) Map() map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h.values))
	for k, v := range h.values {
		out[k] = v
	}
	return out
}

// PageContext is the input presented to every rule of a scan. It is built once
// by the collector and must not be modified while rules run.
type PageContext struct {
	URL      string
	Headers  *Headers
	Document *page.Snapshot
}
