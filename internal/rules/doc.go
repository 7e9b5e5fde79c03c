// Package rules is the inspection catalog.
//
// Default returns the standard rules in report order. Extended returns an
// opt-in group of deeper header, CORS, cache, CSRF and library checks that is
// appended after the defaults. Each rule is a scan.Rule built from a
// predicate over the page context.
package rules
