// Package security holds file system guards for paths built from user input.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrPathEscape indicates the resolved path would escape the trusted root directory.
	ErrPathEscape = errors.New("path escapes base directory")
	// ErrEmptyBase is returned when no base directory is given.
	ErrEmptyBase = errors.New("base directory is required")
)

// ResolveWithin joins elems under base and returns the absolute result. The
// joined elements must stay local to base: absolute elements and ".." that
// climbs above base are rejected with ErrPathEscape.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", ErrEmptyBase
	}
	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}

	rel := filepath.Join(elems...)
	if rel == "" {
		return root, nil
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return filepath.Join(root, rel), nil
}
