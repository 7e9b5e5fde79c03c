// Package constants centralizes defaults shared across the CLI and the API server.
//
// File permissions, scan and header timeouts, body size limits and the finding
// example cap live here so cmd/ and internal/ packages can reference them without
// import cycles.
package constants
