package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultScanTimeout bounds a whole scan, acquisition included.
	DefaultScanTimeout = 30 * time.Second
	// DefaultHeadersTimeout bounds the wait for main document response headers.
	DefaultHeadersTimeout = 2 * time.Second
	// MaxBodyBytes caps how much of a page body is read for DOM parsing.
	MaxBodyBytes = 5 << 20
	// MaxExamples caps the illustrative strings carried by a finding.
	MaxExamples = 5
	// JobRetention is how long finished API scan jobs stay queryable.
	JobRetention = 30 * time.Minute
)

const (
	// UserAgent identifies the scanner on outgoing requests.
	UserAgent = "vigilante/1.0 (+https://github.com/khanhnv2901/vigilante)"
)
