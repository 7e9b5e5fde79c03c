package errors

import "errors"

// Domain errors
var (
	// Registry errors
	ErrDuplicateRule = errors.New("rule already registered")
	ErrUnknownRule   = errors.New("unknown rule")
	ErrNilRule       = errors.New("rule cannot be nil")
	ErrEmptyRuleName = errors.New("rule name cannot be empty")

	// Target errors
	ErrEmptyTarget   = errors.New("target cannot be empty")
	ErrInvalidTarget = errors.New("invalid target")

	// Scan errors
	ErrPageUnavailable  = errors.New("page context unavailable")
	ErrScanInProgress   = errors.New("scan already in progress for this page")
	ErrScanNotFound     = errors.New("scan not found")
	ErrScanTimeout      = errors.New("scan timed out")
	ErrInvalidScanMode  = errors.New("invalid scan mode")
	ErrInvalidHeaderDoc = errors.New("invalid headers document")

	// Report errors
	ErrInvalidFormat = errors.New("unsupported report format")
	ErrEmptyReport   = errors.New("no test results were returned")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
