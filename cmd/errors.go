package cmd

import (
	"errors"
	"fmt"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

// Exit codes returned by Execute.
const (
	exitFailure   = 1
	exitThreshold = 2
)

// ScanFailedError reports targets whose scan produced no report.
type ScanFailedError struct {
	Failed int
	Total  int
	Err    error // First failure
}

func (e *ScanFailedError) Error() string {
	if e.Total <= 1 {
		return fmt.Sprintf("scan failed: %v", e.Err)
	}
	return fmt.Sprintf("%d of %d scans failed; first error: %v", e.Failed, e.Total, e.Err)
}

func (e *ScanFailedError) Unwrap() error { return e.Err }

// RiskThresholdError signals that a report reached the --fail-on band.
type RiskThresholdError struct {
	Target    string
	Band      scan.RiskBand
	Threshold scan.RiskBand
}

func (e *RiskThresholdError) Error() string {
	return fmt.Sprintf("%s scored %s, at or above the %s threshold", e.Target, e.Band, e.Threshold)
}

func exitCode(err error) int {
	var threshold *RiskThresholdError
	if errors.As(err, &threshold) {
		return exitThreshold
	}
	return exitFailure
}
