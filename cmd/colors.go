package cmd

import (
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass", "done":
		return colorSuccess(status)
	case "error", "fail", "failed":
		return colorError(status)
	case "warn", "warning", "timeout":
		return colorWarn(status)
	default:
		return status
	}
}

func formatBandWithColor(band scan.RiskBand) string {
	switch band {
	case scan.LowRisk:
		return colorSuccess(string(band))
	case scan.MediumRisk:
		return colorWarn(string(band))
	default:
		return colorError(string(band))
	}
}
