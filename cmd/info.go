package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/vigilante/internal/collector"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system information and data directory paths",
	Long: `Display Vigilante configuration information including:
  - Data and report directory locations
  - Configuration file path
  - Default scan settings
  - Platform information`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)

		dataDir, err := getDataDir()
		if err != nil {
			return fmt.Errorf("failed to get data directory: %w", err)
		}

		reportsDir := appCtx.ReportsDir
		if reportsDir == "" {
			if reportsDir, err = getReportsDir(); err != nil {
				return fmt.Errorf("failed to get reports directory: %w", err)
			}
		}

		configFile := appCtx.ConfigFile
		if configFile == "" {
			configFile = defaultConfigPath()
		}

		sc := newCLIConfig().Scan
		if appCtx.Config != nil {
			sc = appCtx.Config.Scan
		}
		modes := make([]string, 0, len(collector.Modes))
		for _, m := range collector.Modes {
			modes = append(modes, string(m))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Vigilante System Information")
		fmt.Fprintln(out, "============================")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Platform:          %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Version:           %s\n", Version)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Data Locations:")
		fmt.Fprintf(out, "  Data Directory:     %s\n", dataDir)
		fmt.Fprintf(out, "  Reports Directory:  %s %s\n", reportsDir, existence(reportsDir, "(not created yet)"))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Configuration File:   %s %s\n", configFile, existence(configFile, "(using defaults)"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Scan Defaults:")
		fmt.Fprintf(out, "  Mode:               %s (available: %s)\n", sc.Mode, strings.Join(modes, ", "))
		fmt.Fprintf(out, "  Format:             %s\n", sc.Format)
		fmt.Fprintf(out, "  Timeout:            %ds (headers %ds)\n", sc.TimeoutSecs, sc.HeadersTimeoutSecs)
		fmt.Fprintf(out, "  Extended Rules:     %t\n", sc.Extended)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "To override the data directory set %s, or add to the config file:\n", dataDirEnvVar)
		fmt.Fprintln(out, "  reports_dir: /custom/path/to/reports")

		return nil
	},
}

func existence(path, missing string) string {
	if _, err := os.Stat(path); err == nil {
		return "✓ (exists)"
	}
	return "✗ " + missing
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
