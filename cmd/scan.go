package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/khanhnv2901/vigilante/internal/collector"
	"github.com/khanhnv2901/vigilante/internal/report"
	"github.com/khanhnv2901/vigilante/internal/rules"
	"github.com/khanhnv2901/vigilante/internal/scan"
	"github.com/khanhnv2901/vigilante/internal/scanner"
	consts "github.com/khanhnv2901/vigilante/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>...",
	Short: "Scan web pages for client-side security issues",
	Long: `Scan acquires each page, evaluates the rule catalog and prints a report.

Modes:
  http     fetch the page and parse the static HTML (default)
  browser  load the page in headless Chrome and inspect the live DOM
  file     replay a saved page given by --html (and optionally --headers)

Several URLs are scanned concurrently. Use --fail-on to exit with status 2 when
a report reaches a risk band, for example --fail-on "High Risk".`,
	Example: `  vigilante scan https://example.com
  vigilante scan example.com shop.example.com --format json --output reports/
  vigilante scan --mode file --html saved.html --headers headers.json https://example.com`,
	RunE: runScan,
}

// scanPlan is the validated form of the scan flags.
type scanPlan struct {
	mode      collector.Mode
	format    report.Format
	threshold scan.RiskBand
	targets   []string
	output    string
}

func runScan(cmd *cobra.Command, args []string) error {
	appCtx := getAppContext(cmd)
	sc := cliConfig.Scan
	logger := appCtx.zapLogger()

	plan, err := planScan(sc, args)
	if err != nil {
		return err
	}

	registry, err := rules.NewRegistry(rules.Options{Extended: sc.Extended, Disabled: sc.Disabled})
	if err != nil {
		return err
	}
	coll, err := collector.New(collector.Options{
		Mode:           plan.mode,
		Timeout:        time.Duration(sc.TimeoutSecs) * time.Second,
		HeadersTimeout: time.Duration(sc.HeadersTimeoutSecs) * time.Second,
		ChromePath:     sc.ChromePath,
		HTMLPath:       sc.HTMLPath,
		HeadersPath:    sc.HeadersPath,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	svc := scanner.NewService(coll, registry, logger)
	svc.Runner.Concurrency = sc.RuleConcurrency
	if sc.TimeoutSecs > 0 {
		svc.Timeout = time.Duration(sc.TimeoutSecs) * time.Second
	}

	var progress *progressPrinter
	if sc.Progress && len(plan.targets) > 1 {
		progress = newProgressPrinter(cmd.ErrOrStderr(), len(plan.targets), "scan")
		progress.Start()
	}
	batch := scanner.Batch{
		Scanner:     svc,
		Concurrency: sc.Concurrency,
		RateLimit:   sc.Rate,
		OnResult: func(res scanner.BatchResult) {
			if res.Err != nil {
				logger.Warn("scan failed", zap.String("target", res.Target), zap.Error(res.Err))
			}
			if progress != nil {
				progress.Increment(res.Err == nil, res.Duration)
			}
		},
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx.Logger.Debugw("starting scan",
		"targets", len(plan.targets),
		"mode", plan.mode,
		"rules", registry.Len(),
	)
	results := batch.Run(ctx, plan.targets)
	if progress != nil {
		progress.Stop()
	}

	if err := writeResults(cmd, plan, results, appCtx.ReportsDir); err != nil {
		return err
	}
	return scanOutcome(plan, results)
}

// planScan validates flags and arguments before any page is fetched.
func planScan(sc ScanRuntimeConfig, args []string) (*scanPlan, error) {
	mode, err := collector.ParseMode(sc.Mode)
	if err != nil {
		return nil, err
	}
	format, err := report.ParseFormat(sc.Format)
	if err != nil {
		return nil, err
	}

	plan := &scanPlan{mode: mode, format: format, output: sc.Output}
	if sc.FailOn != "" {
		band, ok := scan.ParseRiskBand(sc.FailOn)
		if !ok {
			return nil, fmt.Errorf("%w: --fail-on %q (expected Low Risk, Medium Risk, High Risk or Critical Risk)",
				sharedErrors.ErrInvalidInput, sc.FailOn)
		}
		plan.threshold = band
	}

	switch mode {
	case collector.ModeFile:
		if sc.HTMLPath == "" {
			return nil, fmt.Errorf("%w: --html is required in file mode", sharedErrors.ErrMissingRequired)
		}
		switch len(args) {
		case 0:
			abs, err := filepath.Abs(sc.HTMLPath)
			if err != nil {
				return nil, fmt.Errorf("resolve --html: %w", err)
			}
			plan.targets = []string{"file://" + filepath.ToSlash(abs)}
		case 1:
			plan.targets = args
		default:
			return nil, fmt.Errorf("%w: file mode scans a single page", sharedErrors.ErrInvalidInput)
		}
	default:
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: at least one URL is required", sharedErrors.ErrMissingRequired)
		}
		plan.targets = uniqueTargets(args)
	}

	if len(plan.targets) > 1 {
		if plan.format.Binary() && plan.output == "-" {
			return nil, fmt.Errorf("%w: %s output for several targets needs a directory", sharedErrors.ErrInvalidInput, plan.format)
		}
		if plan.output != "" && plan.output != "-" && !isDirOutput(plan.output) {
			return nil, fmt.Errorf("%w: --output must be a directory when scanning several targets", sharedErrors.ErrInvalidInput)
		}
	}
	return plan, nil
}

// uniqueTargets drops repeated pages, keeping the first spelling of each.
func uniqueTargets(args []string) []string {
	seen := make(map[string]bool, len(args))
	out := make([]string, 0, len(args))
	for _, a := range args {
		key := collector.PageKey(a)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func writeResults(cmd *cobra.Command, plan *scanPlan, results []scanner.BatchResult, reportsDir string) error {
	now := time.Now()
	if writesToStdout(plan.output, plan.format) {
		out := cmd.OutOrStdout()
		opts := report.Options{Color: !color.NoColor && out == os.Stdout}
		return writeStream(out, plan.format, results, opts, now)
	}

	tagged := len(results) > 1
	for _, res := range results {
		name := reportFilename(plan.format, now, res.Target, tagged)
		path, err := resolveOutputPath(plan.output, reportsDir, name)
		if err != nil {
			return err
		}
		if err := writeReportFile(path, plan.format, res, now); err != nil {
			return err
		}
		if res.Err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: scan %s, details saved to %s\n", colorError("✗"), res.Target, formatStatusWithColor("failed"), path)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d/100 (%s), report saved to %s\n",
			colorSuccess("✓"), res.Target, res.Report.Score, formatBandWithColor(res.Report.Band), path)
	}
	return nil
}

func writeReportFile(path string, f report.Format, res scanner.BatchResult, now time.Time) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, consts.DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report file: %w", cerr)
		}
	}()
	return renderResult(file, f, res, report.Options{}, now)
}

func renderResult(w io.Writer, f report.Format, res scanner.BatchResult, opts report.Options, now time.Time) error {
	if res.Err != nil {
		return report.Failure(w, f, report.NewFailure(res.Target, res.Err, now), opts)
	}
	return report.Render(w, f, res.Report, opts)
}

// writeStream writes every result to w. Structured formats with several
// results become a single list document.
func writeStream(w io.Writer, f report.Format, results []scanner.BatchResult, opts report.Options, now time.Time) error {
	if len(results) > 1 && (f == report.FormatJSON || f == report.FormatYAML) {
		docs := make([]any, 0, len(results))
		for _, res := range results {
			if res.Err != nil {
				docs = append(docs, report.NewFailure(res.Target, res.Err, now))
				continue
			}
			docs = append(docs, res.Report)
		}
		if f == report.FormatJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	}

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := renderResult(w, f, res, opts, now); err != nil {
			return err
		}
	}
	return nil
}

// scanOutcome maps results to the command error: whole-scan failures first,
// then the --fail-on threshold.
func scanOutcome(plan *scanPlan, results []scanner.BatchResult) error {
	failed := &ScanFailedError{Total: len(results)}
	for _, res := range results {
		if res.Err != nil {
			if failed.Err == nil {
				failed.Err = res.Err
			}
			failed.Failed++
		}
	}
	if failed.Failed > 0 {
		return failed
	}

	if plan.threshold == "" {
		return nil
	}
	for _, res := range results {
		if res.Report != nil && res.Report.Band.Rank() >= plan.threshold.Rank() {
			return &RiskThresholdError{Target: res.Report.URL, Band: res.Report.Band, Threshold: plan.threshold}
		}
	}
	return nil
}

func init() {
	sc := &cliConfig.Scan
	flags := scanCmd.Flags()
	flags.StringVar(&sc.Mode, "mode", sc.Mode, "Page acquisition mode: http, browser or file")
	flags.StringVarP(&sc.Format, "format", "f", sc.Format, "Report format: text, table, json, yaml, html, markdown or pdf")
	flags.StringVarP(&sc.Output, "output", "o", "", "Write reports to this file or directory (\"-\" for stdout)")
	flags.BoolVar(&sc.Extended, "extended", false, "Include the extended rule group")
	flags.StringSliceVar(&sc.Disabled, "disable", nil, "Rule names to skip (repeatable)")
	flags.IntVar(&sc.TimeoutSecs, "timeout", sc.TimeoutSecs, "Overall scan timeout in seconds")
	flags.IntVar(&sc.HeadersTimeoutSecs, "headers-timeout", sc.HeadersTimeoutSecs, "Seconds to wait for response headers in browser mode")
	flags.IntVar(&sc.Concurrency, "concurrency", sc.Concurrency, "Pages scanned at once")
	flags.IntVar(&sc.RuleConcurrency, "rule-concurrency", sc.RuleConcurrency, "Rules evaluated at once per page")
	flags.IntVar(&sc.Rate, "rate", 0, "Scans started per second (0 = unlimited)")
	flags.StringVar(&sc.FailOn, "fail-on", "", "Exit with status 2 when a report reaches this risk band")
	flags.StringVar(&sc.ChromePath, "chrome-path", "", "Chrome or Chromium executable for browser mode")
	flags.StringVar(&sc.HTMLPath, "html", "", "Saved HTML document or snapshot JSON for file mode")
	flags.StringVar(&sc.HeadersPath, "headers", "", "Saved response headers (JSON) for file mode")
	flags.BoolVar(&sc.Progress, "progress", false, "Show batch progress on stderr")
}
