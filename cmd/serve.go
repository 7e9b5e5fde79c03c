package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/vigilante/internal/api"
	"github.com/khanhnv2901/vigilante/internal/collector"
	"github.com/khanhnv2901/vigilante/internal/rules"
	"github.com/khanhnv2901/vigilante/internal/scan"
	"github.com/khanhnv2901/vigilante/internal/scanner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run Vigilante as a REST API service",
	Long: `Serve starts an HTTP API that scans pages asynchronously.

Endpoints:
  GET  /api/v1/health
  GET  /api/v1/rules?extended=true
  POST /api/v1/scans                 {"url": "...", "mode": "http|browser", "extended": false}
  GET  /api/v1/scans
  GET  /api/v1/scans/{id}
  GET  /api/v1/scans/{id}/report?format=html|json|yaml|markdown|pdf
  GET  /api/v1/scans-stream          Server-Sent Events
  GET  /metrics                      Prometheus`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		sv := cliConfig.Serve
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

		// The API logs requests at info level whatever the CLI level is.
		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		if debug {
			logger = appCtx.zapLogger()
		}
		defer func() {
			_ = logger.Sync()
		}()

		svc, err := newAPIService(cliConfig.Scan, sv, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		httpServer := &http.Server{
			Addr:         sv.Addr,
			Handler:      svc.server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0, // no deadline: the event stream is long-lived
			IdleTimeout:  120 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s API server listening on %s\n", colorInfo("→"), sv.Addr)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}
			svc.jobs.Wait()
			fmt.Fprintf(cmd.OutOrStdout(), "%s Server shutdown complete\n", colorInfo("✓"))
		}
		return nil
	},
}

// apiService wires the scanner into the API. Every job shares one tracker so
// concurrent requests for the same page are rejected, and one metrics set.
type apiService struct {
	scan    ScanRuntimeConfig
	logger  *zap.Logger
	tracker *scanner.Tracker
	metrics *scanner.Metrics

	mu         sync.Mutex
	registries map[bool]*scan.Registry

	manager *api.JobManager
	jobs    *api.ScanJobs
	server  *api.Server
}

func newAPIService(sc ScanRuntimeConfig, sv ServeRuntimeConfig, logger *zap.Logger) (*apiService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := scanner.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	svc := &apiService{
		scan:       sc,
		logger:     logger,
		tracker:    scanner.NewTracker(),
		metrics:    metrics,
		registries: make(map[bool]*scan.Registry),
	}
	if _, err := svc.registry(false); err != nil {
		return nil, err
	}

	svc.manager = api.NewJobManager(sv.JobRetention)
	svc.jobs = api.NewScanJobs(svc.manager, svc.Scan, logger)
	if sc.TimeoutSecs > 0 {
		svc.jobs.Timeout = time.Duration(sc.TimeoutSecs) * time.Second
	}
	svc.server = api.NewServer(api.Config{
		Jobs:        svc.jobs,
		Rules:       svc,
		Health:      svc,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}),
		AuthToken:   sv.AuthToken,
		Logger:      logger,
		CORSOrigins: sv.CORSOrigins,
		RateLimit:   sv.RateLimit,
		RateBurst:   sv.RateBurst,
	})
	return svc, nil
}

// Scan runs one API job.
func (a *apiService) Scan(ctx context.Context, req api.JobRequest) (*scan.Report, error) {
	mode, err := collector.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	registry, err := a.registry(req.Extended || a.scan.Extended)
	if err != nil {
		return nil, err
	}
	coll, err := collector.New(collector.Options{
		Mode:           mode,
		Timeout:        time.Duration(a.scan.TimeoutSecs) * time.Second,
		HeadersTimeout: time.Duration(a.scan.HeadersTimeoutSecs) * time.Second,
		ChromePath:     a.scan.ChromePath,
		Logger:         a.logger,
	})
	if err != nil {
		return nil, err
	}

	svc := scanner.NewService(coll, registry, a.logger)
	svc.Tracker = a.tracker
	svc.Metrics = a.metrics
	svc.Runner.Concurrency = a.scan.RuleConcurrency
	if a.scan.TimeoutSecs > 0 {
		svc.Timeout = time.Duration(a.scan.TimeoutSecs) * time.Second
	}
	return svc.Scan(ctx, req.URL)
}

// Rules lists the catalog a scan with the given extended flag would run.
func (a *apiService) Rules(ctx context.Context, extended bool) ([]scan.RuleInfo, error) {
	registry, err := a.registry(extended || a.scan.Extended)
	if err != nil {
		return nil, err
	}
	return registry.Catalog(), nil
}

// Check fails once ctx is done or when the default catalog cannot be composed.
func (a *apiService) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.registry(false)
	return err
}

// registry caches the composed catalog per extended flag. Registries are
// read-only once built, so jobs share them.
func (a *apiService) registry(extended bool) (*scan.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if reg, ok := a.registries[extended]; ok {
		return reg, nil
	}
	disabled := a.scan.Disabled
	if !extended {
		disabled = defaultRuleNames(disabled)
	}
	reg, err := rules.NewRegistry(rules.Options{Extended: extended, Disabled: disabled})
	if err != nil {
		return nil, err
	}
	a.registries[extended] = reg
	return reg, nil
}

// defaultRuleNames keeps the names that belong to the default group, so a
// disabled extended rule does not break non-extended jobs.
func defaultRuleNames(names []string) []string {
	known := make(map[string]bool)
	for _, r := range rules.Default() {
		known[r.Name()] = true
	}
	var out []string
	for _, n := range names {
		if known[n] {
			out = append(out, n)
		}
	}
	return out
}

// Close stops background job expiry and limiter cleanup.
func (a *apiService) Close() {
	if a.server != nil {
		a.server.Close()
	}
	if a.manager != nil {
		a.manager.Close()
	}
}

func init() {
	sv := &cliConfig.Serve
	flags := serveCmd.Flags()
	flags.StringVar(&sv.Addr, "addr", sv.Addr, "Address for the API server")
	flags.StringVar(&sv.AuthToken, "auth-token", "", "Optional bearer token required on every request")
	flags.Duration("shutdown-timeout", sv.ShutdownTimeout, "Graceful shutdown timeout")
	flags.StringSliceVar(&sv.CORSOrigins, "cors-origins", nil, "Allowed CORS origins (empty = allow all)")
	flags.IntVar(&sv.RateLimit, "rate-limit", sv.RateLimit, "Rate limit per IP (requests/second, 0 = disabled)")
	flags.IntVar(&sv.RateBurst, "rate-burst", sv.RateBurst, "Rate limit burst size")
	flags.DurationVar(&sv.JobRetention, "job-retention", sv.JobRetention, "How long finished jobs stay available")
	flags.BoolVar(&cliConfig.Scan.Extended, "extended", false, "Run the extended rule group on every scan")
	flags.StringSliceVar(&cliConfig.Scan.Disabled, "disable", nil, "Rule names to leave out (repeatable)")
	flags.StringVar(&cliConfig.Scan.ChromePath, "chrome-path", "", "Chrome or Chromium executable for browser mode")
	rootCmd.AddCommand(serveCmd)
}
