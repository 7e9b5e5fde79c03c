package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khanhnv2901/vigilante/internal/collector"
	"github.com/khanhnv2901/vigilante/internal/scan"
	"github.com/khanhnv2901/vigilante/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// Scanner scans one target.
type Scanner interface {
	Scan(ctx context.Context, target string) (*scan.Report, error)
}

// Service ties a collector, a rule registry and a runner together.
type Service struct {
	Collector collector.Collector
	Registry  *scan.Registry
	Runner    scan.Runner
	Tracker   *Tracker
	Metrics   *Metrics
	Timeout   time.Duration // Overall scan timeout, acquisition included
	Logger    *zap.Logger

	// NewID and Now are replaceable for tests.
	NewID func() string
	Now   func() time.Time
}

// NewService returns a service with the default timeout and a private tracker.
func NewService(c collector.Collector, registry *scan.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Collector: c,
		Registry:  registry,
		Runner:    scan.Runner{Logger: logger},
		Tracker:   NewTracker(),
		Timeout:   constants.DefaultScanTimeout,
		Logger:    logger,
		NewID:     uuid.NewString,
		Now:       time.Now,
	}
}

// Scan acquires the target page and evaluates every registered rule.
//
// A second scan of a page that is still being scanned fails with
// ErrScanInProgress. Acquisition failures and an expired timeout before any
// rule ran are whole-scan failures; a timeout during rule evaluation leaves
// the affected findings in error and still returns the report.
func (s *Service) Scan(ctx context.Context, target string) (*scan.Report, error) {
	if s.Collector == nil || s.Registry == nil {
		return nil, fmt.Errorf("%w: scanner needs a collector and a registry", sharedErrors.ErrMissingRequired)
	}

	key := collector.PageKey(target)
	if key == "" {
		return nil, sharedErrors.ErrEmptyTarget
	}
	tracker := s.Tracker
	if tracker == nil {
		tracker = NewTracker()
	}
	release, err := tracker.Begin(key)
	if err != nil {
		s.Metrics.scanRejected()
		return nil, err
	}
	defer release()

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultScanTimeout
	}
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := s.now()
	s.Metrics.scanStarted()
	logger := s.logger().With(zap.String("target", key))
	logger.Debug("scan started", zap.Duration("timeout", timeout), zap.Int("rules", s.Registry.Len()))

	pc, err := s.Collector.Collect(scanCtx, target)
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(scanCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			outcome = OutcomeTimeout
			err = fmt.Errorf("%w after %s: %v", sharedErrors.ErrScanTimeout, timeout, err)
		}
		s.Metrics.scanFinished(outcome, s.now().Sub(started))
		logger.Warn("page acquisition failed", zap.Error(err))
		return nil, err
	}

	runner := s.Runner
	if runner.Logger == nil {
		runner.Logger = s.logger()
	}
	hook := runner.OnFinding
	runner.OnFinding = func(f scan.Finding) {
		s.Metrics.observeFinding(f)
		if hook != nil {
			hook(f)
		}
	}

	findings := runner.Run(scanCtx, s.Registry.Rules(), pc)
	completed := s.now()
	if len(findings) == 0 {
		s.Metrics.scanFinished(OutcomeFailed, completed.Sub(started))
		return nil, sharedErrors.ErrEmptyReport
	}

	report := scan.NewReport(s.newID(), pc.URL, findings, started, completed)
	s.Metrics.observeReport(report)
	s.Metrics.scanFinished(OutcomeCompleted, report.Duration())

	logger.Info("scan completed",
		zap.String("id", report.ID),
		zap.Int("score", report.Score),
		zap.String("band", string(report.Band)),
		zap.Int("failed", report.Summary.Fail),
		zap.Int("errors", report.Summary.Error),
		zap.Duration("duration", report.Duration()))
	return report, nil
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}
