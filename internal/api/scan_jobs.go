package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/vigilante/internal/collector"
	"github.com/khanhnv2901/vigilante/internal/scan"
	"github.com/khanhnv2901/vigilante/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// ScanFunc runs one scan for a validated request.
type ScanFunc func(ctx context.Context, req JobRequest) (*scan.Report, error)

// ScanJobs is the JobService that runs scans in the background.
type ScanJobs struct {
	Manager *JobManager
	Scan    ScanFunc
	Timeout time.Duration
	Logger  *zap.Logger

	wg sync.WaitGroup
}

// NewScanJobs returns a job service bounded by the default scan timeout.
func NewScanJobs(manager *JobManager, fn ScanFunc, logger *zap.Logger) *ScanJobs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanJobs{
		Manager: manager,
		Scan:    fn,
		Timeout: constants.DefaultScanTimeout,
		Logger:  logger,
	}
}

// StartJob validates req and starts the scan. The returned job is pending.
func (s *ScanJobs) StartJob(ctx context.Context, req JobRequest) (*Job, error) {
	target, err := collector.ParseTarget(req.URL)
	if err != nil {
		return nil, err
	}
	mode, err := collector.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if mode == collector.ModeFile {
		return nil, fmt.Errorf("%w: %q is not available over the API", sharedErrors.ErrInvalidScanMode, mode)
	}
	req.URL = target.URL
	req.Mode = string(mode)

	job, err := s.Manager.CreateJob(req, collector.PageKey(target.URL))
	if err != nil {
		return nil, err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(job.ID, req)
	}()
	return job, nil
}

func (s *ScanJobs) execute(id string, req JobRequest) {
	started := time.Now()
	s.Manager.UpdateJob(id, func(j *Job) {
		j.Status = JobRunning
		j.StartedAt = &started
	})

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultScanTimeout
	}
	// The scan service applies its own timeout; this bound only covers setup.
	ctx, cancel := context.WithTimeout(context.Background(), timeout+constants.DefaultHeadersTimeout)
	defer cancel()

	rep, err := s.Scan(ctx, req)
	finished := time.Now()
	if err != nil {
		s.Logger.Warn("scan job failed",
			zap.String("job_id", id),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		s.Manager.UpdateJob(id, func(j *Job) {
			j.Status = JobError
			j.Error = err.Error()
			j.FinishedAt = &finished
		})
		return
	}
	s.Manager.UpdateJob(id, func(j *Job) {
		j.Status = JobDone
		j.Report = rep
		j.FinishedAt = &finished
	})
}

// Wait blocks until every started job has finished.
func (s *ScanJobs) Wait() {
	s.wg.Wait()
}

func (s *ScanJobs) GetJob(ctx context.Context, id string) (*Job, error) {
	job := s.Manager.GetJob(strings.TrimSpace(id))
	if job == nil {
		return nil, sharedErrors.ErrScanNotFound
	}
	return job, nil
}

func (s *ScanJobs) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	jobs := s.Manager.ListJobs(limit)
	// Listings omit full reports.
	for i := range jobs {
		jobs[i].Report = nil
	}
	return jobs, nil
}

func (s *ScanJobs) Subscribe() (chan Job, func()) {
	return s.Manager.Subscribe()
}
