package api

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khanhnv2901/vigilante/internal/scan"
	"github.com/khanhnv2901/vigilante/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

// JobStatus is the lifecycle state of a scan job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

// Finished reports whether the job reached a terminal state.
func (s JobStatus) Finished() bool {
	return s == JobDone || s == JobError
}

// Job is an asynchronous scan started through the API.
type Job struct {
	ID         string       `json:"id"`
	URL        string       `json:"url"`
	Mode       string       `json:"mode"`
	Extended   bool         `json:"extended"`
	Status     JobStatus    `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Report     *scan.Report `json:"report,omitempty"`
	Error      string       `json:"error,omitempty"`

	key string
}

// JobRequest is the body of POST /api/v1/scans.
type JobRequest struct {
	URL      string `json:"url"`
	Mode     string `json:"mode,omitempty"`
	Extended bool   `json:"extended,omitempty"`
}

// JobManager keeps scan jobs in memory. Finished jobs expire after the
// retention window; at most maxJobs are kept.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers map[chan Job]struct{}
	maxJobs     int
	retention   time.Duration
	now         func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewJobManager starts a manager that prunes expired jobs in the background
// until Close is called. A non-positive retention uses constants.JobRetention.
func NewJobManager(retention time.Duration) *JobManager {
	if retention <= 0 {
		retention = constants.JobRetention
	}
	m := &JobManager{
		jobs:        make(map[string]*Job),
		subscribers: make(map[chan Job]struct{}),
		maxJobs:     1000,
		retention:   retention,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// CreateJob registers a pending job for the page identified by key. It fails
// with ErrScanInProgress while another unfinished job holds the same key.
func (m *JobManager) CreateJob(req JobRequest, key string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.jobs {
		if existing.key == key && !existing.Status.Finished() {
			return nil, fmt.Errorf("%w: job %s", sharedErrors.ErrScanInProgress, existing.ID)
		}
	}
	job := &Job{
		ID:        uuid.NewString(),
		URL:       req.URL,
		Mode:      req.Mode,
		Extended:  req.Extended,
		Status:    JobPending,
		CreatedAt: m.now(),
		key:       key,
	}
	m.jobs[job.ID] = job
	m.broadcast(*job)
	copy := *job
	return &copy, nil
}

// UpdateJob applies update to the job and notifies subscribers.
func (m *JobManager) UpdateJob(id string, update func(*Job)) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	update(job)
	m.broadcast(*job)
	copy := *job
	return &copy
}

// GetJob returns a copy of the job, or nil.
func (m *JobManager) GetJob(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if job, ok := m.jobs[id]; ok {
		copy := *job
		return &copy
	}
	return nil
}

// ListJobs returns up to limit jobs, newest first.
func (m *JobManager) ListJobs(limit int) []Job {
	m.mu.RLock()
	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, *job)
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs
}

// Subscribe returns a channel of job updates and a func that closes it.
// Updates are dropped for subscribers whose buffer is full.
func (m *JobManager) Subscribe() (chan Job, func()) {
	ch := make(chan Job, 16)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
}

func (m *JobManager) broadcast(job Job) {
	for ch := range m.subscribers {
		select {
		case ch <- job:
		default:
		}
	}
}

// Prune removes finished jobs older than the retention window, then the
// oldest finished jobs beyond maxJobs. It returns the number removed.
func (m *JobManager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	var finished []*Job
	for id, job := range m.jobs {
		if !job.Status.Finished() {
			continue
		}
		if job.FinishedAt != nil && now.Sub(*job.FinishedAt) > m.retention {
			delete(m.jobs, id)
			removed++
			continue
		}
		finished = append(finished, job)
	}

	excess := len(m.jobs) - m.maxJobs
	if excess <= 0 {
		return removed
	}
	sort.Slice(finished, func(i, j int) bool {
		return finishedAt(finished[i]).Before(finishedAt(finished[j]))
	})
	if excess > len(finished) {
		excess = len(finished)
	}
	for _, job := range finished[:excess] {
		delete(m.jobs, job.ID)
		removed++
	}
	return removed
}

func finishedAt(j *Job) time.Time {
	if j.FinishedAt != nil {
		return *j.FinishedAt
	}
	return j.CreatedAt
}

// SetMaxJobs configures the maximum number of jobs to retain in memory
func (m *JobManager) SetMaxJobs(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max > 0 {
		m.maxJobs = max
	}
}

// Close stops background pruning.
func (m *JobManager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *JobManager) cleanupLoop() {
	interval := m.retention / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Prune()
		case <-m.stop:
			return
		}
	}
}
