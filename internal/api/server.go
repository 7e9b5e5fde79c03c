package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/khanhnv2901/vigilante/internal/api/middleware"
	"github.com/khanhnv2901/vigilante/internal/report"
	"github.com/khanhnv2901/vigilante/internal/scan"
	sharedErrors "github.com/khanhnv2901/vigilante/internal/shared/errors"
)

const (
	apiPrefix       = "/api/v1"
	scansPath       = apiPrefix + "/scans"
	maxRequestBytes = 1 << 20
	defaultJobLimit = 25
)

type HealthService interface {
	Check(ctx context.Context) error
}

type RuleService interface {
	Rules(ctx context.Context, extended bool) ([]scan.RuleInfo, error)
}

type JobService interface {
	StartJob(ctx context.Context, req JobRequest) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]Job, error)
	Subscribe() (chan Job, func())
}

type Config struct {
	Jobs        JobService
	Rules       RuleService
	Health      HealthService
	Metrics     http.Handler // Served at /metrics when set
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string // Allowed CORS origins (empty = allow all)
	RateLimit   int      // Requests per second per IP (0 = disabled)
	RateBurst   int      // Burst size for rate limiter
}

type Server struct {
	cfg      Config
	mux      *http.ServeMux
	limiters *rateLimiterMap
	handler  http.Handler
}

func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	// RequestID -> Logging -> RateLimit -> CORS -> Auth -> Handler
	srv.handler = middleware.RequestID(srv.withLogging(srv.withRateLimit(srv.withCORS(srv.mux))))
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops background limiter cleanup.
func (s *Server) Close() {
	s.limiters.close()
}

func (s *Server) routes() {
	s.mux.Handle(apiPrefix+"/health", s.withAuth(http.HandlerFunc(s.handleHealth)))
	s.mux.Handle(apiPrefix+"/rules", s.withAuth(http.HandlerFunc(s.handleRules)))
	s.mux.Handle(scansPath, s.withAuth(http.HandlerFunc(s.handleScans)))
	s.mux.Handle(scansPath+"/", s.withAuth(http.HandlerFunc(s.handleScanByID)))
	s.mux.Handle(apiPrefix+"/scans-stream", s.withAuth(http.HandlerFunc(s.handleScanStream)))
	if s.cfg.Metrics != nil {
		s.mux.Handle("/metrics", s.withAuth(s.cfg.Metrics))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Check(r.Context()); err != nil {
			s.writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Rules == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("rule catalog not available"))
		return
	}
	extended, _ := strconv.ParseBool(r.URL.Query().Get("extended"))
	rules, err := s.cfg.Rules.Rules(r.Context(), extended)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("scan service not available"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		limit := defaultJobLimit
		if q := r.URL.Query().Get("limit"); q != "" {
			if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		jobs, err := s.cfg.Jobs.ListJobs(r.Context(), limit)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		var req JobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		job, err := s.cfg.Jobs.StartJob(r.Context(), req)
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
		w.Header().Set("Location", scansPath+"/"+job.ID)
		writeJSON(w, http.StatusAccepted, job)
	default:
		s.methodNotAllowed(w, r)
	}
}

// handleScanByID serves /scans/{id} and /scans/{id}/report.
func (s *Server) handleScanByID(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("scan service not available"))
		return
	}
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, scansPath+"/"), "/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || (sub != "" && sub != "report") {
		s.writeError(w, r, http.StatusNotFound, sharedErrors.ErrScanNotFound)
		return
	}
	job, err := s.cfg.Jobs.GetJob(r.Context(), id)
	if err != nil || job == nil {
		s.writeError(w, r, http.StatusNotFound, sharedErrors.ErrScanNotFound)
		return
	}
	if sub == "" {
		writeJSON(w, http.StatusOK, job)
		return
	}
	s.writeReport(w, r, job)
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, job *Job) {
	format := report.FormatHTML
	if q := r.URL.Query().Get("format"); q != "" {
		parsed, err := report.ParseFormat(q)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		format = parsed
	}
	if !job.Status.Finished() {
		s.writeError(w, r, http.StatusConflict, errors.New("scan not finished"))
		return
	}

	var (
		buf bytes.Buffer
		err error
	)
	if job.Status == JobError || job.Report == nil {
		err = report.Failure(&buf, format, report.NewFailure(job.URL, errors.New(job.Error), finishedAt(job)), report.Options{})
	} else {
		err = report.Render(&buf, format, job.Report, report.Options{})
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format.Binary() || r.URL.Query().Has("download") {
		w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(format, finishedAt(job))+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.requestLogger(r).Error("failed to write report", zap.Error(err))
	}
}

func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Jobs == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("scan service not available"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	updates, unsubscribe := s.cfg.Jobs.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	ctx := r.Context()
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			job.Report = nil
			payload, err := json.Marshal(job)
			if err != nil {
				s.requestLogger(r).Error("failed to marshal job", zap.Error(err))
				continue
			}
			if !s.writeStreamChunk(w, []byte("event: scan\ndata: ")) ||
				!s.writeStreamChunk(w, payload) ||
				!s.writeStreamChunk(w, []byte("\n\n")) {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()

	// 5xx details stay in the server log.
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sharedErrors.ErrScanInProgress):
		return http.StatusConflict
	case errors.Is(err, sharedErrors.ErrScanNotFound):
		return http.StatusNotFound
	case errors.Is(err, sharedErrors.ErrEmptyTarget),
		errors.Is(err, sharedErrors.ErrInvalidTarget),
		errors.Is(err, sharedErrors.ErrInvalidScanMode),
		errors.Is(err, sharedErrors.ErrInvalidFormat),
		errors.Is(err, sharedErrors.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	logger := s.cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func (s *Server) writeStreamChunk(w http.ResponseWriter, data []byte) bool {
	if _, err := w.Write(data); err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Error("failed to write stream chunk", zap.Error(err))
		}
		return false
	}
	return true
}
