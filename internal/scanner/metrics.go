package scanner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/khanhnv2901/vigilante/internal/scan"
)

// Scan outcomes recorded on vigilante_scans_total.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeRejected  = "rejected"
)

// Metrics holds the scanner's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	scansTotal      *prometheus.CounterVec
	findingsTotal   *prometheus.CounterVec
	ruleErrorsTotal *prometheus.CounterVec
	riskScore       prometheus.Histogram
	scanDuration    prometheus.Histogram
	scansInFlight   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		scansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigilante_scans_total",
				Help: "Total number of page scans by outcome",
			},
			[]string{"outcome"},
		),
		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigilante_findings_total",
				Help: "Total number of findings by status and severity",
			},
			[]string{"status", "severity"},
		),
		ruleErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigilante_rule_errors_total",
				Help: "Total number of rule evaluations that ended in error",
			},
			[]string{"rule"},
		),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilante_risk_score",
			Help:    "Distribution of page risk scores",
			Buckets: []float64{20, 50, 80, 90, 95, 100},
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilante_scan_duration_seconds",
			Help:    "Scan duration in seconds, acquisition included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		scansInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vigilante_scans_in_flight",
			Help: "Scans currently running",
		}),
	}

	collectors := []prometheus.Collector{
		m.scansTotal,
		m.findingsTotal,
		m.ruleErrorsTotal,
		m.riskScore,
		m.scanDuration,
		m.scansInFlight,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) scanStarted() {
	if m == nil {
		return
	}
	m.scansInFlight.Inc()
}

func (m *Metrics) scanFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.scansInFlight.Dec()
	m.scansTotal.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) scanRejected() {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(OutcomeRejected).Inc()
}

func (m *Metrics) observeFinding(f scan.Finding) {
	if m == nil {
		return
	}
	severity := string(f.Severity)
	if severity == "" {
		severity = "none"
	}
	m.findingsTotal.WithLabelValues(string(f.Status), severity).Inc()
	if f.Status == scan.StatusError {
		m.ruleErrorsTotal.WithLabelValues(f.Test).Inc()
	}
}

func (m *Metrics) observeReport(r *scan.Report) {
	if m == nil {
		return
	}
	m.riskScore.Observe(float64(r.Score))
}
