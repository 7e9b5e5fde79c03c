package scan

import "time"

// Summary tallies findings by status and by severity.
type Summary struct {
	Pass     int `json:"pass" yaml:"pass"`
	Fail     int `json:"fail" yaml:"fail"`
	Warn     int `json:"warn" yaml:"warn"`
	NA       int `json:"na" yaml:"na"`
	Error    int `json:"error" yaml:"error"`
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
	Low      int `json:"low" yaml:"low"`
}

// Summarize counts findings. Findings without a known status are skipped.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Status {
		case StatusPass:
			s.Pass++
		case StatusFail:
			s.Fail++
		case StatusWarn:
			s.Warn++
		case StatusNA:
			s.NA++
		case StatusError:
			s.Error++
		default:
			continue
		}
		switch f.Severity {
		case Critical:
			s.Critical++
		case High:
			s.High++
		case Medium:
			s.Medium++
		case Low:
			s.Low++
		}
	}
	return s
}

// Total is the number of counted findings.
func (s Summary) Total() int {
	return s.Pass + s.Fail + s.Warn + s.NA + s.Error
}

// ByStatus returns the status counts keyed by status.
func (s Summary) ByStatus() map[Status]int {
	return map[Status]int{
		StatusPass:  s.Pass,
		StatusFail:  s.Fail,
		StatusWarn:  s.Warn,
		StatusNA:    s.NA,
		StatusError: s.Error,
	}
}

// BySeverity returns the severity counts keyed by severity.
func (s Summary) BySeverity() map[Severity]int {
	return map[Severity]int{
		Critical: s.Critical,
		High:     s.High,
		Medium:   s.Medium,
		Low:      s.Low,
	}
}

// Report is a completed scan ready for presentation.
type Report struct {
	ID          string     `json:"id" yaml:"id"`
	URL         string     `json:"url" yaml:"url"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time  `json:"completed_at" yaml:"completed_at"`
	Score       int        `json:"score" yaml:"score"`
	Band        RiskBand   `json:"band" yaml:"band"`
	Summary     Summary    `json:"summary" yaml:"summary"`
	Findings    ScanResult `json:"findings" yaml:"findings"`
}

// NewReport derives the score, band and summary of findings.
func NewReport(id, url string, findings ScanResult, started, completed time.Time) *Report {
	score := Score(findings)
	return &Report{
		ID:          id,
		URL:         url,
		StartedAt:   started,
		CompletedAt: completed,
		Score:       score,
		Band:        BandFor(score),
		Summary:     Summarize(findings),
		Findings:    findings,
	}
}

// Duration is the wall time of the scan.
func (r *Report) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
