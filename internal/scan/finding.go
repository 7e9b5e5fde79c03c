package scan

// Status is the outcome of one rule.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusWarn  Status = "warn"
	StatusNA    Status = "na"
	StatusError Status = "error"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPass, StatusFail, StatusWarn, StatusNA, StatusError:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Severity is the risk weight of a failing or warning finding.
type Severity string

const (
	// Critical findings allow direct compromise (credentials over HTTP, insecure sockets).
	Critical Severity = "critical"
	// High findings expose user data or disable a primary browser defence.
	High Severity = "high"
	// Medium findings weaken defence in depth.
	Medium Severity = "medium"
	// Low findings are hygiene issues.
	Low Severity = "low"
)

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case Critical, High, Medium, Low:
		return true
	}
	return false
}

// Weight is the score penalty of the severity. Unknown or empty severities weigh nothing.
func (s Severity) Weight() int {
	switch s {
	case Critical:
		return 5
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// Severities lists the levels from most to least severe.
var Severities = []Severity{Critical, High, Medium, Low}

// Outcome is what a rule reports: the finding without invocation metadata.
type Outcome struct {
	Status    Status
	Details   string
	Severity  Severity
	Fix       string
	Examples  []string
	Reference string
}

// Finding is the normalized result of one rule execution.
type Finding struct {
	Test        string   `json:"test" yaml:"test"`
	Description string   `json:"description" yaml:"description"`
	URL         string   `json:"url" yaml:"url"`
	Status      Status   `json:"status" yaml:"status"`
	Details     string   `json:"details" yaml:"details"`
	Severity    Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
	Fix         string   `json:"fix,omitempty" yaml:"fix,omitempty"`
	Examples    []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	Reference   string   `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// HasSeverity reports whether the finding carries a risk weight.
func (f Finding) HasSeverity() bool {
	return f.Severity != ""
}

// ScanResult is the ordered list of findings of one scan, one per rule.
type ScanResult []Finding
