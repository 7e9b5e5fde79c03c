package scan

import "strings"

// MaxScore is the score of a page with no weighted findings.
const MaxScore = 100

// RiskBand is the qualitative reading of a score.
type RiskBand string

const (
	LowRisk      RiskBand = "Low Risk"
	MediumRisk   RiskBand = "Medium Risk"
	HighRisk     RiskBand = "High Risk"
	CriticalRisk RiskBand = "Critical Risk"
)

// Score subtracts the severity weight of every non-passing finding from
// MaxScore, flooring at zero. Findings without severity weigh nothing.
func Score(findings []Finding) int {
	score := MaxScore
	for _, f := range findings {
		if f.Status == StatusPass {
			continue
		}
		score -= f.Severity.Weight()
	}
	if score < 0 {
		return 0
	}
	return score
}

// BandFor maps a score to its risk band. Each band includes its lower bound.
func BandFor(score int) RiskBand {
	switch {
	case score >= 80:
		return LowRisk
	case score >= 50:
		return MediumRisk
	case score >= 20:
		return HighRisk
	default:
		return CriticalRisk
	}
}

// Rank orders bands from least (0) to most (3) severe.
func (b RiskBand) Rank() int {
	switch b {
	case LowRisk:
		return 0
	case MediumRisk:
		return 1
	case HighRisk:
		return 2
	case CriticalRisk:
		return 3
	default:
		return -1
	}
}

func (b RiskBand) String() string {
	return string(b)
}

// ParseRiskBand accepts a band name ("Low Risk") or its first word ("low").
func ParseRiskBand(s string) (RiskBand, bool) {
	for _, b := range []RiskBand{LowRisk, MediumRisk, HighRisk, CriticalRisk} {
		if strings.EqualFold(s, string(b)) || strings.EqualFold(s, strings.TrimSuffix(string(b), " Risk")) {
			return b, true
		}
	}
	return "", false
}
