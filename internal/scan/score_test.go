package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fail(sev Severity) Finding {
	return Finding{Status: StatusFail, Severity: sev}
}

func TestScoreEmpty(t *testing.T) {
	assert.Equal(t, 100, Score(nil))
	assert.Equal(t, 100, Score([]Finding{}))
}

func TestScoreSubtractsWeights(t *testing.T) {
	assert.Equal(t, 92, Score([]Finding{fail(Critical), fail(High)}))
	assert.Equal(t, 97, Score([]Finding{fail(Medium), {Status: StatusWarn, Severity: Low}}))
}

func TestScoreIgnoresPassAndUnweighted(t *testing.T) {
	findings := []Finding{
		{Status: StatusPass, Severity: Critical},
		{Status: StatusWarn},
		{Status: StatusError, Details: "Test failed: x"},
		{Status: StatusNA},
	}
	assert.Equal(t, 100, Score(findings))
}

func TestScoreCountsAnyNonPassStatusWithSeverity(t *testing.T) {
	assert.Equal(t, 97, Score([]Finding{{Status: StatusNA, Severity: High}}))
}

func TestScoreClampsAtZero(t *testing.T) {
	findings := make([]Finding, 50)
	for i := range findings {
		findings[i] = fail(Critical)
	}
	assert.Equal(t, 0, Score(findings))
}

func TestScoreOrderIndependent(t *testing.T) {
	findings := []Finding{fail(Critical), fail(Low), {Status: StatusPass}, fail(Medium), fail(High)}
	want := Score(findings)

	reversed := make([]Finding, len(findings))
	for i, f := range findings {
		reversed[len(findings)-1-i] = f
	}
	assert.Equal(t, want, Score(reversed))
	assert.Equal(t, 89, want)
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score int
		want  RiskBand
	}{
		{100, LowRisk},
		{80, LowRisk},
		{79, MediumRisk},
		{50, MediumRisk},
		{49, HighRisk},
		{20, HighRisk},
		{19, CriticalRisk},
		{0, CriticalRisk},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.score), "score %d", tt.score)
	}
}

func TestParseRiskBand(t *testing.T) {
	b, ok := ParseRiskBand("high")
	assert.True(t, ok)
	assert.Equal(t, HighRisk, b)

	b, ok = ParseRiskBand("Critical Risk")
	assert.True(t, ok)
	assert.Equal(t, CriticalRisk, b)

	_, ok = ParseRiskBand("severe")
	assert.False(t, ok)

	assert.Less(t, LowRisk.Rank(), CriticalRisk.Rank())
}
