package predict

import (
	"github.com/oralsmart/riskctl/pkg/risk"
)

// Result is the outcome of a single prediction. Failures are reported in
// Available and Error rather than returned.
type Result struct {
	RiskLevel         string  `json:"risk_level" yaml:"risk_level"`
	Confidence        float64 `json:"confidence" yaml:"confidence"`
	ProbabilityLow    float64 `json:"probability_low_risk" yaml:"probability_low_risk"`
	ProbabilityMedium float64 `json:"probability_medium_risk" yaml:"probability_medium_risk"`
	ProbabilityHigh   float64 `json:"probability_high_risk" yaml:"probability_high_risk"`
	Available         bool    `json:"available" yaml:"available"`
	Error             *string `json:"error" yaml:"error"`
}

// Label returns RiskLevel as a risk.Label, Low when it cannot be parsed.
func (r Result) Label() risk.Label {
	l, err := risk.ParseLabel(r.RiskLevel)
	if err != nil {
		return risk.Low
	}
	return l
}

// Probabilities returns the class distribution in label order.
func (r Result) Probabilities() []float64 {
	return []float64{r.ProbabilityLow, r.ProbabilityMedium, r.ProbabilityHigh}
}

// Map returns the stable external shape consumed by report generation.
func (r Result) Map() map[string]any {
	var errVal any
	if r.Error != nil {
		errVal = *r.Error
	}
	return map[string]any{
		"risk_level":              r.RiskLevel,
		"confidence":              r.Confidence,
		"probability_low_risk":    r.ProbabilityLow,
		"probability_medium_risk": r.ProbabilityMedium,
		"probability_high_risk":   r.ProbabilityHigh,
		"available":               r.Available,
		"error":                   errVal,
	}
}

func resultOf(label risk.Label, probs []float64) Result {
	return Result{
		RiskLevel:         label.String(),
		Confidence:        probs[label],
		ProbabilityLow:    probs[risk.Low],
		ProbabilityMedium: probs[risk.Medium],
		ProbabilityHigh:   probs[risk.High],
		Available:         true,
	}
}

// unavailable is the neutral placeholder returned when no model can serve.
// Its probabilities are not meant for decisions.
func unavailable(msg string) Result {
	const neutral = 1.0 / risk.NumLabels
	return Result{
		RiskLevel:         risk.Low.String(),
		Confidence:        0,
		ProbabilityLow:    neutral,
		ProbabilityMedium: neutral,
		ProbabilityHigh:   neutral,
		Available:         false,
		Error:             &msg,
	}
}
