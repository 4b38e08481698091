package risk

import (
	"fmt"
	"log/slog"

	"github.com/oralsmart/riskctl/pkg/assessment"
)

// MediumRatio derives the medium boundary from the high one.
const MediumRatio = 0.65

// Tier describes how much of an assessment is available.
type Tier int

const (
	Complete Tier = iota
	PartialSingleDomain
	Minimal
)

func (t Tier) String() string {
	switch t {
	case Complete:
		return "complete"
	case PartialSingleDomain:
		return "partial_single_domain"
	case Minimal:
		return "minimal"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Base high thresholds per tier. Less data means a lower bar for escalation.
const (
	CompleteHigh = 8.0
	PartialHigh  = 6.0
	MinimalHigh  = 4.0
)

// TierOf derives the completeness tier from the records that are present.
// A submitted record counts even when every answer is "no", matching the
// has_*_data columns of the encoder.
func TierOf(d *assessment.DentalRecord, diet *assessment.DietaryRecord) Tier {
	hasDental := d != nil
	hasDietary := diet != nil
	switch {
	case hasDental && hasDietary:
		return Complete
	case hasDental || hasDietary:
		return PartialSingleDomain
	default:
		return Minimal
	}
}

// Thresholds are the inclusive lower bounds of the Medium and High classes.
type Thresholds struct {
	High   float64 `json:"high" yaml:"high"`
	Medium float64 `json:"medium" yaml:"medium"`
}

// ThresholdsFor derives thresholds from a high boundary.
func ThresholdsFor(high float64) Thresholds {
	return Thresholds{High: high, Medium: MediumRatio * high}
}

// NewThresholds sets both boundaries independently.
func NewThresholds(high, medium float64) (Thresholds, error) {
	if medium >= high {
		return Thresholds{}, fmt.Errorf("%w: medium threshold %.2f must be below high threshold %.2f",
			ErrConfiguration, medium, high)
	}
	return Thresholds{High: high, Medium: medium}, nil
}

// Classify maps a score onto a label. Both boundaries are inclusive.
func (t Thresholds) Classify(score float64) Label {
	switch {
	case score >= t.High:
		return High
	case score >= t.Medium:
		return Medium
	default:
		return Low
	}
}

// TierThresholds returns the base thresholds for a tier. Unknown tiers get
// the most conservative set.
func TierThresholds(tier Tier) Thresholds {
	switch tier {
	case Complete:
		return ThresholdsFor(CompleteHigh)
	case PartialSingleDomain:
		return ThresholdsFor(PartialHigh)
	default:
		return ThresholdsFor(MinimalHigh)
	}
}

// Policy chooses thresholds for a score. The zero value applies the
// tier-adaptive defaults.
type Policy struct {
	fixed *Thresholds
}

// DefaultPolicy applies tier-adaptive thresholds.
func DefaultPolicy() Policy {
	return Policy{}
}

// OverridePolicy replaces tier selection with a single high boundary; the
// medium boundary is derived from it.
func OverridePolicy(high float64) (Policy, error) {
	if high <= 0 {
		return Policy{}, fmt.Errorf("%w: threshold override must be positive, got %.2f", ErrConfiguration, high)
	}
	t := ThresholdsFor(high)
	return Policy{fixed: &t}, nil
}

// FixedPolicy replaces tier selection with independently set boundaries.
func FixedPolicy(high, medium float64) (Policy, error) {
	t, err := NewThresholds(high, medium)
	if err != nil {
		return Policy{}, err
	}
	return Policy{fixed: &t}, nil
}

// Overridden reports whether the policy ignores the tier.
func (p Policy) Overridden() bool {
	return p.fixed != nil
}

// Thresholds returns the boundaries used for the tier.
func (p Policy) Thresholds(tier Tier) Thresholds {
	if p.fixed != nil {
		return *p.fixed
	}
	return TierThresholds(tier)
}

// Classify labels a composite score for the given tier.
func (p Policy) Classify(score float64, tier Tier) Label {
	t := p.Thresholds(tier)
	l := t.Classify(score)
	slog.Debug("classified",
		"score", score,
		"tier", tier.String(),
		"high", t.High,
		"medium", t.Medium,
		"overridden", p.Overridden(),
		"label", l.String())
	return l
}
