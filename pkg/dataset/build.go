package dataset

import (
	"fmt"
	"log/slog"

	"github.com/oralsmart/riskctl/pkg/assessment"
	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/risk"
	"github.com/oralsmart/riskctl/pkg/score"
)

// Class share bounds outside which an exported table is reported as
// imbalanced.
const (
	MinClassShare = 0.10
	MaxClassShare = 0.70
)

// DefaultMinDMFT is the affected tooth count at which exports label a child
// High regardless of score.
const DefaultMinDMFT = 8

// BuildOptions control how assessments are labeled and filtered.
type BuildOptions struct {
	Policy risk.Policy
	// MinDMFT labels any child with at least this many affected teeth High
	// regardless of score. Zero disables the shortcut.
	MinDMFT int
	// IncludeIncomplete keeps assessments that carry only one record.
	IncludeIncomplete bool
}

// Stats summarize an export.
type Stats struct {
	Total       int            `json:"total" yaml:"total"`
	Complete    int            `json:"complete" yaml:"complete"`
	DentalOnly  int            `json:"dental_only" yaml:"dental_only"`
	DietaryOnly int            `json:"dietary_only" yaml:"dietary_only"`
	Empty       int            `json:"empty" yaml:"empty"`
	Exported    int            `json:"exported" yaml:"exported"`
	Skipped     int            `json:"skipped" yaml:"skipped"`
	DMFTShort   int            `json:"dmft_shortcut" yaml:"dmft_shortcut"`
	Labels      map[string]int `json:"labels" yaml:"labels"`
	MeanScore   float64        `json:"mean_score" yaml:"mean_score"`
	Warnings    []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Label scores a single assessment and classifies it. The second return
// reports whether the DMFT shortcut decided the label.
func Label(p assessment.Pair, opts BuildOptions) (risk.Label, score.Breakdown, bool) {
	b := score.Compute(p.Dental, p.Dietary)
	if opts.MinDMFT > 0 && b.DMFTCount >= opts.MinDMFT {
		return risk.High, b, true
	}
	return opts.Policy.Classify(b.Total, risk.TierOf(p.Dental, p.Dietary)), b, false
}

// Build labels assessments into a training table. Pairs without any record
// are always skipped; single-record pairs only when IncludeIncomplete is off.
func Build(pairs []assessment.Pair, opts BuildOptions) (*Table, Stats) {
	st := Stats{Total: len(pairs), Labels: make(map[string]int)}
	for _, l := range risk.Labels {
		st.Labels[l.String()] = 0
	}

	t := &Table{}
	sum := 0.0
	for _, p := range pairs {
		switch {
		case p.Complete():
			st.Complete++
		case p.Dental != nil:
			st.DentalOnly++
		case p.Dietary != nil:
			st.DietaryOnly++
		default:
			st.Empty++
			st.Skipped++
			continue
		}
		if !p.Complete() && !opts.IncludeIncomplete {
			st.Skipped++
			continue
		}

		label, b, short := Label(p, opts)
		if short {
			st.DMFTShort++
		}
		sum += b.Total
		st.Labels[label.String()]++
		t.Rows = append(t.Rows, Row{Vector: features.EncodePair(p), Label: label})
	}
	st.Exported = len(t.Rows)
	if st.Exported > 0 {
		st.MeanScore = sum / float64(st.Exported)
	}
	st.Warnings = imbalance(st.Labels, st.Exported)
	for _, w := range st.Warnings {
		slog.Warn("class imbalance", "detail", w)
	}
	return t, st
}

func imbalance(counts map[string]int, total int) []string {
	if total == 0 {
		return nil
	}
	var out []string
	for _, l := range risk.Labels {
		share := float64(counts[l.String()]) / float64(total)
		switch {
		case share < MinClassShare:
			out = append(out, fmt.Sprintf("%s risk is %.1f%% of rows (below %.0f%%)", l, share*100, MinClassShare*100))
		case share > MaxClassShare:
			out = append(out, fmt.Sprintf("%s risk is %.1f%% of rows (above %.0f%%)", l, share*100, MaxClassShare*100))
		}
	}
	return out
}
