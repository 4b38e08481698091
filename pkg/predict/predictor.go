package predict

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/oralsmart/riskctl/pkg/assessment"
	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/metrics"
	"github.com/oralsmart/riskctl/pkg/model"
	"github.com/oralsmart/riskctl/pkg/risk"
)

const msgNotTrained = "model not trained: no artifact loaded"

// Predictor serves predictions from the currently loaded artifact. It is
// safe for concurrent use; loading a new artifact swaps it in atomically.
type Predictor struct {
	active atomic.Pointer[handle]
}

type handle struct {
	artifact *model.Artifact
	path     string
	loadedAt time.Time
}

// New returns a predictor with no artifact loaded.
func New() *Predictor {
	return &Predictor{}
}

// LoadArtifact reads and validates the artifact at path and makes it active.
// On failure the previously active artifact stays in place.
func (p *Predictor) LoadArtifact(path string) (*model.Artifact, error) {
	a, err := model.Load(path)
	if err != nil {
		metrics.ArtifactLoads.WithLabelValues("error").Inc()
		return nil, err
	}
	p.swap(a, path)
	metrics.ArtifactLoads.WithLabelValues("ok").Inc()
	slog.Debug("artifact loaded", "path", path, "run", a.Metadata.RunID)
	return a, nil
}

// Use makes an in-memory artifact active.
func (p *Predictor) Use(a *model.Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %w", risk.ErrLoad, err)
	}
	p.swap(a, "")
	return nil
}

func (p *Predictor) swap(a *model.Artifact, path string) {
	p.active.Store(&handle{artifact: a, path: path, loadedAt: time.Now().UTC()})
}

// Artifact returns the active artifact, nil when none is loaded.
func (p *Predictor) Artifact() *model.Artifact {
	if h := p.active.Load(); h != nil {
		return h.artifact
	}
	return nil
}

// Available reports whether an artifact is loaded.
func (p *Predictor) Available() bool {
	return p.active.Load() != nil
}

// Predict classifies an assessment. It never panics and never fails; see
// Result.Available and Result.Error.
func (p *Predictor) Predict(d *assessment.DentalRecord, diet *assessment.DietaryRecord) Result {
	return p.PredictVector(features.Encode(d, diet))
}

// PredictVector classifies an already encoded assessment.
func (p *Predictor) PredictVector(v features.Vector) (res Result) {
	h := p.active.Load()
	if h == nil {
		res = unavailable(msgNotTrained)
		observe(res)
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res = unavailable(fmt.Sprintf("%v: %v", risk.ErrPrediction, r))
			slog.Error("prediction panicked", "panic", r)
		}
		observe(res)
	}()

	label, probs, err := h.artifact.Predict(v)
	if err != nil {
		return unavailable(fmt.Errorf("%w: %w", risk.ErrPrediction, err).Error())
	}
	if len(probs) != risk.NumLabels {
		return unavailable(fmt.Sprintf("%v: model returned %d probabilities", risk.ErrPrediction, len(probs)))
	}
	for _, x := range probs {
		if x < 0 || x > 1 || math.IsNaN(x) {
			return unavailable(fmt.Sprintf("%v: probability out of range", risk.ErrPrediction))
		}
	}
	return resultOf(label, probs)
}

func observe(r Result) {
	metrics.PredictionsTotal.WithLabelValues(r.RiskLevel, strconv.FormatBool(r.Available)).Inc()
	if !r.Available {
		metrics.PredictionErrors.Inc()
		return
	}
	metrics.PredictionConfidence.Observe(r.Confidence)
}

// Info describes the active model.
type Info struct {
	Status           string          `json:"status" yaml:"status"`
	Path             string          `json:"path,omitempty" yaml:"path,omitempty"`
	LoadedAt         *time.Time      `json:"loaded_at,omitempty" yaml:"loaded_at,omitempty"`
	SchemaVersion    string          `json:"schema_version" yaml:"schema_version"`
	FeatureCount     int             `json:"feature_count" yaml:"feature_count"`
	SelectedFeatures []string        `json:"selected_features,omitempty" yaml:"selected_features,omitempty"`
	Metadata         *model.Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	TopFactors       []Factor        `json:"top_factors,omitempty" yaml:"top_factors,omitempty"`
}

// Info returns the status of the active model.
func (p *Predictor) Info() Info {
	h := p.active.Load()
	if h == nil {
		return Info{Status: "not_trained", SchemaVersion: features.SchemaVersion, FeatureCount: features.Width}
	}
	a := h.artifact
	md := a.Metadata
	loaded := h.loadedAt
	return Info{
		Status:           "trained",
		Path:             h.path,
		LoadedAt:         &loaded,
		SchemaVersion:    a.SchemaVersion,
		FeatureCount:     len(a.FeatureColumns),
		SelectedFeatures: a.SelectedFeatures(),
		Metadata:         &md,
		TopFactors:       p.TopFactors(5),
	}
}

// Factor is one input ranked by the weight the network puts on it.
type Factor struct {
	Feature    string  `json:"feature" yaml:"feature"`
	Importance float64 `json:"importance" yaml:"importance"`
}

// TopFactors ranks the selected inputs by mean absolute first-layer weight.
// Equal weights keep column order. Nil when no artifact is loaded.
func (p *Predictor) TopFactors(n int) []Factor {
	a := p.Artifact()
	if a == nil {
		return nil
	}
	imp := a.Network.InputImportance()
	out := make([]Factor, len(imp))
	for i, v := range imp {
		out[i] = Factor{Feature: features.Name(a.SelectedIndices[i]), Importance: v}
	}
	slices.SortStableFunc(out, func(a, b Factor) int {
		return cmp.Compare(b.Importance, a.Importance)
	})
	return out[:min(n, len(out))]
}
