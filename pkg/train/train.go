package train

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/metrics"
	"github.com/oralsmart/riskctl/pkg/model"
	"github.com/oralsmart/riskctl/pkg/risk"
)

// Sample is one labeled training row in schema column order.
type Sample struct {
	Features []float64
	Label    risk.Label
}

// Report describes a finished training run.
type Report struct {
	RunID              string             `json:"run_id" yaml:"run_id"`
	StartedAt          time.Time          `json:"started_at" yaml:"started_at"`
	Duration           string             `json:"duration" yaml:"duration"`
	SchemaVersion      string             `json:"schema_version" yaml:"schema_version"`
	Samples            int                `json:"samples" yaml:"samples"`
	TrainSamples       int                `json:"train_samples" yaml:"train_samples"`
	TestSamples        int                `json:"test_samples" yaml:"test_samples"`
	ClassCounts        map[string]int     `json:"class_counts" yaml:"class_counts"`
	Strategy           string             `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	SelectedFeatures   []string           `json:"selected_features" yaml:"selected_features"`
	FeatureImportances map[string]float64 `json:"feature_importances,omitempty" yaml:"feature_importances,omitempty"`
	Hidden             []int              `json:"hidden" yaml:"hidden"`
	Alpha              float64            `json:"alpha" yaml:"alpha"`
	CVScores           []CVScore          `json:"cv_scores,omitempty" yaml:"cv_scores,omitempty"`
	Fit                model.FitStats     `json:"fit" yaml:"fit"`
	Metrics            Metrics            `json:"metrics" yaml:"metrics"`
}

// Train fits a classifier on samples and evaluates it on a stratified hold-out
// split. Nothing is persisted; callers save the returned artifact.
func Train(ctx context.Context, samples []Sample, opts Options) (*model.Artifact, *Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	x, y, err := prepare(samples)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	art, rep, err := run(ctx, x, y, opts)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.TrainingRuns.WithLabelValues(status).Inc()
	metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, nil, err
	}
	metrics.TrainingAccuracy.Set(rep.Metrics.Accuracy)
	rep.StartedAt = start.UTC()
	rep.Duration = time.Since(start).Round(time.Millisecond).String()
	return art, rep, nil
}

func prepare(samples []Sample) ([][]float64, []int, error) {
	x := make([][]float64, len(samples))
	y := make([]int, len(samples))
	seen := make(map[risk.Label]bool)
	for i, s := range samples {
		if len(s.Features) != features.Width {
			return nil, nil, fmt.Errorf("%w: row %d has %d features, want %d",
				risk.ErrData, i, len(s.Features), features.Width)
		}
		for j, v := range s.Features {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, fmt.Errorf("%w: row %d column %s is not finite", risk.ErrData, i, features.Name(j))
			}
		}
		if !s.Label.Valid() {
			return nil, nil, fmt.Errorf("%w: row %d has invalid label %d", risk.ErrData, i, int(s.Label))
		}
		x[i] = s.Features
		y[i] = int(s.Label)
		seen[s.Label] = true
	}
	if len(seen) < 2 {
		return nil, nil, fmt.Errorf("%w: need at least two risk classes, got %d", risk.ErrData, len(seen))
	}
	return x, y, nil
}

func run(ctx context.Context, x [][]float64, y []int, opts Options) (*model.Artifact, *Report, error) {
	rep := &Report{
		RunID:         uuid.NewString(),
		SchemaVersion: features.SchemaVersion,
		Samples:       len(x),
		ClassCounts:   make(map[string]int),
		Strategy:      opts.Strategy,
	}
	for _, c := range y {
		rep.ClassCounts[risk.Label(c).String()]++
	}

	trainIdx, testIdx := model.StratifiedSplit(y, opts.TestFraction, model.NewRand(opts.Seed))
	if len(testIdx) == 0 || len(trainIdx) < opts.Folds {
		return nil, nil, fmt.Errorf("%w: %d rows are too few to split for training", risk.ErrData, len(x))
	}
	rep.TrainSamples = len(trainIdx)
	rep.TestSamples = len(testIdx)

	trX, trY := rowsOf(x, y, trainIdx)
	teX, teY := rowsOf(x, y, testIdx)

	scaler, err := model.FitScaler(trX)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", risk.ErrData, err)
	}
	trX = scaler.TransformAll(trX)
	teX = scaler.TransformAll(teX)

	selected := make([]int, features.Width)
	for i := range selected {
		selected[i] = i
	}
	if opts.Strategy != StrategyNone {
		sel, err := NewSelector(opts.Strategy, opts.Seed, opts.parallelism())
		if err != nil {
			return nil, nil, err
		}
		scores, err := sel.Scores(ctx, trX, trY)
		if err != nil {
			return nil, nil, fmt.Errorf("error selecting features with %s: %w", sel.Name(), err)
		}
		selected = Top(scores, opts.NumFeatures)
		rep.FeatureImportances = make(map[string]float64, len(scores))
		for i, s := range scores {
			rep.FeatureImportances[features.Name(i)] = s
		}
		slog.Info("features selected", "strategy", sel.Name(), "kept", len(selected))
	}
	trX = project(trX, selected)
	teX = project(teX, selected)

	cfg := opts.fitConfig()
	if opts.Search {
		cv, best, err := search(ctx, trX, trY, Grid, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("error searching hyperparameters: %w", err)
		}
		rep.CVScores = cv
		cfg.Hidden = slices.Clone(best.Hidden)
		cfg.Alpha = best.Alpha
		slog.Info("hyperparameters chosen", "hidden", best.Hidden, "alpha", best.Alpha)
	}

	net, stats, err := model.Fit(ctx, trX, trY, risk.NumLabels, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error fitting network: %w", err)
	}
	rep.Fit = stats
	rep.Hidden = cfg.Hidden
	rep.Alpha = cfg.Alpha
	rep.Metrics = Evaluate(teY, net.PredictBatch(teX))

	art := &model.Artifact{
		SchemaVersion:   features.SchemaVersion,
		FeatureColumns:  features.Columns(),
		SelectedIndices: selected,
		Scaler:          scaler,
		Network:         net,
		Metadata: model.Metadata{
			RunID:              rep.RunID,
			TrainedAt:          time.Now().UTC(),
			Accuracy:           rep.Metrics.Accuracy,
			Strategy:           opts.Strategy,
			Hidden:             cfg.Hidden,
			Alpha:              cfg.Alpha,
			Epochs:             stats.Epochs,
			TrainSamples:       rep.TrainSamples,
			TestSamples:        rep.TestSamples,
			FeatureImportances: firstLayerImportance(net, selected),
		},
	}
	rep.SelectedFeatures = art.SelectedFeatures()

	slog.Info("training complete",
		"run", rep.RunID,
		"accuracy", rep.Metrics.Accuracy,
		"epochs", stats.Epochs,
		"features", len(selected))
	return art, rep, nil
}

func firstLayerImportance(net *model.Network, selected []int) map[string]float64 {
	imp := net.InputImportance()
	out := make(map[string]float64, len(imp))
	for i, v := range imp {
		out[features.Name(selected[i])] = v
	}
	return out
}
