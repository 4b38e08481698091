package train

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralsmart/riskctl/pkg/assessment"
	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/model"
	"github.com/oralsmart/riskctl/pkg/risk"
	"github.com/oralsmart/riskctl/pkg/score"
)

func syntheticSamples(n int, seed uint64) []Sample {
	rng := model.NewRand(seed)
	yes := func(p float64) assessment.Answer { return assessment.Answer(rng.Float64() < p) }
	policy := risk.DefaultPolicy()
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		d := &assessment.DentalRecord{
			CaregiverTreatment:  yes(0.7),
			SpecialNeeds:        yes(0.1),
			CavitatedLesions:    yes(0.35),
			MissingTeeth:        yes(0.25),
			WhiteSpotLesions:    yes(0.3),
			DentinDiscoloration: yes(0.2),
			FluorideToothpaste:  yes(0.6),
			RegularCheckups:     yes(0.5),
			Plaque:              yes(0.4),
		}
		diet := &assessment.DietaryRecord{
			SweetSugaryFoods:      yes(0.6),
			SweetSugaryFoodsDaily: assessment.Daily(rng.IntN(5)),
			ColdDrinksJuices:      yes(0.5),
			AddedSugars:           yes(0.4),
			Water:                 yes(0.9),
		}
		b := score.Compute(d, diet)
		out = append(out, Sample{
			Features: features.Encode(d, diet).Slice(),
			Label:    policy.Classify(b.Total, risk.TierOf(d, diet)),
		})
	}
	return out
}

func quickOptions() Options {
	o := DefaultOptions()
	o.Hidden = []int{16, 8}
	o.MaxEpochs = 60
	o.LearningRate = 0.01
	o.BatchSize = 32
	o.Folds = 3
	return o
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"zero test fraction", func(o *Options) { o.TestFraction = 0 }},
		{"full test fraction", func(o *Options) { o.TestFraction = 1 }},
		{"one fold", func(o *Options) { o.Folds = 1 }},
		{"unknown strategy", func(o *Options) { o.Strategy = "magic"; o.NumFeatures = 5 }},
		{"zero features", func(o *Options) { o.Strategy = StrategyANOVA; o.NumFeatures = 0 }},
		{"too many features", func(o *Options) { o.Strategy = StrategyRFE; o.NumFeatures = features.Width + 1 }},
		{"no hidden layers", func(o *Options) { o.Hidden = nil }},
		{"one hidden layer", func(o *Options) { o.Hidden = []int{32} }},
		{"four hidden layers", func(o *Options) { o.Hidden = []int{64, 32, 16, 8} }},
		{"zero width layer", func(o *Options) { o.Hidden = []int{32, 0} }},
		{"negative alpha", func(o *Options) { o.Alpha = -1 }},
		{"no epochs", func(o *Options) { o.MaxEpochs = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(&o)
			assert.ErrorIs(t, o.Validate(), risk.ErrConfiguration)
		})
	}
}

func TestTrainRejectsBadData(t *testing.T) {
	ctx := context.Background()

	one := []Sample{
		{Features: make([]float64, features.Width), Label: risk.Low},
		{Features: make([]float64, features.Width), Label: risk.Low},
	}
	_, _, err := Train(ctx, one, quickOptions())
	assert.ErrorIs(t, err, risk.ErrData)

	short := syntheticSamples(20, 1)
	short[3].Features = short[3].Features[:10]
	_, _, err = Train(ctx, short, quickOptions())
	assert.ErrorIs(t, err, risk.ErrData)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		bad := syntheticSamples(20, 1)
		bad[5].Features[2] = v
		_, _, err = Train(ctx, bad, quickOptions())
		assert.ErrorIs(t, err, risk.ErrData, "value %v", v)
	}

	bad := quickOptions()
	bad.Folds = 0
	_, _, err = Train(ctx, syntheticSamples(20, 1), bad)
	assert.ErrorIs(t, err, risk.ErrConfiguration)
}

func TestTrainRoundTrip(t *testing.T) {
	samples := syntheticSamples(400, 3)
	opts := quickOptions()
	opts.Strategy = StrategyANOVA
	opts.NumFeatures = 20

	art, rep, err := Train(context.Background(), samples, opts)
	require.NoError(t, err)
	require.NotNil(t, art)
	require.NoError(t, art.Validate())

	assert.Len(t, art.SelectedIndices, 20)
	assert.Len(t, rep.SelectedFeatures, 20)
	assert.Len(t, rep.FeatureImportances, features.Width)
	assert.Equal(t, 400, rep.TrainSamples+rep.TestSamples)
	assert.InDelta(t, 80, rep.TestSamples, 2)
	assert.Greater(t, rep.Metrics.Accuracy, 0.6)
	assert.Equal(t, rep.RunID, art.Metadata.RunID)
	assert.Len(t, rep.Metrics.Confusion, risk.NumLabels)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, model.Save(path, art))
	loaded, err := model.Load(path)
	require.NoError(t, err)

	for _, s := range samples[:10] {
		v, ok := features.FromSlice(s.Features)
		require.True(t, ok)
		label, probs, err := loaded.Predict(v)
		require.NoError(t, err)
		require.Len(t, probs, risk.NumLabels)
		sum := 0.0
		for _, p := range probs {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.Equal(t, risk.Label(model.Argmax(probs)), label)
	}
}

func TestTrainAllFeatures(t *testing.T) {
	art, rep, err := Train(context.Background(), syntheticSamples(120, 5), quickOptions())
	require.NoError(t, err)
	assert.Len(t, art.SelectedIndices, features.Width)
	assert.Empty(t, rep.FeatureImportances)
	assert.Empty(t, rep.CVScores)
}

func TestTrainCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Train(ctx, syntheticSamples(100, 2), quickOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch(t *testing.T) {
	samples := syntheticSamples(150, 9)
	x := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		x[i] = s.Features
		y[i] = int(s.Label)
	}
	opts := quickOptions()
	opts.MaxEpochs = 5
	grid := []Candidate{{Hidden: []int{8, 4}, Alpha: 1e-3}, {Hidden: []int{4, 4}, Alpha: 1e-2}}

	scores, best, err := search(context.Background(), x, y, grid, opts)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	for _, s := range scores {
		assert.Len(t, s.Folds, 3)
		assert.GreaterOrEqual(t, s.Mean, 0.0)
		assert.LessOrEqual(t, s.Mean, 1.0)
	}
	assert.Contains(t, grid, best)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = search(ctx, x, y, grid, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGrid(t *testing.T) {
	require.Len(t, Grid, 9)
	assert.Equal(t, []int{64, 32}, Grid[0].Hidden)
	assert.Equal(t, 1e-4, Grid[0].Alpha)
	assert.Equal(t, []int{32, 16}, Grid[8].Hidden)
	assert.Equal(t, 1e-2, Grid[8].Alpha)
}

func TestEvaluate(t *testing.T) {
	actual := []int{0, 0, 1, 1, 2, 2}
	pred := []int{0, 1, 1, 1, 2, 0}
	m := Evaluate(actual, pred)

	assert.InDelta(t, 4.0/6.0, m.Accuracy, 1e-9)
	assert.Equal(t, [][]int{{1, 1, 0}, {0, 2, 0}, {1, 0, 1}}, m.Confusion)
	require.Len(t, m.Classes, 3)
	assert.Equal(t, "low", m.Classes[0].Label)
	assert.InDelta(t, 0.5, m.Classes[0].Precision, 1e-9)
	assert.InDelta(t, 0.5, m.Classes[0].Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.Classes[1].Precision, 1e-9)
	assert.InDelta(t, 1.0, m.Classes[1].Recall, 1e-9)
	assert.InDelta(t, 0.8, m.Classes[1].F1, 1e-9)
	assert.Equal(t, 2, m.Classes[2].Support)

	empty := Evaluate(nil, nil)
	assert.Zero(t, empty.Accuracy)
}
