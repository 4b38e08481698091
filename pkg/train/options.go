package train

import (
	"fmt"
	"slices"

	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/model"
	"github.com/oralsmart/riskctl/pkg/risk"
)

// Selection strategies.
const (
	StrategyNone       = ""
	StrategyImportance = "importance"
	StrategyANOVA      = "anova"
	StrategyRFE        = "rfe"
)

// Hidden layer depth bounds of the classifier.
const (
	MinHiddenLayers = 2
	MaxHiddenLayers = 3
)

// Strategies lists the supported selection strategies.
var Strategies = []string{StrategyImportance, StrategyANOVA, StrategyRFE}

// Options configures a training run.
type Options struct {
	TestFraction float64 `json:"test_fraction" yaml:"test_fraction"`
	Folds        int     `json:"folds" yaml:"folds"`
	Seed         uint64  `json:"seed" yaml:"seed"`
	Strategy     string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	NumFeatures  int     `json:"num_features,omitempty" yaml:"num_features,omitempty"`
	Search       bool    `json:"search" yaml:"search"`
	Hidden       []int   `json:"hidden" yaml:"hidden"`
	Alpha        float64 `json:"alpha" yaml:"alpha"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	BatchSize    int     `json:"batch_size" yaml:"batch_size"`
	MaxEpochs    int     `json:"max_epochs" yaml:"max_epochs"`
	Patience     int     `json:"patience" yaml:"patience"`
	Parallelism  int     `json:"parallelism" yaml:"parallelism"`
}

// DefaultOptions returns the production training setup.
func DefaultOptions() Options {
	fit := model.DefaultFitConfig()
	return Options{
		TestFraction: 0.2,
		Folds:        5,
		Seed:         42,
		Hidden:       fit.Hidden,
		Alpha:        fit.Alpha,
		LearningRate: fit.LearningRate,
		BatchSize:    fit.BatchSize,
		MaxEpochs:    fit.MaxEpochs,
		Patience:     fit.Patience,
		Parallelism:  4,
	}
}

// Validate rejects unusable options before any work begins.
func (o Options) Validate() error {
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		return fmt.Errorf("%w: test fraction must be in (0,1), got %v", risk.ErrConfiguration, o.TestFraction)
	}
	if o.Folds < 2 {
		return fmt.Errorf("%w: folds must be at least 2, got %d", risk.ErrConfiguration, o.Folds)
	}
	if o.Strategy != StrategyNone {
		if !slices.Contains(Strategies, o.Strategy) {
			return fmt.Errorf("%w: unknown selection strategy %q", risk.ErrConfiguration, o.Strategy)
		}
		if o.NumFeatures < 1 || o.NumFeatures > features.Width {
			return fmt.Errorf("%w: number of features must be in [1,%d], got %d",
				risk.ErrConfiguration, features.Width, o.NumFeatures)
		}
	}
	if len(o.Hidden) < MinHiddenLayers || len(o.Hidden) > MaxHiddenLayers {
		return fmt.Errorf("%w: need %d to %d hidden layers, got %d",
			risk.ErrConfiguration, MinHiddenLayers, MaxHiddenLayers, len(o.Hidden))
	}
	for _, h := range o.Hidden {
		if h < 1 {
			return fmt.Errorf("%w: hidden layer width must be positive, got %d", risk.ErrConfiguration, h)
		}
	}
	if o.Alpha < 0 {
		return fmt.Errorf("%w: alpha must not be negative", risk.ErrConfiguration)
	}
	if o.MaxEpochs < 1 {
		return fmt.Errorf("%w: max epochs must be positive", risk.ErrConfiguration)
	}
	return nil
}

func (o Options) fitConfig() model.FitConfig {
	c := model.DefaultFitConfig()
	c.Hidden = slices.Clone(o.Hidden)
	c.Alpha = o.Alpha
	c.Seed = o.Seed
	c.MaxEpochs = o.MaxEpochs
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Patience > 0 {
		c.Patience = o.Patience
	}
	return c
}

func (o Options) parallelism() int {
	if o.Parallelism < 1 {
		return 1
	}
	return o.Parallelism
}
