package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/oralsmart/riskctl/pkg/data"
	"github.com/oralsmart/riskctl/pkg/dataset"
	"github.com/oralsmart/riskctl/pkg/risk"
	"github.com/oralsmart/riskctl/pkg/train"
)

const (
	configFileName   = "config.yaml"
	artifactFileName = "model.json"
	envPrefix        = "RISKCTL"
	dirMode          = 0700
	fileMode         = 0600
)

// Config represents app config object.
type Config struct {
	ArtifactPath string         `yaml:"artifact_path" mapstructure:"artifact_path"`
	Ledger       string         `yaml:"ledger" mapstructure:"ledger"`
	LogLevel     string         `yaml:"log_level" mapstructure:"log_level"`
	Training     TrainingConfig `yaml:"training" mapstructure:"training"`
	Labels       LabelConfig    `yaml:"labels" mapstructure:"labels"`
}

// TrainingConfig holds training defaults; flags override them per run.
type TrainingConfig struct {
	TestFraction float64       `yaml:"test_fraction" mapstructure:"test_fraction"`
	Folds        int           `yaml:"folds" mapstructure:"folds"`
	Seed         uint64        `yaml:"seed" mapstructure:"seed"`
	MaxEpochs    int           `yaml:"max_epochs" mapstructure:"max_epochs"`
	Hidden       []int         `yaml:"hidden" mapstructure:"hidden"`
	Alpha        float64       `yaml:"alpha" mapstructure:"alpha"`
	Strategy     string        `yaml:"strategy" mapstructure:"strategy"`
	NumFeatures  int           `yaml:"num_features" mapstructure:"num_features"`
	Search       bool          `yaml:"search" mapstructure:"search"`
	Parallelism  int           `yaml:"parallelism" mapstructure:"parallelism"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LabelConfig holds labeling defaults for exports.
type LabelConfig struct {
	// Threshold overrides the tiered high threshold when positive.
	Threshold         float64 `yaml:"threshold" mapstructure:"threshold"`
	MinDMFT           int     `yaml:"min_dmft" mapstructure:"min_dmft"`
	IncludeIncomplete bool    `yaml:"include_incomplete" mapstructure:"include_incomplete"`
}

// Default returns the config used when none exists in dirPath.
func Default(dirPath string) *Config {
	o := train.DefaultOptions()
	return &Config{
		ArtifactPath: filepath.Join(dirPath, artifactFileName),
		Ledger:       filepath.Join(dirPath, data.DataFileName),
		LogLevel:     "info",
		Training: TrainingConfig{
			TestFraction: o.TestFraction,
			Folds:        o.Folds,
			Seed:         o.Seed,
			MaxEpochs:    o.MaxEpochs,
			Hidden:       o.Hidden,
			Alpha:        o.Alpha,
			Parallelism:  o.Parallelism,
			Timeout:      30 * time.Minute,
		},
		Labels: LabelConfig{
			MinDMFT: dataset.DefaultMinDMFT,
		},
	}
}

// Options converts the training section into trainer options.
func (t TrainingConfig) Options() train.Options {
	o := train.DefaultOptions()
	o.TestFraction = t.TestFraction
	o.Folds = t.Folds
	o.Seed = t.Seed
	o.MaxEpochs = t.MaxEpochs
	if len(t.Hidden) > 0 {
		o.Hidden = t.Hidden
	}
	o.Alpha = t.Alpha
	o.Strategy = t.Strategy
	o.NumFeatures = t.NumFeatures
	o.Search = t.Search
	o.Parallelism = t.Parallelism
	return o
}

// Policy returns the threshold policy the label section describes.
func (l LabelConfig) Policy() (risk.Policy, error) {
	if l.Threshold == 0 {
		return risk.DefaultPolicy(), nil
	}
	return risk.OverridePolicy(l.Threshold)
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// RISKCTL_* environment variables override file values, e.g.
// RISKCTL_TRAINING_FOLDS=10.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
	}

	path := filepath.Join(dirPath, configFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default(dirPath)); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default(dirPath))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	return &c, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("artifact_path", d.ArtifactPath)
	v.SetDefault("ledger", d.Ledger)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("training.test_fraction", d.Training.TestFraction)
	v.SetDefault("training.folds", d.Training.Folds)
	v.SetDefault("training.seed", d.Training.Seed)
	v.SetDefault("training.max_epochs", d.Training.MaxEpochs)
	v.SetDefault("training.hidden", d.Training.Hidden)
	v.SetDefault("training.alpha", d.Training.Alpha)
	v.SetDefault("training.strategy", d.Training.Strategy)
	v.SetDefault("training.num_features", d.Training.NumFeatures)
	v.SetDefault("training.search", d.Training.Search)
	v.SetDefault("training.parallelism", d.Training.Parallelism)
	v.SetDefault("training.timeout", d.Training.Timeout)

	v.SetDefault("labels.threshold", d.Labels.Threshold)
	v.SetDefault("labels.min_dmft", d.Labels.MinDMFT)
	v.SetDefault("labels.include_incomplete", d.Labels.IncludeIncomplete)
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
