package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralsmart/riskctl/pkg/risk"
)

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	c1, err := ReadOrCreate(dir)
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.Equal(t, filepath.Join(dir, "model.json"), c1.ArtifactPath)
	assert.Equal(t, 5, c1.Training.Folds)
	assert.Equal(t, uint64(42), c1.Training.Seed)
	assert.Equal(t, []int{64, 32, 16}, c1.Training.Hidden)
	assert.Equal(t, 30*time.Minute, c1.Training.Timeout)
	assert.Equal(t, 8, c1.Labels.MinDMFT)

	c1.Training.Folds = 3
	c1.Training.Strategy = "anova"
	c1.Labels.MinDMFT = 4

	require.NoError(t, Save(dir, c1))

	c2, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestReadOrCreate_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RISKCTL_TRAINING_FOLDS", "10")
	t.Setenv("RISKCTL_LEDGER", "postgres://localhost/riskctl")
	t.Setenv("RISKCTL_LABELS_THRESHOLD", "7.5")

	c, err := ReadOrCreate(dir)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Training.Folds)
	assert.Equal(t, "postgres://localhost/riskctl", c.Ledger)
	assert.Equal(t, 7.5, c.Labels.Threshold)
}

func TestReadOrCreate_Invalid(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("training: [\n"), fileMode))
	_, err = ReadOrCreate(dir)
	assert.Error(t, err)
}

func TestSave_Invalid(t *testing.T) {
	assert.Error(t, Save("", Default("x")))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestTrainingOptions(t *testing.T) {
	c := Default(t.TempDir())
	c.Training.Strategy = "rfe"
	c.Training.NumFeatures = 20
	o := c.Training.Options()
	assert.Equal(t, "rfe", o.Strategy)
	assert.Equal(t, 20, o.NumFeatures)
	assert.Equal(t, 0.2, o.TestFraction)
	assert.NoError(t, o.Validate())
}

func TestLabelPolicy(t *testing.T) {
	p, err := LabelConfig{}.Policy()
	require.NoError(t, err)
	assert.False(t, p.Overridden())

	p, err = LabelConfig{Threshold: 10}.Policy()
	require.NoError(t, err)
	assert.True(t, p.Overridden())
	assert.Equal(t, risk.Medium, p.Classify(6.5, risk.Complete))

	_, err = LabelConfig{Threshold: -1}.Policy()
	assert.ErrorIs(t, err, risk.ErrConfiguration)
}

func TestGetOrCreateHomeDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir, created, err := GetOrCreateHomeDir("riskctl")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, ".riskctl", filepath.Base(dir))

	_, created, err = GetOrCreateHomeDir(".riskctl")
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = GetOrCreateHomeDir("")
	assert.Error(t, err)
}
