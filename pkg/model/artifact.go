package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/oralsmart/riskctl/pkg/features"
	"github.com/oralsmart/riskctl/pkg/risk"
)

// Metadata describes how an artifact was produced.
type Metadata struct {
	RunID              string             `json:"run_id" yaml:"run_id"`
	TrainedAt          time.Time          `json:"trained_at" yaml:"trained_at"`
	Accuracy           float64            `json:"accuracy" yaml:"accuracy"`
	Strategy           string             `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Hidden             []int              `json:"hidden" yaml:"hidden"`
	Alpha              float64            `json:"alpha" yaml:"alpha"`
	Epochs             int                `json:"epochs" yaml:"epochs"`
	TrainSamples       int                `json:"train_samples" yaml:"train_samples"`
	TestSamples        int                `json:"test_samples" yaml:"test_samples"`
	FeatureImportances map[string]float64 `json:"feature_importances,omitempty" yaml:"feature_importances,omitempty"`
}

// Artifact is a trained classifier together with everything needed to
// reproduce its input pipeline. It is never mutated after Load.
type Artifact struct {
	SchemaVersion   string   `json:"schema_version"`
	FeatureColumns  []string `json:"feature_columns"`
	SelectedIndices []int    `json:"selected_indices"`
	Scaler          Scaler   `json:"scaler"`
	Network         *Network `json:"network"`
	Metadata        Metadata `json:"metadata"`
}

// Validate checks the artifact against the current feature schema.
func (a *Artifact) Validate() error {
	if a.SchemaVersion != features.SchemaVersion {
		return fmt.Errorf("schema version %q does not match %q", a.SchemaVersion, features.SchemaVersion)
	}
	if !slices.Equal(a.FeatureColumns, features.Columns()) {
		return fmt.Errorf("feature columns do not match schema %s", features.SchemaVersion)
	}
	if len(a.SelectedIndices) == 0 {
		return fmt.Errorf("no selected features")
	}
	for i, idx := range a.SelectedIndices {
		if idx < 0 || idx >= features.Width {
			return fmt.Errorf("selected index %d out of range", idx)
		}
		if i > 0 && idx <= a.SelectedIndices[i-1] {
			return fmt.Errorf("selected indices must be strictly increasing")
		}
	}
	if err := a.Scaler.validate(features.Width); err != nil {
		return err
	}
	if a.Network == nil {
		return fmt.Errorf("missing network")
	}
	if err := a.Network.Validate(); err != nil {
		return err
	}
	if a.Network.InputSize() != len(a.SelectedIndices) {
		return fmt.Errorf("network expects %d inputs, %d features selected", a.Network.InputSize(), len(a.SelectedIndices))
	}
	if a.Network.OutputSize() != risk.NumLabels {
		return fmt.Errorf("network has %d outputs, want %d", a.Network.OutputSize(), risk.NumLabels)
	}
	return nil
}

// SelectedFeatures returns the names of the columns fed to the network.
func (a *Artifact) SelectedFeatures() []string {
	out := make([]string, len(a.SelectedIndices))
	for i, idx := range a.SelectedIndices {
		out[i] = features.Name(idx)
	}
	return out
}

// Input standardizes a full vector and keeps the selected columns.
func (a *Artifact) Input(v features.Vector) []float64 {
	scaled := a.Scaler.Transform(v[:])
	in := make([]float64, len(a.SelectedIndices))
	for i, idx := range a.SelectedIndices {
		in[i] = scaled[idx]
	}
	return in
}

// Probabilities returns the class distribution in label order.
func (a *Artifact) Probabilities(v features.Vector) ([]float64, error) {
	return a.Network.Probabilities(a.Input(v))
}

// Predict returns the most likely label and the class distribution.
func (a *Artifact) Predict(v features.Vector) (risk.Label, []float64, error) {
	p, err := a.Probabilities(v)
	if err != nil {
		return risk.Low, nil, err
	}
	return risk.Label(Argmax(p)), p, nil
}

// Save writes the artifact atomically: a temp file in the target directory
// is synced and renamed over path.
func Save(path string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid artifact: %w", err)
	}
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating artifact dir %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp artifact: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("error writing artifact: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("error syncing artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("error closing artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error replacing artifact %s: %w", path, err)
	}
	return nil
}

// Load reads and validates an artifact. All failures wrap risk.ErrLoad.
func Load(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", risk.ErrLoad, path, err)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", risk.ErrLoad, path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", risk.ErrLoad, path, err)
	}
	return &a, nil
}
