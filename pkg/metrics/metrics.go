package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the riskctl collectors only, so textfile exports do
	// not pick up process metrics.
	Registry = prometheus.NewRegistry()

	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskctl_predictions_total",
			Help: "Total number of predictions served",
		},
		[]string{"risk_level", "available"},
	)

	PredictionErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "riskctl_prediction_errors_total",
			Help: "Total number of predictions that failed and fell back to neutral probabilities",
		},
	)

	PredictionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskctl_prediction_confidence",
			Help:    "Confidence of served predictions",
			Buckets: []float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	ArtifactLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskctl_artifact_loads_total",
			Help: "Total number of model artifact load attempts",
		},
		[]string{"status"},
	)

	TrainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskctl_training_runs_total",
			Help: "Total number of training runs",
		},
		[]string{"status"},
	)

	TrainingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskctl_training_duration_seconds",
			Help:    "Training run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	TrainingAccuracy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "riskctl_training_accuracy",
			Help: "Test split accuracy of the most recent training run",
		},
	)

	once sync.Once
)

// Init registers all collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		Registry.MustRegister(PredictionsTotal)
		Registry.MustRegister(PredictionErrors)
		Registry.MustRegister(PredictionConfidence)
		Registry.MustRegister(ArtifactLoads)
		Registry.MustRegister(TrainingRuns)
		Registry.MustRegister(TrainingDuration)
		Registry.MustRegister(TrainingAccuracy)
	})
}

// WriteTextfile writes the registry in the node exporter textfile format.
func WriteTextfile(path string) error {
	Init()
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("error writing metrics to %s: %w", path, err)
	}
	return nil
}
