package train

import (
	"github.com/oralsmart/riskctl/pkg/risk"
)

// ClassMetrics are the one-vs-rest scores of a single class.
type ClassMetrics struct {
	Label     string  `json:"label" yaml:"label"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

// Metrics evaluate predictions on held-out rows.
type Metrics struct {
	Accuracy float64        `json:"accuracy" yaml:"accuracy"`
	Classes  []ClassMetrics `json:"classes" yaml:"classes"`
	// Confusion rows are actual labels, columns predicted, both in label order.
	Confusion [][]int `json:"confusion" yaml:"confusion"`
}

// Evaluate scores predicted against actual class indices. Undefined ratios
// (no predictions or no support) are reported as 0.
func Evaluate(actual, predicted []int) Metrics {
	k := risk.NumLabels
	m := Metrics{Confusion: make([][]int, k)}
	for i := range m.Confusion {
		m.Confusion[i] = make([]int, k)
	}
	hit := 0
	for i, a := range actual {
		p := predicted[i]
		m.Confusion[a][p]++
		if a == p {
			hit++
		}
	}
	if len(actual) > 0 {
		m.Accuracy = float64(hit) / float64(len(actual))
	}

	for c := 0; c < k; c++ {
		tp := m.Confusion[c][c]
		support, predictedN := 0, 0
		for j := 0; j < k; j++ {
			support += m.Confusion[c][j]
			predictedN += m.Confusion[j][c]
		}
		cm := ClassMetrics{Label: risk.Label(c).String(), Support: support}
		if predictedN > 0 {
			cm.Precision = float64(tp) / float64(predictedN)
		}
		if support > 0 {
			cm.Recall = float64(tp) / float64(support)
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		m.Classes = append(m.Classes, cm)
	}
	return m
}
