package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// FitConfig controls network training.
type FitConfig struct {
	Hidden             []int
	Alpha              float64
	LearningRate       float64
	BatchSize          int
	MaxEpochs          int
	Patience           int
	ValidationFraction float64
	Tolerance          float64
	Seed               uint64
}

// DefaultFitConfig mirrors the production classifier.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		Hidden:             []int{64, 32, 16},
		Alpha:              1e-3,
		LearningRate:       1e-3,
		BatchSize:          200,
		MaxEpochs:          200,
		Patience:           10,
		ValidationFraction: 0.1,
		Tolerance:          1e-4,
		Seed:               42,
	}
}

// FitStats summarizes a training run.
type FitStats struct {
	Epochs         int     `json:"epochs" yaml:"epochs"`
	Loss           float64 `json:"loss" yaml:"loss"`
	BestValidation float64 `json:"best_validation,omitempty" yaml:"best_validation,omitempty"`
	EarlyStopped   bool    `json:"early_stopped" yaml:"early_stopped"`
}

// minEarlyStopRows is the smallest training set that gets a validation slice.
const minEarlyStopRows = 20

// Fit trains a network on x with class indices y in [0, classes).
// Cancellation is checked between epochs.
func Fit(ctx context.Context, x [][]float64, y []int, classes int, cfg FitConfig) (*Network, FitStats, error) {
	var stats FitStats
	if len(x) == 0 || len(x) != len(y) {
		return nil, stats, fmt.Errorf("fit: %d rows and %d labels", len(x), len(y))
	}
	if classes < 2 {
		return nil, stats, errors.New("fit: need at least two classes")
	}
	for _, c := range y {
		if c < 0 || c >= classes {
			return nil, stats, fmt.Errorf("fit: label %d out of range", c)
		}
	}

	rng := NewRand(cfg.Seed)
	trainIdx := make([]int, len(x))
	for i := range trainIdx {
		trainIdx[i] = i
	}
	var valIdx []int
	if cfg.ValidationFraction > 0 && len(x) >= minEarlyStopRows {
		trainIdx, valIdx = StratifiedSplit(y, cfg.ValidationFraction, rng)
	}

	sizes := append(append([]int{len(x[0])}, cfg.Hidden...), classes)
	net := NewNetwork(sizes, rng)
	opt := newAdam(net, cfg.LearningRate)

	batch := cfg.BatchSize
	if batch <= 0 || batch > len(trainIdx) {
		batch = len(trainIdx)
	}

	var best *Network
	bestScore := math.Inf(-1)
	bestLoss := math.Inf(1)
	stale := 0

	for epoch := 1; epoch <= cfg.MaxEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })

		total := 0.0
		for start := 0; start < len(trainIdx); start += batch {
			idx := trainIdx[start:min(start+batch, len(trainIdx))]
			xb, yb := gather(x, y, idx)
			total += net.step(xb, yb, cfg.Alpha, opt) * float64(len(idx))
		}
		stats.Loss = total / float64(len(trainIdx))
		stats.Epochs = epoch
		if math.IsNaN(stats.Loss) {
			return nil, stats, errors.New("fit: loss diverged")
		}

		if valIdx != nil {
			acc := accuracyOn(net, x, y, valIdx)
			if acc > bestScore+cfg.Tolerance {
				bestScore = acc
				best = net.clone()
				stale = 0
			} else {
				stale++
			}
		} else {
			if stats.Loss < bestLoss-cfg.Tolerance {
				bestLoss = stats.Loss
				stale = 0
			} else {
				stale++
			}
		}
		if cfg.Patience > 0 && stale >= cfg.Patience {
			stats.EarlyStopped = true
			break
		}
	}

	if best != nil {
		net = best
		stats.BestValidation = bestScore
	}
	slog.Debug("network fitted",
		"hidden", cfg.Hidden,
		"alpha", cfg.Alpha,
		"epochs", stats.Epochs,
		"loss", stats.Loss,
		"validation", stats.BestValidation,
		"early_stopped", stats.EarlyStopped)
	return net, stats, nil
}

func gather(x [][]float64, y []int, idx []int) (*mat.Dense, []int) {
	rows := make([][]float64, len(idx))
	labels := make([]int, len(idx))
	for i, k := range idx {
		rows[i] = x[k]
		labels[i] = y[k]
	}
	return toDense(rows), labels
}

func accuracyOn(n *Network, x [][]float64, y []int, idx []int) float64 {
	rows := make([][]float64, len(idx))
	for i, k := range idx {
		rows[i] = x[k]
	}
	pred := n.PredictBatch(rows)
	hit := 0
	for i, k := range idx {
		if pred[i] == y[k] {
			hit++
		}
	}
	return float64(hit) / float64(len(idx))
}

type gradient struct {
	w []float64
	b []float64
}

// step runs one forward/backward pass and applies an optimizer update.
// It returns the mean cross-entropy plus the L2 penalty.
func (n *Network) step(xb *mat.Dense, yb []int, alpha float64, opt *adam) float64 {
	acts := n.forward(xb)
	m, _ := xb.Dims()
	fm := float64(m)
	out := acts[len(acts)-1]

	loss := 0.0
	for i, c := range yb {
		loss -= math.Log(math.Max(out.At(i, c), 1e-12))
	}
	loss /= fm

	delta := mat.DenseCopyOf(out)
	for i, c := range yb {
		delta.Set(i, c, delta.At(i, c)-1)
	}
	delta.Scale(1/fm, delta)

	grads := make([]gradient, len(n.Layers))
	penalty := 0.0
	for li := len(n.Layers) - 1; li >= 0; li-- {
		l := n.Layers[li]
		w := mat.NewDense(l.In, l.Out, l.Weights)

		gw := mat.NewDense(l.In, l.Out, nil)
		gw.Mul(acts[li].T(), delta)
		gw.Apply(func(i, j int, v float64) float64 {
			return v + alpha*w.At(i, j)/fm
		}, gw)

		gb := make([]float64, l.Out)
		for i := 0; i < m; i++ {
			for j, v := range delta.RawRowView(i) {
				gb[j] += v
			}
		}
		grads[li] = gradient{w: gw.RawMatrix().Data, b: gb}

		for _, v := range l.Weights {
			penalty += v * v
		}

		if li > 0 {
			prev := mat.NewDense(m, l.In, nil)
			prev.Mul(delta, w.T())
			a := acts[li]
			prev.Apply(func(i, j int, v float64) float64 {
				if a.At(i, j) <= 0 {
					return 0
				}
				return v
			}, prev)
			delta = prev
		}
	}

	opt.update(n, grads)
	return loss + alpha*penalty/(2*fm)
}

// adam is the Adam optimizer state for one network.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	mw, vw, mb, vb        [][]float64
}

func newAdam(n *Network, lr float64) *adam {
	if lr <= 0 {
		lr = 1e-3
	}
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8}
	for _, l := range n.Layers {
		a.mw = append(a.mw, make([]float64, len(l.Weights)))
		a.vw = append(a.vw, make([]float64, len(l.Weights)))
		a.mb = append(a.mb, make([]float64, len(l.Biases)))
		a.vb = append(a.vb, make([]float64, len(l.Biases)))
	}
	return a
}

func (a *adam) update(n *Network, grads []gradient) {
	a.t++
	t := float64(a.t)
	lr := a.lr * math.Sqrt(1-math.Pow(a.beta2, t)) / (1 - math.Pow(a.beta1, t))
	for li := range n.Layers {
		a.apply(n.Layers[li].Weights, grads[li].w, a.mw[li], a.vw[li], lr)
		a.apply(n.Layers[li].Biases, grads[li].b, a.mb[li], a.vb[li], lr)
	}
}

func (a *adam) apply(params, grad, m, v []float64, lr float64) {
	for k, g := range grad {
		m[k] = a.beta1*m[k] + (1-a.beta1)*g
		v[k] = a.beta2*v[k] + (1-a.beta2)*g*g
		params[k] -= lr * m[k] / (math.Sqrt(v[k]) + a.eps)
	}
}
