package train

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/oralsmart/riskctl/pkg/model"
	"github.com/oralsmart/riskctl/pkg/risk"
)

// Candidate is one hyperparameter combination.
type Candidate struct {
	Hidden []int   `json:"hidden" yaml:"hidden"`
	Alpha  float64 `json:"alpha" yaml:"alpha"`
}

// Grid is searched in order; the first best candidate wins ties.
var Grid = buildGrid(
	[][]int{{64, 32}, {64, 32, 16}, {32, 16}},
	[]float64{1e-4, 1e-3, 1e-2},
)

func buildGrid(layouts [][]int, alphas []float64) []Candidate {
	var out []Candidate
	for _, h := range layouts {
		for _, a := range alphas {
			out = append(out, Candidate{Hidden: h, Alpha: a})
		}
	}
	return out
}

// CVScore is the cross-validated accuracy of one candidate.
type CVScore struct {
	Candidate `yaml:",inline"`
	Mean      float64   `json:"mean" yaml:"mean"`
	Std       float64   `json:"std" yaml:"std"`
	Folds     []float64 `json:"folds" yaml:"folds"`
}

// search cross-validates every candidate with stratified folds. Every
// (candidate, fold) pair is fitted concurrently, bounded by parallelism; the
// first failure or a canceled ctx stops the rest.
func search(ctx context.Context, x [][]float64, y []int, grid []Candidate, opts Options) ([]CVScore, Candidate, error) {
	folds := model.StratifiedFolds(y, opts.Folds, model.NewRand(opts.Seed))
	results := make([][]float64, len(grid))
	for i := range results {
		results[i] = make([]float64, len(folds))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.parallelism())
	for ci, cand := range grid {
		for fi, fold := range folds {
			g.Go(func() error {
				if len(fold.Test) == 0 || len(fold.Train) == 0 {
					results[ci][fi] = -1
					return nil
				}
				cfg := opts.fitConfig()
				cfg.Hidden = slices.Clone(cand.Hidden)
				cfg.Alpha = cand.Alpha
				trX, trY := rowsOf(x, y, fold.Train)
				teX, teY := rowsOf(x, y, fold.Test)
				net, _, err := model.Fit(gctx, trX, trY, risk.NumLabels, cfg)
				if err != nil {
					return err
				}
				results[ci][fi] = Evaluate(teY, net.PredictBatch(teX)).Accuracy
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, Candidate{}, err
	}

	scores := make([]CVScore, len(grid))
	best := 0
	for ci, cand := range grid {
		var accs []float64
		for _, a := range results[ci] {
			if a >= 0 {
				accs = append(accs, a)
			}
		}
		s := CVScore{Candidate: cand, Folds: accs}
		if len(accs) > 0 {
			s.Mean, s.Std = stat.MeanStdDev(accs, nil)
			if len(accs) == 1 {
				s.Std = 0
			}
		}
		scores[ci] = s
		if s.Mean > scores[best].Mean {
			best = ci
		}
		slog.Debug("candidate scored", "hidden", cand.Hidden, "alpha", cand.Alpha, "mean", s.Mean, "std", s.Std)
	}
	return scores, grid[best], nil
}

func rowsOf(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	rx := make([][]float64, len(idx))
	ry := make([]int, len(idx))
	for i, k := range idx {
		rx[i] = x[k]
		ry[i] = y[k]
	}
	return rx, ry
}
