package train

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/oralsmart/riskctl/pkg/model"
	"github.com/oralsmart/riskctl/pkg/risk"
)

// Selector scores every column of a standardized training matrix. Higher is
// more useful.
type Selector interface {
	Name() string
	Scores(ctx context.Context, x [][]float64, y []int) ([]float64, error)
}

// NewSelector returns the selector for a strategy name.
func NewSelector(name string, seed uint64, parallelism int) (Selector, error) {
	switch name {
	case StrategyImportance:
		return &importanceSelector{cfg: defaultForestConfig(seed), parallelism: parallelism}, nil
	case StrategyANOVA:
		return anovaSelector{}, nil
	case StrategyRFE:
		return &rfeSelector{seed: seed}, nil
	default:
		return nil, fmt.Errorf("%w: unknown selection strategy %q", risk.ErrConfiguration, name)
	}
}

// Top returns the indices of the n best scores in ascending column order.
// Equal scores prefer the lower column index.
func Top(scores []float64, n int) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	n = min(n, len(order))
	top := slices.Clone(order[:n])
	slices.Sort(top)
	return top
}

type importanceSelector struct {
	cfg         forestConfig
	parallelism int
}

func (s *importanceSelector) Name() string { return StrategyImportance }

func (s *importanceSelector) Scores(ctx context.Context, x [][]float64, y []int) ([]float64, error) {
	return forestImportances(ctx, x, y, risk.NumLabels, s.cfg, s.parallelism)
}

// anovaSelector ranks columns by the one-way ANOVA F statistic.
type anovaSelector struct{}

func (anovaSelector) Name() string { return StrategyANOVA }

func (anovaSelector) Scores(ctx context.Context, x [][]float64, y []int) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: no rows to score", risk.ErrData)
	}
	groups := make([][]int, risk.NumLabels)
	for i, c := range y {
		groups[c] = append(groups[c], i)
	}
	groups = slices.DeleteFunc(groups, func(g []int) bool { return len(g) == 0 })
	k := float64(len(groups))
	n := float64(len(x))
	if k < 2 || n <= k {
		return make([]float64, len(x[0])), nil
	}

	d := len(x[0])
	scores := make([]float64, d)
	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, r := range x {
			col[i] = r[j]
		}
		grand := stat.Mean(col, nil)
		var between, within float64
		for _, idx := range groups {
			vals := make([]float64, len(idx))
			for i, r := range idx {
				vals[i] = col[r]
			}
			mean := stat.Mean(vals, nil)
			between += float64(len(idx)) * (mean - grand) * (mean - grand)
			for _, v := range vals {
				within += (v - mean) * (v - mean)
			}
		}
		if between == 0 {
			continue
		}
		scores[j] = (between / (k - 1)) / (math.Max(within, 1e-12) / (n - k))
	}
	return scores, nil
}

// rfeSelector eliminates the weakest columns of a softmax-regression probe
// until one remains. A column's score is the round it survived to.
type rfeSelector struct {
	seed uint64
}

const (
	rfeEpochs    = 40
	rfeBatchSize = 32
	rfeStepFrac  = 0.1
)

func (s *rfeSelector) Name() string { return StrategyRFE }

func (s *rfeSelector) Scores(ctx context.Context, x [][]float64, y []int) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: no rows to score", risk.ErrData)
	}
	d := len(x[0])
	remaining := make([]int, d)
	for i := range remaining {
		remaining[i] = i
	}
	scores := make([]float64, d)
	cfg := model.DefaultFitConfig()
	cfg.Hidden = nil
	cfg.Seed = s.seed
	cfg.MaxEpochs = rfeEpochs
	cfg.LearningRate = 0.05
	cfg.BatchSize = rfeBatchSize
	cfg.ValidationFraction = 0

	eliminated := 0
	for len(remaining) > 1 {
		net, _, err := model.Fit(ctx, project(x, remaining), y, risk.NumLabels, cfg)
		if err != nil {
			return nil, err
		}
		weight := net.InputImportance()

		// weakest first; among equals the higher column goes first
		order := make([]int, len(remaining))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			if c := cmp.Compare(weight[a], weight[b]); c != 0 {
				return c
			}
			return cmp.Compare(remaining[b], remaining[a])
		})

		step := max(1, int(float64(len(remaining))*rfeStepFrac))
		step = min(step, len(remaining)-1)
		drop := make(map[int]bool, step)
		for _, o := range order[:step] {
			eliminated++
			scores[remaining[o]] = float64(eliminated)
			drop[o] = true
		}
		next := remaining[:0:0]
		for i, c := range remaining {
			if !drop[i] {
				next = append(next, c)
			}
		}
		remaining = next
	}
	scores[remaining[0]] = float64(eliminated + 1)
	return scores, nil
}

// project keeps the given columns of every row.
func project(x [][]float64, cols []int) [][]float64 {
	out := make([][]float64, len(x))
	for i, r := range x {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = r[c]
		}
		out[i] = row
	}
	return out
}
