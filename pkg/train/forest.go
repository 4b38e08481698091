package train

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/oralsmart/riskctl/pkg/model"
)

type forestConfig struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     uint64
}

func defaultForestConfig(seed uint64) forestConfig {
	return forestConfig{Trees: 50, MaxDepth: 8, MinLeaf: 2, Seed: seed}
}

// forestImportances grows a bagged ensemble of decision trees and returns the
// mean normalized Gini importance of every column.
func forestImportances(ctx context.Context, x [][]float64, y []int, classes int, cfg forestConfig, parallelism int) ([]float64, error) {
	d := len(x[0])
	perTree := make([][]float64, cfg.Trees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, parallelism))
	for t := 0; t < cfg.Trees; t++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := model.NewRand(cfg.Seed + uint64(t)*7919)
			sample := make([]int, len(x))
			for i := range sample {
				sample[i] = rng.IntN(len(x))
			}
			tb := &treeBuilder{x: x, y: y, classes: classes, cfg: cfg, rng: rng, imp: make([]float64, d)}
			tb.grow(sample, 0)
			normalize(tb.imp)
			perTree[t] = tb.imp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]float64, d)
	for _, imp := range perTree {
		for j, v := range imp {
			out[j] += v / float64(cfg.Trees)
		}
	}
	return out, nil
}

type treeBuilder struct {
	x       [][]float64
	y       []int
	classes int
	cfg     forestConfig
	rng     *rand.Rand
	imp     []float64
}

func (b *treeBuilder) counts(idx []int) []int {
	c := make([]int, b.classes)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

// grow splits idx recursively, adding each split's weighted impurity
// decrease to the importance of its column.
func (b *treeBuilder) grow(idx []int, depth int) {
	n := len(idx)
	counts := b.counts(idx)
	parent := gini(counts, n)
	if depth >= b.cfg.MaxDepth || n < 2*b.cfg.MinLeaf || parent == 0 {
		return
	}

	d := len(b.x[0])
	mtry := max(1, int(math.Sqrt(float64(d))))
	candidates := b.rng.Perm(d)[:mtry]

	bestGain := 0.0
	bestCol := -1
	var bestThreshold float64

	sorted := slices.Clone(idx)
	left := make([]int, b.classes)
	right := make([]int, b.classes)
	for _, col := range candidates {
		slices.SortFunc(sorted, func(a, c int) int {
			switch {
			case b.x[a][col] < b.x[c][col]:
				return -1
			case b.x[a][col] > b.x[c][col]:
				return 1
			}
			return a - c
		})
		clear(left)
		copy(right, counts)
		for i := 0; i < n-1; i++ {
			cls := b.y[sorted[i]]
			left[cls]++
			right[cls]--
			nl := i + 1
			nr := n - nl
			v, next := b.x[sorted[i]][col], b.x[sorted[i+1]][col]
			if v == next || nl < b.cfg.MinLeaf || nr < b.cfg.MinLeaf {
				continue
			}
			gain := float64(n)*parent - float64(nl)*gini(left, nl) - float64(nr)*gini(right, nr)
			if gain > bestGain {
				bestGain = gain
				bestCol = col
				bestThreshold = (v + next) / 2
			}
		}
	}
	if bestCol < 0 {
		return
	}
	b.imp[bestCol] += bestGain

	var l, r []int
	for _, i := range idx {
		if b.x[i][bestCol] <= bestThreshold {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	b.grow(l, depth+1)
	b.grow(r, depth+1)
}

func normalize(v []float64) {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
