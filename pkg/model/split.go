package model

import (
	"math"
	"math/rand/v2"
	"slices"
)

// NewRand returns the deterministic source used across training.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func byClass(labels []int) map[int][]int {
	groups := make(map[int][]int)
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}
	return groups
}

func sortedKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StratifiedSplit holds out frac of each class. Every class with at least two
// rows keeps a row on both sides. Both index sets are returned sorted.
func StratifiedSplit(labels []int, frac float64, rng *rand.Rand) (keep, hold []int) {
	groups := byClass(labels)
	for _, c := range sortedKeys(groups) {
		idx := groups[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		n := int(math.Round(frac * float64(len(idx))))
		if n == 0 && len(idx) >= 2 {
			n = 1
		}
		if n >= len(idx) {
			n = len(idx) - 1
		}
		hold = append(hold, idx[:n]...)
		keep = append(keep, idx[n:]...)
	}
	slices.Sort(keep)
	slices.Sort(hold)
	return keep, hold
}

// Fold is one train/validation partition.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedFolds deals each class round-robin into k folds.
func StratifiedFolds(labels []int, k int, rng *rand.Rand) []Fold {
	assign := make([]int, len(labels))
	groups := byClass(labels)
	next := 0
	for _, c := range sortedKeys(groups) {
		idx := groups[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for _, i := range idx {
			assign[i] = next % k
			next++
		}
	}
	folds := make([]Fold, k)
	for i, f := range assign {
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}
	return folds
}
