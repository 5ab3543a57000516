// Package surrogate predicts severity mean and uncertainty from a small
// labeled history of (point, score) pairs, using an ensemble of decision
// trees in the spirit of the reference RandomForestRegressor: variance
// across trees gives a usable sigma without needing a Bayesian prior.
package surrogate

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// NumTrees is the ensemble size. The spec's reference choice is 100.
const NumTrees = 100

// Ensemble is a deterministic-given-seed forest of regression trees.
type Ensemble struct {
	trees  []*tree
	fitted bool
	seed   int64
}

// New returns an unfitted ensemble seeded for reproducible bootstrap
// sampling and feature subsampling.
func New(seed int64) *Ensemble {
	return &Ensemble{seed: seed}
}

// Fit trains the ensemble on (X, y). Per the contract, fitting on fewer
// than 2 points is a no-op — the ensemble stays unfitted and Predict keeps
// returning the prior (mean=0, sigma=1).
func (e *Ensemble) Fit(X [][]float64, y []float64) {
	if len(X) < 2 {
		return
	}

	rng := rand.New(rand.NewSource(e.seed))
	trees := make([]*tree, NumTrees)
	for t := 0; t < NumTrees; t++ {
		idx := bootstrapSample(len(X), rng)
		trees[t] = fitTree(X, y, idx, rng)
	}

	e.trees = trees
	e.fitted = true
}

// bootstrapSample draws n indices in [0, n) with replacement.
func bootstrapSample(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

// Predict returns, for each row, the ensemble mean and standard deviation
// across trees. When unfitted, it returns the prior (mean=0, sigma=1) for
// every row, per the surrogate contract.
func (e *Ensemble) Predict(X [][]float64) (mean, sigma []float64) {
	mean = make([]float64, len(X))
	sigma = make([]float64, len(X))

	if !e.fitted {
		for i := range X {
			mean[i] = 0
			sigma[i] = 1
		}
		return mean, sigma
	}

	preds := make([]float64, len(e.trees))
	for i, row := range X {
		for t, tr := range e.trees {
			preds[t] = tr.predict(row)
		}
		m, s := stat.MeanStdDev(preds, nil)
		mean[i] = m
		if math.IsNaN(s) {
			s = 0
		}
		sigma[i] = s
	}

	return mean, sigma
}

// Fitted reports whether Fit has trained the ensemble.
func (e *Ensemble) Fitted() bool {
	return e.fitted
}
