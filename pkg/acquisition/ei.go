// Package acquisition scores candidate points by Expected Improvement and
// picks the next point to evaluate.
package acquisition

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Xi is the exploration margin subtracted from predicted improvement.
const Xi = 0.01

var standardNormal = distuv.Normal{Mu: 0, Sigma: 1}

// ExpectedImprovement computes EI for one candidate given its predicted
// mean/sigma and the best score observed so far. EI is 0 when sigma is 0
// or there is no history (bestScore is NaN in that case).
func ExpectedImprovement(mean, sigma, bestScore float64) float64 {
	if sigma <= 0 || math.IsNaN(bestScore) {
		return 0
	}

	improvement := mean - bestScore - Xi
	z := improvement / sigma
	ei := improvement*standardNormal.CDF(z) + sigma*standardNormal.Prob(z)
	if math.IsNaN(ei) {
		return 0
	}
	return ei
}

// Candidate pairs a feature row with its caller-supplied identity (an
// index into a parallel slice of decoded points).
type Candidate struct {
	Row   []float64
	Index int
}

// SelectResult is the outcome of Select: the winning candidate's index and
// its EI score, or Fallback=true when every candidate scored zero/NaN and
// the caller should draw a fresh uniform sample instead.
type SelectResult struct {
	Index    int
	EI       float64
	Fallback bool
}

// Predictor mirrors surrogate.Ensemble's Predict method, kept as a narrow
// interface so acquisition doesn't import the surrogate package directly.
type Predictor interface {
	Predict(X [][]float64) (mean, sigma []float64)
}

// Select scores each supplied candidate row by Expected Improvement
// against the surrogate's predictions, and returns the argmax. Ties keep
// the first occurrence. If every score is zero or NaN, Fallback is set.
func Select(model Predictor, candidates []Candidate, bestScore float64) SelectResult {
	if len(candidates) == 0 {
		return SelectResult{Fallback: true}
	}

	rows := make([][]float64, len(candidates))
	for i, c := range candidates {
		rows[i] = c.Row
	}
	means, sigmas := model.Predict(rows)

	bestIdx := -1
	bestEI := 0.0
	anyPositive := false

	for i := range candidates {
		ei := ExpectedImprovement(means[i], sigmas[i], bestScore)
		if ei > 0 && (!anyPositive || ei > bestEI) {
			anyPositive = true
			bestEI = ei
			bestIdx = candidates[i].Index
		}
	}

	if !anyPositive {
		return SelectResult{Fallback: true}
	}

	return SelectResult{Index: bestIdx, EI: bestEI}
}

// GenerateCandidates draws n random feature rows via the supplied sampler
// function, pairing each with its ordinal index.
func GenerateCandidates(n int, rng *rand.Rand, sample func(*rand.Rand) []float64) []Candidate {
	out := make([]Candidate, n)
	for i := 0; i < n; i++ {
		out[i] = Candidate{Row: sample(rng), Index: i}
	}
	return out
}
