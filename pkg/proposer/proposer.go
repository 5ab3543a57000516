// Package proposer combines cold-start uniform sampling and
// surrogate-guided Expected Improvement into a single propose/record loop
// per session.
package proposer

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/jihwankim/fault-recommender/pkg/acquisition"
	"github.com/jihwankim/fault-recommender/pkg/faultplan"
	"github.com/jihwankim/fault-recommender/pkg/searchspace"
	"github.com/jihwankim/fault-recommender/pkg/surrogate"
)

// DefaultColdStartN is the number of trials run as pure uniform sampling
// before the surrogate takes over.
const DefaultColdStartN = 5

// DefaultCandidatePoints is how many random candidates Select evaluates.
const DefaultCandidatePoints = 1000

// record is one (encoded point, score) pair absorbed via Record.
type record struct {
	point searchspace.Point
	row   []float64
	score float64
}

// Proposer holds one session's optimization state: history, lazily-refit
// surrogate, and running best. Not safe for concurrent use — one Proposer
// belongs to exactly one session worker.
type Proposer struct {
	space           searchspace.Space
	rng             *rand.Rand
	coldStartN      int
	candidatePoints int

	model   *surrogate.Ensemble
	dirty   bool
	history []record

	bestScore float64
	hasBest   bool
}

// SeedFromSessionID derives a deterministic int64 seed from a session
// identifier, mirroring the teacher's NewSampler(seed int64) constructor
// pattern while sourcing the seed itself from the session id rather than
// an explicit flag.
func SeedFromSessionID(sessionID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	return int64(h.Sum64())
}

// New constructs a Proposer for one session, seeded for reproducibility.
func New(space searchspace.Space, seed int64, coldStartN, candidatePoints int) *Proposer {
	if coldStartN <= 0 {
		coldStartN = DefaultColdStartN
	}
	if candidatePoints <= 0 {
		candidatePoints = DefaultCandidatePoints
	}
	return &Proposer{
		space:           space,
		rng:             rand.New(rand.NewSource(seed)),
		coldStartN:      coldStartN,
		candidatePoints: candidatePoints,
		model:           surrogate.New(seed),
		bestScore:       math.NaN(),
	}
}

// Propose returns the next plan to evaluate: a uniform sample while the
// history is smaller than coldStartN, otherwise a surrogate-guided pick via
// Expected Improvement, falling back to a fresh uniform sample if no
// candidate has positive EI.
func (p *Proposer) Propose() (faultplan.Plan, error) {
	if len(p.history) < p.coldStartN {
		return p.uniformPlan()
	}

	if p.dirty {
		p.refit()
	}

	candidates := acquisition.GenerateCandidates(p.candidatePoints, p.rng, func(r *rand.Rand) []float64 {
		pt := searchspace.SampleUniform(p.space, r)
		return searchspace.FeatureVector(p.space, pt)
	})

	result := acquisition.Select(p.model, candidates, p.bestScore)
	if result.Fallback {
		return p.uniformPlan()
	}

	pt := pointFromRow(p.space, candidates[result.Index].Row)
	return searchspace.Decode(p.space, pt)
}

func (p *Proposer) uniformPlan() (faultplan.Plan, error) {
	pt := searchspace.SampleUniform(p.space, p.rng)
	return searchspace.Decode(p.space, pt)
}

// Record absorbs one (plan, score) observation into the session's history,
// updating the running best and marking the surrogate stale.
func (p *Proposer) Record(plan faultplan.Plan, score float64) {
	pt := searchspace.Encode(p.space, plan)
	row := searchspace.FeatureVector(p.space, pt)

	p.history = append(p.history, record{point: pt, row: row, score: score})
	p.dirty = true

	if !p.hasBest || score > p.bestScore {
		p.bestScore = score
		p.hasBest = true
	}
}

// BestScore returns the best score recorded so far, or NaN if none.
func (p *Proposer) BestScore() float64 {
	return p.bestScore
}

func (p *Proposer) refit() {
	X := make([][]float64, len(p.history))
	y := make([]float64, len(p.history))
	for i, r := range p.history {
		X[i] = r.row
		y[i] = r.score
	}
	p.model.Fit(X, y)
	p.dirty = false
}

// pointFromRow reconstructs a Point from a feature row, mapping
// categorical codes back to their value via the dimension's value list.
func pointFromRow(s searchspace.Space, row []float64) searchspace.Point {
	pt := make(searchspace.Point, len(s.Dimensions))
	for i, d := range s.Dimensions {
		switch d.Kind {
		case searchspace.Categorical:
			idx := int(row[i])
			if idx < 0 || idx >= len(d.Values) {
				idx = 0
			}
			pt[d.Name] = d.Values[idx]
		case searchspace.Integer:
			pt[d.Name] = int64(row[i])
		default:
			pt[d.Name] = row[i]
		}
	}
	return pt
}
