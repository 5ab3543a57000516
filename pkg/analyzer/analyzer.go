// Package analyzer produces one severity score in [0,10] for an
// observation, over three axes: bug signals, performance degradation, and
// trace structure. Each sub-scorer is independently fail-safe: a panic
// inside one contributes 0 rather than aborting aggregation.
package analyzer

import (
	"strings"

	"github.com/jihwankim/fault-recommender/pkg/observation"
)

// Config carries per-session scoring parameters.
type Config struct {
	BaselineMS   float64
	ThresholdMS  float64
	WeightBug    float64
	WeightPerf   float64
	WeightStruct float64
	BaselineTrace *observation.Trace
}

// Breakdown is the per-axis score contributing to Total.
type Breakdown struct {
	Bug    float64
	Perf   float64
	Struct float64
	Total  float64
}

var bugMarkers = []string{"ERROR", "FATAL", "CRITICAL", "PANIC", "EXCEPTION"}

// Score evaluates one Observation against cfg, returning the full
// breakdown. Logger is optional; pass nil to suppress sub-failure logging.
func Score(cfg Config, obs observation.Observation, warn func(string, ...interface{})) Breakdown {
	bug := safeScore(warn, "bug", func() float64 { return scoreBug(obs) })
	perf := safeScore(warn, "perf", func() float64 { return scorePerf(cfg, obs) })
	strct := safeScore(warn, "struct", func() float64 { return scoreStruct(cfg, obs) })

	total := aggregate(cfg, bug, perf, strct)

	return Breakdown{Bug: bug, Perf: perf, Struct: strct, Total: total}
}

// safeScore recovers from a panic inside a sub-scorer, logging and
// contributing 0 instead of propagating — the recommendation loop must
// never halt over one bad sub-score.
func safeScore(warn func(string, ...interface{}), name string, fn func() float64) (result float64) {
	defer func() {
		if r := recover(); r != nil {
			if warn != nil {
				warn("analyzer sub-scorer failed", "scorer", name, "panic", r)
			}
			result = 0
		}
	}()
	return fn()
}

func scoreBug(obs observation.Observation) float64 {
	if obs.StatusCode != nil {
		sc := *obs.StatusCode
		if sc >= 500 && sc <= 599 {
			return 10.0
		}
		if sc >= 400 && sc <= 499 {
			return 8.0
		}
	}

	for _, line := range obs.ErrorLogs {
		for _, marker := range bugMarkers {
			if strings.Contains(line, marker) {
				return 6.0
			}
		}
	}

	if obs.ErrorRate != nil && *obs.ErrorRate > 0 {
		return 3.0
	}

	return 0.0
}

func scorePerf(cfg Config, obs observation.Observation) float64 {
	if cfg.BaselineMS <= 0 || obs.LatencyMS == nil {
		return 0.0
	}

	actual := *obs.LatencyMS
	if actual >= cfg.ThresholdMS {
		return 10.0
	}

	raw := (actual - cfg.BaselineMS) / (cfg.ThresholdMS - cfg.BaselineMS) * 9.0
	return clamp(0, 10, raw)
}

func scoreStruct(cfg Config, obs observation.Observation) float64 {
	if cfg.BaselineTrace == nil || obs.Trace == nil {
		return 0.0
	}

	baseline := *cfg.BaselineTrace
	current := *obs.Trace

	var best float64

	// 1. span-count change
	if len(baseline.Spans) >= 1 && float64(len(current.Spans)) > 1.5*float64(len(baseline.Spans)) {
		best = max(best, 3.0)
	}

	// 2. operation-sequence change
	dist := levenshtein(baseline.OperationSequence(), current.OperationSequence())
	if dist > 2 {
		best = max(best, 5.0)
	}

	// 3. error spans
	if current.ErrorSpanCount() > 0 {
		best = max(best, 2.0)
	}

	// 4. latency spike: any operation present in both traces whose
	// current/baseline duration ratio exceeds 5.
	baselineByOp := make(map[string]int64, len(baseline.Spans))
	for _, s := range baseline.Spans {
		if s.DurationUS > 0 {
			baselineByOp[s.OperationName] = s.DurationUS
		}
	}
	for _, s := range current.Spans {
		if bd, ok := baselineByOp[s.OperationName]; ok && bd > 0 {
			if float64(s.DurationUS)/float64(bd) > 5 {
				best = max(best, 2.0)
				break
			}
		}
	}

	return clamp(0, 10, best)
}

func aggregate(cfg Config, bug, perf, strct float64) float64 {
	sum := cfg.WeightBug + cfg.WeightPerf + cfg.WeightStruct
	if sum <= 0 {
		return 0.0
	}
	total := (cfg.WeightBug*bug + cfg.WeightPerf*perf + cfg.WeightStruct*strct) / sum
	return clamp(0, 10, total)
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
