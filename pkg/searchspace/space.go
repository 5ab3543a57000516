// Package searchspace is the typed description of the fault-plan domain:
// it validates a space definition, samples points uniformly, and converts
// between fault plans and the fixed-shape point vectors the surrogate
// trains on.
package searchspace

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/jihwankim/fault-recommender/pkg/faultplan"
)

// Kind identifies the shape of one Dimension.
type Kind string

const (
	Categorical Kind = "categorical"
	Integer     Kind = "integer"
	Real        Kind = "real"
)

// Condition restricts a Dimension to being active only when another named
// dimension holds a particular value.
type Condition struct {
	Field string
	Value interface{}
}

// Dimension is one coordinate of the search space.
type Dimension struct {
	Name      string
	Kind      Kind
	Values    []interface{} // categorical
	Low, High float64       // integer/real bounds, inclusive
	Default   interface{}
	Condition *Condition
}

// Space is an ordered, validated, immutable list of Dimensions. It is
// frozen at session creation and never mutated afterward.
type Space struct {
	Name       string
	Dimensions []Dimension
}

// InvalidSpaceError reports why Validate rejected a Space.
type InvalidSpaceError struct {
	Reason string
}

func (e *InvalidSpaceError) Error() string {
	return fmt.Sprintf("invalid search space: %s", e.Reason)
}

// Validate checks the structural invariants of a Space.
func Validate(s Space) error {
	seen := make(map[string]bool, len(s.Dimensions))
	for _, d := range s.Dimensions {
		if d.Name == "" {
			return &InvalidSpaceError{"dimension with empty name"}
		}
		if seen[d.Name] {
			return &InvalidSpaceError{fmt.Sprintf("duplicate dimension name %q", d.Name)}
		}
		seen[d.Name] = true

		switch d.Kind {
		case Categorical:
			if len(d.Values) < 2 {
				return &InvalidSpaceError{fmt.Sprintf("dimension %q: categorical must have at least 2 values", d.Name)}
			}
			if !containsValue(d.Values, d.Default) {
				return &InvalidSpaceError{fmt.Sprintf("dimension %q: default not in value set", d.Name)}
			}
		case Integer, Real:
			if d.Low >= d.High {
				return &InvalidSpaceError{fmt.Sprintf("dimension %q: low must be < high", d.Name)}
			}
			def, ok := toFloat(d.Default)
			if !ok || def < d.Low || def > d.High {
				return &InvalidSpaceError{fmt.Sprintf("dimension %q: default out of bounds", d.Name)}
			}
		default:
			return &InvalidSpaceError{fmt.Sprintf("dimension %q: unknown kind %q", d.Name, d.Kind)}
		}
	}

	for _, d := range s.Dimensions {
		if d.Condition == nil {
			continue
		}
		if !seen[d.Condition.Field] {
			return &InvalidSpaceError{fmt.Sprintf("dimension %q: condition references unknown dimension %q", d.Name, d.Condition.Field)}
		}
	}

	return nil
}

func containsValue(values []interface{}, v interface{}) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Point is one sampled coordinate assignment, keyed by dimension name. The
// expand strategy keeps every dimension present even when its condition is
// unmet — see active().
type Point map[string]interface{}

// active reports whether dimension d's condition, if any, holds given the
// rest of the point.
func active(d Dimension, p Point) bool {
	if d.Condition == nil {
		return true
	}
	return p[d.Condition.Field] == d.Condition.Value
}

// SampleUniform draws one point from the space: categoricals uniformly
// over the value set, integers uniformly over the inclusive range, reals
// uniformly over the closed interval. Inactive dimensions still receive a
// sampled value (expand strategy keeps the vector shape homogeneous); only
// encode() pins them to the default.
func SampleUniform(s Space, rng *rand.Rand) Point {
	p := make(Point, len(s.Dimensions))
	for _, d := range s.Dimensions {
		switch d.Kind {
		case Categorical:
			p[d.Name] = d.Values[rng.Intn(len(d.Values))]
		case Integer:
			lo, hi := int64(d.Low), int64(d.High)
			p[d.Name] = lo + rng.Int63n(hi-lo+1)
		case Real:
			p[d.Name] = d.Low + rng.Float64()*(d.High-d.Low)
		}
	}
	return p
}

// Encode converts a fault plan into a point over the space, using the
// expand strategy: dimensions whose condition is unmet are pinned to their
// default so the resulting vector always has the same shape.
func Encode(s Space, plan faultplan.Plan) Point {
	raw := Point{
		"kind":        string(plan.Kind),
		"service":     plan.Service,
		"api_path":    plan.APIPath,
		"impact_pct":  float64(plan.ImpactPct),
		"duration_ms": float64(plan.DurationMS),
		"delay_ms":    float64(plan.DelayMS),
		"abort_status": float64(plan.AbortStatus),
		"error_code":  float64(plan.ErrorCode),
	}

	out := make(Point, len(s.Dimensions))
	for _, d := range s.Dimensions {
		if active(d, raw) {
			if v, ok := raw[d.Name]; ok {
				out[d.Name] = v
				continue
			}
		}
		out[d.Name] = d.Default
	}
	return out
}

// Decode converts a point back into a fault plan. Inactive dimensions
// (condition unmet) are omitted — they contributed only their pinned
// default to the vector and carry no semantic weight in the plan.
func Decode(s Space, p Point) (faultplan.Plan, error) {
	get := func(name string) interface{} {
		for _, d := range s.Dimensions {
			if d.Name == name && active(d, p) {
				return p[name]
			}
		}
		return nil
	}

	plan := faultplan.Plan{}
	if v, ok := get("service").(string); ok {
		plan.Service = v
	}
	if v, ok := get("api_path").(string); ok {
		plan.APIPath = v
	}
	if v, ok := toFloat(get("impact_pct")); ok {
		plan.ImpactPct = int(v)
	}
	if v, ok := toFloat(get("duration_ms")); ok {
		plan.DurationMS = int(v)
	}
	if v, ok := get("kind").(string); ok {
		plan.Kind = faultplan.Kind(strings.ToLower(v))
	}
	if v, ok := toFloat(get("delay_ms")); ok {
		plan.DelayMS = int(v)
	}
	if v, ok := toFloat(get("abort_status")); ok {
		plan.AbortStatus = int(v)
	}
	if v, ok := toFloat(get("error_code")); ok {
		plan.ErrorCode = int(v)
	}

	return faultplan.New(plan)
}

// FeatureVector converts a Point into a stable-order float64 row, using an
// integer code (index into the value list) for categorical coordinates, so
// the surrogate can train on a homogeneous matrix.
func FeatureVector(s Space, p Point) []float64 {
	row := make([]float64, len(s.Dimensions))
	for i, d := range s.Dimensions {
		v := p[d.Name]
		switch d.Kind {
		case Categorical:
			row[i] = float64(categoricalCode(d, v))
		default:
			f, _ := toFloat(v)
			row[i] = f
		}
	}
	return row
}

func categoricalCode(d Dimension, v interface{}) int {
	for i, candidate := range d.Values {
		if candidate == v {
			return i
		}
	}
	return 0
}
