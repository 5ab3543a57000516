package searchspace

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// configDoc mirrors the wire schema from the search-space configuration
// surface: { name, dimensions: [...], constraints: [...] }. constraints is
// accepted but unused — the original's free-form rule bag has no role here,
// Dimension.Condition is the only conditional mechanism this recommender
// implements.
type configDoc struct {
	Name       string          `json:"name" yaml:"name"`
	Dimensions []dimensionDoc  `json:"dimensions" yaml:"dimensions"`
	Constraints []interface{}  `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

type dimensionDoc struct {
	Name      string         `json:"name" yaml:"name"`
	Type      string         `json:"type" yaml:"type"`
	Values    []interface{}  `json:"values,omitempty" yaml:"values,omitempty"`
	Bounds    []float64      `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Default   interface{}    `json:"default" yaml:"default"`
	Condition *conditionDoc  `json:"condition,omitempty" yaml:"condition,omitempty"`
}

type conditionDoc struct {
	Field string      `json:"field" yaml:"field"`
	Value interface{} `json:"value" yaml:"value"`
}

// ParseJSON parses a search-space configuration from JSON bytes.
func ParseJSON(data []byte) (Space, error) {
	var doc configDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Space{}, fmt.Errorf("failed to parse search space JSON: %w", err)
	}
	return fromDoc(doc)
}

// ParseYAML parses a search-space configuration from YAML bytes.
func ParseYAML(data []byte) (Space, error) {
	var doc configDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Space{}, fmt.Errorf("failed to parse search space YAML: %w", err)
	}
	return fromDoc(doc)
}

func fromDoc(doc configDoc) (Space, error) {
	dims := make([]Dimension, len(doc.Dimensions))
	for i, d := range doc.Dimensions {
		dim := Dimension{
			Name:    d.Name,
			Kind:    Kind(d.Type),
			Values:  d.Values,
			Default: d.Default,
		}
		if len(d.Bounds) == 2 {
			dim.Low, dim.High = d.Bounds[0], d.Bounds[1]
		}
		if d.Condition != nil {
			dim.Condition = &Condition{Field: d.Condition.Field, Value: d.Condition.Value}
		}
		dims[i] = dim
	}

	space := Space{Name: doc.Name, Dimensions: dims}
	if err := Validate(space); err != nil {
		return Space{}, err
	}
	return space, nil
}

// ToJSON serializes a Space back to the wire schema.
func ToJSON(s Space) ([]byte, error) {
	doc := configDoc{Name: s.Name, Dimensions: make([]dimensionDoc, len(s.Dimensions))}
	for i, d := range s.Dimensions {
		dd := dimensionDoc{
			Name:    d.Name,
			Type:    string(d.Kind),
			Values:  d.Values,
			Default: d.Default,
		}
		if d.Kind == Integer || d.Kind == Real {
			dd.Bounds = []float64{d.Low, d.High}
		}
		if d.Condition != nil {
			dd.Condition = &conditionDoc{Field: d.Condition.Field, Value: d.Condition.Value}
		}
		doc.Dimensions[i] = dd
	}
	return json.MarshalIndent(doc, "", "  ")
}
