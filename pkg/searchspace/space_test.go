package searchspace_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/fault-recommender/pkg/faultplan"
	"github.com/jihwankim/fault-recommender/pkg/searchspace"
)

func testSpace() searchspace.Space {
	return searchspace.Space{
		Name: "checkout-space",
		Dimensions: []searchspace.Dimension{
			{Name: "service", Kind: searchspace.Categorical, Values: []interface{}{"svc-a", "svc-b"}, Default: "svc-a"},
			{Name: "api_path", Kind: searchspace.Categorical, Values: []interface{}{"/a", "/b"}, Default: "/a"},
			{Name: "kind", Kind: searchspace.Categorical, Values: []interface{}{"delay", "abort", "error_injection"}, Default: "delay"},
			{Name: "impact_pct", Kind: searchspace.Integer, Low: 0, High: 100, Default: int64(10)},
			{Name: "duration_ms", Kind: searchspace.Integer, Low: 0, High: 5000, Default: int64(1000)},
			{Name: "delay_ms", Kind: searchspace.Integer, Low: 0, High: 2000, Default: int64(100),
				Condition: &searchspace.Condition{Field: "kind", Value: "delay"}},
			{Name: "abort_status", Kind: searchspace.Integer, Low: 400, High: 599, Default: int64(500),
				Condition: &searchspace.Condition{Field: "kind", Value: "abort"}},
			{Name: "error_code", Kind: searchspace.Integer, Low: 0, High: 599, Default: int64(0),
				Condition: &searchspace.Condition{Field: "kind", Value: "error_injection"}},
		},
	}
}

func TestValidateAcceptsWellFormedSpace(t *testing.T) {
	require.NoError(t, searchspace.Validate(testSpace()))
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	s := testSpace()
	s.Dimensions = append(s.Dimensions, s.Dimensions[0])
	require.Error(t, searchspace.Validate(s))
}

func TestValidateRejectsCategoricalDefaultNotInSet(t *testing.T) {
	s := testSpace()
	s.Dimensions[0].Default = "svc-z"
	require.Error(t, searchspace.Validate(s))
}

func TestValidateRejectsBoundsInverted(t *testing.T) {
	s := testSpace()
	s.Dimensions[3].Low, s.Dimensions[3].High = 100, 0
	require.Error(t, searchspace.Validate(s))
}

func TestValidateRejectsUnknownConditionField(t *testing.T) {
	s := testSpace()
	s.Dimensions[5].Condition = &searchspace.Condition{Field: "nonexistent", Value: "delay"}
	require.Error(t, searchspace.Validate(s))
}

func TestEncodeDecodeRoundTripDelay(t *testing.T) {
	s := testSpace()
	plan, err := faultplan.New(faultplan.Plan{
		Target: faultplan.Target{Service: "svc-a", APIPath: "/a", ImpactPct: 25},
		Kind:   faultplan.Delay, DelayMS: 300, DurationMS: 2000,
	})
	require.NoError(t, err)

	point := searchspace.Encode(s, plan)
	require.Equal(t, "svc-a", point["service"])
	require.Equal(t, int64(500), point["abort_status"]) // inactive, pinned to default

	decoded, err := searchspace.Decode(s, point)
	require.NoError(t, err)
	require.Equal(t, plan.Service, decoded.Service)
	require.Equal(t, plan.Kind, decoded.Kind)
	require.Equal(t, plan.DelayMS, decoded.DelayMS)
	require.Equal(t, 0, decoded.AbortStatus) // omitted on decode, never populated
}

func TestSampleUniformFillsEveryDimension(t *testing.T) {
	s := testSpace()
	rng := rand.New(rand.NewSource(1))
	p := searchspace.SampleUniform(s, rng)
	require.Len(t, p, len(s.Dimensions))
	for _, d := range s.Dimensions {
		require.Contains(t, p, d.Name)
	}
}

func TestFeatureVectorStableLength(t *testing.T) {
	s := testSpace()
	rng := rand.New(rand.NewSource(2))
	p := searchspace.SampleUniform(s, rng)
	row := searchspace.FeatureVector(s, p)
	require.Len(t, row, len(s.Dimensions))
}
