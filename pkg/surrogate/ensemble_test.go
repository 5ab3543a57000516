package surrogate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/fault-recommender/pkg/surrogate"
)

func TestUnfittedEnsembleReturnsPrior(t *testing.T) {
	e := surrogate.New(1)
	mean, sigma := e.Predict([][]float64{{1, 2}, {3, 4}})
	require.Equal(t, []float64{0, 0}, mean)
	require.Equal(t, []float64{1, 1}, sigma)
	require.False(t, e.Fitted())
}

func TestFitNoOpOnFewerThanTwoPoints(t *testing.T) {
	e := surrogate.New(1)
	e.Fit([][]float64{{1, 2}}, []float64{5})
	require.False(t, e.Fitted())
}

func TestFitLearnsSeparableScores(t *testing.T) {
	X := [][]float64{
		{0, 0}, {0, 1}, {1, 0}, {1, 1},
		{0, 0.2}, {1, 0.8}, {0, 0.1}, {1, 0.9},
	}
	y := []float64{1, 1, 9, 9, 1, 9, 1, 9}

	e := surrogate.New(42)
	e.Fit(X, y)
	require.True(t, e.Fitted())

	mean, sigma := e.Predict([][]float64{{0, 0.5}, {1, 0.5}})
	require.Len(t, mean, 2)
	require.Len(t, sigma, 2)
	require.Less(t, mean[0], mean[1]) // feature 0 drives the split
	for _, s := range sigma {
		require.GreaterOrEqual(t, s, 0.0)
	}
}

func TestFitIsDeterministicForSameSeed(t *testing.T) {
	X := [][]float64{{0, 0}, {1, 1}, {0, 1}, {1, 0}, {0.5, 0.5}}
	y := []float64{1, 9, 2, 8, 5}

	e1 := surrogate.New(7)
	e1.Fit(X, y)
	e2 := surrogate.New(7)
	e2.Fit(X, y)

	m1, s1 := e1.Predict([][]float64{{0.3, 0.3}})
	m2, s2 := e2.Predict([][]float64{{0.3, 0.3}})
	require.Equal(t, m1, m2)
	require.Equal(t, s1, s2)
}
