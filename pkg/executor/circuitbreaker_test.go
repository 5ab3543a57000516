package executor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/fault-recommender/pkg/executor"
)

func TestBreakerStartsClosed(t *testing.T) {
	b := executor.NewCircuitBreaker(3, time.Minute)
	require.Equal(t, executor.Closed, b.State())
	require.True(t, b.CanAttempt())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := executor.NewCircuitBreaker(2, time.Minute)
	b.RecordFailure()
	require.Equal(t, executor.Closed, b.State())
	b.RecordFailure()
	require.Equal(t, executor.Open, b.State())
	require.False(t, b.CanAttempt())
}

func TestBreakerAdmitsExactlyOneHalfOpenProbe(t *testing.T) {
	b := executor.NewCircuitBreaker(1, 10*time.Millisecond)
	b.RecordFailure()
	require.Equal(t, executor.Open, b.State())

	time.Sleep(15 * time.Millisecond)

	require.True(t, b.CanAttempt())
	require.Equal(t, executor.HalfOpen, b.State())
	require.False(t, b.CanAttempt()) // second concurrent probe rejected
}

func TestBreakerHalfOpenFailureReopensImmediately(t *testing.T) {
	b := executor.NewCircuitBreaker(1, 10*time.Millisecond)
	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.True(t, b.CanAttempt())

	b.RecordFailure()
	require.Equal(t, executor.Open, b.State())
	require.False(t, b.CanAttempt())
}

func TestBreakerHalfOpenSuccessCloses(t *testing.T) {
	b := executor.NewCircuitBreaker(1, 10*time.Millisecond)
	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.True(t, b.CanAttempt())

	b.RecordSuccess()
	require.Equal(t, executor.Closed, b.State())
	require.True(t, b.CanAttempt())
}
