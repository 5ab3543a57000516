package executor_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/fault-recommender/pkg/executor"
	"github.com/jihwankim/fault-recommender/pkg/faultplan"
	"github.com/jihwankim/fault-recommender/pkg/observation"
	"github.com/jihwankim/fault-recommender/pkg/reporting"
)

func silentLogger() *reporting.Logger {
	return reporting.NewLogger(reporting.LoggerConfig{Output: io.Discard})
}

func delayPlan(t *testing.T) faultplan.Plan {
	p, err := faultplan.New(faultplan.Plan{
		Target: faultplan.Target{Service: "svc", APIPath: "/p", ImpactPct: 10},
		Kind:   faultplan.Delay, DelayMS: 100,
	})
	require.NoError(t, err)
	return p
}

func TestApplySuccessReturnsObservation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(observation.Observation{LatencyMS: floatp2(42)})
	}))
	defer srv.Close()

	c := executor.New(srv.URL, time.Second, executor.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, JitterPct: 0},
		executor.NewCircuitBreaker(5, time.Minute), silentLogger(), nil, "")

	obs, err := c.Apply(context.Background(), delayPlan(t))
	require.NoError(t, err)
	require.NotNil(t, obs)
	require.Equal(t, 42.0, *obs.LatencyMS)
}

func TestApply4xxIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := executor.New(srv.URL, time.Second, executor.RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, JitterPct: 0},
		executor.NewCircuitBreaker(5, time.Minute), silentLogger(), nil, "")

	obs, err := c.Apply(context.Background(), delayPlan(t))
	require.NoError(t, err) // exhaustion/rejection is not an error
	require.Nil(t, obs)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestApply5xxRetriesThenExhausts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := executor.New(srv.URL, time.Second, executor.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, JitterPct: 0},
		executor.NewCircuitBreaker(10, time.Minute), silentLogger(), nil, "")

	obs, err := c.Apply(context.Background(), delayPlan(t))
	require.NoError(t, err)
	require.Nil(t, obs)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestApplyRejectedWhenCircuitOpen(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	breaker := executor.NewCircuitBreaker(1, time.Hour)
	breaker.RecordFailure() // pre-trip the breaker

	c := executor.New(srv.URL, time.Second, executor.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, JitterPct: 0},
		breaker, silentLogger(), nil, "")

	obs, err := c.Apply(context.Background(), delayPlan(t))
	require.NoError(t, err)
	require.Nil(t, obs)
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestHealthReportsServerStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := executor.New(srv.URL, time.Second, executor.RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, JitterPct: 0},
		executor.NewCircuitBreaker(5, time.Minute), silentLogger(), nil, "")

	require.True(t, c.Health(context.Background()))
}

func floatp2(v float64) *float64 { return &v }
