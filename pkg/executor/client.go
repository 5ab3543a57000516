// Package executor talks to the remote fault-execution service: it sends a
// plan, receives an observation, and wraps the call in retry-with-backoff
// and circuit-breaker discipline.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jihwankim/fault-recommender/pkg/faultplan"
	"github.com/jihwankim/fault-recommender/pkg/observation"
	"github.com/jihwankim/fault-recommender/pkg/reporting"
	"github.com/jihwankim/fault-recommender/pkg/telemetry"
)

// RetryConfig controls the backoff schedule applied to transient failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterPct   float64
}

// Client is the executor HTTP client. One Client belongs to exactly one
// session worker — its circuit breaker is not safe to share across workers.
type Client struct {
	baseURL   string
	http      *http.Client
	retry     RetryConfig
	breaker   *CircuitBreaker
	logger    *reporting.Logger
	rng       *rand.Rand
	metrics   *telemetry.Metrics
	sessionID string
}

// New constructs an executor client wrapping its transport with otelhttp
// for span-per-call observability. metrics may be nil — the top-level
// health-check client has no session to label its calls with and passes
// nil; every use site guards against it.
func New(baseURL string, timeout time.Duration, retry RetryConfig, breaker *CircuitBreaker, logger *reporting.Logger, metrics *telemetry.Metrics, sessionID string) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)
	return &Client{
		baseURL:   baseURL,
		http:      &http.Client{Transport: transport, Timeout: timeout},
		retry:     retry,
		breaker:   breaker,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		metrics:   metrics,
		sessionID: sessionID,
	}
}

type policyRequest struct {
	Service          string   `json:"service"`
	FaultType        string   `json:"fault_type"`
	DurationMS       *int     `json:"duration_ms,omitempty"`
	DelayMS          *int     `json:"delay_ms,omitempty"`
	AbortProbability *float64 `json:"abort_probability,omitempty"`
	ErrorCode        *int     `json:"error_code,omitempty"`
}

func planToPolicy(plan faultplan.Plan) policyRequest {
	req := policyRequest{
		Service:   plan.Service,
		FaultType: string(plan.Kind),
	}
	if plan.DurationMS > 0 {
		d := plan.DurationMS
		req.DurationMS = &d
	}
	switch plan.Kind {
	case faultplan.Delay:
		d := plan.DelayMS
		req.DelayMS = &d
	case faultplan.Abort:
		p := float64(plan.ImpactPct) / 100.0
		req.AbortProbability = &p
	case faultplan.ErrorInjection:
		if plan.ErrorCode != 0 {
			c := plan.ErrorCode
			req.ErrorCode = &c
		}
	}
	return req
}

// Apply sends plan to the executor and returns its observation. It returns
// (nil, nil) — not an error — when retries are exhausted or the circuit is
// open, per the apply contract: transport exhaustion is a normal trial
// outcome, not a fatal error.
//
// The breaker's CanAttempt check gates the call once, before any attempt —
// not once per retry. A call already in flight exhausts its own retry
// budget even if its failures trip the breaker mid-call; only a later,
// separate Apply call is rejected "without a network attempt".
func (c *Client) Apply(ctx context.Context, plan faultplan.Plan) (*observation.Observation, error) {
	start := time.Now()
	outcome := "exhausted"
	defer func() {
		if c.metrics == nil {
			return
		}
		c.metrics.ExecutorLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		c.metrics.CircuitState.WithLabelValues(c.sessionID).Set(breakerStateValue(c.breaker.State()))
	}()

	body, err := json.Marshal(planToPolicy(plan))
	if err != nil {
		outcome = "marshal_error"
		return nil, fmt.Errorf("failed to marshal fault plan: %w", err)
	}

	if !c.breaker.CanAttempt() {
		outcome = "circuit_open"
		c.logger.Warn("executor call rejected: circuit open")
		return nil, nil
	}

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		obs, retryable, err := c.attempt(ctx, body)
		if err == nil {
			c.breaker.RecordSuccess()
			outcome = "success"
			return obs, nil
		}

		c.logger.Warn("executor call failed", "attempt", attempt, "error", err.Error(), "retryable", retryable)
		c.breaker.RecordFailure()

		if !retryable {
			outcome = "rejected"
			return nil, nil
		}
		if attempt == c.retry.MaxAttempts-1 {
			break
		}

		if err := c.sleepBackoff(ctx, attempt); err != nil {
			outcome = "cancelled"
			return nil, nil
		}
	}

	return nil, nil
}

// attempt performs one HTTP round trip. The bool return is true when the
// failure is transient (network error, timeout, 5xx) and worth retrying.
func (c *Client) attempt(ctx context.Context, body []byte) (*observation.Observation, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/policies", bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("executor returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("executor returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read executor response: %w", err)
	}

	var obs observation.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, false, fmt.Errorf("failed to decode observation: %w", err)
	}

	return &obs, false, nil
}

// sleepBackoff sleeps for the i-th retry's backoff window with symmetric
// jitter, returning early if ctx is cancelled.
func (c *Client) sleepBackoff(ctx context.Context, i int) error {
	d := backoffDelay(c.retry.BaseDelay, c.retry.MaxDelay, i)
	j := c.retry.JitterPct / 100.0
	lo := float64(d) * (1 - j)
	hi := float64(d) * (1 + j)
	sleep := time.Duration(lo + c.rng.Float64()*(hi-lo))

	timer := time.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// breakerStateValue maps a BreakerState to the gauge value documented on
// telemetry.Metrics.CircuitState: 0=closed, 1=open, 2=half_open.
func breakerStateValue(s BreakerState) float64 {
	switch s {
	case Closed:
		return 0
	case Open:
		return 1
	case HalfOpen:
		return 2
	default:
		return -1
	}
}

func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base << attempt
	if d > max || d < base {
		d = max
	}
	return d
}

// Health reports whether the executor's health endpoint responds 200.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
