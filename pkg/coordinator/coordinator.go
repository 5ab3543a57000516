// Package coordinator drives one session's worker loop from PENDING to a
// terminal state and schedules many sessions' workers concurrently. The
// per-session loop shape — transition, check stop flag, recover from panic,
// defer a final save — is grounded on the teacher's
// orchestrator.Orchestrator.Execute; scheduling across sessions is new,
// using a bounded worker pool instead of one goroutine per chaos run.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JekaMas/workerpool"

	"github.com/jihwankim/fault-recommender/pkg/analyzer"
	"github.com/jihwankim/fault-recommender/pkg/executor"
	"github.com/jihwankim/fault-recommender/pkg/proposer"
	"github.com/jihwankim/fault-recommender/pkg/reporting"
	"github.com/jihwankim/fault-recommender/pkg/session"
	"github.com/jihwankim/fault-recommender/pkg/sessionstore"
	"github.com/jihwankim/fault-recommender/pkg/telemetry"
)

// Coordinator schedules one worker per RUNNING session onto a bounded
// pool, so many sessions make progress concurrently while each session's
// own loop stays strictly sequential.
type Coordinator struct {
	store   *sessionstore.Store
	pool    *workerpool.WorkerPool
	logger  *reporting.Logger
	metrics *telemetry.Metrics

	mu        sync.Mutex
	stopFlags map[string]*stopFlag
}

// stopFlag is the cooperative cancellation signal inspected at the top of
// each iteration — set by Stop from an HTTP handler goroutine, read by the
// running worker goroutine, hence the atomic.
type stopFlag struct {
	requested atomic.Bool
}

// New constructs a Coordinator backed by a worker pool of the given size.
// metrics may be nil; every use site guards against it.
func New(store *sessionstore.Store, poolSize int, logger *reporting.Logger, metrics *telemetry.Metrics) *Coordinator {
	return &Coordinator{
		store:     store,
		pool:      workerpool.New(poolSize),
		logger:    logger,
		metrics:   metrics,
		stopFlags: make(map[string]*stopFlag),
	}
}

// Start submits sess's worker loop onto the pool. It returns immediately;
// the session transitions to RUNNING from inside the submitted task.
func (c *Coordinator) Start(ctx context.Context, sess *session.Session, prop *proposer.Proposer, client *executor.Client) {
	flag := &stopFlag{}
	c.mu.Lock()
	c.stopFlags[sess.ID] = flag
	c.mu.Unlock()

	c.pool.Submit(func() {
		c.run(ctx, sess, prop, client, flag)
	})
}

// Stop requests that sess's worker stop at its next iteration boundary.
// A stop on a non-RUNNING session is idempotent: same status returned, no
// transition attempted.
func (c *Coordinator) Stop(sess *session.Session) error {
	if sess.Status != session.Running {
		return nil
	}
	c.mu.Lock()
	flag, ok := c.stopFlags[sess.ID]
	c.mu.Unlock()
	if ok {
		flag.requested.Store(true)
	}
	return sess.Transition(session.Stopping)
}

// run is the session worker loop: propose, apply, score, record, save —
// exactly spec.md §4.8's six steps, wrapped with the teacher's
// transition-then-check-stop-then-recover shape.
func (c *Coordinator) run(ctx context.Context, sess *session.Session, prop *proposer.Proposer, client *executor.Client, flag *stopFlag) {
	log := c.logger.WithSession(sess.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("session worker panicked", "panic", fmt.Sprintf("%v", r))
			sess.Fail(fmt.Sprintf("panic: %v", r))
			_ = c.store.Save(sess)
		}
	}()

	if err := sess.Transition(session.Running); err != nil {
		log.Error("cannot start session", "error", err.Error())
		return
	}
	_ = c.store.Save(sess)

	if c.metrics != nil {
		c.metrics.ActiveSessions.Inc()
		defer c.metrics.ActiveSessions.Dec()
	}

	for trialID := 0; trialID < sess.MaxTrials; trialID++ {
		if flag.requested.Load() {
			break
		}

		if err := c.iterate(ctx, sess, prop, client, log); err != nil {
			log.Error("session iteration failed", "error", err.Error())
			sess.Fail(err.Error())
			_ = c.store.Save(sess)
			return
		}
	}

	if err := sess.Transition(session.Completed); err != nil {
		log.Error("cannot complete session", "error", err.Error())
	}
	_ = c.store.Save(sess)
}

// iterate runs one trial: propose, apply, score, record, persist. An
// executor failure (nil observation) skips recording without advancing
// trial_id — the spec's pinned resolution of the "does it advance"
// ambiguity in the original worker loop.
func (c *Coordinator) iterate(ctx context.Context, sess *session.Session, prop *proposer.Proposer, client *executor.Client, log *reporting.Logger) error {
	plan, err := prop.Propose()
	if err != nil {
		return fmt.Errorf("propose: %w", err)
	}

	if c.metrics != nil {
		c.metrics.TrialsStarted.WithLabelValues(sess.ID).Inc()
	}

	obs, err := client.Apply(ctx, plan)
	if err != nil {
		return fmt.Errorf("executor apply: %w", err)
	}
	if obs == nil {
		if c.metrics != nil {
			c.metrics.TrialsCompleted.WithLabelValues(sess.ID, "no_observation").Inc()
		}
		log.Warn("no observation returned, skipping trial without advancing")
		return nil
	}

	breakdown := analyzer.Score(sess.Analyzer, *obs, func(msg string, fields ...interface{}) {
		log.Warn(msg, fields...)
	})

	score := breakdown.Total
	sess.AddTrial(session.Trial{
		Plan:        plan,
		Observation: obs,
		Score:       &score,
		Breakdown:   &breakdown,
		Timestamp:   time.Now(),
		Status:      session.TrialScored,
	})
	prop.Record(plan, score)

	if c.metrics != nil {
		c.metrics.TrialsCompleted.WithLabelValues(sess.ID, "scored").Inc()
	}

	return c.store.Save(sess)
}

// StopAll gracefully stops every tracked session, used by the shutdown
// controller when the process receives SIGINT/SIGTERM.
func (c *Coordinator) StopAll(sessions []*session.Session) {
	for _, sess := range sessions {
		_ = c.Stop(sess)
	}
}
