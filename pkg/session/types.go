// Package session defines the top-level optimization session: its trial
// history, state machine, and durable-snapshot shape.
package session

import (
	"fmt"
	"time"

	"github.com/jihwankim/fault-recommender/pkg/analyzer"
	"github.com/jihwankim/fault-recommender/pkg/faultplan"
	"github.com/jihwankim/fault-recommender/pkg/observation"
	"github.com/jihwankim/fault-recommender/pkg/searchspace"
)

// Status is one of the five states a Session can occupy.
type Status string

const (
	Pending   Status = "PENDING"
	Running   Status = "RUNNING"
	Stopping  Status = "STOPPING"
	Completed Status = "COMPLETED"
	Failed    Status = "FAILED"
)

// Terminal reports whether s is a terminal state.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// validTransitions enumerates the state machine's allowed edges, per
// PENDING -> RUNNING -> {STOPPING -> COMPLETED, COMPLETED}, any -> FAILED.
var validTransitions = map[Status]map[Status]bool{
	Pending:  {Running: true, Failed: true},
	Running:  {Stopping: true, Completed: true, Failed: true},
	Stopping: {Completed: true, Failed: true},
}

// TrialStatus tags one Trial's outcome.
type TrialStatus string

const (
	TrialScored     TrialStatus = "scored"
	TrialNoObservation TrialStatus = "no_observation"
)

// Trial is one immutable iteration record.
type Trial struct {
	TrialID     int
	Plan        faultplan.Plan
	Observation *observation.Observation
	Score       *float64
	Breakdown   *analyzer.Breakdown
	Timestamp   time.Time
	Status      TrialStatus
}

// BestResult is a value copy of the best trial seen so far — never a
// back-reference into the trial slice, per the ownership fix over the
// original's cyclic session/trial/best relationship.
type BestResult struct {
	Plan    faultplan.Plan
	Score   float64
	TrialID int
}

// Session is the top-level unit driven by exactly one worker.
type Session struct {
	ID          string
	ServiceName string
	Space       searchspace.Space
	MaxTrials   int
	Analyzer    analyzer.Config

	Trials []Trial
	Best   *BestResult

	Status Status
	Reason string

	CreatedAt   time.Time
	StartedAt   *time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TransitionError reports an illegal state transition attempt.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal session transition: %s -> %s", e.From, e.To)
}

// Transition moves s to 'to', failing loudly if the edge is not allowed by
// the state machine in §4.8.
func (s *Session) Transition(to Status) error {
	if to == Failed {
		s.Status = Failed
		s.touch()
		return nil
	}

	allowed := validTransitions[s.Status]
	if !allowed[to] {
		return &TransitionError{From: s.Status, To: to}
	}

	s.Status = to
	now := time.Now()
	switch to {
	case Running:
		if s.StartedAt == nil {
			s.StartedAt = &now
		}
	case Completed:
		s.CompletedAt = &now
	}
	s.touch()
	return nil
}

// Fail transitions s to FAILED with a reason, valid from any non-terminal
// state.
func (s *Session) Fail(reason string) {
	s.Status = Failed
	s.Reason = reason
	s.touch()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// AddTrial appends t to the session's trial sequence and updates Best if
// t's score is higher. trial_id must equal len(Trials) before the append —
// contiguous numbering is an invariant, not a choice made per-call.
func (s *Session) AddTrial(t Trial) {
	t.TrialID = len(s.Trials)
	s.Trials = append(s.Trials, t)

	if t.Score != nil && (s.Best == nil || *t.Score > s.Best.Score) {
		s.Best = &BestResult{Plan: t.Plan, Score: *t.Score, TrialID: t.TrialID}
	}
	s.touch()
}

// Clone returns a deep copy of s: a fresh Trials backing array and a fresh
// Best/StartedAt/CompletedAt pointer where set. Trial.Observation and
// Trial.Breakdown are shared, not copied — they're written once by AddTrial
// and never mutated afterward, so aliasing them is safe. Callers that need
// to read a session's fields while its worker may still be mutating it
// (the HTTP boundary) must clone rather than hold the live pointer.
func (s *Session) Clone() *Session {
	clone := *s

	if s.Trials != nil {
		clone.Trials = make([]Trial, len(s.Trials))
		copy(clone.Trials, s.Trials)
	}
	if s.Best != nil {
		best := *s.Best
		clone.Best = &best
	}
	if s.StartedAt != nil {
		t := *s.StartedAt
		clone.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		clone.CompletedAt = &t
	}

	return &clone
}

// TrialsCompleted is the number of trials recorded so far.
func (s *Session) TrialsCompleted() int {
	return len(s.Trials)
}

// ProgressPercent is trials completed as a percentage of max_trials.
func (s *Session) ProgressPercent() float64 {
	if s.MaxTrials <= 0 {
		return 0
	}
	return float64(len(s.Trials)) / float64(s.MaxTrials) * 100.0
}

// BestScore returns the best score recorded so far, or 0 if none.
func (s *Session) BestScore() float64 {
	if s.Best == nil {
		return 0
	}
	return s.Best.Score
}
