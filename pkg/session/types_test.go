package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/fault-recommender/pkg/session"
)

func newSession() *session.Session {
	return &session.Session{ID: "s1", Status: session.Pending, MaxTrials: 10}
}

func TestTransitionHappyPath(t *testing.T) {
	s := newSession()
	require.NoError(t, s.Transition(session.Running))
	require.NotNil(t, s.StartedAt)
	require.NoError(t, s.Transition(session.Stopping))
	require.NoError(t, s.Transition(session.Completed))
	require.NotNil(t, s.CompletedAt)
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	s := newSession()
	err := s.Transition(session.Completed)
	require.Error(t, err)
	var te *session.TransitionError
	require.ErrorAs(t, err, &te)
}

func TestTransitionToFailedAlwaysAllowed(t *testing.T) {
	s := newSession()
	require.NoError(t, s.Transition(session.Running))
	require.NoError(t, s.Transition(session.Failed))
	require.Equal(t, session.Failed, s.Status)
}

func TestAddTrialAssignsContiguousIDs(t *testing.T) {
	s := newSession()
	s.AddTrial(session.Trial{})
	s.AddTrial(session.Trial{})
	require.Equal(t, 0, s.Trials[0].TrialID)
	require.Equal(t, 1, s.Trials[1].TrialID)
}

func TestAddTrialUpdatesBestOnHigherScore(t *testing.T) {
	s := newSession()
	score1 := 3.0
	score2 := 7.0
	score3 := 1.0

	s.AddTrial(session.Trial{Score: &score1})
	require.Equal(t, 3.0, s.BestScore())

	s.AddTrial(session.Trial{Score: &score2})
	require.Equal(t, 7.0, s.BestScore())
	require.Equal(t, 1, s.Best.TrialID)

	s.AddTrial(session.Trial{Score: &score3})
	require.Equal(t, 7.0, s.BestScore()) // lower score leaves Best untouched
}

func TestBestIsValueCopyNotBackReference(t *testing.T) {
	s := newSession()
	score := 5.0
	s.AddTrial(session.Trial{Score: &score})

	// Mutating the stored trial's score must not move Best's copy.
	mutated := 99.0
	s.Trials[0].Score = &mutated

	require.Equal(t, 5.0, s.Best.Score)
}

func TestProgressPercent(t *testing.T) {
	s := newSession()
	s.MaxTrials = 4
	s.AddTrial(session.Trial{})
	require.Equal(t, 25.0, s.ProgressPercent())
}
