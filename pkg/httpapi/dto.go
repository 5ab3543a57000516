package httpapi

import (
	"encoding/json"
	"time"

	"github.com/jihwankim/fault-recommender/pkg/faultplan"
	"github.com/jihwankim/fault-recommender/pkg/session"
)

// CreateSessionRequest is the POST /v1/optimization/sessions body.
type CreateSessionRequest struct {
	ServiceName       string          `json:"service_name"`
	SearchSpaceConfig json.RawMessage `json:"search_space_config"`
	MaxTrials         int             `json:"max_trials"`
}

// StopSessionRequest is the POST /v1/optimization/sessions/{id}/stop body.
type StopSessionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// StopSessionResponse is returned from the stop endpoint.
type StopSessionResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SessionStatus is the JSON projection of a Session returned by the create
// and get endpoints.
type SessionStatus struct {
	ID              string        `json:"id"`
	ServiceName     string        `json:"service_name"`
	Status          string        `json:"status"`
	TrialsCompleted int           `json:"trials_completed"`
	MaxTrials       int           `json:"max_trials"`
	ProgressPercent float64       `json:"progress_percent"`
	BestScore       float64       `json:"best_score"`
	BestFault       *faultplan.Plan `json:"best_fault,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ToSessionStatus projects a Session into its wire representation.
func ToSessionStatus(s *session.Session) SessionStatus {
	status := SessionStatus{
		ID:              s.ID,
		ServiceName:     s.ServiceName,
		Status:          string(s.Status),
		TrialsCompleted: s.TrialsCompleted(),
		MaxTrials:       s.MaxTrials,
		ProgressPercent: s.ProgressPercent(),
		BestScore:       s.BestScore(),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Best != nil {
		plan := s.Best.Plan
		status.BestFault = &plan
	}
	return status
}

// HealthResponse is the GET /v1/health body.
type HealthResponse struct {
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
	ExecutorAvailable bool      `json:"executor_available"`
	Details           string    `json:"details,omitempty"`
}

// ErrorResponse is the uniform error body for 4xx/5xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
