package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jihwankim/fault-recommender/pkg/searchspace"
	"github.com/jihwankim/fault-recommender/pkg/session"
)

func errRequired(field string) error {
	return fmt.Errorf("%s is required", field)
}

func errNotFound(id string) error {
	return fmt.Errorf("session %q not found", id)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	available := s.healthCheck != nil && s.healthCheck(ctx)
	status := "ok"
	details := ""
	if !available {
		status = "degraded"
		details = "executor unavailable"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            status,
		Timestamp:         time.Now().UTC(),
		ExecutorAvailable: available,
		Details:           details,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.ServiceName == "" {
		writeError(w, http.StatusBadRequest, errRequired("service_name"))
		return
	}
	if req.MaxTrials <= 0 || req.MaxTrials > 10000 {
		writeError(w, http.StatusBadRequest, errRequired("max_trials must be in (0,10000]"))
		return
	}

	space, err := searchspace.ParseJSON(req.SearchSpaceConfig)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	now := time.Now().UTC()
	sess := &session.Session{
		ID:          uuid.NewString(),
		ServiceName: req.ServiceName,
		Space:       space,
		MaxTrials:   req.MaxTrials,
		Status:      session.Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Save(sess); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if s.launch != nil {
		s.launch(context.WithoutCancel(r.Context()), sess)
	}

	writeJSON(w, http.StatusAccepted, ToSessionStatus(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound(id))
		return
	}
	writeJSON(w, http.StatusOK, ToSessionStatus(sess))
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errNotFound(id))
		return
	}

	var req StopSessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := s.coord.Stop(sess); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	_ = s.store.Save(sess)

	writeJSON(w, http.StatusAccepted, StopSessionResponse{
		ID:      sess.ID,
		Status:  string(sess.Status),
		Message: "stop requested",
	})
}
