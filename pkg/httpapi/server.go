// Package httpapi is the thin HTTP translator between external JSON and
// the coordinator/sessionstore internals: create/get/stop sessions, health.
// Routed on github.com/go-chi/chi/v5, the convention the retrieved HTTP
// services in the corpus use — the teacher itself is CLI-only.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jihwankim/fault-recommender/pkg/coordinator"
	"github.com/jihwankim/fault-recommender/pkg/reporting"
	"github.com/jihwankim/fault-recommender/pkg/session"
	"github.com/jihwankim/fault-recommender/pkg/sessionstore"
	"github.com/jihwankim/fault-recommender/pkg/telemetry"
)

// Server wires the session store, coordinator, and executor health check
// into a chi router.
type Server struct {
	router      chi.Router
	store       *sessionstore.Store
	coord       *coordinator.Coordinator
	healthCheck func(ctx context.Context) bool
	logger      *reporting.Logger
	metrics     *telemetry.Metrics
	launch      func(ctx context.Context, sess *session.Session)
}

// NewServer constructs the HTTP boundary. launch is called once per newly
// created session to start its worker (building the proposer and executor
// client the session needs and submitting it to the coordinator) — kept as
// an injected function so the server package doesn't need to know how to
// construct those collaborators.
func NewServer(store *sessionstore.Store, coord *coordinator.Coordinator, healthCheck func(ctx context.Context) bool, launch func(ctx context.Context, sess *session.Session), metrics *telemetry.Metrics, logger *reporting.Logger) *Server {
	s := &Server{
		store:       store,
		coord:       coord,
		healthCheck: healthCheck,
		launch:      launch,
		logger:      logger,
		metrics:     metrics,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Route("/optimization/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/stop", s.handleStopSession)
		})
	})

	r.Handle("/metrics", telemetry.Handler())

	return r
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
