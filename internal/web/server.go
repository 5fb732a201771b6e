package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/scrimbook/scrimbook/internal/store"
	"github.com/scrimbook/scrimbook/internal/workflow"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	router   *chi.Mux
	sessions *workflow.Manager
	store    store.Store
	log      *logrus.Logger
	devMode  bool
}

// Config holds server configuration.
type Config struct {
	DevMode bool
}

// NewServer creates a new HTTP server.
func NewServer(sessions *workflow.Manager, st store.Store, log *logrus.Logger, cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		sessions: sessions,
		store:    st,
		log:      log,
		devMode:  cfg.DevMode,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		// Entry sessions
		r.Post("/workflows", s.handleCreateWorkflow)
		r.Route("/workflows/{workflowID}", func(r chi.Router) {
			r.Get("/", s.handleGetWorkflow)
			r.Delete("/", s.handleCloseWorkflow)
			r.Get("/events", s.handleWorkflowEvents)

			r.Put("/details", s.handleSetDetails)
			r.Put("/mode", s.handleSetMode)
			r.Put("/draft-tracking", s.handleSetTrackDraft)
			r.Put("/teams/{key}", s.handleSetTeam)
			r.Put("/side", s.handleSetOurSide)
			r.Put("/outcome", s.handleSetOutcome)

			r.Put("/draft/format", s.handleSetDraftFormat)
			r.Put("/draft/{kind}/{side}/{index}", s.handleSetDraftHero)
			r.Get("/draft/{kind}/{side}/{index}/heroes", s.handleAvailableHeroes)

			r.Put("/slots/{side}/{index}/player", s.handleSetSlotPlayer)
			r.Put("/slots/{side}/{index}/stats", s.handleSetSlotStats)
			r.Put("/awards", s.handleSetAwards)

			r.Post("/files", s.handleAddAttachment)
			r.Delete("/files/{fileID}", s.handleRemoveAttachment)

			r.Post("/advance", s.handleAdvance)
			r.Post("/back", s.handleBack)
			r.Post("/jump", s.handleJumpTo)
			r.Post("/submit", s.handleSubmit)
		})

		// Directory reads and writes outside any session
		r.Get("/teams", s.handleListTeams)
		r.Get("/teams/managed", s.handleListManagedTeams)
		r.Post("/teams", s.handleCreateTeam)
		r.Get("/teams/{teamID}/roster", s.handleTeamRoster)
		r.Post("/teams/{teamID}/players", s.handleAddPlayer)
		r.Get("/heroes", s.handleListHeroes)
		r.Get("/matches", s.handleListMatches)
		r.Get("/matches/{matchID}", s.handleGetMatch)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
