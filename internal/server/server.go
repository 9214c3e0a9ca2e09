package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/curatord/curator/internal/selector"
	"github.com/curatord/curator/internal/store"
)

// Server is the curator HTTP API server.
type Server struct {
	db      *store.DB
	sel     *selector.Selector
	router  chi.Router
	version string
	quality float64 // default retrieval quality when a request omits it
	started time.Time
}

// New creates a new Server around an open store and a configured
// selector.
func New(db *store.DB, sel *selector.Selector, version string, quality float64) *Server {
	s := &Server{
		db:      db,
		sel:     sel,
		version: version,
		quality: quality,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/items", s.handleSaveItem)
		r.Get("/items", s.handleListItems)
		r.Get("/items/{itemID}", s.handleGetItem)
		r.Delete("/items/{itemID}", s.handleDeleteItem)
		r.Post("/items/{itemID}/feedback", s.handleFeedback)

		r.Post("/context/select", s.handleSelect)
		r.Get("/context", s.handleGetContext)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/runs/{runID}/debug", s.handleRunDebug)

		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
