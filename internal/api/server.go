package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/regdown/internal/config"
	"github.com/dgallion1/regdown/internal/labelstore"
	"github.com/dgallion1/regdown/internal/regdown"
	"github.com/dgallion1/regdown/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for regdown.
type Server struct {
	router  chi.Router
	regdown *regdown.Regdown
	refs    *labelstore.Resolver
	store   labelstore.Store
	stats   *stats.RenderStats
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server. refs and store are nil
// when no label store is configured; refs must wrap store.
func NewServer(rd *regdown.Regdown, refs *labelstore.Resolver, store labelstore.Store, rs *stats.RenderStats, log *slog.Logger, cfg config.Config) *Server {
	if rs == nil {
		rs = stats.NewRenderStats(cfg.StatsWindow)
	}
	s := &Server{
		regdown: rd,
		refs:    refs,
		store:   store,
		stats:   rs,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.RegdownAPIKey, s.log))

		r.Post("/api/render", s.handleRender)
		r.Post("/api/render/file", s.handleRenderFile)
		r.Post("/api/render/batch", s.handleRenderBatch)
		r.Post("/api/tree", s.handleTree)
		r.Post("/api/extract", s.handleExtract)
		r.Get("/api/stats/render", s.handleRenderStats)

		r.Get("/api/references", s.handleListReferences)
		r.Get("/api/references/{label}", s.handleGetReference)
		r.Put("/api/references/{label}", s.handlePutReference)
		r.Delete("/api/references/{label}", s.handleDeleteReference)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
