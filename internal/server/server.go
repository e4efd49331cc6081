// Package server exposes collection and winner draws over HTTP.
package server

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"xreposters/pkg/config"
	"xreposters/pkg/logger"
	"xreposters/pkg/models"
	"xreposters/pkg/scraper"
)

const shutdownTimeout = 10 * time.Second

// Server serves /health, /crawl and /draw, both at the root and under /api
type Server struct {
	config    *config.Config
	collector scraper.Collector
	creds     *models.Credentials
	logger    logger.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a Server. creds may be nil for anonymous collection.
func New(cfg *config.Config, collector scraper.Collector, creds *models.Credentials, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Server{
		config:    cfg,
		collector: collector,
		creds:     creds,
		logger:    log.WithField("component", "server"),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.config.Server.AllowedOrigins))

	r.Group(s.routes)
	r.Route("/api", s.routes)
	return r
}

func (s *Server) routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Get("/crawl", s.handleCrawl)
	r.Post("/draw", s.handleDraw)
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogComponentStart("server", map[string]interface{}{
			"addr":          srv.Addr,
			"crawl_timeout": s.config.Server.CrawlTimeout.String(),
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.LogComponentStop("server", "shutdown requested")
	return nil
}
