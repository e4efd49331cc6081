package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"xreposters/pkg/draw"
	apperrors "xreposters/pkg/errors"
	"xreposters/pkg/models"
	"xreposters/pkg/scraper"
	"xreposters/pkg/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

type drawRequest struct {
	Users []json.RawMessage `json:"users"`
	Count int               `json:"count"`
}

type drawResponse struct {
	Winners []json.RawMessage `json:"winners"`
	Count   int               `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing url"})
		return
	}

	ctx := r.Context()
	if timeout := s.config.Server.CrawlTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	users, err := s.collector.Collect(ctx, scraper.NewRequest(s.config, target, s.creds))
	if err != nil {
		errType := apperrors.TypeOf(err)
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"target":     target,
			"error_type": string(errType),
		}).Error("Crawl failed")
		writeJSON(w, apperrors.HTTPStatus(errType), errorResponse{Error: publicMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, models.NewResult(users))
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	s.rngMu.Lock()
	winners, err := draw.Draw(req.Users, req.Count, s.rng)
	s.rngMu.Unlock()
	if errors.Is(err, draw.ErrNoUsers) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no users"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, drawResponse{Winners: winners, Count: len(winners)})
}

// publicMessage keeps causes out of responses
func publicMessage(err error) string {
	var typed *apperrors.Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	return "crawl failed"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = storage.Encode(w, v)
}
