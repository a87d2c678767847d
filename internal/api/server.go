// SPDX-License-Identifier: MIT

// Package api exposes the companion-app HTTP interface: run status, remote
// timeshift configuration and a run trigger, plus prometheus metrics.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"epgshift/internal/config"
	"epgshift/internal/jobs"
	xglog "epgshift/internal/log"
)

// Server serialises runs and configuration mutations behind runMu,
// preserving the one-run-at-a-time model even with the API enabled. Run
// state lives behind its own mutex so status reads stay responsive while a
// run is in progress.
type Server struct {
	paths  jobs.Paths
	apiCfg config.API

	runMu sync.Mutex // serialises runs and config mutations

	mu      sync.Mutex // guards last and lastErr
	last    *jobs.Status
	lastErr string
}

// New creates a server rooted at the given paths.
func New(paths jobs.Paths, apiCfg config.API) *Server {
	return &Server{paths: paths, apiCfg: apiCfg}
}

// RunNow executes one processing run. It is safe to call from both the HTTP
// layer and the scheduler; runs never overlap.
func (s *Server) RunNow(ctx context.Context) (*jobs.Status, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	cfg, err := config.Load(s.paths.ConfigPath)
	if err != nil {
		s.recordRun(nil, err)
		return nil, err
	}
	status, err := jobs.Run(ctx, cfg, s.paths)
	s.recordRun(status, err)
	return status, err
}

func (s *Server) recordRun(status *jobs.Status, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return
	}
	s.last = status
	s.lastErr = ""
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(60, time.Minute))
		if s.apiCfg.APIKey != "" {
			r.Use(s.requireAPIKey)
		}

		r.Get("/status", s.handleStatus)
		r.Get("/timeshift", s.handleGetTimeshift)
		r.Put("/timeshift", s.handleSetDefault)
		r.Put("/timeshift/channels/{id}", s.handleSetChannel)
		r.Post("/timeshift/force", s.handleForce)
		r.Post("/run", s.handleRun)
	})

	return r
}

// requireAPIKey rejects requests without the configured X-API-Key header.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.apiCfg.APIKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusResponse struct {
	LastRun   *jobs.Status `json:"last_run"`
	LastError string       `json:"last_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := statusResponse{LastRun: s.last, LastError: s.lastErr}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTimeshift(w http.ResponseWriter, r *http.Request) {
	// Reads go straight to the file: config writes are atomic replaces, so
	// no lock is needed and a long run never delays the read.
	cfg, err := config.Load(s.paths.ConfigPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg.Timeshift)
}

func (s *Server) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DefaultOffsetSeconds int `json:"default_offset_seconds"`
	}
	if !s.decodeMutation(w, r, &body) {
		return
	}
	s.mutateConfig(w, r, func(cfg *config.Config) {
		cfg.Timeshift.DefaultOffsetSeconds = body.DefaultOffsetSeconds
	})
}

func (s *Server) handleSetChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")
	if channelID == "" {
		writeError(w, http.StatusBadRequest, "missing channel id")
		return
	}
	var body struct {
		OffsetSeconds int `json:"offset_seconds"`
	}
	if !s.decodeMutation(w, r, &body) {
		return
	}
	s.mutateConfig(w, r, func(cfg *config.Config) {
		cfg.Timeshift.SetChannel(channelID, body.OffsetSeconds)
	})
}

func (s *Server) handleForce(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OffsetSeconds int `json:"offset_seconds"`
		DurationHours int `json:"duration_hours"`
	}
	if !s.decodeMutation(w, r, &body) {
		return
	}
	if body.DurationHours <= 0 {
		body.DurationHours = 24
	}
	s.mutateConfig(w, r, func(cfg *config.Config) {
		cfg.Timeshift.Force(body.OffsetSeconds,
			time.Duration(body.DurationHours)*time.Hour, time.Now())
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	status, err := s.RunNow(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// decodeMutation parses a mutation body and enforces the remote-config
// switch in one place.
func (s *Server) decodeMutation(w http.ResponseWriter, r *http.Request, v any) bool {
	if !s.apiCfg.AllowRemoteConfig {
		writeError(w, http.StatusForbidden, "remote configuration is disabled")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// mutateConfig loads, mutates and saves the configuration under the run
// lock so a mutation never interleaves with a run's own config save,
// answering with the updated timeshift state.
func (s *Server) mutateConfig(w http.ResponseWriter, r *http.Request, mutate func(*config.Config)) {
	logger := xglog.WithComponentFromContext(r.Context(), "api")

	s.runMu.Lock()
	defer s.runMu.Unlock()

	cfg, err := config.Load(s.paths.ConfigPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	mutate(cfg)
	if err := config.Save(s.paths.ConfigPath, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info().Str("event", "config.remote_update").Msg("timeshift configuration updated")
	writeJSON(w, http.StatusOK, cfg.Timeshift)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
