// Copyright 2026 Athena Law
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/athenalaw/lexgate/pkg/config"
	"github.com/athenalaw/lexgate/pkg/tools"
)

// Server exposes the tool registry over HTTP with the same wire
// contract the remote client consumes, so one lexgate process can act
// as a remote provider for another.
type Server struct {
	registry   *tools.Registry
	cfg        config.ServerConfig
	metricsCfg config.MetricsConfig
	logger     *slog.Logger
	httpServer *http.Server
}

func New(registry *tools.Registry, cfg config.ServerConfig, metricsCfg config.MetricsConfig) *Server {
	return &Server{
		registry:   registry,
		cfg:        cfg,
		metricsCfg: metricsCfg,
		logger:     slog.Default(),
	}
}

// Handler builds the router. Exposed for tests and embedding.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	if s.metricsCfg.Enabled {
		r.Handle(s.metricsCfg.Path, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(s.bearerAuth)
		}
		r.Get("/api/tools", s.handleCatalog)
		r.Post("/api/tools/{name}", s.handleCall)
	})

	return r
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != s.cfg.APIKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCatalog serves the aggregate capability list in the same shape
// the remote client's catalog fetch expects.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	capabilities := s.registry.AllCapabilities(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"tools": capabilities})
}

type callRequest struct {
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if wantsSSE(r) && s.registry.SupportsStreaming(name) {
		s.streamCall(w, r, name, req.Arguments)
		return
	}

	result, err := s.registry.ExecuteTool(r.Context(), name, req.Arguments)
	if err != nil {
		s.writeToolError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// streamCall emits progress events as SSE, followed by a final result
// event.
func (s *Server) streamCall(w http.ResponseWriter, r *http.Request, name string, args map[string]any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported by transport")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	sendEvent := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	result, err := s.registry.ExecuteToolStream(r.Context(), name, args, func(ev tools.StreamEvent) {
		sendEvent(ev.Type, ev)
	})
	if err != nil {
		sendEvent("error", map[string]string{"error": err.Error()})
		return
	}
	sendEvent("result", map[string]any{"result": result})
}

func (s *Server) writeToolError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, tools.ErrToolNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tools.ErrProviderNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("Tool execution failed", "tool", name, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func wantsSSE(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
