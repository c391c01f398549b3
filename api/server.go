// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api serves the data lake over a small REST API. The API only ever
// reads successfully stored records; pipeline failures are visible in logs
// and run summaries, never as API error codes.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/penny-vault/etfdata/lake"
	"github.com/rs/zerolog/log"
)

// Server exposes the data lake read operations over HTTP.
type Server struct {
	router *chi.Mux
	lake   *lake.Lake
	port   int
}

// New creates a configured API server backed by myLake.
func New(myLake *lake.Lake, port int) *Server {
	server := &Server{
		lake: myLake,
		port: port,
	}

	server.router = server.buildRouter()

	return server
}

// Router returns the http handler, exposed for tests.
func (server *Server) Router() http.Handler {
	return server.router
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (server *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", server.port),
		Handler:      server.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	log.Info().Int("Port", server.port).Msg("API server listening")

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func (server *Server) buildRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	router.Route("/api", func(router chi.Router) {
		router.Get("/etfs", server.handleListETFs)
		router.Get("/etfs/{symbol}", server.handleGetETF)
		router.Get("/etfs/{symbol}/holdings", server.handleGetHoldings)
		router.Get("/health", server.handleHealth)
	})

	return router
}

// requestLogger logs one line per request through zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		log.Info().Str("Method", r.Method).Str("Path", r.URL.Path).
			Int("StatusCode", wrapped.Status()).Dur("Elapsed", time.Since(start)).
			Msg("handled request")
	})
}

func (server *Server) handleListETFs(w http.ResponseWriter, _ *http.Request) {
	symbols, err := server.lake.Symbols()
	if err != nil {
		log.Error().Err(err).Msg("could not list symbols")
		writeError(w, http.StatusInternalServerError, "could not list symbols")

		return
	}

	writeJSON(w, http.StatusOK, symbols)
}

func (server *Server) handleGetETF(w http.ResponseWriter, r *http.Request) {
	record, err := server.lake.Record(chi.URLParam(r, "symbol"))
	if err != nil {
		if errors.Is(err, lake.ErrNotFound) {
			writeError(w, http.StatusNotFound, "symbol not available")
			return
		}

		log.Error().Err(err).Msg("could not read record")
		writeError(w, http.StatusInternalServerError, "could not read record")

		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (server *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	record, err := server.lake.Record(chi.URLParam(r, "symbol"))
	if err != nil {
		if errors.Is(err, lake.ErrNotFound) {
			writeError(w, http.StatusNotFound, "symbol not available")
			return
		}

		log.Error().Err(err).Msg("could not read record")
		writeError(w, http.StatusInternalServerError, "could not read record")

		return
	}

	writeJSON(w, http.StatusOK, record.Holdings)
}

func (server *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("could not encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
