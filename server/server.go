// Copyright 2025 Poiesic Systems
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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/embedsync/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Updater regenerates the embedding of one record from caller-supplied content.
// *syncer.Syncer implements it.
type Updater interface {
	Update(ctx context.Context, id core.ID, content any) error
}

// Server exposes the single-record update path over HTTP.
type Server struct {
	config   *Config
	updater  Updater
	engine   *gin.Engine
	registry *prometheus.Registry
	metrics  *metrics
	logger   *slog.Logger
}

// New creates a server that forwards update requests to updater.
func New(updater Updater, config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if updater == nil {
		return nil, fmt.Errorf("%w: server needs an updater", core.ErrConfiguration)
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		config:   config,
		updater:  updater,
		registry: registry,
		metrics:  newMetrics(registry),
		logger:   slog.Default().With("component", "server"),
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(accessLogMiddleware(s.logger))
	r.Use(corsMiddleware(s.config.AllowedHeaders))

	r.POST("/", s.handleUpdate)
	r.OPTIONS("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	return r
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.config.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func (s *Server) handleUpdate(c *gin.Context) {
	start := time.Now()
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)

	id, content, err := decodeUpdateRequest(body)
	if err == nil {
		err = s.updater.Update(c.Request.Context(), id, content)
	}
	s.metrics.observe(core.CategoryOf(err), time.Since(start))

	if err != nil {
		status := statusFor(err)
		logArgs := []any{"id", id, "category", core.CategoryOf(err), "err", err,
			"request_id", c.GetString(requestIDKey)}
		if status >= http.StatusInternalServerError {
			s.logger.Error("update failed", logArgs...)
		} else {
			s.logger.Warn("update rejected", logArgs...)
		}
		c.JSON(status, errorResponse(err))
		return
	}

	c.JSON(http.StatusOK, successResponse(id))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
