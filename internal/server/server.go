// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search engine over a JSON HTTP API. The
// server is read-only: it opens the published index and never writes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pdiddy/profiledir/internal/engine"
	"github.com/pdiddy/profiledir/internal/labels"
	"github.com/pdiddy/profiledir/pkg/types"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine with the full middleware chain and
// all API routes. Middleware order: request id first, then logging,
// then recovery, so panics are logged with the correlation id.
func NewRouter(cfg types.ServerConfig, store *engine.Store, table *labels.Table, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(RequestID())
	r.Use(AccessLog(log))
	r.Use(Recovery(log))
	r.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowOrigins,
			AllowMethods:  []string{"GET", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, codeNotFound, "route not found")
	})

	h := &handler{store: store, table: table}

	r.GET("/health", h.health)
	api := r.Group("/api")
	{
		api.GET("/researchers", h.listResearchers)
		api.GET("/researchers/:id", h.getResearcher)
		api.GET("/organizations", h.listOrganizations)
		api.GET("/facet-counts", h.facetCounts)
	}

	return r
}

// Run serves the API until ctx is cancelled, then drains in-flight
// requests with a bounded shutdown.
func Run(ctx context.Context, cfg types.ServerConfig, store *engine.Store, table *labels.Table, log zerolog.Logger) error {
	addr := cfg.Addr
	if addr == "" {
		addr = ":8000"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg, store, table, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
