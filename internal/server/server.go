// Package server exposes the packet codecs over HTTP: schema listing,
// transcoding between codecs and packet inspection.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/crosspacket/internal/config"
	"github.com/danmuck/crosspacket/internal/observability"
	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/registry"
)

const Version = "0.1.0"

type Server struct {
	Name     string
	Addr     string
	Appeared time.Time

	registry *registry.Registry
	limits   protocol.Limits
	maxBody  int64
	router   *gin.Engine
}

// New builds the router with logging, metrics and CORS middleware. Routes
// are added by RegisterRoutes.
func New(cfg config.Config, reg *registry.Registry) *Server {
	observability.RegisterMetrics()
	if reg == nil {
		reg = registry.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Server.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.Server.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Warn().Err(err).Msg("server: trusted proxies rejected")
	}

	return &Server{
		Name:     cfg.Server.Name,
		Addr:     cfg.Server.Addr,
		Appeared: time.Now(),
		registry: reg,
		limits:   cfg.Limits,
		maxBody:  int64(cfg.Frame.MaxPayloadBytes),
		router:   r,
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled, then drains for up to five seconds.
func (s *Server) Run(ctx context.Context) error {
	s.RegisterRoutes()
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("service", s.Name).Str("addr", s.Addr).Msg("server: listening")
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info().Str("service", s.Name).Msg("server: shutting down")
	return srv.Shutdown(shutdownCtx)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
