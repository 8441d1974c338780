// Package service runs the optional healthz and metrics HTTP servers
// alongside a long-lived collector process.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/testforge/ctrf-collector/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"
)

type Service struct {
	Healthz *HealthzServer
	Metrics *MetricsServer
	log     zerolog.Logger
}

func New(log zerolog.Logger) *Service {
	s := &Service{
		Healthz: &HealthzServer{log: log},
		Metrics: &MetricsServer{},
		log:     log,
	}
	return s
}

func (s *Service) Start(ctx context.Context) {
	s.log.Info().Msg("service starting")

	go func() {
		addr := net.JoinHostPort(HealthzHost, HealthzPort)
		s.log.Info().Str("addr", addr).Msg("starting healthz server")
		if err := s.Healthz.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("error starting healthz server")
			metrics.RecordErrorDetails("error starting healthz server", err)
		}
	}()

	go func() {
		addr := net.JoinHostPort(MetricsHost, MetricsPort)
		s.log.Info().Str("addr", addr).Msg("starting metrics server")
		if err := s.Metrics.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("error starting metrics server")
			metrics.RecordErrorDetails("error starting metrics server", err)
		}
	}()

	s.log.Info().Msg("service started")
}

func (s *Service) Shutdown() {
	s.log.Info().Msg("service shutting down")

	_ = s.Healthz.Shutdown()
	_ = s.Metrics.Shutdown()

	s.log.Info().Msg("service stopped")
}
