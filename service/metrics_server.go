package service

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsServer struct {
	mu       sync.Mutex
	ctx      context.Context
	server   *http.Server
	listener net.Listener
}

func (m *MetricsServer) Start(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler: hdlr,
	}

	m.mu.Lock()
	m.ctx = ctx
	m.server = server
	m.listener = listener
	m.mu.Unlock()

	return server.Serve(listener)
}

// Addr returns the bound address, or "" before Start has listened.
func (m *MetricsServer) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func (m *MetricsServer) Shutdown() error {
	m.mu.Lock()
	server, ctx := m.server, m.ctx
	m.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
