package service

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type HealthzServer struct {
	mu       sync.Mutex
	ctx      context.Context
	server   *http.Server
	listener net.Listener
	log      zerolog.Logger
}

func (h *HealthzServer) Start(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.HandleFunc("/healthz", h.Handle)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler: c.Handler(hdlr),
	}

	// Published before serving so Shutdown from another goroutine
	// always sees a live server.
	h.mu.Lock()
	h.ctx = ctx
	h.server = server
	h.listener = listener
	h.mu.Unlock()

	return server.Serve(listener)
}

// Addr returns the bound address, or "" before Start has listened.
func (h *HealthzServer) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return ""
	}
	return h.listener.Addr().String()
}

func (h *HealthzServer) Shutdown() error {
	h.mu.Lock()
	server, ctx := h.server, h.ctx
	h.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (h *HealthzServer) Handle(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Str("path", r.URL.Path).Msg("received health check request")
	w.Write([]byte("OK")) //nolint:errcheck
}
