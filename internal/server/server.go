package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ahmethakanbesel/jobmanager/internal/job"
)

// Options configures the HTTP server.
type Options struct {
	Port string
	// Database is the job backend name shown by /health.
	Database string
	// BaseContext is the parent of every request context.
	BaseContext context.Context
}

type Server struct {
	http *http.Server
}

func New(jobSvc *job.Service, opts Options) *Server {
	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}
	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort("", opts.Port),
			Handler:           NewHandler(jobSvc, opts.Database),
			BaseContext:       func(net.Listener) context.Context { return base },
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}
}

// Start serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	slog.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("http server draining")
	return s.http.Shutdown(ctx)
}
