// Package server sequences startup: provision the model artifact once, then
// bind the listener and serve until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// zlog is the package logger. Replace it with SetLogger.
var zlog = zerolog.New(os.Stderr).With().Timestamp().Str("component", "server").Logger()

// SetLogger installs a structured logger used by the server lifecycle.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "server").Logger() }

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Provisioner fetches a model artifact. *provision.Provisioner satisfies it.
type Provisioner interface {
	EnsurePresent(ctx context.Context, modelID, credential string) error
}

// Options configures a Server.
type Options struct {
	Addr    string
	Handler http.Handler
	// Provisioner runs once before the listener binds. nil or an empty
	// ModelID skips provisioning.
	Provisioner Provisioner
	ModelID     string
	Credential  string
}

// Server owns the HTTP listener.
type Server struct {
	opts Options
	srv  *http.Server

	mu      sync.Mutex
	ln      net.Listener
	serveCh chan error
}

// New returns an unstarted Server.
func New(opts Options) *Server {
	return &Server{
		opts: opts,
		srv: &http.Server{
			Handler:           opts.Handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start provisions the model, binds the listener and serves in the
// background. A provisioning failure is logged and does not stop startup.
func (s *Server) Start(ctx context.Context) error {
	s.provision(ctx)

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.serveCh = make(chan error, 1)
	s.mu.Unlock()
	zlog.Info().Str("addr", ln.Addr().String()).Msg("listening")
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveCh <- err
	}()
	return nil
}

func (s *Server) provision(ctx context.Context) {
	if s.opts.Provisioner == nil || s.opts.ModelID == "" {
		zlog.Info().Msg("model provisioning disabled")
		return
	}
	if err := s.opts.Provisioner.EnsurePresent(ctx, s.opts.ModelID, s.opts.Credential); err != nil {
		zlog.Error().Err(err).Str("model_id", s.opts.ModelID).Msg("error downloading model")
		return
	}
	zlog.Info().Str("model_id", s.opts.ModelID).Msg("model initialized and ready to serve")
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Done returns a channel that receives the serve loop's terminal error
// (nil after a clean shutdown). It is nil before Start.
func (s *Server) Done() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serveCh
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Run starts the server and blocks until ctx is canceled or serving fails,
// then shuts down gracefully.
func Run(ctx context.Context, opts Options) error {
	s := New(opts)
	if err := s.Start(ctx); err != nil {
		return err
	}
	select {
	case err := <-s.Done():
		return err
	case <-ctx.Done():
	}
	zlog.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return <-s.Done()
}
