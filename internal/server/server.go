// Package server accepts raw TCP connections and runs one worker per
// connection: read, parse, route, dispatch, respond, close.
package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"kvhttpd/internal/cache"
	"kvhttpd/internal/errors"
	"kvhttpd/internal/protocol"
	"kvhttpd/internal/registry"
	"kvhttpd/internal/slogutil"
)

const maxAcceptDelay = time.Second

// Config holds listener settings.
type Config struct {
	Host            string
	Port            int
	MaxRequestBytes int
}

// Server owns the listener and the state shared by all workers.
type Server struct {
	cfg      Config
	registry *registry.Registry
	logger   *slog.Logger

	// cacheMu is held for the whole handler call, so handlers touching the
	// cache never run concurrently.
	cacheMu sync.Mutex
	cache   *cache.Cache

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// New creates a server dispatching to reg with c as the shared cache.
func New(cfg Config, reg *registry.Registry, c *cache.Cache, logger *slog.Logger) *Server {
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = protocol.DefaultMaxRequestBytes
	}
	if c == nil {
		c = cache.New()
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Server{
		cfg:      cfg,
		registry: reg,
		cache:    c,
		logger:   logger,
	}
}

// ListenAndServe binds cfg.Host:cfg.Port and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New(errors.BindFailed, "failed to bind "+addr, err)
	}

	s.logger.Info("Now listening",
		"host", s.cfg.Host,
		"port", s.cfg.Port,
	)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed.
// The registry is sealed before the first accept. Serve does not wait for
// in-flight workers; use Shutdown for that.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.registry.Seal()

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				return nil
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(delay*2, maxAcceptDelay)
			}
			s.logger.Warn("Accept failed",
				"error", err.Error(),
				"retryIn", delay.String(),
			)
			time.Sleep(delay)
			continue
		}
		delay = 0

		accepted := time.Now()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn, accepted)
		}()
	}
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown closes the listener and waits for in-flight workers until ctx is
// done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !stderrors.Is(err, net.ErrClosed) {
			s.logger.Warn("Failed to close listener", "error", err.Error())
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithCache runs fn while holding the cache lock.
func (s *Server) WithCache(fn func(c *cache.Cache)) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	fn(s.cache)
}
