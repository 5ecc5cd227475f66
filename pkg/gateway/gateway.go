// Package gateway implements the HTTP front door: request validation,
// dispatch to the identity provider, and normalization of every failure path
// into one external error envelope.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hgm-king/ostrich-api/internal/version"
	"github.com/hgm-king/ostrich-api/pkg/config"
	"github.com/hgm-king/ostrich-api/pkg/provider"
)

// Service is the authentication gateway service.
type Service interface {
	// Start binds the listener and serves until the context is cancelled.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the server.
	Stop() error
}

// service implements the Service interface.
type service struct {
	log        logrus.FieldLogger
	cfg        *config.Config
	provider   provider.Client
	limiter    *rateLimiter
	httpServer *http.Server
	mu         sync.Mutex
	done       chan struct{}
	running    bool
}

// NewService creates a new gateway service. Config and the provider client
// are shared read-only across all request handling.
func NewService(log logrus.FieldLogger, cfg *config.Config, client provider.Client) Service {
	s := &service{
		log:      log.WithField("component", "gateway"),
		cfg:      cfg,
		provider: client,
		done:     make(chan struct{}),
	}

	if cfg.RateLimit.Enabled {
		s.limiter = newRateLimiter(log, cfg.RateLimit)
	}

	return s
}

// Start binds the listener and serves over plain HTTP or TLS depending on
// config. The transport is decided once here and never changes for the
// process lifetime; a bind failure is fatal.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()

		return errors.New("gateway already running")
	}

	s.running = true
	s.mu.Unlock()

	addr := s.cfg.Server.ListenAddr()

	s.log.WithFields(logrus.Fields{
		"address": addr,
		"tls":     s.cfg.Server.TLS.Enabled,
		"version": version.Version,
	}).Info("Starting authentication gateway")

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding to %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.buildHTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		if s.cfg.Server.TLS.Enabled {
			s.log.Info("TLS enabled")
			errCh <- s.httpServer.ServeTLS(listener, s.cfg.Server.TLS.CertPath, s.cfg.Server.TLS.KeyPath)
		} else {
			errCh <- s.httpServer.Serve(listener)
		}
	}()

	select {
	case <-ctx.Done():
		return s.httpServer.Shutdown(context.Background())
	case <-s.done:
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}
}

// Stop gracefully shuts down the server.
func (s *service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.log.Info("Stopping authentication gateway")

	close(s.done)
	s.running = false

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("Failed to shutdown HTTP server")
		}
	}

	s.log.Info("Authentication gateway stopped")

	return nil
}

// buildHTTPHandler composes the dispatch table with the cross-cutting
// policy. Route order: health first, then the auth operations; anything
// unmatched, by path or method, funnels into the not-found rejection.
func (s *service) buildHTTPHandler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(corsHeaders)
	r.Use(s.recoverer)

	r.Get("/health", s.handle(opHealth, s.health))

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Handler)
		}

		r.Post("/login", s.handle(opLogin, s.login))
		r.Post("/sign-up", s.handle(opSignUp, s.signUp))
		r.Post("/verify", s.handle(opVerify, s.verify))
		r.Post("/resend-code", s.handle(opResendCode, s.resendCode))
	})

	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)

	return r
}

// notFound is the router fallback: a wrong method on a known path is a
// routing miss just like an unknown path, never a 405 or 500.
func (s *service) notFound(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(s.log, w, notFoundEnvelope())
}

// Compile-time interface compliance check.
var _ Service = (*service)(nil)
