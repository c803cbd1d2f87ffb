// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-biometric.
//
// go-biometric is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package server wires configuration, storage, crypto, and the biometric
// service into a runnable HTTP daemon.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-biometric/internal/config"
	"github.com/jeremyhahn/go-biometric/pkg/biometric"
	biometrichttp "github.com/jeremyhahn/go-biometric/pkg/biometric/http"
	"github.com/jeremyhahn/go-biometric/pkg/blob"
	"github.com/jeremyhahn/go-biometric/pkg/ceremony"
	"github.com/jeremyhahn/go-biometric/pkg/credstore"
	"github.com/jeremyhahn/go-biometric/pkg/crypto/envelope"
	"github.com/jeremyhahn/go-biometric/pkg/health"
	"github.com/jeremyhahn/go-biometric/pkg/logging"
	"github.com/jeremyhahn/go-biometric/pkg/metrics"
	"github.com/jeremyhahn/go-biometric/pkg/ratelimit"
	"github.com/jeremyhahn/go-biometric/pkg/session"
	"github.com/jeremyhahn/go-biometric/pkg/storage"
	"github.com/jeremyhahn/go-biometric/pkg/storage/file"
	"github.com/jeremyhahn/go-biometric/pkg/storage/memory"
)

// Server is the biometric authentication daemon.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	service *biometric.Service
	backend storage.Backend
	cipher  envelope.Cipher
	health  *health.Checker

	httpServer *http.Server
	collector  *metrics.ResourceCollector
	limiter    *ratelimit.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options carry dependencies the configuration cannot express.
type Options struct {
	// Authenticator bridges platform ceremonies (required). Production
	// deployments supply a platform adapter; tests use the mock.
	Authenticator ceremony.Authenticator
}

// New creates a server from the configuration, building the storage
// backend, envelope ciphers, session manager, and biometric service.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Authenticator == nil {
		return nil, fmt.Errorf("server: authenticator is required")
	}

	slogger := setupLogger(cfg.Logging)
	logger := logging.FromSlog(slogger, cfg.Logging.Level == "debug")

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config: cfg,
		logger: slogger,
		health: health.NewChecker(),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := s.initializeBackend(); err != nil {
		cancel()
		return nil, err
	}
	if err := s.initializeService(logger, opts.Authenticator); err != nil {
		cancel()
		s.backend.Close()
		return nil, err
	}
	s.initializeHealth()

	s.limiter = ratelimit.New(&ratelimit.Config{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})

	return s, nil
}

// setupLogger builds the process slog logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// initializeBackend selects the persistence backend from the config.
func (s *Server) initializeBackend() error {
	switch s.config.Storage.Backend {
	case "file":
		backend, err := file.New(s.config.Storage.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize file storage: %w", err)
		}
		s.backend = backend
		s.logger.Info("Storage initialized", "backend", "file", "path", s.config.Storage.Path)
	default:
		s.backend = memory.New()
		s.logger.Info("Storage initialized", "backend", "memory")
	}
	return nil
}

// initializeService builds the crypto, session, credential, and blob
// layers and assembles the biometric service.
func (s *Server) initializeService(logger *logging.Logger, authenticator ceremony.Authenticator) error {
	passphrase, err := s.config.ResolvePassphrase()
	if err != nil {
		return err
	}

	envCfg := &envelope.Config{
		Passphrase: passphrase,
		Salt:       []byte(s.config.Crypto.Salt),
		Iterations: s.config.Crypto.Iterations,
	}
	s.cipher = envelope.NewCipher(envelope.Algorithm(s.config.Crypto.Algorithm), envCfg, logger)

	sessions, err := session.NewManager(session.ManagerParams{
		Backend:    s.backend,
		Cipher:     s.cipher,
		Logger:     logger,
		StorageKey: s.config.Session.StorageKey,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	creds, err := credstore.New(s.backend)
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	// Per-credential keyed envelopes when a passphrase is configured,
	// otherwise the same degraded cipher the sessions use.
	var ciphers envelope.CipherFactory
	if passphrase != "" {
		factory, err := envelope.NewKeyedFactory(envCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize cipher factory: %w", err)
		}
		ciphers = factory
	} else {
		ciphers = envelope.NewStaticFactory(s.cipher)
	}

	blobs, err := blob.NewManager(blob.ManagerParams{
		Backend: s.backend,
		Ciphers: ciphers,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize blob manager: %w", err)
	}

	var tokens biometric.TokenGenerator
	if jwtCfg := s.config.Auth.JWT; jwtCfg != nil {
		generator, err := biometric.NewDefaultJWTGenerator(&biometric.JWTGeneratorConfig{
			SigningKey: []byte(jwtCfg.Secret),
			Issuer:     jwtCfg.Issuer,
			Audience:   jwtCfg.Audience,
			KeyID:      jwtCfg.KeyID,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize JWT generator: %w", err)
		}
		tokens = generator
	}

	service, err := biometric.NewService(biometric.ServiceParams{
		Defaults:        s.config.Ceremony,
		Authenticator:   authenticator,
		Credentials:     creds,
		Sessions:        sessions,
		Blobs:           blobs,
		Tokens:          tokens,
		SessionDuration: time.Duration(s.config.Session.DurationSeconds) * time.Second,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize biometric service: %w", err)
	}
	s.service = service
	return nil
}

// initializeHealth registers readiness checks for the storage backend
// and the envelope cipher.
func (s *Server) initializeHealth() {
	s.health.RegisterCheck("storage", func(ctx context.Context) health.CheckResult {
		if _, err := s.backend.List(""); err != nil {
			return health.CheckResult{
				Name:   "storage",
				Status: health.StatusUnhealthy,
				Error:  err.Error(),
			}
		}
		return health.CheckResult{Name: "storage", Status: health.StatusHealthy}
	})
	s.health.RegisterCheck("envelope", func(ctx context.Context) health.CheckResult {
		if !s.cipher.Confidential() {
			return health.CheckResult{
				Name:    "envelope",
				Status:  health.StatusDegraded,
				Message: "envelope encryption disabled, persisting without confidentiality",
			}
		}
		return health.CheckResult{Name: "envelope", Status: health.StatusHealthy}
	})
}

// Service exposes the biometric service, used by the CLI and tests.
func (s *Server) Service() *biometric.Service {
	return s.service
}

// Health exposes the health checker.
func (s *Server) Health() *health.Checker {
	return s.health
}

// Router builds the chi router with the biometric API, probes, and the
// optional Prometheus endpoint.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.HTTPMiddleware)

	handler := biometrichttp.NewHandler(s.service).WithLogger(s.logger)
	r.Route(s.config.Server.APIPrefix, func(api chi.Router) {
		api.Use(ratelimit.Middleware(s.limiter))
		biometrichttp.MountChi(api, handler)
	})

	r.Get("/livez", s.handleProbe(func(ctx context.Context) (health.Status, any) {
		result := s.health.Live(ctx)
		return result.Status, result
	}))
	r.Get("/readyz", s.handleProbe(func(ctx context.Context) (health.Status, any) {
		results := s.health.Ready(ctx)
		return health.AggregateStatus(results), results
	}))
	r.Get("/startupz", s.handleProbe(func(ctx context.Context) (health.Status, any) {
		result := s.health.Startup(ctx)
		return result.Status, result
	}))

	if s.config.Metrics.Enabled {
		r.Handle(s.config.Metrics.Path, promhttp.Handler())
	}

	return r
}

// handleProbe renders a probe result as JSON with 200/503 semantics.
func (s *Server) handleProbe(probe func(ctx context.Context) (health.Status, any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := probe(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status == health.StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			s.logger.Error("Failed to encode probe response", slog.Any("error", err))
		}
	}
}

// Start begins serving HTTP (or HTTPS when TLS is enabled) and blocks
// until the listener stops.
func (s *Server) Start() error {
	if s.config.Metrics.Enabled {
		metrics.Enable()
		s.collector = metrics.StartResourceCollector(s.ctx, 30*time.Second)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.health.MarkStarted()

	if s.config.TLS.Enabled {
		tlsConfig, err := s.buildTLSConfig()
		if err != nil {
			return err
		}
		s.httpServer.TLSConfig = tlsConfig
		s.logger.Info("Starting HTTPS server", "address", addr, "api_prefix", s.config.Server.APIPrefix)
		if err := s.httpServer.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}

	s.logger.Info("Starting HTTP server", "address", addr, "api_prefix", s.config.Server.APIPrefix)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// buildTLSConfig builds a crypto/tls.Config from the TLS configuration.
func (s *Server) buildTLSConfig() (*tls.Config, error) {
	if !s.config.TLS.Enabled {
		return nil, fmt.Errorf("TLS is not enabled in configuration")
	}
	return &tls.Config{
		MinVersion: parseTLSVersion(s.config.TLS.MinVersion),
	}, nil
}

// parseTLSVersion maps the config string to a tls constant, defaulting
// to TLS 1.2.
func parseTLSVersion(version string) uint16 {
	switch version {
	case "TLS1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

// Shutdown gracefully stops the HTTP listener and closes the backend.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down server...")
	s.health.MarkNotStarted()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", slog.Any("error", err))
		}
	}

	if s.collector != nil {
		s.collector.Stop()
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}

	s.cancel()
	s.wg.Wait()

	if err := s.backend.Close(); err != nil {
		s.logger.Error("Storage backend close error", slog.Any("error", err))
		return err
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx
}
