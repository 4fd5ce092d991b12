// Package gateway is the webhook HTTP server fronting the dispatcher.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/impertio/talkbridge/internal/config"
	"github.com/impertio/talkbridge/internal/dispatch"
	"github.com/impertio/talkbridge/internal/hooks"
	"github.com/impertio/talkbridge/internal/logging"
)

// Server receives Talk webhook deliveries and hands them to the dispatcher.
type Server struct {
	cfg        config.ServerConfig
	log        *logging.Logger
	dispatcher *dispatch.Dispatcher
	hooks      *hooks.Manager

	startedAt  time.Time
	httpServer *http.Server
}

// New creates a gateway server.
func New(cfg config.ServerConfig, d *dispatch.Dispatcher, hm *hooks.Manager, log *logging.Logger) *Server {
	return &Server{
		cfg:        cfg,
		log:        log.Sub("gateway"),
		dispatcher: d,
		hooks:      hm,
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for webhook deliveries. It blocks until the
// context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	handler := withMiddleware(mux, s.log)

	// WriteTimeout must outlast the assistant invocation budget, since a
	// webhook delivery stays open for the whole exchange.
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Bind).
		Msg("webhook server ready")
	s.hooks.Emit(ctx, hooks.EventServerStart, map[string]any{
		"addr": ln.Addr().String(),
	})

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down webhook server")
		s.hooks.Emit(context.Background(), hooks.EventServerStop, nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
