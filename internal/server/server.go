// Package server owns the process lifecycle of the central HTTP server:
// startup, signal handling and graceful shutdown.
package server

import (
	"context"
	nethttp "net/http"
	"os/signal"
	"syscall"

	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/handler/http"
	"github.com/gramseva/idverify/internal/logger"
)

// Server defines the common lifecycle contract for transport servers
// managed by this package.
//
// Implementations are expected to block in [RunServer] until shutdown is
// requested and to release resources in [Shutdown].
type Server interface {
	// RunServer starts serving requests and blocks until the server stops.
	RunServer()

	// Shutdown gracefully stops the server and frees associated resources.
	Shutdown()
}

type server struct {
	httpServer *httpServer
	logger     *logger.Logger
}

func NewServer(handler *http.Handler, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")

	if cfg.HTTPAddress == "" {
		return nil, errNoListenAddress
	}

	return &server{
		httpServer: newHTTPServer(handler.Init(), cfg, logger),
		logger:     logger,
	}, nil
}

// NewKioskServer wraps an already-routed handler for the agent's
// kiosk-facing API, listening on cfg.KioskAddress. Lifecycle is the
// same as the central server's.
func NewKioskServer(handler nethttp.Handler, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating kiosk server...")

	if cfg.KioskAddress == "" {
		return nil, errNoListenAddress
	}

	kioskCfg := cfg
	kioskCfg.HTTPAddress = cfg.KioskAddress

	return &server{
		httpServer: newHTTPServer(handler, kioskCfg, logger),
		logger:     logger,
	}, nil
}

func (s *server) RunServer() {
	idleConnectionsClosed := make(chan struct{})
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	// listen for stop signals
	go func() {
		<-ctx.Done()
		s.Shutdown()
		close(idleConnectionsClosed)
	}()

	s.logger.Info().Msg("Launching HTTP server")
	go s.httpServer.RunServer()

	<-idleConnectionsClosed
	s.logger.Info().Msg("server Shutdown gracefully")
}

func (s *server) Shutdown() {
	if s.httpServer != nil {
		s.httpServer.Shutdown()
	}
}
