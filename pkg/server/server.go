// Package server runs an http.Handler with graceful shutdown, mirroring
// the teacher's ServerManager.StartWithGracefulShutdown pattern.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/productcatalog/platform/pkg/mlog"
)

// Server wraps an http.Server bound to an address, with a bounded
// shutdown grace period.
type Server struct {
	httpServer *http.Server
	logger     mlog.Logger
}

// New builds a Server serving handler on address.
func New(address string, handler http.Handler, logger mlog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run starts listening and blocks until SIGINT/SIGTERM, then drains
// in-flight requests for up to 15 seconds before returning.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		s.logger.Infof("server: listening on %s", s.httpServer.Addr)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
