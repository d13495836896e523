// internal/daemon/shutdown.go
package daemon

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// CloseFunc allows using a function as an io.Closer.
type CloseFunc func() error

func (f CloseFunc) Close() error { return f() }

// ShutdownHandler closes registered services in reverse registration order
// when a termination signal arrives.
type ShutdownHandler struct {
	log      *zap.Logger
	mu       sync.Mutex
	services []namedService
	timeout  time.Duration
}

type namedService struct {
	name   string
	closer io.Closer
}

func NewShutdownHandler(log *zap.Logger, timeout time.Duration) *ShutdownHandler {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownHandler{log: log.Named("shutdown"), timeout: timeout}
}

// Add registers a service for shutdown.
func (sh *ShutdownHandler) Add(name string, closer io.Closer) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.services = append(sh.services, namedService{name: name, closer: closer})
}

// AddFunc registers a shutdown function.
func (sh *ShutdownHandler) AddFunc(name string, fn func() error) {
	sh.Add(name, CloseFunc(fn))
}

// HandleShutdown blocks until SIGINT or SIGTERM, then closes everything.
func (sh *ShutdownHandler) HandleShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	sh.log.Info("shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), sh.timeout)
	defer cancel()
	sh.Shutdown(ctx)
}

// Shutdown closes all registered services, newest first.
func (sh *ShutdownHandler) Shutdown(ctx context.Context) {
	sh.mu.Lock()
	services := make([]namedService, len(sh.services))
	copy(services, sh.services)
	sh.mu.Unlock()

	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]

		done := make(chan error, 1)
		go func() { done <- svc.closer.Close() }()

		select {
		case err := <-done:
			if err != nil {
				sh.log.Error("service shutdown failed",
					zap.String("service", svc.name), zap.Error(err))
			} else {
				sh.log.Info("service stopped", zap.String("service", svc.name))
			}
		case <-ctx.Done():
			sh.log.Error("shutdown timeout",
				zap.String("service", svc.name),
				zap.Error(fmt.Errorf("%s: %w", svc.name, ctx.Err())))
			return
		}
	}
	sh.log.Info("shutdown complete")
}
