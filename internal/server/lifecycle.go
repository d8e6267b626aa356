// Package server coordinates startup and graceful shutdown of the
// long-running pieces of the application: the HTTP listener and the
// database health loop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is one long-running component under lifecycle control.
type Service interface {
	// Start runs the service, blocking until it stops or fails.
	Start() error
	// Stop asks the service to shut down gracefully.
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle starts registered services together and stops them in reverse
// order on the first failure, signal, or context cancellation.
type Lifecycle struct {
	logger *zap.Logger

	mu       sync.Mutex
	services []namedService
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle creates an empty lifecycle manager.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Services start in registration order and
// stop in reverse.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts every registered service and blocks until SIGINT, SIGTERM, a
// service failure, or context cancellation, then stops them all.
//
// Postcondition: Every service's Stop has returned. Run returns the error of
// the service that triggered the shutdown, if any.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failures := make(chan error, len(l.services))
	for _, ns := range l.services {
		go func(ns namedService) {
			l.logger.Info("starting service", zap.String("service", ns.name))
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
				)
				failures <- fmt.Errorf("service %s: %w", ns.name, err)
				cancel()
			}
		}(ns)
	}
	l.logger.Info("all services started", zap.Int("count", len(l.services)))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	var cause error
	select {
	case sig := <-signals:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case cause = <-failures:
		l.logger.Error("service error, shutting down", zap.Error(cause))
	case <-ctx.Done():
		// Distinguish an external cancellation from a failure that
		// cancelled the context before its error was read.
		select {
		case cause = <-failures:
			l.logger.Error("service error, shutting down", zap.Error(cause))
		default:
			l.logger.Info("context cancelled, shutting down")
		}
	}

	l.shutdown()
	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(start)))
	return cause
}

// shutdown stops services in reverse registration order.
func (l *Lifecycle) shutdown() {
	for i := len(l.services) - 1; i >= 0; i-- {
		ns := l.services[i]
		l.logger.Info("stopping service", zap.String("service", ns.name))
		ns.service.Stop()
	}
}
