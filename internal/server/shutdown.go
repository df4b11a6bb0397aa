package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"superstore-analytics/internal/config"
)

const hookTimeout = 10 * time.Second

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

// GracefulServer runs an http.Server until SIGINT, SIGTERM or context
// cancellation, then drains it and runs the registered hooks.
type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	cfg    config.ServerConfig

	mu    sync.Mutex
	hooks []shutdownHook
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, cfg config.ServerConfig) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		cfg:    cfg,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(name string, fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, shutdownHook{name: name, fn: fn})
}

// Run blocks until the server fails or a shutdown is requested.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		gs.logger.Info("starting server",
			"addr", gs.server.Addr,
			"read_timeout", gs.cfg.ReadTimeout,
			"write_timeout", gs.cfg.WriteTimeout,
		)
		serverErrors <- gs.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		gs.logger.Info("shutdown requested", "cause", context.Cause(ctx))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.cfg.ShutdownTimeout)
	defer cancel()
	return gs.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, waits for in-flight ones, then runs
// every hook concurrently. All hook errors are returned joined.
func (gs *GracefulServer) Shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown", "timeout", gs.cfg.ShutdownTimeout)

	var errs []error
	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		errs = append(errs, fmt.Errorf("http server: %w", err))
	} else {
		gs.logger.Info("HTTP server stopped gracefully")
	}

	gs.mu.Lock()
	hooks := append([]shutdownHook(nil), gs.hooks...)
	gs.mu.Unlock()

	hookErrs := make([]error, len(hooks))
	var g errgroup.Group
	for i, hook := range hooks {
		g.Go(func() error {
			hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
			defer cancel()

			gs.logger.Debug("executing shutdown hook", "hook", hook.name)
			if err := hook.fn(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed", "hook", hook.name, "error", err)
				hookErrs[i] = fmt.Errorf("shutdown hook %s: %w", hook.name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	errs = append(errs, hookErrs...)
	if err := errors.Join(errs...); err != nil {
		return err
	}
	gs.logger.Info("graceful shutdown completed")
	return nil
}
