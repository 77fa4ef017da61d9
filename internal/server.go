package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunOption configures the server runtime.
type RunOption func(*server)

// Address sets the HTTP server address. Default: ":8080".
func Address(addr string) RunOption {
	return func(s *server) {
		if addr != "" {
			s.http.Addr = addr
		}
	}
}

// Logger sets the server logger. Default: the application logger.
func Logger(l *slog.Logger) RunOption {
	return func(s *server) {
		if l != nil {
			s.logger = l
		}
	}
}

// ShutdownTimeout bounds the HTTP server shutdown and the shutdown hooks together.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(s *server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// StartupHook runs before the server accepts connections.
// A failing hook aborts the start.
func StartupHook(fn func(context.Context) error) RunOption {
	return func(s *server) {
		if fn != nil {
			s.startupHooks = append(s.startupHooks, fn)
		}
	}
}

// ShutdownHook runs after the server stopped, in registration order.
//
//	anvil.ShutdownHook(redis.Shutdown(client))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(s *server) {
		if fn != nil {
			s.shutdownHooks = append(s.shutdownHooks, fn)
		}
	}
}

// WithContext sets the base context; cancelling it shuts the server down.
func WithContext(ctx context.Context) RunOption {
	return func(s *server) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

type server struct {
	http            *http.Server
	logger          *slog.Logger
	baseCtx         context.Context
	startupHooks    []func(context.Context) error
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

func newServer(handler http.Handler, logger *slog.Logger, opts ...RunOption) *server {
	s := &server{
		http: &http.Server{
			Addr:              ":8080",
			Handler:           handler,
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			MaxHeaderBytes:    defaultMaxHeaderBytes,
		},
		logger:          logger,
		baseCtx:         context.Background(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// run executes the startup hooks, serves until the base context is cancelled
// or a signal arrives, then stops the server and runs the shutdown hooks.
func (s *server) run() error {
	ctx, stop := signal.NotifyContext(s.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i, hook := range s.startupHooks {
		if err := hook(ctx); err != nil {
			return fmt.Errorf("startup hook %d: %w", i, err)
		}
	}

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})
	return g.Wait()
}

// shutdown stops the HTTP server first, so in-flight requests can still use
// resources released by the hooks.
func (s *server) shutdown() error {
	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	start := time.Now()
	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range s.shutdownHooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			s.logger.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("shutdown completed with errors", slog.Duration("duration", time.Since(start)))
		return err
	}
	s.logger.Info("shutdown completed", slog.Duration("duration", time.Since(start)))
	return nil
}
