package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/health"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Default health check paths.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// ServiceProvider registers bindings in the container.
type ServiceProvider interface {
	Register(c *Container) error
}

// Booter is implemented by providers that need every binding in place,
// for example to register routes or resolve services.
type Booter interface {
	Boot(c *Container) error
}

// ProviderFunc adapts a function to ServiceProvider.
type ProviderFunc func(c *Container) error

func (f ProviderFunc) Register(c *Container) error { return f(c) }

// App wires the container, router and kernel behind a chi mux that also
// serves health probes and static files. It is immutable after New.
type App struct {
	container    *Container
	router       *Router
	kernel       *Kernel
	mux          chi.Router
	logger       *slog.Logger
	config       *config.Repository
	sessions     *SessionManager
	renderer     ViewRenderer
	exceptions   ExceptionHandler
	healthConfig *healthConfig
	routePipes   map[string][]any
	providers    []ServiceProvider
	routes       []func(r *Router)
	pipes        []any
	staticRoutes []staticRoute
	development  bool
}

type staticRoute struct {
	handler http.Handler
	pattern string
}

type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// New builds an application.
//
// The container gets the logger, config repository, exception handler,
// view renderer and session manager as instances, then providers register
// their bindings, the router and kernel are resolved as singletons, providers
// boot, route definitions run and the container graph is validated.
func New(opts ...Option) (*App, error) {
	a := &App{
		container:  NewContainer(),
		logger:     slog.New(slog.DiscardHandler),
		routePipes: make(map[string][]any),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.boot(); err != nil {
		return nil, err
	}
	a.setupMux()
	return a, nil
}

func (a *App) boot() error {
	c := a.container

	if a.config == nil {
		a.config, _ = config.New(nil)
	}
	if a.exceptions == nil {
		a.exceptions = NewExceptionHandler(a.logger, a.development)
	}
	Instance(c, a.logger)
	Instance(c, a.config)
	Instance(c, a.exceptions)
	Instance(c, a.renderer)
	if a.sessions != nil {
		a.sessions.SetLogger(a.logger)
		Instance(c, a.sessions)
	}

	for _, p := range a.providers {
		if err := p.Register(c); err != nil {
			return fmt.Errorf("register %T: %w", p, err)
		}
	}

	if err := c.Singleton(Key[*Router](), NewRouter); err != nil {
		return err
	}
	if err := c.Singleton(Key[*Kernel](), NewKernel); err != nil {
		return err
	}
	a.router = MustMake[*Router](c)
	a.kernel = MustMake[*Kernel](c)

	for _, p := range a.providers {
		if b, ok := p.(Booter); ok {
			if err := b.Boot(c); err != nil {
				return fmt.Errorf("boot %T: %w", p, err)
			}
		}
	}

	for _, fn := range a.routes {
		fn(a.router)
	}

	a.kernel.Use(a.pipes...)
	for name, pipes := range a.routePipes {
		a.kernel.RoutePipes(name, pipes...)
	}
	if a.sessions != nil {
		a.kernel.EnableSessions(a.sessions)
	}

	return c.Validate()
}

func (a *App) setupMux() {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)

	for _, sr := range a.staticRoutes {
		mux.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		mux.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		mux.Get(a.healthConfig.readinessPath, health.ReadinessHandler(a.healthConfig.checks, health.WithLogger(a.logger)))
	}

	mux.Handle("/*", a.kernel)
	a.mux = mux
}

// ServeHTTP serves a request through the mux.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Container returns the application container.
func (a *App) Container() *Container { return a.container }

// Router returns the router routes are registered on.
func (a *App) Router() *Router { return a.router }

// Kernel returns the request kernel.
func (a *App) Kernel() *Kernel { return a.kernel }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Config returns the configuration repository.
func (a *App) Config() *config.Repository { return a.config }

// Run serves the app until SIGINT or SIGTERM, then shuts down gracefully.
//
// Example:
//
//	err := app.Run(
//	    anvil.Address(":8080"),
//	    anvil.ShutdownHook(db.Shutdown(pool)),
//	)
func (a *App) Run(opts ...RunOption) error {
	return newServer(a, a.logger, opts...).run()
}

// Handle runs a request through the kernel without the mux.
// It is meant for tests and for embedding the kernel elsewhere.
func (a *App) Handle(ctx context.Context, r *http.Request) (*Response, error) {
	return a.kernel.Handle(NewRequest(r.WithContext(ctx)))
}
