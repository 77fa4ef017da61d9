package internal

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/health"
	"github.com/dmitrymomot/anvil/pkg/session"
)

// Option configures the application.
type Option func(*App)

// WithProviders registers service providers. Register runs in order before
// the router and kernel are built; Boot runs after.
func WithProviders(providers ...ServiceProvider) Option {
	return func(a *App) {
		a.providers = append(a.providers, providers...)
	}
}

// WithRoutes adds route definitions, run once the router exists.
//
// Example:
//
//	anvil.WithRoutes(func(r *anvil.Router) {
//	    r.Get("/hello/{name}", anvil.Action[*Greeter]("Show")).Name("hello")
//	})
func WithRoutes(fns ...func(r *Router)) Option {
	return func(a *App) {
		a.routes = append(a.routes, fns...)
	}
}

// WithPipes adds global pipes, run for every matched request in order.
func WithPipes(pipes ...any) Option {
	return func(a *App) {
		a.pipes = append(a.pipes, pipes...)
	}
}

// WithRoutePipes adds pipes to a named group that routes opt into with Pipes(name).
func WithRoutePipes(name string, pipes ...any) Option {
	return func(a *App) {
		a.routePipes[name] = append(a.routePipes[name], pipes...)
	}
}

// WithSession enables sessions backed by store.
// Sessions start before the route pipes and are saved before the response is written.
//
// Example:
//
//	anvil.WithSession(session.NewPostgresStore(pool),
//	    anvil.WithSessionCookieName("__sid"),
//	    anvil.WithSessionSecure(true),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessions = NewSessionManager(store, opts...)
	}
}

// WithViews renders named views from html/template files in fsys.
func WithViews(fsys fs.FS, opts ...TemplateOption) Option {
	return func(a *App) {
		a.renderer = NewTemplateRenderer(fsys, opts...)
	}
}

// WithRenderer sets a custom view renderer.
func WithRenderer(r ViewRenderer) Option {
	return func(a *App) {
		a.renderer = r
	}
}

// WithExceptionHandler replaces the default exception handler.
func WithExceptionHandler(h ExceptionHandler) Option {
	return func(a *App) {
		if h != nil {
			a.exceptions = h
		}
	}
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithConfig binds a configuration repository in the container.
func WithConfig(repo *config.Repository) Option {
	return func(a *App) {
		a.config = repo
	}
}

// WithDevelopment shows server error details in responses.
func WithDevelopment(on bool) Option {
	return func(a *App) {
		a.development = on
	}
}

// HealthOption configures the health endpoints.
type HealthOption func(*healthConfig)

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, check health.CheckFunc) HealthOption {
	return func(cfg *healthConfig) {
		cfg.checks[name] = check
	}
}

// WithHealthPaths overrides the default /health/live and /health/ready paths.
func WithHealthPaths(liveness, readiness string) HealthOption {
	return func(cfg *healthConfig) {
		if liveness != "" {
			cfg.livenessPath = liveness
		}
		if readiness != "" {
			cfg.readinessPath = readiness
		}
	}
}

// WithHealthChecks serves liveness and readiness probes outside the kernel.
//
// Example:
//
//	anvil.WithHealthChecks(
//	    anvil.WithReadinessCheck("db", db.Healthcheck(pool)),
//	    anvil.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

// WithStaticFiles serves files from subDir of fsys under pattern.
// Directory listings are disabled.
//
//	//go:embed public
//	var assets embed.FS
//
//	anvil.WithStaticFiles("/static/", assets, "public")
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}
		files := http.StripPrefix(strings.TrimSuffix(pattern, "/"), http.FileServerFS(subFS))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			files.ServeHTTP(w, r)
		})

		a.staticRoutes = append(a.staticRoutes, staticRoute{handler: handler, pattern: pattern})
	}
}
