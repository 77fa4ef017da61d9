package anvil

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/health"
)

// App options

// WithProviders registers service providers, run in order during boot.
func WithProviders(providers ...ServiceProvider) Option {
	return internal.WithProviders(providers...)
}

// WithRoutes registers route declarations, run after providers boot.
func WithRoutes(fns ...func(r *Router)) Option {
	return internal.WithRoutes(fns...)
}

// WithPipes adds global pipes. Entries are Pipe values, pipe functions or
// reflect.Type keys resolved per request.
func WithPipes(pipes ...any) Option {
	return internal.WithPipes(pipes...)
}

// WithRoutePipes defines a named route pipe group.
func WithRoutePipes(name string, pipes ...any) Option {
	return internal.WithRoutePipes(name, pipes...)
}

// WithSession enables sessions backed by store.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithViews renders named views from templates in fsys.
func WithViews(fsys fs.FS, opts ...TemplateOption) Option {
	return internal.WithViews(fsys, opts...)
}

// WithRenderer sets a custom view renderer.
func WithRenderer(r ViewRenderer) Option {
	return internal.WithRenderer(r)
}

// WithExceptionHandler replaces the default exception handler.
func WithExceptionHandler(h ExceptionHandler) Option {
	return internal.WithExceptionHandler(h)
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithConfig sets the configuration repository bound in the container.
func WithConfig(repo *config.Repository) Option {
	return internal.WithConfig(repo)
}

// WithDevelopment shows error details in responses.
func WithDevelopment(on bool) Option {
	return internal.WithDevelopment(on)
}

// WithStaticFiles serves files from fsys under pattern.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	anvil.New(
//	    anvil.WithStaticFiles("/static/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithHealthChecks enables liveness and readiness endpoints.
//
// Example:
//
//	anvil.WithHealthChecks(
//	    anvil.WithReadinessCheck("db", db.Healthcheck(pool)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, check health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, check)
}

// WithHealthPaths overrides the health endpoint paths.
func WithHealthPaths(liveness, readiness string) HealthOption {
	return internal.WithHealthPaths(liveness, readiness)
}

// Session options

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

// WithSessionMaxAge sets the session lifetime.
func WithSessionMaxAge(d time.Duration) SessionOption {
	return internal.WithSessionMaxAge(d)
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return internal.WithSessionPath(path)
}

// WithSessionSecure sets the Secure flag on the session cookie.
func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

// WithSessionSameSite sets the SameSite attribute of the session cookie.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// Template options

// WithTemplateExt sets the template file extension.
func WithTemplateExt(ext string) TemplateOption {
	return internal.WithTemplateExt(ext)
}

// WithTemplateFuncs adds template functions.
func WithTemplateFuncs(funcs template.FuncMap) TemplateOption {
	return internal.WithTemplateFuncs(funcs)
}

// WithTemplateReload re-parses templates on every render.
func WithTemplateReload() TemplateOption {
	return internal.WithTemplateReload()
}

// Run options

// Address sets the listen address. Default: ":8080".
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the logger for server lifecycle events.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets how long in-flight requests may take to finish.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook runs fn before the server starts listening.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook runs fn after the server stops accepting requests.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a parent context. Cancelling it shuts the server down.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}
