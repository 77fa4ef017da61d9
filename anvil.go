package anvil

import (
	"reflect"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/session"
)

// Type aliases - public API
type (
	// App wires the container, router, kernel and HTTP server together.
	App = internal.App

	// Container builds values by type and shares singletons.
	Container = internal.Container

	// Resolver resolves values from a container.
	Resolver = internal.Resolver

	// Args are named construction arguments passed to Make.
	Args = internal.Args

	// Router registers routes and dispatches matched requests.
	Router = internal.Router

	// RouteHandle refines a registered route.
	RouteHandle = internal.RouteHandle

	// Route is a compiled route template.
	Route = internal.Route

	// Request is the request passed through pipes and into actions.
	Request = internal.Request

	// Response is a fully materialized HTTP response.
	Response = internal.Response

	// JSONResponse is a result rendered as JSON.
	JSONResponse = internal.JSONResponse

	// RedirectResponse is a redirect result.
	RedirectResponse = internal.RedirectResponse

	// View is a result rendered to HTML.
	View = internal.View

	// ViewRenderer renders named templates.
	ViewRenderer = internal.ViewRenderer

	// Kernel runs requests through pipes and dispatches them.
	Kernel = internal.Kernel

	// Pipe processes a request and decides whether to continue.
	Pipe = internal.Pipe[*internal.Request]

	// PipeFunc adapts a function to Pipe.
	PipeFunc = internal.PipeFunc[*internal.Request]

	// Next continues the pipeline.
	Next = internal.Next[*internal.Request]

	// HandlerFunc is a closure route action.
	HandlerFunc = internal.HandlerFunc

	// FormRequest is embedded by validated request structs.
	FormRequest = internal.FormRequest

	// Authorizer is implemented by form requests that restrict access.
	Authorizer = internal.Authorizer

	// ServiceProvider registers bindings during boot.
	ServiceProvider = internal.ServiceProvider

	// Booter is implemented by providers that need every binding registered first.
	Booter = internal.Booter

	// ProviderFunc adapts a function to ServiceProvider.
	ProviderFunc = internal.ProviderFunc

	// ExceptionHandler turns errors into results.
	ExceptionHandler = internal.ExceptionHandler

	// ExceptionHandlerFunc adapts a function to ExceptionHandler.
	ExceptionHandlerFunc = internal.ExceptionHandlerFunc

	// HTTPError is an error carrying an HTTP status.
	HTTPError = internal.HTTPError

	// ValidationError is returned when a form request fails its rules.
	ValidationError = internal.ValidationError

	// BindingResolutionError reports a container failure.
	BindingResolutionError = internal.BindingResolutionError

	// RouteNotFoundError reports a request no route matched.
	RouteNotFoundError = internal.RouteNotFoundError

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// TemplateOption configures the template renderer.
	TemplateOption = internal.TemplateOption

	// Session is a user session.
	Session = session.Session

	// SessionStore persists sessions.
	SessionStore = session.Store
)

// Errors
var (
	ErrCircularDependency    = internal.ErrCircularDependency
	ErrNotInstantiable       = internal.ErrNotInstantiable
	ErrUnresolvableParameter = internal.ErrUnresolvableParameter
	ErrRouteNotNamed         = internal.ErrRouteNotNamed
	ErrViewNotFound          = internal.ErrViewNotFound
)

// New creates and boots an application.
//
// Example:
//
//	app, err := anvil.New(
//	    anvil.WithProviders(&AppProvider{}),
//	    anvil.WithRoutes(func(r *anvil.Router) {
//	        r.Get("/hello/{name}", anvil.Action[*Greeter]("Hello")).Name("hello")
//	    }),
//	    anvil.WithSession(session.NewMemoryStore()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = app.Run(anvil.Address(":8080"))
func New(opts ...Option) (*App, error) {
	return internal.New(opts...)
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return internal.NewContainer()
}

// Container helpers

// Key returns the container key for T.
func Key[T any]() reflect.Type {
	return internal.Key[T]()
}

// Bind registers a transient factory for T.
func Bind[T any](c *Container, fn func(r Resolver, args Args) (T, error)) {
	internal.Bind(c, fn)
}

// BindTo resolves Abstract by building Concrete.
func BindTo[Abstract, Concrete any](c *Container) {
	internal.BindTo[Abstract, Concrete](c)
}

// Singleton registers a shared factory for T and builds it immediately.
func Singleton[T any](c *Container, fn func(r Resolver, args Args) (T, error)) error {
	return internal.Singleton(c, fn)
}

// Instance stores an already built value for T.
func Instance[T any](c *Container, v T) {
	internal.Instance(c, v)
}

// Make resolves T.
func Make[T any](r Resolver, args ...Args) (T, error) {
	return internal.Make[T](r, args...)
}

// MustMake resolves T and panics on failure.
func MustMake[T any](r Resolver, args ...Args) T {
	return internal.MustMake[T](r, args...)
}

// Action names method on controller C. The controller is built by the
// container for every request.
func Action[C any](method string) internal.ControllerAction {
	return internal.ActionFor[C](method)
}

// Results

// NewResponse creates a raw response.
func NewResponse(status int, body []byte) *Response {
	return internal.NewResponse(status, body)
}

// JSON creates a JSON result.
func JSON(status int, data any) *JSONResponse {
	return internal.JSON(status, data)
}

// NewView creates a view of a named template.
func NewView(name string, data map[string]any) *View {
	return internal.NewView(name, data)
}

// ComponentView creates a view of a templ component.
func ComponentView(c templ.Component) *View {
	return internal.ComponentView(c)
}

// Redirect redirects to a path or URL.
func Redirect(location string) *RedirectResponse {
	return internal.Redirect(location)
}

// RedirectRoute redirects to a named route.
func RedirectRoute(name string, params map[string]any) *RedirectResponse {
	return internal.RedirectRoute(name, params)
}

// Back redirects to the previous page.
func Back() *RedirectResponse {
	return internal.Back()
}

// HTTP errors

// NewHTTPError creates an error with a status code.
func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

// ErrBadRequest creates a 400 error.
func ErrBadRequest(message string) *HTTPError {
	return internal.ErrBadRequest(message)
}

// ErrForbidden creates a 403 error.
func ErrForbidden(message string) *HTTPError {
	return internal.ErrForbidden(message)
}

// ErrNotFound creates a 404 error.
func ErrNotFound(message string) *HTTPError {
	return internal.ErrNotFound(message)
}

// IsHTTPError reports whether err wraps an *HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}
