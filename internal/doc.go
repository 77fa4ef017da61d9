// Package internal implements the anvil framework. Import
// "github.com/dmitrymomot/anvil" instead, which re-exports the public API.
//
// # Request lifecycle
//
// The App mounts the Kernel on a chi mux. For every request the Kernel:
//
//   - finds the first route matching the method and path, or fails with
//     RouteNotFoundError without running any pipes
//   - sends the request through the global pipes, the session pipe and the
//     pipes of each route pipe group named by the route
//   - dispatches to the route action: a closure, or a controller method whose
//     controller and arguments are built by the Container
//   - converts the result into a Response (views are rendered, redirects
//     flash input and errors into the session)
//   - renders errors through the ExceptionHandler
//   - terminates the request: flash data delivered by this request is
//     cleared and the session is saved before the response is written
//
// # Container
//
// Bindings are keyed by reflect.Type. A binding is a Factory, a constructor
// function whose parameters are resolved by type, a reflect.Type to build,
// or a live instance. Unbound struct types are autowired through fields
// tagged `inject`. Validate walks constructor parameters and tagged fields
// to report cycles before the first request.
//
// # Pipes
//
// A pipe entry is a Pipe[T], a func(T, Next[T]) (any, error), or a
// reflect.Type resolved from the Container when the pipeline runs.
package internal
