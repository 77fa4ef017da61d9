package internal

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Router registers routes and dispatches matched requests to their actions.
// Registration panics on malformed templates or unsupported actions,
// since both are programming errors found at startup.
type Router struct {
	container *Container
	routes    *RouteCollection
	prefix    string
	pipes     []string
}

// NewRouter creates a router that builds controllers through c.
func NewRouter(c *Container) *Router {
	return &Router{
		container: c,
		routes:    NewRouteCollection(),
	}
}

// Get registers action for GET requests to uri.
func (r *Router) Get(uri string, action any) *RouteHandle {
	return r.Handle(http.MethodGet, uri, action)
}

// Post registers action for POST requests to uri.
func (r *Router) Post(uri string, action any) *RouteHandle {
	return r.Handle(http.MethodPost, uri, action)
}

// Put registers action for PUT requests to uri.
func (r *Router) Put(uri string, action any) *RouteHandle {
	return r.Handle(http.MethodPut, uri, action)
}

// Patch registers action for PATCH requests to uri.
func (r *Router) Patch(uri string, action any) *RouteHandle {
	return r.Handle(http.MethodPatch, uri, action)
}

// Delete registers action for DELETE requests to uri.
func (r *Router) Delete(uri string, action any) *RouteHandle {
	return r.Handle(http.MethodDelete, uri, action)
}

// Options registers action for OPTIONS requests to uri.
func (r *Router) Options(uri string, action any) *RouteHandle {
	return r.Handle(http.MethodOptions, uri, action)
}

// Handle registers action for method and uri.
// The action is a HandlerFunc, a func(*Request) (any, error) or a ControllerAction.
func (r *Router) Handle(method, uri string, action any) *RouteHandle {
	act, err := toAction(action)
	if err != nil {
		panic(err)
	}
	route, err := NewRoute(method, joinPath(r.prefix, uri), act)
	if err != nil {
		panic(err)
	}
	route.pipes = slices.Clone(r.pipes)
	r.routes.Add(route)
	return &RouteHandle{route: route, routes: r.routes}
}

// Group registers the routes declared in fn under prefix,
// tagging each with the given route pipe group keys.
func (r *Router) Group(prefix string, fn func(r *Router), pipes ...string) {
	fn(&Router{
		container: r.container,
		routes:    r.routes,
		prefix:    joinPath(r.prefix, prefix),
		pipes:     append(slices.Clone(r.pipes), pipes...),
	})
}

// Routes returns the underlying collection.
func (r *Router) Routes() *RouteCollection {
	return r.routes
}

// FindRoute matches req against the registered routes.
func (r *Router) FindRoute(req *Request) (*Route, Params, bool) {
	return r.routes.Match(req.Method(), req.Path())
}

// URL builds the path of a named route.
func (r *Router) URL(name string, values map[string]any) (string, error) {
	return r.routes.URL(name, values)
}

// Dispatch invokes the action of the route matched for req.
// A request without a matching route yields (nil, nil).
func (r *Router) Dispatch(req *Request) (any, error) {
	route := req.Route()
	if route == nil {
		matched, params, ok := r.FindRoute(req)
		if !ok {
			return nil, nil
		}
		req.setRoute(matched, params)
		route = matched
	}

	switch a := route.action.(type) {
	case HandlerFunc:
		return a(req)
	case ControllerAction:
		return r.callController(a, req)
	}
	return nil, fmt.Errorf("router: unsupported action %s", route.action)
}

func joinPath(prefix, uri string) string {
	if prefix == "" {
		return uri
	}
	prefix = strings.TrimSuffix(prefix, "/")
	uri = strings.TrimPrefix(uri, "/")
	if uri == "" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	return prefix + "/" + uri
}
