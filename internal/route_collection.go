package internal

import (
	"fmt"
	"sync"
)

// RouteCollection keeps routes in registration order and indexes them by name.
type RouteCollection struct {
	names  map[string]*Route
	routes []*Route
	mu     sync.RWMutex
}

// NewRouteCollection creates an empty collection.
func NewRouteCollection() *RouteCollection {
	return &RouteCollection{names: make(map[string]*Route)}
}

// Add appends route. Named routes are indexed; a later name replaces an earlier one.
func (c *RouteCollection) Add(route *Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = append(c.routes, route)
	if route.name != "" {
		c.names[route.name] = route
	}
}

// All returns the routes in registration order.
func (c *RouteCollection) All() []*Route {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Route, len(c.routes))
	copy(out, c.routes)
	return out
}

// ByName looks up a named route.
func (c *RouteCollection) ByName(name string) (*Route, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.names[name]
	return r, ok
}

// URL builds the path of the named route.
func (c *RouteCollection) URL(name string, values map[string]any) (string, error) {
	r, ok := c.ByName(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotNamed, name)
	}
	return r.URL(values)
}

// Match returns the first route registered for method whose template fits path.
func (c *RouteCollection) Match(method, path string) (*Route, Params, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.routes {
		if r.method != method {
			continue
		}
		if params, ok := r.Match(path); ok {
			return r, params, true
		}
	}
	return nil, nil, false
}

func (c *RouteCollection) setName(route *Route, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if route.name != "" && c.names[route.name] == route {
		delete(c.names, route.name)
	}
	route.name = name
	c.names[name] = route
}

func (c *RouteCollection) addPipes(route *Route, keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	route.pipes = append(route.pipes, keys...)
}

// RouteHandle is returned by route registration to attach a name or pipe groups.
type RouteHandle struct {
	route  *Route
	routes *RouteCollection
}

// Name names the route for URL generation.
func (h *RouteHandle) Name(name string) *RouteHandle {
	h.routes.setName(h.route, name)
	return h
}

// Pipes appends route pipe group keys to the route.
func (h *RouteHandle) Pipes(keys ...string) *RouteHandle {
	h.routes.addPipes(h.route, keys)
	return h
}

// Route returns the registered route.
func (h *RouteHandle) Route() *Route {
	return h.route
}
