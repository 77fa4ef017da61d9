package internal

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
)

// State is the stage a request has reached in the kernel.
type State int

const (
	StateReceived State = iota
	StateRouted
	StateDispatched
	StateResponded
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateRouted:
		return "routed"
	case StateDispatched:
		return "dispatched"
	case StateResponded:
		return "responded"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Kernel runs a request through its pipes, dispatches it, and turns the
// action result into a Response.
//
// Pipe order: global pipes, base pipes (session start), then the pipes of
// each route pipe group named by the route. Unknown group names are ignored.
type Kernel struct {
	container  *Container
	router     *Router
	exceptions ExceptionHandler
	renderer   ViewRenderer
	sessions   *SessionManager
	logger     *slog.Logger
	routePipes map[string][]any
	pipes      []any
	basePipes  []any
}

// NewKernel creates a kernel. Its dependencies are resolved by the container.
func NewKernel(c *Container, router *Router, exceptions ExceptionHandler, renderer ViewRenderer, logger *slog.Logger) *Kernel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if exceptions == nil {
		exceptions = NewExceptionHandler(logger, false)
	}
	return &Kernel{
		container:  c,
		router:     router,
		exceptions: exceptions,
		renderer:   renderer,
		logger:     logger,
		routePipes: make(map[string][]any),
	}
}

// Use appends global pipes, run for every matched request.
func (k *Kernel) Use(pipes ...any) {
	k.pipes = append(k.pipes, pipes...)
}

// RoutePipes registers the pipes of a named route pipe group.
func (k *Kernel) RoutePipes(name string, pipes ...any) {
	k.routePipes[name] = append(k.routePipes[name], pipes...)
}

// EnableSessions starts a session for every matched request and persists it on terminate.
func (k *Kernel) EnableSessions(sm *SessionManager) {
	k.sessions = sm
	k.basePipes = []any{reflect.TypeFor[*StartSession]()}
}

// Handle matches, pipes and dispatches req, then normalizes the result.
// Requests without a route fail with *RouteNotFoundError and skip the pipes.
func (k *Kernel) Handle(req *Request) (*Response, error) {
	route, params, ok := k.router.FindRoute(req)
	if !ok {
		return nil, &RouteNotFoundError{Method: req.Method(), Path: req.Path()}
	}
	req.setRoute(route, params)
	k.transition(req, StateRouted)

	result, err := NewPipeline[*Request](k.container).
		Send(req).
		Through(k.pipesFor(route)...).
		Then(k.router.Dispatch)
	k.transition(req, StateDispatched)
	if err != nil {
		return nil, err
	}
	return k.prepareResponse(req, result)
}

// ServeHTTP handles the request, renders failures through the exception
// handler, terminates the request and writes the response.
func (k *Kernel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := NewRequest(r)

	resp, err := k.Handle(req)
	if err != nil {
		resp = k.renderException(req, err)
	}
	k.transition(req, StateResponded)

	k.Terminate(req)
	k.emit(w, req, resp)
}

// Terminate clears flash data delivered by this request and saves the session.
// It runs before the response is written, so a followed redirect sees the saved session.
func (k *Kernel) Terminate(req *Request) {
	defer k.transition(req, StateTerminated)

	sess := req.Session()
	if sess == nil || k.sessions == nil {
		return
	}
	sess.Sweep("flash", "errors")
	if err := k.sessions.Save(req.Context(), sess); err != nil {
		k.logger.ErrorContext(req.Context(), "failed to save session",
			slog.String("session_id", sess.ID),
			slog.Any("error", err),
		)
	}
}

func (k *Kernel) pipesFor(route *Route) []any {
	pipes := make([]any, 0, len(k.pipes)+len(k.basePipes))
	pipes = append(pipes, k.pipes...)
	pipes = append(pipes, k.basePipes...)
	for _, name := range route.pipes {
		pipes = append(pipes, k.routePipes[name]...)
	}
	return pipes
}

// prepareResponse converts an action result into a Response.
func (k *Kernel) prepareResponse(req *Request, result any) (*Response, error) {
	switch res := result.(type) {
	case *Response:
		if res != nil {
			return res, nil
		}
	case *RedirectResponse:
		if res != nil {
			return k.redirect(req, res)
		}
	case *JSONResponse:
		if res != nil {
			return res.toResponse()
		}
	case *View:
		if res != nil {
			body, err := res.Render(req.Context(), k.renderer)
			if err != nil {
				return nil, err
			}
			resp := NewResponse(res.status, body)
			for key, vs := range res.header {
				resp.Header[key] = append([]string(nil), vs...)
			}
			if resp.Header.Get("Content-Type") == "" {
				resp.Header.Set("Content-Type", "text/html; charset=utf-8")
			}
			return resp, nil
		}
	}
	return nil, ErrNotFound("")
}

func (k *Kernel) redirect(req *Request, r *RedirectResponse) (*Response, error) {
	if sess := req.Session(); sess != nil {
		input, err := req.All()
		if err == nil && len(input) > 0 {
			if err := sess.Flash("form", input); err != nil {
				return nil, err
			}
		}
		for key, value := range r.flashes {
			if err := sess.Flash(key, value); err != nil {
				return nil, err
			}
		}
		if len(r.errors) > 0 {
			sess.Forget("errors.form")
		}
		for field, msgs := range r.errors {
			for _, msg := range msgs {
				if err := sess.Push("errors.form."+field, msg); err != nil {
					return nil, err
				}
			}
		}
	}

	location := r.location
	switch {
	case r.back:
		location = req.Referer()
		if location == "" {
			location = "/"
		}
	case r.route != "":
		url, err := k.router.URL(r.route, r.params)
		if err != nil {
			return nil, err
		}
		location = url
	}

	return NewResponse(r.status, nil).
		WithHeader("Location", location).
		WithHeader("Cache-Control", "no-cache, no-store, must-revalidate"), nil
}

func (k *Kernel) renderException(req *Request, err error) *Response {
	result := k.exceptions.Render(req, err)
	resp, perr := k.prepareResponse(req, result)
	if perr != nil {
		k.logger.ErrorContext(req.Context(), "exception handler result could not be rendered",
			slog.Any("error", err),
			slog.Any("render_error", perr),
		)
		return NewResponse(http.StatusInternalServerError, []byte(http.StatusText(http.StatusInternalServerError))).
			WithHeader("Content-Type", "text/plain; charset=utf-8")
	}
	return resp
}

func (k *Kernel) emit(w http.ResponseWriter, req *Request, resp *Response) {
	for _, c := range req.cookies {
		http.SetCookie(w, c)
	}
	h := w.Header()
	for key, vs := range req.header {
		h[key] = append(h[key], vs...)
	}
	if err := resp.Send(w); err != nil {
		k.logger.DebugContext(req.Context(), "failed to write response", slog.Any("error", err))
	}
}

func (k *Kernel) transition(req *Request, s State) {
	req.state = s
	k.logger.DebugContext(req.Context(), "request "+s.String(),
		slog.String("method", req.Method()),
		slog.String("path", req.Path()),
	)
}
