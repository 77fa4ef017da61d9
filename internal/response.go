package internal

import (
	"encoding/json"
	"maps"
	"net/http"
	"strconv"
)

// Response is a fully materialized HTTP response.
type Response struct {
	Header http.Header
	Body   []byte
	Status int
}

// NewResponse creates a response with the given status and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Header: make(http.Header), Body: body}
}

// WithHeader sets a header and returns the response.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// Send writes headers, status and body to w.
func (r *Response) Send(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	if h.Get("Content-Length") == "" && r.Body != nil {
		h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

// JSONResponse is a result rendered as a JSON body.
type JSONResponse struct {
	Data   any
	Header http.Header
	Status int
}

// JSON creates a JSON result.
func JSON(status int, data any) *JSONResponse {
	return &JSONResponse{Status: status, Data: data, Header: make(http.Header)}
}

// WithHeader sets a header and returns the result.
func (j *JSONResponse) WithHeader(key, value string) *JSONResponse {
	j.Header.Set(key, value)
	return j
}

func (j *JSONResponse) toResponse() (*Response, error) {
	body, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	resp := NewResponse(j.Status, body)
	maps.Copy(resp.Header, j.Header)
	resp.Header.Set("Content-Type", "application/json; charset=utf-8")
	return resp, nil
}

// RedirectResponse is a redirect result. The kernel flashes the current
// input, applies With and WithErrors to the session and resolves the target.
type RedirectResponse struct {
	flashes  map[string]any
	errors   map[string][]string
	params   map[string]any
	location string
	route    string
	status   int
	back     bool
}

// Redirect redirects to a path or URL.
func Redirect(location string) *RedirectResponse {
	return &RedirectResponse{location: location, status: http.StatusFound}
}

// RedirectRoute redirects to a named route.
func RedirectRoute(name string, params map[string]any) *RedirectResponse {
	return &RedirectResponse{route: name, params: params, status: http.StatusFound}
}

// Back redirects to the Referer, or "/" without one.
func Back() *RedirectResponse {
	return &RedirectResponse{back: true, status: http.StatusFound}
}

// With flashes a value for the next request.
func (r *RedirectResponse) With(key string, value any) *RedirectResponse {
	if r.flashes == nil {
		r.flashes = make(map[string]any)
	}
	r.flashes[key] = value
	return r
}

// WithErrors flashes validation messages under "errors.form.<field>".
func (r *RedirectResponse) WithErrors(errors map[string][]string) *RedirectResponse {
	if r.errors == nil {
		r.errors = make(map[string][]string, len(errors))
	}
	for field, msgs := range errors {
		r.errors[field] = append(r.errors[field], msgs...)
	}
	return r
}

// WithStatus overrides the default 302.
func (r *RedirectResponse) WithStatus(status int) *RedirectResponse {
	r.status = status
	return r
}

// Status returns the redirect status code.
func (r *RedirectResponse) Status() int { return r.status }
