package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/pkg/session"
)

const defaultMaxMemory = 32 << 20

// Request wraps the incoming *http.Request for the duration of one dispatch.
// It carries the matched route, the session, and cookies and headers queued
// for the response.
type Request struct {
	http      *http.Request
	route     *Route
	params    Params
	session   *session.Session
	input     map[string]any
	header    http.Header
	body      []byte
	cookies   []*http.Cookie
	method    string
	state     State
	bodyRead  bool
	inputRead bool
}

// NewRequest wraps r.
func NewRequest(r *http.Request) *Request {
	return &Request{
		http:   r,
		method: strings.ToUpper(r.Method),
		header: make(http.Header),
	}
}

// HTTP returns the underlying request.
func (r *Request) HTTP() *http.Request { return r.http }

// Method returns the upper-cased HTTP method.
func (r *Request) Method() string { return r.method }

// Path returns the decoded URL path.
func (r *Request) Path() string {
	if r.http.URL.Path == "" {
		return "/"
	}
	return r.http.URL.Path
}

// URI returns the path and query as sent by the client.
func (r *Request) URI() string { return r.http.URL.RequestURI() }

// Context returns the request context.
func (r *Request) Context() context.Context { return r.http.Context() }

// WithContext replaces the request context.
func (r *Request) WithContext(ctx context.Context) {
	r.http = r.http.WithContext(ctx)
}

// Header returns a request header value.
func (r *Request) Header(name string) string { return r.http.Header.Get(name) }

// Headers returns all request headers.
func (r *Request) Headers() http.Header { return r.http.Header }

// Referer returns the Referer header.
func (r *Request) Referer() string { return r.http.Referer() }

// ExpectsJSON reports whether the client accepts a JSON response.
func (r *Request) ExpectsJSON() bool {
	return strings.Contains(r.http.Header.Get("Accept"), "/json")
}

// IsJSON reports whether the request body is JSON.
func (r *Request) IsJSON() bool {
	return strings.Contains(r.http.Header.Get("Content-Type"), "/json")
}

// All returns query, form and JSON body input merged, later sources winning.
// Single-valued fields are strings; repeated fields are []string.
func (r *Request) All() (map[string]any, error) {
	if r.inputRead {
		return r.input, nil
	}

	input := make(map[string]any)
	mergeValues(input, r.http.URL.Query())

	switch {
	case r.IsJSON():
		body, err := r.Body()
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(body)) > 0 {
			var doc map[string]any
			if err := json.Unmarshal(body, &doc); err != nil {
				return nil, fmt.Errorf("request: decode json body: %w", err)
			}
			maps.Copy(input, doc)
		}
	case r.http.Method == http.MethodPost || r.http.Method == http.MethodPut || r.http.Method == http.MethodPatch:
		if err := r.parseForm(); err != nil {
			return nil, err
		}
		mergeValues(input, r.http.PostForm)
		if r.http.MultipartForm != nil {
			mergeValues(input, r.http.MultipartForm.Value)
		}
	}

	r.input = input
	r.inputRead = true
	return input, nil
}

// Input returns a single input value as a string.
func (r *Request) Input(key string) string {
	input, err := r.All()
	if err != nil {
		return ""
	}
	return cast.ToString(input[key])
}

// ReplaceInput overrides the parsed input for the rest of the dispatch.
func (r *Request) ReplaceInput(input map[string]any) {
	r.input = input
	r.inputRead = true
}

// Body reads and caches the raw request body.
func (r *Request) Body() ([]byte, error) {
	if r.bodyRead {
		return r.body, nil
	}
	if r.http.Body == nil {
		r.bodyRead = true
		return nil, nil
	}
	body, err := io.ReadAll(r.http.Body)
	if err != nil {
		return nil, fmt.Errorf("request: read body: %w", err)
	}
	_ = r.http.Body.Close()
	r.http.Body = io.NopCloser(bytes.NewReader(body))
	r.body = body
	r.bodyRead = true
	return body, nil
}

// JSON decodes the request body into v.
func (r *Request) JSON(v any) error {
	body, err := r.Body()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// File returns an uploaded file.
func (r *Request) File(key string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.parseForm(); err != nil {
		return nil, nil, err
	}
	return r.http.FormFile(key)
}

func (r *Request) parseForm() error {
	if strings.HasPrefix(r.http.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.http.ParseMultipartForm(defaultMaxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return fmt.Errorf("request: parse multipart form: %w", err)
		}
		return nil
	}
	if err := r.http.ParseForm(); err != nil {
		return fmt.Errorf("request: parse form: %w", err)
	}
	return nil
}

// Route returns the matched route, or nil before matching.
func (r *Request) Route() *Route { return r.route }

// Param returns a placeholder value of the matched route.
func (r *Request) Param(name string) string { return r.params[name] }

// Params returns all placeholder values of the matched route.
func (r *Request) Params() Params {
	if r.params == nil {
		return Params{}
	}
	return r.params
}

func (r *Request) setRoute(route *Route, params Params) {
	r.route = route
	r.params = params
}

// Session returns the session started for this request, or nil.
func (r *Request) Session() *session.Session { return r.session }

// SetSession attaches a session to the request.
func (r *Request) SetSession(s *session.Session) { r.session = s }

// Old returns input flashed by the previous request, e.g. Old("name").
func (r *Request) Old(key string) any {
	if r.session == nil {
		return nil
	}
	v, _ := r.session.Get("flash.form." + key)
	return v
}

// Errors returns validation messages flashed by the previous request, keyed by field.
func (r *Request) Errors() map[string][]string {
	if r.session == nil {
		return nil
	}
	bag, err := session.Value[map[string][]string](r.session, "errors.form")
	if err != nil {
		return nil
	}
	return bag
}

// QueueCookie adds a cookie to the response.
func (r *Request) QueueCookie(c *http.Cookie) {
	r.cookies = append(r.cookies, c)
}

// ResponseHeader returns headers added to the response, whatever it turns out to be.
func (r *Request) ResponseHeader() http.Header { return r.header }

// State returns how far the request has progressed through the kernel.
func (r *Request) State() State { return r.state }

func mergeValues(dst map[string]any, values map[string][]string) {
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			dst[k] = vs[0]
		default:
			dst[k] = append([]string(nil), vs...)
		}
	}
}
