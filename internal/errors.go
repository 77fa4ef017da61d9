package internal

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/dmitrymomot/anvil/pkg/validator"
)

var (
	ErrCircularDependency    = errors.New("container: circular dependency")
	ErrNotInstantiable       = errors.New("container: type is not instantiable")
	ErrUnresolvableParameter = errors.New("container: unresolvable parameter")
	ErrInvalidConstructor    = errors.New("container: invalid constructor")
	ErrTypeMismatch          = errors.New("container: resolved value has unexpected type")
	ErrMethodNotFound        = errors.New("router: controller method not found")
	ErrNotAPipe              = errors.New("pipeline: value is not a pipe")
	ErrRouteNotNamed         = errors.New("router: no route with that name")
	ErrMissingRouteParameter = errors.New("router: missing route parameter")
	ErrDuplicatePlaceholder  = errors.New("router: duplicate placeholder")
	ErrViewNotFound          = errors.New("view: template not found")
	ErrNoRenderer            = errors.New("view: no renderer configured")
)

// StatusCoder is implemented by errors that map onto an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// BindingResolutionError reports that the container could not build a value.
// Chain lists the keys being resolved when the failure happened, outermost first.
type BindingResolutionError struct {
	Key   reflect.Type
	Param string
	Chain []reflect.Type
	Err   error
}

func (e *BindingResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("container: unable to resolve ")
	b.WriteString(typeName(e.Key))
	if e.Param != "" {
		fmt.Fprintf(&b, " (parameter %q)", e.Param)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Chain) > 1 {
		names := make([]string, len(e.Chain))
		for i, t := range e.Chain {
			names[i] = typeName(t)
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(names, " -> "))
		b.WriteString("]")
	}
	return b.String()
}

func (e *BindingResolutionError) Unwrap() error {
	return e.Err
}

// RouteNotFoundError is returned when no route matches the request.
type RouteNotFoundError struct {
	Method string
	Path   string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("router: no route for %s %s", e.Method, e.Path)
}

func (e *RouteNotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ValidationError carries the failed rules of a form request.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Errors.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Errors
}

func (e *ValidationError) StatusCode() int {
	return http.StatusUnprocessableEntity
}

// Bag returns the messages grouped by field.
func (e *ValidationError) Bag() map[string][]string {
	return e.Errors.Bag()
}

// HTTPError is an error with an HTTP status code and a user-facing message.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// Detail is an optional extended description.
	Detail string

	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError. An empty message falls back to the status text.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithDetail sets the extended description.
func WithDetail(detail string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Detail = detail
	}
}

// WithError sets the wrapped cause.
func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

// ErrBadRequest creates a 400 error.
func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

// ErrForbidden creates a 403 error.
func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

// ErrNotFound creates a 404 error.
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

// ErrInternal creates a 500 error.
func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// IsHTTPError reports whether err wraps an *HTTPError.
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// AsHTTPError returns the *HTTPError wrapped by err, or nil.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// statusOf returns the HTTP status carried by err, or 500.
func statusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
