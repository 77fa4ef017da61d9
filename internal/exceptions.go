package internal

import (
	"errors"
	"log/slog"
	"net/http"
)

// ExceptionHandler turns an error raised during dispatch into a result.
// The result is normalized like any action result.
type ExceptionHandler interface {
	Render(req *Request, err error) any
}

// ExceptionHandlerFunc adapts a function to ExceptionHandler.
type ExceptionHandlerFunc func(req *Request, err error) any

func (f ExceptionHandlerFunc) Render(req *Request, err error) any {
	return f(req, err)
}

// DefaultExceptionHandler renders validation failures as 422 JSON or a
// redirect back with flashed errors, and everything else as its status code.
// Server errors are logged; their details are shown only in development.
type DefaultExceptionHandler struct {
	logger      *slog.Logger
	development bool
}

// NewExceptionHandler creates the default handler.
func NewExceptionHandler(logger *slog.Logger, development bool) *DefaultExceptionHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DefaultExceptionHandler{logger: logger, development: development}
}

func (h *DefaultExceptionHandler) Render(req *Request, err error) any {
	var verr *ValidationError
	if errors.As(err, &verr) {
		if req.ExpectsJSON() {
			return JSON(http.StatusUnprocessableEntity, map[string]any{
				"message": "The given data was invalid.",
				"errors":  verr.Bag(),
			})
		}
		return Back().WithErrors(verr.Bag())
	}

	status := statusOf(err)
	message := http.StatusText(status)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && status < http.StatusInternalServerError {
		message = httpErr.Message
	}

	attrs := []any{
		slog.String("method", req.Method()),
		slog.String("path", req.Path()),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(req.Context(), "request failed", attrs...)
		if h.development {
			message = err.Error()
		}
	} else {
		h.logger.DebugContext(req.Context(), "request rejected", attrs...)
	}

	if req.ExpectsJSON() {
		return JSON(status, map[string]any{"message": message})
	}
	return NewResponse(status, []byte(message)).
		WithHeader("Content-Type", "text/plain; charset=utf-8")
}
