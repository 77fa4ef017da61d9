package internal_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/validator"
)

func exceptionRequest(accept string) *internal.Request {
	r := httptest.NewRequest(http.MethodPost, "/users", nil)
	if accept != "" {
		r.Header.Set("Accept", accept)
	}
	r.Header.Set("Referer", "/users/new")
	return internal.NewRequest(r)
}

func TestDefaultExceptionHandler(t *testing.T) {
	t.Parallel()

	verr := &internal.ValidationError{Errors: validator.ValidationErrors{
		{Field: "email", Message: "This field must be a valid email address."},
	}}

	t.Run("validation for browsers redirects back", func(t *testing.T) {
		t.Parallel()
		h := internal.NewExceptionHandler(nil, false)
		out := h.Render(exceptionRequest("text/html"), verr)

		redirect, ok := out.(*internal.RedirectResponse)
		require.True(t, ok)
		assert.Equal(t, http.StatusFound, redirect.Status())
	})

	t.Run("validation for json clients", func(t *testing.T) {
		t.Parallel()
		h := internal.NewExceptionHandler(nil, false)
		out := h.Render(exceptionRequest("application/json"), verr)

		resp, ok := out.(*internal.JSONResponse)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
		body := resp.Data.(map[string]any)
		assert.Equal(t, map[string][]string{"email": {"This field must be a valid email address."}}, body["errors"])
	})

	t.Run("client errors keep their message", func(t *testing.T) {
		t.Parallel()
		h := internal.NewExceptionHandler(nil, false)
		out := h.Render(exceptionRequest(""), internal.ErrForbidden("Members only"))

		resp, ok := out.(*internal.Response)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.Equal(t, "Members only", string(resp.Body))
	})

	t.Run("server errors are logged and hidden", func(t *testing.T) {
		t.Parallel()
		var logs bytes.Buffer
		h := internal.NewExceptionHandler(slog.New(slog.NewJSONHandler(&logs, nil)), false)
		out := h.Render(exceptionRequest(""), errors.New("secret failure"))

		resp := out.(*internal.Response)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, "Internal Server Error", string(resp.Body))
		assert.Contains(t, logs.String(), "secret failure")
		assert.Contains(t, logs.String(), `"status":500`)
	})

	t.Run("development shows server error details", func(t *testing.T) {
		t.Parallel()
		h := internal.NewExceptionHandler(nil, true)
		out := h.Render(exceptionRequest("application/json"), errors.New("secret failure"))

		resp := out.(*internal.JSONResponse)
		assert.Equal(t, map[string]any{"message": "secret failure"}, resp.Data)
	})

	t.Run("custom handler func", func(t *testing.T) {
		t.Parallel()
		var h internal.ExceptionHandler = internal.ExceptionHandlerFunc(func(*internal.Request, error) any {
			return internal.Redirect("/oops")
		})
		out := h.Render(exceptionRequest(""), errors.New("x"))
		assert.IsType(t, &internal.RedirectResponse{}, out)
	})
}
