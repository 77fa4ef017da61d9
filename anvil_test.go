package anvil_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/middlewares"
	"github.com/dmitrymomot/anvil/pkg/session"
	"github.com/dmitrymomot/anvil/pkg/validator"
)

type greeter struct {
	Log *slog.Logger `inject:""`
}

func (g *greeter) Hello(name string) *anvil.Response {
	g.Log.Debug("greeting", slog.String("name", name))
	return anvil.NewResponse(http.StatusOK, []byte("Hi, "+name)).
		WithHeader("Content-Type", "text/plain; charset=utf-8")
}

type signupForm struct {
	anvil.FormRequest
}

func (f *signupForm) Rules() validator.RuleSet {
	return validator.RuleSet{"email": "required|email"}
}

type accounts struct{}

func (accounts) Create(req *anvil.Request) *anvil.JSONResponse {
	return anvil.JSON(http.StatusOK, map[string]any{
		"errors": req.Errors(),
		"old":    req.Old("email"),
	})
}

func (accounts) Store(form *signupForm) *anvil.RedirectResponse {
	return anvil.RedirectRoute("signup", nil).With("status", "welcome "+form.Input("email"))
}

func newApp(t *testing.T) *anvil.App {
	t.Helper()

	deny := anvil.PipeFunc(func(req *anvil.Request, next anvil.Next) (any, error) {
		if req.Header("X-Token") != "secret" {
			return nil, anvil.ErrForbidden("nope")
		}
		return next(req)
	})

	app, err := anvil.New(
		anvil.WithLogger(slog.New(slog.DiscardHandler)),
		anvil.WithSession(session.NewMemoryStore()),
		anvil.WithPipes(middlewares.RequestID(), middlewares.Recover()),
		anvil.WithRoutePipes("token", deny),
		anvil.WithRoutes(func(r *anvil.Router) {
			r.Get("/hello/{name}", anvil.Action[*greeter]("Hello")).Name("hello")
			r.Get("/signup", anvil.Action[accounts]("Create")).Name("signup")
			r.Post("/signup", anvil.Action[accounts]("Store"))
			r.Group("/admin", func(r *anvil.Router) {
				r.Get("/stats", func(*anvil.Request) (any, error) {
					return anvil.JSON(http.StatusOK, map[string]int{"users": 3}), nil
				})
			}, "token")
		}),
	)
	require.NoError(t, err)
	return app
}

func TestApp_Greeting(t *testing.T) {
	t.Parallel()
	app := newApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/Ada", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hi, Ada", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	link, err := app.Router().URL("hello", map[string]any{"name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "/hello/Grace", link)
}

func TestApp_NotFound(t *testing.T) {
	t.Parallel()
	app := newApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApp_RoutePipes(t *testing.T) {
	t.Parallel()
	app := newApp(t)

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "nope", rec.Body.String())
	})

	t.Run("allowed", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
		req.Header.Set("X-Token", "secret")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"users":3}`, rec.Body.String())
	})
}

func TestApp_FormValidation(t *testing.T) {
	t.Parallel()

	t.Run("redirects back with errors for one request", func(t *testing.T) {
		t.Parallel()
		app := newApp(t)

		form := url.Values{"email": {"not-an-email"}}
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Referer", "/signup")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/signup", rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)

		get := func() map[string]any {
			req := httptest.NewRequest(http.MethodGet, "/signup", nil)
			for _, c := range cookies {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			return body
		}

		first := get()
		assert.Equal(t, "not-an-email", first["old"])
		assert.Contains(t, first["errors"], "email")

		second := get()
		assert.Nil(t, second["old"])
		assert.Nil(t, second["errors"])
	})

	t.Run("json clients get 422", func(t *testing.T) {
		t.Parallel()
		app := newApp(t)

		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":""}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email"`)
	})

	t.Run("valid input redirects to named route", func(t *testing.T) {
		t.Parallel()
		app := newApp(t)

		form := url.Values{"email": {"ada@example.com"}}
		req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/signup", rec.Header().Get("Location"))
	})
}

func TestContainerHelpers(t *testing.T) {
	t.Parallel()

	c := anvil.NewContainer()
	require.NoError(t, anvil.Singleton(c, func(anvil.Resolver, anvil.Args) (*greeter, error) {
		return &greeter{Log: slog.New(slog.DiscardHandler)}, nil
	}))

	a := anvil.MustMake[*greeter](c)
	b, err := anvil.Make[*greeter](c)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.True(t, c.Bound(anvil.Key[*greeter]()))
}
