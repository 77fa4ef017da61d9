package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/session"
)

type helloController struct {
	Config *config.Repository `inject:""`
}

func (c *helloController) Show(name string) *internal.View {
	return internal.NewView("hello", map[string]any{
		"name":     name,
		"greeting": c.Config.String("app.greeting", "Hello"),
	})
}

type counterService struct{ hits int }

type counterProvider struct {
	booted bool
}

func (p *counterProvider) Register(c *internal.Container) error {
	internal.Instance(c, &counterService{})
	return nil
}

func (p *counterProvider) Boot(c *internal.Container) error {
	router, err := internal.Make[*internal.Router](c)
	if err != nil {
		return err
	}
	svc := internal.MustMake[*counterService](c)
	router.Get("/count", func(*internal.Request) (any, error) {
		svc.hits++
		return internal.JSON(http.StatusOK, map[string]int{"hits": svc.hits}), nil
	})
	p.booted = true
	return nil
}

func newTestApp(t *testing.T, opts ...internal.Option) *internal.App {
	t.Helper()

	repo, err := config.New(map[string]any{"app.greeting": "Hi"})
	require.NoError(t, err)

	base := []internal.Option{
		internal.WithConfig(repo),
		internal.WithViews(fstest.MapFS{
			"hello.html": {Data: []byte(`{{.greeting}}, {{.name}}`)},
		}),
		internal.WithSession(session.NewMemoryStore()),
		internal.WithRoutes(func(r *internal.Router) {
			r.Get("/hello/{name}", internal.ActionFor[*helloController]("Show")).Name("hello")
		}),
		internal.WithHealthChecks(internal.WithReadinessCheck("db", func(context.Context) error { return nil })),
		internal.WithStaticFiles("/static/", fstest.MapFS{"public/app.css": {Data: []byte("body{}")}}, "public"),
	}
	app, err := internal.New(append(base, opts...)...)
	require.NoError(t, err)
	return app
}

func TestApp_EndToEnd(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/Ada", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hi, Ada", rec.Body.String())
	assert.NotEmpty(t, rec.Result().Cookies(), "sessions are started")

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	u, err := app.Router().URL("hello", map[string]any{"name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "/hello/Grace", u)
}

func TestApp_MuxRoutes(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/health/live", http.StatusOK, "OK"},
		{"/health/ready", http.StatusOK, "OK"},
		{"/static/app.css", http.StatusOK, "body{}"},
		{"/static/", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestApp_Providers(t *testing.T) {
	t.Parallel()

	p := &counterProvider{}
	app := newTestApp(t, internal.WithProviders(p))
	require.True(t, p.booted)

	for want := 1; want <= 2; want++ {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/count", nil))
		assert.JSONEq(t, `{"hits":`+strconv.Itoa(want)+`}`, rec.Body.String())
	}

	kernel, err := internal.Make[*internal.Kernel](app.Container())
	require.NoError(t, err)
	assert.Same(t, app.Kernel(), kernel, "kernel is a singleton")
}

func TestApp_ProviderErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := internal.New(internal.WithProviders(internal.ProviderFunc(func(*internal.Container) error {
		return boom
	})))
	require.ErrorIs(t, err, boom)

	_, err = internal.New(internal.WithProviders(internal.ProviderFunc(func(c *internal.Container) error {
		c.Bind(internal.Key[*cycleA](), nil)
		return nil
	})))
	require.ErrorIs(t, err, internal.ErrCircularDependency, "the container graph is validated at startup")
}

func TestApp_Pipes(t *testing.T) {
	t.Parallel()

	app := newTestApp(t,
		internal.WithPipes(func(req *internal.Request, next internal.Next[*internal.Request]) (any, error) {
			req.ResponseHeader().Set("X-Global", "1")
			return next(req)
		}),
		internal.WithRoutePipes("api", func(req *internal.Request, next internal.Next[*internal.Request]) (any, error) {
			return internal.JSON(http.StatusTeapot, nil), nil
		}),
		internal.WithRoutes(func(r *internal.Router) {
			r.Group("/api", func(r *internal.Router) {
				r.Get("/ping", func(*internal.Request) (any, error) { return "unreachable", nil })
			}, "api")
		}),
	)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Global"))
}
