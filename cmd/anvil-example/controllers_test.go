package main

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/middlewares"
	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/session"
)

func newExampleApp(t *testing.T) *anvil.App {
	t.Helper()

	repo, err := config.New(map[string]any{
		"app": map[string]any{
			"name":      "demo",
			"greeting":  "Welcome",
			"cache_dir": t.TempDir(),
		},
	})
	require.NoError(t, err)

	viewFS, err := fs.Sub(views, "views")
	require.NoError(t, err)

	app, err := anvil.New(
		anvil.WithLogger(logger.NewNope()),
		anvil.WithConfig(repo),
		anvil.WithProviders(appProvider{}),
		anvil.WithViews(viewFS),
		anvil.WithSession(session.NewMemoryStore()),
		anvil.WithRoutePipes("web", middlewares.SanitizeInput()),
		anvil.WithRoutes(routes),
	)
	require.NoError(t, err)
	return app
}

func TestHome(t *testing.T) {
	t.Parallel()
	app := newExampleApp(t)

	for want := 1; want <= 2; want++ {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<title>demo</title>")
		assert.Contains(t, rec.Body.String(), "Welcome, visitor")
		assert.Contains(t, rec.Body.String(), "Visits: "+strconv.Itoa(want))
	}
}

func TestHello(t *testing.T) {
	t.Parallel()
	app := newExampleApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello/%3Cb%3E", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>Hello, &lt;b&gt;!</p>", rec.Body.String())
}

func TestContacts(t *testing.T) {
	t.Parallel()
	app := newExampleApp(t)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contacts", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Referer", "/contacts/new")
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec
	}

	t.Run("invalid input goes back with errors", func(t *testing.T) {
		t.Parallel()

		rec := post(url.Values{"name": {"  Ada  "}, "email": {"nope"}})
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/contacts/new", rec.Header().Get("Location"))

		req := httptest.NewRequest(http.MethodGet, "/contacts/new", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		page := httptest.NewRecorder()
		app.ServeHTTP(page, req)
		require.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, page.Body.String(), `value="Ada"`)
		assert.Contains(t, page.Body.String(), `class="error"`)
	})

	t.Run("valid input redirects home with status", func(t *testing.T) {
		t.Parallel()

		rec := post(url.Values{"name": {"Ada"}, "email": {"ada@example.com"}})
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		page := httptest.NewRecorder()
		app.ServeHTTP(page, req)
		assert.Contains(t, page.Body.String(), "Saved Ada")
	})
}
