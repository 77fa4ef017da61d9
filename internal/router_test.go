package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/validator"
)

type salutation struct{ word string }

type greetController struct {
	Salutation *salutation `inject:""`
}

func (c *greetController) Show(name string) string {
	return c.Salutation.word + ", " + name
}

func (c *greetController) Post(ctx context.Context, req *internal.Request, id int, params internal.Params) (string, error) {
	if ctx == nil {
		return "", internal.ErrInternal("no context")
	}
	return req.Method() + " " + params["slug"] + " " + strings.Repeat("*", id), nil
}

func (c *greetController) Fail() error {
	return internal.ErrForbidden("nope")
}

func (c *greetController) Nothing() {}

type storeUser struct {
	internal.FormRequest
}

func (f *storeUser) Rules() validator.RuleSet {
	return validator.RuleSet{"name": "required|alpha|min:2"}
}

func (c *greetController) Store(form *storeUser) string {
	return "stored " + form.Input("name")
}

type adminOnly struct {
	internal.FormRequest
}

func (f *adminOnly) Rules() validator.RuleSet { return nil }

func (f *adminOnly) Authorize() bool { return f.Header("X-Admin") == "yes" }

func (c *greetController) Admin(form *adminOnly) string { return "welcome" }

func newTestRouter(t *testing.T) *internal.Router {
	t.Helper()
	c := internal.NewContainer()
	internal.Instance(c, &salutation{word: "Hello"})
	return internal.NewRouter(c)
}

func dispatch(t *testing.T, r *internal.Router, method, target string, body url.Values) (any, error) {
	t.Helper()
	var hr *http.Request
	if body != nil {
		hr = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		hr.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		hr = httptest.NewRequest(method, target, nil)
	}
	return r.Dispatch(internal.NewRequest(hr))
}

func TestRouter_FirstMatchWins(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	r.Get("/users/{id}", func(*internal.Request) (any, error) { return "by id", nil })
	r.Get("/users/me", func(*internal.Request) (any, error) { return "me", nil })
	r.Post("/users/me", func(*internal.Request) (any, error) { return "post me", nil })

	out, err := dispatch(t, r, http.MethodGet, "/users/me", nil)
	require.NoError(t, err)
	assert.Equal(t, "by id", out)

	out, err = dispatch(t, r, http.MethodPost, "/users/me", nil)
	require.NoError(t, err)
	assert.Equal(t, "post me", out)
}

func TestRouter_NoMatch(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	r.Get("/a", noop)

	out, err := dispatch(t, r, http.MethodGet, "/b", nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = dispatch(t, r, http.MethodDelete, "/a", nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRouter_Names(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	first := r.Get("/old/{id}", noop).Name("user")
	r.Get("/users/{id}", noop).Name("user")

	u, err := r.URL("user", map[string]any{"id": 5})
	require.NoError(t, err)
	assert.Equal(t, "/users/5", u)
	assert.Equal(t, "user", first.Route().Name())

	_, err = r.URL("missing", nil)
	require.ErrorIs(t, err, internal.ErrRouteNotNamed)
}

func TestRouter_Group(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	r.Group("/admin", func(r *internal.Router) {
		r.Get("/", noop).Name("admin.home")
		r.Group("users/", func(r *internal.Router) {
			r.Get("/{id}", noop).Name("admin.user").Pipes("audit")
		}, "auth")
	}, "web")

	routes := r.Routes().All()
	require.Len(t, routes, 2)
	assert.Equal(t, "/admin", routes[0].URI())
	assert.Equal(t, []string{"web"}, routes[0].Pipes())
	assert.Equal(t, "/admin/users/{id}", routes[1].URI())
	assert.Equal(t, []string{"web", "auth", "audit"}, routes[1].Pipes())
}

func TestRouter_InvalidRegistration(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	assert.Panics(t, func() { r.Get("/x", "not an action") })
	assert.Panics(t, func() { r.Get("/{a}/{a}", noop) })
	assert.Panics(t, func() { r.Get("/x", internal.ControllerAction{}) })
}

func TestRouter_ControllerActions(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t)
	r.Get("/hello/{name}", internal.ActionFor[*greetController]("Show"))
	r.Post("/posts/{id}/{slug}", internal.ActionFor[*greetController]("Post"))
	r.Get("/fail", internal.ActionFor[*greetController]("Fail"))
	r.Get("/nothing", internal.ActionFor[*greetController]("Nothing"))
	r.Get("/missing", internal.ActionFor[*greetController]("Missing"))
	r.Post("/users", internal.ActionFor[*greetController]("Store"))
	r.Get("/admin", internal.ActionFor[*greetController]("Admin"))

	t.Run("scalar arguments come from placeholders", func(t *testing.T) {
		t.Parallel()
		out, err := dispatch(t, r, http.MethodGet, "/hello/Ada", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello, Ada", out)
	})

	t.Run("request, context, params and ints", func(t *testing.T) {
		t.Parallel()
		out, err := dispatch(t, r, http.MethodPost, "/posts/3/go", nil)
		require.NoError(t, err)
		assert.Equal(t, "POST go ***", out)
	})

	t.Run("unconvertible placeholder is a 404", func(t *testing.T) {
		t.Parallel()
		_, err := dispatch(t, r, http.MethodPost, "/posts/abc/go", nil)
		var httpErr *internal.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode())
	})

	t.Run("error result", func(t *testing.T) {
		t.Parallel()
		_, err := dispatch(t, r, http.MethodGet, "/fail", nil)
		var httpErr *internal.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	})

	t.Run("no result", func(t *testing.T) {
		t.Parallel()
		out, err := dispatch(t, r, http.MethodGet, "/nothing", nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("unknown method", func(t *testing.T) {
		t.Parallel()
		_, err := dispatch(t, r, http.MethodGet, "/missing", nil)
		require.ErrorIs(t, err, internal.ErrMethodNotFound)
	})

	t.Run("form request passes", func(t *testing.T) {
		t.Parallel()
		out, err := dispatch(t, r, http.MethodPost, "/users", url.Values{"name": {"Ada"}})
		require.NoError(t, err)
		assert.Equal(t, "stored Ada", out)
	})

	t.Run("form request fails validation", func(t *testing.T) {
		t.Parallel()
		_, err := dispatch(t, r, http.MethodPost, "/users", url.Values{"name": {"A1"}})
		var verr *internal.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Bag(), "name")
		assert.Equal(t, http.StatusUnprocessableEntity, verr.StatusCode())
	})

	t.Run("form request authorization", func(t *testing.T) {
		t.Parallel()
		_, err := dispatch(t, r, http.MethodGet, "/admin", nil)
		var httpErr *internal.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	})
}
