package internal_test

import (
	"context"
	"html/template"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
)

func TestTemplateRenderer(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"welcome.html":        {Data: []byte(`Hi {{.name}}`)},
		"users/profile.html":  {Data: []byte(`{{upper .name}}`)},
		"emails/reset.tmpl":   {Data: []byte(`reset {{.token}}`)},
		"broken/invalid.html": {Data: []byte(`{{.name`)},
	}

	r := internal.NewTemplateRenderer(fsys, internal.WithTemplateFuncs(template.FuncMap{"upper": strings.ToUpper}))

	t.Run("top-level view", func(t *testing.T) {
		t.Parallel()
		out, err := r.Render(context.Background(), "welcome", map[string]any{"name": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "Hi Ada", string(out))
	})

	t.Run("dotted name maps to directories", func(t *testing.T) {
		t.Parallel()
		out, err := r.Render(context.Background(), "users.profile", map[string]any{"name": "ada"})
		require.NoError(t, err)
		assert.Equal(t, "ADA", string(out))
	})

	t.Run("missing view", func(t *testing.T) {
		t.Parallel()
		_, err := r.Render(context.Background(), "users.missing", nil)
		require.ErrorIs(t, err, internal.ErrViewNotFound)
	})

	t.Run("parse error", func(t *testing.T) {
		t.Parallel()
		_, err := r.Render(context.Background(), "broken.invalid", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, internal.ErrViewNotFound)
	})

	t.Run("custom extension", func(t *testing.T) {
		t.Parallel()
		tr := internal.NewTemplateRenderer(fsys, internal.WithTemplateExt(".tmpl"), internal.WithTemplateReload())
		out, err := tr.Render(context.Background(), "emails.reset", map[string]any{"token": "abc"})
		require.NoError(t, err)
		assert.Equal(t, "reset abc", string(out))
	})
}

func TestView(t *testing.T) {
	t.Parallel()

	t.Run("named view needs a renderer", func(t *testing.T) {
		t.Parallel()
		v := internal.NewView("welcome", nil).With("name", "Ada").WithStatus(201).WithHeader("X-View", "1")
		assert.Equal(t, "welcome", v.Name())
		assert.Equal(t, "Ada", v.Data()["name"])
		assert.Equal(t, "1", v.Headers().Get("X-View"))

		_, err := v.Render(context.Background(), nil)
		require.ErrorIs(t, err, internal.ErrNoRenderer)
	})

	t.Run("templ component", func(t *testing.T) {
		t.Parallel()
		c := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "<h1>component</h1>")
			return err
		})
		out, err := internal.ComponentView(c).Render(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "<h1>component</h1>", string(out))
	})
}
