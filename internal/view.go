package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

// ViewRenderer renders a named template with data.
type ViewRenderer interface {
	Render(ctx context.Context, name string, data map[string]any) ([]byte, error)
}

// View is a result rendered to HTML: either a named template with data
// or a templ component.
type View struct {
	component templ.Component
	data      map[string]any
	header    http.Header
	name      string
	status    int
}

// NewView creates a view of the named template. Dots in the name separate
// directories, so "greet.show" refers to "greet/show.html".
func NewView(name string, data map[string]any) *View {
	if data == nil {
		data = make(map[string]any)
	}
	return &View{name: name, data: data, header: make(http.Header), status: http.StatusOK}
}

// ComponentView creates a view that renders a templ component.
func ComponentView(c templ.Component) *View {
	return &View{component: c, data: make(map[string]any), header: make(http.Header), status: http.StatusOK}
}

// With adds a data value.
func (v *View) With(key string, value any) *View {
	v.data[key] = value
	return v
}

// WithHeader sets a response header.
func (v *View) WithHeader(key, value string) *View {
	v.header.Set(key, value)
	return v
}

// WithStatus overrides the default 200.
func (v *View) WithStatus(status int) *View {
	v.status = status
	return v
}

// Name returns the template name, or "" for component views.
func (v *View) Name() string { return v.name }

// Data returns the template data.
func (v *View) Data() map[string]any { return v.data }

// Headers returns the extra response headers.
func (v *View) Headers() http.Header { return v.header }

// Render produces the HTML body.
func (v *View) Render(ctx context.Context, renderer ViewRenderer) ([]byte, error) {
	if v.component != nil {
		var buf bytes.Buffer
		if err := v.component.Render(ctx, &buf); err != nil {
			return nil, fmt.Errorf("view: render component: %w", err)
		}
		return buf.Bytes(), nil
	}
	if renderer == nil {
		return nil, ErrNoRenderer
	}
	return renderer.Render(ctx, v.name, v.data)
}

// TemplateRenderer renders html/template files from a filesystem.
// Parsed templates are cached per name.
type TemplateRenderer struct {
	fsys  fs.FS
	funcs template.FuncMap
	cache map[string]*template.Template
	ext   string
	mu    sync.RWMutex
	reuse bool
}

// TemplateOption configures a TemplateRenderer.
type TemplateOption func(*TemplateRenderer)

// WithTemplateExt sets the file extension. Default: ".html".
func WithTemplateExt(ext string) TemplateOption {
	return func(t *TemplateRenderer) {
		t.ext = ext
	}
}

// WithTemplateFuncs adds template functions.
func WithTemplateFuncs(funcs template.FuncMap) TemplateOption {
	return func(t *TemplateRenderer) {
		for k, v := range funcs {
			t.funcs[k] = v
		}
	}
}

// WithTemplateReload disables the parse cache so edits show up without a restart.
func WithTemplateReload() TemplateOption {
	return func(t *TemplateRenderer) {
		t.reuse = false
	}
}

// NewTemplateRenderer creates a renderer over fsys.
func NewTemplateRenderer(fsys fs.FS, opts ...TemplateOption) *TemplateRenderer {
	t := &TemplateRenderer{
		fsys:  fsys,
		funcs: template.FuncMap{},
		cache: make(map[string]*template.Template),
		ext:   ".html",
		reuse: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Funcs adds template functions. Call before the first render.
func (t *TemplateRenderer) Funcs(funcs template.FuncMap) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range funcs {
		t.funcs[k] = v
	}
	clear(t.cache)
}

func (t *TemplateRenderer) Render(_ context.Context, name string, data map[string]any) ([]byte, error) {
	tmpl, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("view: execute %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (t *TemplateRenderer) lookup(name string) (*template.Template, error) {
	if t.reuse {
		t.mu.RLock()
		tmpl, ok := t.cache[name]
		t.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	file := strings.ReplaceAll(name, ".", "/") + t.ext
	src, err := fs.ReadFile(t.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrViewNotFound, file)
		}
		return nil, fmt.Errorf("view: read %q: %w", file, err)
	}

	t.mu.RLock()
	tmpl, err := template.New(file).Funcs(t.funcs).Parse(string(src))
	t.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("view: parse %q: %w", file, err)
	}

	if t.reuse {
		t.mu.Lock()
		t.cache[name] = tmpl
		t.mu.Unlock()
	}
	return tmpl, nil
}
