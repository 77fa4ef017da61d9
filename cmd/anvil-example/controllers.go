package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/pkg/cache"
	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/validator"
)

// Visits counts page views.
type Visits struct {
	counters cache.Cache[int64]
}

func (v *Visits) Hit(ctx context.Context, page string) int64 {
	n, err := cache.Increment(ctx, v.counters, "visits:"+page, 1)
	if err != nil {
		return 0
	}
	return n
}

// appProvider binds the services the controllers depend on.
type appProvider struct{}

func (appProvider) Register(c *anvil.Container) error {
	return anvil.Singleton(c, func(r anvil.Resolver, _ anvil.Args) (*Visits, error) {
		cfg := anvil.MustMake[*config.Repository](r)
		dir := cfg.String("app.cache_dir", filepath.Join(os.TempDir(), "anvil-example"))
		counters, err := cache.NewFile[int64](dir, nil)
		if err != nil {
			return nil, err
		}
		return &Visits{counters: counters}, nil
	})
}

type HomeController struct {
	Config *config.Repository `inject:""`
	Visits *Visits            `inject:""`
}

func (h *HomeController) Index(req *anvil.Request) *anvil.View {
	status, _ := req.Session().Get("flash.status")
	return anvil.NewView("home", map[string]any{
		"app":      h.Config.String("app.name", "anvil"),
		"greeting": h.Config.String("app.greeting", "Hello"),
		"name":     "visitor",
		"visits":   h.Visits.Hit(req.Context(), "home"),
		"status":   status,
	})
}

type GreetController struct {
	Log *slog.Logger `inject:""`
}

// Hello renders a templ component directly.
func (g *GreetController) Hello(name string) *anvil.View {
	g.Log.Debug("greeting", slog.String("name", name))
	return anvil.ComponentView(templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<p>Hello, %s!</p>", html.EscapeString(name))
		return err
	}))
}

type ContactForm struct {
	anvil.FormRequest
}

func (f *ContactForm) Rules() validator.RuleSet {
	return validator.RuleSet{
		"name":  "required|min:2|max:64",
		"email": "required|email",
	}
}

type ContactsController struct {
	Log *slog.Logger `inject:""`
}

func (c *ContactsController) Create(req *anvil.Request) *anvil.View {
	return anvil.NewView("contacts.create", map[string]any{
		"old": map[string]any{
			"name":  req.Old("name"),
			"email": req.Old("email"),
		},
		"errors": req.Errors(),
	})
}

func (c *ContactsController) Store(form *ContactForm) *anvil.RedirectResponse {
	c.Log.InfoContext(form.Context(), "contact saved", slog.String("email", form.Input("email")))
	return anvil.RedirectRoute("home", nil).With("status", "Saved "+form.Input("name"))
}

func routes(r *anvil.Router) {
	r.Get("/", anvil.Action[*HomeController]("Index")).Name("home")
	r.Get("/hello/{name}", anvil.Action[*GreetController]("Hello")).Name("hello")
	r.Group("/contacts", func(r *anvil.Router) {
		r.Get("/new", anvil.Action[*ContactsController]("Create")).Name("contacts.create")
		r.Post("", anvil.Action[*ContactsController]("Store")).Name("contacts.store")
	}, "web")
	r.Get("/api/ping", func(*anvil.Request) (any, error) {
		return anvil.JSON(http.StatusOK, map[string]string{"status": "ok"}), nil
	})
}
