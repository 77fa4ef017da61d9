// Package anvil is a request-dispatch framework built around a dependency
// injection container, a regex router and middleware pipelines.
//
// Controllers are plain structs. The container builds them for every request,
// filling fields tagged `inject` and constructor parameters by type. Actions
// return results (views, redirects, JSON, raw responses) and errors; the
// kernel turns both into HTTP responses.
//
// # Quick Start
//
//	type Greeter struct {
//	    Log *slog.Logger `inject:""`
//	}
//
//	func (g *Greeter) Hello(name string) *anvil.Response {
//	    return anvil.NewResponse(http.StatusOK, []byte("Hi, "+name))
//	}
//
//	app, err := anvil.New(
//	    anvil.WithRoutes(func(r *anvil.Router) {
//	        r.Get("/hello/{name}", anvil.Action[*Greeter]("Hello")).Name("hello")
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := app.Run(anvil.Address(":8080")); err != nil {
//	    log.Fatal(err)
//	}
//
// # Service Providers
//
// Providers register bindings during boot. Providers implementing [Booter]
// are booted after every provider has registered:
//
//	type AppProvider struct{}
//
//	func (AppProvider) Register(c *anvil.Container) error {
//	    return anvil.Singleton(c, func(r anvil.Resolver, _ anvil.Args) (*Mailer, error) {
//	        return NewMailer(anvil.MustMake[*slog.Logger](r)), nil
//	    })
//	}
//
// # Pipes
//
// Pipes wrap dispatch. A pipe either calls next or returns its own result:
//
//	auth := anvil.PipeFunc(func(req *anvil.Request, next anvil.Next) (any, error) {
//	    if req.Header("Authorization") == "" {
//	        return nil, anvil.NewHTTPError(http.StatusUnauthorized, "")
//	    }
//	    return next(req)
//	})
//
//	anvil.New(
//	    anvil.WithPipes(middlewares.RequestID(), middlewares.Recover()),
//	    anvil.WithRoutePipes("auth", auth),
//	    anvil.WithRoutes(func(r *anvil.Router) {
//	        r.Group("/admin", func(r *anvil.Router) {
//	            r.Get("/", anvil.Action[*Dashboard]("Index"))
//	        }, "auth")
//	    }),
//	)
//
// # Form Requests
//
// Structs embedding [FormRequest] are bound from the request input and
// validated before the action runs. A failed validation redirects back with
// the errors flashed to the session, or answers 422 to JSON clients.
//
//	type SignupForm struct {
//	    anvil.FormRequest
//	}
//
//	func (f *SignupForm) Rules() validator.RuleSet {
//	    return validator.RuleSet{"email": "required|email"}
//	}
//
//	func (c *Accounts) Store(form *SignupForm) *anvil.RedirectResponse {
//	    return anvil.RedirectRoute("home", nil).With("status", "Welcome, "+form.Input("email"))
//	}
//
// # Shutdown
//
// Run handles SIGINT/SIGTERM for graceful shutdown. Register cleanup
// functions with ShutdownHook:
//
//	app.Run(
//	    anvil.ShutdownHook(func(ctx context.Context) error {
//	        pool.Close()
//	        return nil
//	    }),
//	)
package anvil
