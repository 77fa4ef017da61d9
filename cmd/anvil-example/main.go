package main

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/middlewares"
	"github.com/dmitrymomot/anvil/pkg/cache"
	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/db"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/redis"
	"github.com/dmitrymomot/anvil/pkg/session"
)

//go:embed views
var views embed.FS

//go:embed config/*.yaml
var configFiles embed.FS

func main() {
	ctx := context.Background()

	appCfg := config.MustFromEnv[config.App]()
	log := logger.New(config.MustFromEnv[logger.Config](), middlewares.RequestIDExtractor())

	repo, err := loadConfig(appCfg)
	if err != nil {
		log.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	backend, err := openSessionBackend(ctx, log)
	if err != nil {
		log.Error("failed to open session store", slog.Any("error", err))
		os.Exit(1)
	}

	viewFS, _ := fs.Sub(views, "views")
	tmplOpts := []anvil.TemplateOption{
		anvil.WithTemplateFuncs(template.FuncMap{"upper": strings.ToUpper}),
	}
	if appCfg.IsDevelopment() {
		tmplOpts = append(tmplOpts, anvil.WithTemplateReload())
	}

	app, err := anvil.New(
		anvil.WithLogger(log),
		anvil.WithConfig(repo),
		anvil.WithDevelopment(appCfg.Debug || appCfg.IsDevelopment()),
		anvil.WithProviders(appProvider{}),
		anvil.WithViews(viewFS, tmplOpts...),
		anvil.WithSession(backend.store,
			anvil.WithSessionCookieName(appCfg.Name+"_session"),
			anvil.WithSessionSecure(!appCfg.IsDevelopment()),
		),
		anvil.WithPipes(
			middlewares.RequestID(),
			middlewares.Recover(middlewares.WithRecoverLogger(log)),
			middlewares.Timeout(15*time.Second),
		),
		anvil.WithRoutePipes("web", middlewares.SanitizeInput()),
		anvil.WithRoutes(routes),
		anvil.WithHealthChecks(backend.checks...),
	)
	if err != nil {
		log.Error("failed to boot application", slog.Any("error", err))
		os.Exit(1)
	}

	runOpts := append([]anvil.RunOption{
		anvil.Address(appCfg.Address),
		anvil.Logger(log),
		anvil.ShutdownTimeout(appCfg.ShutdownTimeout),
	}, backend.hooks...)

	if err := app.Run(runOpts...); err != nil {
		log.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

// loadConfig reads the YAML files from APP_CONFIG_DIR, falling back to the embedded defaults.
func loadConfig(appCfg config.App) (*config.Repository, error) {
	if info, err := os.Stat(appCfg.ConfigDir); err == nil && info.IsDir() {
		return config.LoadDir(appCfg.ConfigDir)
	}
	sub, err := fs.Sub(configFiles, "config")
	if err != nil {
		return nil, err
	}
	return config.Load(sub)
}

type sessionBackend struct {
	store  session.Store
	checks []anvil.HealthOption
	hooks  []anvil.RunOption
}

// openSessionBackend picks Redis when REDIS_URL is set, PostgreSQL when
// DATABASE_URL is set, and memory otherwise.
func openSessionBackend(ctx context.Context, log *slog.Logger) (*sessionBackend, error) {
	switch {
	case os.Getenv("REDIS_URL") != "":
		cfg, err := config.FromEnv[redis.Config]()
		if err != nil {
			return nil, err
		}
		client, err := redis.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("sessions stored in redis")
		return &sessionBackend{
			store:  session.NewCacheStore(cache.NewRedis[[]byte](client, nil, cache.WithPrefix("session"))),
			checks: []anvil.HealthOption{anvil.WithReadinessCheck("redis", redis.Healthcheck(client))},
			hooks:  []anvil.RunOption{anvil.ShutdownHook(redis.Shutdown(client))},
		}, nil

	case os.Getenv("DATABASE_URL") != "":
		cfg, err := config.FromEnv[db.Config]()
		if err != nil {
			return nil, err
		}
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool, session.Migrations, "anvil_migrations", log); err != nil {
			pool.Close()
			return nil, err
		}
		store := session.NewPostgresStore(pool)
		log.Info("sessions stored in postgres")
		return &sessionBackend{
			store:  store,
			checks: []anvil.HealthOption{anvil.WithReadinessCheck("postgres", db.Healthcheck(pool))},
			hooks: []anvil.RunOption{
				anvil.StartupHook(func(ctx context.Context) error {
					n, err := store.DeleteExpired(ctx)
					if err == nil && n > 0 {
						log.Info("expired sessions removed", slog.Int64("count", n))
					}
					return err
				}),
				anvil.ShutdownHook(db.Shutdown(pool)),
			},
		}, nil
	}

	log.Warn("sessions stored in memory; set REDIS_URL or DATABASE_URL to persist them")
	store := session.NewMemoryStore()
	return &sessionBackend{
		store: store,
		hooks: []anvil.RunOption{anvil.ShutdownHook(func(context.Context) error { return store.Close() })},
	}, nil
}
