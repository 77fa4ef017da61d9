// Package db opens PostgreSQL connection pools with [github.com/jackc/pgx/v5/pgxpool].
//
// Settings come from the environment (see [Config]); parse them with
// config.FromEnv and connect:
//
//	cfg, err := config.FromEnv[db.Config]()
//	pool, err := db.Connect(ctx, cfg)
//
// Register [Healthcheck] as a readiness check and [Shutdown] as a shutdown hook.
package db
