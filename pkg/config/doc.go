// Package config loads application configuration.
//
// Settings that vary per deployment come from the environment and are read
// into structs with env tags:
//
//	app, err := config.FromEnv[config.App]()
//
// Structured settings live in YAML files. Load reads a directory of them
// into a Repository; each file name is a top-level key and values are
// addressed by dot paths:
//
//	repo, err := config.LoadDir("config")
//	url := repo.String("app.url", "http://localhost")
//	ttl := repo.Duration("session.lifetime", time.Hour)
//
// The repository is bound in the application container, so actions and
// services can ask for *config.Repository like any other dependency.
package config
