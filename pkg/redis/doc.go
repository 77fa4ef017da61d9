// Package redis opens go-redis clients from environment-backed configuration.
//
//	var cfg redis.Config
//	if err := env.Parse(&cfg); err != nil { ... }
//	client, err := redis.Open(ctx, cfg)
//
// Open retries the initial ping with linear backoff. Healthcheck and Shutdown
// return functions that plug into readiness probes and shutdown hooks.
// The client backs cache.Redis, which in turn backs Redis session storage.
package redis
