// Package session provides the per-visitor key/value document and its stores.
//
// Session data is a JSON document addressed with dot paths:
//
//	sess.Put("cart.items", []string{"apple"})
//	sess.Push("cart.items", "pear")
//	items, _ := session.Value[[]string](sess, "cart.items")
//
// Flash data lives under the "flash" and "errors" roots. Sweep removes
// everything under those roots except the paths written during the current
// request, so a flashed value survives exactly one following request.
//
// Stores: MemoryStore (cache.Memory, for development and tests), CacheStore
// over any byte cache such as cache.Redis, and PostgresStore. The
// PostgresStore table ships as a goose migration in Migrations.
package session
