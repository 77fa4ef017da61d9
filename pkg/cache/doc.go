// Package cache provides a generic Cache interface with memory, file and Redis implementations.
//
// TTL semantics for Set:
//   - Positive duration: item expires after this duration
//   - Zero: use the store's default TTL
//   - Negative: item never expires
//
// The file store keeps one file per key and, unless configured otherwise,
// treats a zero TTL as "never expires":
//
//	c, err := cache.NewFile[string]("storage/cache", nil)
//	_ = c.Set(ctx, "greeting", "hello", 10*time.Minute)
//	v, err := c.Get(ctx, "greeting")
//
// The memory store keeps values in process with optional LRU eviction:
//
//	c := cache.NewMemory[[]byte](cache.WithMemoryMaxEntries(10_000))
//	defer c.Close()
//
// The Redis store shares the interface:
//
//	c := cache.NewRedis[User](client, nil, cache.WithPrefix("users"))
//
// Counters work on any Cache[int64]; Redis uses INCRBY while the memory
// and file stores increment under their lock:
//
//	n, err := cache.Increment(ctx, hits, "home", 1)
//
// GetOrSet computes missing values once per key across concurrent callers:
//
//	v, err := cache.GetOrSet(ctx, c, "user:1", func(ctx context.Context) (User, time.Duration, error) {
//	    u, err := repo.Find(ctx, 1)
//	    return u, 5 * time.Minute, err
//	})
package cache
