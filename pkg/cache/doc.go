// Package cache holds lookup records close to the process.
//
// Two backends implement Cache: Memory, a bounded LRU with per-entry
// expiry, and Redis, which shares entries between processes as JSON.
// GetOrSet wraps either one as a read-through cache and collapses
// concurrent misses for the same key into a single load:
//
//	tmpl, err := cache.GetOrSet(ctx, c, "welcome", func(ctx context.Context) (Record, time.Duration, error) {
//		r, err := store.Find(ctx, "welcome")
//		return r, 10 * time.Minute, err
//	})
//
// OpenRedis dials and pings a redis:// or rediss:// URL with retries.
package cache
