package cache

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// The page cache stores fully rendered listing responses keyed by route and
// page number. Any post write clears every cached listing page at once rather
// than tracking which pages a write touched; staleness is bounded by the TTL
// and by the next write.

// GetPage returns the cached rendered body for key, if present.
func GetPage(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	b, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		middleware.PageCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		middleware.PageCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	middleware.PageCacheLookups.WithLabelValues("hit").Inc()
	return b, true
}

// SetPage stores a rendered body under key with the given TTL. Best-effort.
func SetPage(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, body, ttl)
}

// InvalidateListings deletes every cached listing page.
func InvalidateListings(ctx context.Context) {
	if client == nil {
		return
	}

	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, ListingKeyPrefix+"*", 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
