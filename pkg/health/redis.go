package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisCheck pings client.
func RedisCheck(client redis.UniversalClient) CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
