package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// IncrementFailures increments the failure counter for a URL. The counter expires with the same
// TTL as frontier entries so a forgotten URL also forgets its failures.
func (r *FrontierRepoImpl) IncrementFailures(ctx context.Context, url, _ string) (int64, error) {
	key := r.prefix + failureInfix + url

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, unavailable("increment failures", err)
	}
	return incr.Val(), nil
}
