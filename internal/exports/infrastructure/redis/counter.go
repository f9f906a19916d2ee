package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	exports "clinic-analytics/internal/exports/domain"
)

// releaseScript decrements without going below zero.
var releaseScript = redis.NewScript(`
local v = redis.call('DECR', KEYS[1])
if v < 0 then
	redis.call('SET', KEYS[1], 0, 'KEEPTTL')
	v = 0
end
return v
`)

// Counter stores per tenant window export counts in Redis. Keys expire at the window end.
type Counter struct {
	client *redis.Client
}

// NewCounter connects and pings the Redis server.
func NewCounter(ctx context.Context, addr, password string, db int) (*Counter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Counter{client: client}, nil
}

// Key returns the counter key of tenant and window.
func Key(tenantID string, window exports.Window) string {
	return "export:" + tenantID + ":" + window.Key
}

// Reserve increments the counter and sets its expiry to the window end.
func (c *Counter) Reserve(ctx context.Context, tenantID string, window exports.Window) (int64, error) {
	if c == nil || c.client == nil {
		return 0, errors.New("export counter: nil client")
	}
	key := Key(tenantID, window)
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireAt(ctx, key, window.End)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reserve export: %w", err)
	}
	return incr.Val(), nil
}

// Release undoes one reservation.
func (c *Counter) Release(ctx context.Context, tenantID string, window exports.Window) error {
	if c == nil || c.client == nil {
		return errors.New("export counter: nil client")
	}
	if err := releaseScript.Run(ctx, c.client, []string{Key(tenantID, window)}).Err(); err != nil {
		return fmt.Errorf("release export: %w", err)
	}
	return nil
}

// Used returns the current count, zero when the key does not exist.
func (c *Counter) Used(ctx context.Context, tenantID string, window exports.Window) (int64, error) {
	if c == nil || c.client == nil {
		return 0, errors.New("export counter: nil client")
	}
	used, err := c.client.Get(ctx, Key(tenantID, window)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read export count: %w", err)
	}
	return used, nil
}

// Close closes the Redis connection.
func (c *Counter) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
