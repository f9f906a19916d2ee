package memory

import (
	"context"
	"sync"
	"time"

	exports "clinic-analytics/internal/exports/domain"
)

type entry struct {
	count     int64
	expiresAt time.Time
}

// Counter is an in-memory export counter for demo/testing.
type Counter struct {
	mu     sync.Mutex
	counts map[string]entry
	clock  func() time.Time
}

// NewCounter constructs a counter on the wall clock.
func NewCounter() *Counter {
	return NewCounterWithClock(func() time.Time { return time.Now().UTC() })
}

// NewCounterWithClock constructs a counter that expires windows against clock.
func NewCounterWithClock(clock func() time.Time) *Counter {
	return &Counter{counts: make(map[string]entry), clock: clock}
}

// Reserve increments the window counter. Entries of ended windows are swept first.
func (c *Counter) Reserve(ctx context.Context, tenantID string, window exports.Window) (int64, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()
	key := tenantID + ":" + window.Key
	current := c.live(key)
	current.count++
	current.expiresAt = window.End
	c.counts[key] = current
	return current.count, nil
}

// Release undoes one reservation, never below zero.
func (c *Counter) Release(ctx context.Context, tenantID string, window exports.Window) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	key := tenantID + ":" + window.Key
	current := c.live(key)
	if current.count == 0 {
		return nil
	}
	current.count--
	c.counts[key] = current
	return nil
}

// Used returns the window counter.
func (c *Counter) Used(ctx context.Context, tenantID string, window exports.Window) (int64, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live(tenantID + ":" + window.Key).count, nil
}

// live drops the entry once its window has ended. Caller holds mu.
func (c *Counter) live(key string) entry {
	current, ok := c.counts[key]
	if !ok {
		return entry{}
	}
	if !current.expiresAt.IsZero() && !c.clock().Before(current.expiresAt) {
		delete(c.counts, key)
		return entry{}
	}
	return current
}

// sweep drops every entry whose window has ended. Caller holds mu.
func (c *Counter) sweep() {
	now := c.clock()
	for key, current := range c.counts {
		if !current.expiresAt.IsZero() && !now.Before(current.expiresAt) {
			delete(c.counts, key)
		}
	}
}
