package cache

import (
	"sync"
	"time"

	"TitaniumDesk/pkg/clock"
)

type entry struct {
	v   []byte
	exp time.Time
}

// TTLCache is an in-process SnapshotStore with per-key expiry.
type TTLCache struct {
	clock clock.Clock
	mu    sync.RWMutex
	m     map[string]entry
}

func NewTTLCache(clk clock.Clock) *TTLCache {
	if clk == nil {
		clk = clock.Real()
	}
	return &TTLCache{clock: clk, m: make(map[string]entry)}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && c.clock.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(e.v))
	copy(out, e.v)
	return out, true, nil
}

// SetBytes stores a copy of value. A non-positive ttl never expires.
func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.clock.Now().Add(ttl)
	}
	v := make([]byte, len(value))
	copy(v, value)
	c.mu.Lock()
	c.m[key] = entry{v: v, exp: exp}
	c.mu.Unlock()
	return nil
}
