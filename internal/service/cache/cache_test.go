package cache

import (
	"testing"
	"time"

	"TitaniumDesk/pkg/clock"

	"github.com/alicebob/miniredis/v2"
)

func TestTTLCacheExpires(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	c := NewTTLCache(clk)
	if err := c.SetBytes("k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if b, ok, _ := c.GetBytes("k"); !ok || string(b) != "v" {
		t.Fatalf("expected hit, got %q %v", b, ok)
	}
	clk.Advance(2 * time.Second)
	if _, ok, _ := c.GetBytes("k"); ok {
		t.Fatalf("expected expiry")
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCache(RedisConfig{Addr: mr.Addr(), KeyPrefix: "desk:"})
	defer c.Close()

	if _, ok, err := c.GetBytes("snapshot"); ok || err != nil {
		t.Fatalf("expected miss without error, got %v %v", ok, err)
	}
	if err := c.SetBytes("snapshot", []byte(`{"v":1}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := mr.Get("desk:snapshot"); err != nil || got != `{"v":1}` {
		t.Fatalf("unexpected stored value %q %v", got, err)
	}
	if ttl := mr.TTL("desk:snapshot"); ttl != time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	b, ok, err := c.GetBytes("snapshot")
	if err != nil || !ok || string(b) != `{"v":1}` {
		t.Fatalf("unexpected get %q %v %v", b, ok, err)
	}
}
