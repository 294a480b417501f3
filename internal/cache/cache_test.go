package cache_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"real-estate-cms/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewFromClient(client)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

type statsFixture struct {
	TotalProperties int64 `json:"total_properties"`
	ActiveLeads     int64 `json:"active_leads"`
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	in := statsFixture{TotalProperties: 12, ActiveLeads: 4}
	if err := c.Set(ctx, "dashboard:stats", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out statsFixture
	if err := c.Get(ctx, "dashboard:stats", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestCache_MissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var out statsFixture
	if err := c.Get(ctx, "absent", &out); err != cache.ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss for absent key, got %v", err)
	}

	if err := c.Set(ctx, "short", statsFixture{TotalProperties: 1}, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if err := c.Get(ctx, "short", &out); err != cache.ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestCache_DelInvalidates(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "dashboard:stats", statsFixture{TotalProperties: 9}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Del(ctx, "dashboard:stats"); err != nil {
		t.Fatalf("del: %v", err)
	}

	var out statsFixture
	if err := c.Get(ctx, "dashboard:stats", &out); err != cache.ErrCacheMiss {
		t.Fatalf("expected miss after invalidation, got %v", err)
	}

	// Deleting nothing is a no-op, not an error
	if err := c.Del(ctx); err != nil {
		t.Fatalf("empty del: %v", err)
	}
}

func TestChangefeed_PublishReachesSubscriber(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	sub := c.SubscribeChanges(ctx)
	defer sub.Close()

	// Wait for the subscription to be established before publishing
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	c.PublishChange(ctx, "lead", "created", "lead-123")

	select {
	case msg := <-sub.Channel():
		var event cache.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			t.Fatalf("payload not valid JSON: %v", err)
		}
		if event.Entity != "lead" || event.Action != "created" || event.ID != "lead-123" {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.Timestamp.IsZero() {
			t.Fatalf("timestamp not set")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
	}
}
