package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"e2egateway/internal/domain"
	"e2egateway/internal/store"
)

// exerciseCache runs the contract every domain.KeyCache must satisfy.
func exerciseCache(t *testing.T, c domain.KeyCache) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "ECHOECHO"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	k := domain.PublicKey{1, 2, 3}
	if err := c.Put(ctx, "ECHOECHO", k); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := c.Get(ctx, "ECHOECHO")
	if err != nil || !ok || got != k {
		t.Fatalf("get: %v %v %v", got, ok, err)
	}
	if err := c.Put(ctx, "OTHER000", domain.PublicKey{9}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Delete(ctx, "ECHOECHO"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "ECHOECHO"); ok {
		t.Fatal("entry survived delete")
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "OTHER000"); ok {
		t.Fatal("entry survived clear")
	}
}

func TestMemoryKeyCache(t *testing.T) {
	exerciseCache(t, store.NewMemoryKeyCache(0))
}

func TestMemoryKeyCache_TTL(t *testing.T) {
	c := store.NewMemoryKeyCache(time.Nanosecond)
	_ = c.Put(context.Background(), "ECHOECHO", domain.PublicKey{1})
	time.Sleep(time.Millisecond)
	if _, ok, _ := c.Get(context.Background(), "ECHOECHO"); ok {
		t.Fatal("expired entry returned")
	}
}

func TestMemoryKeyCache_Overfill(t *testing.T) {
	c := store.NewMemoryKeyCache(0)
	ctx := context.Background()
	for i := 0; i < 1100; i++ {
		_ = c.Put(ctx, domain.Identity(fmt.Sprintf("ID%06d", i)), domain.PublicKey{byte(i)})
	}
	if n := c.Len(); n > 1024 {
		t.Fatalf("cache grew to %d entries", n)
	}
}

func newRedisCache(t *testing.T) (*miniredis.Miniredis, *store.RedisKeyCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := store.NewRedisKeyCache(rdb, "", time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisKeyCache(t *testing.T) {
	_, c := newRedisCache(t)
	exerciseCache(t, c)
}

func TestRedisKeyCache_TTLAndCorruptEntry(t *testing.T) {
	mr, c := newRedisCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "ECHOECHO", domain.PublicKey{1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ttl := mr.TTL(store.DefaultRedisPrefix + "ECHOECHO"); ttl != time.Hour {
		t.Fatalf("ttl %v", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if _, ok, _ := c.Get(ctx, "ECHOECHO"); ok {
		t.Fatal("expired entry returned")
	}

	if err := mr.Set(store.DefaultRedisPrefix+"BROKEN00", "zz"); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(ctx, "BROKEN00"); ok || err != nil {
		t.Fatalf("corrupt entry: ok=%v err=%v", ok, err)
	}
	if mr.Exists(store.DefaultRedisPrefix + "BROKEN00") {
		t.Fatal("corrupt entry not removed")
	}
}

func TestOpenRedisKeyCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := store.OpenRedisKeyCache(context.Background(), "redis://"+mr.Addr()+"/0", "", 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()
	if _, err := store.OpenRedisKeyCache(context.Background(), "not a url", "", 0); err == nil {
		t.Fatal("expected error for bad url")
	}
}
