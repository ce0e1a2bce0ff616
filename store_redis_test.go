package policycache

import (
	"context"
	"errors"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/goforj/policycache/cachetest"
	"github.com/redis/go-redis/v9"
)

type stubRedisClient struct {
	store map[string]string

	getErr  error
	setErr  error
	delErr  error
	scanErr error

	setExpirations []time.Duration
}

func newStubRedisClient() *stubRedisClient {
	return &stubRedisClient{store: map[string]string{}}
}

func (c *stubRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if c.getErr != nil {
		cmd.SetErr(c.getErr)
		return cmd
	}
	v, ok := c.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (c *stubRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if c.setErr != nil {
		cmd.SetErr(c.setErr)
		return cmd
	}
	c.setExpirations = append(c.setExpirations, expiration)
	switch v := value.(type) {
	case []byte:
		c.store[key] = string(v)
	case string:
		c.store[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

func (c *stubRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if c.delErr != nil {
		cmd.SetErr(c.delErr)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := c.store[k]; ok {
			delete(c.store, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (c *stubRedisClient) Scan(ctx context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	cmd := redis.NewScanCmd(ctx, nil)
	if c.scanErr != nil {
		cmd.SetErr(c.scanErr)
		return cmd
	}
	var keys []string
	for k := range c.store {
		if ok, _ := path.Match(match, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	cmd.SetVal(keys, 0)
	return cmd
}

func TestRedisStoreContractWithStub(t *testing.T) {
	cachetest.RunStoreContract(t, newRedisStore(newStubRedisClient(), "pfx"), cachetest.Options{})
}

func TestRedisStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	store := newRedisStore(client, "pfx")
	_ = store.Set(ctx, "a", []byte("value"))

	body, ok, err := store.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	body[0] = 'X'

	if got := client.store["pfx:a"]; got != "value" {
		t.Fatalf("expected reply untouched, got %q", got)
	}
	again, _, _ := store.Get(ctx, "a")
	if string(again) != "value" {
		t.Fatalf("expected stored value unchanged, got %q", again)
	}
}

func TestRedisStoreNilClientErrors(t *testing.T) {
	ctx := context.Background()
	store := newRedisStore(nil, "")
	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, errRedisUnavailable) {
		t.Fatalf("expected get error when redis client is nil")
	}
	if err := store.Set(ctx, "k", []byte("v")); err == nil {
		t.Fatalf("expected set error when redis client is nil")
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Fatalf("expected delete error when redis client is nil")
	}
	if err := store.DeleteMany(ctx, "a", "b"); err == nil {
		t.Fatalf("expected delete many error when redis client is nil")
	}
	if err := store.Flush(ctx); err == nil {
		t.Fatalf("expected flush error when redis client is nil")
	}
}

func TestRedisStorePrefixesAndNeverExpires(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	store := newRedisStore(client, "pfx")

	if err := store.Set(ctx, "alpha", []byte("one")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if client.store["pfx:alpha"] != "one" {
		t.Fatalf("expected prefixed key, got %v", client.store)
	}
	for _, exp := range client.setExpirations {
		if exp != 0 {
			t.Fatalf("expected no expiration, got %s", exp)
		}
	}

	if got := newRedisStore(client, "").(*redisStore).prefix; got != defaultCachePrefix {
		t.Fatalf("expected default prefix, got %q", got)
	}
}

func TestRedisStoreFlushRespectsPrefix(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	client.store["other:keep"] = "1"
	store := newRedisStore(client, "pfx")
	_ = store.Set(ctx, "a", []byte("1"))

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, ok := client.store["other:keep"]; !ok {
		t.Fatalf("flush must not touch other prefixes")
	}
	if _, ok := client.store["pfx:a"]; ok {
		t.Fatalf("expected prefixed key flushed")
	}
}

func TestRedisStoreErrorPropagation(t *testing.T) {
	ctx := context.Background()

	client := newStubRedisClient()
	client.getErr = errors.New("get")
	if _, _, err := newRedisStore(client, "pfx").Get(ctx, "k"); err == nil {
		t.Fatalf("expected get error")
	}

	client = newStubRedisClient()
	client.setErr = errors.New("set")
	if err := newRedisStore(client, "pfx").Set(ctx, "k", []byte("v")); err == nil {
		t.Fatalf("expected set error")
	}

	client = newStubRedisClient()
	client.scanErr = errors.New("scan")
	if err := newRedisStore(client, "pfx").Flush(ctx); err == nil {
		t.Fatalf("expected flush scan error")
	}

	client = newStubRedisClient()
	client.delErr = errors.New("del")
	client.store["pfx:a"] = "1"
	if err := newRedisStore(client, "pfx").Flush(ctx); err == nil {
		t.Fatalf("expected flush delete error")
	}
}
