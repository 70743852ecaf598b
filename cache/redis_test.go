package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisCache(t *testing.T) {
	url := os.Getenv("RXOCR_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RXOCR_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	prefix := "rxocr:test:" + time.Now().Format("150405.000000") + ":"
	c, client, err := DialRedis(ctx, url, prefix, time.Minute)
	if err != nil {
		t.Fatalf("DialRedis() error = %v", err)
	}
	defer client.Close()

	key := Key("payload")
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, key, "Rx: ibuprofen"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	text, ok, err := c.Get(ctx, key)
	if err != nil || !ok || text != "Rx: ibuprofen" {
		t.Fatalf("Get() = %q, %v, %v", text, ok, err)
	}
	client.Del(ctx, prefix+key)
}

func TestDialRedisBadURL(t *testing.T) {
	if _, _, err := DialRedis(context.Background(), "not-a-url", "", 0); err == nil {
		t.Fatalf("expected parse error")
	}
}
