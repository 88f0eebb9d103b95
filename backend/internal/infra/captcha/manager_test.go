package captcha

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && (errors.Is(opErr.Err, syscall.EPERM) || errors.Is(opErr.Err, syscall.EACCES)) {
			t.Skipf("environment does not allow listening sockets: %v", err)
		}
		t.Fatalf("start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	cleanup := func() {
		_ = client.Close()
		server.Close()
	}

	return client, cleanup
}

func TestManagerGenerateAndVerify(t *testing.T) {
	client, cleanup := newRedisClient(t)
	defer cleanup()

	manager := NewManager(client, Options{
		Prefix:          "test-captcha",
		TTL:             time.Minute,
		Length:          4,
		RateLimitPerMin: 5,
	})

	ctx := context.Background()
	id, b64, err := manager.Generate(ctx, "127.0.0.1")
	if err != nil {
		t.Fatalf("generate captcha: %v", err)
	}
	if id == "" {
		t.Fatalf("expected id to be non-empty")
	}
	if b64 == "" {
		t.Fatalf("expected image payload to be non-empty")
	}

	stored, err := client.Get(ctx, "test-captcha:"+id).Result()
	if err != nil {
		t.Fatalf("get stored answer: %v", err)
	}

	if err := manager.Verify(ctx, id, stored); err != nil {
		t.Fatalf("verify captcha: %v", err)
	}

	if _, err := client.Get(ctx, "test-captcha:"+id).Result(); err == nil {
		t.Fatalf("expected captcha entry to be deleted after verify")
	}
}

func TestManagerVerifyMismatch(t *testing.T) {
	client, cleanup := newRedisClient(t)
	defer cleanup()

	manager := NewManager(client, Options{Prefix: "c", TTL: time.Minute, RateLimitPerMin: 5})
	ctx := context.Background()

	id, _, err := manager.Generate(ctx, "10.0.0.2")
	if err != nil {
		t.Fatalf("generate captcha: %v", err)
	}

	if err := manager.Verify(ctx, id, "wrong"); err != ErrCaptchaMismatch {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestManagerVerifyMissing(t *testing.T) {
	client, cleanup := newRedisClient(t)
	defer cleanup()

	manager := NewManager(client, Options{Prefix: "c", TTL: time.Minute, RateLimitPerMin: 5})
	ctx := context.Background()

	id, _, err := manager.Generate(ctx, "10.0.0.3")
	if err != nil {
		t.Fatalf("generate captcha: %v", err)
	}

	if err := client.Del(ctx, "c:"+id).Err(); err != nil {
		t.Fatalf("delete entry: %v", err)
	}

	if err := manager.Verify(ctx, id, "whatever"); err != ErrCaptchaNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestManagerRateLimit(t *testing.T) {
	client, cleanup := newRedisClient(t)
	defer cleanup()

	manager := NewManager(client, Options{
		Prefix:          "rl",
		TTL:             time.Minute,
		RateLimitPerMin: 1,
	})

	ctx := context.Background()
	if _, _, err := manager.Generate(ctx, "8.8.8.8"); err != nil {
		t.Fatalf("first generate should succeed: %v", err)
	}

	if _, _, err := manager.Generate(ctx, "8.8.8.8"); err != ErrRateLimited {
		t.Fatalf("expected rate limited error, got %v", err)
	}
}
