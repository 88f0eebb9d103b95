package token

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	domain "jkd-coach-app/backend/internal/domain/user"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
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

	return client, server, cleanup
}

func TestJWTManagerGenerateAndParseRefresh(t *testing.T) {
	manager := NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	user := &domain.User{ID: 42, Username: "southpaw"}

	pair, err := manager.GenerateTokens(context.Background(), user)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens to be issued")
	}
	if pair.RefreshTokenID == "" {
		t.Fatalf("expected refresh token id to be set")
	}
	if pair.ExpiresIn <= 0 {
		t.Fatalf("expected positive access expiry, got %d", pair.ExpiresIn)
	}

	claims, err := manager.ParseRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.TokenID != pair.RefreshTokenID {
		t.Fatalf("expected jti %q, got %q", pair.RefreshTokenID, claims.TokenID)
	}
}

func TestJWTManagerRejectsAccessTokenAsRefresh(t *testing.T) {
	manager := NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	user := &domain.User{ID: 7, Username: "orthodox"}

	pair, err := manager.GenerateTokens(context.Background(), user)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	if _, err := manager.ParseRefreshToken(pair.AccessToken); err == nil {
		t.Fatalf("expected access token to be rejected")
	}
}

func TestJWTManagerRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", time.Minute, time.Hour)
	verifier := NewJWTManager("secret-b", time.Minute, time.Hour)

	pair, err := issuer.GenerateTokens(context.Background(), &domain.User{ID: 1, Username: "a"})
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	if _, err := verifier.ParseRefreshToken(pair.RefreshToken); err == nil {
		t.Fatalf("expected signature verification to fail")
	}
}

func TestRedisRefreshTokenStoreLifecycle(t *testing.T) {
	client, server, cleanup := newRedisClient(t)
	defer cleanup()

	store := NewRedisRefreshTokenStore(client, "test:refresh")
	ctx := context.Background()

	if err := store.Save(ctx, 1, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("save: %v", err)
	}

	ok, err := store.Exists(ctx, 1, "jti-1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected token to exist after save")
	}

	if err := store.Delete(ctx, 1, "jti-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ok, err = store.Exists(ctx, 1, "jti-1")
	if err != nil {
		t.Fatalf("exists after delete: %v", err)
	}
	if ok {
		t.Fatalf("expected token to be gone after delete")
	}

	// Expired entries lapse with the key TTL.
	if err := store.Save(ctx, 2, "jti-2", time.Now().Add(time.Second)); err != nil {
		t.Fatalf("save short-lived: %v", err)
	}
	server.FastForward(2 * time.Second)

	ok, err = store.Exists(ctx, 2, "jti-2")
	if err != nil {
		t.Fatalf("exists after ttl: %v", err)
	}
	if ok {
		t.Fatalf("expected token to expire with its ttl")
	}
}

func TestMemoryRefreshTokenStoreLifecycle(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	ctx := context.Background()

	if err := store.Save(ctx, 9, "jti-9", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("save: %v", err)
	}

	ok, err := store.Exists(ctx, 9, "jti-9")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !ok {
		t.Fatalf("expected token to exist")
	}

	if err := store.Save(ctx, 9, "jti-old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("save expired: %v", err)
	}
	ok, err = store.Exists(ctx, 9, "jti-old")
	if err != nil {
		t.Fatalf("exists expired: %v", err)
	}
	if ok {
		t.Fatalf("expected expired token to be rejected")
	}

	if err := store.Delete(ctx, 9, "jti-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, _ = store.Exists(ctx, 9, "jti-9")
	if ok {
		t.Fatalf("expected token to be gone after delete")
	}
}
