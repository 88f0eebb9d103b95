package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "jkd-coach-app/backend/internal/domain/user"
	"jkd-coach-app/backend/internal/infra/token"
	"jkd-coach-app/backend/internal/repository"
	"jkd-coach-app/backend/internal/service/auth"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*auth.Service, *repository.UserRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepository(db)
	manager := token.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	store := token.NewMemoryRefreshTokenStore()

	return auth.NewService(users, manager, store, nil, nil), users
}

func registerParams() auth.RegisterParams {
	return auth.RegisterParams{
		Username: "southpaw",
		Email:    "southpaw@example.com",
		Password: "long-enough-password",
		FullName: "Lee Jun",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	user, tokens, err := svc.Register(ctx, registerParams())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected persisted user id")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected tokens after register")
	}

	stored, err := users.FindByEmail(ctx, "southpaw@example.com")
	if err != nil {
		t.Fatalf("find registered user: %v", err)
	}
	if stored.PasswordHash == "long-enough-password" {
		t.Fatalf("password must be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("long-enough-password")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	// Login by email.
	loggedIn, _, err := svc.Login(ctx, auth.LoginParams{Identifier: "southpaw@example.com", Password: "long-enough-password"})
	if err != nil {
		t.Fatalf("login by email: %v", err)
	}
	if loggedIn.LastLoginAt == nil {
		t.Fatalf("expected last login timestamp to be set")
	}

	// Login by username.
	if _, _, err := svc.Login(ctx, auth.LoginParams{Identifier: "southpaw", Password: "long-enough-password"}); err != nil {
		t.Fatalf("login by username: %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newTestService(t)

	params := registerParams()
	params.Password = "short"

	if _, _, err := svc.Register(context.Background(), params); !errors.Is(err, auth.ErrPasswordTooShort) {
		t.Fatalf("expected password too short, got %v", err)
	}
}

func TestRegisterReportsConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, registerParams()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	dup := registerParams()
	if _, _, err := svc.Register(ctx, dup); !errors.Is(err, auth.ErrEmailAndUsernameTaken) {
		t.Fatalf("expected both-taken error, got %v", err)
	}

	emailOnly := registerParams()
	emailOnly.Username = "orthodox"
	if _, _, err := svc.Register(ctx, emailOnly); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("expected email-taken error, got %v", err)
	}

	usernameOnly := registerParams()
	usernameOnly.Email = "other@example.com"
	if _, _, err := svc.Register(ctx, usernameOnly); !errors.Is(err, auth.ErrUsernameTaken) {
		t.Fatalf("expected username-taken error, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, registerParams()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, auth.LoginParams{Identifier: "southpaw", Password: "wrong-password"}); !errors.Is(err, auth.ErrInvalidLogin) {
		t.Fatalf("expected invalid login for bad password, got %v", err)
	}
	if _, _, err := svc.Login(ctx, auth.LoginParams{Identifier: "nobody", Password: "long-enough-password"}); !errors.Is(err, auth.ErrInvalidLogin) {
		t.Fatalf("expected invalid login for unknown user, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, tokens, err := svc.Register(ctx, registerParams())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatalf("expected a new refresh token after rotation")
	}

	// The old token was consumed by the rotation.
	if _, _, err := svc.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, auth.ErrRefreshTokenRevoked) {
		t.Fatalf("expected revoked error for reused token, got %v", err)
	}

	// The new token still works.
	if _, _, err := svc.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, tokens, err := svc.Register(ctx, registerParams())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, _, err := svc.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, auth.ErrRefreshTokenRevoked) {
		t.Fatalf("expected revoked error after logout, got %v", err)
	}

	// Logout is idempotent.
	if err := svc.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("second logout should succeed: %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t)

	if _, _, err := svc.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, auth.ErrRefreshTokenInvalid) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
	if _, _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, auth.ErrRefreshTokenRequired) {
		t.Fatalf("expected required error for empty token, got %v", err)
	}
}
