package user

import (
	"context"
	"errors"
	"testing"

	domain "jkd-coach-app/backend/internal/domain/user"
	"jkd-coach-app/backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *repository.UserRepository) {
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
	return NewService(users), users
}

func seedUser(t *testing.T, users *repository.UserRepository, username, email string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: email, PasswordHash: "x", IsActive: true}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestGetProfile(t *testing.T) {
	svc, users := newTestService(t)
	seeded := seedUser(t, users, "southpaw", "southpaw@example.com")

	got, err := svc.GetProfile(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.Username != "southpaw" {
		t.Fatalf("unexpected username: %q", got.Username)
	}

	if _, err := svc.GetProfile(context.Background(), 9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, users := newTestService(t)
	seeded := seedUser(t, users, "southpaw", "southpaw@example.com")
	seedUser(t, users, "orthodox", "orthodox@example.com")

	newName := "Lee Jun"
	updated, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{FullName: &newName})
	if err != nil {
		t.Fatalf("update full name: %v", err)
	}
	if updated.FullName != "Lee Jun" {
		t.Fatalf("full name not applied: %q", updated.FullName)
	}

	takenEmail := "orthodox@example.com"
	if _, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{Email: &takenEmail}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}

	takenUsername := "orthodox"
	if _, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{Username: &takenUsername}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}

	freshEmail := "lee@example.com"
	updated, err = svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{Email: &freshEmail})
	if err != nil {
		t.Fatalf("update email: %v", err)
	}
	if updated.Email != "lee@example.com" {
		t.Fatalf("email not applied: %q", updated.Email)
	}

	// Re-submitting the current email is a no-op, not a conflict.
	if _, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{Email: &freshEmail}); err != nil {
		t.Fatalf("idempotent email update: %v", err)
	}
}
