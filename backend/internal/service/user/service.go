package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "jkd-coach-app/backend/internal/domain/user"
	"jkd-coach-app/backend/internal/repository"

	"gorm.io/gorm"
)

// Service reads and updates user profiles.
type Service struct {
	users *repository.UserRepository
}

// NewService constructs the user service.
func NewService(users *repository.UserRepository) *Service {
	return &Service{users: users}
}

var (
	// ErrUserNotFound means the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken means the new email belongs to another account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken means the new username belongs to another account.
	ErrUsernameTaken = errors.New("username already taken")
)

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
	FullName *string
}

// GetProfile returns the user's profile.
func (s *Service) GetProfile(ctx context.Context, userID uint) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the given changes after uniqueness checks and
// returns the refreshed user.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email != "" && email != u.Email {
			if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing.ID != userID {
				return nil, ErrEmailTaken
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("check email unique: %w", err)
			}
			u.Email = email
		}
	}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username != "" && username != u.Username {
			if existing, err := s.users.FindByUsername(ctx, username); err == nil && existing.ID != userID {
				return nil, ErrUsernameTaken
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("check username unique: %w", err)
			}
			u.Username = username
		}
	}

	if update.FullName != nil {
		u.FullName = strings.TrimSpace(*update.FullName)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return u, nil
}
