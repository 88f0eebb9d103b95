package repository

import (
	"context"
	"errors"
	"fmt"

	rounddomain "jkd-coach-app/backend/internal/domain/round"

	"gorm.io/gorm"
)

var (
	// ErrRoundNotFound means no round exists under the given id.
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundForbidden means the round exists but belongs to another owner.
	ErrRoundForbidden = errors.New("round belongs to a different owner")
)

// RoundRepository is the append-only store of scored rounds, keyed by owner.
type RoundRepository struct {
	db *gorm.DB
}

// NewRoundRepository builds a round repository on the shared *gorm.DB.
func NewRoundRepository(db *gorm.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

// Create appends a scored round. Rounds are never updated afterwards.
func (r *RoundRepository) Create(ctx context.Context, entity *rounddomain.Round) error {
	if entity == nil {
		return errors.New("round entity is nil")
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("create round: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's rounds ordered by creation time, most
// recent first. A limit of 0 or less returns the full history.
func (r *RoundRepository) ListByOwner(ctx context.Context, ownerID uint, limit int) ([]rounddomain.Round, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rounds []rounddomain.Round
	if err := query.Find(&rounds).Error; err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	return rounds, nil
}

// CountByOwner returns the number of rounds a user has logged.
func (r *RoundRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&rounddomain.Round{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count rounds: %w", err)
	}
	return total, nil
}

// DeleteByIDAndOwner removes a round after verifying ownership: a missing id
// yields ErrRoundNotFound, an id owned by someone else ErrRoundForbidden.
func (r *RoundRepository) DeleteByIDAndOwner(ctx context.Context, ownerID uint, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored rounddomain.Round
		if err := tx.Select("id", "owner_id").Where("id = ?", id).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoundNotFound
			}
			return fmt.Errorf("load round: %w", err)
		}
		if stored.OwnerID != ownerID {
			return ErrRoundForbidden
		}
		if err := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&rounddomain.Round{}).Error; err != nil {
			return fmt.Errorf("delete round: %w", err)
		}
		return nil
	})
}
