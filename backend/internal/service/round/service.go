package round

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "jkd-coach-app/backend/internal/domain/round"
	appLogger "jkd-coach-app/backend/internal/infra/logger"
	"jkd-coach-app/backend/internal/infra/metrics"
	"jkd-coach-app/backend/internal/repository"
	"jkd-coach-app/backend/internal/service/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRoundNotFound means the round does not exist.
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundForbidden means the round belongs to another user.
	ErrRoundForbidden = errors.New("round belongs to another user")
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// ScoreResult is what the caller gets back after logging a round: the stored
// ID, the computed danger score and the recommended strategy.
type ScoreResult struct {
	ID          string          `json:"id"`
	DangerScore float64         `json:"danger_score"`
	Strategy    domain.Strategy `json:"next_game_plan"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Service validates, scores and persists sparring rounds.
type Service struct {
	rounds *repository.RoundRepository
	engine *scoring.Engine
	logger *zap.SugaredLogger
}

// NewService wires the round service.
func NewService(rounds *repository.RoundRepository, engine *scoring.Engine) *Service {
	return &Service{
		rounds: rounds,
		engine: engine,
		logger: appLogger.S().With("component", "round.service"),
	}
}

// ScoreAndStore validates the raw payload, computes the danger score and
// strategy, persists the round under the owner and returns the result.
// Validation problems come back as *scoring.ValidationError with every
// offending field named.
func (s *Service) ScoreAndStore(ctx context.Context, ownerID uint, payload map[string]any) (ScoreResult, *scoring.ValidationError, error) {
	log := s.scope("score_and_store").With("owner_id", ownerID)
	started := time.Now()

	record, verr := scoring.ValidateMetrics(payload)
	if verr != nil {
		log.Warnw("metrics rejected", "fields", verr.Fields)
		return ScoreResult{}, verr, nil
	}

	danger, strategy := s.engine.Score(record)

	entity := &domain.Round{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		PressureScore:    record.PressureScore,
		RingControlScore: record.RingControlScore,
		DefenseScore:     record.DefenseScore,
		CleanShotsTaken:  record.CleanShotsTaken,
		GuardDownRatio:   record.GuardDownRatio,
		AvgHipRotation:   record.AvgHipRotation,
		AvgStanceWidth:   record.AvgStanceWidth,
		DangerScore:      danger,
		StrategyCode:     string(strategy.Code),
		StrategyTitle:    strategy.Title,
		StrategyText:     strategy.Text,
		Notes:            record.Notes,
	}

	if err := s.rounds.Create(ctx, entity); err != nil {
		log.Errorw("persist round failed", "error", err)
		return ScoreResult{}, nil, fmt.Errorf("persist round: %w", err)
	}

	metrics.ObserveRoundScored(string(strategy.Code), danger, time.Since(started))
	log.Infow("round scored",
		"round_id", entity.ID,
		"danger_score", danger,
		"strategy", strategy.Code,
	)

	return ScoreResult{
		ID:          entity.ID,
		DangerScore: danger,
		Strategy:    strategy,
		CreatedAt:   entity.CreatedAt,
	}, nil, nil
}

// History returns the owner's rounds newest first. A non-positive limit
// falls back to the default; anything above the cap is clamped.
func (s *Service) History(ctx context.Context, ownerID uint, limit int) ([]domain.Round, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rounds, err := s.rounds.ListByOwner(ctx, ownerID, limit)
	if err != nil {
		s.scope("history").Errorw("list rounds failed", "error", err, "owner_id", ownerID)
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	return rounds, nil
}

// Delete removes the round if it exists and belongs to the owner.
func (s *Service) Delete(ctx context.Context, ownerID uint, roundID string) error {
	log := s.scope("delete").With("owner_id", ownerID, "round_id", roundID)

	err := s.rounds.DeleteByIDAndOwner(ctx, ownerID, roundID)
	switch {
	case err == nil:
		log.Infow("round deleted")
		return nil
	case errors.Is(err, repository.ErrRoundNotFound):
		return ErrRoundNotFound
	case errors.Is(err, repository.ErrRoundForbidden):
		log.Warnw("delete rejected, wrong owner")
		return ErrRoundForbidden
	default:
		log.Errorw("delete round failed", "error", err)
		return fmt.Errorf("delete round: %w", err)
	}
}

func (s *Service) scope(operation string) *zap.SugaredLogger {
	return s.logger.With("operation", operation)
}
