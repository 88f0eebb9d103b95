package stats

import (
	"context"
	"fmt"

	domain "jkd-coach-app/backend/internal/domain/round"
	appLogger "jkd-coach-app/backend/internal/infra/logger"
	"jkd-coach-app/backend/internal/repository"
	"jkd-coach-app/backend/internal/service/scoring"

	"go.uber.org/zap"
)

// Service recomputes the dashboard aggregate from the owner's full round
// history on every request. Nothing is cached, so a just-deleted round
// disappears from the summary immediately.
type Service struct {
	rounds *repository.RoundRepository
	engine *scoring.Engine
	logger *zap.SugaredLogger
}

// NewService wires the stats service. The engine re-derives the next game
// plan at read time.
func NewService(rounds *repository.RoundRepository, engine *scoring.Engine) *Service {
	return &Service{
		rounds: rounds,
		engine: engine,
		logger: appLogger.S().With("component", "stats.service"),
	}
}

// Summary aggregates the owner's history. With no rounds it returns the
// zero-valued summary: counts and averages at zero, no date, no game plan.
func (s *Service) Summary(ctx context.Context, ownerID uint) (domain.DashboardSummary, error) {
	rounds, err := s.rounds.ListByOwner(ctx, ownerID, 0)
	if err != nil {
		s.logger.With("operation", "summary").Errorw("list rounds failed", "error", err, "owner_id", ownerID)
		return domain.DashboardSummary{}, fmt.Errorf("list rounds: %w", err)
	}

	summary := domain.DashboardSummary{TotalRounds: len(rounds)}
	if len(rounds) == 0 {
		return summary, nil
	}

	var dangerSum, pressureSum, controlSum, defenseSum, shotsSum float64
	for _, r := range rounds {
		dangerSum += r.DangerScore
		pressureSum += r.PressureScore
		controlSum += r.RingControlScore
		defenseSum += r.DefenseScore
		shotsSum += float64(r.CleanShotsTaken)
	}

	n := float64(len(rounds))
	summary.AvgDangerScore = dangerSum / n
	summary.Averages = domain.MetricAverages{
		PressureScore:    pressureSum / n,
		RingControlScore: controlSum / n,
		DefenseScore:     defenseSum / n,
		CleanShotsTaken:  shotsSum / n,
	}

	// ListByOwner orders newest first, so the head row carries the most
	// recent date and feeds the next game plan.
	latest := rounds[0]
	createdAt := latest.CreatedAt
	summary.MostRecentRoundDate = &createdAt

	// The plan is re-derived from the latest round's metrics instead of read
	// back from its stored strategy columns, so a policy change reaches
	// rounds scored before it.
	record := latest.Metrics()
	plan := s.engine.SelectStrategy(record, s.engine.DangerScore(record))
	summary.NextGamePlan = &plan

	return summary, nil
}
