package round

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domain "jkd-coach-app/backend/internal/domain/round"
	"jkd-coach-app/backend/internal/repository"
	"jkd-coach-app/backend/internal/service/scoring"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Round{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := repository.NewRoundRepository(db)
	engine := scoring.MustNewEngine(scoring.DefaultPolicy())
	return NewService(repo, engine), db
}

func validPayload() map[string]any {
	return map[string]any{
		"pressure_score":     7.5,
		"ring_control_score": 6.0,
		"defense_score":      8.0,
		"clean_shots_taken":  2,
		"notes":              "kept range well",
	}
}

func TestScoreAndStorePersistsScoredRound(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	result, verr, err := svc.ScoreAndStore(ctx, 1, validPayload())
	if err != nil {
		t.Fatalf("score and store: %v", err)
	}
	if verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if result.ID == "" {
		t.Fatalf("expected a round id")
	}
	if result.DangerScore < 0 || result.DangerScore > 1 {
		t.Fatalf("danger score out of range: %f", result.DangerScore)
	}
	if result.Strategy.Code == "" {
		t.Fatalf("expected a strategy")
	}

	var stored domain.Round
	if err := db.First(&stored, "id = ?", result.ID).Error; err != nil {
		t.Fatalf("load stored round: %v", err)
	}
	if stored.OwnerID != 1 {
		t.Fatalf("expected owner 1, got %d", stored.OwnerID)
	}
	if stored.DangerScore != result.DangerScore {
		t.Fatalf("stored danger %f differs from result %f", stored.DangerScore, result.DangerScore)
	}
	if stored.StrategyCode != string(result.Strategy.Code) {
		t.Fatalf("stored strategy %q differs from result %q", stored.StrategyCode, result.Strategy.Code)
	}
	if stored.Notes != "kept range well" {
		t.Fatalf("notes not persisted: %q", stored.Notes)
	}
}

func TestScoreAndStoreRejectsInvalidPayloadWithoutPersisting(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	payload := validPayload()
	payload["pressure_score"] = 12.0
	payload["clean_shots_taken"] = -1

	_, verr, err := svc.ScoreAndStore(ctx, 1, payload)
	if err != nil {
		t.Fatalf("unexpected internal error: %v", err)
	}
	if verr == nil {
		t.Fatalf("expected validation error")
	}
	if _, ok := verr.Fields["pressure_score"]; !ok {
		t.Fatalf("expected pressure_score to be flagged: %v", verr.Fields)
	}
	if _, ok := verr.Fields["clean_shots_taken"]; !ok {
		t.Fatalf("expected clean_shots_taken to be flagged: %v", verr.Fields)
	}

	var count int64
	if err := db.Model(&domain.Round{}).Count(&count).Error; err != nil {
		t.Fatalf("count rounds: %v", err)
	}
	if count != 0 {
		t.Fatalf("invalid payload must not be persisted, found %d rows", count)
	}
}

func TestHistoryClampsLimitAndOrdersNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		payload := validPayload()
		payload["notes"] = fmt.Sprintf("round %d", i)
		if _, verr, err := svc.ScoreAndStore(ctx, 3, payload); err != nil || verr != nil {
			t.Fatalf("seed round %d: err=%v verr=%v", i, err, verr)
		}
	}

	rounds, err := svc.History(ctx, 3, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(rounds))
	}

	// Zero limit falls back to the default and returns everything here.
	all, err := svc.History(ctx, 3, 0)
	if err != nil {
		t.Fatalf("history default limit: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 rounds, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].CreatedAt.Before(all[i].CreatedAt) {
			t.Fatalf("expected newest-first ordering")
		}
	}

	// Another user sees nothing.
	other, err := svc.History(ctx, 99, 0)
	if err != nil {
		t.Fatalf("history other owner: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty history for other owner, got %d", len(other))
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	result, verr, err := svc.ScoreAndStore(ctx, 1, validPayload())
	if err != nil || verr != nil {
		t.Fatalf("seed round: err=%v verr=%v", err, verr)
	}

	if err := svc.Delete(ctx, 2, result.ID); !errors.Is(err, ErrRoundForbidden) {
		t.Fatalf("expected forbidden for wrong owner, got %v", err)
	}

	if err := svc.Delete(ctx, 1, result.ID); err != nil {
		t.Fatalf("delete own round: %v", err)
	}

	if err := svc.Delete(ctx, 1, result.ID); !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	if err := svc.Delete(ctx, 1, "no-such-id"); !errors.Is(err, ErrRoundNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}
