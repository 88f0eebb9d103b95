package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	domain "jkd-coach-app/backend/internal/domain/round"
	"jkd-coach-app/backend/internal/repository"
	"jkd-coach-app/backend/internal/service/scoring"
	"jkd-coach-app/backend/internal/service/stats"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeInvoker struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
	calls      int
}

func (f *fakeInvoker) ModelName() string { return "fake-model" }

func (f *fakeInvoker) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.reply, f.err
}

func newTestService(t *testing.T, invoker ChatInvoker) (*Service, *repository.RoundRepository) {
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
	statsSvc := stats.NewService(repo, scoring.MustNewEngine(scoring.DefaultPolicy()))
	return NewService(repo, statsSvc, invoker), repo
}

func seedRound(t *testing.T, repo *repository.RoundRepository, ownerID uint, createdAt time.Time) *domain.Round {
	t.Helper()
	guard := 0.4
	r := &domain.Round{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		PressureScore:    5,
		RingControlScore: 4,
		DefenseScore:     3,
		CleanShotsTaken:  7,
		GuardDownRatio:   &guard,
		DangerScore:      0.78,
		StrategyCode:     string(domain.StrategyDefenseFirst),
		StrategyTitle:    "Defense First",
		StrategyText:     "High guard, active feet. Max 2-punch combos.",
		Notes:            "got caught on the ropes",
		CreatedAt:        createdAt,
	}
	if err := repo.Create(context.Background(), r); err != nil {
		t.Fatalf("seed round: %v", err)
	}
	return r
}

func TestAdviseNoRounds(t *testing.T) {
	svc, _ := newTestService(t, &fakeInvoker{})

	if _, err := svc.Advise(context.Background(), 1, ""); !errors.Is(err, ErrNoRounds) {
		t.Fatalf("expected ErrNoRounds, got %v", err)
	}
}

func TestAdviseUsesModelReply(t *testing.T) {
	invoker := &fakeInvoker{reply: "Keep your guard up and circle left."}
	svc, repo := newTestService(t, invoker)
	seedRound(t, repo, 1, time.Now())

	advice, err := svc.Advise(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if advice.Source != "model" {
		t.Fatalf("expected model source, got %q", advice.Source)
	}
	if advice.Model != "fake-model" {
		t.Fatalf("expected model name, got %q", advice.Model)
	}
	if advice.Text != "Keep your guard up and circle left." {
		t.Fatalf("unexpected advice text: %q", advice.Text)
	}
	if advice.GamePlan.Code != domain.StrategyDefenseFirst {
		t.Fatalf("expected stored game plan, got %+v", advice.GamePlan)
	}
	if invoker.calls != 1 {
		t.Fatalf("expected one model call, got %d", invoker.calls)
	}

	// The prompt carries the latest round's telemetry and notes.
	if !strings.Contains(invoker.lastUser, "danger score 0.78") {
		t.Fatalf("prompt missing danger score: %q", invoker.lastUser)
	}
	if !strings.Contains(invoker.lastUser, "got caught on the ropes") {
		t.Fatalf("prompt missing notes: %q", invoker.lastUser)
	}
	if !strings.Contains(invoker.lastUser, "Guard was down 40%") {
		t.Fatalf("prompt missing guard ratio: %q", invoker.lastUser)
	}
}

func TestAdvisePassesQuestionToPrompt(t *testing.T) {
	invoker := &fakeInvoker{reply: "Work the body when he leans."}
	svc, repo := newTestService(t, invoker)
	seedRound(t, repo, 1, time.Now())

	if _, err := svc.Advise(context.Background(), 1, "  how do I deal with southpaws?  "); err != nil {
		t.Fatalf("advise: %v", err)
	}
	if !strings.Contains(invoker.lastUser, "Fighter's question: how do I deal with southpaws?") {
		t.Fatalf("prompt missing question: %q", invoker.lastUser)
	}
}

func TestAdviseTruncatesQuestionOnRuneBoundary(t *testing.T) {
	invoker := &fakeInvoker{reply: "Stay composed."}
	svc, repo := newTestService(t, invoker)
	seedRound(t, repo, 1, time.Now())

	question := strings.Repeat("拳", 520)
	if _, err := svc.Advise(context.Background(), 1, question); err != nil {
		t.Fatalf("advise: %v", err)
	}

	if !utf8.ValidString(invoker.lastUser) {
		t.Fatalf("prompt carries invalid UTF-8")
	}
	idx := strings.Index(invoker.lastUser, "Fighter's question: ")
	if idx < 0 {
		t.Fatalf("prompt missing question: %q", invoker.lastUser)
	}
	asked := invoker.lastUser[idx+len("Fighter's question: "):]
	if got := utf8.RuneCountInString(asked); got != 500 {
		t.Fatalf("expected question capped at 500 characters, got %d", got)
	}
}

func TestAdviseFallsBackOnModelError(t *testing.T) {
	invoker := &fakeInvoker{err: errors.New("upstream down")}
	svc, repo := newTestService(t, invoker)
	seedRound(t, repo, 1, time.Now())

	advice, err := svc.Advise(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("advise should not fail when the model does: %v", err)
	}
	if advice.Source != "fallback" {
		t.Fatalf("expected fallback source, got %q", advice.Source)
	}
	if advice.Text != "High guard, active feet. Max 2-punch combos." {
		t.Fatalf("expected stored strategy text, got %q", advice.Text)
	}
}

func TestAdviseFallsBackWithoutInvoker(t *testing.T) {
	svc, repo := newTestService(t, nil)
	seedRound(t, repo, 1, time.Now())

	advice, err := svc.Advise(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if advice.Source != "fallback" {
		t.Fatalf("expected fallback source, got %q", advice.Source)
	}
	if advice.DangerScore != 0.78 {
		t.Fatalf("expected stored danger score, got %f", advice.DangerScore)
	}
}

func TestAdviseFallsBackOnEmptyReply(t *testing.T) {
	invoker := &fakeInvoker{reply: "   "}
	svc, repo := newTestService(t, invoker)
	seedRound(t, repo, 1, time.Now())

	advice, err := svc.Advise(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if advice.Source != "fallback" {
		t.Fatalf("expected fallback on blank reply, got %q", advice.Source)
	}
}
