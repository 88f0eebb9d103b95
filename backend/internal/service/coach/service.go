package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	domain "jkd-coach-app/backend/internal/domain/round"
	appLogger "jkd-coach-app/backend/internal/infra/logger"
	"jkd-coach-app/backend/internal/infra/metrics"
	"jkd-coach-app/backend/internal/repository"
	"jkd-coach-app/backend/internal/service/stats"

	"go.uber.org/zap"
)

// ErrNoRounds means the user has no history to advise on.
var ErrNoRounds = errors.New("no rounds logged yet")

// ChatInvoker abstracts the chat completion provider. The coach service only
// needs a single-turn exchange.
type ChatInvoker interface {
	ModelName() string
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Advice is the coaching text returned to the user, with its provenance.
type Advice struct {
	Source      string          `json:"source"` // "model" or "fallback"
	Model       string          `json:"model,omitempty"`
	Text        string          `json:"text"`
	GamePlan    domain.Strategy `json:"game_plan"`
	DangerScore float64         `json:"danger_score"`
}

// Service turns the latest round and the aggregate history into a narrative
// coaching brief. When no model is configured, or the model call fails, it
// falls back to the stored strategy prescription so the endpoint always
// answers.
type Service struct {
	rounds  *repository.RoundRepository
	stats   *stats.Service
	invoker ChatInvoker
	logger  *zap.SugaredLogger
}

// NewService wires the coach service. invoker may be nil.
func NewService(rounds *repository.RoundRepository, statsService *stats.Service, invoker ChatInvoker) *Service {
	return &Service{
		rounds:  rounds,
		stats:   statsService,
		invoker: invoker,
		logger:  appLogger.S().With("component", "coach.service"),
	}
}

const systemPrompt = "You are a boxing and Jeet Kune Do coach. You receive one fighter's sparring telemetry: per-round scores for pressure, ring control and defense on a 0-10 scale, the count of clean shots they absorbed, and a danger score between 0 and 1 where higher means the fighter is taking more punishment. Reply with a short, direct game plan for their next sparring round. Speak to the fighter. No preamble, at most 120 words."

// maxQuestionLength bounds the fighter's free-text question.
const maxQuestionLength = 500

// Advise produces the coaching brief for the user's next round. question is
// an optional free-text ask from the fighter, folded into the model prompt.
func (s *Service) Advise(ctx context.Context, ownerID uint, question string) (Advice, error) {
	log := s.logger.With("operation", "advise", "owner_id", ownerID)

	latest, err := s.rounds.ListByOwner(ctx, ownerID, 1)
	if err != nil {
		log.Errorw("load latest round failed", "error", err)
		return Advice{}, fmt.Errorf("load latest round: %w", err)
	}
	if len(latest) == 0 {
		return Advice{}, ErrNoRounds
	}
	round := latest[0]

	summary, err := s.stats.Summary(ctx, ownerID)
	if err != nil {
		log.Errorw("load summary failed", "error", err)
		return Advice{}, fmt.Errorf("load summary: %w", err)
	}

	plan := domain.Strategy{
		Code:  domain.StrategyCode(round.StrategyCode),
		Title: round.StrategyTitle,
		Text:  round.StrategyText,
	}

	fallback := Advice{
		Source:      "fallback",
		Text:        plan.Text,
		GamePlan:    plan,
		DangerScore: round.DangerScore,
	}

	if s.invoker == nil {
		metrics.ObserveCoachAdvice("fallback", "", 0)
		return fallback, nil
	}

	question = truncateQuestion(strings.TrimSpace(question))

	started := time.Now()
	text, err := s.invoker.Complete(ctx, systemPrompt, buildUserPrompt(round, summary, question))
	elapsed := time.Since(started)
	if err != nil {
		log.Warnw("model call failed, serving fallback", "error", err, "model", s.invoker.ModelName())
		metrics.ObserveCoachAdvice("error", s.invoker.ModelName(), elapsed)
		return fallback, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Warnw("model returned empty advice, serving fallback", "model", s.invoker.ModelName())
		metrics.ObserveCoachAdvice("empty", s.invoker.ModelName(), elapsed)
		return fallback, nil
	}

	metrics.ObserveCoachAdvice("success", s.invoker.ModelName(), elapsed)
	return Advice{
		Source:      "model",
		Model:       s.invoker.ModelName(),
		Text:        text,
		GamePlan:    plan,
		DangerScore: round.DangerScore,
	}, nil
}

// truncateQuestion caps the question at maxQuestionLength characters, cutting
// on a rune boundary so the prompt never carries a torn UTF-8 sequence.
func truncateQuestion(question string) string {
	if utf8.RuneCountInString(question) <= maxQuestionLength {
		return question
	}
	runes := []rune(question)
	return string(runes[:maxQuestionLength])
}

// buildUserPrompt renders the latest round plus the running averages into the
// model's user message.
func buildUserPrompt(round domain.Round, summary domain.DashboardSummary, question string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Latest round: pressure %.1f/10, ring control %.1f/10, defense %.1f/10, clean shots taken %d, danger score %.2f.\n",
		round.PressureScore, round.RingControlScore, round.DefenseScore, round.CleanShotsTaken, round.DangerScore)

	if round.GuardDownRatio != nil {
		fmt.Fprintf(&b, "Guard was down %.0f%% of the round.\n", *round.GuardDownRatio*100)
	}
	if round.AvgHipRotation != nil {
		fmt.Fprintf(&b, "Average hip rotation: %.0f degrees.\n", *round.AvgHipRotation)
	}
	if round.AvgStanceWidth != nil {
		fmt.Fprintf(&b, "Average stance width: %.2f.\n", *round.AvgStanceWidth)
	}
	if notes := strings.TrimSpace(round.Notes); notes != "" {
		fmt.Fprintf(&b, "Fighter's notes: %s\n", notes)
	}

	fmt.Fprintf(&b, "Across %d rounds: avg danger %.2f, avg pressure %.1f, avg ring control %.1f, avg defense %.1f, avg clean shots taken %.1f.\n",
		summary.TotalRounds, summary.AvgDangerScore,
		summary.Averages.PressureScore, summary.Averages.RingControlScore,
		summary.Averages.DefenseScore, summary.Averages.CleanShotsTaken)

	fmt.Fprintf(&b, "Current standing directive: %s (%s).", round.StrategyTitle, round.StrategyCode)

	if question != "" {
		fmt.Fprintf(&b, "\nFighter's question: %s", question)
	}

	return b.String()
}
