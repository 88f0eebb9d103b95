package scoring

import (
	"math/rand"
	"testing"

	"jkd-coach-app/backend/internal/domain/round"
)

func TestSelectStrategy_HighDangerWinsRegardlessOfMetrics(t *testing.T) {
	engine := newTestEngine(t)

	// Metrics that would also satisfy the ring-cutting rule; priority must
	// still hand the round to defense drills.
	record := round.MetricRecord{
		PressureScore:    9,
		RingControlScore: 2,
		DefenseScore:     1,
		CleanShotsTaken:  9,
	}

	strategy := engine.SelectStrategy(record, 0.9)
	if strategy.Code != round.StrategyDefenseFirst {
		t.Fatalf("expected DEFENSE_FIRST, got %s", strategy.Code)
	}
	if strategy.Title == "" || strategy.Text == "" {
		t.Fatal("strategy must carry a title and prescriptive text")
	}
}

func TestSelectStrategy_PressingWithoutControl(t *testing.T) {
	engine := newTestEngine(t)

	record := round.MetricRecord{
		PressureScore:    8,
		RingControlScore: 4,
		DefenseScore:     7,
		CleanShotsTaken:  4,
	}

	if strategy := engine.SelectStrategy(record, 0.4); strategy.Code != round.StrategyRingCutting {
		t.Fatalf("expected RING_CUTTING, got %s", strategy.Code)
	}
}

func TestSelectStrategy_LowOutputWithSolidDefense(t *testing.T) {
	engine := newTestEngine(t)

	record := round.MetricRecord{
		PressureScore:    5,
		RingControlScore: 7,
		DefenseScore:     8,
		CleanShotsTaken:  1,
	}

	if strategy := engine.SelectStrategy(record, 0.2); strategy.Code != round.StrategyPressureBody {
		t.Fatalf("expected PRESSURE_BODY, got %s", strategy.Code)
	}
}

func TestSelectStrategy_BalancedRoundFallsThrough(t *testing.T) {
	engine := newTestEngine(t)

	record := round.MetricRecord{
		PressureScore:    6,
		RingControlScore: 7,
		DefenseScore:     5,
		CleanShotsTaken:  4,
	}

	if strategy := engine.SelectStrategy(record, 0.3); strategy.Code != round.StrategyStayTheCourse {
		t.Fatalf("expected STAY_THE_COURSE, got %s", strategy.Code)
	}
}

// Totality: every valid (record, danger) pair yields exactly one strategy
// from the closed enumeration.
func TestSelectStrategy_Total(t *testing.T) {
	engine := newTestEngine(t)
	rng := rand.New(rand.NewSource(7))

	known := map[round.StrategyCode]bool{
		round.StrategyDefenseFirst:  true,
		round.StrategyRingCutting:   true,
		round.StrategyPressureBody:  true,
		round.StrategyStayTheCourse: true,
	}

	for i := 0; i < 2000; i++ {
		record := round.MetricRecord{
			PressureScore:    rng.Float64() * 10,
			RingControlScore: rng.Float64() * 10,
			DefenseScore:     rng.Float64() * 10,
			CleanShotsTaken:  rng.Intn(20),
		}
		strategy := engine.SelectStrategy(record, rng.Float64())
		if !known[strategy.Code] {
			t.Fatalf("selector returned an unknown strategy %q", strategy.Code)
		}
		if strategy.Title == "" || strategy.Text == "" {
			t.Fatalf("strategy %s missing title or text", strategy.Code)
		}
	}
}
