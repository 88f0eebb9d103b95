package scoring

import (
	"jkd-coach-app/backend/internal/domain/round"
)

// Prescriptions for the closed strategy set.
var (
	strategyDefenseFirst = round.Strategy{
		Code:  round.StrategyDefenseFirst,
		Title: "Defense First",
		Text:  "High guard, active feet. Max 2-punch combos. Pump the jab, angle off. Do not trade.",
	}
	strategyRingCutting = round.Strategy{
		Code:  round.StrategyRingCutting,
		Title: "Ring Cutting",
		Text:  "Smart pressure. Cut exits, feint to draw counters. No ego wars. Control space.",
	}
	strategyPressureBody = round.Strategy{
		Code:  round.StrategyPressureBody,
		Title: "Pressure & Body Work",
		Text:  "Walk him down. Invest in the body and arms. Bully, clinch, drown him.",
	}
	strategyStayTheCourse = round.Strategy{
		Code:  round.StrategyStayTheCourse,
		Title: "Stay the Course",
		Text:  "Balanced round. Keep the rhythm: jab first, exit on angles, bank rounds without absorbing damage.",
	}
)

// strategyRule pairs a predicate with its directive. Rules are evaluated in
// order and the first match wins, which keeps the outcome deterministic when
// several conditions hold at once.
type strategyRule struct {
	name    string
	matches func(p Policy, record round.MetricRecord, danger float64) bool
	result  round.Strategy
}

// strategyRules is the ordered decision table. The final rule always matches,
// so the selector is total by construction.
var strategyRules = []strategyRule{
	{
		// Guard and defense drills take priority over everything else.
		name: "high_danger",
		matches: func(p Policy, _ round.MetricRecord, danger float64) bool {
			return danger >= p.HighDangerThreshold
		},
		result: strategyDefenseFirst,
	},
	{
		// Pressing without controlling space: work on cutting the ring.
		name: "pressing_without_control",
		matches: func(p Policy, record round.MetricRecord, _ float64) bool {
			return record.RingControlScore < p.AdequateControlScore &&
				record.PressureScore-record.RingControlScore >= p.ControlGapThreshold
		},
		result: strategyRingCutting,
	},
	{
		// Defense holds up and little is being absorbed: time to invest in offense.
		name: "low_output",
		matches: func(p Policy, record round.MetricRecord, _ float64) bool {
			return record.DefenseScore >= p.AdequateDefenseScore &&
				record.CleanShotsTaken <= p.LowOutputShots
		},
		result: strategyPressureBody,
	},
	{
		name: "balanced",
		matches: func(Policy, round.MetricRecord, float64) bool {
			return true
		},
		result: strategyStayTheCourse,
	},
}

// SelectStrategy maps a validated round and its danger score to exactly one
// coaching directive from the closed enumeration.
func (e *Engine) SelectStrategy(record round.MetricRecord, danger float64) round.Strategy {
	for _, rule := range strategyRules {
		if rule.matches(e.policy, record, danger) {
			return rule.result
		}
	}
	// Unreachable: the table ends in a catch-all.
	return strategyStayTheCourse
}

// Score runs the full pipeline on a validated record: danger score first,
// then the strategy table.
func (e *Engine) Score(record round.MetricRecord) (float64, round.Strategy) {
	danger := e.DangerScore(record)
	return danger, e.SelectStrategy(record, danger)
}
