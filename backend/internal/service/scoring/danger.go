package scoring

import (
	"errors"
	"fmt"
	"math"

	"jkd-coach-app/backend/internal/domain/round"
)

// weightTolerance absorbs float literal rounding when checking the blend.
const weightTolerance = 1e-9

// ErrInvalidPolicy is returned when the blend weights do not sum to 1.
var ErrInvalidPolicy = errors.New("danger weights must sum to 1")

// Engine evaluates the danger score and strategy table for a given policy.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	policy Policy
}

// NewEngine builds an Engine, rejecting policies whose blend weights do not
// sum to 1 since that would break the [0,1] guarantee of the danger score.
func NewEngine(policy Policy) (*Engine, error) {
	if diff := math.Abs(policy.weightSum() - 1); diff > weightTolerance {
		return nil, fmt.Errorf("%w (got %.4f)", ErrInvalidPolicy, policy.weightSum())
	}
	if policy.ShotsSaturation <= 0 {
		return nil, errors.New("shots saturation must be positive")
	}
	return &Engine{policy: policy}, nil
}

// MustNewEngine is NewEngine for wiring paths where the policy is a trusted
// compile-time constant.
func MustNewEngine(policy Policy) *Engine {
	engine, err := NewEngine(policy)
	if err != nil {
		panic(err)
	}
	return engine
}

// Policy returns the policy the engine was built with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// DangerScore blends a validated round's metrics into a single risk scalar
// in [0,1]. Pure and deterministic: same record, same score, bit for bit.
//
// Offense received (shots absorbed, open guard) pushes the score up; solid
// defense and ring control pull it down. Pressure only contributes when
// paired with poor ring control: pressing while controlling space is not
// treated as risk.
func (e *Engine) DangerScore(record round.MetricRecord) float64 {
	p := e.policy

	shots := math.Min(float64(record.CleanShotsTaken)/float64(p.ShotsSaturation), 1)
	defenseGap := 1 - record.DefenseScore/10
	controlGap := 1 - record.RingControlScore/10
	pressureNoControl := (record.PressureScore / 10) * controlGap

	score := p.WeightShotsTaken*shots +
		p.WeightDefenseGap*defenseGap +
		p.WeightControlGap*controlGap +
		p.WeightPressureNoControl*pressureNoControl

	score += e.biomechCorrection(record)

	return clamp01(score)
}

// biomechCorrection derives a small bounded adjustment from the optional
// video-pipeline metrics. Absent fields contribute nothing, so the score is
// always defined.
func (e *Engine) biomechCorrection(record round.MetricRecord) float64 {
	p := e.policy
	correction := 0.0

	if record.GuardDownRatio != nil {
		// Centered at 0.5: a mostly-open guard raises risk, a tight one lowers it.
		correction += (*record.GuardDownRatio - 0.5) * p.BiomechGuardWeight
	}
	if record.AvgStanceWidth != nil {
		// A square, narrow stance is easier to bowl over.
		correction += (0.5 - *record.AvgStanceWidth) * p.BiomechStanceWeight
	}
	if record.AvgHipRotation != nil {
		// Flat hips mean no pivot and no power, slightly riskier.
		correction += ((90 - *record.AvgHipRotation) / 90) * p.BiomechHipWeight
	}

	if correction > p.BiomechCorrectionCap {
		return p.BiomechCorrectionCap
	}
	if correction < -p.BiomechCorrectionCap {
		return -p.BiomechCorrectionCap
	}
	return correction
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
