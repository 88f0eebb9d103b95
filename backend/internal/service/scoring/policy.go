package scoring

// Policy bundles every tunable weight and threshold used by the danger
// calculator and the strategy selector. It is injected rather than kept as
// package state so tests and deployments can tune scoring without rebuilds.
//
// The danger weights must sum to 1; NewEngine rejects policies where they
// do not, which keeps the blended score inside [0,1] before the biomech
// correction is applied.
type Policy struct {
	// Danger score blend. Each component is normalized to [0,1] first.
	WeightShotsTaken        float64 // clean shots absorbed, saturating
	WeightDefenseGap        float64 // inverse of defense_score
	WeightControlGap        float64 // inverse of ring_control_score
	WeightPressureNoControl float64 // pressure paired with low control

	// ShotsSaturation is the shot count at which the shots component
	// saturates to 1, so one wild round cannot blow up the blend.
	ShotsSaturation int

	// Biomech correction term, bounded to +/- BiomechCorrectionCap.
	BiomechGuardWeight   float64
	BiomechStanceWeight  float64
	BiomechHipWeight     float64
	BiomechCorrectionCap float64

	// Strategy selection thresholds, evaluated top-to-bottom.
	HighDangerThreshold  float64 // rule 1: danger at or above this -> DEFENSE_FIRST
	ControlGapThreshold  float64 // rule 2: pressure minus control at or above this
	AdequateControlScore float64 // rule 2: control below this counts as "not controlling"
	AdequateDefenseScore float64 // rule 3: defense at or above this counts as adequate
	LowOutputShots       int     // rule 3: shots absorbed at or below this reads as a low-exchange round
}

// DefaultPolicy returns the audited default scoring policy.
//
// The blend follows the original risk model (shots absorbed dominate, then
// defense, then ring control) extended with an explicit
// pressure-without-control interaction so every required metric participates.
func DefaultPolicy() Policy {
	return Policy{
		WeightShotsTaken:        0.45,
		WeightDefenseGap:        0.30,
		WeightControlGap:        0.15,
		WeightPressureNoControl: 0.10,

		ShotsSaturation: 5,

		BiomechGuardWeight:   0.12,
		BiomechStanceWeight:  0.04,
		BiomechHipWeight:     0.02,
		BiomechCorrectionCap: 0.10,

		HighDangerThreshold:  0.70,
		ControlGapThreshold:  2.0,
		AdequateControlScore: 6.0,
		AdequateDefenseScore: 6.0,
		LowOutputShots:       3,
	}
}

// weightSum reports the total of the four blend weights.
func (p Policy) weightSum() float64 {
	return p.WeightShotsTaken + p.WeightDefenseGap + p.WeightControlGap + p.WeightPressureNoControl
}
