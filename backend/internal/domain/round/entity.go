package round

import "time"

// MetricRecord holds one sparring round's validated summary metrics.
// Instances only come out of the scoring validator; afterwards they are
// treated as immutable values.
type MetricRecord struct {
	PressureScore    float64 `json:"pressure_score"`     // 0-10
	RingControlScore float64 `json:"ring_control_score"` // 0-10
	DefenseScore     float64 `json:"defense_score"`      // 0-10
	CleanShotsTaken  int     `json:"clean_shots_taken"`  // >= 0

	// Optional biomechanical metrics from the upstream video pipeline.
	GuardDownRatio *float64 `json:"guard_down_ratio,omitempty"` // 0-1
	AvgHipRotation *float64 `json:"avg_hip_rotation,omitempty"` // 0-180 degrees
	AvgStanceWidth *float64 `json:"avg_stance_width,omitempty"` // 0-1

	Notes string `json:"notes,omitempty"` // free text, <= 500 chars
}

// StrategyCode enumerates the closed set of coaching directives.
type StrategyCode string

const (
	StrategyDefenseFirst  StrategyCode = "DEFENSE_FIRST"
	StrategyRingCutting   StrategyCode = "RING_CUTTING"
	StrategyPressureBody  StrategyCode = "PRESSURE_BODY"
	StrategyStayTheCourse StrategyCode = "STAY_THE_COURSE"
)

// Strategy is a coaching directive with its human-readable prescription.
type Strategy struct {
	Code  StrategyCode `json:"code"`
	Title string       `json:"title"`
	Text  string       `json:"text"`
}

// Round is the persisted, scored record of one sparring round.
// Rounds are append-only: created once per submission and immutable
// afterwards except for deletion by their owner.
type Round struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"` // UUID assigned at creation
	OwnerID uint   `gorm:"index" json:"owner_id"`        // submitting user, used for isolation

	PressureScore    float64 `json:"pressure_score"`
	RingControlScore float64 `json:"ring_control_score"`
	DefenseScore     float64 `json:"defense_score"`
	CleanShotsTaken  int     `json:"clean_shots_taken"`

	GuardDownRatio *float64 `json:"guard_down_ratio,omitempty"`
	AvgHipRotation *float64 `json:"avg_hip_rotation,omitempty"`
	AvgStanceWidth *float64 `json:"avg_stance_width,omitempty"`

	DangerScore   float64 `json:"danger_score"`                 // derived, [0,1]
	StrategyCode  string  `gorm:"size:32" json:"strategy_code"` // derived
	StrategyTitle string  `gorm:"size:64" json:"strategy_title"`
	StrategyText  string  `gorm:"size:512" json:"strategy_text"`

	Notes     string    `gorm:"size:512" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Metrics reconstructs the validated metric view of a stored round,
// which lets the strategy selector re-run against historical data.
func (r *Round) Metrics() MetricRecord {
	return MetricRecord{
		PressureScore:    r.PressureScore,
		RingControlScore: r.RingControlScore,
		DefenseScore:     r.DefenseScore,
		CleanShotsTaken:  r.CleanShotsTaken,
		GuardDownRatio:   r.GuardDownRatio,
		AvgHipRotation:   r.AvgHipRotation,
		AvgStanceWidth:   r.AvgStanceWidth,
		Notes:            r.Notes,
	}
}

// MetricAverages carries the per-metric arithmetic means for a user's history.
type MetricAverages struct {
	PressureScore    float64 `json:"pressure_score"`
	RingControlScore float64 `json:"ring_control_score"`
	DefenseScore     float64 `json:"defense_score"`
	CleanShotsTaken  float64 `json:"clean_shots_taken"`
}

// DashboardSummary is the recomputed-per-request aggregate over a user's
// rounds. It is never persisted, so additions and deletions are always
// reflected without an invalidation mechanism.
type DashboardSummary struct {
	TotalRounds         int            `json:"total_rounds"`
	AvgDangerScore      float64        `json:"avg_danger_score"`
	Averages            MetricAverages `json:"averages"`
	MostRecentRoundDate *time.Time     `json:"most_recent_round_date"`
	NextGamePlan        *Strategy      `json:"next_game_plan"`
}
