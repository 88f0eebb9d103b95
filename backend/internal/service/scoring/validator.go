package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"

	"jkd-coach-app/backend/internal/domain/round"
)

const maxNotesLength = 500

// Field names accepted in a round submission.
const (
	fieldPressureScore    = "pressure_score"
	fieldRingControlScore = "ring_control_score"
	fieldDefenseScore     = "defense_score"
	fieldCleanShotsTaken  = "clean_shots_taken"
	fieldGuardDownRatio   = "guard_down_ratio"
	fieldAvgHipRotation   = "avg_hip_rotation"
	fieldAvgStanceWidth   = "avg_stance_width"
	fieldNotes            = "notes"
)

// ValidateMetrics normalizes and range-checks a submitted round payload.
// It is a pure function: the same payload always yields the same result,
// and every offending field is reported, not just the first.
func ValidateMetrics(payload map[string]any) (round.MetricRecord, *ValidationError) {
	verr := &ValidationError{}
	record := round.MetricRecord{}

	record.PressureScore = requireFloatInRange(payload, fieldPressureScore, 0, 10, verr)
	record.RingControlScore = requireFloatInRange(payload, fieldRingControlScore, 0, 10, verr)
	record.DefenseScore = requireFloatInRange(payload, fieldDefenseScore, 0, 10, verr)
	record.CleanShotsTaken = requireNonNegativeInt(payload, fieldCleanShotsTaken, verr)

	record.GuardDownRatio = optionalFloatInRange(payload, fieldGuardDownRatio, 0, 1, verr)
	record.AvgHipRotation = optionalFloatInRange(payload, fieldAvgHipRotation, 0, 180, verr)
	record.AvgStanceWidth = optionalFloatInRange(payload, fieldAvgStanceWidth, 0, 1, verr)

	if raw, ok := payload[fieldNotes]; ok && raw != nil {
		notes, isString := raw.(string)
		switch {
		case !isString:
			verr.add(fieldNotes, "must be a string")
		case utf8.RuneCountInString(notes) > maxNotesLength:
			verr.add(fieldNotes, "must be at most 500 characters")
		default:
			record.Notes = notes
		}
	}

	if failed := verr.orNil(); failed != nil {
		return round.MetricRecord{}, failed
	}
	return record, nil
}

// requireFloatInRange reads a mandatory numeric field inside a closed range.
func requireFloatInRange(payload map[string]any, field string, min, max float64, verr *ValidationError) float64 {
	raw, ok := payload[field]
	if !ok || raw == nil {
		verr.add(field, "required field is missing")
		return 0
	}
	value, ok := asFloat(raw)
	if !ok {
		verr.add(field, "must be a number")
		return 0
	}
	if math.IsNaN(value) || value < min || value > max {
		verr.add(field, rangeReason(min, max))
		return 0
	}
	return value
}

// requireNonNegativeInt reads a mandatory integer field, rejecting fractional
// and negative values.
func requireNonNegativeInt(payload map[string]any, field string, verr *ValidationError) int {
	raw, ok := payload[field]
	if !ok || raw == nil {
		verr.add(field, "required field is missing")
		return 0
	}
	value, ok := asFloat(raw)
	if !ok {
		verr.add(field, "must be a number")
		return 0
	}
	if math.IsNaN(value) || value != math.Trunc(value) {
		verr.add(field, "must be a whole number")
		return 0
	}
	if value < 0 {
		verr.add(field, "must be zero or greater")
		return 0
	}
	return int(value)
}

// optionalFloatInRange reads an optional numeric field; when present it must
// still sit inside its closed range.
func optionalFloatInRange(payload map[string]any, field string, min, max float64, verr *ValidationError) *float64 {
	raw, ok := payload[field]
	if !ok || raw == nil {
		return nil
	}
	value, ok := asFloat(raw)
	if !ok {
		verr.add(field, "must be a number")
		return nil
	}
	if math.IsNaN(value) || value < min || value > max {
		verr.add(field, rangeReason(min, max))
		return nil
	}
	return &value
}

// asFloat coerces the numeric shapes a decoded JSON payload can carry.
func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// rangeReason formats the closed-range message without trailing zeros.
func rangeReason(min, max float64) string {
	return "must be between " + strconv.FormatFloat(min, 'f', -1, 64) +
		" and " + strconv.FormatFloat(max, 'f', -1, 64)
}
