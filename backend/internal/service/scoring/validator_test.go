package scoring

import (
	"strings"
	"testing"
)

func validPayload() map[string]any {
	return map[string]any{
		"pressure_score":     7.0,
		"ring_control_score": 6.5,
		"defense_score":      8.0,
		"clean_shots_taken":  3.0,
	}
}

func TestValidateMetrics_Valid(t *testing.T) {
	payload := validPayload()
	payload["guard_down_ratio"] = 0.25
	payload["notes"] = "kept the jab working"

	record, verr := ValidateMetrics(payload)
	if verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if record.PressureScore != 7.0 || record.CleanShotsTaken != 3 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.GuardDownRatio == nil || *record.GuardDownRatio != 0.25 {
		t.Fatalf("guard ratio not captured: %+v", record.GuardDownRatio)
	}
	if record.AvgHipRotation != nil {
		t.Fatal("absent optional field must stay nil")
	}
	if record.Notes != "kept the jab working" {
		t.Fatalf("notes not captured: %q", record.Notes)
	}
}

func TestValidateMetrics_ReportsEveryOffendingField(t *testing.T) {
	// Wrong type on one field, everything else required but missing.
	payload := map[string]any{
		"pressure_score": "invalid",
	}

	_, verr := ValidateMetrics(payload)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	for _, field := range []string{"pressure_score", "ring_control_score", "defense_score", "clean_shots_taken"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %s in error fields, got %v", field, verr.Fields)
		}
	}
	if !strings.Contains(verr.Fields["pressure_score"], "number") {
		t.Fatalf("pressure_score should be flagged as non-numeric: %v", verr.Fields)
	}
}

func TestValidateMetrics_RangeChecks(t *testing.T) {
	payload := validPayload()
	payload["defense_score"] = 10.5
	payload["guard_down_ratio"] = 1.2
	payload["avg_hip_rotation"] = -5.0

	_, verr := ValidateMetrics(payload)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected exactly 3 offending fields, got %v", verr.Fields)
	}
}

func TestValidateMetrics_ShotsMustBeWholeAndNonNegative(t *testing.T) {
	fractional := validPayload()
	fractional["clean_shots_taken"] = 2.5
	if _, verr := ValidateMetrics(fractional); verr == nil || verr.Fields["clean_shots_taken"] == "" {
		t.Fatalf("fractional shots must be rejected, got %v", verr)
	}

	negative := validPayload()
	negative["clean_shots_taken"] = -1.0
	if _, verr := ValidateMetrics(negative); verr == nil || verr.Fields["clean_shots_taken"] == "" {
		t.Fatalf("negative shots must be rejected, got %v", verr)
	}

	zero := validPayload()
	zero["clean_shots_taken"] = 0.0
	if _, verr := ValidateMetrics(zero); verr != nil {
		t.Fatalf("zero shots is valid, got %v", verr)
	}
}

func TestValidateMetrics_NotesLength(t *testing.T) {
	payload := validPayload()
	payload["notes"] = strings.Repeat("x", 501)

	_, verr := ValidateMetrics(payload)
	if verr == nil || verr.Fields["notes"] == "" {
		t.Fatalf("oversized notes must be rejected, got %v", verr)
	}

	// The limit counts characters, not bytes: 500 multi-byte runes pass.
	multibyte := validPayload()
	multibyte["notes"] = strings.Repeat("拳", 500)
	record, verr := ValidateMetrics(multibyte)
	if verr != nil {
		t.Fatalf("500 multi-byte characters are valid, got %v", verr)
	}
	if record.Notes != multibyte["notes"] {
		t.Fatalf("notes not captured")
	}

	multibyte["notes"] = strings.Repeat("拳", 501)
	if _, verr := ValidateMetrics(multibyte); verr == nil || verr.Fields["notes"] == "" {
		t.Fatalf("501 characters must be rejected, got %v", verr)
	}
}

func TestValidateMetrics_PureFunction(t *testing.T) {
	payload := validPayload()

	first, verr := ValidateMetrics(payload)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	second, verr := ValidateMetrics(payload)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if first != second {
		t.Fatalf("same payload produced different records: %+v vs %+v", first, second)
	}
}
