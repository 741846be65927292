package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"123E4567-E89B-12D3-A456-426614174000",
	}
	invalid := []string{
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",
		"not-a-uuid",
		"",
	}
	for _, id := range valid {
		if !IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = true, want false", id)
		}
	}
}

func TestIsValidClockTime(t *testing.T) {
	valid := []string{"09:00", "23:55", "00:00"}
	invalid := []string{"24:00", "9am", "09:60", ""}
	for _, s := range valid {
		if !IsValidClockTime(s) {
			t.Errorf("IsValidClockTime(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidClockTime(s) {
			t.Errorf("IsValidClockTime(%q) = true, want false", s)
		}
	}
}

func TestCoordinateBounds(t *testing.T) {
	if !IsValidLatitude(-90) || !IsValidLatitude(90) || IsValidLatitude(90.01) {
		t.Error("latitude bounds wrong")
	}
	if !IsValidLongitude(-180) || !IsValidLongitude(180) || IsValidLongitude(-180.5) {
		t.Error("longitude bounds wrong")
	}
}

func TestIsValidMonthYear(t *testing.T) {
	if IsValidMonth(0) || IsValidMonth(13) || !IsValidMonth(1) || !IsValidMonth(12) {
		t.Error("month bounds wrong")
	}
	if IsValidYear(1999) || !IsValidYear(2026) {
		t.Error("year bounds wrong")
	}
}
