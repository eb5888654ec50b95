package dates

import (
	"testing"
	"time"
)

var ref = time.Date(2025, 11, 4, 15, 30, 0, 0, time.UTC)

func TestParseDay(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2025-11-04", "2025-11-04"},
		{"2025-01-31", "2025-01-31"},
		{"today", "2025-11-04"},
		{"yesterday", "2025-11-03"},
		{"tomorrow", "2025-11-05"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseDay(tt.expr, ref)
			if err != nil {
				t.Fatalf("ParseDay(%q) error = %v", tt.expr, err)
			}
			if got.Format(DayFormat) != tt.want {
				t.Errorf("ParseDay(%q) = %s, want %s", tt.expr, got.Format(DayFormat), tt.want)
			}
			if got.Hour() != 0 || got.Minute() != 0 {
				t.Errorf("ParseDay(%q) not normalized to midnight: %v", tt.expr, got)
			}
		})
	}
}

func TestParseDayRejectsNoise(t *testing.T) {
	if _, err := ParseDay("definitely not a date", ref); err == nil {
		t.Error("ParseDay() on noise: error = nil, want error")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		expr     string
		wantFrom string
		wantTo   string
	}{
		{"", "2025-11-04", "2025-11-04"},
		{"today", "2025-11-04", "2025-11-04"},
		{"week", "2025-10-29", "2025-11-04"},
		{"month", "2025-10-06", "2025-11-04"},
		{"yesterday", "2025-11-03", "2025-11-03"},
		{"2025-11-01..2025-11-03", "2025-11-01", "2025-11-03"},
		// Reversed bounds are swapped, not rejected.
		{"2025-11-03..2025-11-01", "2025-11-01", "2025-11-03"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseRange(tt.expr, ref)
			if err != nil {
				t.Fatalf("ParseRange(%q) error = %v", tt.expr, err)
			}
			if got.From.Format(DayFormat) != tt.wantFrom || got.To.Format(DayFormat) != tt.wantTo {
				t.Errorf("ParseRange(%q) = %s..%s, want %s..%s",
					tt.expr, got.From.Format(DayFormat), got.To.Format(DayFormat), tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestRangeContains(t *testing.T) {
	r, err := ParseRange("2025-11-01..2025-11-03", ref)
	if err != nil {
		t.Fatalf("ParseRange() error = %v", err)
	}

	tests := []struct {
		day  string
		want bool
	}{
		{"2025-11-01", true},
		{"2025-11-02", true},
		{"2025-11-03", true},
		{"2025-10-31", false},
		{"2025-11-04", false},
		{"garbage", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.day); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.day, got, tt.want)
		}
	}
}

func TestRangeString(t *testing.T) {
	single, _ := ParseRange("2025-11-04", ref)
	if got := single.String(); got != "2025-11-04" {
		t.Errorf("String() = %q, want %q", got, "2025-11-04")
	}
	span, _ := ParseRange("2025-11-01..2025-11-03", ref)
	if got := span.String(); got != "2025-11-01 to 2025-11-03" {
		t.Errorf("String() = %q, want %q", got, "2025-11-01 to 2025-11-03")
	}
}
