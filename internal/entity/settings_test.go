package entity

import (
	"strings"
	"testing"
)

func TestMergeSettings_RetainsMissingFields(t *testing.T) {
	base := DefaultSettings()
	base.Categories = []string{"patrol", "firebreak"}

	// Payload carries only unitName; every other field must survive.
	merged := MergeSettings(base, []byte(`{"unitName":"Chiang Mai Unit 7"}`))

	if merged.UnitName != "Chiang Mai Unit 7" {
		t.Errorf("MergeSettings() unitName = %q, want 'Chiang Mai Unit 7'", merged.UnitName)
	}
	if len(merged.Categories) != 2 || merged.Categories[0] != "patrol" {
		t.Errorf("MergeSettings() categories = %v, want base categories retained", merged.Categories)
	}
	if merged.ReportHeader != base.ReportHeader {
		t.Errorf("MergeSettings() reportHeader = %q, want %q", merged.ReportHeader, base.ReportHeader)
	}
}

func TestMergeSettings_NullSliceTreatedAsMissing(t *testing.T) {
	base := DefaultSettings()
	merged := MergeSettings(base, []byte(`{"categories":null,"teams":null}`))

	if merged.Categories == nil {
		t.Fatalf("MergeSettings() categories is nil, want base categories")
	}
	if len(merged.Categories) != len(base.Categories) {
		t.Errorf("MergeSettings() categories = %v, want %v", merged.Categories, base.Categories)
	}
	if merged.Teams == nil {
		t.Errorf("MergeSettings() teams is nil, want base teams")
	}
}

func TestMergeSettings_MalformedPayload(t *testing.T) {
	base := DefaultSettings()
	base.UnitName = "Unit 7"

	merged := MergeSettings(base, []byte(`<html>error page</html>`))

	if merged.UnitName != "Unit 7" {
		t.Errorf("MergeSettings() after malformed payload unitName = %q, want base retained", merged.UnitName)
	}
}

func TestMergeSettings_DoesNotMutateBase(t *testing.T) {
	base := DefaultSettings()
	before := base.Categories[0]

	merged := MergeSettings(base, []byte(`{"categories":["changed"]}`))
	merged.Categories[0] = "mutated-after"

	if base.Categories[0] != before {
		t.Errorf("MergeSettings() mutated base categories: got %q, want %q", base.Categories[0], before)
	}
}

func TestSettings_Clone(t *testing.T) {
	s := DefaultSettings()
	c := s.Clone()
	c.Categories[0] = "changed"
	c.Teams[0] = "changed"

	if s.Categories[0] == "changed" || s.Teams[0] == "changed" {
		t.Errorf("Clone() shares slice backing with original")
	}
}

func TestNewID(t *testing.T) {
	a := NewID("act")
	b := NewID("act")

	if a == b {
		t.Errorf("NewID() returned duplicate ids: %s", a)
	}
	if !strings.HasPrefix(a, "act-") {
		t.Errorf("NewID() = %q, want prefix 'act-'", a)
	}
	if len(strings.Split(a, "-")) != 3 {
		t.Errorf("NewID() = %q, want prefix-millis-seq shape", a)
	}
}
