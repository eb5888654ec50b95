package entity

import (
	"fmt"
	"time"
)

// FireIncident represents one fire-response event. Incidents may be
// created in batches when a field team files a day's worth of responses
// at once; the batch travels as a unit through the save path.
type FireIncident struct {
	// ===== Core Identification =====
	ID string `json:"id" yaml:"id"`

	// ===== Event =====
	Date     string  `json:"date" yaml:"date"` // YYYY-MM-DD
	Location string  `json:"location" yaml:"location"`
	Cause    string  `json:"cause,omitempty" yaml:"cause,omitempty"` // agricultural, lightning, campfire, unknown
	AreaRai  float64 `json:"areaRai" yaml:"area_rai"`

	// ===== Response =====
	Controlled bool   `json:"controlled" yaml:"controlled"`
	Team       string `json:"team,omitempty" yaml:"team,omitempty"`
	Notes      string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// ===== Timestamps =====
	CreatedAt string `json:"createdAt" yaml:"created_at"`
}

// Validate checks that the FireIncident has usable field values.
func (f *FireIncident) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("id is required")
	}
	if f.Date == "" {
		return fmt.Errorf("date is required")
	}
	if f.Location == "" {
		return fmt.Errorf("location is required")
	}
	if f.AreaRai < 0 {
		return fmt.Errorf("areaRai must not be negative (got %g)", f.AreaRai)
	}
	return nil
}

// SetDefaults fills optional fields so omitted values behave consistently.
func (f *FireIncident) SetDefaults() {
	if f.Cause == "" {
		f.Cause = "unknown"
	}
	if f.Date == "" {
		f.Date = time.Now().Format("2006-01-02")
	}
	if f.CreatedAt == "" {
		f.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
}

// ValidateBatch validates every incident in a batch and rejects
// duplicate ids within the batch itself.
func ValidateBatch(batch []FireIncident) error {
	seen := make(map[string]bool, len(batch))
	for i := range batch {
		if err := batch[i].Validate(); err != nil {
			return fmt.Errorf("incident %d: %w", i, err)
		}
		if seen[batch[i].ID] {
			return fmt.Errorf("incident %d: duplicate id %s in batch", i, batch[i].ID)
		}
		seen[batch[i].ID] = true
	}
	return nil
}
