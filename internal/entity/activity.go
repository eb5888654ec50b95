package entity

import (
	"fmt"
	"strings"
	"time"
)

// Activity represents one field-operation log entry: a patrol, a
// firebreak cut, a community briefing. The list is unordered from the
// store's perspective; consumers treat insertion position as meaningful
// and expect new entries first.
type Activity struct {
	// ===== Core Identification =====
	ID string `json:"id" yaml:"id"`

	// ===== Operation Content =====
	Date     string `json:"date" yaml:"date"` // YYYY-MM-DD, operator-local
	Team     string `json:"team" yaml:"team"`
	Type     string `json:"type" yaml:"type"` // patrol, firebreak, education, suppression, other
	Title    string `json:"title" yaml:"title"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// ===== Effort =====
	Personnel     int     `json:"personnel" yaml:"personnel"`
	DurationHours float64 `json:"durationHours" yaml:"duration_hours"`

	// ===== Timestamps =====
	CreatedAt string `json:"createdAt" yaml:"created_at"`
}

// Validate checks that the Activity has usable field values.
func (a *Activity) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(a.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(a.Title))
	}
	if a.Date == "" {
		return fmt.Errorf("date is required")
	}
	if a.Personnel < 0 {
		return fmt.Errorf("personnel must not be negative (got %d)", a.Personnel)
	}
	if a.DurationHours < 0 {
		return fmt.Errorf("durationHours must not be negative (got %g)", a.DurationHours)
	}
	return nil
}

// SetDefaults fills optional fields so omitted values behave consistently.
func (a *Activity) SetDefaults() {
	if a.Type == "" {
		a.Type = "patrol"
	}
	if a.Date == "" {
		a.Date = time.Now().Format("2006-01-02")
	}
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	a.Team = strings.TrimSpace(a.Team)
	a.Title = strings.TrimSpace(a.Title)
}
