package entity

import (
	"fmt"
	"time"
)

// Hotspot represents one satellite-detection report for a date and
// acquisition round.
type Hotspot struct {
	// ===== Core Identification =====
	ID string `json:"id" yaml:"id"`

	// ===== Detection =====
	Date      string `json:"date" yaml:"date"`   // YYYY-MM-DD
	Round     string `json:"round" yaml:"round"` // morning, afternoon, night
	Satellite string `json:"satellite,omitempty" yaml:"satellite,omitempty"`
	Count     int    `json:"count" yaml:"count"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`

	// ===== Position =====
	Lat float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty" yaml:"lon,omitempty"`

	// ===== Disposition =====
	Status string `json:"status" yaml:"status"` // new, checked, responded

	// ===== Timestamps =====
	CreatedAt string `json:"createdAt" yaml:"created_at"`
}

// Validate checks that the Hotspot has usable field values.
func (h *Hotspot) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("id is required")
	}
	if h.Date == "" {
		return fmt.Errorf("date is required")
	}
	if h.Round == "" {
		return fmt.Errorf("round is required")
	}
	if h.Count < 0 {
		return fmt.Errorf("count must not be negative (got %d)", h.Count)
	}
	if h.Lat < -90 || h.Lat > 90 {
		return fmt.Errorf("lat out of range (got %g)", h.Lat)
	}
	if h.Lon < -180 || h.Lon > 180 {
		return fmt.Errorf("lon out of range (got %g)", h.Lon)
	}
	return nil
}

// SetDefaults fills optional fields so omitted values behave consistently.
func (h *Hotspot) SetDefaults() {
	if h.Round == "" {
		h.Round = "morning"
	}
	if h.Status == "" {
		h.Status = "new"
	}
	if h.Date == "" {
		h.Date = time.Now().Format("2006-01-02")
	}
	if h.CreatedAt == "" {
		h.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
}
