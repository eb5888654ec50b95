package entity

import "encoding/json"

// Settings is the singleton configuration document for the unit. There
// is no id; the remote store holds exactly one of these, and reads merge
// it shallowly over the defaults so a partially-filled sheet never blanks
// a field the operator relies on.
type Settings struct {
	UnitName      string   `json:"unitName" yaml:"unit_name"`
	Province      string   `json:"province" yaml:"province"`
	Categories    []string `json:"categories" yaml:"categories"`
	Teams         []string `json:"teams" yaml:"teams"`
	ReportHeader  string   `json:"reportHeader" yaml:"report_header"`
	Theme         string   `json:"theme" yaml:"theme"`
	MinAppVersion string   `json:"minAppVersion" yaml:"min_app_version"`
}

// DefaultSettings returns the canonical defaults used before any remote
// settings document has been fetched.
func DefaultSettings() Settings {
	return Settings{
		UnitName: "Wildfire Response Unit",
		Province: "",
		Categories: []string{
			"patrol", "firebreak", "education", "suppression", "other",
		},
		Teams:         []string{"Team A", "Team B"},
		ReportHeader:  "Daily Operations Summary",
		Theme:         "auto",
		MinAppVersion: "",
	}
}

// MergeSettings overlays a fetched JSON settings document on base.
// Fields the payload omits (or nulls) keep their base values; a payload
// that is not a JSON object leaves base untouched. The merge is pure:
// base is never modified.
func MergeSettings(base Settings, raw []byte) Settings {
	merged := base.Clone()
	if len(raw) == 0 {
		return merged
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return base.Clone()
	}
	// Unmarshal writes nil over the slices when the payload carries an
	// explicit null; treat that the same as an omitted field.
	if merged.Categories == nil {
		merged.Categories = append([]string(nil), base.Categories...)
	}
	if merged.Teams == nil {
		merged.Teams = append([]string(nil), base.Teams...)
	}
	return merged
}

// Clone returns a deep copy; the slice fields are freshly allocated.
func (s Settings) Clone() Settings {
	c := s
	c.Categories = append([]string(nil), s.Categories...)
	c.Teams = append([]string(nil), s.Teams...)
	return c
}
