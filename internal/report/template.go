package report

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Template controls which sections a rendered report carries. Units
// keep their own template files and pass them with --template or the
// report.template config key.
type Template struct {
	// Title overrides the settings report header. Empty keeps it.
	Title string `toml:"title"`

	ShowKPIs       bool `toml:"show_kpis"`
	ShowActivities bool `toml:"show_activities"`
	ShowHotspots   bool `toml:"show_hotspots"`
	ShowIncidents  bool `toml:"show_incidents"`

	// MaxRows caps each detail table. Zero means no cap.
	MaxRows int `toml:"max_rows"`

	// Footer is appended verbatim when set.
	Footer string `toml:"footer"`
}

// DefaultTemplate is the report shape used when no template file is
// given: everything on, tables capped at 20 rows.
func DefaultTemplate() Template {
	return Template{
		ShowKPIs:       true,
		ShowActivities: true,
		ShowHotspots:   true,
		ShowIncidents:  true,
		MaxRows:        20,
	}
}

// LoadTemplate reads a TOML template file. Keys the file omits fall
// back to the defaults, so a template that only sets max_rows still
// renders every section.
func LoadTemplate(path string) (Template, error) {
	t := DefaultTemplate()
	meta, err := toml.DecodeFile(path, &t)
	if err != nil {
		return Template{}, fmt.Errorf("failed to load report template %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Template{}, fmt.Errorf("report template %s has unknown keys: %v", path, undecoded)
	}
	if t.MaxRows < 0 {
		return Template{}, fmt.Errorf("report template %s: max_rows must not be negative", path)
	}
	return t, nil
}
