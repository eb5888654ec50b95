package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emberhq/firewatch/internal/dates"
	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/ui"
)

var reportRef = time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC)

func rangeFor(t *testing.T, expr string) dates.Range {
	t.Helper()
	r, err := dates.ParseRange(expr, reportRef)
	if err != nil {
		t.Fatalf("ParseRange(%q) error = %v", expr, err)
	}
	return r
}

func fixtureData() ([]entity.Activity, []entity.Hotspot, []entity.FireIncident) {
	acts := []entity.Activity{
		{ID: "act-1", Date: "2025-11-04", Team: "A", Type: "patrol", Title: "Morning patrol", Personnel: 4, DurationHours: 3},
		{ID: "act-2", Date: "2025-11-04", Team: "B", Type: "firebreak", Title: "Firebreak east", Personnel: 6, DurationHours: 5.5},
		{ID: "act-3", Date: "2025-10-01", Team: "A", Type: "patrol", Title: "Out of range", Personnel: 2, DurationHours: 1},
	}
	hs := []entity.Hotspot{
		{ID: "hs-1", Date: "2025-11-04", Round: "morning", Count: 3, Region: "north", Status: "checked"},
		{ID: "hs-2", Date: "2025-11-03", Round: "evening", Count: 2, Region: "east", Status: "new"},
	}
	fis := []entity.FireIncident{
		{ID: "fi-1", Date: "2025-11-04", Location: "sector 7", AreaRai: 12.5, Controlled: true, Team: "A"},
		{ID: "fi-2", Date: "2025-11-04", Location: "sector 9", AreaRai: 4.0, Controlled: false, Team: "B"},
	}
	return acts, hs, fis
}

func TestBuildFiltersAndAggregates(t *testing.T) {
	acts, hs, fis := fixtureData()
	d := Build(acts, hs, fis, entity.DefaultSettings(), rangeFor(t, "2025-11-03..2025-11-04"))

	if d.KPIs.Activities != 2 {
		t.Errorf("KPIs.Activities = %d, want 2", d.KPIs.Activities)
	}
	if d.KPIs.PersonnelTotal != 10 {
		t.Errorf("KPIs.PersonnelTotal = %d, want 10", d.KPIs.PersonnelTotal)
	}
	if d.KPIs.DurationHours != 8.5 {
		t.Errorf("KPIs.DurationHours = %v, want 8.5", d.KPIs.DurationHours)
	}
	if d.KPIs.HotspotReports != 2 || d.KPIs.HotspotCount != 5 {
		t.Errorf("hotspot KPIs = %d reports / %d count, want 2 / 5",
			d.KPIs.HotspotReports, d.KPIs.HotspotCount)
	}
	if d.KPIs.Incidents != 2 || d.KPIs.IncidentsControlled != 1 {
		t.Errorf("incident KPIs = %d / %d controlled, want 2 / 1",
			d.KPIs.Incidents, d.KPIs.IncidentsControlled)
	}
	if d.KPIs.AreaRai != 16.5 {
		t.Errorf("KPIs.AreaRai = %v, want 16.5", d.KPIs.AreaRai)
	}
	if d.KPIs.ByType["patrol"] != 1 || d.KPIs.ByType["firebreak"] != 1 {
		t.Errorf("KPIs.ByType = %v, want patrol:1 firebreak:1", d.KPIs.ByType)
	}
	if d.KPIs.ByRound["morning"] != 3 || d.KPIs.ByRound["evening"] != 2 {
		t.Errorf("KPIs.ByRound = %v, want morning:3 evening:2", d.KPIs.ByRound)
	}
	if d.KPIs.ByRegion["north"] != 3 || d.KPIs.ByRegion["east"] != 2 {
		t.Errorf("KPIs.ByRegion = %v, want north:3 east:2", d.KPIs.ByRegion)
	}
	if len(d.Activities) != 2 {
		t.Errorf("filtered activities = %d, want 2 (out-of-range dropped)", len(d.Activities))
	}
}

func TestRankCounts(t *testing.T) {
	m := map[string]int{"north": 3, "east": 2, "west": 2, "south": 9}

	if got := rankCounts(m, 0); got != "south 9, north 3, east 2, west 2" {
		t.Errorf("rankCounts(m, 0) = %q", got)
	}
	if got := rankCounts(m, 2); got != "south 9, north 3" {
		t.Errorf("rankCounts(m, 2) = %q", got)
	}
	if got := rankCounts(nil, 3); got != "" {
		t.Errorf("rankCounts(nil) = %q, want empty", got)
	}
}

func TestBuildEmptyRange(t *testing.T) {
	acts, hs, fis := fixtureData()
	d := Build(acts, hs, fis, entity.DefaultSettings(), rangeFor(t, "2024-01-01"))

	if d.KPIs.Activities != 0 || d.KPIs.HotspotReports != 0 || d.KPIs.Incidents != 0 {
		t.Errorf("KPIs over empty range = %+v, want all zero", d.KPIs)
	}
}

func TestDefaultTemplate(t *testing.T) {
	tmpl := DefaultTemplate()
	if !tmpl.ShowKPIs || !tmpl.ShowActivities || !tmpl.ShowHotspots || !tmpl.ShowIncidents {
		t.Errorf("DefaultTemplate() hides sections: %+v", tmpl)
	}
	if tmpl.MaxRows != 20 {
		t.Errorf("DefaultTemplate().MaxRows = %d, want 20", tmpl.MaxRows)
	}
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.toml")
	body := `
title = "Evening Wrap"
show_hotspots = false
max_rows = 5
footer = "Stay safe."
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tmpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	if tmpl.Title != "Evening Wrap" {
		t.Errorf("Title = %q, want %q", tmpl.Title, "Evening Wrap")
	}
	if tmpl.ShowHotspots {
		t.Error("ShowHotspots = true, want false from file")
	}
	if !tmpl.ShowActivities {
		t.Error("ShowActivities = false, want default true for omitted key")
	}
	if tmpl.MaxRows != 5 {
		t.Errorf("MaxRows = %d, want 5", tmpl.MaxRows)
	}
	if tmpl.Footer != "Stay safe." {
		t.Errorf("Footer = %q, want %q", tmpl.Footer, "Stay safe.")
	}
}

func TestLoadTemplateRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("show_weather = true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadTemplate(path); err == nil {
		t.Error("LoadTemplate() with unknown key: error = nil, want error")
	}
}

func TestLoadTemplateMissingFile(t *testing.T) {
	if _, err := LoadTemplate(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadTemplate() on missing file: error = nil, want error")
	}
}

func TestRenderSections(t *testing.T) {
	acts, hs, fis := fixtureData()
	st := entity.DefaultSettings()
	st.UnitName = "Station 12"
	st.Province = "Chiang Mai"
	d := Build(acts, hs, fis, st, rangeFor(t, "2025-11-03..2025-11-04"))
	styles := ui.NewStyles(ui.ThemePlain)

	out := Render(d, DefaultTemplate(), styles)

	for _, want := range []string{
		"Daily Operations Summary",
		"Station 12, Chiang Mai",
		"Period: 2025-11-03 to 2025-11-04",
		"Activities (2)",
		"Hotspot Reports (2)",
		"Fire Incidents (2)",
		"Detections by round",
		"morning 3, evening 2",
		"Top regions",
		"Firebreak east",
		"sector 9",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Out of range") {
		t.Errorf("Render() leaked an out-of-range record:\n%s", out)
	}
}

func TestRenderRespectsTemplate(t *testing.T) {
	acts, hs, fis := fixtureData()
	d := Build(acts, hs, fis, entity.DefaultSettings(), rangeFor(t, "2025-11-04"))
	styles := ui.NewStyles(ui.ThemePlain)

	tmpl := DefaultTemplate()
	tmpl.Title = "Custom Title"
	tmpl.ShowHotspots = false
	tmpl.ShowIncidents = false
	tmpl.Footer = "End of report"

	out := Render(d, tmpl, styles)
	if !strings.Contains(out, "Custom Title") {
		t.Errorf("Render() missing custom title:\n%s", out)
	}
	if strings.Contains(out, "Hotspot Reports") || strings.Contains(out, "Fire Incidents") {
		t.Errorf("Render() kept disabled sections:\n%s", out)
	}
	if !strings.Contains(out, "End of report") {
		t.Errorf("Render() missing footer:\n%s", out)
	}
}

func TestRenderCapsRows(t *testing.T) {
	var acts []entity.Activity
	for i := 0; i < 8; i++ {
		acts = append(acts, entity.Activity{
			ID: entity.NewID("act"), Date: "2025-11-04", Team: "A",
			Type: "patrol", Title: "Patrol", Personnel: 2, DurationHours: 1,
		})
	}
	d := Build(acts, nil, nil, entity.DefaultSettings(), rangeFor(t, "2025-11-04"))
	styles := ui.NewStyles(ui.ThemePlain)

	tmpl := DefaultTemplate()
	tmpl.MaxRows = 3

	out := Render(d, tmpl, styles)
	if !strings.Contains(out, "and 5 more") {
		t.Errorf("Render() missing truncation line:\n%s", out)
	}
}

func TestSummaryPromptCarriesReport(t *testing.T) {
	got := summaryPrompt("REPORT BODY HERE")
	if !strings.Contains(got, "REPORT BODY HERE") {
		t.Error("summaryPrompt() dropped the report text")
	}
	if !strings.Contains(got, "morning briefing") {
		t.Error("summaryPrompt() missing the briefing instruction")
	}
}
