package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/ui"
)

// Render produces the terminal form of a report. The same text, minus
// styling, feeds the AI summarizer.
func Render(d Data, tmpl Template, styles *ui.Styles) string {
	var b strings.Builder

	title := tmpl.Title
	if title == "" {
		title = d.Settings.ReportHeader
	}
	if title == "" {
		title = "Operations Report"
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")

	unit := d.Settings.UnitName
	if d.Settings.Province != "" {
		unit += ", " + d.Settings.Province
	}
	b.WriteString(styles.Muted.Render(unit))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("Period: " + d.Range.String()))
	b.WriteString("\n\n")

	if tmpl.ShowKPIs {
		b.WriteString(styles.Section("Summary", renderKPIs(d.KPIs, styles)))
		b.WriteString("\n")
	}
	if tmpl.ShowActivities {
		b.WriteString(styles.Section(
			fmt.Sprintf("Activities (%d)", d.KPIs.Activities),
			renderActivities(d.Activities, tmpl.MaxRows, styles)))
		b.WriteString("\n")
	}
	if tmpl.ShowHotspots {
		b.WriteString(styles.Section(
			fmt.Sprintf("Hotspot Reports (%d)", d.KPIs.HotspotReports),
			renderHotspots(d.Hotspots, tmpl.MaxRows, styles)))
		b.WriteString("\n")
	}
	if tmpl.ShowIncidents {
		b.WriteString(styles.Section(
			fmt.Sprintf("Fire Incidents (%d)", d.KPIs.Incidents),
			renderIncidents(d.Incidents, tmpl.MaxRows, styles)))
		b.WriteString("\n")
	}

	if tmpl.Footer != "" {
		b.WriteString(styles.Muted.Render(tmpl.Footer))
		b.WriteString("\n")
	}
	return b.String()
}

func renderKPIs(k KPIs, styles *ui.Styles) string {
	rows := [][]string{
		{"Activities", strconv.Itoa(k.Activities)},
		{"Personnel deployed", strconv.Itoa(k.PersonnelTotal)},
		{"Hours worked", fmt.Sprintf("%.1f", k.DurationHours)},
		{"Hotspot reports", strconv.Itoa(k.HotspotReports)},
		{"Hotspots detected", strconv.Itoa(k.HotspotCount)},
	}
	if s := rankCounts(k.ByRound, 0); s != "" {
		rows = append(rows, []string{"Detections by round", s})
	}
	if s := rankCounts(k.ByRegion, 3); s != "" {
		rows = append(rows, []string{"Top regions", s})
	}
	rows = append(rows,
		[]string{"Fire incidents", strconv.Itoa(k.Incidents)},
		[]string{"Incidents controlled", fmt.Sprintf("%d of %d", k.IncidentsControlled, k.Incidents)},
		[]string{"Area affected (rai)", fmt.Sprintf("%.1f", k.AreaRai)},
	)
	return styles.Table([]string{"METRIC", "VALUE"}, rows)
}

// rankCounts formats a count map as "name count, name count" ordered by
// count descending, name ascending on ties. n > 0 caps the list.
func rankCounts(m map[string]int, n int) string {
	if len(m) == 0 {
		return ""
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] > m[names[j]]
		}
		return names[i] < names[j]
	})
	if n > 0 && len(names) > n {
		names = names[:n]
	}
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s %d", name, m[name])
	}
	return strings.Join(parts, ", ")
}

func renderActivities(acts []entity.Activity, maxRows int, styles *ui.Styles) string {
	if len(acts) == 0 {
		return "none\n"
	}
	rows := make([][]string, 0, len(acts))
	for _, a := range acts {
		rows = append(rows, []string{
			a.Date, a.Team, a.Type, a.Title,
			strconv.Itoa(a.Personnel), fmt.Sprintf("%.1f", a.DurationHours),
		})
	}
	rows, omitted := capRows(rows, maxRows)
	out := styles.Table([]string{"DATE", "TEAM", "TYPE", "TITLE", "CREW", "HOURS"}, rows)
	return out + moreLine(omitted, styles)
}

func renderHotspots(hs []entity.Hotspot, maxRows int, styles *ui.Styles) string {
	if len(hs) == 0 {
		return "none\n"
	}
	rows := make([][]string, 0, len(hs))
	for _, h := range hs {
		rows = append(rows, []string{
			h.Date, h.Round, h.Region, strconv.Itoa(h.Count), h.Status,
		})
	}
	rows, omitted := capRows(rows, maxRows)
	out := styles.Table([]string{"DATE", "ROUND", "REGION", "COUNT", "STATUS"}, rows)
	return out + moreLine(omitted, styles)
}

func renderIncidents(fis []entity.FireIncident, maxRows int, styles *ui.Styles) string {
	if len(fis) == 0 {
		return "none\n"
	}
	rows := make([][]string, 0, len(fis))
	for _, in := range fis {
		controlled := "no"
		if in.Controlled {
			controlled = "yes"
		}
		rows = append(rows, []string{
			in.Date, in.Location, fmt.Sprintf("%.1f", in.AreaRai), controlled, in.Team,
		})
	}
	rows, omitted := capRows(rows, maxRows)
	out := styles.Table([]string{"DATE", "LOCATION", "AREA (RAI)", "CONTROLLED", "TEAM"}, rows)
	return out + moreLine(omitted, styles)
}

func capRows(rows [][]string, maxRows int) ([][]string, int) {
	if maxRows <= 0 || len(rows) <= maxRows {
		return rows, 0
	}
	return rows[:maxRows], len(rows) - maxRows
}

func moreLine(omitted int, styles *ui.Styles) string {
	if omitted == 0 {
		return ""
	}
	return styles.Muted.Render(fmt.Sprintf("and %d more", omitted)) + "\n"
}
