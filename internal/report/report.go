// Package report aggregates the unit's records over a day range into
// an operations report: headline KPIs, per-collection detail tables,
// and an optional AI summary.
package report

import (
	"github.com/emberhq/firewatch/internal/dates"
	"github.com/emberhq/firewatch/internal/entity"
)

// KPIs are the headline numbers for one day range.
type KPIs struct {
	Activities     int
	PersonnelTotal int
	DurationHours  float64

	HotspotReports int
	HotspotCount   int

	Incidents           int
	IncidentsControlled int
	AreaRai             float64

	ByType   map[string]int
	ByTeam   map[string]int
	ByRound  map[string]int
	ByRegion map[string]int
}

// Data is everything a renderer needs for one report.
type Data struct {
	Settings entity.Settings
	Range    dates.Range
	KPIs     KPIs

	Activities []entity.Activity
	Hotspots   []entity.Hotspot
	Incidents  []entity.FireIncident
}

// Build filters the collections to the range and computes the KPIs.
func Build(acts []entity.Activity, hs []entity.Hotspot, fis []entity.FireIncident, st entity.Settings, rng dates.Range) Data {
	d := Data{
		Settings: st,
		Range:    rng,
		KPIs: KPIs{
			ByType:   map[string]int{},
			ByTeam:   map[string]int{},
			ByRound:  map[string]int{},
			ByRegion: map[string]int{},
		},
	}

	for _, a := range acts {
		if !rng.Contains(a.Date) {
			continue
		}
		d.Activities = append(d.Activities, a)
		d.KPIs.Activities++
		d.KPIs.PersonnelTotal += a.Personnel
		d.KPIs.DurationHours += a.DurationHours
		if a.Type != "" {
			d.KPIs.ByType[a.Type]++
		}
		if a.Team != "" {
			d.KPIs.ByTeam[a.Team]++
		}
	}

	for _, h := range hs {
		if !rng.Contains(h.Date) {
			continue
		}
		d.Hotspots = append(d.Hotspots, h)
		d.KPIs.HotspotReports++
		d.KPIs.HotspotCount += h.Count
		if h.Round != "" {
			d.KPIs.ByRound[h.Round] += h.Count
		}
		if h.Region != "" {
			d.KPIs.ByRegion[h.Region] += h.Count
		}
	}

	for _, in := range fis {
		if !rng.Contains(in.Date) {
			continue
		}
		d.Incidents = append(d.Incidents, in)
		d.KPIs.Incidents++
		d.KPIs.AreaRai += in.AreaRai
		if in.Controlled {
			d.KPIs.IncidentsControlled++
		}
	}

	return d
}
