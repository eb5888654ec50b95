package store

import (
	"context"
	"fmt"

	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/remote"
)

// mutation describes one optimistic write. The apply step runs before
// the remote call; rollback runs only when the call fails and must
// leave state as if the mutation never happened (or, for updates, as
// the remote authoritatively has it).
type mutation struct {
	ids        []string
	collection string
	pending    string // status while the call is in flight
	confirmed  string // status on success
	action     string // lowercase phrase for failure status and error wrap
	apply      func()
	call       func(context.Context) error
	rollback   func(context.Context)
	persist    func()
}

// runMutation drives the shared write protocol: in-flight reservation,
// optimistic apply, status transitions, the remote call, and rollback
// plus cache re-persist on failure. State is consistent by the time it
// returns; the returned error is informational.
func (o *orchestrator) runMutation(ctx context.Context, m mutation) error {
	if err := o.markInFlight(m.ids...); err != nil {
		return err
	}
	defer o.clearInFlight(m.ids...)

	m.apply()
	o.notify(Event{Kind: EventCollection, Collection: m.collection})
	o.setStatus(StateSyncing, m.pending)

	if err := m.call(ctx); err != nil {
		m.rollback(ctx)
		m.persist()
		o.notify(Event{Kind: EventCollection, Collection: m.collection})
		o.setStatus(StateError, fmt.Sprintf("Failed to %s: %v", m.action, err))
		return fmt.Errorf("failed to %s: %w", m.action, err)
	}

	m.persist()
	o.setStatus(StateSuccess, m.confirmed)
	return nil
}

// markInFlight reserves record ids for one mutation. All-or-nothing:
// if any id is already reserved, nothing is marked.
func (o *orchestrator) markInFlight(ids ...string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		if _, busy := o.inflight[id]; busy {
			return fmt.Errorf("%w: %s", ErrMutationInFlight, id)
		}
	}
	for _, id := range ids {
		o.inflight[id] = struct{}{}
	}
	return nil
}

func (o *orchestrator) clearInFlight(ids ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		delete(o.inflight, id)
	}
}

// ===================
// Activities
// ===================

// SaveActivity implements Store.SaveActivity.
func (o *orchestrator) SaveActivity(ctx context.Context, a entity.Activity, isUpdate bool) error {
	if a.ID == "" {
		return fmt.Errorf("activity id is required")
	}

	var preImage *entity.Activity
	action := "save activity " + a.ID
	pending := "Saving activity..."
	if isUpdate {
		action = "update activity " + a.ID
		pending = "Updating activity..."
	}

	return o.runMutation(ctx, mutation{
		ids:        []string{a.ID},
		collection: CollectionActivities,
		pending:    pending,
		confirmed:  "Activity saved",
		action:     action,
		apply: func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if !isUpdate {
				o.activities = append([]entity.Activity{a}, o.activities...)
				return
			}
			for i := range o.activities {
				if o.activities[i].ID == a.ID {
					cp := o.activities[i]
					preImage = &cp
					o.activities[i] = a
					return
				}
			}
		},
		call: func(ctx context.Context) error {
			return o.remote.SaveActivity(ctx, a, isUpdate)
		},
		rollback: func(ctx context.Context) {
			if !isUpdate {
				o.mu.Lock()
				o.activities = removeActivity(o.activities, a.ID)
				o.mu.Unlock()
				return
			}
			// A failed update means the optimistic edit may be wrong;
			// the remote has the truth, so recover by refetching.
			fresh, err := o.remote.FetchActivities(ctx)
			if err != nil {
				o.logger.Printf("WARNING: recovery refetch of activities failed, restoring pre-image: %v", err)
				if preImage != nil {
					o.mu.Lock()
					replaceActivity(o.activities, *preImage)
					o.mu.Unlock()
				}
				return
			}
			o.mu.Lock()
			o.activities = fresh
			o.mu.Unlock()
		},
		persist: o.persistActivities,
	})
}

// DeleteActivity implements Store.DeleteActivity.
func (o *orchestrator) DeleteActivity(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("activity id is required")
	}

	var captured *entity.Activity
	var capturedAt int

	return o.runMutation(ctx, mutation{
		ids:        []string{id},
		collection: CollectionActivities,
		pending:    "Deleting activity...",
		confirmed:  "Activity deleted",
		action:     "delete activity " + id,
		apply: func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i := range o.activities {
				if o.activities[i].ID == id {
					cp := o.activities[i]
					captured = &cp
					capturedAt = i
					o.activities = append(o.activities[:i], o.activities[i+1:]...)
					return
				}
			}
		},
		call: func(ctx context.Context) error {
			return o.remote.DeleteActivity(ctx, id)
		},
		rollback: func(context.Context) {
			if captured == nil {
				return
			}
			o.mu.Lock()
			o.activities = insertActivity(o.activities, *captured, capturedAt)
			o.mu.Unlock()
		},
		persist: o.persistActivities,
	})
}

// ===================
// Hotspots
// ===================

// SaveHotspot implements Store.SaveHotspot.
func (o *orchestrator) SaveHotspot(ctx context.Context, h entity.Hotspot, isUpdate bool) error {
	if h.ID == "" {
		return fmt.Errorf("hotspot id is required")
	}

	var preImage *entity.Hotspot
	action := "save hotspot " + h.ID
	pending := "Saving hotspot report..."
	if isUpdate {
		action = "update hotspot " + h.ID
		pending = "Updating hotspot report..."
	}

	return o.runMutation(ctx, mutation{
		ids:        []string{h.ID},
		collection: CollectionHotspots,
		pending:    pending,
		confirmed:  "Hotspot report saved",
		action:     action,
		apply: func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if !isUpdate {
				o.hotspots = append([]entity.Hotspot{h}, o.hotspots...)
				return
			}
			for i := range o.hotspots {
				if o.hotspots[i].ID == h.ID {
					cp := o.hotspots[i]
					preImage = &cp
					o.hotspots[i] = h
					return
				}
			}
		},
		call: func(ctx context.Context) error {
			return o.remote.SaveHotspot(ctx, h, isUpdate)
		},
		rollback: func(ctx context.Context) {
			if !isUpdate {
				o.mu.Lock()
				o.hotspots = removeHotspot(o.hotspots, h.ID)
				o.mu.Unlock()
				return
			}
			fresh, err := o.remote.FetchHotspots(ctx)
			if err != nil {
				o.logger.Printf("WARNING: recovery refetch of hotspots failed, restoring pre-image: %v", err)
				if preImage != nil {
					o.mu.Lock()
					replaceHotspot(o.hotspots, *preImage)
					o.mu.Unlock()
				}
				return
			}
			o.mu.Lock()
			o.hotspots = fresh
			o.mu.Unlock()
		},
		persist: o.persistHotspots,
	})
}

// DeleteHotspot implements Store.DeleteHotspot.
func (o *orchestrator) DeleteHotspot(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("hotspot id is required")
	}

	var captured *entity.Hotspot
	var capturedAt int

	return o.runMutation(ctx, mutation{
		ids:        []string{id},
		collection: CollectionHotspots,
		pending:    "Deleting hotspot report...",
		confirmed:  "Hotspot report deleted",
		action:     "delete hotspot " + id,
		apply: func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i := range o.hotspots {
				if o.hotspots[i].ID == id {
					cp := o.hotspots[i]
					captured = &cp
					capturedAt = i
					o.hotspots = append(o.hotspots[:i], o.hotspots[i+1:]...)
					return
				}
			}
		},
		call: func(ctx context.Context) error {
			return o.remote.DeleteHotspot(ctx, id)
		},
		rollback: func(context.Context) {
			if captured == nil {
				return
			}
			o.mu.Lock()
			o.hotspots = insertHotspot(o.hotspots, *captured, capturedAt)
			o.mu.Unlock()
		},
		persist: o.persistHotspots,
	})
}

// ===================
// Fire Incidents
// ===================

// SaveIncident implements Store.SaveIncident.
func (o *orchestrator) SaveIncident(ctx context.Context, in entity.FireIncident, isUpdate bool) error {
	if in.ID == "" {
		return fmt.Errorf("incident id is required")
	}

	var preImage *entity.FireIncident
	action := "save incident " + in.ID
	pending := "Saving fire incident..."
	if isUpdate {
		action = "update incident " + in.ID
		pending = "Updating fire incident..."
	}

	return o.runMutation(ctx, mutation{
		ids:        []string{in.ID},
		collection: CollectionIncidents,
		pending:    pending,
		confirmed:  "Fire incident saved",
		action:     action,
		apply: func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if !isUpdate {
				o.incidents = append([]entity.FireIncident{in}, o.incidents...)
				return
			}
			for i := range o.incidents {
				if o.incidents[i].ID == in.ID {
					cp := o.incidents[i]
					preImage = &cp
					o.incidents[i] = in
					return
				}
			}
		},
		call: func(ctx context.Context) error {
			return o.remote.SaveIncident(ctx, in, isUpdate)
		},
		rollback: func(ctx context.Context) {
			if !isUpdate {
				o.mu.Lock()
				o.incidents = removeIncident(o.incidents, in.ID)
				o.mu.Unlock()
				return
			}
			fresh, err := o.remote.FetchIncidents(ctx)
			if err != nil {
				o.logger.Printf("WARNING: recovery refetch of incidents failed, restoring pre-image: %v", err)
				if preImage != nil {
					o.mu.Lock()
					replaceIncident(o.incidents, *preImage)
					o.mu.Unlock()
				}
				return
			}
			o.mu.Lock()
			o.incidents = fresh
			o.mu.Unlock()
		},
		persist: o.persistIncidents,
	})
}

// SaveIncidentsBatch implements Store.SaveIncidentsBatch.
func (o *orchestrator) SaveIncidentsBatch(ctx context.Context, batch []entity.FireIncident) error {
	if len(batch) == 0 {
		return nil
	}
	ids := make([]string, len(batch))
	for i := range batch {
		if batch[i].ID == "" {
			return fmt.Errorf("incident %d: id is required", i)
		}
		ids[i] = batch[i].ID
	}

	return o.runMutation(ctx, mutation{
		ids:        ids,
		collection: CollectionIncidents,
		pending:    fmt.Sprintf("Saving %d fire incidents...", len(batch)),
		confirmed:  fmt.Sprintf("%d fire incidents saved", len(batch)),
		action:     fmt.Sprintf("save batch of %d incidents", len(batch)),
		apply: func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			o.incidents = append(append([]entity.FireIncident(nil), batch...), o.incidents...)
		},
		call: func(ctx context.Context) error {
			return o.remote.SaveIncidentsBatch(ctx, batch)
		},
		rollback: func(context.Context) {
			// Remove exactly the attempted id set, nothing else.
			attempted := make(map[string]struct{}, len(ids))
			for _, id := range ids {
				attempted[id] = struct{}{}
			}
			o.mu.Lock()
			kept := o.incidents[:0:0]
			for _, in := range o.incidents {
				if _, drop := attempted[in.ID]; !drop {
					kept = append(kept, in)
				}
			}
			o.incidents = kept
			o.mu.Unlock()
		},
		persist: o.persistIncidents,
	})
}

// DeleteIncident implements Store.DeleteIncident.
func (o *orchestrator) DeleteIncident(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("incident id is required")
	}

	var captured *entity.FireIncident
	var capturedAt int

	return o.runMutation(ctx, mutation{
		ids:        []string{id},
		collection: CollectionIncidents,
		pending:    "Deleting fire incident...",
		confirmed:  "Fire incident deleted",
		action:     "delete incident " + id,
		apply: func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i := range o.incidents {
				if o.incidents[i].ID == id {
					cp := o.incidents[i]
					captured = &cp
					capturedAt = i
					o.incidents = append(o.incidents[:i], o.incidents[i+1:]...)
					return
				}
			}
		},
		call: func(ctx context.Context) error {
			return o.remote.DeleteIncident(ctx, id)
		},
		rollback: func(context.Context) {
			if captured == nil {
				return
			}
			o.mu.Lock()
			o.incidents = insertIncident(o.incidents, *captured, capturedAt)
			o.mu.Unlock()
		},
		persist: o.persistIncidents,
	})
}

// ===================
// Settings
// ===================

// settingsMarker reserves the singleton settings document in the
// in-flight set; it has no record id of its own.
const settingsMarker = "settings"

// SaveSettings implements Store.SaveSettings.
func (o *orchestrator) SaveSettings(ctx context.Context, s entity.Settings) error {
	var previous entity.Settings

	return o.runMutation(ctx, mutation{
		ids:        []string{settingsMarker},
		collection: CollectionSettings,
		pending:    "Saving settings...",
		confirmed:  "Settings saved",
		action:     "save settings",
		apply: func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			previous = o.settings
			o.settings = s.Clone()
		},
		call: func(ctx context.Context) error {
			return o.remote.SaveSettings(ctx, s)
		},
		rollback: func(context.Context) {
			o.mu.Lock()
			o.settings = previous
			o.mu.Unlock()
		},
		persist: o.persistSettings,
	})
}

// ===================
// Factory Reset
// ===================

// FactoryReset implements Store.FactoryReset.
//
// The remote legs run first, one sheet at a time. Local state and the
// cache are cleared only when every sheet reset succeeded; a failure
// part-way leaves all local data in place, because the operator may be
// holding the only copy of whatever the remote still has.
func (o *orchestrator) FactoryReset(ctx context.Context) error {
	o.setStatus(StateSyncing, "Resetting all data...")

	sheets := []string{
		remote.SheetActivities,
		remote.SheetHotspots,
		remote.SheetSettings,
		remote.SheetFireIncidents,
	}
	for _, sheet := range sheets {
		if err := o.remote.Reset(ctx, sheet); err != nil {
			o.setStatus(StateError, fmt.Sprintf("Reset failed on %s, local data preserved", sheet))
			return fmt.Errorf("failed to reset %s (local data preserved): %w", sheet, err)
		}
	}

	o.mu.Lock()
	o.activities = []entity.Activity{}
	o.hotspots = []entity.Hotspot{}
	o.incidents = []entity.FireIncident{}
	o.settings = entity.DefaultSettings()
	o.hadCache = false
	o.mu.Unlock()

	if err := o.cache.ClearAll(); err != nil {
		// The remote is already empty; a failed local clear only means
		// the next open paints data that no longer exists upstream.
		o.logger.Printf("WARNING: remote reset succeeded but cache clear failed: %v", err)
	}

	o.logger.Printf("Factory reset complete")
	o.notify(Event{Kind: EventSnapshot})
	o.setStatus(StateSuccess, "All data reset")
	return nil
}

// ===================
// Cache re-persist helpers
// ===================

func (o *orchestrator) persistActivities() {
	o.cache.WriteActivities(o.Activities())
}

func (o *orchestrator) persistHotspots() {
	o.cache.WriteHotspots(o.Hotspots())
}

func (o *orchestrator) persistIncidents() {
	o.cache.WriteIncidents(o.Incidents())
}

func (o *orchestrator) persistSettings() {
	o.cache.WriteSettings(o.Settings())
}

// ===================
// List helpers
// ===================

func removeActivity(list []entity.Activity, id string) []entity.Activity {
	kept := list[:0:0]
	for _, a := range list {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	return kept
}

func insertActivity(list []entity.Activity, a entity.Activity, at int) []entity.Activity {
	if at < 0 {
		at = 0
	}
	if at > len(list) {
		at = len(list)
	}
	out := make([]entity.Activity, 0, len(list)+1)
	out = append(out, list[:at]...)
	out = append(out, a)
	out = append(out, list[at:]...)
	return out
}

func replaceActivity(list []entity.Activity, a entity.Activity) {
	for i := range list {
		if list[i].ID == a.ID {
			list[i] = a
			return
		}
	}
}

func removeHotspot(list []entity.Hotspot, id string) []entity.Hotspot {
	kept := list[:0:0]
	for _, h := range list {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	return kept
}

func insertHotspot(list []entity.Hotspot, h entity.Hotspot, at int) []entity.Hotspot {
	if at < 0 {
		at = 0
	}
	if at > len(list) {
		at = len(list)
	}
	out := make([]entity.Hotspot, 0, len(list)+1)
	out = append(out, list[:at]...)
	out = append(out, h)
	out = append(out, list[at:]...)
	return out
}

func replaceHotspot(list []entity.Hotspot, h entity.Hotspot) {
	for i := range list {
		if list[i].ID == h.ID {
			list[i] = h
			return
		}
	}
}

func removeIncident(list []entity.FireIncident, id string) []entity.FireIncident {
	kept := list[:0:0]
	for _, in := range list {
		if in.ID != id {
			kept = append(kept, in)
		}
	}
	return kept
}

func insertIncident(list []entity.FireIncident, in entity.FireIncident, at int) []entity.FireIncident {
	if at < 0 {
		at = 0
	}
	if at > len(list) {
		at = len(list)
	}
	out := make([]entity.FireIncident, 0, len(list)+1)
	out = append(out, list[:at]...)
	out = append(out, in)
	out = append(out, list[at:]...)
	return out
}

func replaceIncident(list []entity.FireIncident, in entity.FireIncident) {
	for i := range list {
		if list[i].ID == in.ID {
			list[i] = in
			return
		}
	}
}
