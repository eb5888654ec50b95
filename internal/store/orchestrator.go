package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/emberhq/firewatch/internal/cache"
	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/remote"
)

// orchestrator implements the Store interface.
type orchestrator struct {
	remote remote.Client
	cache  *cache.Cache
	logger *log.Logger

	successDelay time.Duration
	errorDelay   time.Duration

	mu         sync.RWMutex
	activities []entity.Activity
	hotspots   []entity.Hotspot
	incidents  []entity.FireIncident
	settings   entity.Settings
	loading    bool
	opened     bool
	hadCache   bool
	closed     bool

	status     Status
	statusGen  uint64
	clearTimer *time.Timer

	inflight map[string]struct{}

	revalidating sync.Mutex // TryLock guards against overlapping revalidations

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// Open implements Store.Open.
func (o *orchestrator) Open() Snapshot {
	o.mu.Lock()
	if o.opened {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap
	}
	o.opened = true
	o.loading = true

	acts, actsOK := o.cache.ReadActivities()
	hs, hsOK := o.cache.ReadHotspots()
	fis, fisOK := o.cache.ReadIncidents()
	st, stOK := o.cache.ReadSettings()

	if actsOK {
		o.activities = acts
	}
	if hsOK {
		o.hotspots = hs
	}
	if fisOK {
		o.incidents = fis
	}
	if stOK {
		o.settings = st
	}
	o.hadCache = actsOK || hsOK || fisOK || stOK

	// The operator never stares at a spinner when there is something
	// to show: both primary collections cached means loading is done.
	if actsOK && hsOK {
		o.loading = false
	}

	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.logger.Printf("Opened from cache: activities=%d hotspots=%d incidents=%d (cached=%v, loading=%v)",
		len(snap.Activities), len(snap.Hotspots), len(snap.Incidents), snap.LastRefresh != (time.Time{}), snap.Loading)
	o.notify(Event{Kind: EventSnapshot})
	return snap
}

// Revalidate implements Store.Revalidate.
func (o *orchestrator) Revalidate(ctx context.Context) error {
	if !o.revalidating.TryLock() {
		o.logger.Printf("Revalidation already in flight, ignoring request")
		return nil
	}
	defer o.revalidating.Unlock()

	// The initial-loading flag is cleared on every exit path so the
	// consumer can never be left stuck in the loading state.
	defer func() {
		o.mu.Lock()
		wasLoading := o.loading
		o.loading = false
		o.mu.Unlock()
		if wasLoading {
			o.notify(Event{Kind: EventSnapshot})
		}
	}()

	o.setStatus(StateSyncing, "Refreshing data...")

	var (
		acts        []entity.Activity
		hs          []entity.Hotspot
		fis         []entity.FireIncident
		rawSettings json.RawMessage
		errs        [4]error
	)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		acts, errs[0] = o.remote.FetchActivities(ctx)
	}()
	go func() {
		defer wg.Done()
		hs, errs[1] = o.remote.FetchHotspots(ctx)
	}()
	go func() {
		defer wg.Done()
		fis, errs[2] = o.remote.FetchIncidents(ctx)
	}()
	go func() {
		defer wg.Done()
		rawSettings, errs[3] = o.remote.FetchSettings(ctx)
	}()
	wg.Wait()

	var fetchErr error
	for _, err := range errs {
		if err != nil {
			fetchErr = err
			break
		}
	}

	if fetchErr == nil {
		merged := entity.MergeSettings(entity.DefaultSettings(), rawSettings)

		o.mu.Lock()
		o.activities = acts
		o.hotspots = hs
		o.incidents = fis
		o.settings = merged
		o.hadCache = true
		o.mu.Unlock()

		o.cache.WriteActivities(acts)
		o.cache.WriteHotspots(hs)
		o.cache.WriteIncidents(fis)
		o.cache.WriteSettings(merged)

		o.logger.Printf("Revalidated: activities=%d hotspots=%d incidents=%d", len(acts), len(hs), len(fis))
		o.notify(Event{Kind: EventSnapshot})
		o.setStatus(StateSuccess, "Data refreshed")
		return nil
	}

	o.mu.RLock()
	had := o.hadCache
	o.mu.RUnlock()

	if had {
		// Cached data stays on screen; the failure is a transient
		// indicator, not a blocker.
		o.logger.Printf("Revalidation failed, keeping cached data: %v", fetchErr)
		o.setStatus(StateError, "Sync failed, showing cached data")
		return nil
	}

	o.logger.Printf("Revalidation failed with empty cache: %v", fetchErr)
	o.setStatus(StateError, fetchErr.Error())
	return fmt.Errorf("%w: %v", ErrNoLocalData, fetchErr)
}

// Close implements Store.Close.
func (o *orchestrator) Close() error {
	o.mu.Lock()
	o.closed = true
	if o.clearTimer != nil {
		o.clearTimer.Stop()
		o.clearTimer = nil
	}
	o.mu.Unlock()

	o.subMu.Lock()
	for ch := range o.subs {
		close(ch)
	}
	o.subs = nil
	o.subMu.Unlock()
	return nil
}

// ===================
// Read accessors
// ===================

func (o *orchestrator) Activities() []entity.Activity {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]entity.Activity(nil), o.activities...)
}

func (o *orchestrator) Hotspots() []entity.Hotspot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]entity.Hotspot(nil), o.hotspots...)
}

func (o *orchestrator) Incidents() []entity.FireIncident {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]entity.FireIncident(nil), o.incidents...)
}

func (o *orchestrator) Settings() entity.Settings {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.settings.Clone()
}

func (o *orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshotLocked()
}

func (o *orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *orchestrator) Loading() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loading
}

func (o *orchestrator) InFlight(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, busy := o.inflight[id]
	return busy
}

// snapshotLocked builds a Snapshot. Callers hold at least a read lock.
func (o *orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Activities: append([]entity.Activity(nil), o.activities...),
		Hotspots:   append([]entity.Hotspot(nil), o.hotspots...),
		Incidents:  append([]entity.FireIncident(nil), o.incidents...),
		Settings:   o.settings.Clone(),
		Status:     o.status,
		Loading:    o.loading,
		Stale:      o.cache.IsStale(),
	}
	if ts, ok := o.cache.LastRefresh(); ok {
		snap.LastRefresh = ts
	}
	return snap
}
