package store

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/emberhq/firewatch/internal/cache"
	"github.com/emberhq/firewatch/internal/entity"
)

// fakeRemote is a scriptable remote.Client. Unset function fields
// behave as an empty, always-successful backend. Every call is
// recorded so tests can assert on traffic shape.
type fakeRemote struct {
	mu    sync.Mutex
	calls []string

	fetchActivities func(ctx context.Context) ([]entity.Activity, error)
	saveActivity    func(ctx context.Context, a entity.Activity, isUpdate bool) error
	deleteActivity  func(ctx context.Context, id string) error

	fetchHotspots func(ctx context.Context) ([]entity.Hotspot, error)
	saveHotspot   func(ctx context.Context, h entity.Hotspot, isUpdate bool) error
	deleteHotspot func(ctx context.Context, id string) error

	fetchIncidents     func(ctx context.Context) ([]entity.FireIncident, error)
	saveIncident       func(ctx context.Context, in entity.FireIncident, isUpdate bool) error
	saveIncidentsBatch func(ctx context.Context, batch []entity.FireIncident) error
	deleteIncident     func(ctx context.Context, id string) error

	fetchSettings func(ctx context.Context) (json.RawMessage, error)
	saveSettings  func(ctx context.Context, s entity.Settings) error

	reset func(ctx context.Context, sheet string) error
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRemote) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeRemote) FetchActivities(ctx context.Context) ([]entity.Activity, error) {
	f.record("FetchActivities")
	if f.fetchActivities != nil {
		return f.fetchActivities(ctx)
	}
	return []entity.Activity{}, nil
}

func (f *fakeRemote) SaveActivity(ctx context.Context, a entity.Activity, isUpdate bool) error {
	f.record("SaveActivity")
	if f.saveActivity != nil {
		return f.saveActivity(ctx, a, isUpdate)
	}
	return nil
}

func (f *fakeRemote) DeleteActivity(ctx context.Context, id string) error {
	f.record("DeleteActivity")
	if f.deleteActivity != nil {
		return f.deleteActivity(ctx, id)
	}
	return nil
}

func (f *fakeRemote) FetchHotspots(ctx context.Context) ([]entity.Hotspot, error) {
	f.record("FetchHotspots")
	if f.fetchHotspots != nil {
		return f.fetchHotspots(ctx)
	}
	return []entity.Hotspot{}, nil
}

func (f *fakeRemote) SaveHotspot(ctx context.Context, h entity.Hotspot, isUpdate bool) error {
	f.record("SaveHotspot")
	if f.saveHotspot != nil {
		return f.saveHotspot(ctx, h, isUpdate)
	}
	return nil
}

func (f *fakeRemote) DeleteHotspot(ctx context.Context, id string) error {
	f.record("DeleteHotspot")
	if f.deleteHotspot != nil {
		return f.deleteHotspot(ctx, id)
	}
	return nil
}

func (f *fakeRemote) FetchIncidents(ctx context.Context) ([]entity.FireIncident, error) {
	f.record("FetchIncidents")
	if f.fetchIncidents != nil {
		return f.fetchIncidents(ctx)
	}
	return []entity.FireIncident{}, nil
}

func (f *fakeRemote) SaveIncident(ctx context.Context, in entity.FireIncident, isUpdate bool) error {
	f.record("SaveIncident")
	if f.saveIncident != nil {
		return f.saveIncident(ctx, in, isUpdate)
	}
	return nil
}

func (f *fakeRemote) SaveIncidentsBatch(ctx context.Context, batch []entity.FireIncident) error {
	f.record("SaveIncidentsBatch")
	if f.saveIncidentsBatch != nil {
		return f.saveIncidentsBatch(ctx, batch)
	}
	return nil
}

func (f *fakeRemote) DeleteIncident(ctx context.Context, id string) error {
	f.record("DeleteIncident")
	if f.deleteIncident != nil {
		return f.deleteIncident(ctx, id)
	}
	return nil
}

func (f *fakeRemote) FetchSettings(ctx context.Context) (json.RawMessage, error) {
	f.record("FetchSettings")
	if f.fetchSettings != nil {
		return f.fetchSettings(ctx)
	}
	return nil, nil
}

func (f *fakeRemote) SaveSettings(ctx context.Context, s entity.Settings) error {
	f.record("SaveSettings")
	if f.saveSettings != nil {
		return f.saveSettings(ctx, s)
	}
	return nil
}

func (f *fakeRemote) Reset(ctx context.Context, sheet string) error {
	f.record("Reset:" + sheet)
	if f.reset != nil {
		return f.reset(ctx, sheet)
	}
	return nil
}

// newTestCache opens a cache on a throwaway path with quiet logging.
func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(cache.Config{
		Path:   filepath.Join(t.TempDir(), "firewatch.db"),
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// newTestStoreWithCache wires a store over the given cache with short
// status-clear delays so the idle transitions are observable in tests.
func newTestStoreWithCache(t *testing.T, fr *fakeRemote, c *cache.Cache) Store {
	t.Helper()
	s, err := New(Config{
		Remote:            fr,
		Cache:             c,
		Logger:            log.New(io.Discard, "", 0),
		SuccessClearDelay: 120 * time.Millisecond,
		ErrorClearDelay:   150 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestStore(t *testing.T, fr *fakeRemote) Store {
	t.Helper()
	return newTestStoreWithCache(t, fr, newTestCache(t))
}

// waitState polls the status until it reaches want or the deadline
// passes. Status transitions are timer-driven, so polling beats
// sleeping for a fixed interval.
func waitState(t *testing.T, s Store, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Status().State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Status().State never reached %q, last = %q", want, s.Status().State)
}

func testActivity(id, title string) entity.Activity {
	return entity.Activity{
		ID:            id,
		Date:          "2025-11-04",
		Team:          "A",
		Type:          "patrol",
		Title:         title,
		Personnel:     4,
		DurationHours: 2.5,
		CreatedAt:     "2025-11-04T08:00:00Z",
	}
}

func testHotspot(id string, count int) entity.Hotspot {
	return entity.Hotspot{
		ID:        id,
		Date:      "2025-11-04",
		Round:     "morning",
		Satellite: "VIIRS",
		Count:     count,
		Region:    "north ridge",
		Lat:       19.91,
		Lon:       99.84,
		Status:    "new",
		CreatedAt: "2025-11-04T08:05:00Z",
	}
}

func testIncident(id string) entity.FireIncident {
	return entity.FireIncident{
		ID:         id,
		Date:       "2025-11-04",
		Location:   "sector 7",
		Cause:      "agricultural burn",
		AreaRai:    3.5,
		Controlled: true,
		Team:       "B",
		CreatedAt:  "2025-11-04T09:00:00Z",
	}
}
