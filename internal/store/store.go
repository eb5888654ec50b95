package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/emberhq/firewatch/internal/cache"
	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/remote"
)

// Default auto-clear delays for the status indicator.
const (
	DefaultSuccessClearDelay = 2 * time.Second
	DefaultErrorClearDelay   = 5 * time.Second
)

// Errors returned by Store operations. Everything else is handled
// internally: by the time a call returns, state is consistent.
var (
	// ErrNoLocalData is returned by Revalidate when the remote fetch
	// failed and the cache held nothing to show. This is the one
	// blocking failure; callers surface it full-screen with a retry.
	ErrNoLocalData = errors.New("no local data available")

	// ErrMutationInFlight is returned when a mutation is requested for
	// a record id that already has one outstanding.
	ErrMutationInFlight = errors.New("mutation already in flight")
)

// State is the status indicator state.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Status is the user-facing indicator pair rendered by consumers.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// EventKind classifies subscriber notifications.
type EventKind string

const (
	// EventSnapshot signals that several collections changed at once
	// (revalidation, factory reset); consumers should re-pull
	// everything.
	EventSnapshot EventKind = "snapshot"

	// EventCollection signals that one collection changed; the
	// Collection field names it.
	EventCollection EventKind = "collection"

	// EventStatus signals a status transition; the Status field
	// carries the new value.
	EventStatus EventKind = "status"
)

// Collection names carried by EventCollection.
const (
	CollectionActivities = "activities"
	CollectionHotspots   = "hotspots"
	CollectionIncidents  = "fire_incidents"
	CollectionSettings   = "settings"
)

// Event is a change notification. It carries no payload; subscribers
// pull current state through the read accessors, which always return
// copies.
type Event struct {
	Kind       EventKind `json:"kind"`
	Collection string    `json:"collection,omitempty"`
	Status     Status    `json:"status,omitempty"`
}

// Snapshot is a point-in-time copy of everything a consumer renders.
type Snapshot struct {
	Activities  []entity.Activity
	Hotspots    []entity.Hotspot
	Incidents   []entity.FireIncident
	Settings    entity.Settings
	Status      Status
	Loading     bool
	LastRefresh time.Time // zero when the cache has no timestamp
	Stale       bool
}

// Store coordinates reads and writes across the remote store, the
// local durable cache, and the in-memory collection state.
//
// Collections returned by the read accessors are copies; consumers
// never mutate them directly. All mutation goes through the save and
// delete operations.
type Store interface {
	// ===================
	// Lifecycle
	// ===================

	// Open paints state from the local cache. Synchronous, never
	// touches the network, and idempotent: calling it again returns
	// the current snapshot. Loading is reported finished when both
	// activities and hotspots were cached.
	Open() Snapshot

	// Revalidate fetches all four collections concurrently and
	// replaces state with the authoritative result, re-persisting the
	// cache. While cached data is on screen a failure degrades to an
	// error status and Revalidate returns nil; with an empty cache it
	// returns ErrNoLocalData. A call that overlaps a running
	// revalidation returns immediately. The initial-loading flag is
	// cleared on every exit path.
	Revalidate(ctx context.Context) error

	// Close stops status timers and closes subscriber channels. It
	// does not close the cache; the caller owns that.
	Close() error

	// ===================
	// Reads
	// ===================

	Activities() []entity.Activity
	Hotspots() []entity.Hotspot
	Incidents() []entity.FireIncident
	Settings() entity.Settings

	// Snapshot returns everything at once, consistently.
	Snapshot() Snapshot

	// Status returns the current indicator pair.
	Status() Status

	// Loading reports the initial-loading flag.
	Loading() bool

	// InFlight reports whether a mutation for the record id is
	// outstanding. Consumers disable the matching save and delete
	// actions while true.
	InFlight(id string) bool

	// ===================
	// Writes (optimistic, with rollback)
	// ===================

	// SaveActivity creates (prepend) or updates (replace by id) one
	// activity. On remote failure the creation is removed by id; a
	// failed update recovers by refetching the collection.
	SaveActivity(ctx context.Context, a entity.Activity, isUpdate bool) error

	// DeleteActivity removes one activity. On remote failure the
	// captured record is re-inserted at its original position.
	DeleteActivity(ctx context.Context, id string) error

	SaveHotspot(ctx context.Context, h entity.Hotspot, isUpdate bool) error
	DeleteHotspot(ctx context.Context, id string) error

	SaveIncident(ctx context.Context, in entity.FireIncident, isUpdate bool) error

	// SaveIncidentsBatch creates a set of incidents together. Rollback
	// removes exactly the attempted id set.
	SaveIncidentsBatch(ctx context.Context, batch []entity.FireIncident) error

	DeleteIncident(ctx context.Context, id string) error

	// SaveSettings replaces the settings document. On remote failure
	// the previous document is restored.
	SaveSettings(ctx context.Context, s entity.Settings) error

	// ===================
	// Administration
	// ===================

	// FactoryReset clears every sheet on the remote, then local state
	// and the cache. All-or-nothing: if any remote leg fails, local
	// data is preserved and the error returned.
	FactoryReset(ctx context.Context) error

	// ===================
	// Events
	// ===================

	// Subscribe returns a channel of change notifications. Slow
	// subscribers drop events rather than block the sync path.
	Subscribe() <-chan Event

	// Unsubscribe closes and removes a channel from Subscribe.
	Unsubscribe(<-chan Event)
}

// Config configures a Store. Remote and Cache are required; everything
// else has working defaults.
type Config struct {
	Remote remote.Client
	Cache  *cache.Cache

	// Logger receives progress and degradation lines. Nil means a
	// default logger on stderr.
	Logger *log.Logger

	// SuccessClearDelay and ErrorClearDelay override the status
	// auto-clear timeouts, mainly for tests. Zero means the defaults.
	SuccessClearDelay time.Duration
	ErrorClearDelay   time.Duration
}

// New creates a Store. The cache must already be open.
func New(cfg Config) (Store, error) {
	if cfg.Remote == nil {
		return nil, fmt.Errorf("remote client is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	successDelay := cfg.SuccessClearDelay
	if successDelay <= 0 {
		successDelay = DefaultSuccessClearDelay
	}
	errorDelay := cfg.ErrorClearDelay
	if errorDelay <= 0 {
		errorDelay = DefaultErrorClearDelay
	}

	return &orchestrator{
		remote:       cfg.Remote,
		cache:        cfg.Cache,
		logger:       logger,
		successDelay: successDelay,
		errorDelay:   errorDelay,
		status:       Status{State: StateIdle},
		activities:   []entity.Activity{},
		hotspots:     []entity.Hotspot{},
		incidents:    []entity.FireIncident{},
		settings:     entity.DefaultSettings(),
		inflight:     make(map[string]struct{}),
		subs:         make(map[chan Event]struct{}),
	}, nil
}
