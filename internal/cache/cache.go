// Package cache provides the local durable cache that lets the console
// paint the last good snapshot of every collection before the network
// answers.
//
// The cache is a single SQLite database holding one row per collection
// blob plus a shared last-refresh timestamp. It runs in WAL mode so a
// dashboard process can read while the sync layer writes.
//
// Failure semantics are deliberately one-sided: reads return the zero
// value on any miss, corruption, or storage error, and collection
// writes are best-effort (logged, never propagated). A broken cache
// must degrade to "no cache", never to a blocked sync path. The two
// exceptions are ClearAll and Close, whose callers need to know whether
// the operation took effect.
//
// Layout:
//   - Database file: cache.db (location configured)
//   - Table: cache_entries(key, value, updated_at)
//   - Keys: activities, hotspots, fire_incidents, settings, last_refresh
//   - last_refresh: epoch milliseconds, stored as a string
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/emberhq/firewatch/internal/entity"
)

// DefaultFreshness is the staleness window when Config.Freshness is
// zero: data older than this is advisory-stale.
const DefaultFreshness = 5 * time.Minute

// Collection keys. One row each, plus the shared timestamp.
const (
	keyActivities  = "activities"
	keyHotspots    = "hotspots"
	keyIncidents   = "fire_incidents"
	keySettings    = "settings"
	keyLastRefresh = "last_refresh"
)

// Config configures a cache instance.
type Config struct {
	// Path is the database file location. Parent directories are
	// created on open.
	Path string

	// Driver selects the storage backend: DriverSQLite (default) or
	// DriverLibSQL.
	Driver string

	// Freshness is the staleness window for IsStale. Zero means
	// DefaultFreshness.
	Freshness time.Duration

	// Logger receives swallowed-error warnings. Nil means a default
	// logger on stderr.
	Logger *log.Logger
}

// Cache wraps the database connection holding the persisted snapshots.
type Cache struct {
	conn      *sql.DB
	path      string
	freshness time.Duration
	logger    *log.Logger
}

// Open opens (creating if needed) the cache database at cfg.Path.
//
// The caller MUST call Close() when done to checkpoint and release the
// database.
//
// Example:
//
//	c, err := cache.Open(cache.Config{Path: "/var/lib/firewatch/cache.db"})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
func Open(cfg Config) (*Cache, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache path is required")
	}

	driverName, spec, err := lookupDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if spec.prepare != nil {
		spec.prepare(cfg.Path)
	}

	conn, err := sql.Open(driverName, spec.dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	freshness := cfg.Freshness
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[cache] ", log.LstdFlags)
	}

	c := &Cache{
		conn:      conn,
		path:      cfg.Path,
		freshness: freshness,
		logger:    logger,
	}

	// WAL lets the dashboard read while a sync write is in progress.
	if _, err := c.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := c.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := c.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := c.initSchema(); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// initSchema creates the cache table. Idempotent.
func (c *Cache) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := c.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

// RawDB returns the underlying sql.DB connection, mainly for load tests
// and benchmarks.
func (c *Cache) RawDB() *sql.DB {
	return c.conn
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

// Close checkpoints the WAL and closes the database.
func (c *Cache) Close() error {
	if c.conn == nil {
		return nil
	}
	if _, err := c.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		c.logger.Printf("WARNING: failed to checkpoint WAL: %v", err)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	c.conn = nil
	return nil
}

// readKey returns the raw blob for a key. Any failure is a miss.
func (c *Cache) readKey(key string) ([]byte, bool) {
	var value []byte
	err := c.conn.QueryRow("SELECT value FROM cache_entries WHERE key = ?", key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return nil, false
	case err != nil:
		c.logger.Printf("WARNING: cache read for %s failed, treating as miss: %v", key, err)
		return nil, false
	}
	return value, true
}

// writeKey persists one blob. Best-effort.
func (c *Cache) writeKey(key string, value []byte) {
	const query = `
	INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`
	if _, err := c.conn.Exec(query, key, value, time.Now().UTC().Format(time.RFC3339)); err != nil {
		c.logger.Printf("WARNING: cache write for %s failed, continuing without persistence: %v", key, err)
	}
}

// writeCollection persists one collection blob and unconditionally
// advances the shared last-refresh timestamp.
func (c *Cache) writeCollection(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Printf("WARNING: cache encode for %s failed, continuing without persistence: %v", key, err)
		return
	}
	c.writeKey(key, data)
	c.writeKey(keyLastRefresh, []byte(strconv.FormatInt(time.Now().UnixMilli(), 10)))
}

// ReadActivities returns the cached activity list. A miss or a corrupt
// blob returns (nil, false).
func (c *Cache) ReadActivities() ([]entity.Activity, bool) {
	data, ok := c.readKey(keyActivities)
	if !ok {
		return nil, false
	}
	var acts []entity.Activity
	if err := json.Unmarshal(data, &acts); err != nil {
		c.logger.Printf("WARNING: corrupt activities cache entry, treating as miss: %v", err)
		return nil, false
	}
	return acts, true
}

// WriteActivities persists the activity list. Best-effort.
func (c *Cache) WriteActivities(acts []entity.Activity) {
	if acts == nil {
		acts = []entity.Activity{}
	}
	c.writeCollection(keyActivities, acts)
}

// ReadHotspots returns the cached hotspot list.
func (c *Cache) ReadHotspots() ([]entity.Hotspot, bool) {
	data, ok := c.readKey(keyHotspots)
	if !ok {
		return nil, false
	}
	var hs []entity.Hotspot
	if err := json.Unmarshal(data, &hs); err != nil {
		c.logger.Printf("WARNING: corrupt hotspots cache entry, treating as miss: %v", err)
		return nil, false
	}
	return hs, true
}

// WriteHotspots persists the hotspot list. Best-effort.
func (c *Cache) WriteHotspots(hs []entity.Hotspot) {
	if hs == nil {
		hs = []entity.Hotspot{}
	}
	c.writeCollection(keyHotspots, hs)
}

// ReadIncidents returns the cached fire-incident list.
func (c *Cache) ReadIncidents() ([]entity.FireIncident, bool) {
	data, ok := c.readKey(keyIncidents)
	if !ok {
		return nil, false
	}
	var fis []entity.FireIncident
	if err := json.Unmarshal(data, &fis); err != nil {
		c.logger.Printf("WARNING: corrupt fire-incidents cache entry, treating as miss: %v", err)
		return nil, false
	}
	return fis, true
}

// WriteIncidents persists the fire-incident list. Best-effort.
func (c *Cache) WriteIncidents(fis []entity.FireIncident) {
	if fis == nil {
		fis = []entity.FireIncident{}
	}
	c.writeCollection(keyIncidents, fis)
}

// ReadSettings returns the cached settings document.
func (c *Cache) ReadSettings() (entity.Settings, bool) {
	data, ok := c.readKey(keySettings)
	if !ok {
		return entity.Settings{}, false
	}
	var s entity.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Printf("WARNING: corrupt settings cache entry, treating as miss: %v", err)
		return entity.Settings{}, false
	}
	return s, true
}

// WriteSettings persists the settings document. Best-effort.
func (c *Cache) WriteSettings(s entity.Settings) {
	c.writeCollection(keySettings, s)
}

// LastRefresh returns the shared timestamp of the most recent cache
// write, if one exists.
func (c *Cache) LastRefresh() (time.Time, bool) {
	data, ok := c.readKey(keyLastRefresh)
	if !ok {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		c.logger.Printf("WARNING: corrupt last-refresh timestamp, treating as missing: %v", err)
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// IsStale reports whether the snapshot is older than the freshness
// window, or absent entirely. Advisory: the sync layer always
// revalidates on startup regardless; the daemon uses this to skip
// pointless refreshes.
func (c *Cache) IsStale() bool {
	ts, ok := c.LastRefresh()
	if !ok {
		return true
	}
	return time.Since(ts) > c.freshness
}

// ClearAll removes every collection entry and the shared timestamp.
// Factory reset is the only caller, and it needs to know whether the
// local leg actually happened, so this one reports errors.
func (c *Cache) ClearAll() error {
	if _, err := c.conn.Exec("DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
