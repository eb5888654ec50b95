// Package daemon provides the background process that drains the inbox and
// keeps the local cache fresh.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/emberhq/firewatch/internal/store"
)

// Config holds configuration for the daemon.
type Config struct {
	// Inbox is the directory scanned for queued record files (*.jsonl)
	Inbox string

	// RefreshInterval is how often to check whether the cache has gone
	// stale and needs a revalidation pass
	RefreshInterval time.Duration

	// DebounceInterval is how long to wait before processing file changes.
	// This batches rapid drops together
	DebounceInterval time.Duration

	// PIDFile is written on start so other commands can find the daemon.
	// Empty disables pidfile handling
	PIDFile string

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval:  5 * time.Minute,
		DebounceInterval: 200 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon replays queued records into the store and revalidates stale caches.
type Daemon struct {
	store  store.Store
	config *Config

	watcher       *InboxWatcher
	changeQueue   map[string]time.Time // filepath -> queued at
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Daemon instance.
//
// The daemon requires a store to write through and a Config naming the
// inbox directory. Use Start() to begin watching and syncing.
func New(st store.Store, config *Config) (*Daemon, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Inbox == "" {
		return nil, fmt.Errorf("inbox directory cannot be empty")
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = DefaultConfig().RefreshInterval
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = DefaultConfig().DebounceInterval
	}

	watcher, err := NewInboxWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		store:       st,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon will:
// 1. Write the pidfile, refusing to start when one names a live process
// 2. Drain records already waiting in the inbox
// 3. Watch the inbox for new *.jsonl drops
// 4. Periodically revalidate the store when the cache has gone stale
//
// This blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if d.config.PIDFile != "" {
		if err := WritePIDFile(d.config.PIDFile); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(d.config.Inbox, 0755); err != nil {
		return fmt.Errorf("failed to create inbox directory: %w", err)
	}

	// Drain whatever was queued while the daemon was down
	d.SweepInbox()

	if err := d.watcher.Start(d.config.Inbox); err != nil {
		return err
	}

	d.config.Logger.Printf("Watching: %s", d.config.Inbox)

	// Start background goroutines
	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.revalidateLoop()

	// Wait for shutdown
	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	// Signal shutdown
	d.cancel()

	// Close watcher
	if err := d.watcher.Stop(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	// Wait for goroutines to finish
	d.wg.Wait()

	if d.config.PIDFile != "" {
		RemovePIDFile(d.config.PIDFile)
	}

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// SweepInbox processes every queued record file currently in the inbox.
//
// Files are replayed in name order, so timestamped drops apply
// chronologically. It runs on startup and can be triggered manually.
func (d *Daemon) SweepInbox() []Result {
	paths, err := filepath.Glob(filepath.Join(d.config.Inbox, "*.jsonl"))
	if err != nil {
		d.config.Logger.Printf("Error listing inbox: %v", err)
		return nil
	}
	sort.Strings(paths)

	var results []Result
	for _, path := range paths {
		res := d.processInboxFile(path)
		d.logResult(res)
		results = append(results, res)
	}

	if len(results) > 0 {
		d.config.Logger.Printf("Inbox sweep: %d files processed", len(results))
	}
	return results
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events():
			if !ok {
				return
			}

			// A deleted drop needs no replay
			if event.Op == OpDelete {
				d.unqueueChange(event.Path)
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Path)
			d.queueChange(event.Path)

		case err, ok := <-d.watcher.Errors():
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange adds a file to the change queue with debouncing.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// unqueueChange drops a pending file from the change queue.
func (d *Daemon) unqueueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	delete(d.changeQueue, path)
}

// processChangeQueue processes queued file changes with debouncing.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges replays files that have been queued for long enough.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()

	for path, queuedAt := range d.changeQueue {
		// Only process if enough time has passed (debouncing)
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}

		d.config.Logger.Printf("Processing drop: %s", path)
		d.logResult(d.processInboxFile(path))

		delete(d.changeQueue, path)
	}
}

// logResult summarizes one replayed file in the daemon log.
func (d *Daemon) logResult(res Result) {
	if res.Applied == 0 && res.Failed == 0 {
		return
	}

	name := filepath.Base(res.Path)
	if res.Failed > 0 {
		d.config.Logger.Printf("Inbox file %s: %d applied, %d failed", name, res.Applied, res.Failed)
		for _, e := range res.Errors {
			d.config.Logger.Printf("  %s: %s", name, e)
		}
		return
	}
	d.config.Logger.Printf("Inbox file %s: %d applied", name, res.Applied)
}

// revalidateLoop periodically refreshes the store when the cache is stale.
func (d *Daemon) revalidateLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			snap := d.store.Snapshot()
			if !snap.Stale && !snap.LastRefresh.IsZero() {
				continue
			}
			if err := d.store.Revalidate(d.ctx); err != nil {
				d.config.Logger.Printf("Error revalidating: %v", err)
			}
		}
	}
}
