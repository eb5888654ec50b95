// Package daemon provides the background process that keeps field data moving
// while the interactive CLI is closed.
//
// The daemon watches an inbox directory for queued record files, replays them
// through the store's optimistic write path, and periodically revalidates the
// local cache when it has gone stale.
//
// # Architecture
//
// The daemon consists of several components:
//
//   - InboxWatcher: cross-platform file system event monitoring using fsnotify
//   - Daemon: orchestrates inbox draining, change debouncing, and periodic
//     cache revalidation
//   - Pidfile helpers: single-instance guard plus status and terminate probes
//     used by the CLI
//
// # Inbox Files
//
// Queued writes are JSON Lines files named *.jsonl, one record per line:
//
//	{"kind":"activity","record":{"title":"Fuel break patrol","team":"A"}}
//	{"kind":"hotspot","record":{"date":"2025-11-04","round":"morning","count":5}}
//	{"kind":"fire_incident","record":{"location":"Doi Suthep east slope"}}
//
// Records without an id are assigned one, so hand-written drops stay minimal.
// Each record is defaulted and validated before it reaches the store. A file
// is renamed to .done when every line applied and to .err when any line
// failed, so drops are never replayed twice. Within a file, lines after a
// failed one still apply; the errors are collected per line.
//
// # File Watching
//
// The InboxWatcher component provides a high-level abstraction over fsnotify:
//
//	iw, err := daemon.NewInboxWatcher()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer iw.Stop()
//
//	if err := iw.Start("/path/to/inbox"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range iw.Events() {
//	    fmt.Printf("%s: %s\n", event.Op, event.Path)
//	}
//
// The watcher automatically:
//   - Filters to only .jsonl files (processed .done/.err markers are ignored)
//   - Maps fsnotify.Rename to OpDelete (the new name triggers a separate Create)
//   - Provides clean shutdown with channel closure
//
// # Revalidation
//
// On a configurable interval the daemon consults the store snapshot and runs
// a revalidation pass when the cache is stale or has never been painted.
// Failures are logged and retried on the next tick; the daemon never gives up
// on a flaky uplink.
//
// # Graceful Shutdown
//
// Start blocks until its context is cancelled, then stops the watcher, waits
// for in-flight replays, and removes the pidfile. Other processes can check
// Status() or request shutdown with Terminate(), both keyed on the pidfile.
package daemon
