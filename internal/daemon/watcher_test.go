package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewInboxWatcher verifies that creating a new InboxWatcher succeeds.
func TestNewInboxWatcher(t *testing.T) {
	iw, err := NewInboxWatcher()
	if err != nil {
		t.Fatalf("NewInboxWatcher() failed: %v", err)
	}
	defer iw.Stop()

	if iw.IsRunning() {
		t.Error("Newly created watcher should not be running")
	}
}

// TestInboxWatcher_StartStop verifies that the watcher can start and stop cleanly.
func TestInboxWatcher_StartStop(t *testing.T) {
	dir := t.TempDir()

	iw, err := NewInboxWatcher()
	if err != nil {
		t.Fatalf("NewInboxWatcher() failed: %v", err)
	}

	// Start watching
	if err := iw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if !iw.IsRunning() {
		t.Error("Watcher should be running after Start()")
	}

	// Stop watching
	if err := iw.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	if iw.IsRunning() {
		t.Error("Watcher should not be running after Stop()")
	}
}

// TestInboxWatcher_StartAlreadyRunning verifies that starting an already running watcher fails.
func TestInboxWatcher_StartAlreadyRunning(t *testing.T) {
	dir := t.TempDir()

	iw, err := NewInboxWatcher()
	if err != nil {
		t.Fatalf("NewInboxWatcher() failed: %v", err)
	}
	defer iw.Stop()

	if err := iw.Start(dir); err != nil {
		t.Fatalf("First Start() failed: %v", err)
	}

	// Try to start again
	if err := iw.Start(dir); err == nil {
		t.Error("Second Start() should fail when watcher is already running")
	}
}

// TestInboxWatcher_DropCreated verifies that creating a drop file triggers an event.
func TestInboxWatcher_DropCreated(t *testing.T) {
	dir := t.TempDir()

	iw, err := NewInboxWatcher()
	if err != nil {
		t.Fatalf("NewInboxWatcher() failed: %v", err)
	}
	defer iw.Stop()

	if err := iw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Create a drop file
	dropPath := filepath.Join(dir, "20251104-060000.jsonl")
	if err := os.WriteFile(dropPath, []byte(`{"kind":"activity","record":{}}`), 0644); err != nil {
		t.Fatalf("Failed to write drop file: %v", err)
	}

	// Wait for event
	select {
	case event := <-iw.Events():
		if event.Op != OpCreate {
			t.Errorf("Expected OpCreate, got %v", event.Op)
		}
		if filepath.Base(event.Path) != "20251104-060000.jsonl" {
			t.Errorf("Expected 20251104-060000.jsonl, got %s", filepath.Base(event.Path))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for drop create event")
	}
}

// TestInboxWatcher_DropModified verifies that appending to a drop file triggers an event.
func TestInboxWatcher_DropModified(t *testing.T) {
	dir := t.TempDir()

	// Create the drop file first
	dropPath := filepath.Join(dir, "drop.jsonl")
	if err := os.WriteFile(dropPath, []byte(`{"kind":"activity","record":{}}`), 0644); err != nil {
		t.Fatalf("Failed to write drop file: %v", err)
	}

	iw, err := NewInboxWatcher()
	if err != nil {
		t.Fatalf("NewInboxWatcher() failed: %v", err)
	}
	defer iw.Stop()

	if err := iw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Give watcher time to stabilize
	time.Sleep(100 * time.Millisecond)

	// Modify the file
	if err := os.WriteFile(dropPath, []byte(`{"kind":"hotspot","record":{}}`), 0644); err != nil {
		t.Fatalf("Failed to update drop file: %v", err)
	}

	// Wait for event
	select {
	case event := <-iw.Events():
		if event.Op != OpModify {
			t.Errorf("Expected OpModify, got %v", event.Op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for drop modify event")
	}
}

// TestInboxWatcher_DropDeleted verifies that deleting a drop file triggers an event.
func TestInboxWatcher_DropDeleted(t *testing.T) {
	dir := t.TempDir()

	dropPath := filepath.Join(dir, "drop.jsonl")
	if err := os.WriteFile(dropPath, []byte(`{"kind":"activity","record":{}}`), 0644); err != nil {
		t.Fatalf("Failed to write drop file: %v", err)
	}

	iw, err := NewInboxWatcher()
	if err != nil {
		t.Fatalf("NewInboxWatcher() failed: %v", err)
	}
	defer iw.Stop()

	if err := iw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := os.Remove(dropPath); err != nil {
		t.Fatalf("Failed to remove drop file: %v", err)
	}

	select {
	case event := <-iw.Events():
		if event.Op != OpDelete {
			t.Errorf("Expected OpDelete, got %v", event.Op)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for drop delete event")
	}
}

// TestInboxWatcher_IgnoresMarkedFiles verifies that .done and .err markers do not emit events.
func TestInboxWatcher_IgnoresMarkedFiles(t *testing.T) {
	dir := t.TempDir()

	iw, err := NewInboxWatcher()
	if err != nil {
		t.Fatalf("NewInboxWatcher() failed: %v", err)
	}
	defer iw.Stop()

	if err := iw.Start(dir); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Markers first, then a real drop; only the drop should surface
	if err := os.WriteFile(filepath.Join(dir, "a.jsonl.done"), []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.jsonl.err"), []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write marker: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "c.jsonl"), []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write drop file: %v", err)
	}

	select {
	case event := <-iw.Events():
		if filepath.Base(event.Path) != "c.jsonl" {
			t.Errorf("Expected event for c.jsonl, got %s", event.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for drop event")
	}
}

// TestInboxWatcher_EventOpString verifies the operation names used in logs.
func TestInboxWatcher_EventOpString(t *testing.T) {
	cases := []struct {
		op   EventOp
		want string
	}{
		{OpCreate, "create"},
		{OpModify, "modify"},
		{OpDelete, "delete"},
		{EventOp(99), "unknown"},
	}

	for _, tc := range cases {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("EventOp(%d).String() = %q, want %q", tc.op, got, tc.want)
		}
	}
}
