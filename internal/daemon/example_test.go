package daemon_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/emberhq/firewatch/internal/daemon"
)

// ExampleInboxWatcher demonstrates basic usage of the InboxWatcher.
func ExampleInboxWatcher() {
	tmpDir, err := os.MkdirTemp("", "inbox-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	// Create and start watcher
	iw, err := daemon.NewInboxWatcher()
	if err != nil {
		log.Fatal(err)
	}
	defer iw.Stop()

	if err := iw.Start(tmpDir); err != nil {
		log.Fatal(err)
	}

	// Queue a record drop
	dropFile := filepath.Join(tmpDir, "drop.jsonl")
	line := `{"kind":"activity","record":{"id":"act-1","title":"Fuel break patrol","date":"2025-11-04"}}` + "\n"
	if err := os.WriteFile(dropFile, []byte(line), 0644); err != nil {
		log.Fatal(err)
	}

	// The watcher reports the new drop
	select {
	case event := <-iw.Events():
		fmt.Printf("%s: %s\n", event.Op, filepath.Base(event.Path))
	case <-time.After(2 * time.Second):
		fmt.Println("no event")
	}

	// Output:
	// create: drop.jsonl
}

// ExampleInboxWatcher_shutdown demonstrates that stopping the watcher
// closes its channels.
func ExampleInboxWatcher_shutdown() {
	tmpDir, err := os.MkdirTemp("", "inbox-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	iw, err := daemon.NewInboxWatcher()
	if err != nil {
		log.Fatal(err)
	}

	if err := iw.Start(tmpDir); err != nil {
		log.Fatal(err)
	}

	// Monitor both events and errors
	done := make(chan bool)
	go func() {
		for {
			select {
			case event, ok := <-iw.Events():
				if !ok {
					done <- true
					return
				}
				fmt.Printf("Event: %s\n", event.Op)

			case err, ok := <-iw.Errors():
				if !ok {
					done <- true
					return
				}
				fmt.Printf("Error: %v\n", err)
			}
		}
	}()

	// Stop watcher (closes channels)
	iw.Stop()
	<-done

	fmt.Println("Watcher stopped")
	// Output:
	// Watcher stopped
}
