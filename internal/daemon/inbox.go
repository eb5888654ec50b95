package daemon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/emberhq/firewatch/internal/entity"
)

// Record kinds accepted in inbox files.
const (
	KindActivity = "activity"
	KindHotspot  = "hotspot"
	KindIncident = "fire_incident"
)

// inboxLine is one queued write: a record kind plus its payload.
type inboxLine struct {
	Kind   string          `json:"kind"`
	Record json.RawMessage `json:"record"`
}

// Result summarizes the replay of one inbox file.
type Result struct {
	// Path is the inbox file that was processed
	Path string

	// Applied counts records written through the store
	Applied int

	// Failed counts lines that could not be applied
	Failed int

	// Errors describes each failed line
	Errors []string
}

// processInboxFile replays one queued file through the store, then renames it
// to .done when every line applied or .err when any line failed, so drops
// are never replayed twice.
func (d *Daemon) processInboxFile(path string) Result {
	result := Result{Path: path}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Renamed or swept already
			return result
		}
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("open: %v", err))
		return result
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := d.applyLine([]byte(line)); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		result.Applied++
	}
	if err := scanner.Err(); err != nil {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("read: %v", err))
	}
	f.Close()

	suffix := ".done"
	if result.Failed > 0 {
		suffix = ".err"
	}
	if err := os.Rename(path, path+suffix); err != nil {
		d.config.Logger.Printf("Warning: failed to mark %s: %v", path, err)
	}

	return result
}

// applyLine parses one inbox line and writes it through the store.
func (d *Daemon) applyLine(data []byte) error {
	var line inboxLine
	if err := json.Unmarshal(data, &line); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}

	switch line.Kind {
	case KindActivity:
		var a entity.Activity
		if err := json.Unmarshal(line.Record, &a); err != nil {
			return fmt.Errorf("invalid activity record: %w", err)
		}
		if a.ID == "" {
			a.ID = entity.NewID("act")
		}
		a.SetDefaults()
		if err := a.Validate(); err != nil {
			return err
		}
		return d.store.SaveActivity(d.ctx, a, d.activityExists(a.ID))

	case KindHotspot:
		var h entity.Hotspot
		if err := json.Unmarshal(line.Record, &h); err != nil {
			return fmt.Errorf("invalid hotspot record: %w", err)
		}
		if h.ID == "" {
			h.ID = entity.NewID("hs")
		}
		h.SetDefaults()
		if err := h.Validate(); err != nil {
			return err
		}
		return d.store.SaveHotspot(d.ctx, h, d.hotspotExists(h.ID))

	case KindIncident:
		var in entity.FireIncident
		if err := json.Unmarshal(line.Record, &in); err != nil {
			return fmt.Errorf("invalid fire incident record: %w", err)
		}
		if in.ID == "" {
			in.ID = entity.NewID("fi")
		}
		in.SetDefaults()
		if err := in.Validate(); err != nil {
			return err
		}
		return d.store.SaveIncident(d.ctx, in, d.incidentExists(in.ID))

	case "":
		return fmt.Errorf("missing record kind")

	default:
		return fmt.Errorf("unknown record kind %q", line.Kind)
	}
}

// activityExists reports whether the store already holds the id, which makes
// the write an update instead of a create.
func (d *Daemon) activityExists(id string) bool {
	for _, a := range d.store.Activities() {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (d *Daemon) hotspotExists(id string) bool {
	for _, h := range d.store.Hotspots() {
		if h.ID == id {
			return true
		}
	}
	return false
}

func (d *Daemon) incidentExists(id string) bool {
	for _, in := range d.store.Incidents() {
		if in.ID == id {
			return true
		}
	}
	return false
}
