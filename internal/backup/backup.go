// Package backup exports the unit's records to a YAML archive and
// replays archives back through the store write path, so an import is
// synced to the remote exactly like hand-entered records.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emberhq/firewatch/internal/entity"
)

// ArchiveVersion is bumped when the archive layout changes. Imports
// refuse archives from a newer build.
const ArchiveVersion = 1

// Archive is the on-disk backup format.
type Archive struct {
	Version    int       `yaml:"version"`
	ExportedAt time.Time `yaml:"exported_at"`
	Unit       string    `yaml:"unit"`

	Settings   entity.Settings       `yaml:"settings"`
	Activities []entity.Activity     `yaml:"activities"`
	Hotspots   []entity.Hotspot      `yaml:"hotspots"`
	Incidents  []entity.FireIncident `yaml:"fire_incidents"`
}

// Writer is the slice of the store an import drives. Every record goes
// through the same optimistic write path as interactive edits.
type Writer interface {
	SaveActivity(ctx context.Context, a entity.Activity, isUpdate bool) error
	SaveHotspot(ctx context.Context, h entity.Hotspot, isUpdate bool) error
	SaveIncidentsBatch(ctx context.Context, batch []entity.FireIncident) error
	SaveSettings(ctx context.Context, s entity.Settings) error
}

// ExportResult reports what an export wrote.
type ExportResult struct {
	Path       string
	Activities int
	Hotspots   int
	Incidents  int
}

// DefaultPath names a timestamped archive in dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "firewatch-backup-"+time.Now().Format("20060102-150405")+".yaml")
}

// Export writes the archive to path. The write is atomic so a crash
// cannot leave a half-written backup behind.
func Export(path string, a Archive) (*ExportResult, error) {
	a.Version = ArchiveVersion
	if a.ExportedAt.IsZero() {
		a.ExportedAt = time.Now().UTC()
	}
	if a.Unit == "" {
		a.Unit = a.Settings.UnitName
	}

	data, err := yaml.Marshal(&a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal archive: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return &ExportResult{
		Path:       path,
		Activities: len(a.Activities),
		Hotspots:   len(a.Hotspots),
		Incidents:  len(a.Incidents),
	}, nil
}

// ImportOptions configures a replay.
type ImportOptions struct {
	Path string

	// DryRun parses and validates without writing anything.
	DryRun bool

	// IncludeSettings also replays the archived settings document.
	IncludeSettings bool
}

// ImportResult reports what a replay did.
type ImportResult struct {
	Activities      int
	Hotspots        int
	Incidents       int
	SettingsApplied bool

	// Skipped counts records that failed validation; Errors carries
	// one line per skipped or rejected record.
	Skipped int
	Errors  []string
}

// Load reads and version-checks an archive without importing it.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	var a Archive
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse archive %s: %w", path, err)
	}
	if a.Version > ArchiveVersion {
		return nil, fmt.Errorf("archive %s is version %d, this build reads up to %d", path, a.Version, ArchiveVersion)
	}
	return &a, nil
}

// Import replays an archive through the store. Invalid records are
// skipped and reported rather than aborting the replay; a rejected
// remote write is likewise recorded and the replay continues.
func Import(ctx context.Context, w Writer, opts ImportOptions) (*ImportResult, error) {
	a, err := Load(opts.Path)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}

	for _, act := range a.Activities {
		if err := act.Validate(); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("activity %s: %v", act.ID, err))
			continue
		}
		if !opts.DryRun {
			if err := w.SaveActivity(ctx, act, false); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("activity %s: %v", act.ID, err))
				continue
			}
		}
		result.Activities++
	}

	for _, h := range a.Hotspots {
		if err := h.Validate(); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("hotspot %s: %v", h.ID, err))
			continue
		}
		if !opts.DryRun {
			if err := w.SaveHotspot(ctx, h, false); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("hotspot %s: %v", h.ID, err))
				continue
			}
		}
		result.Hotspots++
	}

	// Incidents go up as one batch, the same shape bulk field imports
	// use interactively.
	valid := make([]entity.FireIncident, 0, len(a.Incidents))
	for _, in := range a.Incidents {
		if err := in.Validate(); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("incident %s: %v", in.ID, err))
			continue
		}
		valid = append(valid, in)
	}
	if len(valid) > 0 {
		if opts.DryRun {
			result.Incidents = len(valid)
		} else if err := w.SaveIncidentsBatch(ctx, valid); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("incident batch: %v", err))
		} else {
			result.Incidents = len(valid)
		}
	}

	if opts.IncludeSettings {
		if opts.DryRun {
			result.SettingsApplied = true
		} else if err := w.SaveSettings(ctx, a.Settings); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("settings: %v", err))
		} else {
			result.SettingsApplied = true
		}
	}

	return result, nil
}
