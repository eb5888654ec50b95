// Package entity defines the domain records synchronized between the
// local cache and the sheet-backed remote store.
//
// # Overview
//
// Four record kinds flow through the system: field activities, satellite
// hotspot reports, fire incidents, and a singleton settings document.
// Records are flat JSON structures with last-write-wins semantics; the
// remote store is a spreadsheet, so every field survives a round trip as
// a plain cell value. Dates and timestamps are carried as strings and
// interpreted only at the edges (reports, displays), never by the sync
// layer itself.
//
// # Identifiers
//
// Record ids are allocated client-side before the remote call confirms,
// so an optimistic insert can always be rolled back by id. Ids are
// timestamp-derived strings with a per-process sequence suffix:
//
//	id := entity.NewID("act")   // act-1755850943012-0007
//
// # Settings Merge
//
// Settings fetched from the remote are merged shallowly over the
// defaults. A field the remote omits keeps its default; a malformed
// payload leaves the base untouched:
//
//	s := entity.MergeSettings(entity.DefaultSettings(), raw)
//
// # Validation
//
// Each record kind carries Validate (required fields, ranges) and
// SetDefaults (fill timestamps, normalize strings). Callers validate at
// the boundary where a record enters the system: CLI forms, inbox
// imports, backup restores.
package entity
