// Package loadtest provides load testing utilities for the local cache layer.
//
// This package simulates concurrent console access patterns to validate that
// the cache can serve a full snapshot paint to many simultaneous readers
// with low latency, while the sync layer keeps writing underneath them.
package loadtest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/emberhq/firewatch/internal/cache"
	"github.com/emberhq/firewatch/internal/entity"
)

// TestCache represents a populated cache fixture for load testing.
type TestCache struct {
	Cache        *cache.Cache
	ActivityIDs  []string
	HotspotIDs   []string
	IncidentIDs  []string
	TotalRecords int
}

// LatencyStats captures performance metrics from load tests.
type LatencyStats struct {
	Min         time.Duration
	Max         time.Duration
	Mean        time.Duration
	P50         time.Duration // Median
	P95         time.Duration
	P99         time.Duration
	TotalPaints int
	Errors      int
	Durations   []time.Duration
}

// CreateTestCache creates a populated cache at dbPath for load testing.
//
// The fixture is filled with synthetic records in realistic proportions:
//   - Half of the records are activities (weighted toward patrols)
//   - Three tenths are hotspot reports across acquisition rounds
//   - The remainder are fire incidents
//
// driver selects the storage backend (cache.DriverSQLite or
// cache.DriverLibSQL); empty means the default.
func CreateTestCache(dbPath string, numRecords int, driver string) (*TestCache, error) {
	c, err := cache.Open(cache.Config{Path: dbPath, Driver: driver})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	numActivities := numRecords / 2
	numHotspots := numRecords * 3 / 10
	numIncidents := numRecords - numActivities - numHotspots

	tc := &TestCache{
		Cache:        c,
		TotalRecords: numRecords,
	}

	activities := generateActivities(numActivities)
	for _, a := range activities {
		tc.ActivityIDs = append(tc.ActivityIDs, a.ID)
	}
	c.WriteActivities(activities)

	hotspots := generateHotspots(numHotspots)
	for _, h := range hotspots {
		tc.HotspotIDs = append(tc.HotspotIDs, h.ID)
	}
	c.WriteHotspots(hotspots)

	incidents := generateIncidents(numIncidents)
	for _, in := range incidents {
		tc.IncidentIDs = append(tc.IncidentIDs, in.ID)
	}
	c.WriteIncidents(incidents)

	c.WriteSettings(entity.DefaultSettings())

	// Verify the fixture reads back before handing it to load generators
	if _, err := tc.Paint(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("fixture verification failed: %w", err)
	}

	return tc, nil
}

// OpenTestCache reopens an existing fixture without repopulating it, for
// measuring cold-open and first-paint cost.
func OpenTestCache(dbPath string, driver string) (*TestCache, error) {
	c, err := cache.Open(cache.Config{Path: dbPath, Driver: driver})
	if err != nil {
		return nil, fmt.Errorf("failed to reopen cache: %w", err)
	}
	return &TestCache{Cache: c}, nil
}

// Close closes the underlying cache.
func (tc *TestCache) Close() error {
	if tc.Cache != nil {
		return tc.Cache.Close()
	}
	return nil
}

// Paint performs one full snapshot read: all three collections plus the
// settings document. Returns the total number of records painted. A
// collection miss is an error because the fixture wrote every key.
func (tc *TestCache) Paint() (int, error) {
	acts, ok := tc.Cache.ReadActivities()
	if !ok {
		return 0, fmt.Errorf("activities missing from cache")
	}
	hs, ok := tc.Cache.ReadHotspots()
	if !ok {
		return 0, fmt.Errorf("hotspots missing from cache")
	}
	fis, ok := tc.Cache.ReadIncidents()
	if !ok {
		return 0, fmt.Errorf("fire incidents missing from cache")
	}
	if _, ok := tc.Cache.ReadSettings(); !ok {
		return 0, fmt.Errorf("settings missing from cache")
	}
	return len(acts) + len(hs) + len(fis), nil
}

// RunConcurrentPaints simulates N concurrent readers painting full snapshots.
//
// Each reader performs paintsPerReader paints, recording latency for each.
// Returns aggregated latency statistics.
func (tc *TestCache) RunConcurrentPaints(numReaders int, paintsPerReader int) (*LatencyStats, error) {
	var wg sync.WaitGroup
	var allDurations []time.Duration
	var errorCount int

	// Channels to collect results
	resultsChan := make(chan []time.Duration, numReaders)
	errorsChan := make(chan error, numReaders)

	// Launch concurrent readers
	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			durations := make([]time.Duration, 0, paintsPerReader)

			for j := 0; j < paintsPerReader; j++ {
				start := time.Now()

				_, err := tc.Paint()
				elapsed := time.Since(start)

				durations = append(durations, elapsed)

				if err != nil {
					errorsChan <- fmt.Errorf("reader %d paint %d failed: %w", readerID, j, err)
					return
				}
			}

			resultsChan <- durations
		}(i)
	}

	// Wait for all readers to complete
	wg.Wait()
	close(resultsChan)
	close(errorsChan)

	// Collect errors
	for err := range errorsChan {
		if err != nil {
			errorCount++
			fmt.Printf("Error: %v\n", err)
		}
	}

	// Collect all durations
	for durations := range resultsChan {
		allDurations = append(allDurations, durations...)
	}

	if len(allDurations) == 0 {
		return nil, fmt.Errorf("no successful paints completed")
	}

	// Compute statistics
	stats := computeLatencyStats(allDurations)
	stats.Errors = errorCount

	return stats, nil
}

// VerifyConcurrentAccess runs concurrent readers against a live writer.
//
// Readers paint full snapshots and check record integrity while a single
// writer keeps rewriting the activities collection, the same shape as a
// console painting during a sync. Returns the first inconsistency found.
func (tc *TestCache) VerifyConcurrentAccess(numReaders int, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	errorsChan := make(chan error, numReaders+1)

	// Launch reader agents
	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				default:
					acts, ok := tc.Cache.ReadActivities()
					if !ok {
						errorsChan <- fmt.Errorf("reader %d: activities vanished mid-run", readerID)
						return
					}

					// Verify data consistency
					for _, a := range acts {
						if a.ID == "" {
							errorsChan <- fmt.Errorf("reader %d found activity with empty ID", readerID)
							return
						}
						if a.Date == "" {
							errorsChan <- fmt.Errorf("reader %d found activity %s with empty date", readerID, a.ID)
							return
						}
					}

					// Small sleep to avoid hammering
					time.Sleep(1 * time.Millisecond)
				}
			}
		}(i)
	}

	// Launch the writer
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				acts, ok := tc.Cache.ReadActivities()
				if !ok {
					errorsChan <- fmt.Errorf("writer: activities vanished mid-run")
					return
				}
				tc.Cache.WriteActivities(acts)

				time.Sleep(5 * time.Millisecond)
			}
		}
	}()

	wg.Wait()
	close(errorsChan)

	// Check for errors
	for err := range errorsChan {
		if err != nil {
			return err
		}
	}

	return nil
}

// GetStats returns statistics about the test cache.
func (tc *TestCache) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"total_records": tc.TotalRecords,
		"activities":    len(tc.ActivityIDs),
		"hotspots":      len(tc.HotspotIDs),
		"incidents":     len(tc.IncidentIDs),
	}
}

// Regions used for synthetic records. Northern-province place names keep
// report output readable during manual runs.
var testRegions = []string{"Doi Suthep", "Mae Rim", "Samoeng", "Chiang Dao", "Mae Taeng"}

// generateActivities creates synthetic field activities with realistic distribution.
func generateActivities(count int) []entity.Activity {
	activities := make([]entity.Activity, count)

	// Type distribution: weighted toward patrols
	// patrol: 40%, firebreak: 20%, suppression: 20%, education: 10%, other: 10%
	types := []string{"patrol", "patrol", "patrol", "patrol", "firebreak", "firebreak", "suppression", "suppression", "education", "other"}
	teams := []string{"Team A", "Team B"}

	baseTime := time.Now().Add(-30 * 24 * time.Hour) // 30 days ago

	for i := 0; i < count; i++ {
		activityType := types[i%len(types)]

		// Stagger timestamps across the window
		createdAt := baseTime.Add(time.Duration(i) * time.Minute)

		activities[i] = entity.Activity{
			ID:            fmt.Sprintf("act-%05d", i),
			Date:          createdAt.Format("2006-01-02"),
			Team:          teams[i%len(teams)],
			Type:          activityType,
			Title:         fmt.Sprintf("Operation %d: %s", i, activityType),
			Location:      testRegions[i%len(testRegions)],
			Personnel:     2 + i%8,
			DurationHours: float64(1+i%6) + 0.5*float64(i%2),
			CreatedAt:     createdAt.UTC().Format(time.RFC3339),
		}
	}

	return activities
}

// generateHotspots creates synthetic detection reports.
func generateHotspots(count int) []entity.Hotspot {
	hotspots := make([]entity.Hotspot, count)

	rounds := []string{"morning", "afternoon", "night"}
	satellites := []string{"VIIRS", "MODIS"}

	// Status distribution: most detections are still new
	statuses := []string{"new", "new", "new", "checked", "responded"}

	// Deterministic random for reproducibility
	rng := rand.New(rand.NewSource(42))

	baseTime := time.Now().Add(-30 * 24 * time.Hour)

	for i := 0; i < count; i++ {
		createdAt := baseTime.Add(time.Duration(i) * 2 * time.Minute)

		hotspots[i] = entity.Hotspot{
			ID:        fmt.Sprintf("hs-%05d", i),
			Date:      createdAt.Format("2006-01-02"),
			Round:     rounds[i%len(rounds)],
			Satellite: satellites[i%len(satellites)],
			Count:     1 + i%12,
			Region:    testRegions[i%len(testRegions)],
			Lat:       18.0 + rng.Float64()*2,
			Lon:       98.0 + rng.Float64()*2,
			Status:    statuses[i%len(statuses)],
			CreatedAt: createdAt.UTC().Format(time.RFC3339),
		}
	}

	return hotspots
}

// generateIncidents creates synthetic fire-response events.
func generateIncidents(count int) []entity.FireIncident {
	incidents := make([]entity.FireIncident, count)

	// Cause distribution: field reality is mostly agricultural burns
	causes := []string{"agricultural", "agricultural", "campfire", "lightning", "unknown"}
	teams := []string{"Team A", "Team B"}

	rng := rand.New(rand.NewSource(42))

	baseTime := time.Now().Add(-30 * 24 * time.Hour)

	for i := 0; i < count; i++ {
		createdAt := baseTime.Add(time.Duration(i) * 3 * time.Minute)

		incidents[i] = entity.FireIncident{
			ID:         fmt.Sprintf("fi-%05d", i),
			Date:       createdAt.Format("2006-01-02"),
			Location:   testRegions[i%len(testRegions)],
			Cause:      causes[i%len(causes)],
			AreaRai:    float64(rng.Intn(500)) / 10,
			Controlled: i%3 != 0,
			Team:       teams[i%len(teams)],
			CreatedAt:  createdAt.UTC().Format(time.RFC3339),
		}
	}

	return incidents
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	// Sort durations for percentile calculation
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	// Calculate mean
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	mean := sum / time.Duration(len(durations))

	// Calculate percentiles
	p50 := sorted[len(sorted)*50/100]
	p95 := sorted[len(sorted)*95/100]
	p99 := sorted[len(sorted)*99/100]

	return &LatencyStats{
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Mean:        mean,
		P50:         p50,
		P95:         p95,
		P99:         p99,
		TotalPaints: len(durations),
		Durations:   sorted,
	}
}

// PrintStats formats and prints latency statistics.
func (s *LatencyStats) PrintStats() {
	fmt.Printf("Latency Statistics:\n")
	fmt.Printf("  Total Paints:  %d\n", s.TotalPaints)
	fmt.Printf("  Errors:        %d\n", s.Errors)
	fmt.Printf("  Min:           %v\n", s.Min)
	fmt.Printf("  P50 (Median):  %v\n", s.P50)
	fmt.Printf("  Mean:          %v\n", s.Mean)
	fmt.Printf("  P95:           %v\n", s.P95)
	fmt.Printf("  P99:           %v\n", s.P99)
	fmt.Printf("  Max:           %v\n", s.Max)
}
