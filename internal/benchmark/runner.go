package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emberhq/firewatch/internal/loadtest"
)

// Run executes a cache benchmark with the configured driver.
//
// The run builds a populated fixture, closes it, then measures a cold
// open and first paint (the cost a field console pays at startup),
// follows with concurrent warm paints, and finishes with one timed
// collection write-through.
func Run(config Config) (*Result, error) {
	if config.CachePath == "" {
		config.CachePath = filepath.Join(os.TempDir(), fmt.Sprintf("firewatch-bench-%s.db", driverLabel(config.Driver)))
	}

	// Clean up any existing database, including WAL sidecars
	removeCacheFiles(config.CachePath)
	defer removeCacheFiles(config.CachePath)

	// Measure memory before
	memBefore := GetMemoryStats()

	// Build the fixture, then close it so the open below is cold
	tc, err := loadtest.CreateTestCache(config.CachePath, config.NumRecords, config.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create test cache: %w", err)
	}
	if err := tc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close fixture: %w", err)
	}

	// Get cache file size
	fileInfo, err := os.Stat(config.CachePath)
	var cacheSize int64
	if err == nil {
		cacheSize = fileInfo.Size()
	}

	// Measure cold open
	coldStart := time.Now()
	tc, err = loadtest.OpenTestCache(config.CachePath, config.Driver)
	if err != nil {
		return nil, fmt.Errorf("cold open failed: %w", err)
	}
	coldOpen := time.Since(coldStart)
	defer func() { _ = tc.Close() }()

	// Measure time to first paint
	firstPaintStart := time.Now()
	recordCount, err := tc.Paint()
	if err != nil {
		return nil, fmt.Errorf("first paint failed: %w", err)
	}
	firstPaint := time.Since(firstPaintStart)

	// Run concurrent warm paints
	benchStart := time.Now()
	stats, err := tc.RunConcurrentPaints(config.NumReaders, config.PaintsPerReader)
	if err != nil {
		return nil, fmt.Errorf("concurrent paints failed: %w", err)
	}
	benchDuration := time.Since(benchStart)

	// Measure write-through cost: persist one full collection the way a
	// revalidation pass does
	acts, ok := tc.Cache.ReadActivities()
	if !ok {
		return nil, fmt.Errorf("activities missing before write-through measurement")
	}
	writeStart := time.Now()
	tc.Cache.WriteActivities(acts)
	writeThrough := time.Since(writeStart)

	// Measure memory after
	memAfter := GetMemoryStats()
	memStats := CompareMemoryStats(memBefore, memAfter)

	totalPaints := stats.TotalPaints
	qps := 0.0
	if benchDuration.Seconds() > 0 {
		qps = float64(totalPaints) / benchDuration.Seconds()
	}

	errorRate := 0.0
	if totalPaints > 0 {
		errorRate = float64(stats.Errors) / float64(totalPaints)
	}

	result := &Result{
		Config: config,
		Latency: LatencyMetrics{
			Min:       stats.Min,
			P50:       stats.P50,
			Mean:      stats.Mean,
			P95:       stats.P95,
			P99:       stats.P99,
			Max:       stats.Max,
			Durations: stats.Durations,
		},
		TotalDuration: benchDuration,
		ErrorCount:    stats.Errors,
		ErrorRate:     errorRate,
		Success:       stats.Errors == 0,
		Throughput: ThroughputMetrics{
			PaintsPerSecond: qps,
			TotalPaints:     totalPaints,
		},
		Resources: memStats,
		Cache: CacheMetrics{
			SizeBytes:      cacheSize,
			ColdOpenMs:     coldOpen.Milliseconds(),
			FirstPaintMs:   firstPaint.Milliseconds(),
			WriteThroughMs: writeThrough.Milliseconds(),
			RecordCount:    recordCount,
		},
	}

	return result, nil
}

// removeCacheFiles deletes the database file and its WAL sidecars.
func removeCacheFiles(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
}
