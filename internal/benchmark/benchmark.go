// Package benchmark provides performance comparison between the storage
// drivers available to the local cache.
//
// The suite measures the operations that shape perceived console startup:
// cold open plus first paint, warm concurrent paints, and the write-through
// cost of persisting a refreshed collection. A comparison mode runs the
// same workload on both drivers (embedded WASM SQLite and libSQL) and
// reports which one wins each metric.
package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// Config defines the parameters for a benchmark run.
type Config struct {
	// NumRecords is the total number of records in the cache fixture
	NumRecords int

	// NumReaders is the number of concurrent readers to simulate
	NumReaders int

	// PaintsPerReader is how many full snapshot paints each reader performs
	PaintsPerReader int

	// Driver selects the storage backend (cache.DriverSQLite or
	// cache.DriverLibSQL); empty means the default
	Driver string

	// CachePath is the database file location. Empty means a file under
	// the system temp directory
	CachePath string
}

// DefaultConfig returns a benchmark configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		NumRecords:      1000,
		NumReaders:      50,
		PaintsPerReader: 10,
		CachePath:       filepath.Join(os.TempDir(), "firewatch-bench.db"),
	}
}

// Result captures all metrics from a benchmark run.
type Result struct {
	// Configuration used for this run
	Config Config

	// Latency metrics (paint performance)
	Latency LatencyMetrics

	// Throughput metrics
	Throughput ThroughputMetrics

	// Resource usage metrics
	Resources ResourceMetrics

	// Cache file metrics
	Cache CacheMetrics

	// Overall run metrics
	TotalDuration time.Duration
	ErrorCount    int
	ErrorRate     float64
	Success       bool
}

// LatencyMetrics captures paint latency statistics.
type LatencyMetrics struct {
	Min  time.Duration
	P50  time.Duration // Median
	Mean time.Duration
	P95  time.Duration
	P99  time.Duration
	Max  time.Duration

	// Raw durations for analysis
	Durations []time.Duration
}

// ThroughputMetrics captures paints-per-second metrics.
type ThroughputMetrics struct {
	PaintsPerSecond float64
	TotalPaints     int
}

// ResourceMetrics captures memory usage.
type ResourceMetrics struct {
	MemoryBeforeBytes uint64
	MemoryAfterBytes  uint64
	MemoryPeakBytes   uint64
	MemoryDeltaBytes  uint64
}

// CacheMetrics captures cache file statistics and one-off costs.
type CacheMetrics struct {
	SizeBytes      int64
	ColdOpenMs     int64 // Time to open the database from a cold process
	FirstPaintMs   int64 // Time to paint the first full snapshot
	WriteThroughMs int64 // Time to persist one refreshed collection
	RecordCount    int
}

// ComputeStats calculates statistics from raw durations.
func ComputeStats(durations []time.Duration) LatencyMetrics {
	if len(durations) == 0 {
		return LatencyMetrics{}
	}

	// Sort for percentile calculation
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	// Calculate mean
	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	mean := sum / time.Duration(len(sorted))

	// Calculate percentiles
	p50 := sorted[len(sorted)*50/100]
	p95 := sorted[len(sorted)*95/100]
	p99 := sorted[len(sorted)*99/100]

	return LatencyMetrics{
		Min:       sorted[0],
		P50:       p50,
		Mean:      mean,
		P95:       p95,
		P99:       p99,
		Max:       sorted[len(sorted)-1],
		Durations: sorted,
	}
}

// GetMemoryStats returns current memory usage statistics.
func GetMemoryStats() ResourceMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ResourceMetrics{
		MemoryBeforeBytes: m.Alloc,
		MemoryAfterBytes:  m.Alloc,
		MemoryPeakBytes:   m.Sys,
		MemoryDeltaBytes:  0,
	}
}

// CompareMemoryStats computes the delta between before and after memory stats.
func CompareMemoryStats(before, after ResourceMetrics) ResourceMetrics {
	var delta uint64
	if after.MemoryAfterBytes > before.MemoryBeforeBytes {
		delta = after.MemoryAfterBytes - before.MemoryBeforeBytes
	}

	return ResourceMetrics{
		MemoryBeforeBytes: before.MemoryBeforeBytes,
		MemoryAfterBytes:  after.MemoryAfterBytes,
		MemoryPeakBytes:   after.MemoryPeakBytes,
		MemoryDeltaBytes:  delta,
	}
}

// FormatBytes formats bytes into a human-readable string.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats a duration into a human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Microsecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000.0)
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// PrintResult outputs a formatted benchmark result.
func PrintResult(result Result) {
	fmt.Printf("\n=== Benchmark Results (%s driver) ===\n\n", driverLabel(result.Config.Driver))

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Concurrent Readers: %d\n", result.Config.NumReaders)
	fmt.Printf("  Total Records:      %d\n", result.Config.NumRecords)
	fmt.Printf("  Paints per Reader:  %d\n", result.Config.PaintsPerReader)
	fmt.Printf("\n")

	fmt.Printf("Paint Latency:\n")
	fmt.Printf("  Min:       %s\n", FormatDuration(result.Latency.Min))
	fmt.Printf("  P50:       %s\n", FormatDuration(result.Latency.P50))
	fmt.Printf("  Mean:      %s\n", FormatDuration(result.Latency.Mean))
	fmt.Printf("  P95:       %s\n", FormatDuration(result.Latency.P95))
	fmt.Printf("  P99:       %s\n", FormatDuration(result.Latency.P99))
	fmt.Printf("  Max:       %s\n", FormatDuration(result.Latency.Max))
	fmt.Printf("\n")

	fmt.Printf("Throughput:\n")
	fmt.Printf("  Paints/sec:        %.2f\n", result.Throughput.PaintsPerSecond)
	fmt.Printf("  Total Paints:      %d\n", result.Throughput.TotalPaints)
	fmt.Printf("\n")

	fmt.Printf("Resources:\n")
	fmt.Printf("  Memory Before:     %s\n", FormatBytes(result.Resources.MemoryBeforeBytes))
	fmt.Printf("  Memory After:      %s\n", FormatBytes(result.Resources.MemoryAfterBytes))
	fmt.Printf("  Memory Peak:       %s\n", FormatBytes(result.Resources.MemoryPeakBytes))
	fmt.Printf("  Memory Delta:      %s\n", FormatBytes(result.Resources.MemoryDeltaBytes))
	fmt.Printf("\n")

	fmt.Printf("Cache:\n")
	fmt.Printf("  Size:              %s\n", FormatBytes(uint64(result.Cache.SizeBytes)))
	fmt.Printf("  Cold Open:         %dms\n", result.Cache.ColdOpenMs)
	fmt.Printf("  First Paint:       %dms\n", result.Cache.FirstPaintMs)
	fmt.Printf("  Write-Through:     %dms\n", result.Cache.WriteThroughMs)
	fmt.Printf("  Records:           %d\n", result.Cache.RecordCount)
	fmt.Printf("\n")

	fmt.Printf("Overall:\n")
	fmt.Printf("  Total Duration:    %s\n", FormatDuration(result.TotalDuration))
	fmt.Printf("  Errors:            %d (%.2f%%)\n", result.ErrorCount, result.ErrorRate*100)
	fmt.Printf("  Success:           %v\n", result.Success)
	fmt.Printf("\n")
}

// driverLabel names a driver for display, resolving the default.
func driverLabel(driver string) string {
	if driver == "" {
		return "sqlite3"
	}
	return driver
}
