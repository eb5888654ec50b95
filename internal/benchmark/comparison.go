package benchmark

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emberhq/firewatch/internal/cache"
)

// ComparisonResult contains the results of comparing the two drivers.
type ComparisonResult struct {
	SQLite Result
	LibSQL Result

	// Improvement ratios (positive = sqlite3 is better)
	LatencyImprovement    map[string]float64 // min, p50, mean, p95, p99, max
	ThroughputImprovement float64            // paints/sec improvement
	MemoryImprovement     float64            // memory usage improvement
	ColdOpenImprovement   float64            // startup cost improvement
	OverallWinner         string             // "sqlite3", "libsql" or "tie"
	WinCount              map[string]int     // Count of metrics won by each
}

// Compare runs the same workload on both drivers and compares results.
func Compare(config Config) (*ComparisonResult, error) {
	// Run the embedded SQLite driver
	fmt.Println("Running sqlite3 benchmark...")
	sqliteConfig := config
	sqliteConfig.Driver = cache.DriverSQLite
	sqliteConfig.CachePath = comparisonPath(config.CachePath, cache.DriverSQLite)

	sqliteResult, err := Run(sqliteConfig)
	if err != nil {
		return nil, fmt.Errorf("sqlite3 benchmark failed: %w", err)
	}

	// Run the libSQL driver
	fmt.Println("Running libsql benchmark...")
	libsqlConfig := config
	libsqlConfig.Driver = cache.DriverLibSQL
	libsqlConfig.CachePath = comparisonPath(config.CachePath, cache.DriverLibSQL)

	libsqlResult, err := Run(libsqlConfig)
	if err != nil {
		return nil, fmt.Errorf("libsql benchmark failed: %w", err)
	}

	// Compute comparison metrics
	result := &ComparisonResult{
		SQLite:             *sqliteResult,
		LibSQL:             *libsqlResult,
		LatencyImprovement: make(map[string]float64),
		WinCount:           make(map[string]int),
	}

	// Calculate latency improvements (positive = sqlite3 is faster)
	result.LatencyImprovement["min"] = calculateImprovement(
		sqliteResult.Latency.Min.Seconds(),
		libsqlResult.Latency.Min.Seconds(),
	)
	result.LatencyImprovement["p50"] = calculateImprovement(
		sqliteResult.Latency.P50.Seconds(),
		libsqlResult.Latency.P50.Seconds(),
	)
	result.LatencyImprovement["mean"] = calculateImprovement(
		sqliteResult.Latency.Mean.Seconds(),
		libsqlResult.Latency.Mean.Seconds(),
	)
	result.LatencyImprovement["p95"] = calculateImprovement(
		sqliteResult.Latency.P95.Seconds(),
		libsqlResult.Latency.P95.Seconds(),
	)
	result.LatencyImprovement["p99"] = calculateImprovement(
		sqliteResult.Latency.P99.Seconds(),
		libsqlResult.Latency.P99.Seconds(),
	)
	result.LatencyImprovement["max"] = calculateImprovement(
		sqliteResult.Latency.Max.Seconds(),
		libsqlResult.Latency.Max.Seconds(),
	)

	// Calculate throughput improvement (positive = sqlite3 is faster)
	if libsqlResult.Throughput.PaintsPerSecond > 0 {
		result.ThroughputImprovement = (sqliteResult.Throughput.PaintsPerSecond - libsqlResult.Throughput.PaintsPerSecond) /
			libsqlResult.Throughput.PaintsPerSecond * 100
	}

	// Calculate memory improvement (positive = sqlite3 uses less memory)
	result.MemoryImprovement = calculateImprovement(
		float64(sqliteResult.Resources.MemoryDeltaBytes),
		float64(libsqlResult.Resources.MemoryDeltaBytes),
	)

	// Calculate cold-open improvement (positive = sqlite3 starts faster)
	result.ColdOpenImprovement = calculateImprovement(
		float64(sqliteResult.Cache.ColdOpenMs),
		float64(libsqlResult.Cache.ColdOpenMs),
	)

	// Count wins
	for _, improvement := range result.LatencyImprovement {
		if improvement > 0 {
			result.WinCount["sqlite3"]++
		} else if improvement < 0 {
			result.WinCount["libsql"]++
		}
	}

	if result.ThroughputImprovement > 0 {
		result.WinCount["sqlite3"]++
	} else if result.ThroughputImprovement < 0 {
		result.WinCount["libsql"]++
	}

	if result.MemoryImprovement > 0 {
		result.WinCount["sqlite3"]++
	} else if result.MemoryImprovement < 0 {
		result.WinCount["libsql"]++
	}

	if result.ColdOpenImprovement > 0 {
		result.WinCount["sqlite3"]++
	} else if result.ColdOpenImprovement < 0 {
		result.WinCount["libsql"]++
	}

	// Determine overall winner
	if result.WinCount["sqlite3"] > result.WinCount["libsql"] {
		result.OverallWinner = "sqlite3"
	} else if result.WinCount["libsql"] > result.WinCount["sqlite3"] {
		result.OverallWinner = "libsql"
	} else {
		result.OverallWinner = "tie"
	}

	return result, nil
}

// comparisonPath derives a per-driver database path so the two runs never
// share a file.
func comparisonPath(base, driver string) string {
	if base == "" {
		return ""
	}
	ext := ".db"
	trimmed := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s-%s%s", trimmed, driver, ext)
}

// calculateImprovement calculates percentage improvement.
// Positive = sqlite3 is better, negative = libsql is better.
func calculateImprovement(sqliteValue, libsqlValue float64) float64 {
	if libsqlValue == 0 {
		return 0
	}
	return (libsqlValue - sqliteValue) / libsqlValue * 100
}

// PrintComparison outputs a formatted comparison report.
func PrintComparison(result *ComparisonResult) {
	separator := strings.Repeat("=", 80)
	fmt.Printf("\n%s\n", separator)
	fmt.Printf("CACHE DRIVER COMPARISON: sqlite3 vs libsql\n")
	fmt.Printf("%s\n\n", separator)

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Concurrent Readers: %d\n", result.SQLite.Config.NumReaders)
	fmt.Printf("  Total Records:      %d\n", result.SQLite.Config.NumRecords)
	fmt.Printf("  Paints per Reader:  %d\n\n", result.SQLite.Config.PaintsPerReader)

	// Latency comparison table
	fmt.Printf("PAINT LATENCY:\n")
	fmt.Printf("%-10s | %-12s | %-12s | %-15s\n", "Metric", "sqlite3", "libsql", "Improvement")
	lineSeparator := strings.Repeat("-", 60)
	fmt.Printf("%s\n", lineSeparator)

	printLatencyRow("Min", result.SQLite.Latency.Min, result.LibSQL.Latency.Min, result.LatencyImprovement["min"])
	printLatencyRow("P50", result.SQLite.Latency.P50, result.LibSQL.Latency.P50, result.LatencyImprovement["p50"])
	printLatencyRow("Mean", result.SQLite.Latency.Mean, result.LibSQL.Latency.Mean, result.LatencyImprovement["mean"])
	printLatencyRow("P95", result.SQLite.Latency.P95, result.LibSQL.Latency.P95, result.LatencyImprovement["p95"])
	printLatencyRow("P99", result.SQLite.Latency.P99, result.LibSQL.Latency.P99, result.LatencyImprovement["p99"])
	printLatencyRow("Max", result.SQLite.Latency.Max, result.LibSQL.Latency.Max, result.LatencyImprovement["max"])
	fmt.Printf("\n")

	// P95 bars make the gap readable at a glance
	printLatencyBars(result.SQLite.Latency.P95, result.LibSQL.Latency.P95)

	// Throughput comparison
	fmt.Printf("THROUGHPUT:\n")
	fmt.Printf("  sqlite3:    %.2f paints/sec\n", result.SQLite.Throughput.PaintsPerSecond)
	fmt.Printf("  libsql:     %.2f paints/sec\n", result.LibSQL.Throughput.PaintsPerSecond)
	fmt.Printf("  Improvement: %s%.2f%%\n\n", formatSign(result.ThroughputImprovement), result.ThroughputImprovement)

	// Startup cost comparison
	fmt.Printf("STARTUP COST:\n")
	fmt.Printf("  sqlite3 Cold Open:  %dms (first paint %dms)\n", result.SQLite.Cache.ColdOpenMs, result.SQLite.Cache.FirstPaintMs)
	fmt.Printf("  libsql Cold Open:   %dms (first paint %dms)\n", result.LibSQL.Cache.ColdOpenMs, result.LibSQL.Cache.FirstPaintMs)
	fmt.Printf("  Improvement:        %s%.2f%%\n\n", formatSign(result.ColdOpenImprovement), result.ColdOpenImprovement)

	// Memory comparison
	fmt.Printf("MEMORY:\n")
	fmt.Printf("  sqlite3 Delta:  %s\n", FormatBytes(result.SQLite.Resources.MemoryDeltaBytes))
	fmt.Printf("  libsql Delta:   %s\n", FormatBytes(result.LibSQL.Resources.MemoryDeltaBytes))
	fmt.Printf("  Improvement:    %s%.2f%%\n\n", formatSign(result.MemoryImprovement), result.MemoryImprovement)

	// Cache file comparison
	fmt.Printf("CACHE FILE:\n")
	fmt.Printf("  sqlite3 Size:   %s\n", FormatBytes(uint64(result.SQLite.Cache.SizeBytes)))
	fmt.Printf("  libsql Size:    %s\n", FormatBytes(uint64(result.LibSQL.Cache.SizeBytes)))
	fmt.Printf("\n")

	// Summary
	fmt.Printf("SUMMARY:\n")
	fmt.Printf("  sqlite3 Wins:   %d metrics\n", result.WinCount["sqlite3"])
	fmt.Printf("  libsql Wins:    %d metrics\n", result.WinCount["libsql"])
	fmt.Printf("  Overall Winner: %s\n\n", strings.ToUpper(result.OverallWinner))

	fmt.Printf("%s\n\n", separator)
}

// printLatencyRow prints a single row in the latency comparison table.
func printLatencyRow(metric string, sqliteVal, libsqlVal time.Duration, improvement float64) {
	improvementStr := fmt.Sprintf("%s%.1f%%", formatSign(improvement), improvement)
	fmt.Printf("%-10s | %-12s | %-12s | %-15s\n",
		metric,
		FormatDuration(sqliteVal),
		FormatDuration(libsqlVal),
		improvementStr)
}

// printLatencyBars prints proportional P95 bars for both drivers.
func printLatencyBars(sqliteP95, libsqlP95 time.Duration) {
	maxLatency := sqliteP95
	if libsqlP95 > maxLatency {
		maxLatency = libsqlP95
	}
	if maxLatency == 0 {
		return
	}

	graphWidth := 50
	sqliteBar := int(float64(sqliteP95) / float64(maxLatency) * float64(graphWidth))
	libsqlBar := int(float64(libsqlP95) / float64(maxLatency) * float64(graphWidth))

	fmt.Printf("P95 LATENCY:\n")
	fmt.Printf("  sqlite3: %s %s\n", strings.Repeat("█", sqliteBar), FormatDuration(sqliteP95))
	fmt.Printf("  libsql:  %s %s\n", strings.Repeat("█", libsqlBar), FormatDuration(libsqlP95))
	fmt.Printf("\n")
}

// formatSign returns a + sign for positive display values.
func formatSign(value float64) string {
	if value > 0 {
		return "+"
	}
	return ""
}

// PrintComparisonJSON outputs the comparison in JSON format.
func PrintComparisonJSON(result *ComparisonResult) error {
	output := map[string]interface{}{
		"sqlite3": map[string]interface{}{
			"latency_p50_ms":   float64(result.SQLite.Latency.P50.Microseconds()) / 1000.0,
			"latency_p95_ms":   float64(result.SQLite.Latency.P95.Microseconds()) / 1000.0,
			"latency_p99_ms":   float64(result.SQLite.Latency.P99.Microseconds()) / 1000.0,
			"paints_per_sec":   result.SQLite.Throughput.PaintsPerSecond,
			"cold_open_ms":     result.SQLite.Cache.ColdOpenMs,
			"cache_size_bytes": result.SQLite.Cache.SizeBytes,
			"errors":           result.SQLite.ErrorCount,
		},
		"libsql": map[string]interface{}{
			"latency_p50_ms":   float64(result.LibSQL.Latency.P50.Microseconds()) / 1000.0,
			"latency_p95_ms":   float64(result.LibSQL.Latency.P95.Microseconds()) / 1000.0,
			"latency_p99_ms":   float64(result.LibSQL.Latency.P99.Microseconds()) / 1000.0,
			"paints_per_sec":   result.LibSQL.Throughput.PaintsPerSecond,
			"cold_open_ms":     result.LibSQL.Cache.ColdOpenMs,
			"cache_size_bytes": result.LibSQL.Cache.SizeBytes,
			"errors":           result.LibSQL.ErrorCount,
		},
		"improvement": map[string]interface{}{
			"latency_p50_pct": result.LatencyImprovement["p50"],
			"latency_p95_pct": result.LatencyImprovement["p95"],
			"latency_p99_pct": result.LatencyImprovement["p99"],
			"throughput_pct":  result.ThroughputImprovement,
			"memory_pct":      result.MemoryImprovement,
			"cold_open_pct":   result.ColdOpenImprovement,
		},
		"winner": result.OverallWinner,
		"wins": map[string]int{
			"sqlite3": result.WinCount["sqlite3"],
			"libsql":  result.WinCount["libsql"],
		},
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode comparison: %w", err)
	}
	fmt.Printf("%s\n", data)
	return nil
}
