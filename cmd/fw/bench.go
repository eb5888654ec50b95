package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/benchmark"
	"github.com/emberhq/firewatch/internal/cache"
)

var benchCmd = &cobra.Command{
	Use:     "bench",
	GroupID: "advanced",
	Short:   "Benchmark cache paint performance across drivers",
	Long: `Benchmark snapshot paint performance against a generated cache.

The benchmark fills a cache with synthetic records, then hammers it
with concurrent readers each painting full snapshots, and reports
latency percentiles, throughput, memory, and cold-open cost.

Modes:
  compare  - Run both drivers, show the comparison (default)
  sqlite3  - Run only the sqlite3 driver
  libsql   - Run only the libsql driver

Examples:
  # Compare drivers with default settings (1000 records, 50 readers)
  fw bench

  # Heavier fixture
  fw bench --records 5000 --concurrency 100

  # One driver, JSON output
  fw bench --drivers sqlite3 --json

  # Repeat the comparison to measure run-to-run stability
  fw bench --runs 5
`,
	Run: runBench,
}

func init() {
	benchCmd.Flags().Int("records", 1000, "Total records in the cache fixture")
	benchCmd.Flags().Int("concurrency", 50, "Number of concurrent readers")
	benchCmd.Flags().Int("paints", 10, "Snapshot paints per reader")
	benchCmd.Flags().String("drivers", "compare", "Drivers to run: compare, sqlite3, or libsql")
	benchCmd.Flags().Int("runs", 1, "Repeat the comparison N times and report stability")
	benchCmd.Flags().Bool("json", false, "Output results as JSON")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) {
	records, _ := cmd.Flags().GetInt("records")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	paints, _ := cmd.Flags().GetInt("paints")
	drivers, _ := cmd.Flags().GetString("drivers")
	runs, _ := cmd.Flags().GetInt("runs")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if records <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --records must be positive\n")
		os.Exit(1)
	}
	if concurrency <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --concurrency must be positive\n")
		os.Exit(1)
	}
	if paints <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --paints must be positive\n")
		os.Exit(1)
	}
	if drivers != "compare" && drivers != cache.DriverSQLite && drivers != cache.DriverLibSQL {
		fmt.Fprintf(os.Stderr, "Error: --drivers must be 'compare', 'sqlite3', or 'libsql'\n")
		os.Exit(1)
	}
	if runs < 1 {
		fmt.Fprintf(os.Stderr, "Error: --runs must be at least 1\n")
		os.Exit(1)
	}
	if runs > 1 && drivers != "compare" {
		fmt.Fprintf(os.Stderr, "Error: --runs only applies to the compare mode\n")
		os.Exit(1)
	}

	config := benchmark.Config{
		NumRecords:      records,
		NumReaders:      concurrency,
		PaintsPerReader: paints,
		CachePath:       filepath.Join(os.TempDir(), "firewatch-bench.db"),
	}

	switch {
	case runs > 1:
		runStabilityBench(config, runs)
	case drivers == "compare":
		runCompareBench(config, jsonOutput)
	default:
		runSingleDriverBench(config, drivers, jsonOutput)
	}
}

func runCompareBench(config benchmark.Config, jsonOutput bool) {
	fmt.Println("Running driver comparison...")
	fmt.Printf("Configuration: %d records, %d readers, %d paints/reader\n\n",
		config.NumRecords, config.NumReaders, config.PaintsPerReader)

	result, err := benchmark.Compare(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		if err := benchmark.PrintComparisonJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		benchmark.PrintComparison(result)
	}

	if result.SQLite.ErrorCount > 0 || result.LibSQL.ErrorCount > 0 {
		os.Exit(1)
	}
}

func runSingleDriverBench(config benchmark.Config, driver string, jsonOutput bool) {
	fmt.Printf("Running %s benchmark...\n", driver)
	fmt.Printf("Configuration: %d records, %d readers, %d paints/reader\n\n",
		config.NumRecords, config.NumReaders, config.PaintsPerReader)

	config.Driver = driver
	result, err := benchmark.Run(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		outputResultJSON(result)
	} else {
		benchmark.PrintResult(*result)
	}

	if result.ErrorCount > 0 {
		os.Exit(1)
	}
}

func runStabilityBench(config benchmark.Config, runs int) {
	fmt.Printf("Measuring stability over %d comparison runs...\n", runs)
	fmt.Printf("Configuration: %d records, %d readers, %d paints/reader\n\n",
		config.NumRecords, config.NumReaders, config.PaintsPerReader)

	result, err := benchmark.MeasureStability(config, runs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	benchmark.PrintStability(result)
}

func outputResultJSON(result *benchmark.Result) {
	output := map[string]interface{}{
		"config": map[string]interface{}{
			"records":     result.Config.NumRecords,
			"concurrency": result.Config.NumReaders,
			"paints":      result.Config.PaintsPerReader,
			"driver":      result.Config.Driver,
		},
		"latency": map[string]interface{}{
			"min_us":  result.Latency.Min.Microseconds(),
			"p50_us":  result.Latency.P50.Microseconds(),
			"mean_us": result.Latency.Mean.Microseconds(),
			"p95_us":  result.Latency.P95.Microseconds(),
			"p99_us":  result.Latency.P99.Microseconds(),
			"max_us":  result.Latency.Max.Microseconds(),
		},
		"throughput": map[string]interface{}{
			"paints_per_second": result.Throughput.PaintsPerSecond,
			"paints":            result.Throughput.TotalPaints,
		},
		"memory": map[string]interface{}{
			"before_bytes": result.Resources.MemoryBeforeBytes,
			"after_bytes":  result.Resources.MemoryAfterBytes,
			"peak_bytes":   result.Resources.MemoryPeakBytes,
			"delta_bytes":  result.Resources.MemoryDeltaBytes,
		},
		"cache": map[string]interface{}{
			"size_bytes":       result.Cache.SizeBytes,
			"cold_open_ms":     result.Cache.ColdOpenMs,
			"first_paint_ms":   result.Cache.FirstPaintMs,
			"write_through_ms": result.Cache.WriteThroughMs,
			"records":          result.Cache.RecordCount,
		},
		"total_duration_ms": result.TotalDuration.Milliseconds(),
		"errors":            result.ErrorCount,
		"success":           result.Success,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
