package benchmark

import (
	"fmt"
	"math"
)

// StabilityResult captures run-to-run variance for both drivers.
//
// A single comparison run can be swayed by OS scheduling or a cold page
// cache; repeating the workload shows whether the gap between the drivers
// is real or noise.
type StabilityResult struct {
	Runs int

	// P95 latencies per run, in nanoseconds
	SQLiteP95s []float64
	LibSQLP95s []float64

	SQLiteMean   float64
	SQLiteStdDev float64
	SQLiteCV     float64 // Coefficient of variation, percent

	LibSQLMean   float64
	LibSQLStdDev float64
	LibSQLCV     float64

	// Effect size: difference in means normalized by pooled stddev
	EffectSize   float64
	Significance string // small, medium, large
}

// MeasureStability runs the driver comparison several times and reports
// how reproducible the P95 gap is.
func MeasureStability(config Config, runs int) (*StabilityResult, error) {
	if runs < 2 {
		return nil, fmt.Errorf("stability analysis needs at least 2 runs (got %d)", runs)
	}

	result := &StabilityResult{
		Runs:       runs,
		SQLiteP95s: make([]float64, 0, runs),
		LibSQLP95s: make([]float64, 0, runs),
	}

	for i := 0; i < runs; i++ {
		fmt.Printf("Stability run %d/%d\n", i+1, runs)

		comparison, err := Compare(config)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}

		result.SQLiteP95s = append(result.SQLiteP95s, float64(comparison.SQLite.Latency.P95))
		result.LibSQLP95s = append(result.LibSQLP95s, float64(comparison.LibSQL.Latency.P95))
	}

	result.SQLiteMean, result.SQLiteStdDev = meanAndStdDev(result.SQLiteP95s)
	result.LibSQLMean, result.LibSQLStdDev = meanAndStdDev(result.LibSQLP95s)

	if result.SQLiteMean > 0 {
		result.SQLiteCV = (result.SQLiteStdDev / result.SQLiteMean) * 100
	}
	if result.LibSQLMean > 0 {
		result.LibSQLCV = (result.LibSQLStdDev / result.LibSQLMean) * 100
	}

	pooledStdDev := math.Sqrt((result.SQLiteStdDev*result.SQLiteStdDev + result.LibSQLStdDev*result.LibSQLStdDev) / 2)
	if pooledStdDev > 0 {
		result.EffectSize = math.Abs(result.SQLiteMean-result.LibSQLMean) / pooledStdDev
	}

	switch {
	case result.EffectSize > 0.8:
		result.Significance = "large"
	case result.EffectSize > 0.5:
		result.Significance = "medium"
	default:
		result.Significance = "small"
	}

	return result, nil
}

// PrintStability outputs a formatted stability report.
func PrintStability(result *StabilityResult) {
	fmt.Printf("\n=== STABILITY ANALYSIS (%d runs) ===\n\n", result.Runs)

	fmt.Printf("P95 latency across runs:\n")
	fmt.Printf("  sqlite3: mean=%.2fms, stddev=%.2fms, CV=%.1f%%\n",
		result.SQLiteMean/1e6, result.SQLiteStdDev/1e6, result.SQLiteCV)
	fmt.Printf("  libsql:  mean=%.2fms, stddev=%.2fms, CV=%.1f%%\n",
		result.LibSQLMean/1e6, result.LibSQLStdDev/1e6, result.LibSQLCV)
	fmt.Printf("  Effect size: %.2f (%s)\n", result.EffectSize, result.Significance)
	fmt.Printf("\n")

	fmt.Printf("Effect size interpretation:\n")
	fmt.Printf("  < 0.5   = small (may not be practically significant)\n")
	fmt.Printf("  0.5-0.8 = medium (likely practically significant)\n")
	fmt.Printf("  > 0.8   = large (definitely practically significant)\n")
	fmt.Printf("\n")
}

// meanAndStdDev computes mean and standard deviation of a slice of values.
func meanAndStdDev(values []float64) (mean float64, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	// Compute mean
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	// Compute standard deviation
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	stdDev = math.Sqrt(variance)

	return mean, stdDev
}
