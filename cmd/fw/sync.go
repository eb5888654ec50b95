package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/store"
	"github.com/emberhq/firewatch/internal/version"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Refresh the local cache from the unit endpoint",
	Long: `Fetch all collections from the endpoint and refresh the local cache.

The cached snapshot paints first, then the endpoint is asked for the
authoritative data. If the endpoint is unreachable but the cache holds
data, the cached snapshot stays on screen and the command reports the
degraded refresh. With an empty cache an unreachable endpoint is a hard
failure.

With --watch the refresh repeats at an interval until interrupted.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("watch", false, "Keep refreshing at the sync interval")
	syncCmd.Flags().Duration("interval", 0, "Refresh interval for --watch (default: daemon.interval)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		interval = cfg.Daemon.Interval
	}

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	if err := syncOnce(ctx, st); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	fmt.Printf("\nWatching for changes every %s. Press Ctrl+C to stop.\n", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped.")
			return nil
		case <-ticker.C:
			if err := syncOnce(ctx, st); err != nil {
				return err
			}
		}
	}
}

// syncOnce runs one paint-and-refresh cycle and prints the outcome.
func syncOnce(ctx context.Context, st store.Store) error {
	start := time.Now()
	snap, err := paintAndRefresh(ctx, st)
	if errors.Is(err, store.ErrNoLocalData) {
		connectionErrorScreen(err)
		os.Exit(1)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Round(time.Millisecond)

	if snap.Status.State == store.StateError {
		fmt.Printf("%s Refresh degraded: %s (showing cached data)\n",
			styles.Warning.Render("⚠"), snap.Status.Message)
	} else {
		fmt.Printf("%s Sync complete in %v\n", styles.Success.Render("✓"), elapsed)
	}
	fmt.Printf("   Activities:     %d\n", len(snap.Activities))
	fmt.Printf("   Hotspots:       %d\n", len(snap.Hotspots))
	fmt.Printf("   Fire incidents: %d\n", len(snap.Incidents))

	if err := version.Check(snap.Settings.MinAppVersion); err != nil {
		fmt.Printf("%s %v\n", styles.Warning.Render("⚠"), err)
	}
	return nil
}
