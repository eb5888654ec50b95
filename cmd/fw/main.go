// Command fw is the firewatch console: an offline-first field tool for
// wildfire response units backed by a shared sheet endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/cache"
	"github.com/emberhq/firewatch/internal/config"
	"github.com/emberhq/firewatch/internal/logging"
	"github.com/emberhq/firewatch/internal/remote"
	"github.com/emberhq/firewatch/internal/store"
	"github.com/emberhq/firewatch/internal/ui"
)

var (
	// Global flags
	flagConfig  string
	flagVerbose bool
	flagPlain   bool

	// Resolved in PersistentPreRunE, shared by every command
	cfg    *config.Config
	logs   *logging.Factory
	styles *ui.Styles
)

var rootCmd = &cobra.Command{
	Use:   "fw",
	Short: "Offline-first field console for wildfire response units",
	Long: `fw is the field console for a wildfire response unit.

Records live on a shared sheet endpoint; fw keeps a local cache so the
console paints instantly and keeps working in the field without signal.
Reads show cached data immediately and refresh in the background; writes
apply locally first and roll back if the endpoint rejects them.

Start with 'fw sync' to pull the unit's records, then 'fw status' to see
what the cache holds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}

		logs, err = logging.Setup(logging.Options{
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
			Verbose:    flagVerbose || cfg.Log.Verbose,
		})
		if err != nil {
			return err
		}

		theme := cfg.UI.Theme
		if flagPlain {
			theme = ui.ThemePlain
		}
		styles = ui.NewStyles(theme)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			_ = logs.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ~/.firewatch/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Mirror log output to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagPlain, "plain", false, "Disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "records", Title: "Record Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "maint", Title: "Maintenance Commands:"},
		&cobra.Group{ID: "advanced", Title: "Advanced Commands:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext returns a context canceled by Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openCache opens the local cache database from the loaded config.
func openCache() (*cache.Cache, error) {
	return cache.Open(cache.Config{
		Path:      cfg.Cache.Path,
		Driver:    cfg.Cache.Driver,
		Freshness: cfg.Cache.Freshness,
		Logger:    logs.Component("cache"),
	})
}

// openStore wires the cache, the remote client, and the store together.
// The returned cleanup closes them in order; commands defer it.
func openStore() (store.Store, func(), error) {
	if err := cfg.RequireEndpoint(); err != nil {
		return nil, nil, err
	}

	c, err := openCache()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	rc, err := remote.New(remote.Config{
		URL:     cfg.Endpoint.URL,
		Timeout: cfg.Endpoint.Timeout,
		Logger:  logs.Component("remote"),
	})
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	st, err := store.New(store.Config{
		Remote:            rc,
		Cache:             c,
		Logger:            logs.Component("store"),
		SuccessClearDelay: cfg.Status.SuccessClear,
		ErrorClearDelay:   cfg.Status.ErrorClear,
	})
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = st.Close()
		_ = c.Close()
	}
	return st, cleanup, nil
}

// paintAndRefresh opens the store from the cache and then revalidates
// against the endpoint, tolerating a degraded refresh as long as cached
// data is on screen. The no-local-data case is the one hard failure.
func paintAndRefresh(ctx context.Context, st store.Store) (store.Snapshot, error) {
	st.Open()
	if err := st.Revalidate(ctx); err != nil {
		return store.Snapshot{}, err
	}
	return st.Snapshot(), nil
}

// paintMaybeRefresh paints from the cache and refreshes only when the
// snapshot is stale or the cache held nothing, or when force is set.
// List-style commands use this so a fresh cache renders without a
// network round trip.
func paintMaybeRefresh(ctx context.Context, st store.Store, force bool) (store.Snapshot, error) {
	snap := st.Open()
	if force || snap.Stale || snap.Loading {
		if err := st.Revalidate(ctx); err != nil {
			return store.Snapshot{}, err
		}
		snap = st.Snapshot()
	}
	return snap, nil
}

// connectionErrorScreen is printed when there is no cached data and the
// endpoint cannot be reached; the caller exits 1 afterwards.
func connectionErrorScreen(err error) {
	fmt.Println()
	fmt.Println(styles.Error.Render("✗ Cannot reach the unit endpoint"))
	fmt.Printf("  %v\n", err)
	fmt.Println()
	fmt.Println("  The local cache is empty, so there is nothing to show yet.")
	fmt.Println("  Check the connection and run 'fw sync' to retry.")
	fmt.Println()
}
