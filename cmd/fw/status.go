package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/daemon"
	"github.com/emberhq/firewatch/internal/version"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show cache, endpoint, and daemon status",
	Long: `Display the current state of the local cache and the background daemon.

Shows:
  - Cache file location, size, and driver
  - Cached record counts per collection
  - Last refresh time and whether the snapshot is stale
  - Endpoint configuration and daemon liveness

This command never touches the network; it reads only the local cache.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Printf("\n%s Firewatch Status\n\n", styles.Title.Render("▲"))
	fmt.Printf("Version:  fw %s\n", version.Current())

	if cfg.Endpoint.URL != "" {
		fmt.Printf("Endpoint: %s\n", cfg.Endpoint.URL)
	} else {
		fmt.Printf("Endpoint: %s\n", styles.Warning.Render("not configured"))
	}

	info, err := os.Stat(cfg.Cache.Path)
	if os.IsNotExist(err) {
		fmt.Printf("Cache:    %s\n", styles.Warning.Render("not initialized"))
		fmt.Printf("\nRun 'fw sync' to pull the unit's records.\n\n")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check cache: %w", err)
	}

	c, err := openCache()
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = c.Close() }()

	acts, _ := c.ReadActivities()
	hs, _ := c.ReadHotspots()
	fis, _ := c.ReadIncidents()
	settings, haveSettings := c.ReadSettings()

	fmt.Printf("Cache:    %s (%s, %s driver)\n", c.Path(), formatSize(info.Size()), cfg.Cache.Driver)
	fmt.Println()
	fmt.Printf("Activities:     %d\n", len(acts))
	fmt.Printf("Hotspots:       %d\n", len(hs))
	fmt.Printf("Fire incidents: %d\n", len(fis))
	if haveSettings {
		fmt.Printf("Unit:           %s\n", settings.UnitName)
	}
	fmt.Println()

	if last, ok := c.LastRefresh(); ok {
		age := time.Since(last).Round(time.Second)
		freshness := styles.Success.Render("fresh")
		if c.IsStale() {
			freshness = styles.Warning.Render("stale")
		}
		fmt.Printf("Last refresh: %s (%s ago, %s)\n", last.Local().Format("2006-01-02 15:04:05"), age, freshness)
	} else {
		fmt.Printf("Last refresh: %s\n", styles.Muted.Render("never"))
	}

	pid, running, err := daemon.Status(cfg.Daemon.PIDFile)
	switch {
	case err != nil:
		fmt.Printf("Daemon:       %s (%v)\n", styles.Warning.Render("unknown"), err)
	case running:
		fmt.Printf("Daemon:       %s (pid %d)\n", styles.Success.Render("running"), pid)
	default:
		fmt.Printf("Daemon:       not running\n")
	}

	if haveSettings {
		if err := version.Check(settings.MinAppVersion); err != nil {
			fmt.Printf("\n%s %v\n", styles.Warning.Render("⚠"), err)
		}
	}

	fmt.Println()
	return nil
}

// formatSize renders a byte count the way the status output wants it.
func formatSize(size int64) string {
	switch {
	case size > 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size > 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
