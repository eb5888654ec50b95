package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "advanced",
	Short:   "Serve the live WebSocket dashboard",
	Long: `Serve the station wall dashboard.

The dashboard pushes the unit's state over WebSocket: every connected
browser sees record counts, sync status, and mutations as they happen.
Point a display at the root URL and leave it running.

Endpoints:
  /        dashboard page
  /ws      WebSocket stream
  /health  liveness probe
  /metrics Prometheus metrics

Example:
  fw dashboard --addr 0.0.0.0:8337`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().String("addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Dashboard.Addr
	}

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	logger := logs.Component("dashboard")
	server := dashboard.NewServer(&dashboard.Config{
		Addr:   addr,
		Logger: logger,
	})
	handler := dashboard.NewHandler(server, st, logger)

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting dashboard: %w", err)
	}
	go handler.Run(ctx)

	// First refresh happens behind the served page, dashboard-style:
	// clients get the cached snapshot immediately and the update when
	// the fetch lands.
	go func() {
		if err := st.Revalidate(ctx); err != nil {
			logger.Printf("WARNING: initial refresh failed: %v", err)
		}
	}()

	base := "http://" + server.GetAddr()
	fmt.Printf("🔥 firewatch dashboard\n\n")
	fmt.Printf("   %s\n", styles.Accent.Render(base))
	fmt.Printf("   %s\n", styles.Muted.Render("ws://"+server.GetAddr()+"/ws"))
	fmt.Printf("   %s\n", styles.Muted.Render(base+"/health"))
	fmt.Printf("   %s\n", styles.Muted.Render(base+"/metrics"))
	fmt.Printf("\nPress Ctrl+C to stop\n")

	<-ctx.Done()
	fmt.Println("\nStopping dashboard...")
	return server.Stop()
}
