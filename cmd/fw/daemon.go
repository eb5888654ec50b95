package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Run the background sync daemon",
	Long: `Run the sync daemon in the foreground.

The daemon keeps the cache fresh on an interval and watches an inbox
directory for queued record files. Other tools on the station drop
*.jsonl files there; the daemon applies each line as a save and renames
the file to *.done (or *.err when lines fail), so nothing is applied
twice.

The daemon writes a pidfile so 'fw daemon status' and 'fw daemon stop'
can find it. Run it under the station's service manager:

  fw daemon --inbox /var/spool/firewatch --interval 10m`,
	RunE: runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the daemon is running",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.Flags().String("inbox", "", "Inbox directory to watch (default from config)")
	daemonCmd.Flags().Duration("interval", 0, "Refresh interval (default from config)")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	inbox, _ := cmd.Flags().GetString("inbox")
	interval, _ := cmd.Flags().GetDuration("interval")
	if inbox == "" {
		inbox = cfg.Daemon.Inbox
	}
	if inbox == "" {
		return fmt.Errorf("no inbox directory; pass --inbox or set daemon.inbox")
	}
	if interval == 0 {
		interval = cfg.Daemon.Interval
	}

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	dcfg := daemon.DefaultConfig()
	dcfg.Inbox = inbox
	dcfg.RefreshInterval = interval
	dcfg.PIDFile = cfg.Daemon.PIDFile
	dcfg.Logger = logs.Component("daemon")

	d, err := daemon.New(st, dcfg)
	if err != nil {
		return err
	}

	fmt.Printf("🔄 firewatch daemon\n\n")
	fmt.Printf("   inbox:    %s\n", inbox)
	fmt.Printf("   interval: %s\n", interval)
	fmt.Printf("   pidfile:  %s\n", cfg.Daemon.PIDFile)
	fmt.Printf("\nPress Ctrl+C to stop\n")

	if err := d.Start(ctx); err != nil {
		return err
	}
	fmt.Println("\nDaemon stopped.")
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	pid, running, err := daemon.Status(cfg.Daemon.PIDFile)
	if err != nil {
		fmt.Printf("%s Daemon not running\n", styles.Muted.Render("○"))
		return nil
	}
	if running {
		fmt.Printf("%s Daemon running (pid %d)\n", styles.Success.Render("✓"), pid)
	} else {
		fmt.Printf("%s Stale pidfile (pid %d is gone)\n", styles.Warning.Render("⚠"), pid)
	}
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	pid, running, err := daemon.Status(cfg.Daemon.PIDFile)
	if err != nil || !running {
		fmt.Println("Daemon not running.")
		return nil
	}
	if err := daemon.Terminate(cfg.Daemon.PIDFile); err != nil {
		return err
	}

	// Give it a moment to shut down cleanly before reporting.
	for i := 0; i < 20; i++ {
		if _, running, _ := daemon.Status(cfg.Daemon.PIDFile); !running {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Printf("%s Stopped daemon (pid %d)\n", styles.Success.Render("✓"), pid)
	return nil
}
