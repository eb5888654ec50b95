package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/backup"
	"github.com/emberhq/firewatch/internal/config"
	"github.com/emberhq/firewatch/internal/store"
)

var backupCmd = &cobra.Command{
	Use:     "backup",
	GroupID: "maint",
	Short:   "Export or import a YAML archive of all records",
	Long: `Export or import the unit's records as a single YAML archive.

An archive holds every activity, hotspot, incident, and the settings
document. Export before the burning season, import onto a replacement
laptop, or hand the file to the provincial office as the season record.`,
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all records to an archive file",
	Long: `Write all records to a YAML archive.

The data is refreshed from the endpoint first when it is reachable, so
the archive captures the authoritative state. Without --file the archive
is written to the data directory under a timestamped name.`,
	RunE: runBackupExport,
}

var backupImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replay an archive into the store",
	Long: `Replay an archive's records through the normal save path.

Every record is validated and saved as if entered by hand, so the
endpoint sees the same writes a person would make. Invalid records are
skipped and reported. Use --dry-run to see what would happen first.

Examples:
  fw backup import --file firewatch-backup-20260310-081500.yaml --dry-run
  fw backup import --file season-2025.yaml --settings`,
	RunE: runBackupImport,
}

func init() {
	backupExportCmd.Flags().String("file", "", "Archive path (default: timestamped in the data dir)")
	backupImportCmd.Flags().String("file", "", "Archive path to import")
	backupImportCmd.Flags().Bool("dry-run", false, "Validate without writing")
	backupImportCmd.Flags().Bool("settings", false, "Also import the archived settings")

	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}

func runBackupExport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = backup.DefaultPath(config.HomeDir())
	}

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	snap, err := paintAndRefresh(ctx, st)
	if errors.Is(err, store.ErrNoLocalData) {
		connectionErrorScreen(err)
		os.Exit(1)
	}
	if err != nil {
		return err
	}
	if snap.Status.State == store.StateError {
		fmt.Printf("%s Endpoint unreachable; archiving cached data\n", styles.Warning.Render("⚠"))
	}

	res, err := backup.Export(path, backup.Archive{
		Settings:   snap.Settings,
		Activities: snap.Activities,
		Hotspots:   snap.Hotspots,
		Incidents:  snap.Incidents,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s Exported to %s\n", styles.Success.Render("✓"), res.Path)
	fmt.Printf("  %d activities, %d hotspots, %d incidents\n",
		res.Activities, res.Hotspots, res.Incidents)
	return nil
}

func runBackupImport(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	includeSettings, _ := cmd.Flags().GetBool("settings")
	if path == "" {
		return fmt.Errorf("no archive; pass --file")
	}

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := backup.Import(ctx, st, backup.ImportOptions{
		Path:            path,
		DryRun:          dryRun,
		IncludeSettings: includeSettings,
	})
	if err != nil {
		return err
	}

	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %s %d activities, %d hotspots, %d incidents\n",
		styles.Success.Render("✓"), verb, res.Activities, res.Hotspots, res.Incidents)
	if res.SettingsApplied {
		fmt.Println("  settings applied")
	}
	if res.Skipped > 0 {
		fmt.Printf("%s Skipped %d records:\n", styles.Warning.Render("⚠"), res.Skipped)
		for _, line := range res.Errors {
			fmt.Printf("  %s\n", line)
		}
	}
	return nil
}
