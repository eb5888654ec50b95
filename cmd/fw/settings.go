package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/store"
	"github.com/emberhq/firewatch/internal/version"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	GroupID: "records",
	Short:   "Show or change the unit settings",
	Long: `Show or change the shared unit settings.

Settings are a single document the whole unit shares: the unit name,
the activity categories, the team roster, and the report header. Changes
sync to the endpoint like any other record, so every device picks them
up on its next refresh.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more settings",
	Long: `Change one or more settings fields.

Only the fields whose flags are given change; everything else keeps its
current value. List fields take comma-separated values.

Examples:
  fw settings set --unit 'Chiang Mai Unit 3' --province 'Chiang Mai'
  fw settings set --teams 'Team A,Team B,Night Crew'
  fw settings set --theme dark`,
	RunE: runSettingsSet,
}

func init() {
	settingsShowCmd.Flags().Bool("refresh", false, "Refresh from the endpoint before showing")
	settingsShowCmd.Flags().Bool("json", false, "Output as JSON")

	settingsSetCmd.Flags().String("unit", "", "Unit name")
	settingsSetCmd.Flags().String("province", "", "Province the unit operates in")
	settingsSetCmd.Flags().String("header", "", "Report header line")
	settingsSetCmd.Flags().String("theme", "", "Color theme (auto, dark, light, plain)")
	settingsSetCmd.Flags().StringSlice("categories", nil, "Activity categories")
	settingsSetCmd.Flags().StringSlice("teams", nil, "Team roster")
	settingsSetCmd.Flags().String("min-version", "", "Minimum app version the endpoint accepts")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	refresh, _ := cmd.Flags().GetBool("refresh")
	asJSON, _ := cmd.Flags().GetBool("json")

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	snap, err := paintMaybeRefresh(ctx, st, refresh)
	if errors.Is(err, store.ErrNoLocalData) {
		connectionErrorScreen(err)
		os.Exit(1)
	}
	if err != nil {
		return err
	}

	s := snap.Settings
	if asJSON {
		return printJSON(s)
	}

	fmt.Println(styles.Title.Render("Unit Settings"))
	fmt.Println()
	fmt.Printf("  Unit:           %s\n", s.UnitName)
	fmt.Printf("  Province:       %s\n", orNone(s.Province))
	fmt.Printf("  Categories:     %s\n", strings.Join(s.Categories, ", "))
	fmt.Printf("  Teams:          %s\n", strings.Join(s.Teams, ", "))
	fmt.Printf("  Report header:  %s\n", s.ReportHeader)
	fmt.Printf("  Theme:          %s\n", s.Theme)
	if s.MinAppVersion != "" {
		fmt.Printf("  Min version:    %s (running %s)\n", s.MinAppVersion, version.Current())
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	s := st.Settings()
	changed := false

	if cmd.Flags().Changed("unit") {
		s.UnitName, _ = cmd.Flags().GetString("unit")
		changed = true
	}
	if cmd.Flags().Changed("province") {
		s.Province, _ = cmd.Flags().GetString("province")
		changed = true
	}
	if cmd.Flags().Changed("header") {
		s.ReportHeader, _ = cmd.Flags().GetString("header")
		changed = true
	}
	if cmd.Flags().Changed("theme") {
		theme, _ := cmd.Flags().GetString("theme")
		switch theme {
		case "auto", "dark", "light", "plain":
		default:
			return fmt.Errorf("unknown theme %q (want auto, dark, light, or plain)", theme)
		}
		s.Theme = theme
		changed = true
	}
	if cmd.Flags().Changed("categories") {
		s.Categories, _ = cmd.Flags().GetStringSlice("categories")
		changed = true
	}
	if cmd.Flags().Changed("teams") {
		s.Teams, _ = cmd.Flags().GetStringSlice("teams")
		changed = true
	}
	if cmd.Flags().Changed("min-version") {
		s.MinAppVersion, _ = cmd.Flags().GetString("min-version")
		changed = true
	}

	if !changed {
		return fmt.Errorf("nothing to change; pass at least one field flag (see 'fw settings set --help')")
	}

	if err := st.SaveSettings(ctx, s); err != nil {
		return err
	}
	fmt.Printf("%s Settings saved\n", styles.Success.Render("✓"))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return styles.Muted.Render("(not set)")
	}
	return s
}
