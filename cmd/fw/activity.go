package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/dates"
	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/store"
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	GroupID: "records",
	Short:   "Log and review field activities",
	Long: `Manage the unit's activity log: patrols, firebreak cuts, community
education sessions, suppression responses.

Activities are written optimistically: the record appears locally at
once and is pushed to the endpoint in the background of the call. If the
endpoint rejects the write, the local change is rolled back and the
command reports the failure.`,
}

var activityAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a new activity",
	Long: `Log a new activity for the unit.

Without flags an interactive form collects the fields. With --title the
record is built from flags alone, which is what scripts and automations
want.

Examples:
  # Interactive form
  fw activity add

  # Scripted entry
  fw activity add --title 'Fuel break patrol' --team 'Team A' --date yesterday --personnel 4 --hours 3.5`,
	RunE: runActivityAdd,
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List activities",
	Long: `List the unit's activities, newest first.

The cached snapshot renders immediately; a stale or empty cache triggers
a refresh first. --since filters by date using the same expressions the
report command takes:

  fw activity list --since yesterday
  fw activity list --since week
  fw activity list --since 2025-11-01..2025-11-30`,
	RunE: runActivityList,
}

var activityEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an activity",
	Long: `Edit one activity by id.

Flags change only the fields they name; without flags an interactive
form opens prefilled with the current values. The update is optimistic
and rolls back to the endpoint's version if the write is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runActivityEdit,
}

var activityDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an activity",
	Args:  cobra.ExactArgs(1),
	RunE:  runActivityDelete,
}

func init() {
	addActivityFlags(activityAddCmd)
	activityAddCmd.Flags().String("id", "", "Record id (default: generated)")

	activityListCmd.Flags().String("since", "", "Only show activities in this date range")
	activityListCmd.Flags().Bool("refresh", false, "Refresh from the endpoint before listing")
	activityListCmd.Flags().Bool("json", false, "Output as JSON")

	addActivityFlags(activityEditCmd)

	activityCmd.AddCommand(activityAddCmd)
	activityCmd.AddCommand(activityListCmd)
	activityCmd.AddCommand(activityEditCmd)
	activityCmd.AddCommand(activityDeleteCmd)
	rootCmd.AddCommand(activityCmd)
}

// addActivityFlags registers the field flags shared by add and edit.
func addActivityFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "What the team did")
	cmd.Flags().String("type", "", "Activity type (patrol, firebreak, education, suppression, other)")
	cmd.Flags().String("team", "", "Team that did the work")
	cmd.Flags().String("date", "", "Operation date (today, yesterday, YYYY-MM-DD, ...)")
	cmd.Flags().String("location", "", "Where the work happened")
	cmd.Flags().String("notes", "", "Free-form notes")
	cmd.Flags().Int("personnel", 0, "Number of people involved")
	cmd.Flags().Float64("hours", 0, "Duration in hours")
}

func runActivityAdd(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	var a entity.Activity
	a.ID, _ = cmd.Flags().GetString("id")

	if fieldFlagsChanged(cmd, activityFieldFlags) {
		if err := activityFromFlags(cmd, &a); err != nil {
			return err
		}
	} else {
		if err := requireTerminal(); err != nil {
			return err
		}
		if err := activityForm(&a, st.Settings()); err != nil {
			return err
		}
	}

	if a.ID == "" {
		a.ID = entity.NewID("act")
	}
	a.SetDefaults()
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid activity: %w", err)
	}

	if err := st.SaveActivity(ctx, a, false); err != nil {
		return err
	}
	fmt.Printf("%s Created activity %s\n", styles.Success.Render("✓"), a.ID)
	return nil
}

func runActivityList(cmd *cobra.Command, args []string) error {
	since, _ := cmd.Flags().GetString("since")
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

	acts := snap.Activities
	if since != "" {
		rng, err := dates.ParseRange(since, time.Now())
		if err != nil {
			return err
		}
		filtered := acts[:0:0]
		for _, a := range acts {
			if rng.Contains(a.Date) {
				filtered = append(filtered, a)
			}
		}
		acts = filtered
	}

	if asJSON {
		return printJSON(acts)
	}

	if len(acts) == 0 {
		fmt.Println("No activities.")
		return nil
	}

	rows := make([][]string, 0, len(acts))
	for _, a := range acts {
		rows = append(rows, []string{
			a.ID, a.Date, a.Team, a.Type, a.Title,
			strconv.Itoa(a.Personnel),
			strconv.FormatFloat(a.DurationHours, 'f', -1, 64),
		})
	}
	fmt.Print(styles.Table([]string{"ID", "DATE", "TEAM", "TYPE", "TITLE", "CREW", "HOURS"}, rows))
	return nil
}

func runActivityEdit(cmd *cobra.Command, args []string) error {
	id := args[0]

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	snap, err := paintMaybeRefresh(ctx, st, false)
	if errors.Is(err, store.ErrNoLocalData) {
		connectionErrorScreen(err)
		os.Exit(1)
	}
	if err != nil {
		return err
	}

	var a *entity.Activity
	for i := range snap.Activities {
		if snap.Activities[i].ID == id {
			a = &snap.Activities[i]
			break
		}
	}
	if a == nil {
		return fmt.Errorf("no activity with id %s", id)
	}

	if fieldFlagsChanged(cmd, activityFieldFlags) {
		if err := activityFromFlags(cmd, a); err != nil {
			return err
		}
	} else {
		if err := requireTerminal(); err != nil {
			return err
		}
		if err := activityForm(a, snap.Settings); err != nil {
			return err
		}
	}

	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid activity: %w", err)
	}
	if err := st.SaveActivity(ctx, *a, true); err != nil {
		return err
	}
	fmt.Printf("%s Updated activity %s\n", styles.Success.Render("✓"), a.ID)
	return nil
}

func runActivityDelete(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	if err := st.DeleteActivity(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("%s Deleted activity %s\n", styles.Success.Render("✓"), args[0])
	return nil
}

// activityFromFlags overwrites the fields whose flags were set.
func activityFromFlags(cmd *cobra.Command, a *entity.Activity) error {
	if cmd.Flags().Changed("title") {
		a.Title, _ = cmd.Flags().GetString("title")
	}
	if cmd.Flags().Changed("type") {
		a.Type, _ = cmd.Flags().GetString("type")
	}
	if cmd.Flags().Changed("team") {
		a.Team, _ = cmd.Flags().GetString("team")
	}
	if cmd.Flags().Changed("date") {
		expr, _ := cmd.Flags().GetString("date")
		day, err := resolveDay(expr)
		if err != nil {
			return err
		}
		a.Date = day
	}
	if cmd.Flags().Changed("location") {
		a.Location, _ = cmd.Flags().GetString("location")
	}
	if cmd.Flags().Changed("notes") {
		a.Notes, _ = cmd.Flags().GetString("notes")
	}
	if cmd.Flags().Changed("personnel") {
		a.Personnel, _ = cmd.Flags().GetInt("personnel")
	}
	if cmd.Flags().Changed("hours") {
		a.DurationHours, _ = cmd.Flags().GetFloat64("hours")
	}
	return nil
}

// activityForm collects activity fields interactively. Type and team
// options come from the unit's settings.
func activityForm(a *entity.Activity, settings entity.Settings) error {
	personnel := ""
	if a.Personnel > 0 {
		personnel = strconv.Itoa(a.Personnel)
	}
	hours := ""
	if a.DurationHours > 0 {
		hours = strconv.FormatFloat(a.DurationHours, 'f', -1, 64)
	}
	if a.Type == "" && len(settings.Categories) > 0 {
		a.Type = settings.Categories[0]
	}
	if a.Team == "" && len(settings.Teams) > 0 {
		a.Team = settings.Teams[0]
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description("What did the team do?").
				CharLimit(500).
				Value(&a.Title).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Type").
				Options(selectOptions(settings.Categories, a.Type)...).
				Value(&a.Type),
			huh.NewSelect[string]().
				Title("Team").
				Options(selectOptions(settings.Teams, a.Team)...).
				Value(&a.Team),
			huh.NewInput().
				Title("Date").
				Placeholder("today").
				Value(&a.Date).
				Validate(validateDay),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Location").
				Value(&a.Location),
			huh.NewInput().
				Title("Personnel").
				Placeholder("0").
				Value(&personnel).
				Validate(validateInt),
			huh.NewInput().
				Title("Hours").
				Placeholder("0").
				Value(&hours).
				Validate(validateFloat),
			huh.NewText().
				Title("Notes").
				Value(&a.Notes),
		),
	)
	if err := runForm(form); err != nil {
		return err
	}

	day, err := resolveDay(a.Date)
	if err != nil {
		return err
	}
	a.Date = day
	a.Personnel = parseIntField(personnel)
	a.DurationHours = parseFloatField(hours)
	return nil
}

// activityFieldFlags names the flags that carry record fields, as
// opposed to behavior flags like --refresh.
var activityFieldFlags = []string{"title", "type", "team", "date", "location", "notes", "personnel", "hours"}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
