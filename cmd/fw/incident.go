package main

import (
	"bufio"
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

var incidentCmd = &cobra.Command{
	Use:     "incident",
	GroupID: "records",
	Short:   "Track fire incidents and responses",
	Long: `Track the fires the unit responded to.

Each incident records where the fire was, the suspected cause, the
burned area in rai, and whether the fire was brought under control.
Incidents can be filed one at a time or imported as a batch from a
JSONL file, which is how teams returning from a multi-day deployment
catch the log up.`,
}

var incidentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a fire incident",
	Long: `Record one fire incident.

Without flags an interactive form collects the fields; with any field
flag the record is built from flags alone.

Example:
  fw incident add --location 'Ban Pong ridge' --cause agricultural --area 12.5 --controlled`,
	RunE: runIncidentAdd,
}

var incidentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fire incidents",
	RunE:  runIncidentList,
}

var incidentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a fire incident",
	Args:  cobra.ExactArgs(1),
	RunE:  runIncidentDelete,
}

var incidentImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import incidents from a JSONL file",
	Long: `Import a batch of incidents from a JSONL file.

Each line is one incident object. Records without an id get one
generated. The batch is validated as a whole and saved in a single
request, so either every record lands or none do.

Example:
  fw incident import sorties/march-12.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runIncidentImport,
}

var incidentFieldFlags = []string{"date", "location", "cause", "area", "controlled", "team", "notes"}

func init() {
	addIncidentFlags(incidentAddCmd)
	incidentAddCmd.Flags().String("id", "", "Record id (default: generated)")

	incidentListCmd.Flags().String("since", "", "Only show incidents in this date range")
	incidentListCmd.Flags().Bool("refresh", false, "Refresh from the endpoint before listing")
	incidentListCmd.Flags().Bool("json", false, "Output as JSON")

	incidentCmd.AddCommand(incidentAddCmd)
	incidentCmd.AddCommand(incidentListCmd)
	incidentCmd.AddCommand(incidentDeleteCmd)
	incidentCmd.AddCommand(incidentImportCmd)
	rootCmd.AddCommand(incidentCmd)
}

func addIncidentFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "Incident date (today, yesterday, YYYY-MM-DD, ...)")
	cmd.Flags().String("location", "", "Where the fire burned")
	cmd.Flags().String("cause", "", "Suspected cause (agricultural, lightning, campfire, unknown)")
	cmd.Flags().Float64("area", 0, "Burned area in rai")
	cmd.Flags().Bool("controlled", false, "Fire was brought under control")
	cmd.Flags().String("team", "", "Responding team")
	cmd.Flags().String("notes", "", "Free-form notes")
}

func runIncidentAdd(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	var in entity.FireIncident
	in.ID, _ = cmd.Flags().GetString("id")

	if fieldFlagsChanged(cmd, incidentFieldFlags) {
		if err := incidentFromFlags(cmd, &in); err != nil {
			return err
		}
	} else {
		if err := requireTerminal(); err != nil {
			return err
		}
		if err := incidentForm(&in, st.Settings()); err != nil {
			return err
		}
	}

	if in.ID == "" {
		in.ID = entity.NewID("fi")
	}
	in.SetDefaults()
	if err := in.Validate(); err != nil {
		return fmt.Errorf("invalid incident: %w", err)
	}

	if err := st.SaveIncident(ctx, in, false); err != nil {
		return err
	}
	fmt.Printf("%s Recorded incident %s\n", styles.Success.Render("✓"), in.ID)
	return nil
}

func runIncidentList(cmd *cobra.Command, args []string) error {
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

	fis := snap.Incidents
	if since != "" {
		rng, err := dates.ParseRange(since, time.Now())
		if err != nil {
			return err
		}
		filtered := fis[:0:0]
		for _, in := range fis {
			if rng.Contains(in.Date) {
				filtered = append(filtered, in)
			}
		}
		fis = filtered
	}

	if asJSON {
		return printJSON(fis)
	}

	if len(fis) == 0 {
		fmt.Println("No incidents.")
		return nil
	}

	rows := make([][]string, 0, len(fis))
	for _, in := range fis {
		controlled := "no"
		if in.Controlled {
			controlled = "yes"
		}
		rows = append(rows, []string{
			in.ID, in.Date, in.Location, in.Cause,
			strconv.FormatFloat(in.AreaRai, 'f', -1, 64), controlled, in.Team,
		})
	}
	fmt.Print(styles.Table([]string{"ID", "DATE", "LOCATION", "CAUSE", "AREA (RAI)", "CONTROLLED", "TEAM"}, rows))
	return nil
}

func runIncidentDelete(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	if err := st.DeleteIncident(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("%s Deleted incident %s\n", styles.Success.Render("✓"), args[0])
	return nil
}

func runIncidentImport(cmd *cobra.Command, args []string) error {
	batch, err := readIncidentBatch(args[0])
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return fmt.Errorf("%s: no incidents found", args[0])
	}

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	if err := st.SaveIncidentsBatch(ctx, batch); err != nil {
		return err
	}
	fmt.Printf("%s Imported %d incidents from %s\n", styles.Success.Render("✓"), len(batch), args[0])
	return nil
}

// readIncidentBatch parses a JSONL file into a validated batch. Ids are
// generated for records that arrive without one.
func readIncidentBatch(path string) ([]entity.FireIncident, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var batch []entity.FireIncident
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var in entity.FireIncident
		if err := json.Unmarshal(line, &in); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		if in.ID == "" {
			in.ID = entity.NewID("fi")
		}
		in.SetDefaults()
		batch = append(batch, in)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := entity.ValidateBatch(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func incidentFromFlags(cmd *cobra.Command, in *entity.FireIncident) error {
	if cmd.Flags().Changed("date") {
		expr, _ := cmd.Flags().GetString("date")
		day, err := resolveDay(expr)
		if err != nil {
			return err
		}
		in.Date = day
	}
	if cmd.Flags().Changed("location") {
		in.Location, _ = cmd.Flags().GetString("location")
	}
	if cmd.Flags().Changed("cause") {
		in.Cause, _ = cmd.Flags().GetString("cause")
	}
	if cmd.Flags().Changed("area") {
		in.AreaRai, _ = cmd.Flags().GetFloat64("area")
	}
	if cmd.Flags().Changed("controlled") {
		in.Controlled, _ = cmd.Flags().GetBool("controlled")
	}
	if cmd.Flags().Changed("team") {
		in.Team, _ = cmd.Flags().GetString("team")
	}
	if cmd.Flags().Changed("notes") {
		in.Notes, _ = cmd.Flags().GetString("notes")
	}
	return nil
}

func incidentForm(in *entity.FireIncident, settings entity.Settings) error {
	area := ""
	if in.AreaRai > 0 {
		area = strconv.FormatFloat(in.AreaRai, 'f', -1, 64)
	}
	if in.Cause == "" {
		in.Cause = "unknown"
	}
	if in.Team == "" && len(settings.Teams) > 0 {
		in.Team = settings.Teams[0]
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Location").
				Description("Where the fire burned").
				CharLimit(500).
				Value(&in.Location).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("location is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Cause").
				Options(huh.NewOptions("agricultural", "lightning", "campfire", "unknown")...).
				Value(&in.Cause),
			huh.NewInput().
				Title("Burned area (rai)").
				Value(&area).
				Validate(validateFloat),
			huh.NewInput().
				Title("Date").
				Placeholder("today").
				Value(&in.Date).
				Validate(validateDay),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Controlled?").
				Description("Was the fire brought under control").
				Value(&in.Controlled),
			huh.NewSelect[string]().
				Title("Team").
				Options(selectOptions(settings.Teams, in.Team)...).
				Value(&in.Team),
			huh.NewText().
				Title("Notes").
				CharLimit(2000).
				Value(&in.Notes),
		),
	)
	if err := runForm(form); err != nil {
		return err
	}

	day, err := resolveDay(in.Date)
	if err != nil {
		return err
	}
	in.Date = day
	in.AreaRai = parseFloatField(area)
	return nil
}
