package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/dates"
	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/store"
)

var hotspotCmd = &cobra.Command{
	Use:     "hotspot",
	GroupID: "records",
	Short:   "Track satellite hotspot detections",
	Long: `Track the satellite hotspot detections the unit checks each round.

Detections arrive from VIIRS and MODIS passes three times a day. Each
record carries the round, the detection count, and the region, and moves
through the statuses new, checked, and responded.`,
}

var hotspotAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a hotspot detection",
	Long: `Record one hotspot detection.

Without flags an interactive form collects the fields; with --count the
record is built from flags alone.

Example:
  fw hotspot add --count 3 --round morning --satellite VIIRS --region 'Doi Suthep' --lat 18.80 --lon 98.92`,
	RunE: runHotspotAdd,
}

var hotspotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hotspot detections",
	RunE:  runHotspotList,
}

var hotspotDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a hotspot detection",
	Args:  cobra.ExactArgs(1),
	RunE:  runHotspotDelete,
}

var hotspotFieldFlags = []string{"date", "round", "satellite", "count", "region", "lat", "lon", "status"}

func init() {
	addHotspotFlags(hotspotAddCmd)
	hotspotAddCmd.Flags().String("id", "", "Record id (default: generated)")

	hotspotListCmd.Flags().String("since", "", "Only show detections in this date range")
	hotspotListCmd.Flags().Bool("refresh", false, "Refresh from the endpoint before listing")
	hotspotListCmd.Flags().Bool("json", false, "Output as JSON")

	hotspotCmd.AddCommand(hotspotAddCmd)
	hotspotCmd.AddCommand(hotspotListCmd)
	hotspotCmd.AddCommand(hotspotDeleteCmd)
	rootCmd.AddCommand(hotspotCmd)
}

func addHotspotFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "Detection date (today, yesterday, YYYY-MM-DD, ...)")
	cmd.Flags().String("round", "", "Check round (morning, afternoon, night)")
	cmd.Flags().String("satellite", "", "Detecting satellite (VIIRS, MODIS)")
	cmd.Flags().Int("count", 0, "Number of detections")
	cmd.Flags().String("region", "", "Region the detections fall in")
	cmd.Flags().Float64("lat", 0, "Latitude of the cluster center")
	cmd.Flags().Float64("lon", 0, "Longitude of the cluster center")
	cmd.Flags().String("status", "", "Response status (new, checked, responded)")
}

func runHotspotAdd(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	var h entity.Hotspot
	h.ID, _ = cmd.Flags().GetString("id")

	if fieldFlagsChanged(cmd, hotspotFieldFlags) {
		if err := hotspotFromFlags(cmd, &h); err != nil {
			return err
		}
	} else {
		if err := requireTerminal(); err != nil {
			return err
		}
		if err := hotspotForm(&h); err != nil {
			return err
		}
	}

	if h.ID == "" {
		h.ID = entity.NewID("hs")
	}
	h.SetDefaults()
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid hotspot: %w", err)
	}

	if err := st.SaveHotspot(ctx, h, false); err != nil {
		return err
	}
	fmt.Printf("%s Recorded hotspot %s\n", styles.Success.Render("✓"), h.ID)
	return nil
}

func runHotspotList(cmd *cobra.Command, args []string) error {
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

	hs := snap.Hotspots
	if since != "" {
		rng, err := dates.ParseRange(since, time.Now())
		if err != nil {
			return err
		}
		filtered := hs[:0:0]
		for _, h := range hs {
			if rng.Contains(h.Date) {
				filtered = append(filtered, h)
			}
		}
		hs = filtered
	}

	if asJSON {
		return printJSON(hs)
	}

	if len(hs) == 0 {
		fmt.Println("No hotspot detections.")
		return nil
	}

	rows := make([][]string, 0, len(hs))
	for _, h := range hs {
		rows = append(rows, []string{
			h.ID, h.Date, h.Round, h.Satellite,
			strconv.Itoa(h.Count), h.Region, h.Status,
		})
	}
	fmt.Print(styles.Table([]string{"ID", "DATE", "ROUND", "SAT", "COUNT", "REGION", "STATUS"}, rows))
	return nil
}

func runHotspotDelete(cmd *cobra.Command, args []string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	if err := st.DeleteHotspot(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("%s Deleted hotspot %s\n", styles.Success.Render("✓"), args[0])
	return nil
}

func hotspotFromFlags(cmd *cobra.Command, h *entity.Hotspot) error {
	if cmd.Flags().Changed("date") {
		expr, _ := cmd.Flags().GetString("date")
		day, err := resolveDay(expr)
		if err != nil {
			return err
		}
		h.Date = day
	}
	if cmd.Flags().Changed("round") {
		h.Round, _ = cmd.Flags().GetString("round")
	}
	if cmd.Flags().Changed("satellite") {
		h.Satellite, _ = cmd.Flags().GetString("satellite")
	}
	if cmd.Flags().Changed("count") {
		h.Count, _ = cmd.Flags().GetInt("count")
	}
	if cmd.Flags().Changed("region") {
		h.Region, _ = cmd.Flags().GetString("region")
	}
	if cmd.Flags().Changed("lat") {
		h.Lat, _ = cmd.Flags().GetFloat64("lat")
	}
	if cmd.Flags().Changed("lon") {
		h.Lon, _ = cmd.Flags().GetFloat64("lon")
	}
	if cmd.Flags().Changed("status") {
		h.Status, _ = cmd.Flags().GetString("status")
	}
	return nil
}

func hotspotForm(h *entity.Hotspot) error {
	count := ""
	if h.Count > 0 {
		count = strconv.Itoa(h.Count)
	}
	lat := ""
	if h.Lat != 0 {
		lat = strconv.FormatFloat(h.Lat, 'f', -1, 64)
	}
	lon := ""
	if h.Lon != 0 {
		lon = strconv.FormatFloat(h.Lon, 'f', -1, 64)
	}
	if h.Round == "" {
		h.Round = "morning"
	}
	if h.Status == "" {
		h.Status = "new"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Round").
				Options(huh.NewOptions("morning", "afternoon", "night")...).
				Value(&h.Round),
			huh.NewInput().
				Title("Satellite").
				Placeholder("VIIRS").
				Value(&h.Satellite),
			huh.NewInput().
				Title("Count").
				Description("Number of detections in the cluster").
				Value(&count).
				Validate(validateInt),
			huh.NewInput().
				Title("Date").
				Placeholder("today").
				Value(&h.Date).
				Validate(validateDay),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Region").
				Value(&h.Region),
			huh.NewInput().
				Title("Latitude").
				Value(&lat).
				Validate(validateCoord(90)),
			huh.NewInput().
				Title("Longitude").
				Value(&lon).
				Validate(validateCoord(180)),
			huh.NewSelect[string]().
				Title("Status").
				Options(huh.NewOptions("new", "checked", "responded")...).
				Value(&h.Status),
		),
	)
	if err := runForm(form); err != nil {
		return err
	}

	day, err := resolveDay(h.Date)
	if err != nil {
		return err
	}
	h.Date = day
	h.Count = parseIntField(count)
	h.Lat = parseFloatField(lat)
	h.Lon = parseFloatField(lon)
	return nil
}

// validateCoord builds a validator for a coordinate bounded by ±limit.
func validateCoord(limit float64) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if f < -limit || f > limit {
			return fmt.Errorf("must be between %g and %g", -limit, limit)
		}
		return nil
	}
}
