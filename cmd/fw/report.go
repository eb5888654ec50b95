package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberhq/firewatch/internal/dates"
	"github.com/emberhq/firewatch/internal/report"
	"github.com/emberhq/firewatch/internal/store"
	"github.com/emberhq/firewatch/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	GroupID: "records",
	Short:   "Render an operations report for a date range",
	Long: `Render the unit's operations report for a date range.

The report aggregates activities, hotspot detections, and incidents
into the summary the unit files with the provincial office: KPIs up
top, then a table per record type. The layout comes from a TOML
template; without one the built-in layout is used.

Date ranges accept natural expressions:

  fw report --since week
  fw report --since 'last month'
  fw report --from 2026-03-01 --to 2026-03-15

With --summarize the rendered report is sent to Claude for a short
narrative summary, appended after the tables. This needs an API key in
ai.api_key or $ANTHROPIC_API_KEY.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("since", "", "Date range expression (today, week, month, ...)")
	reportCmd.Flags().String("from", "", "Range start day")
	reportCmd.Flags().String("to", "", "Range end day")
	reportCmd.Flags().String("template", "", "Report template file (TOML)")
	reportCmd.Flags().Bool("summarize", false, "Append an AI narrative summary")
	reportCmd.Flags().Bool("refresh", false, "Refresh from the endpoint before reporting")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	since, _ := cmd.Flags().GetString("since")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	templatePath, _ := cmd.Flags().GetString("template")
	summarize, _ := cmd.Flags().GetBool("summarize")
	refresh, _ := cmd.Flags().GetBool("refresh")

	rng, err := reportRange(since, from, to)
	if err != nil {
		return err
	}

	tmpl := report.DefaultTemplate()
	if templatePath == "" {
		templatePath = cfg.Report.Template
	}
	if templatePath != "" {
		tmpl, err = report.LoadTemplate(templatePath)
		if err != nil {
			return err
		}
	}

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

	data := report.Build(snap.Activities, snap.Hotspots, snap.Incidents, snap.Settings, rng)
	fmt.Print(report.Render(data, tmpl, styles))

	if summarize {
		apiKey := cfg.AI.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return fmt.Errorf("no API key for --summarize; set ai.api_key or $ANTHROPIC_API_KEY")
		}
		fmt.Printf("\n%s\n", styles.Muted.Render("Summarizing..."))
		plain := report.Render(data, tmpl, ui.NewStyles(ui.ThemePlain))
		summary, err := report.Summarize(ctx, apiKey, plain)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}
		fmt.Print(styles.Section("Narrative Summary", summary))
	}
	return nil
}

// reportRange resolves the three range flags into one span. --since wins
// when given; --from/--to form an explicit span, each defaulting to the
// other end when only one is set; no flags means today.
func reportRange(since, from, to string) (dates.Range, error) {
	now := time.Now()
	if since != "" {
		if from != "" || to != "" {
			return dates.Range{}, fmt.Errorf("--since cannot be combined with --from/--to")
		}
		return dates.ParseRange(since, now)
	}
	if from == "" && to == "" {
		return dates.ParseRange("today", now)
	}

	rng := dates.Range{}
	var err error
	if from != "" {
		rng.From, err = dates.ParseDay(from, now)
		if err != nil {
			return dates.Range{}, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		rng.To, err = dates.ParseDay(to, now)
		if err != nil {
			return dates.Range{}, fmt.Errorf("--to: %w", err)
		}
	}
	if from == "" {
		rng.From = rng.To
	}
	if to == "" {
		rng.To = rng.From
	}
	if rng.To.Before(rng.From) {
		return dates.Range{}, fmt.Errorf("range ends before it starts (%s)", rng.String())
	}
	return rng, nil
}
