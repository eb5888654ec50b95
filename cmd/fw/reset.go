package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:     "reset",
	GroupID: "maint",
	Short:   "Wipe all records on the endpoint and locally",
	Long: `Wipe every record: activities, hotspots, incidents, and settings,
on the endpoint and in the local cache.

Units run this between burning seasons after the season archive has
been exported. There is no undo; export a backup first.

Example:
  fw backup export && fw reset --confirm`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Bool("confirm", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	confirmed, _ := cmd.Flags().GetBool("confirm")

	if !confirmed {
		if err := requireTerminal(); err != nil {
			return fmt.Errorf("%w (or pass --confirm)", err)
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Wipe all records?").
				Description("Deletes everything on the endpoint and locally. There is no undo.").
				Affirmative("Wipe").
				Negative("Cancel").
				Value(&confirmed),
		))
		if err := runForm(form); err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()
	st.Open()

	ctx, cancel := signalContext()
	defer cancel()

	if err := st.FactoryReset(ctx); err != nil {
		return err
	}
	fmt.Printf("%s All records wiped\n", styles.Success.Render("✓"))
	return nil
}
