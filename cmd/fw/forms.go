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
	"github.com/emberhq/firewatch/internal/ui"
)

// errNotInteractive is returned when a form would be needed but stdin is
// not a terminal, so scripts get a clear failure instead of a hung prompt.
var errNotInteractive = errors.New("stdin is not a terminal; pass the record fields as flags")

// requireTerminal guards the interactive paths.
func requireTerminal() error {
	if !ui.IsTerminal(os.Stdin) {
		return errNotInteractive
	}
	return nil
}

// fieldFlagsChanged reports whether any of the named record field flags
// was set, which switches add and edit to the non-interactive path.
func fieldFlagsChanged(cmd *cobra.Command, names []string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// runForm executes a huh form, translating an abort into a quiet exit.
func runForm(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("aborted")
		}
		return err
	}
	return nil
}

// selectOptions builds select options with the current value first so a
// prefilled edit form lands on the record's value.
func selectOptions(values []string, current string) []huh.Option[string] {
	if current != "" {
		found := false
		for _, v := range values {
			if v == current {
				found = true
				break
			}
		}
		if !found {
			values = append([]string{current}, values...)
		}
	}
	return huh.NewOptions(values...)
}

// validateDay accepts anything the date parser understands.
func validateDay(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := dates.ParseDay(s, time.Now())
	return err
}

// resolveDay turns a date expression into the wire format, leaving empty
// input empty so defaults can apply.
func resolveDay(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	t, err := dates.ParseDay(s, time.Now())
	if err != nil {
		return "", err
	}
	return t.Format(dates.DayFormat), nil
}

// validateInt rejects input that is not a non-negative integer. Empty is
// allowed; the zero value applies.
func validateInt(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// validateFloat rejects input that is not a non-negative number.
func validateFloat(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("enter a number")
	}
	if f < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func parseIntField(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func parseFloatField(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
