package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/display"
)

func newHijriCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "hijri [YYYY-MM-DD]",
		Aliases: []string{"calendar"},
		Short:   "Convert a date to the Hijri calendar",
		Long:    "Print the Hijri date for today, or for the given Gregorian date.",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runHijri,
	}
}

type hijriJSON struct {
	Gregorian string   `json:"gregorian"`
	Hijri     string   `json:"hijri"`
	Holidays  []string `json:"holidays,omitempty"`
}

func runHijri(cmd *cobra.Command, args []string) error {
	date := clock()
	if len(args) > 0 {
		d, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: use YYYY-MM-DD", args[0])
		}
		date = d
	}

	h, err := newAPIClient().FetchHijri(cmd.Context(), date)
	if err != nil {
		return err
	}

	out := hijriJSON{
		Gregorian: date.Format("Monday, 2 January 2006"),
		Hijri:     h.Format(),
		Holidays:  h.Holidays,
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "  %s\n", out.Gregorian)
	fmt.Fprintf(w, "  %s\n", display.Bold(out.Hijri))
	if len(out.Holidays) > 0 {
		fmt.Fprintf(w, "  %s\n", display.Accent(strings.Join(out.Holidays, ", ")))
	}
	return nil
}
