package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/prayer"
)

var flagFormat string

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long: "Display the next upcoming prayer time with the time remaining.\n" +
			"The output is a single line, suitable for status bars.",
		Args: cobra.NoArgs,
		RunE: runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull,
		"Display format: "+strings.Join(prayer.Modes, ", ")+", or a custom Go template (e.g. '{{.Name}} in {{.Remaining}}')")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	l, err := newLookup(cmd)
	if err != nil {
		return err
	}

	day, err := l.today(cmd.Context())
	if err != nil {
		return err
	}

	snap := day.At(localNow(day), l.cfg.Policy())
	if !snap.HasNext {
		return errors.New("could not determine next prayer")
	}

	layout := timeLayout(l.cfg)
	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), todayJSONFrom(snap, l.methodName(), layout).Next)
	}

	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(snap.Next, flagFormat, layout))
	return nil
}
